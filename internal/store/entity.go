package store

import (
	"path/filepath"
	"strings"
	"time"

	"ignite/internal/address"
	"ignite/internal/components"
	"ignite/internal/kind"
	"ignite/internal/marker"
)

// Entity is one classified directory and its marker metadata. Kind selects
// which of the kind-specific fields are populated.
type Entity struct {
	Kind       kind.Kind         `json:"kind"`
	Path       string            `json:"path"`
	Name       string            `json:"name"`
	URI        string            `json:"uri,omitempty"`
	Project    string            `json:"project,omitempty"`
	Group      string            `json:"group,omitempty"`
	Context    string            `json:"context,omitempty"`
	Task       string            `json:"task,omitempty"`
	Tags       []string          `json:"tags"`
	Attributes map[string]string `json:"attributes"`
	Repr       string            `json:"repr,omitempty"`
	Comment    string            `json:"comment,omitempty"`
	CreatedAt  time.Time         `json:"created_at,omitzero"`
	ModifiedAt time.Time         `json:"modified_at,omitzero"`
	Extra      map[string]any    `json:"extra,omitempty"`

	// Task
	TaskType string `json:"task_type,omitempty"`

	// Scene and AssetVersion
	Version       string `json:"version,omitempty"`
	VersionNumber int    `json:"version_number,omitempty"`

	// Scene
	DCC       string `json:"dcc,omitempty"`
	SceneFile string `json:"scene_file,omitempty"`

	// AssetVersion
	Asset      string                 `json:"asset,omitempty"`
	Components []components.Component `json:"components,omitempty"`

	// Asset
	Latest string `json:"latest,omitempty"`
	Best   string `json:"best,omitempty"`
}

// HasTag reports whether the entity carries tag, ignoring case.
func (e Entity) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// UnknownDCC is reported for scene files with an unrecognized extension.
const UnknownDCC = "unknown"

var dccByExtension = map[string]string{
	".ma":    "maya",
	".mb":    "maya",
	".hip":   "houdini",
	".hipnc": "houdini",
	".hiplc": "houdini",
	".blend": "blender",
	".nk":    "nuke",
	".nknc":  "nuke",
	".kra":   "krita",
	".psd":   "photoshop",
	".spp":   "substance_painter",
	".c4d":   "cinema4d",
	".usd":   "usd",
	".usda":  "usd",
	".usdc":  "usd",
	".py":    "python",
}

// DCCForFile maps a scene filename to its host application.
func DCCForFile(name string) string {
	if dcc, ok := dccByExtension[strings.ToLower(filepath.Ext(name))]; ok {
		return dcc
	}
	return UnknownDCC
}

// sceneFile picks the first file with a known DCC extension, falling back to
// the first visible non-marker file.
func sceneFile(files []string, tax *kind.Taxonomy) string {
	var fallback string
	for _, name := range files {
		if strings.HasPrefix(name, ".") || tax.IsMarker(name) {
			continue
		}
		if DCCForFile(name) != UnknownDCC {
			return name
		}
		if fallback == "" {
			fallback = name
		}
	}
	return fallback
}

// applyDocument copies the well-known marker fields onto e.
func (e *Entity) applyDocument(doc marker.Document) {
	e.Tags = doc.Tags()
	e.Attributes = doc.Attributes()
	e.Repr = doc.String(marker.KeyRepr)
	e.Comment = doc.String(marker.KeyComment)
	e.CreatedAt = doc.Time(marker.KeyCreatedAt)
	e.ModifiedAt = doc.Time(marker.KeyModifiedAt)
	if extra := doc.Extra(); len(extra) > 0 {
		e.Extra = extra
	}
}

// applyAddress fills the address-derived fields.
func (e *Entity) applyAddress(a address.Address) {
	e.URI = a.String()
	e.Project = a.Project
	e.Group = a.Group
	e.Context = a.Context
	e.Task = a.Task
}

// Record flattens the entity into the generic shape the query compiler
// evaluates. Tags become a list of {name} objects so "tags.ARRAY.name"
// addresses them.
func (e Entity) Record() map[string]any {
	tags := make([]any, 0, len(e.Tags))
	for _, t := range e.Tags {
		tags = append(tags, map[string]any{"name": t})
	}
	attrs := make(map[string]any, len(e.Attributes))
	for k, v := range e.Attributes {
		attrs[k] = v
	}
	rec := map[string]any{
		"kind":       e.Kind.String(),
		"path":       e.Path,
		"name":       e.Name,
		"uri":        e.URI,
		"project":    e.Project,
		"group":      e.Group,
		"context":    e.Context,
		"task":       e.Task,
		"tags":       tags,
		"attributes": attrs,
		"repr":       e.Repr,
		"comment":    e.Comment,
		"task_type":  e.TaskType,
		"dcc":        e.DCC,
		"version":    e.Version,
		"asset":      e.Asset,
		"latest":     e.Latest,
		"best":       e.Best,
	}
	if e.VersionNumber > 0 {
		rec["version_number"] = e.VersionNumber
	}
	if !e.CreatedAt.IsZero() {
		rec["created_at"] = e.CreatedAt.Format(time.RFC3339)
	}
	if !e.ModifiedAt.IsZero() {
		rec["modified_at"] = e.ModifiedAt.Format(time.RFC3339)
	}
	if len(e.Components) > 0 {
		comps := make([]any, 0, len(e.Components))
		for _, c := range e.Components {
			comps = append(comps, map[string]any{
				"name":        c.Name,
				"extension":   c.Extension,
				"is_sequence": c.IsSequence,
			})
		}
		rec["components"] = comps
	}
	for k, v := range e.Extra {
		if _, taken := rec[k]; !taken {
			rec[k] = v
		}
	}
	return rec
}
