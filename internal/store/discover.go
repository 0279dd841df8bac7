package store

import (
	"context"
	"fmt"
	"strings"

	"ignite/internal/discovery"
	"ignite/internal/kind"
	"ignite/internal/marker"
)

// Filter narrows discovery by kind-specific attributes.
type Filter struct {
	// TaskType keeps tasks whose task_type matches, ignoring case.
	TaskType string
	// DCC keeps scenes whose host application matches, ignoring case.
	DCC string
}

// Listing is the outcome of a discovery call. Warnings describe subtrees
// that could not be read; the entities found elsewhere are still returned.
type Listing struct {
	Entities []Entity `json:"entities"`
	Warnings []string `json:"warnings,omitempty"`
}

// Discover lists every entity of kind k at or below start. An empty start
// walks the whole root. Asset versions are found by discovering assets and
// expanding their version directories concurrently.
func (s *Store) Discover(ctx context.Context, start string, k kind.Kind, f Filter) (Listing, error) {
	const op = "discover"
	if !k.Valid() || k == kind.None {
		return Listing{}, newError(KindInvalidKind, op, start, fmt.Errorf("%w: %q", kind.ErrInvalid, k))
	}
	dir := s.root
	if strings.TrimSpace(start) != "" {
		var err error
		if dir, err = s.locate(start, false); err != nil {
			return Listing{}, wrap(op, start, err)
		}
	}

	walkTarget := k
	if k == kind.AssetVersion {
		walkTarget = kind.Asset
	}
	res, err := discovery.Collect(s.walker.Walk(ctx, dir, discovery.Options{
		Target: walkTarget,
		Match:  s.matcher(k, f),
	}))
	if err != nil {
		return Listing{}, wrap(op, dir, err)
	}

	hits := res.Hits
	warnings := res.Warnings
	if k == kind.AssetVersion {
		versions, warns, err := discovery.ExpandVersions(ctx, hits, s.settings.DiscoveryWorkers)
		if err != nil {
			return Listing{}, wrap(op, dir, err)
		}
		hits = versions
		warnings = append(warnings, warns...)
	}

	out := Listing{Entities: make([]Entity, 0, len(hits))}
	for _, hit := range hits {
		out.Entities = append(out.Entities, s.load(hit.Path, k, hit.Files))
	}
	for _, w := range warnings {
		out.Warnings = append(out.Warnings, w.Error())
	}
	return out, nil
}

func (s *Store) matcher(k kind.Kind, f Filter) func(discovery.Hit) bool {
	switch {
	case k == kind.Task && f.TaskType != "":
		return func(hit discovery.Hit) bool {
			doc := s.readDocument(hit.Path, kind.Task, hit.Files)
			return strings.EqualFold(doc.String(marker.KeyTaskType), f.TaskType)
		}
	case k == kind.Scene && f.DCC != "":
		return func(hit discovery.Hit) bool {
			dcc := s.readDocument(hit.Path, kind.Scene, hit.Files).String(marker.KeyDCC)
			if dcc == "" {
				if file := sceneFile(hit.Files, s.tax); file != "" {
					dcc = DCCForFile(file)
				}
			}
			return strings.EqualFold(dcc, f.DCC)
		}
	default:
		return nil
	}
}
