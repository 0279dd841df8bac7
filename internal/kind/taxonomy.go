package kind

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
)

var (
	// ErrAmbiguous is returned when a directory carries more than one marker.
	ErrAmbiguous = errors.New("ambiguous kind")
	// ErrInvalid is returned for unknown kind names.
	ErrInvalid = errors.New("invalid kind")
)

// Reserved container names that discovery passes through without a marker.
const (
	ExportsDir = "exports"
	ScenesDir  = "scenes"
)

var skipNames = map[string]struct{}{
	".config": {},
	"common":  {},
}

// Skipped reports whether name is one of the reserved names every scan ignores.
func Skipped(name string) bool {
	_, ok := skipNames[name]
	return ok
}

// PassThrough reports whether name is a reserved unmarked container.
func PassThrough(name string) bool {
	return name == ExportsDir || name == ScenesDir
}

// DefaultMarkers returns the built-in kind to marker filename table.
func DefaultMarkers() map[Kind]string {
	out := make(map[Kind]string, len(allKinds))
	for _, k := range allKinds {
		out[k] = ".ign_" + string(k) + ".yaml"
	}
	return out
}

// Taxonomy is an immutable kind<->marker table.
type Taxonomy struct {
	byKind map[Kind]string
	byName map[string]Kind
}

// Default returns the taxonomy built from DefaultMarkers.
func Default() *Taxonomy {
	t, err := NewTaxonomy(nil)
	if err != nil {
		panic(err)
	}
	return t
}

// NewTaxonomy builds a taxonomy from the default table with overrides
// applied. Overrides must name known kinds and keep filenames unique.
func NewTaxonomy(overrides map[string]string) (*Taxonomy, error) {
	markers := DefaultMarkers()
	for name, filename := range overrides {
		k, err := Parse(name)
		if err != nil {
			return nil, fmt.Errorf("marker override: %w", err)
		}
		filename = strings.TrimSpace(filename)
		if filename == "" {
			return nil, fmt.Errorf("marker override for %s: empty filename", k)
		}
		if strings.ContainsAny(filename, `/\`) {
			return nil, fmt.Errorf("marker override for %s: %q must be a bare filename", k, filename)
		}
		markers[k] = filename
	}

	t := &Taxonomy{
		byKind: make(map[Kind]string, len(markers)),
		byName: make(map[string]Kind, len(markers)),
	}
	for _, k := range allKinds {
		filename := markers[k]
		if other, exists := t.byName[filename]; exists {
			return nil, fmt.Errorf("marker %q assigned to both %s and %s", filename, other, k)
		}
		if Skipped(filename) || PassThrough(filename) {
			return nil, fmt.Errorf("marker %q collides with a reserved name", filename)
		}
		t.byKind[k] = filename
		t.byName[filename] = k
	}
	return t, nil
}

// Marker returns the marker filename for k.
func (t *Taxonomy) Marker(k Kind) string {
	return t.byKind[k]
}

// KindOf returns the kind declared by a marker filename.
func (t *Taxonomy) KindOf(filename string) (Kind, bool) {
	k, ok := t.byName[filename]
	return k, ok
}

// IsMarker reports whether filename is any reserved marker.
func (t *Taxonomy) IsMarker(filename string) bool {
	_, ok := t.byName[filename]
	return ok
}

// ClassifyEntries classifies a directory from an already-read child listing.
// Names are examined in sorted order so results do not depend on the order
// the filesystem returned them in.
func (t *Taxonomy) ClassifyEntries(dir string, names []string) (Kind, error) {
	sorted := make([]string, len(names))
	copy(sorted, names)
	sort.Strings(sorted)

	found := None
	var foundMarker string
	for _, name := range sorted {
		if Skipped(name) {
			continue
		}
		k, ok := t.byName[name]
		if !ok {
			continue
		}
		if found != None {
			return None, fmt.Errorf("%w: %s has markers %s and %s", ErrAmbiguous, dir, foundMarker, name)
		}
		found = k
		foundMarker = name
	}
	return found, nil
}

// Classify reads the immediate children of dir and returns its kind, or None
// when the directory carries no marker.
func (t *Taxonomy) Classify(dir string) (Kind, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return None, err
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	return t.ClassifyEntries(dir, names)
}
