package testsupport

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ignite/internal/kind"
)

// WriteFile writes contents to path, creating parent directories.
func WriteFile(t testing.TB, path, contents string) string {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// Tree builds entity directories below a root using a taxonomy's marker
// names. Relative paths use forward slashes.
type Tree struct {
	t    testing.TB
	Root string
	tax  *kind.Taxonomy
}

// NewTree returns a builder rooted at root. A nil taxonomy uses the
// default marker table.
func NewTree(t testing.TB, root string, tax *kind.Taxonomy) *Tree {
	t.Helper()
	if tax == nil {
		tax = kind.Default()
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		t.Fatalf("mkdir root: %v", err)
	}
	return &Tree{t: t, Root: root, tax: tax}
}

// Path returns the absolute path for rel.
func (tr *Tree) Path(rel string) string {
	if rel == "" {
		return tr.Root
	}
	return filepath.Join(tr.Root, filepath.FromSlash(rel))
}

// Dir creates an unmarked directory.
func (tr *Tree) Dir(rel string) string {
	tr.t.Helper()
	path := tr.Path(rel)
	if err := os.MkdirAll(path, 0o755); err != nil {
		tr.t.Fatalf("mkdir %s: %v", rel, err)
	}
	return path
}

// Mark creates rel and writes the marker for k with the given YAML lines.
func (tr *Tree) Mark(rel string, k kind.Kind, yamlLines ...string) string {
	tr.t.Helper()
	dir := tr.Dir(rel)
	body := strings.Join(yamlLines, "\n")
	if body != "" {
		body += "\n"
	}
	WriteFile(tr.t, filepath.Join(dir, tr.tax.Marker(k)), body)
	return dir
}

// File writes a file at rel.
func (tr *Tree) File(rel, contents string) string {
	tr.t.Helper()
	return WriteFile(tr.t, tr.Path(rel), contents)
}

// Production lays out a small project used across store tests:
//
//	demo/                      project
//	demo/assets/               group
//	demo/assets/chars/         directory (context)
//	demo/assets/chars/model/   task (task_type: modeling)
//	  exports/hero/            asset
//	  exports/hero/v001/       version
//	  scenes/v001/             scene (hero.ma)
//	demo/shots/                group
//	demo/shots/sq010/          sequence
//	demo/shots/sq010/sh0010/   shot
//	demo/shots/sq010/sh0010/comp/ task (task_type: comp)
func (tr *Tree) Production() {
	tr.t.Helper()
	tr.Mark("demo", kind.Project)
	tr.Mark("demo/assets", kind.Group)
	tr.Mark("demo/assets/chars", kind.Directory)
	tr.Mark("demo/assets/chars/model", kind.Task, "task_type: modeling")
	tr.Mark("demo/assets/chars/model/exports/hero", kind.Asset, "tags: [hero]")
	tr.Mark("demo/assets/chars/model/exports/hero/v001", kind.AssetVersion)
	tr.File("demo/assets/chars/model/exports/hero/v001/hero.png", "png")
	tr.Mark("demo/assets/chars/model/scenes/v001", kind.Scene)
	tr.File("demo/assets/chars/model/scenes/v001/hero.ma", "maya")
	tr.Mark("demo/shots", kind.Group)
	tr.Mark("demo/shots/sq010", kind.Sequence)
	tr.Mark("demo/shots/sq010/sh0010", kind.Shot)
	tr.Mark("demo/shots/sq010/sh0010/comp", kind.Task, "task_type: comp")
}
