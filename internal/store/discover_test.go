package store_test

import (
	"context"
	"strings"
	"testing"

	"ignite/internal/kind"
	"ignite/internal/store"
)

func paths(l store.Listing) []string {
	out := make([]string, 0, len(l.Entities))
	for _, e := range l.Entities {
		out = append(out, e.Path)
	}
	return out
}

func TestDiscoverByKind(t *testing.T) {
	s, tree, _ := newStore(t)
	tree.Production()
	ctx := context.Background()

	tasks, err := s.Discover(ctx, "", kind.Task, store.Filter{})
	if err != nil {
		t.Fatalf("Discover tasks: %v", err)
	}
	if len(tasks.Entities) != 2 || len(tasks.Warnings) != 0 {
		t.Fatalf("unexpected tasks: %v warnings %v", paths(tasks), tasks.Warnings)
	}

	scenes, err := s.Discover(ctx, "ign:demo", kind.Scene, store.Filter{})
	if err != nil {
		t.Fatalf("Discover scenes: %v", err)
	}
	if len(scenes.Entities) != 1 || scenes.Entities[0].SceneFile != "hero.ma" {
		t.Fatalf("unexpected scenes: %+v", scenes.Entities)
	}

	shots, err := s.Discover(ctx, tree.Path("demo/assets"), kind.Shot, store.Filter{})
	if err != nil {
		t.Fatalf("Discover shots: %v", err)
	}
	if len(shots.Entities) != 0 {
		t.Fatalf("expected no shots under assets, got %v", paths(shots))
	}
}

func TestDiscoverPassThroughAndPruning(t *testing.T) {
	s, tree, _ := newStore(t)
	tree.Production()
	tree.Mark(taskRel+"/exports/AssetA", kind.Asset)
	tree.Mark(taskRel+"/scratch/hidden_asset", kind.Asset)
	ctx := context.Background()

	assets, err := s.Discover(ctx, taskURI, kind.Asset, store.Filter{})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	got := paths(assets)
	if len(got) != 2 {
		t.Fatalf("expected hero and AssetA, got %v", got)
	}
	for _, p := range got {
		if strings.Contains(p, "scratch") {
			t.Fatalf("unmarked directory should prune its subtree: %v", got)
		}
	}
}

func TestDiscoverFilters(t *testing.T) {
	s, tree, _ := newStore(t)
	tree.Production()
	tree.Mark(taskRel+"/scenes/v002", kind.Scene, "dcc: houdini")
	tree.File(taskRel+"/scenes/v002/hero.ma", "")
	ctx := context.Background()

	comp, err := s.Discover(ctx, "", kind.Task, store.Filter{TaskType: "COMP"})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(comp.Entities) != 1 || comp.Entities[0].Task != "comp" {
		t.Fatalf("unexpected comp tasks: %v", paths(comp))
	}

	maya, err := s.Discover(ctx, "", kind.Scene, store.Filter{DCC: "Maya"})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(maya.Entities) != 1 || maya.Entities[0].Version != "v001" {
		t.Fatalf("marker dcc should override the extension: %v", paths(maya))
	}
}

func TestDiscoverAssetVersions(t *testing.T) {
	s, tree, _ := newStore(t)
	shaderTree(t, tree)
	tree.Dir(shaderV + "/v004")

	listing, err := s.Discover(context.Background(), "", kind.AssetVersion, store.Filter{})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	var names []string
	for _, e := range listing.Entities {
		names = append(names, e.Name+"@"+e.Version)
	}
	want := []string{"hero@v001", "shader_v@v001", "shader_v@v002", "shader_v@v003", "shader_v@v004"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Fatalf("versions = %v, want %v", names, want)
	}
}

func TestDiscoverReportsPartialResults(t *testing.T) {
	s, tree, _ := newStore(t)
	tree.Production()
	tree.Mark("demo/broken", kind.Group)
	tree.File("demo/broken/"+s.Taxonomy().Marker(kind.Shot), "")
	tree.Mark("demo/broken/lost", kind.Task)

	listing, err := s.Discover(context.Background(), "", kind.Task, store.Filter{})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(listing.Entities) != 2 {
		t.Fatalf("expected the two readable tasks, got %v", paths(listing))
	}
	if len(listing.Warnings) != 1 || !strings.Contains(listing.Warnings[0], "broken") {
		t.Fatalf("expected one warning naming the ambiguous directory, got %v", listing.Warnings)
	}
}

func TestDiscoverRejectsInvalidKind(t *testing.T) {
	s, _, _ := newStore(t)
	_, err := s.Discover(context.Background(), "", kind.None, store.Filter{})
	assertKind(t, err, store.KindInvalidKind)
}

func TestDiscoverCanceled(t *testing.T) {
	s, tree, _ := newStore(t)
	tree.Production()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Discover(ctx, "", kind.Task, store.Filter{})
	assertKind(t, err, store.KindCanceled)
}
