package store_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"ignite/internal/journal"
	"ignite/internal/kind"
	"ignite/internal/marker"
	"ignite/internal/store"
	"ignite/internal/testsupport"
)

const (
	taskRel  = "demo/assets/chars/model"
	heroRel  = taskRel + "/exports/hero"
	taskURI  = "ign:demo:assets:chars:model"
	heroURI  = taskURI + ":hero"
	shaderV  = taskRel + "/exports/shader_v"
	shaderVU = taskURI + ":shader_v"
)

func newStore(t *testing.T, opts ...testsupport.ConfigOption) (*store.Store, *testsupport.Tree, *journal.Journal) {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	s, j := testsupport.MustOpenStore(t, cfg, store.WithClock(testsupport.FixedClock(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))))
	tree := testsupport.NewTree(t, cfg.Paths.Root, s.Taxonomy())
	return s, tree, j
}

func assertKind(t *testing.T, err error, want string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", want)
	}
	if got := store.KindOf(err); got != want {
		t.Fatalf("expected error kind %s, got %s (%v)", want, got, err)
	}
}

func TestResolveByPathAndAddress(t *testing.T) {
	s, tree, _ := newStore(t)
	tree.Production()
	ctx := context.Background()

	task, err := s.Resolve(ctx, tree.Path(taskRel))
	if err != nil {
		t.Fatalf("Resolve task: %v", err)
	}
	if task.Kind != kind.Task || task.TaskType != "modeling" {
		t.Fatalf("unexpected task entity: %+v", task)
	}
	if task.URI != taskURI {
		t.Fatalf("task uri = %q, want %q", task.URI, taskURI)
	}
	if task.Project != "demo" || task.Group != "assets" || task.Context != "chars" || task.Task != "model" {
		t.Fatalf("unexpected address fields: %+v", task)
	}

	asset, err := s.Resolve(ctx, heroURI)
	if err != nil {
		t.Fatalf("Resolve asset: %v", err)
	}
	if asset.Kind != kind.Asset || asset.Path != tree.Path(heroRel) {
		t.Fatalf("unexpected asset: %+v", asset)
	}
	if asset.Latest != "v001" || asset.Best != "v001" {
		t.Fatalf("expected latest/best v001, got %q/%q", asset.Latest, asset.Best)
	}
	if !asset.HasTag("HERO") {
		t.Fatalf("expected hero tag, got %v", asset.Tags)
	}

	version, err := s.Resolve(ctx, heroURI+"@v001")
	if err != nil {
		t.Fatalf("Resolve version: %v", err)
	}
	if version.Kind != kind.AssetVersion || version.Name != "hero" || version.Version != "v001" || version.VersionNumber != 1 {
		t.Fatalf("unexpected version: %+v", version)
	}
	if len(version.Components) != 1 || version.Components[0].Name != "hero.png" {
		t.Fatalf("expected hero.png component, got %+v", version.Components)
	}

	scene, err := s.Resolve(ctx, tree.Path(taskRel+"/scenes/v001"))
	if err != nil {
		t.Fatalf("Resolve scene: %v", err)
	}
	if scene.Kind != kind.Scene || scene.DCC != "maya" || scene.SceneFile != "hero.ma" || scene.Version != "v001" {
		t.Fatalf("unexpected scene: %+v", scene)
	}
	if scene.URI != "" || scene.Task != "model" {
		t.Fatalf("scene should borrow task fields without a uri: %+v", scene)
	}
}

func TestResolveErrors(t *testing.T) {
	s, tree, _ := newStore(t)
	tree.Production()
	tree.Dir("demo/assets/chars/model/scratch")
	tree.Mark("demo/assets/twice", kind.Task)
	tree.File("demo/assets/twice/"+s.Taxonomy().Marker(kind.Shot), "")
	ctx := context.Background()

	cases := []struct {
		name   string
		target string
		want   string
	}{
		{"unmarked directory", tree.Path("demo/assets/chars/model/scratch"), store.KindNotFound},
		{"missing directory", tree.Path("demo/nowhere"), store.KindNotFound},
		{"ambiguous markers", tree.Path("demo/assets/twice"), store.KindAmbiguous},
		{"outside root", t.TempDir(), store.KindOutsideRoot},
		{"malformed address", "ign:", store.KindInvalidAddress},
		{"version on task", taskURI + "@v001", store.KindInvalidAddress},
		{"alias on missing asset", taskURI + ":nothing@latest", store.KindNotFound},
		{"empty target", "  ", store.KindInvalidArgument},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.Resolve(ctx, tc.target)
			assertKind(t, err, tc.want)
		})
	}
}

func TestResolveCorruptMarkerDegradesToEmptyMetadata(t *testing.T) {
	s, tree, _ := newStore(t)
	tree.Mark("demo", kind.Project, "tags: [unclosed")

	e, err := s.Resolve(context.Background(), "ign:demo")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if e.Kind != kind.Project {
		t.Fatalf("expected project, got %s", e.Kind)
	}
	if len(e.Tags) != 0 {
		t.Fatalf("expected empty metadata, got tags %v", e.Tags)
	}
}

func TestResolveReadsAttributesFromDisk(t *testing.T) {
	s, tree, _ := newStore(t)
	tree.Mark("demo", kind.Project, "attributes: {fps: 24, res: 4k}", "custom: {k: v}")

	e, err := s.Resolve(context.Background(), "ign:demo")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if e.Attributes["fps"] != "24" || e.Attributes["res"] != "4k" {
		t.Fatalf("attributes = %v", e.Attributes)
	}
	custom, ok := e.Extra["custom"].(map[string]any)
	if !ok || custom["k"] != "v" {
		t.Fatalf("custom = %#v", e.Extra["custom"])
	}
}

func TestAddressRoundTrip(t *testing.T) {
	s, tree, _ := newStore(t)
	tree.Production()
	tree.Mark("demo/assets/lookdev", kind.Task)
	tree.Dir(heroRel + "/v002")
	ctx := context.Background()

	rels := []string{
		"demo",
		"demo/assets",
		"demo/assets/chars",
		taskRel,
		heroRel,
		heroRel + "/v001",
		heroRel + "/v002",
		"demo/shots/sq010",
		"demo/shots/sq010/sh0010",
		"demo/shots/sq010/sh0010/comp",
		"demo/assets/lookdev",
	}
	for _, rel := range rels {
		path := tree.Path(rel)
		a, err := s.Address(ctx, path)
		if err != nil {
			t.Fatalf("Address(%s): %v", rel, err)
		}
		back, err := s.Codec().Decode(a)
		if err != nil {
			t.Fatalf("Decode(%s): %v", a, err)
		}
		if back != path {
			t.Fatalf("round trip %s -> %s -> %s", rel, a, back)
		}
	}

	a, err := s.Address(ctx, tree.Path("demo/assets/lookdev"))
	if err != nil {
		t.Fatalf("Address: %v", err)
	}
	if a.String() != "ign:demo:assets::lookdev" {
		t.Fatalf("task under group should use an empty context, got %s", a)
	}

	_, err = s.Address(ctx, tree.Path(taskRel+"/scenes/v001"))
	assertKind(t, err, store.KindInvalidAddress)
}

func TestPathResolvesAliases(t *testing.T) {
	s, tree, _ := newStore(t)
	tree.Production()
	tree.Mark(heroRel+"/v002", kind.AssetVersion)

	path, err := s.Path(context.Background(), heroURI+"@latest")
	if err != nil {
		t.Fatalf("Path: %v", err)
	}
	if path != tree.Path(heroRel+"/v002") {
		t.Fatalf("latest path = %s", path)
	}
	_, err = s.Path(context.Background(), taskURI+":ghost")
	assertKind(t, err, store.KindNotFound)
}

func TestPathRejectsUnmarkedDirectory(t *testing.T) {
	s, tree, _ := newStore(t)
	tree.Production()
	tree.Dir("demo/scratch")
	ctx := context.Background()

	_, err := s.Path(ctx, "ign:demo:scratch")
	assertKind(t, err, store.KindNotFound)
	_, err = s.Path(ctx, tree.Path("demo/scratch"))
	assertKind(t, err, store.KindNotFound)
}

func TestRegisterIsIdempotent(t *testing.T) {
	s, tree, j := newStore(t)
	ctx := context.Background()
	target := tree.Path("demo")

	first, err := s.Register(ctx, target, kind.Project, marker.Document{"tags": []string{"active"}})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if first.CreatedAt.IsZero() {
		t.Fatal("expected created_at to be stamped")
	}
	second, err := s.Register(ctx, target, kind.Project, marker.Document{"tags": []string{"other"}})
	if err != nil {
		t.Fatalf("second Register: %v", err)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Fatalf("created_at changed: %v -> %v", first.CreatedAt, second.CreatedAt)
	}
	if len(second.Tags) != 1 || second.Tags[0] != "active" {
		t.Fatalf("second register must not reseed metadata, got %v", second.Tags)
	}

	entries, err := os.ReadDir(target)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	markers := 0
	for _, entry := range entries {
		if s.Taxonomy().IsMarker(entry.Name()) {
			markers++
		}
	}
	if markers != 1 {
		t.Fatalf("expected exactly one marker, found %d", markers)
	}

	history, err := j.List(ctx, journal.Filter{Op: journal.OpRegister})
	if err != nil {
		t.Fatalf("journal List: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected one register entry, got %d", len(history))
	}
}

func TestRegisterDifferentKindIsAmbiguous(t *testing.T) {
	s, tree, _ := newStore(t)
	tree.Mark("demo", kind.Project)

	_, err := s.Register(context.Background(), tree.Path("demo"), kind.Group, nil)
	assertKind(t, err, store.KindAmbiguous)
}

func TestRegisterWithdrawsMarkerWhenRacedByAnotherKind(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dir := filepath.Join(cfg.Paths.Root, "demo")
	var tax *kind.Taxonomy
	armed := false
	clock := func() time.Time {
		if armed {
			armed = false
			testsupport.WriteFile(t, filepath.Join(dir, tax.Marker(kind.Shot)), "")
		}
		return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	}
	s, _ := testsupport.MustOpenStore(t, cfg, store.WithClock(clock))
	tax = s.Taxonomy()

	armed = true
	_, err := s.Register(context.Background(), dir, kind.Project, nil)
	assertKind(t, err, store.KindAmbiguous)

	if _, err := os.Stat(filepath.Join(dir, tax.Marker(kind.Project))); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("project marker should be withdrawn, stat err = %v", err)
	}
	k, err := tax.Classify(dir)
	if err != nil || k != kind.Shot {
		t.Fatalf("directory should keep only the competing marker, got %s (%v)", k, err)
	}
}

func TestRegisterRejectsInvalidInput(t *testing.T) {
	s, tree, _ := newStore(t)
	ctx := context.Background()

	_, err := s.Register(ctx, tree.Path("demo"), kind.None, nil)
	assertKind(t, err, store.KindInvalidKind)

	_, err = s.Register(ctx, tree.Path("demo"), kind.Project, marker.Document{"repr": "not-an-address"})
	assertKind(t, err, store.KindInvalidAddress)

	_, err = s.Register(ctx, heroURI+"@best", kind.Asset, nil)
	assertKind(t, err, store.KindInvalidAddress)
}

func TestRegisterByAddressCreatesDirectory(t *testing.T) {
	s, tree, _ := newStore(t)
	tree.Production()

	e, err := s.Register(context.Background(), taskURI+":prop", kind.Asset, nil)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if e.Path != tree.Path(taskRel+"/exports/prop") {
		t.Fatalf("unexpected path %s", e.Path)
	}
	if e.URI != taskURI+":prop" {
		t.Fatalf("unexpected uri %s", e.URI)
	}
}

func TestUpdateMergesAndPreservesUnknownKeys(t *testing.T) {
	s, tree, j := newStore(t)
	ctx := context.Background()
	tree.Production()

	created, err := s.Register(ctx, tree.Path(taskRel+"/exports/prop"), kind.Asset, marker.Document{
		"custom_key": "keep",
		"attributes": map[string]any{"a": "1"},
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	updated, err := s.Update(ctx, created.Path, marker.Document{
		"tags":         []string{"approved"},
		"attributes":   map[string]any{"b": 2},
		"created_at":   "1999-01-01T00:00:00Z",
		"last_version": 99,
		"comment":      "first pass",
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("created_at changed: %v -> %v", created.CreatedAt, updated.CreatedAt)
	}
	if !updated.ModifiedAt.After(created.ModifiedAt) {
		t.Fatalf("modified_at not refreshed: %v -> %v", created.ModifiedAt, updated.ModifiedAt)
	}
	if updated.Attributes["a"] != "1" || updated.Attributes["b"] != "2" {
		t.Fatalf("attributes not merged: %v", updated.Attributes)
	}
	if updated.Extra["custom_key"] != "keep" {
		t.Fatalf("unknown key lost: %v", updated.Extra)
	}
	if updated.Comment != "first pass" || !updated.HasTag("approved") {
		t.Fatalf("delta not applied: %+v", updated)
	}

	next, err := s.NextVersion(ctx, created.Path)
	if err != nil {
		t.Fatalf("NextVersion: %v", err)
	}
	if next != 1 {
		t.Fatalf("last_version must not be writable through update, next = %d", next)
	}

	removed, err := s.Update(ctx, created.Path, marker.Document{"comment": nil})
	if err != nil {
		t.Fatalf("Update remove: %v", err)
	}
	if removed.Comment != "" {
		t.Fatalf("nil value should remove key, comment = %q", removed.Comment)
	}

	history, err := j.List(ctx, journal.Filter{PathPrefix: created.Path, Op: journal.OpUpdate})
	if err != nil {
		t.Fatalf("journal List: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected two update entries, got %d", len(history))
	}
}

func TestUpdateUnmarkedVersionCreatesMarker(t *testing.T) {
	s, tree, _ := newStore(t)
	tree.Production()
	dir := tree.Dir(heroRel + "/v002")

	e, err := s.Update(context.Background(), heroURI+"@v002", marker.Document{"tags": []string{"approved"}})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if e.Kind != kind.AssetVersion || !e.HasTag("approved") {
		t.Fatalf("unexpected entity %+v", e)
	}
	if _, err := os.Stat(filepath.Join(dir, s.Taxonomy().Marker(kind.AssetVersion))); err != nil {
		t.Fatalf("expected marker to be written: %v", err)
	}
}

func TestUpdateErrors(t *testing.T) {
	s, tree, _ := newStore(t)
	tree.Production()
	ctx := context.Background()

	_, err := s.Update(ctx, heroURI, marker.Document{"repr": "ign:"})
	assertKind(t, err, store.KindInvalidAddress)

	_, err = s.Update(ctx, tree.Dir("demo/loose"), marker.Document{"comment": "x"})
	assertKind(t, err, store.KindNotFound)
}

func TestDeleteRemovesSubtree(t *testing.T) {
	s, tree, j := newStore(t)
	tree.Production()
	ctx := context.Background()

	e, err := s.Delete(ctx, taskURI)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if e.Kind != kind.Task {
		t.Fatalf("deleted entity kind = %s", e.Kind)
	}
	if _, err := os.Stat(tree.Path(taskRel)); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected task directory to be gone, stat err = %v", err)
	}
	_, err = s.Resolve(ctx, heroURI)
	assertKind(t, err, store.KindNotFound)

	history, err := j.List(ctx, journal.Filter{Op: journal.OpDelete})
	if err != nil {
		t.Fatalf("journal List: %v", err)
	}
	if len(history) != 1 || history[0].URI != taskURI {
		t.Fatalf("unexpected delete history: %+v", history)
	}
}

func TestRenameAndCopy(t *testing.T) {
	s, tree, _ := newStore(t)
	tree.Production()
	tree.Mark(taskRel+"/exports/villain", kind.Asset)
	ctx := context.Background()

	renamed, err := s.Rename(ctx, heroURI, "champion")
	if err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if renamed.URI != taskURI+":champion" {
		t.Fatalf("renamed uri = %s", renamed.URI)
	}
	if _, err := os.Stat(tree.Path(heroRel)); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("old path still present: %v", err)
	}

	_, err = s.Rename(ctx, renamed.Path, "villain")
	assertKind(t, err, store.KindExists)

	_, err = s.Rename(ctx, taskURI+":champion@v001", "v009")
	assertKind(t, err, store.KindInvalidArgument)

	_, err = s.Rename(ctx, renamed.Path, "bad:name")
	assertKind(t, err, store.KindInvalidArgument)

	src, err := s.Resolve(ctx, taskURI)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	tree.File(taskRel+"/"+filepath.Base(marker.LockPath(filepath.Join(src.Path, s.Taxonomy().Marker(kind.Task)))), "")

	copied, err := s.Copy(ctx, taskURI, "model_b")
	if err != nil {
		t.Fatalf("Copy: %v", err)
	}
	if copied.URI != "ign:demo:assets:chars:model_b" || copied.TaskType != "modeling" {
		t.Fatalf("unexpected copy: %+v", copied)
	}
	if copied.CreatedAt.IsZero() || copied.CreatedAt.Equal(src.CreatedAt) {
		t.Fatalf("copy should be re-stamped, created_at = %v (source %v)", copied.CreatedAt, src.CreatedAt)
	}
	if _, err := os.Stat(filepath.Join(copied.Path, "exports", "champion", "v001", "hero.png")); err != nil {
		t.Fatalf("expected subtree to be copied: %v", err)
	}
	lock := marker.LockPath(filepath.Join(copied.Path, s.Taxonomy().Marker(kind.Task)))
	if _, err := os.Stat(lock); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("lock sidecar should not be copied: %v", err)
	}
}
