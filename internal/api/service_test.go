package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"ignite/internal/api"
	"ignite/internal/journal"
	"ignite/internal/kind"
	"ignite/internal/marker"
	"ignite/internal/query"
	"ignite/internal/store"
	"ignite/internal/testsupport"
)

const (
	taskURI = "ign:demo:assets:chars:model"
	heroURI = taskURI + ":hero"
)

func newService(t *testing.T) (*api.Service, *testsupport.Tree) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	st, j := testsupport.MustOpenStore(t, cfg)
	tree := testsupport.NewTree(t, cfg.Paths.Root, st.Taxonomy())
	tree.Production()
	return api.NewService(st, j), tree
}

func TestQueryCharacters(t *testing.T) {
	svc, tree := newService(t)
	exports := "demo/assets/chars/model/exports/"
	tree.Mark(exports+"char_01", kind.Asset, "tags: [hero]")
	tree.Mark(exports+"char_02", kind.Asset, "tags: [prop]")
	ctx := context.Background()

	var req api.QueryRequest
	body := `{
		"path": "ign:demo",
		"kind": "asset",
		"query": {"filter": {"condition": "and", "filters": [{"tags.ARRAY.name": "hero"}, {"name": "^char_"}]}},
		"page": 1,
		"limit": 10
	}`
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		t.Fatalf("decode request: %v", err)
	}
	resp, warnings, err := svc.Query(ctx, req)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if len(resp.Data) != 1 || resp.Data[0]["name"] != "char_01" {
		t.Fatalf("unexpected data: %v", resp.Data)
	}
	if resp.PageInfo.TotalResults != 1 || resp.PageInfo.TotalPages != 1 {
		t.Fatalf("unexpected page info: %+v", resp.PageInfo)
	}
}

func TestQueryLatestVersions(t *testing.T) {
	svc, tree := newService(t)
	tree.Mark("demo/assets/chars/model/exports/hero/v002", kind.AssetVersion)
	tree.Mark("demo/assets/chars/model/exports/prop", kind.Asset)
	tree.Mark("demo/assets/chars/model/exports/prop/v001", kind.AssetVersion)

	resp, _, err := svc.Query(context.Background(), api.QueryRequest{
		Kind:  "asset_version",
		Query: query.Request{Latest: true, Sort: &query.SortSpec{Field: "asset"}},
	})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(resp.Data) != 2 {
		t.Fatalf("expected one version per asset, got %v", resp.Data)
	}
	if resp.Data[0]["asset"] != "hero" || resp.Data[0]["version"] != "v002" {
		t.Fatalf("unexpected first record: %v", resp.Data[0])
	}
}

func TestQueryAttachesThumbnails(t *testing.T) {
	svc, tree := newService(t)
	exports := "demo/assets/chars/model/exports/"
	tree.Mark(exports+"loop_a", kind.Asset, "repr: "+taskURI+":loop_b")
	tree.Mark(exports+"loop_b", kind.Asset, "repr: "+taskURI+":loop_a")

	resp, warnings, err := svc.Query(context.Background(), api.QueryRequest{
		Kind:  "asset",
		Query: query.Request{Sort: &query.SortSpec{Field: "name"}},
	})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	byName := map[string]query.Record{}
	for _, rec := range resp.Data {
		byName[rec["name"].(string)] = rec
	}
	hero, ok := byName["hero"]
	if !ok {
		t.Fatalf("hero missing from %v", resp.Data)
	}
	if thumb, _ := hero["thumbnail"].(string); !strings.HasSuffix(thumb, "hero.png") {
		t.Fatalf("hero thumbnail = %v", hero["thumbnail"])
	}
	if _, ok := byName["loop_a"]["thumbnail"]; ok {
		t.Fatalf("cyclic asset should carry no thumbnail: %v", byName["loop_a"])
	}
	if len(warnings) != 2 {
		t.Fatalf("expected a warning per cyclic asset, got %v", warnings)
	}
	for _, w := range warnings {
		if !strings.Contains(w, store.ErrReprCycle.Error()) {
			t.Fatalf("unexpected warning %q", w)
		}
	}
}

func TestQueryErrors(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, _, err := svc.Query(ctx, api.QueryRequest{Kind: "widget"})
	if store.KindOf(err) != store.KindInvalidKind {
		t.Fatalf("expected invalid_kind, got %v", err)
	}

	bad := query.Node{Condition: "nand", Filters: []query.Node{query.Leaf("name", "x")}}
	_, _, err = svc.Query(ctx, api.QueryRequest{Kind: "task", Query: query.Request{Filter: &bad}})
	if store.KindOf(err) != store.KindInvalidQuery {
		t.Fatalf("expected invalid_query, got %v", err)
	}
}

func TestVersionsReportsScores(t *testing.T) {
	svc, tree := newService(t)
	tree.Mark("demo/assets/chars/model/exports/hero/v002", kind.AssetVersion, "tags: [deprecated]")

	resp, err := svc.Versions(context.Background(), heroURI)
	if err != nil {
		t.Fatalf("Versions: %v", err)
	}
	if resp.Latest != "v002" || resp.Best != "v001" || resp.Next != 3 {
		t.Fatalf("unexpected summary: %+v", resp)
	}
	if len(resp.Versions) != 2 || resp.Versions[0].Score != 0 || resp.Versions[1].Score != -99 {
		t.Fatalf("unexpected scores: %+v", resp.Versions)
	}

	_, err = svc.Versions(context.Background(), taskURI)
	if store.KindOf(err) != store.KindInvalidKind {
		t.Fatalf("expected invalid_kind for a task, got %v", err)
	}
}

func TestMutationsAndHistory(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, api.RegisterRequest{Target: taskURI + ":prop", Kind: "asset"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := svc.Update(ctx, api.UpdateRequest{Target: taskURI + ":prop", Metadata: marker.Document{"comment": "wip"}}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if _, err := svc.Update(ctx, api.UpdateRequest{Target: taskURI + ":prop"}); store.KindOf(err) != store.KindInvalidArgument {
		t.Fatalf("expected invalid_argument for empty update, got %v", err)
	}
	v, err := svc.CreateVersion(ctx, api.CreateVersionRequest{Target: taskURI + ":prop"})
	if err != nil {
		t.Fatalf("CreateVersion: %v", err)
	}
	if v.Version != "v001" {
		t.Fatalf("version = %s", v.Version)
	}
	if _, err := svc.Delete(ctx, taskURI+":prop"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	history, err := svc.History(ctx, api.HistoryRequest{Target: taskURI + ":prop"})
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	ops := make([]string, 0, len(history.Entries))
	for _, e := range history.Entries {
		ops = append(ops, e.Op)
	}
	want := []string{journal.OpDelete, journal.OpCreateVersion, journal.OpUpdate, journal.OpRegister}
	if len(ops) != len(want) {
		t.Fatalf("ops = %v, want %v", ops, want)
	}
	for i := range want {
		if ops[i] != want[i] {
			t.Fatalf("ops = %v, want %v", ops, want)
		}
	}
}

func TestHistoryDisabled(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st, _ := testsupport.MustOpenStore(t, cfg)
	svc := api.NewService(st, nil)

	_, err := svc.History(context.Background(), api.HistoryRequest{})
	if !errors.Is(err, api.ErrHistoryDisabled) {
		t.Fatalf("expected ErrHistoryDisabled, got %v", err)
	}
	if h := svc.Health(context.Background()); h.Root != st.Root() || h.Journal != "" {
		t.Fatalf("unexpected health: %+v", h)
	}
}

func TestFailureEnvelope(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.Resolve(context.Background(), taskURI+":ghost")
	env := api.Failure(err)
	if env.OK || env.Error == nil || env.Error.Kind != store.KindNotFound {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}
