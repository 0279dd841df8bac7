package journal_test

import (
	"context"
	"path/filepath"
	"testing"

	"ignite/internal/journal"
)

func openJournal(t *testing.T) *journal.Journal {
	t.Helper()
	j, err := journal.Open(filepath.Join(t.TempDir(), "state", "journal.db"))
	if err != nil {
		t.Fatalf("journal.Open: %v", err)
	}
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func TestAppendAndListNewestFirst(t *testing.T) {
	j := openJournal(t)
	ctx := context.Background()

	for _, op := range []string{journal.OpRegister, journal.OpUpdate, journal.OpDelete} {
		if err := j.Append(ctx, journal.Entry{Op: op, Path: "/root/proj/asset", Kind: "asset"}); err != nil {
			t.Fatalf("Append %s: %v", op, err)
		}
	}

	entries, err := j.List(ctx, journal.Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].Op != journal.OpDelete || entries[2].Op != journal.OpRegister {
		t.Fatalf("expected newest first, got %s..%s", entries[0].Op, entries[2].Op)
	}
	if entries[0].ID == "" || entries[0].RecordedAt.IsZero() {
		t.Fatalf("expected id and timestamp to be filled: %+v", entries[0])
	}
}

func TestListFiltersByPathPrefixAndOp(t *testing.T) {
	j := openJournal(t)
	ctx := context.Background()

	entries := []journal.Entry{
		{Op: journal.OpRegister, Path: "/root/p/a"},
		{Op: journal.OpRegister, Path: "/root/p/a/b"},
		{Op: journal.OpUpdate, Path: "/root/p/ab"},
		{Op: journal.OpUpdate, Path: "/root/p/a/b", Detail: map[string]any{"keys": []any{"tags"}}},
	}
	for _, e := range entries {
		if err := j.Append(ctx, e); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	got, err := j.List(ctx, journal.Filter{PathPrefix: "/root/p/a"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 entries under /root/p/a (sibling ab excluded), got %d", len(got))
	}

	got, err = j.List(ctx, journal.Filter{PathPrefix: "/root/p/a", Op: journal.OpUpdate})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 update entry, got %d", len(got))
	}
	keys, ok := got[0].Detail["keys"].([]any)
	if !ok || len(keys) != 1 || keys[0] != "tags" {
		t.Fatalf("detail did not round trip: %#v", got[0].Detail)
	}

	got, err = j.List(ctx, journal.Filter{Limit: 2})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected limit to apply, got %d", len(got))
	}
}

func TestReopenKeepsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	j, err := journal.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := j.Append(context.Background(), journal.Entry{Op: journal.OpCopy, Path: "/x"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := j.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	j, err = journal.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer j.Close()
	got, err := j.List(context.Background(), journal.Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0].Op != journal.OpCopy {
		t.Fatalf("unexpected entries after reopen: %+v", got)
	}
}
