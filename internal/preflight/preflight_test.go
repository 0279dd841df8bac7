package preflight

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ignite/internal/kind"
	"ignite/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckMarkers(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithMarkers(map[string]string{"task": ".job.yaml"}))
	result := CheckMarkers(cfg)
	if !result.Passed || !strings.Contains(result.Detail, "task=.job.yaml") {
		t.Fatalf("unexpected result: %+v", result)
	}

	cfg = testsupport.NewConfig(t, testsupport.WithMarkers(map[string]string{"task": ".ign_shot.yaml"}))
	if result := CheckMarkers(cfg); result.Passed {
		t.Fatalf("duplicate marker names should fail: %+v", result)
	}
}

func TestCheckJournal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	result := CheckJournal(context.Background(), path)
	if !result.Passed || !strings.Contains(result.Detail, "empty") {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestCheckServerLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ignite.lock")
	if result := CheckServerLock(path); !result.Passed || result.Detail != "not running" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestRunAll(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	tree := testsupport.NewTree(t, cfg.Paths.Root, nil)
	tree.Mark("demo", kind.Project)
	tree.Mark("other", kind.Project)

	results := RunAll(context.Background(), cfg)
	if Failed(results) {
		t.Fatalf("expected all checks to pass: %+v", results)
	}
	last := results[len(results)-1]
	if last.Name != "Project tree" || last.Detail != "2 project(s)" {
		t.Fatalf("unexpected tree result: %+v", last)
	}
}

func TestRunAllReportsMissingRoot(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Paths.Root = filepath.Join(t.TempDir(), "missing")

	results := RunAll(context.Background(), cfg)
	if !Failed(results) {
		t.Fatal("expected a failure for the missing root")
	}
	for _, r := range results {
		if r.Name == "Project tree" {
			t.Fatal("tree scan should be skipped without a root")
		}
	}
}
