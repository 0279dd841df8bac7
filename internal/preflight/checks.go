package preflight

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/gofrs/flock"
	"golang.org/x/sys/unix"

	"ignite/internal/config"
	"ignite/internal/journal"
	"ignite/internal/kind"
	"ignite/internal/logging"
	"ignite/internal/store"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckMarkers verifies the marker table builds and lists any overrides.
func CheckMarkers(cfg *config.Config) Result {
	const name = "Marker table"
	if _, err := cfg.Taxonomy(); err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	if len(cfg.Markers) == 0 {
		return Result{Name: name, Passed: true, Detail: "defaults"}
	}
	overrides := make([]string, 0, len(cfg.Markers))
	for _, k := range kind.All() {
		if file, ok := cfg.Markers[k.String()]; ok {
			overrides = append(overrides, k.String()+"="+file)
		}
	}
	return Result{Name: name, Passed: true, Detail: "overrides: " + strings.Join(overrides, ", ")}
}

// CheckJournal opens the journal database and reads the newest entry.
func CheckJournal(ctx context.Context, path string) Result {
	const name = "Journal"
	j, err := journal.Open(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	defer j.Close()

	entries, err := j.List(ctx, journal.Filter{Limit: 1})
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	if len(entries) == 0 {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (empty)", path)}
	}
	last := entries[0]
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (last: %s %s at %s)",
		path, last.Op, last.Path, last.RecordedAt.Format("2006-01-02 15:04:05"))}
}

// CheckServerLock reports whether an ignite server currently holds the
// instance lock. Either state passes; the detail says which.
func CheckServerLock(path string) Result {
	const name = "API server"
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Result{Name: name, Passed: true, Detail: "not running"}
	}
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("lock check failed (%v)", err)}
	}
	if !ok {
		return Result{Name: name, Passed: true, Detail: "running (" + path + " held)"}
	}
	_ = lock.Unlock()
	return Result{Name: name, Passed: true, Detail: "not running"}
}

// CheckTree discovers projects below the root and reports unreadable
// subtrees.
func CheckTree(ctx context.Context, cfg *config.Config) Result {
	const name = "Project tree"
	st, err := store.New(cfg, logging.NewNop())
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	listing, err := st.Discover(ctx, "", kind.Project, store.Filter{})
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	detail := fmt.Sprintf("%d project(s)", len(listing.Entities))
	if len(listing.Warnings) > 0 {
		return Result{Name: name, Detail: fmt.Sprintf("%s, %d unreadable: %s",
			detail, len(listing.Warnings), listing.Warnings[0])}
	}
	return Result{Name: name, Passed: true, Detail: detail}
}
