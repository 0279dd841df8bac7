package testsupport

import (
	"testing"
	"time"

	"ignite/internal/config"
	"ignite/internal/journal"
	"ignite/internal/logging"
	"ignite/internal/store"
)

// MustOpenStore builds a store over cfg's root and attaches a journal that
// is closed on cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config, opts ...store.Option) (*store.Store, *journal.Journal) {
	t.Helper()

	j, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		t.Fatalf("journal.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = j.Close()
	})

	opts = append([]store.Option{store.WithJournal(j)}, opts...)
	s, err := store.New(cfg, logging.NewNop(), opts...)
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	return s, j
}

// FixedClock returns a clock that advances by one second per call starting
// at start, so successive marker stamps differ.
func FixedClock(start time.Time) func() time.Time {
	next := start.UTC()
	return func() time.Time {
		current := next
		next = next.Add(time.Second)
		return current
	}
}
