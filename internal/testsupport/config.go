package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"ignite/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The project root exists; state and log directories live beside it.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.Root = filepath.Join(base, "projects")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "state", "logs")
	cfgVal.Journal.Path = filepath.Join(base, "state", "journal.db")
	cfgVal.Server.Bind = "127.0.0.1:0"

	builder := &configBuilder{t: t, baseDir: base, cfg: &cfgVal}
	for _, opt := range opts {
		opt(builder)
	}

	if err := os.MkdirAll(builder.cfg.Paths.Root, 0o755); err != nil {
		t.Fatalf("mkdir root: %v", err)
	}
	return builder.cfg
}

// WithTagWeights replaces the tag weight table.
func WithTagWeights(weights map[string]int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Store.TagWeights = weights
	}
}

// WithVersionPadding overrides the version directory width.
func WithVersionPadding(width int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Store.VersionPadding = width
	}
}

// WithReprMaxHops overrides the repr hop limit.
func WithReprMaxHops(hops int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Store.ReprMaxHops = hops
	}
}

// WithMarkers overrides marker filenames per kind name.
func WithMarkers(markers map[string]string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Markers = markers
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.Root)
}
