package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"ignite/internal/kind"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains the project root and local state directories.
type Paths struct {
	Root     string `toml:"root"`
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
}

// Store contains tree layout and ranking settings.
type Store struct {
	VersionPadding      int            `toml:"version_padding"`
	TempInfix           string         `toml:"temp_infix"`
	ReprMaxHops         int            `toml:"repr_max_hops"`
	ThumbnailExtensions []string       `toml:"thumbnail_extensions"`
	DiscoveryWorkers    int            `toml:"discovery_workers"`
	TagWeights          map[string]int `toml:"tag_weights"`
}

// Server contains HTTP transport settings.
type Server struct {
	Bind string `toml:"bind"`
}

// Journal controls the SQLite mutation journal.
type Journal struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for ignite.
//
// Configuration sections by subsystem:
//   - Paths: project root and local state/log directories
//   - Store: version padding, temp-file infix, repr hop limit, thumbnail
//     preference, discovery concurrency and tag weights
//   - Markers: per-kind marker filename overrides
//   - Server: HTTP bind address
//   - Journal: mutation journal location
//   - Logging: log format and level
type Config struct {
	Paths   Paths             `toml:"paths"`
	Store   Store             `toml:"store"`
	Markers map[string]string `toml:"markers"`
	Server  Server            `toml:"server"`
	Journal Journal           `toml:"journal"`
	Logging Logging           `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/ignite/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("ignite.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the local state and log directories. The project
// root is created on a best-effort basis so read-only commands still work
// against shared storage that is temporarily unavailable.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if c.Journal.Enabled && strings.TrimSpace(c.Journal.Path) != "" {
		if err := os.MkdirAll(filepath.Dir(c.Journal.Path), 0o755); err != nil {
			return fmt.Errorf("create journal directory: %w", err)
		}
	}
	if strings.TrimSpace(c.Paths.Root) != "" {
		_ = os.MkdirAll(c.Paths.Root, 0o755)
	}
	return nil
}

// Taxonomy builds the kind/marker table from the configured overrides.
func (c *Config) Taxonomy() (*kind.Taxonomy, error) {
	return kind.NewTaxonomy(c.Markers)
}

// TagWeight returns the configured weight for tag, or zero when unknown.
func (c *Config) TagWeight(tag string) int {
	return c.Store.TagWeights[strings.ToLower(strings.TrimSpace(tag))]
}

// InstanceLockPath is the flock file held by a running server.
func (c *Config) InstanceLockPath() string {
	return filepath.Join(c.Paths.StateDir, "ignite.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
