package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeStore()
	c.normalizeMarkers()
	c.normalizeServer()
	if err := c.normalizeJournal(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv(EnvRoot); ok && strings.TrimSpace(value) != "" {
		c.Paths.Root = strings.TrimSpace(value)
	}
	if strings.TrimSpace(c.Paths.Root) == "" {
		c.Paths.Root = defaultRoot
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = filepath.Join(c.Paths.StateDir, "logs")
	}

	var err error
	if c.Paths.Root, err = expandPath(c.Paths.Root); err != nil {
		return fmt.Errorf("paths.root: %w", err)
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeStore() {
	if c.Store.VersionPadding <= 0 {
		c.Store.VersionPadding = defaultVersionPadding
	}
	c.Store.TempInfix = strings.TrimSpace(c.Store.TempInfix)
	if c.Store.TempInfix == "" {
		c.Store.TempInfix = defaultTempInfix
	}
	if c.Store.ReprMaxHops <= 0 {
		c.Store.ReprMaxHops = defaultReprMaxHops
	}
	if c.Store.DiscoveryWorkers <= 0 {
		c.Store.DiscoveryWorkers = defaultDiscoveryWorkers
	}

	exts := make([]string, 0, len(c.Store.ThumbnailExtensions))
	seen := make(map[string]struct{}, len(c.Store.ThumbnailExtensions))
	for _, ext := range c.Store.ThumbnailExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if _, dup := seen[ext]; dup {
			continue
		}
		seen[ext] = struct{}{}
		exts = append(exts, ext)
	}
	if len(exts) == 0 {
		exts = append(exts, defaultThumbnailExtensions...)
	}
	c.Store.ThumbnailExtensions = exts

	weights := make(map[string]int, len(c.Store.TagWeights))
	for tag, weight := range c.Store.TagWeights {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		weights[tag] = weight
	}
	if c.Store.TagWeights == nil {
		weights = DefaultTagWeights()
	}
	c.Store.TagWeights = weights
}

func (c *Config) normalizeMarkers() {
	if len(c.Markers) == 0 {
		c.Markers = nil
		return
	}
	markers := make(map[string]string, len(c.Markers))
	for name, filename := range c.Markers {
		markers[strings.ToLower(strings.TrimSpace(name))] = strings.TrimSpace(filename)
	}
	c.Markers = markers
}

func (c *Config) normalizeServer() {
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	if c.Server.Bind == "" {
		c.Server.Bind = defaultServerBind
	}
}

func (c *Config) normalizeJournal() error {
	c.Journal.Path = strings.TrimSpace(c.Journal.Path)
	if c.Journal.Path == "" {
		c.Journal.Path = filepath.Join(c.Paths.StateDir, defaultJournalFile)
	}
	var err error
	if c.Journal.Path, err = expandPath(c.Journal.Path); err != nil {
		return fmt.Errorf("journal.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
