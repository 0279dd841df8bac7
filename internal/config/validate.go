package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateMarkers(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.Root) == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/ignite/config.toml"
		}
		return fmt.Errorf("paths.root is required. Set %s or edit %s (create with 'ignite config init')", EnvRoot, defaultPath)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		return errors.New("paths.state_dir must be set")
	}
	return nil
}

func (c *Config) validateStore() error {
	if c.Store.VersionPadding < 1 || c.Store.VersionPadding > 9 {
		return errors.New("store.version_padding must be between 1 and 9")
	}
	if strings.ContainsAny(c.Store.TempInfix, `/\`) {
		return errors.New("store.temp_infix must not contain path separators")
	}
	if c.Store.ReprMaxHops < 1 {
		return errors.New("store.repr_max_hops must be positive")
	}
	if c.Store.DiscoveryWorkers < 1 {
		return errors.New("store.discovery_workers must be positive")
	}
	return nil
}

func (c *Config) validateMarkers() error {
	if _, err := c.Taxonomy(); err != nil {
		return fmt.Errorf("markers: %w", err)
	}
	return nil
}

func (c *Config) validateServer() error {
	if _, _, err := net.SplitHostPort(c.Server.Bind); err != nil {
		return fmt.Errorf("server.bind %q: %w", c.Server.Bind, err)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("logging.level %q must be one of debug, info, warn, error", c.Logging.Level)
	}
}
