// Package config loads, normalizes, and validates ignite configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the IGNITE_ROOT environment
// fallback. The Config type centralizes every knob the store, CLI, and HTTP
// server need: the project root, marker filenames, version padding, tag
// weights used to rank versions, and log output settings.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, a validated marker table, and clear validation errors.
package config
