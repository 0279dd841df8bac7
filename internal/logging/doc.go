// Package logging assembles structured slog loggers and formatting helpers used
// across ignite.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so store and transport code can
// tag log lines with entity paths, addresses, and request correlation IDs. The
// package also provides a no-op logger for tests and wiring code that cannot
// fail.
package logging
