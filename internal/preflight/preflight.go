package preflight

import (
	"context"

	"ignite/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// RunAll executes every applicable check for cfg. The journal check only
// runs when the journal is enabled.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	results = append(results, CheckDirectoryAccess("Project root", cfg.Paths.Root))
	results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))
	results = append(results, CheckMarkers(cfg))
	if cfg.Journal.Enabled {
		results = append(results, CheckJournal(ctx, cfg.Journal.Path))
	}
	results = append(results, CheckServerLock(cfg.InstanceLockPath()))

	// The tree scan needs a readable root and a valid marker table.
	if results[0].Passed && results[2].Passed {
		results = append(results, CheckTree(ctx, cfg))
	}
	return results
}

// Failed reports whether any result did not pass.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return true
		}
	}
	return false
}
