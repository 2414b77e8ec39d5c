package preflight

import (
	"context"

	"clipforge/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
		CheckFreeSpace("Output free space", cfg.Paths.OutputDir, cfg.Video.MinFreeGiB),
		CheckLLM(ctx, "LLM API", cfg.LLM),
	}
	if cfg.VideoAPIKey() == "" {
		results = append(results, Result{Name: "Video API", Detail: "API key missing (video generation disabled)"})
	} else {
		results = append(results, Result{Name: "Video API", Passed: true, Detail: "API key configured"})
	}
	return results
}

// AllPassed reports whether every required check passed.
func AllPassed(results []Result) bool {
	for _, result := range results {
		if !result.Passed {
			return false
		}
	}
	return true
}
