package preflight

import (
	"context"
	"path/filepath"

	"gdcmeta/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// RunAll executes every preflight check for the given config. The indexd
// check only runs when includeIndexd is set, since record generation does
// not need it.
func RunAll(ctx context.Context, cfg *config.Config, includeIndexd bool) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
	}
	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}
	if cfg.Paths.CachePath != "" {
		results = append(results, CheckDirectoryAccess("Cache directory", filepath.Dir(cfg.Paths.CachePath)))
	}

	results = append(results, CheckGDC(ctx, cfg.GDC.BaseURL))

	if includeIndexd {
		results = append(results, CheckIndexd(ctx, cfg.Indexd.Host, cfg.Indexd.Username, cfg.Indexd.Password))
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
