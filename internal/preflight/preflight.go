package preflight

import (
	"context"

	"gymcut/internal/config"
)

// MinFreeBytes is the free space the work directory should offer. Raw frame
// pipes do not touch disk, but intermediate MP4s for a few minutes of 1080p
// footage easily reach a gigabyte.
var MinFreeBytes uint64 = 2 << 30

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
		CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir),
		CheckFreeSpace("Work directory space", cfg.Paths.WorkDir, MinFreeBytes),
	}
	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}
	if cfg.Cache.Enabled {
		results = append(results, CheckDirectoryAccess("Cache directory", cfg.Paths.CacheDir))
	}
	if cfg.Composite.Matter == config.MatterONNX {
		results = append(results, CheckModelFile("Matting model", cfg.Composite.ModelPath))
	}
	if cfg.Transcribe.Backend == config.BackendOpenAI {
		results = append(results, CheckOpenAI(ctx, cfg.Transcribe.OpenAIBaseURL, cfg.Transcribe.OpenAIAPIKey))
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
