package preflight

import (
	"context"
	"strings"

	"voxpipe/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Checks are only run when the corresponding feature is enabled.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	// Storage directory (always checked)
	results = append(results, CheckDirectoryAccess("Storage directory", cfg.Paths.StorageDir))

	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}

	if model := strings.TrimSpace(cfg.ASR.WhisperCPPModel); model != "" {
		results = append(results, CheckPathReadable("whisper.cpp model", model))
	}

	if cfg.Text.UseCorrection {
		results = append(results, CheckLLM(ctx, "Correction LLM", cfg.GetLLM()))
	}

	return results
}

// Failed filters the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
