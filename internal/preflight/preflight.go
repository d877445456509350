package preflight

import (
	"context"

	"vidsub/internal/config"
	"vidsub/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
	// Optional checks do not make the overall report fail.
	Optional bool
}

// RunAll executes every readiness check for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	for _, status := range deps.CheckBinaries(Requirements(cfg)) {
		detail := status.Detail
		if status.Available {
			detail = status.Path
		}
		results = append(results, Result{
			Name:     status.Name,
			Passed:   status.Available,
			Detail:   detail,
			Optional: status.Optional,
		})
	}

	outputDir := cfg.Paths.OutputDir
	if outputDir == "" {
		outputDir = "."
	}
	results = append(results, CheckDirectoryAccess("Output directory", outputDir))
	if cfg.Paths.TempDir != "" {
		results = append(results, CheckDirectoryAccess("Temp directory", cfg.Paths.TempDir))
	}

	cuda := CheckCUDA(ctx, cfg.Tools.NvidiaSMI)
	cuda.Optional = cfg.Transcription.Device != "cuda"
	results = append(results, cuda)

	return results
}

// Requirements lists the external binaries vidsub drives.
func Requirements(cfg *config.Config) []deps.Requirement {
	return []deps.Requirement{
		{Name: "FFmpeg", Command: cfg.Tools.FFmpeg, Description: "Extracts mono 16 kHz audio from the video"},
		{Name: "uvx", Command: cfg.Tools.UVX, Description: "Launches the WhisperX transcription engine"},
		{Name: "nvidia-smi", Command: cfg.Tools.NvidiaSMI, Description: "Detects CUDA devices", Optional: true},
	}
}

// AllPassed reports whether every non-optional check passed.
func AllPassed(results []Result) bool {
	for _, r := range results {
		if !r.Passed && !r.Optional {
			return false
		}
	}
	return true
}
