package preflight

import (
	"context"

	"cleancut/internal/config"
	"cleancut/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// minScratchBytes is the free space below which the work directory check fails.
const minScratchBytes = 2 << 30

// RunAll executes the directory checks for the given config.
func RunAll(_ context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	return []Result{
		CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir),
		CheckFreeSpace("Work directory space", cfg.Paths.WorkDir, minScratchBytes),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}
}

// CheckSystemDeps evaluates the external binaries configured for rendering.
func CheckSystemDeps(ctx context.Context, cfg *config.Config) []deps.Status {
	if cfg == nil {
		return nil
	}
	return deps.CheckBinaries(ctx, deps.MediaRequirements(cfg.Render.FFmpegBinary, cfg.Render.FFprobeBinary))
}
