package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"cleancut/internal/confidence"
	"cleancut/internal/config"
	"cleancut/internal/detections"
	"cleancut/internal/editplan"
	"cleancut/internal/logging"
	"cleancut/internal/media/ffprobe"
	"cleancut/internal/services"
)

// planRequest names the inputs of one planning pass.
type planRequest struct {
	detectionsPath string
	// duration overrides every other duration source when positive.
	duration float64
	// source, when set and duration is not, is probed for its duration.
	source string
}

type planResult struct {
	plan       editplan.EditPlan
	detections []confidence.Detection
	duration   float64
	// durationSource is "flag", "ffprobe" or "detections".
	durationSource string
}

func buildPlan(ctx context.Context, cfg *config.Config, logger *slog.Logger, req planRequest) (planResult, error) {
	file, err := detections.Load(req.detectionsPath)
	if err != nil {
		return planResult{}, fmt.Errorf("load detections %s: %w", req.detectionsPath, err)
	}
	if err := file.Validate(); err != nil {
		return planResult{}, fmt.Errorf("detections %s: %w", req.detectionsPath, err)
	}

	duration, durationSource := resolveDuration(ctx, cfg, logger, req, file.Duration)

	merger, err := confidence.NewMerger(confidenceConfig(cfg), logging.NewComponentLogger(logger, "confidence"))
	if err != nil {
		return planResult{}, services.Wrap(services.ErrConfiguration, "plan", "confidence config", "", err)
	}
	resolved, err := file.Resolve(merger, duration)
	if err != nil {
		return planResult{}, err
	}

	opts, err := plannerOptions(cfg)
	if err != nil {
		return planResult{}, err
	}
	plan, err := editplan.Plan(resolved.Inputs, opts)
	if err != nil {
		return planResult{}, err
	}

	summary := plan.Summary()
	logger.Info("edit plan built",
		logging.String("detections", req.detectionsPath),
		logging.String("duration_source", durationSource),
		logging.Seconds("original_seconds", summary.OriginalDuration),
		logging.Seconds("output_seconds", summary.OutputDuration),
		logging.Int("cuts", summary.CutCount),
		logging.Int("audio_edits", summary.EditCount),
	)
	return planResult{
		plan:           plan,
		detections:     resolved.Detections,
		duration:       resolved.Inputs.Duration,
		durationSource: durationSource,
	}, nil
}

// resolveDuration prefers the explicit flag, then the probed source, then
// the detections file. A failed probe falls back to the file with a warning.
func resolveDuration(ctx context.Context, cfg *config.Config, logger *slog.Logger, req planRequest, fileDuration float64) (float64, string) {
	if req.duration > 0 {
		return req.duration, "flag"
	}
	source := strings.TrimSpace(req.source)
	if source == "" {
		return fileDuration, "detections"
	}
	probe, err := ffprobe.Inspect(ctx, cfg.Render.FFprobeBinary, source)
	if err == nil && probe.DurationSeconds() > 0 {
		return probe.DurationSeconds(), "ffprobe"
	}
	if err == nil {
		err = errors.New("container reports no duration")
	}
	logging.WarnWithContext(logger, "source duration probe failed; using detections file", "duration_probe",
		logging.String("source", source),
		logging.Seconds("fallback_seconds", fileDuration),
		logging.Error(err),
	)
	return fileDuration, "detections"
}
