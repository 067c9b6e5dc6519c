package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cleancut/internal/config"
	"cleancut/internal/confidence"
	"cleancut/internal/editplan"
	"cleancut/internal/render"
	"cleancut/internal/services"
)

func plannerOptions(cfg *config.Config) (editplan.Options, error) {
	mode, err := editplan.ParseEditType(cfg.Planner.CensorMode)
	if err != nil {
		return editplan.Options{}, services.Wrap(services.ErrConfiguration, "config", "planner", "censor_mode", err)
	}
	return editplan.Options{
		ProfanityGap:       cfg.Planner.ProfanityGap,
		NudityGap:          cfg.Planner.NudityGap,
		CensorMode:         mode,
		MinSegmentDuration: cfg.Planner.MinSegmentDuration,
		MinCutDuration:     cfg.Planner.MinCutDuration,
	}, nil
}

func confidenceConfig(cfg *config.Config) confidence.Config {
	c := cfg.Confidence
	return confidence.Config{
		Weights: map[confidence.Detector]float64{
			confidence.DetectorProfanity:     c.ProfanityWeight,
			confidence.DetectorNudity:        c.NudityWeight,
			confidence.DetectorSexualContent: c.SexualContentWeight,
			confidence.DetectorLLMContext:    c.LLMContextWeight,
		},
		Floors: map[confidence.Detector]float64{
			confidence.DetectorProfanity:     c.ProfanityFloor,
			confidence.DetectorNudity:        c.NudityFloor,
			confidence.DetectorSexualContent: c.SexualContentFloor,
			confidence.DetectorLLMContext:    c.LLMContextFloor,
		},
		SingleSignalThreshold: c.SingleSignalThreshold,
		MultiSignalThreshold:  c.MultiSignalThreshold,
		AgreementBoost:        c.AgreementBoost,
		RequireMultiSignal:    c.RequireMultiSignal,
		Aggregation:           confidence.Aggregation(c.Aggregation),
		TimeTolerance:         c.TimeTolerance,
	}
}

// renderFlags are the render command's per-run overrides. Only flags the
// user set replace the configured values.
type renderFlags struct {
	quality        string
	forceCopy      bool
	hwaccel        bool
	workers        int
	alignKeyframes bool
}

func (f *renderFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.quality, "quality", "q", "", fmt.Sprintf("Quality preset (%s)", strings.Join(render.PresetNames(), ", ")))
	cmd.Flags().BoolVar(&f.forceCopy, "force-copy", false, "Stream copy video even when a preset is set")
	cmd.Flags().BoolVar(&f.hwaccel, "hwaccel", false, "Use a hardware video encoder when one is available")
	cmd.Flags().IntVarP(&f.workers, "workers", "w", 0, "Parallel segment extractions")
	cmd.Flags().BoolVar(&f.alignKeyframes, "align-keyframes", false, "Move copied segment starts onto keyframes")
}

func renderOptions(cmd *cobra.Command, cfg *config.Config, f renderFlags) (render.Options, error) {
	rc := cfg.Render
	flags := cmd.Flags()
	if flags.Changed("quality") {
		rc.Quality = f.quality
	}
	if flags.Changed("force-copy") {
		rc.ForceCopy = f.forceCopy
	}
	if flags.Changed("hwaccel") {
		rc.HardwareAccel = f.hwaccel
	}
	if flags.Changed("workers") {
		if f.workers <= 0 {
			return render.Options{}, fmt.Errorf("%w: --workers must be positive", services.ErrInvalidInput)
		}
		rc.Workers = f.workers
	}
	if flags.Changed("align-keyframes") {
		rc.AlignKeyframes = f.alignKeyframes
	}

	preset, err := render.LookupPreset(rc.Quality)
	if err != nil {
		return render.Options{}, err
	}
	return render.Options{
		Preset:            preset,
		ForceCopy:         rc.ForceCopy,
		HardwareAccel:     rc.HardwareAccel,
		SoftwarePreset:    rc.SoftwarePreset,
		CRF:               rc.CRF,
		AudioCodec:        rc.AudioCodec,
		AudioBitrate:      rc.AudioBitrate,
		Workers:           rc.Workers,
		AlignKeyframes:    rc.AlignKeyframes,
		KeyframeTolerance: rc.KeyframeTolerance,
		WorkDir:           cfg.Paths.WorkDir,
		FFmpegBinary:      rc.FFmpegBinary,
		FFprobeBinary:     rc.FFprobeBinary,
	}, nil
}
