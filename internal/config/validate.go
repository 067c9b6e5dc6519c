package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePlanner(); err != nil {
		return err
	}
	if err := c.validateConfidence(); err != nil {
		return err
	}
	if err := c.validateRender(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePlanner() error {
	if err := ensureNonNegativeMap(map[string]float64{
		"planner.profanity_gap":        c.Planner.ProfanityGap,
		"planner.nudity_gap":           c.Planner.NudityGap,
		"planner.min_segment_duration": c.Planner.MinSegmentDuration,
		"planner.min_cut_duration":     c.Planner.MinCutDuration,
	}); err != nil {
		return err
	}
	switch c.Planner.CensorMode {
	case "mute", "beep":
	default:
		return fmt.Errorf("planner.censor_mode must be \"mute\" or \"beep\", got %q", c.Planner.CensorMode)
	}
	return nil
}

func (c *Config) validateConfidence() error {
	cf := c.Confidence
	if err := ensureNonNegativeMap(map[string]float64{
		"confidence.profanity_weight":      cf.ProfanityWeight,
		"confidence.nudity_weight":         cf.NudityWeight,
		"confidence.sexual_content_weight": cf.SexualContentWeight,
		"confidence.llm_context_weight":    cf.LLMContextWeight,
		"confidence.agreement_boost":       cf.AgreementBoost,
		"confidence.time_tolerance":        cf.TimeTolerance,
	}); err != nil {
		return err
	}
	if err := ensureUnitMap(map[string]float64{
		"confidence.profanity_floor":         cf.ProfanityFloor,
		"confidence.nudity_floor":            cf.NudityFloor,
		"confidence.sexual_content_floor":    cf.SexualContentFloor,
		"confidence.llm_context_floor":       cf.LLMContextFloor,
		"confidence.single_signal_threshold": cf.SingleSignalThreshold,
		"confidence.multi_signal_threshold":  cf.MultiSignalThreshold,
	}); err != nil {
		return err
	}
	switch cf.Aggregation {
	case "max", "last":
	default:
		return fmt.Errorf("confidence.aggregation must be \"max\" or \"last\", got %q", cf.Aggregation)
	}
	return nil
}

func (c *Config) validateRender() error {
	if c.Render.Workers <= 0 {
		return errors.New("render.workers must be positive")
	}
	if c.Render.CRF < 0 || c.Render.CRF > 51 {
		return errors.New("render.crf must be between 0 and 51")
	}
	if c.Render.KeyframeTolerance < 0 {
		return errors.New("render.keyframe_tolerance must be >= 0")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be \"console\" or \"json\", got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
	return nil
}

func ensureNonNegativeMap(values map[string]float64) error {
	for key, value := range values {
		if value < 0 {
			return fmt.Errorf("%s must be >= 0", key)
		}
	}
	return nil
}

func ensureUnitMap(values map[string]float64) error {
	for key, value := range values {
		if value < 0 || value > 1 {
			return fmt.Errorf("%s must be between 0 and 1", key)
		}
	}
	return nil
}
