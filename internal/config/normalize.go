package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizePlanner()
	c.normalizeConfidence()
	c.normalizeRender()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.History.Path) != "" {
		if c.History.Path, err = expandPath(strings.TrimSpace(c.History.Path)); err != nil {
			return fmt.Errorf("history.path: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizePlanner() {
	c.Planner.CensorMode = strings.ToLower(strings.TrimSpace(c.Planner.CensorMode))
	if c.Planner.CensorMode == "" {
		c.Planner.CensorMode = defaultCensorMode
	}
}

func (c *Config) normalizeConfidence() {
	c.Confidence.Aggregation = strings.ToLower(strings.TrimSpace(c.Confidence.Aggregation))
	if c.Confidence.Aggregation == "" {
		c.Confidence.Aggregation = defaultAggregation
	}
}

func (c *Config) normalizeRender() {
	c.Render.Quality = strings.ToLower(strings.TrimSpace(c.Render.Quality))
	if c.Render.Quality == "" {
		c.Render.Quality = defaultQuality
	}
	c.Render.SoftwarePreset = strings.ToLower(strings.TrimSpace(c.Render.SoftwarePreset))
	if c.Render.SoftwarePreset == "" {
		c.Render.SoftwarePreset = defaultSoftwarePreset
	}
	c.Render.AudioCodec = strings.TrimSpace(c.Render.AudioCodec)
	if c.Render.AudioCodec == "" {
		c.Render.AudioCodec = defaultAudioCodec
	}
	c.Render.AudioBitrate = strings.TrimSpace(c.Render.AudioBitrate)
	if c.Render.AudioBitrate == "" {
		c.Render.AudioBitrate = defaultAudioBitrate
	}
	c.Render.FFmpegBinary = strings.TrimSpace(c.Render.FFmpegBinary)
	if c.Render.FFmpegBinary == "" {
		c.Render.FFmpegBinary = defaultFFmpegBinary
	}
	c.Render.FFprobeBinary = strings.TrimSpace(c.Render.FFprobeBinary)
	if c.Render.FFprobeBinary == "" {
		c.Render.FFprobeBinary = defaultFFprobeBinary
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
