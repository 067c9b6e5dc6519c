package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains working and log directory configuration.
type Paths struct {
	WorkDir string `toml:"work_dir"`
	LogDir  string `toml:"log_dir"`
}

// Planner contains the edit planner tuning knobs. All durations are seconds.
type Planner struct {
	ProfanityGap       float64 `toml:"profanity_gap"`
	NudityGap          float64 `toml:"nudity_gap"`
	CensorMode         string  `toml:"censor_mode"`
	MinSegmentDuration float64 `toml:"min_segment_duration"`
	MinCutDuration     float64 `toml:"min_cut_duration"`
}

// Confidence contains the signal fusion weights and thresholds.
type Confidence struct {
	ProfanityWeight     float64 `toml:"profanity_weight"`
	NudityWeight        float64 `toml:"nudity_weight"`
	SexualContentWeight float64 `toml:"sexual_content_weight"`
	LLMContextWeight    float64 `toml:"llm_context_weight"`

	// Floors are the raw confidence a detector must exceed before it counts.
	ProfanityFloor     float64 `toml:"profanity_floor"`
	NudityFloor        float64 `toml:"nudity_floor"`
	SexualContentFloor float64 `toml:"sexual_content_floor"`
	LLMContextFloor    float64 `toml:"llm_context_floor"`

	SingleSignalThreshold float64 `toml:"single_signal_threshold"`
	MultiSignalThreshold  float64 `toml:"multi_signal_threshold"`
	AgreementBoost        float64 `toml:"agreement_boost"`
	RequireMultiSignal    bool    `toml:"require_multi_signal"`
	// Aggregation selects how repeated signals from one detector inside a
	// cluster combine: "max" or "last".
	Aggregation   string  `toml:"aggregation"`
	TimeTolerance float64 `toml:"time_tolerance"`
}

// Render contains renderer and external tool settings.
type Render struct {
	Quality           string  `toml:"quality"`
	ForceCopy         bool    `toml:"force_copy"`
	HardwareAccel     bool    `toml:"hardware_accel"`
	SoftwarePreset    string  `toml:"software_preset"`
	CRF               int     `toml:"crf"`
	AudioCodec        string  `toml:"audio_codec"`
	AudioBitrate      string  `toml:"audio_bitrate"`
	Workers           int     `toml:"workers"`
	AlignKeyframes    bool    `toml:"align_keyframes"`
	KeyframeTolerance float64 `toml:"keyframe_tolerance"`
	FFmpegBinary      string  `toml:"ffmpeg_binary"`
	FFprobeBinary     string  `toml:"ffprobe_binary"`
}

// History contains configuration for the run history database.
type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"` // Default: <log_dir>/history.db
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for cleancut.
//
// Configuration sections by subsystem:
//   - Paths: scratch work directory and log directory
//   - Planner: merge gaps, censor mode, micro-cut and fragment minimums
//   - Confidence: detector weights, floors, and verdict thresholds
//   - Render: quality preset, encoder selection, parallelism, tool binaries
//   - History: SQLite run history
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Planner    Planner    `toml:"planner"`
	Confidence Confidence `toml:"confidence"`
	Render     Render     `toml:"render"`
	History    History    `toml:"history"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/cleancut/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("cleancut.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the work and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.WorkDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// HistoryPath returns the run history database location.
func (c *Config) HistoryPath() string {
	if p := strings.TrimSpace(c.History.Path); p != "" {
		return p
	}
	return filepath.Join(c.Paths.LogDir, defaultHistoryFile)
}

// LogFilePath returns the log file written alongside console output.
func (c *Config) LogFilePath() string {
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return ""
	}
	return filepath.Join(c.Paths.LogDir, "cleancut.log")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
