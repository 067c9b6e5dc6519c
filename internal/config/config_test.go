package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"cleancut/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if want := filepath.Join(tempHome, ".config", "cleancut", "config.toml"); resolved != want {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, want)
	}

	wantWork := filepath.Join(tempHome, ".local", "share", "cleancut", "work")
	if cfg.Paths.WorkDir != wantWork {
		t.Fatalf("unexpected work dir: got %q want %q", cfg.Paths.WorkDir, wantWork)
	}
	wantHistory := filepath.Join(tempHome, ".local", "share", "cleancut", "logs", "history.db")
	if got := cfg.HistoryPath(); got != wantHistory {
		t.Fatalf("unexpected history path: got %q want %q", got, wantHistory)
	}
	if cfg.Planner.CensorMode != "beep" {
		t.Fatalf("expected beep censor mode, got %q", cfg.Planner.CensorMode)
	}
	if cfg.Confidence.Aggregation != "max" {
		t.Fatalf("expected max aggregation, got %q", cfg.Confidence.Aggregation)
	}
	if cfg.Render.Quality != "source" {
		t.Fatalf("expected source quality, got %q", cfg.Render.Quality)
	}
	if cfg.Render.AlignKeyframes {
		t.Fatal("expected keyframe alignment disabled by default")
	}
	if !cfg.History.Enabled {
		t.Fatal("expected history enabled by default")
	}
}

func TestLoadCustomConfigOverridesValues(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	configPath := filepath.Join(t.TempDir(), "config.toml")
	content := `[paths]
work_dir = "~/scratch"

[planner]
censor_mode = "MUTE"
nudity_gap = 1.5

[confidence]
aggregation = "last"
require_multi_signal = true

[render]
quality = "1080p_high"
workers = 4
align_keyframes = true

[logging]
format = "json"
level = "debug"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: %q", resolved)
	}
	if cfg.Paths.WorkDir != filepath.Join(tempHome, "scratch") {
		t.Fatalf("unexpected work dir: %q", cfg.Paths.WorkDir)
	}
	if cfg.Planner.CensorMode != "mute" {
		t.Fatalf("expected censor mode normalized to mute, got %q", cfg.Planner.CensorMode)
	}
	if cfg.Planner.NudityGap != 1.5 {
		t.Fatalf("unexpected nudity gap: %v", cfg.Planner.NudityGap)
	}
	if cfg.Planner.ProfanityGap != config.Default().Planner.ProfanityGap {
		t.Fatalf("expected untouched profanity gap to keep default, got %v", cfg.Planner.ProfanityGap)
	}
	if cfg.Confidence.Aggregation != "last" || !cfg.Confidence.RequireMultiSignal {
		t.Fatalf("unexpected confidence section: %+v", cfg.Confidence)
	}
	if cfg.Render.Quality != "1080p_high" || cfg.Render.Workers != 4 || !cfg.Render.AlignKeyframes {
		t.Fatalf("unexpected render section: %+v", cfg.Render)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging section: %+v", cfg.Logging)
	}
}

func TestLoadProjectConfigFromWorkingDirectory(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	project := t.TempDir()
	t.Chdir(project)

	if err := os.WriteFile("cleancut.toml", []byte("[render]\nworkers = 3\n"), 0o644); err != nil {
		t.Fatalf("write project config: %v", err)
	}

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected project config to be found")
	}
	if filepath.Base(resolved) != "cleancut.toml" {
		t.Fatalf("unexpected resolved path: %q", resolved)
	}
	if cfg.Render.Workers != 3 {
		t.Fatalf("expected workers from project config, got %d", cfg.Render.Workers)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	configPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(configPath, []byte("[render]\nspeed = \"fast\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected unknown key to fail parsing")
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{
			name:   "censor mode",
			mutate: func(c *config.Config) { c.Planner.CensorMode = "bleep" },
			want:   "planner.censor_mode",
		},
		{
			name:   "negative gap",
			mutate: func(c *config.Config) { c.Planner.NudityGap = -1 },
			want:   "planner.nudity_gap",
		},
		{
			name:   "floor out of range",
			mutate: func(c *config.Config) { c.Confidence.NudityFloor = 1.5 },
			want:   "confidence.nudity_floor",
		},
		{
			name:   "aggregation",
			mutate: func(c *config.Config) { c.Confidence.Aggregation = "mean" },
			want:   "confidence.aggregation",
		},
		{
			name:   "workers",
			mutate: func(c *config.Config) { c.Render.Workers = 0 },
			want:   "render.workers",
		},
		{
			name:   "crf",
			mutate: func(c *config.Config) { c.Render.CRF = 60 },
			want:   "render.crf",
		},
		{
			name:   "log format",
			mutate: func(c *config.Config) { c.Logging.Format = "xml" },
			want:   "logging.format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestCreateSampleProducesLoadableConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var decoded config.Config
	if err := toml.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("sample is not valid TOML: %v", err)
	}
	if decoded.Render.Quality != "source" {
		t.Fatalf("unexpected sample quality: %q", decoded.Render.Quality)
	}

	if _, _, exists, err := config.Load(path); err != nil || !exists {
		t.Fatalf("Load(sample) = exists %v, err %v", exists, err)
	}
}

func TestEnsureDirectoriesCreatesWorkAndLogDirs(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.WorkDir = filepath.Join(base, "work")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories returned error: %v", err)
	}
	for _, dir := range []string{cfg.Paths.WorkDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("expected directory %q, err %v", dir, err)
		}
	}
}
