package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"cleancut/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Logging is quiet and history lives under the temp log directory.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.WorkDir = filepath.Join(base, "work")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Logging.Level = "error"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithFFmpegScript installs a shell script as the configured ffmpeg binary.
func WithFFmpegScript(body string) ConfigOption {
	return func(b *configBuilder) {
		path := filepath.Join(b.binDir(), "ffmpeg-stub")
		writeScript(b.t, path, body)
		b.cfg.Render.FFmpegBinary = path
	}
}

// WithFFprobeScript installs a shell script as the configured ffprobe binary.
func WithFFprobeScript(body string) ConfigOption {
	return func(b *configBuilder) {
		path := filepath.Join(b.binDir(), "ffprobe-stub")
		writeScript(b.t, path, body)
		b.cfg.Render.FFprobeBinary = path
	}
}

// WithHistoryDisabled turns off the run history database.
func WithHistoryDisabled() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.History.Enabled = false
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.WorkDir)
}

// WriteConfig serialises cfg as TOML next to its directories and returns the path.
func WriteConfig(t testing.TB, cfg *config.Config) string {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	path := filepath.Join(BaseDir(cfg), "cleancut.toml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func (b *configBuilder) binDir() string {
	dir := filepath.Join(b.baseDir, "bin")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		b.t.Fatalf("mkdir bin dir: %v", err)
	}
	return dir
}

func writeScript(t testing.TB, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", filepath.Base(path), err)
	}
}
