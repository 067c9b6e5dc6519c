package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cleancut/internal/config"
	"cleancut/internal/testsupport"
)

// stubFFmpeg writes "rendered" to its final argument unless that argument is
// a flag, so -version probes leave no files behind.
const stubFFmpeg = `for last; do :; done
case "$last" in
  -*) exit 0 ;;
esac
printf 'rendered\n' > "$last"
`

// stubFFprobe answers keyframe packet queries with CSV and everything else
// with a two minute container.
const stubFFprobe = `case "$*" in
  *packet=pts_time*) printf '0.000000,K__\n4.004000,K__\n8.008000,K__\n12.012000,K__\n' ;;
  *) echo '{"streams":[{"index":0,"codec_type":"video","height":1080},{"index":1,"codec_type":"audio"}],"format":{"duration":"120.000000"}}' ;;
esac
`

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)

	opts = append([]testsupport.ConfigOption{
		testsupport.WithFFmpegScript(stubFFmpeg),
		testsupport.WithFFprobeScript(stubFFprobe),
	}, opts...)
	cfg := testsupport.NewConfig(t, opts...)
	return &cliTestEnv{
		cfg:        cfg,
		configPath: testsupport.WriteConfig(t, cfg),
		baseDir:    testsupport.BaseDir(cfg),
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

const sampleDetections = `duration: 120
signals:
  - {detector: nudity, start: 10, end: 12, confidence: 0.95, label: exposed}
  - {detector: nudity, start: 12.3, end: 14, confidence: 0.92}
  - {detector: profanity, start: 30, end: 31, confidence: 0.9, label: f-word}
`

func (e *cliTestEnv) writeDetections(t *testing.T, name, content string) string {
	t.Helper()
	return testsupport.WriteText(t, filepath.Join(e.baseDir, name), content)
}
