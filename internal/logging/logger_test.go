package logging_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cleancut/internal/config"
	"cleancut/internal/logging"
	"cleancut/internal/services"
)

func newFileLogger(t *testing.T, format, level string) (string, func() string) {
	t.Helper()
	logPath := filepath.Join(t.TempDir(), "test.log")
	logger, err := logging.New(logging.Options{Format: format, Level: level, OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	read := func() string {
		content, err := os.ReadFile(logPath)
		if err != nil {
			t.Fatalf("read log file: %v", err)
		}
		return string(content)
	}
	logging.NewComponentLogger(logger, "render").Info("segment extracted",
		logging.Int(logging.FieldSegment, 2),
		logging.String(logging.FieldStrategy, "audio_only"),
		logging.String("path", "/tmp/with space.mkv"),
	)
	logger.Debug("debug detail")
	return logPath, read
}

func TestConsoleLoggerFormatsComponentAndFields(t *testing.T) {
	_, read := newFileLogger(t, "console", "info")
	content := read()

	if !strings.Contains(content, " INFO render: segment extracted") {
		t.Fatalf("expected component prefix, got %q", content)
	}
	if !strings.Contains(content, "segment=2 strategy=audio_only") {
		t.Fatalf("expected key=value fields, got %q", content)
	}
	if !strings.Contains(content, `path="/tmp/with space.mkv"`) {
		t.Fatalf("expected quoted value, got %q", content)
	}
	if strings.Contains(content, "debug detail") {
		t.Fatalf("debug line should be filtered at info level: %q", content)
	}
	if strings.Contains(content, ".go:") {
		t.Fatalf("expected no caller information at info level, got %q", content)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	_, read := newFileLogger(t, "console", "debug")
	content := read()
	if !strings.Contains(content, "debug detail") {
		t.Fatalf("expected debug line, got %q", content)
	}
	if !strings.Contains(content, "logger_test.go:") {
		t.Fatalf("expected caller information at debug level, got %q", content)
	}
}

func TestJSONLoggerUsesShortKeys(t *testing.T) {
	_, read := newFileLogger(t, "json", "info")
	line := strings.TrimSpace(read())

	var payload map[string]any
	if err := json.Unmarshal([]byte(line), &payload); err != nil {
		t.Fatalf("expected JSON line, got %q: %v", line, err)
	}
	if payload["level"] != "info" {
		t.Fatalf("unexpected level: %v", payload["level"])
	}
	if _, ok := payload["ts"]; !ok {
		t.Fatalf("expected ts key, got %v", payload)
	}
	if payload["msg"] != "segment extracted" || payload["component"] != "render" {
		t.Fatalf("unexpected payload: %v", payload)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Logging.Format = "json"

	logger, err := logging.NewFromConfig(&cfg, false)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("hello")

	content, err := os.ReadFile(cfg.LogFilePath())
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), `"msg":"hello"`) {
		t.Fatalf("expected message in log file, got %q", content)
	}
}

func TestWithContextAddsRunID(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "ctx.log")
	logger, err := logging.New(logging.Options{Format: "console", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	ctx := services.WithRunID(context.Background(), "run-42")
	logging.WithContext(ctx, logger).Info("planned")

	content, _ := os.ReadFile(logPath)
	if !strings.Contains(string(content), "run_id=run-42") {
		t.Fatalf("expected run id field, got %q", content)
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "warn.log")
	logger, err := logging.New(logging.Options{Format: "console", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WarnWithContext(logger, "hardware encoder unavailable", "hwaccel_fallback",
		logging.String(logging.FieldImpact, "software encode is slower"),
		logging.Error(errors.New("no device")),
	)

	content, _ := os.ReadFile(logPath)
	text := string(content)
	for _, fragment := range []string{"event_type=hwaccel_fallback", `error_hint="check logs for details"`, `impact="software encode is slower"`, `error="no device"`} {
		if !strings.Contains(text, fragment) {
			t.Fatalf("expected %q in %q", fragment, text)
		}
	}
}

func TestDecisionAttrsAndNop(t *testing.T) {
	attrs := logging.DecisionAttrs("render_strategy", "copy", "no audio edits")
	if !logging.HasAttrKey(attrs, logging.FieldDecisionReason) || len(attrs) != 3 {
		t.Fatalf("unexpected decision attrs: %v", attrs)
	}
	nop := logging.NewNop()
	if nop.Enabled(context.Background(), 12) {
		t.Fatal("nop logger should be disabled")
	}
	logging.NewComponentLogger(nil, "planner").Info("discarded")
}

func TestSpanFlattensInConsoleAndNestsInJSON(t *testing.T) {
	dir := t.TempDir()
	consolePath := filepath.Join(dir, "console.log")
	jsonPath := filepath.Join(dir, "json.log")
	for _, tc := range []struct{ format, path string }{{"console", consolePath}, {"json", jsonPath}} {
		logger, err := logging.New(logging.Options{Format: tc.format, Level: "info", OutputPaths: []string{tc.path}})
		if err != nil {
			t.Fatalf("New(%s): %v", tc.format, err)
		}
		logger.Info("cut planned", logging.Span("span", 10, 14.5))
	}

	console, _ := os.ReadFile(consolePath)
	if !strings.Contains(string(console), "span.start=10 span.end=14.5") {
		t.Fatalf("expected flattened span, got %q", console)
	}

	raw, _ := os.ReadFile(jsonPath)
	var payload struct {
		TS   string             `json:"ts"`
		Span map[string]float64 `json:"span"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(raw))), &payload); err != nil {
		t.Fatalf("decode %q: %v", raw, err)
	}
	if payload.Span["start"] != 10 || payload.Span["end"] != 14.5 {
		t.Fatalf("unexpected span: %v", payload.Span)
	}
	if !strings.HasSuffix(payload.TS, "Z") || !strings.Contains(payload.TS, ".") {
		t.Fatalf("expected UTC millisecond timestamp, got %q", payload.TS)
	}
}
