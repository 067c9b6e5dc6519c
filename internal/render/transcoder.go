package render

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"cleancut/internal/services"
)

// Transcoder is the external tool contract. On success the request's
// destination exists and is non-empty.
type Transcoder interface {
	Extract(ctx context.Context, req ExtractRequest) error
	Concat(ctx context.Context, req ConcatRequest) error
}

// Range selects [Start, Start+Duration) of the source in seconds.
type Range struct {
	Start    float64
	Duration float64
}

// VideoMode describes how the video stream is produced.
type VideoMode struct {
	Copy    bool
	Encoder Encoder
	// Filter is the scale chain; the encoder's FilterSuffix is appended.
	Filter      string
	BitrateArgs []string
}

// AudioMode describes how audio streams are produced.
type AudioMode struct {
	Copy    bool
	Codec   string
	Bitrate string
	Filter  string
}

// ExtractRequest produces Destination from a range of Source.
type ExtractRequest struct {
	Source      string
	Destination string
	// Range is nil for the whole asset.
	Range *Range
	Video VideoMode
	Audio AudioMode
}

// ConcatRequest joins Inputs in order into Destination, regenerating
// timestamps. ListPath is where the concat list file is written.
type ConcatRequest struct {
	Inputs      []string
	Destination string
	ListPath    string
}

// ToolError is a non-zero exit from an external tool. Stderr holds the
// tool's diagnostic output verbatim.
type ToolError struct {
	Tool      string
	Operation string
	Args      []string
	Stderr    string
	Err       error
}

func (e *ToolError) Error() string {
	op := e.Tool
	if e.Operation != "" {
		op += " " + e.Operation
	}
	if strings.TrimSpace(e.Stderr) == "" {
		return fmt.Sprintf("%s: %v", op, e.Err)
	}
	return fmt.Sprintf("%s: %v: %s", op, e.Err, strings.TrimSpace(e.Stderr))
}

// Unwrap exposes both the external tool marker and the underlying exec error.
func (e *ToolError) Unwrap() []error {
	return []error{services.ErrExternalTool, e.Err}
}

// commandRunner executes a tool and returns its stdout.
type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		return output, &ToolError{
			Tool:   filepath.Base(name),
			Args:   append([]string(nil), args...),
			Stderr: stderr.String(),
			Err:    err,
		}
	}
	return output, nil
}
