package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"cleancut/internal/fileutil"
	"cleancut/internal/logging"
	"cleancut/internal/services"
)

// FFmpeg implements Transcoder by invoking the ffmpeg binary.
type FFmpeg struct {
	binary string
	logger *slog.Logger
	run    commandRunner
}

// NewFFmpeg constructs an ffmpeg-backed transcoder. An empty binary resolves
// "ffmpeg" from PATH.
func NewFFmpeg(binary string, logger *slog.Logger) *FFmpeg {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	return &FFmpeg{
		binary: binary,
		logger: logging.NewComponentLogger(logger, "ffmpeg"),
		run:    runCommand,
	}
}

// WithCommandRunner replaces process execution, for tests.
func (f *FFmpeg) WithCommandRunner(r commandRunner) {
	if f != nil && r != nil {
		f.run = r
	}
}

// Binary returns the ffmpeg executable in use.
func (f *FFmpeg) Binary() string {
	return f.binary
}

// Extract runs one extraction.
func (f *FFmpeg) Extract(ctx context.Context, req ExtractRequest) error {
	if strings.TrimSpace(req.Source) == "" || strings.TrimSpace(req.Destination) == "" {
		return services.Wrap(services.ErrInvalidInput, "ffmpeg", "extract", "source and destination are required", nil)
	}
	return f.exec(ctx, "extract", req.Destination, buildExtractArgs(req))
}

// Concat writes the list file and joins the inputs with stream copy.
func (f *FFmpeg) Concat(ctx context.Context, req ConcatRequest) error {
	if len(req.Inputs) == 0 {
		return services.Wrap(services.ErrInvalidInput, "ffmpeg", "concat", "no inputs", nil)
	}
	if err := os.WriteFile(req.ListPath, []byte(concatList(req.Inputs)), 0o644); err != nil {
		return services.Wrap(services.ErrResource, "ffmpeg", "concat", "write list file", err)
	}
	return f.exec(ctx, "concat", req.Destination, buildConcatArgs(req))
}

func (f *FFmpeg) exec(ctx context.Context, operation, destination string, args []string) error {
	f.logger.Debug("running ffmpeg",
		logging.String("operation", operation),
		logging.String("command", f.binary+" "+strings.Join(args, " ")),
	)
	if _, err := f.run(ctx, f.binary, args...); err != nil {
		var toolErr *ToolError
		if errors.As(err, &toolErr) {
			toolErr.Operation = operation
			return toolErr
		}
		return &ToolError{Tool: "ffmpeg", Operation: operation, Args: args, Err: err}
	}
	if err := fileutil.RequireNonEmpty(destination); err != nil {
		return &ToolError{Tool: "ffmpeg", Operation: operation, Args: args, Err: fmt.Errorf("no output produced: %w", err)}
	}
	return nil
}

func buildExtractArgs(req ExtractRequest) []string {
	args := []string{"-hide_banner", "-nostdin", "-v", "error", "-y"}
	if !req.Video.Copy {
		args = append(args, req.Video.Encoder.PreInputArgs...)
	}
	if req.Range != nil {
		args = append(args, "-ss", formatSeconds(req.Range.Start))
	}
	args = append(args, "-i", req.Source)
	if req.Range != nil {
		args = append(args, "-t", formatSeconds(req.Range.Duration))
	}
	args = append(args, "-map", "0:v:0", "-map", "0:a?", "-sn", "-dn")

	if req.Video.Copy {
		args = append(args, "-c:v", "copy")
	} else {
		name := req.Video.Encoder.Name
		if name == "" {
			name = SoftwareEncoderName
		}
		args = append(args, "-c:v", name)
		args = append(args, req.Video.Encoder.QualityArgs...)
		args = append(args, req.Video.BitrateArgs...)
		if filter := joinFilters(req.Video.Filter, req.Video.Encoder.FilterSuffix); filter != "" {
			args = append(args, "-vf", filter)
		}
	}

	if req.Audio.Copy {
		args = append(args, "-c:a", "copy")
	} else {
		codec := req.Audio.Codec
		if codec == "" {
			codec = "aac"
		}
		args = append(args, "-c:a", codec)
		if req.Audio.Bitrate != "" {
			args = append(args, "-b:a", req.Audio.Bitrate)
		}
		if req.Audio.Filter != "" && req.Audio.Filter != passthroughAudioFilter {
			args = append(args, "-af", req.Audio.Filter)
		}
	}

	args = append(args, "-avoid_negative_ts", "make_zero", req.Destination)
	return args
}

func buildConcatArgs(req ConcatRequest) []string {
	return []string{
		"-hide_banner", "-nostdin", "-v", "error", "-y",
		"-fflags", "+genpts",
		"-f", "concat", "-safe", "0",
		"-i", req.ListPath,
		"-map", "0", "-c", "copy",
		"-avoid_negative_ts", "make_zero",
		req.Destination,
	}
}

// concatList renders the concat demuxer list, escaping single quotes.
func concatList(paths []string) string {
	var b strings.Builder
	for _, p := range paths {
		b.WriteString("file '")
		b.WriteString(strings.ReplaceAll(p, "'", `'\''`))
		b.WriteString("'\n")
	}
	return b.String()
}

func joinFilters(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ",")
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
