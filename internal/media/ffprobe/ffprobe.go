package ffprobe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"slices"
	"strconv"
	"strings"
)

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index      int    `json:"index"`
	CodecName  string `json:"codec_name"`
	CodecType  string `json:"codec_type"`
	Duration   string `json:"duration"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	SampleRate string `json:"sample_rate"`
	Channels   int    `json:"channels"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename   string `json:"filename"`
	NBStreams  int    `json:"nb_streams"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	BitRate    string `json:"bit_rate"`
	FormatName string `json:"format_name"`
}

// Inspect executes ffprobe against the provided path and decodes the JSON response.
func Inspect(ctx context.Context, binary string, path string) (Result, error) {
	output, err := run(ctx, binary, path, "inspect",
		"-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json")
	if err != nil {
		return Result{}, err
	}

	var result Result
	if err := json.Unmarshal(output, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return result, nil
}

// Keyframes returns the sorted presentation timestamps, in seconds, of every
// keyframe packet in the first video stream.
func Keyframes(ctx context.Context, binary string, path string) ([]float64, error) {
	output, err := run(ctx, binary, path, "keyframes",
		"-v", "error", "-hide_banner", "-select_streams", "v:0",
		"-show_entries", "packet=pts_time,flags", "-of", "csv=p=0")
	if err != nil {
		return nil, err
	}
	return parseKeyframePackets(output), nil
}

func run(ctx context.Context, binary, path, operation string, args ...string) ([]byte, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("ffprobe %s: empty path", operation)
	}

	args = append(args, "--", path)
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		return nil, &Error{Operation: operation, Stderr: strings.TrimSpace(stderr.String()), Err: err}
	}
	return output, nil
}

// Error reports a failed ffprobe invocation with its diagnostic output.
type Error struct {
	Operation string
	Stderr    string
	Err       error
}

func (e *Error) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("ffprobe %s: %v", e.Operation, e.Err)
	}
	return fmt.Sprintf("ffprobe %s: %v: %s", e.Operation, e.Err, e.Stderr)
}

func (e *Error) Unwrap() error { return e.Err }

// IsError reports whether err came from an ffprobe invocation.
func IsError(err error) bool {
	var target *Error
	return errors.As(err, &target)
}

// parseKeyframePackets reads "pts_time,flags" CSV lines and keeps rows whose
// flags contain K. Packets without a timestamp are skipped.
func parseKeyframePackets(output []byte) []float64 {
	var keyframes []float64
	for _, line := range strings.Split(string(output), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Split(line, ",")
		if len(fields) < 2 || !strings.Contains(fields[1], "K") {
			continue
		}
		ts, err := strconv.ParseFloat(strings.TrimSpace(fields[0]), 64)
		if err != nil || math.IsNaN(ts) {
			continue
		}
		keyframes = append(keyframes, ts)
	}
	return sortUnique(keyframes)
}

func sortUnique(values []float64) []float64 {
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	return slices.Compact(sorted)
}

// VideoStream returns the first video stream.
func (r Result) VideoStream() (Stream, bool) {
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "video") {
			return stream, true
		}
	}
	return Stream{}, false
}

// VideoStreamCount returns the number of video streams discovered.
func (r Result) VideoStreamCount() int {
	return r.countType("video")
}

// AudioStreamCount returns the number of audio streams discovered.
func (r Result) AudioStreamCount() int {
	return r.countType("audio")
}

func (r Result) countType(codecType string) int {
	count := 0
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, codecType) {
			count++
		}
	}
	return count
}

// DurationSeconds returns the container duration in seconds, or 0 when unavailable.
func (r Result) DurationSeconds() float64 {
	return parseFloat(r.Format.Duration)
}

// SizeBytes returns the reported container size in bytes, or 0 when unavailable.
func (r Result) SizeBytes() int64 {
	size := parseFloat(r.Format.Size)
	if math.IsNaN(size) || size < 0 {
		return 0
	}
	return int64(size)
}

func parseFloat(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0
	}
	if parsed, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return parsed
	}
	return math.NaN()
}
