package detections

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"cleancut/internal/confidence"
	"cleancut/internal/editplan"
	"cleancut/internal/interval"
	"cleancut/internal/services"
)

// ErrUnsupportedFormat reports a file extension other than .json, .yaml or .yml.
var ErrUnsupportedFormat = fmt.Errorf("%w: unsupported detections format", services.ErrInvalidInput)

// Span is a violence detection. Violence is cut without fusion.
type Span struct {
	Start float64 `json:"start" yaml:"start"`
	End   float64 `json:"end" yaml:"end"`
	Label string  `json:"label,omitempty" yaml:"label,omitempty"`
	Score float64 `json:"score,omitempty" yaml:"score,omitempty"`
}

// File is the on-disk detections document.
type File struct {
	Duration  float64             `json:"duration" yaml:"duration"`
	Signals   []confidence.Signal `json:"signals,omitempty" yaml:"signals,omitempty"`
	Violence  []Span              `json:"violence,omitempty" yaml:"violence,omitempty"`
	Overrides editplan.Overrides  `json:"overrides,omitempty" yaml:"overrides,omitempty"`
}

// Load reads path, choosing the decoder from its extension. Unknown fields
// are rejected.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read detections: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return Decode(bytes.NewReader(data), FormatJSON)
	case ".yaml", ".yml":
		return Decode(bytes.NewReader(data), FormatYAML)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Format names a supported encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Decode parses a detections document from r.
func Decode(r io.Reader, format Format) (*File, error) {
	var f File
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&f); err != nil {
			return nil, fmt.Errorf("%w: parse detections json: %w", services.ErrInvalidInput, err)
		}
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: parse detections yaml: %w", services.ErrInvalidInput, err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	return &f, nil
}

// Validate checks every signal and span without planning.
func (f *File) Validate() error {
	var errs []error
	for i, s := range f.Signals {
		if err := s.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("signals[%d]: %w", i, err))
		}
	}
	for i, v := range f.Violence {
		if err := (interval.Interval{Start: v.Start, End: v.End}).Validate(); err != nil {
			errs = append(errs, fmt.Errorf("violence[%d]: %w", i, err))
		}
	}
	if err := interval.ValidateAll(f.Overrides.Handled); err != nil {
		errs = append(errs, fmt.Errorf("overrides.handled: %w", err))
	}
	return errors.Join(errs...)
}

// ViolenceIntervals converts violence spans into tagged intervals.
func (f *File) ViolenceIntervals() ([]interval.Interval, error) {
	out := make([]interval.Interval, 0, len(f.Violence))
	for i, v := range f.Violence {
		iv, err := interval.New(v.Start, v.End, interval.Reason{
			Category: interval.CategoryViolence,
			Label:    v.Label,
			Score:    v.Score,
		})
		if err != nil {
			return nil, fmt.Errorf("violence[%d]: %w", i, err)
		}
		out = append(out, iv)
	}
	return out, nil
}

// Resolved is a detections file run through fusion and overrides.
type Resolved struct {
	Inputs     editplan.Inputs
	Detections []confidence.Detection
}

// Resolve fuses the signals with m, adds violence spans and applies the
// overrides. duration replaces the file's duration when positive.
func (f *File) Resolve(m *confidence.Merger, duration float64) (Resolved, error) {
	if duration <= 0 {
		duration = f.Duration
	}
	dets, err := m.MergeOverlapping(f.Signals, m.Config().TimeTolerance)
	if err != nil {
		return Resolved{}, services.Wrap(services.ErrInvalidInput, "detections", "merge signals", "", err)
	}
	cats := m.Categorize(dets)
	violence, err := f.ViolenceIntervals()
	if err != nil {
		return Resolved{}, services.Wrap(services.ErrInvalidInput, "detections", "violence", "", err)
	}

	in := editplan.Inputs{
		Duration:      duration,
		Profanity:     cats.Profanity,
		Nudity:        cats.Nudity,
		SexualContent: cats.SexualContent,
		Violence:      violence,
	}
	if !f.Overrides.IsZero() {
		in, err = editplan.ApplyOverrides(in, f.Overrides)
		if err != nil {
			return Resolved{}, err
		}
	}
	return Resolved{Inputs: in, Detections: dets}, nil
}
