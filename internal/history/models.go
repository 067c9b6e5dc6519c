package history

import (
	"context"
	"errors"
	"time"

	"cleancut/internal/services"
)

// Status represents the outcome of a recorded run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusInvalid   Status = "invalid"
	StatusCanceled  Status = "canceled"
)

// StatusFor maps a run error to the status recorded for it. Bad input and
// configuration are invalid, cancellation is canceled, anything else failed.
func StatusFor(err error) Status {
	switch {
	case err == nil:
		return StatusSucceeded
	case errors.Is(err, services.ErrCanceled), errors.Is(err, context.Canceled):
		return StatusCanceled
	case errors.Is(err, services.ErrInvalidInput), errors.Is(err, services.ErrPlanning), errors.Is(err, services.ErrConfiguration):
		return StatusInvalid
	default:
		return StatusFailed
	}
}

// IsTerminal reports whether the status ends a run.
func (s Status) IsTerminal() bool {
	return s != StatusRunning && s != ""
}

// Run is one recorded plan or render invocation.
type Run struct {
	ID               int64   `json:"id"`
	RunID            string  `json:"run_id"`
	Command          string  `json:"command"`
	SourcePath       string  `json:"source_path,omitempty"`
	DestinationPath  string  `json:"destination_path,omitempty"`
	Quality          string  `json:"quality,omitempty"`
	Status           Status  `json:"status"`
	OriginalDuration float64 `json:"original_duration"`
	OutputDuration   float64 `json:"output_duration"`
	CutCount         int     `json:"cut_count"`
	EditCount        int     `json:"edit_count"`
	// Strategies is a comma separated list of per-unit render strategies.
	Strategies   string     `json:"strategies,omitempty"`
	PlanJSON     string     `json:"plan_json,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
}

// Elapsed returns the wall time of a finished run, or zero while running.
func (r Run) Elapsed() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Outcome carries the fields written when a run finishes.
type Outcome struct {
	Status           Status
	OriginalDuration float64
	OutputDuration   float64
	CutCount         int
	EditCount        int
	Strategies       string
	PlanJSON         string
	ErrorMessage     string
}

// Summary counts runs grouped by status.
type Summary struct {
	Total     int
	Running   int
	Succeeded int
	Failed    int
	Invalid   int
	Canceled  int
}
