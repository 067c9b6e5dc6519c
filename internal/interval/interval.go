package interval

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"cleancut/internal/services"
)

var (
	// ErrInvalidInterval reports an interval with End < Start or non-finite bounds.
	ErrInvalidInterval = fmt.Errorf("%w: malformed interval", services.ErrInvalidInput)
	// ErrInvalidDuration reports a non-positive or non-finite asset duration.
	ErrInvalidDuration = fmt.Errorf("%w: asset duration must be positive", services.ErrInvalidInput)
	// ErrUnsortedCuts reports cut intervals that overlap or are out of order.
	ErrUnsortedCuts = fmt.Errorf("%w: cut intervals must be sorted and disjoint", services.ErrPlanning)
)

// Interval is a time span in seconds. The zero value is the empty span at 0.
type Interval struct {
	Start   float64  `json:"start" yaml:"start"`
	End     float64  `json:"end" yaml:"end"`
	Reasons []Reason `json:"reasons,omitempty" yaml:"reasons,omitempty"`
}

// New validates bounds and returns an interval owning a copy of reasons.
func New(start, end float64, reasons ...Reason) (Interval, error) {
	iv := Interval{Start: start, End: end, Reasons: append([]Reason(nil), reasons...)}
	if err := iv.Validate(); err != nil {
		return Interval{}, err
	}
	return iv, nil
}

// MustNew is New for literals known to be valid.
func MustNew(start, end float64, reasons ...Reason) Interval {
	iv, err := New(start, end, reasons...)
	if err != nil {
		panic(err)
	}
	return iv
}

// Validate rejects negative starts, inverted bounds and NaN or infinite values.
func (iv Interval) Validate() error {
	switch {
	case !finite(iv.Start) || !finite(iv.End):
		return fmt.Errorf("%w: non-finite bounds [%v, %v]", ErrInvalidInterval, iv.Start, iv.End)
	case iv.Start < 0:
		return fmt.Errorf("%w: negative start %.3f", ErrInvalidInterval, iv.Start)
	case iv.End < iv.Start:
		return fmt.Errorf("%w: end %.3f before start %.3f", ErrInvalidInterval, iv.End, iv.Start)
	}
	return nil
}

// Duration returns End - Start.
func (iv Interval) Duration() float64 {
	return iv.End - iv.Start
}

// Overlaps reports whether the open interiors of the two spans intersect.
// A zero-length span has no interior and overlaps nothing.
func (iv Interval) Overlaps(other Interval) bool {
	if iv.End <= iv.Start || other.End <= other.Start {
		return false
	}
	return iv.Start < other.End && iv.End > other.Start
}

// Contains reports whether t lies within [Start, End].
func (iv Interval) Contains(t float64) bool {
	return t >= iv.Start && t <= iv.End
}

// WithBounds returns a copy of iv with new bounds and its own reason slice.
func (iv Interval) WithBounds(start, end float64) Interval {
	return Interval{Start: start, End: end, Reasons: append([]Reason(nil), iv.Reasons...)}
}

// Describe joins the reason descriptions for display.
func (iv Interval) Describe() string {
	parts := make([]string, 0, len(iv.Reasons))
	for _, r := range iv.Reasons {
		parts = append(parts, r.Describe())
	}
	return strings.Join(parts, "; ")
}

func (iv Interval) String() string {
	return fmt.Sprintf("[%.3f, %.3f]", iv.Start, iv.End)
}

// ValidateAll returns the first invalid interval in the list, annotated with its index.
func ValidateAll(intervals []Interval) error {
	var errs []error
	for i, iv := range intervals {
		if err := iv.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("interval %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
