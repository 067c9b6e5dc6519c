package keyframe

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"

	"cleancut/internal/media/ffprobe"
	"cleancut/internal/services"
)

// Mode selects which side of a timestamp Snap may move to.
type Mode string

const (
	Nearest Mode = "nearest"
	Before  Mode = "before"
	After   Mode = "after"
)

// ParseMode accepts nearest, before or after in any case.
func ParseMode(value string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(value))) {
	case Nearest:
		return Nearest, nil
	case Before:
		return Before, nil
	case After:
		return After, nil
	}
	return "", fmt.Errorf("%w: unknown snap mode %q", services.ErrInvalidInput, value)
}

// Snap moves t onto a keyframe. Before picks the last keyframe at or before
// t, After the first at or after t, and Nearest whichever is closer (earlier
// on ties). The candidate must lie within tolerance of t; a negative
// tolerance means unbounded. When no keyframe qualifies Snap returns t and
// false. Keyframes need not be sorted.
func Snap(t float64, keyframes []float64, mode Mode, tolerance float64) (float64, bool) {
	sorted := sortedCopy(keyframes)
	if len(sorted) == 0 {
		return t, false
	}
	if tolerance < 0 {
		tolerance = math.Inf(1)
	}

	idx, exact := slices.BinarySearch(sorted, t)
	if exact {
		return t, true
	}
	before, hasBefore := 0.0, idx > 0
	if hasBefore {
		before = sorted[idx-1]
	}
	after, hasAfter := 0.0, idx < len(sorted)
	if hasAfter {
		after = sorted[idx]
	}

	var candidate float64
	switch mode {
	case Before:
		if !hasBefore {
			return t, false
		}
		candidate = before
	case After:
		if !hasAfter {
			return t, false
		}
		candidate = after
	default:
		switch {
		case hasBefore && hasAfter:
			candidate = before
			if after-t < t-before {
				candidate = after
			}
		case hasBefore:
			candidate = before
		default:
			candidate = after
		}
	}
	if math.Abs(candidate-t) > tolerance {
		return t, false
	}
	return candidate, true
}

// FindInterval returns the widest keyframe-aligned range inside [start, end]:
// the first keyframe at or after start through the last keyframe at or
// before end. It reports false when fewer than two distinct keyframes fall
// inside the span.
func FindInterval(start, end float64, keyframes []float64) (float64, float64, bool) {
	if end < start {
		return start, end, false
	}
	sorted := sortedCopy(keyframes)
	lo, _ := slices.BinarySearch(sorted, start)
	hi, found := slices.BinarySearch(sorted, end)
	if found {
		hi++
	}
	if hi-lo < 2 {
		return start, end, false
	}
	first, last := sorted[lo], sorted[hi-1]
	if last <= first {
		return start, end, false
	}
	return first, last, true
}

// FirstWithin returns the first keyframe in [start, end).
func FirstWithin(start, end float64, keyframes []float64) (float64, bool) {
	sorted := sortedCopy(keyframes)
	idx, _ := slices.BinarySearch(sorted, start)
	if idx < len(sorted) && sorted[idx] < end {
		return sorted[idx], true
	}
	return 0, false
}

// Probe returns the sorted keyframe timestamps of the first video stream.
func Probe(ctx context.Context, ffprobeBinary, path string) ([]float64, error) {
	frames, err := ffprobe.Keyframes(ctx, ffprobeBinary, path)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "keyframe", "probe", path, err)
	}
	return frames, nil
}

func sortedCopy(values []float64) []float64 {
	out := slices.Clone(values)
	out = slices.DeleteFunc(out, func(v float64) bool { return math.IsNaN(v) })
	slices.Sort(out)
	return slices.Compact(out)
}
