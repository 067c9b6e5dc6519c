package interval

import (
	"fmt"
	"math"
	"slices"
)

// Sorted returns a copy of intervals ordered by start, then end.
func Sorted(intervals []Interval) []Interval {
	out := clone(intervals)
	slices.SortStableFunc(out, func(a, b Interval) int {
		if a.Start != b.Start {
			if a.Start < b.Start {
				return -1
			}
			return 1
		}
		switch {
		case a.End < b.End:
			return -1
		case a.End > b.End:
			return 1
		}
		return 0
	})
	return out
}

// Merge coalesces intervals whose start is within gap of the running end of
// the previous group. The result is sorted and every adjacent pair satisfies
// next.Start > cur.End + gap. Reasons are unioned. A negative gap is treated as 0.
func Merge(intervals []Interval, gap float64) []Interval {
	if len(intervals) == 0 {
		return nil
	}
	if gap < 0 || math.IsNaN(gap) {
		gap = 0
	}
	sorted := Sorted(intervals)

	merged := make([]Interval, 0, len(sorted))
	open := sorted[0]
	for _, next := range sorted[1:] {
		if next.Start <= open.End+gap {
			open.End = math.Max(open.End, next.End)
			open.Reasons = unionReasons(open.Reasons, next.Reasons)
			continue
		}
		merged = append(merged, open)
		open = next
	}
	return append(merged, open)
}

// KeepSegments returns the complement of cuts within [0, duration], dropping
// gaps shorter than minSegment. Cuts must already be sorted and disjoint
// (touching is allowed); they are clamped to the asset bounds.
func KeepSegments(duration float64, cuts []Interval, minSegment float64) ([]Interval, error) {
	if !finite(duration) || duration <= 0 {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidDuration, duration)
	}
	for i, cut := range cuts {
		if err := cut.Validate(); err != nil {
			return nil, fmt.Errorf("cut %d: %w", i, err)
		}
		if i > 0 && cut.Start < cuts[i-1].End {
			return nil, fmt.Errorf("%w: cut %d %s starts before cut %d %s ends",
				ErrUnsortedCuts, i, cut, i-1, cuts[i-1])
		}
	}

	var keep []Interval
	emit := func(start, end float64) {
		if end > start && end-start >= minSegment {
			keep = append(keep, Interval{Start: start, End: end})
		}
	}

	cursor := 0.0
	for _, cut := range cuts {
		start := clamp(cut.Start, 0, duration)
		end := clamp(cut.End, 0, duration)
		if start > cursor {
			emit(cursor, start)
		}
		cursor = math.Max(cursor, end)
	}
	if duration > cursor {
		emit(cursor, duration)
	}
	return keep, nil
}

// Filter returns the intervals for which keep returns true.
func Filter(intervals []Interval, keep func(Interval) bool) []Interval {
	var out []Interval
	for _, iv := range intervals {
		if keep(iv) {
			out = append(out, iv.WithBounds(iv.Start, iv.End))
		}
	}
	return out
}

// MinDuration is a Filter predicate keeping intervals at least d long.
func MinDuration(d float64) func(Interval) bool {
	return func(iv Interval) bool {
		return iv.Duration() >= d
	}
}

// Clip bounds every interval to [lo, hi]. Intervals that lose all of their
// extent are dropped; zero-length intervals inside the range survive.
func Clip(intervals []Interval, lo, hi float64) []Interval {
	var out []Interval
	for _, iv := range intervals {
		start := math.Max(iv.Start, lo)
		end := math.Min(iv.End, hi)
		if end < start {
			continue
		}
		if end == start && iv.End > iv.Start {
			continue
		}
		out = append(out, iv.WithBounds(start, end))
	}
	return out
}

// TotalDuration sums interval durations.
func TotalDuration(intervals []Interval) float64 {
	total := 0.0
	for _, iv := range intervals {
		total += iv.Duration()
	}
	return total
}

func clone(intervals []Interval) []Interval {
	if intervals == nil {
		return nil
	}
	out := make([]Interval, len(intervals))
	for i, iv := range intervals {
		out[i] = iv.WithBounds(iv.Start, iv.End)
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
