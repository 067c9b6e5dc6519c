package interval

import "math"

// Adjust returns a copy of iv with startDelta added to Start and endDelta to
// End. Start never goes below zero, and when the adjusted end would precede
// the adjusted start the result collapses to a zero-length span at the start.
func Adjust(iv Interval, startDelta, endDelta float64) Interval {
	start := math.Max(0, iv.Start+startDelta)
	end := iv.End + endDelta
	if end < start {
		end = start
	}
	return iv.WithBounds(start, end)
}

// Exclude removes every handled range from intervals, splitting spans that
// straddle a handled range. Zero-length handled ranges are ignored and
// zero-length results are dropped unless the input itself was a point outside
// every handled range.
func Exclude(intervals, handled []Interval) []Interval {
	ranges := Merge(Filter(handled, func(iv Interval) bool { return iv.Duration() > 0 }), 0)

	var out []Interval
	for _, iv := range intervals {
		if iv.Duration() == 0 {
			if !coveredPoint(iv.Start, ranges) {
				out = append(out, iv.WithBounds(iv.Start, iv.End))
			}
			continue
		}
		pieces := []Interval{iv.WithBounds(iv.Start, iv.End)}
		for _, h := range ranges {
			pieces = subtract(pieces, h)
		}
		out = append(out, pieces...)
	}
	return out
}

func subtract(pieces []Interval, h Interval) []Interval {
	var out []Interval
	for _, p := range pieces {
		if !p.Overlaps(h) {
			out = append(out, p)
			continue
		}
		if p.Start < h.Start {
			out = append(out, p.WithBounds(p.Start, h.Start))
		}
		if p.End > h.End {
			out = append(out, p.WithBounds(h.End, p.End))
		}
	}
	return out
}

func coveredPoint(t float64, ranges []Interval) bool {
	for _, h := range ranges {
		if h.Contains(t) {
			return true
		}
	}
	return false
}
