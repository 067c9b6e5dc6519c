package confidence

import (
	"math"

	"cleancut/internal/interval"
)

// Categories are the per-category interval lists the edit planner consumes.
type Categories struct {
	Profanity     []interval.Interval
	Nudity        []interval.Interval
	SexualContent []interval.Interval
}

// Categorize maps censored detections into category lists. Each firing
// detector contributes the span of its own signals within the cluster, so a
// profanity word inside a long nudity scene stays word-sized. Dialog-context
// signals are corroboration only, except when they are the sole firing
// detector, in which case their span is reported as sexual content.
// Detections that were not censored are dropped.
func (m *Merger) Categorize(detections []Detection) Categories {
	var out Categories
	for _, det := range detections {
		if !det.ShouldCensor {
			continue
		}
		llmOnly := len(det.Firing) == 1 && det.Firing[0] == DetectorLLMContext
		for _, d := range det.Firing {
			span, ok := m.spanOf(det.Signals, d)
			if !ok {
				continue
			}
			switch d {
			case DetectorProfanity:
				out.Profanity = append(out.Profanity, span)
			case DetectorNudity:
				out.Nudity = append(out.Nudity, span)
			case DetectorSexualContent:
				out.SexualContent = append(out.SexualContent, span)
			case DetectorLLMContext:
				if llmOnly {
					out.SexualContent = append(out.SexualContent, span)
				}
			}
		}
	}
	return out
}

// spanOf covers the signals of detector d that cleared its floor.
func (m *Merger) spanOf(signals []Signal, d Detector) (interval.Interval, bool) {
	var (
		span  interval.Interval
		found bool
	)
	for _, s := range signals {
		if s.Detector != d || s.Confidence <= m.cfg.floor(d) {
			continue
		}
		if !found {
			span = interval.Interval{Start: s.Start, End: s.End}
			found = true
		} else {
			span.Start = math.Min(span.Start, s.Start)
			span.End = math.Max(span.End, s.End)
		}
		span.Reasons = append(span.Reasons, s.reason())
	}
	return span, found
}
