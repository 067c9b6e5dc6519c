package editplan

import (
	"fmt"
	"strings"

	"cleancut/internal/interval"
	"cleancut/internal/services"
)

// EditType selects how an audio edit alters the span.
type EditType string

const (
	EditMute EditType = "mute"
	// EditBeep is rendered as silence; no tone is mixed in.
	EditBeep EditType = "beep"
)

// ParseEditType accepts "mute" or "beep" in any case.
func ParseEditType(value string) (EditType, error) {
	switch EditType(strings.ToLower(strings.TrimSpace(value))) {
	case EditMute:
		return EditMute, nil
	case EditBeep:
		return EditBeep, nil
	}
	return "", fmt.Errorf("%w: unknown censor mode %q", services.ErrInvalidInput, value)
}

// AudioEdit alters audio over a span that remains in the output.
type AudioEdit struct {
	Start   float64           `json:"start"`
	End     float64           `json:"end"`
	Type    EditType          `json:"type"`
	Reasons []interval.Reason `json:"reasons,omitempty"`
}

// Duration returns End - Start.
func (e AudioEdit) Duration() float64 {
	return e.End - e.Start
}

func (e AudioEdit) shifted(delta float64) AudioEdit {
	return AudioEdit{
		Start:   e.Start - delta,
		End:     e.End - delta,
		Type:    e.Type,
		Reasons: append([]interval.Reason(nil), e.Reasons...),
	}
}

// EditPlan is the unified result of planning. CutIntervals are sorted,
// disjoint and further apart than the visual merge gap. KeepSegments are the
// complement of the cuts within [0, OriginalDuration] minus short fragments.
// The per-category lists are retained for reporting only.
type EditPlan struct {
	OriginalDuration       float64             `json:"original_duration"`
	KeepSegments           []interval.Interval `json:"keep_segments"`
	CutIntervals           []interval.Interval `json:"cut_intervals"`
	AudioEdits             []AudioEdit         `json:"audio_edits"`
	ProfanityIntervals     []interval.Interval `json:"profanity_intervals"`
	NudityIntervals        []interval.Interval `json:"nudity_intervals"`
	SexualContentIntervals []interval.Interval `json:"sexual_content_intervals"`
	ViolenceIntervals      []interval.Interval `json:"violence_intervals"`
}

// OutputDuration is the total length of the keep segments.
func (p EditPlan) OutputDuration() float64 {
	return interval.TotalDuration(p.KeepSegments)
}

// CutDuration is the total length of the cut intervals.
func (p EditPlan) CutDuration() float64 {
	return interval.TotalDuration(p.CutIntervals)
}

// HasCuts reports whether any video is removed.
func (p EditPlan) HasCuts() bool {
	return len(p.CutIntervals) > 0
}

// IsNoop reports whether rendering the plan reproduces the source unchanged.
func (p EditPlan) IsNoop() bool {
	return len(p.CutIntervals) == 0 && len(p.AudioEdits) == 0
}

// SegmentEdits returns the audio edits overlapping seg, clipped to it and
// expressed in segment-local time.
func (p EditPlan) SegmentEdits(seg interval.Interval) []AudioEdit {
	var out []AudioEdit
	for _, e := range p.AudioEdits {
		start := max(e.Start, seg.Start)
		end := min(e.End, seg.End)
		if end <= start {
			continue
		}
		clipped := AudioEdit{Start: start, End: end, Type: e.Type, Reasons: e.Reasons}
		out = append(out, clipped.shifted(seg.Start))
	}
	return out
}
