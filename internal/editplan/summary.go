package editplan

import (
	"fmt"
	"strings"
)

// Summary condenses an EditPlan for logs and history records.
type Summary struct {
	OriginalDuration float64 `json:"original_duration"`
	OutputDuration   float64 `json:"output_duration"`
	CutDuration      float64 `json:"cut_duration"`
	KeepCount        int     `json:"keep_count"`
	CutCount         int     `json:"cut_count"`
	EditCount        int     `json:"edit_count"`
	Profanity        int     `json:"profanity"`
	Nudity           int     `json:"nudity"`
	SexualContent    int     `json:"sexual_content"`
	Violence         int     `json:"violence"`
}

// Summary reports the plan's counts and durations.
func (p EditPlan) Summary() Summary {
	return Summary{
		OriginalDuration: p.OriginalDuration,
		OutputDuration:   p.OutputDuration(),
		CutDuration:      p.CutDuration(),
		KeepCount:        len(p.KeepSegments),
		CutCount:         len(p.CutIntervals),
		EditCount:        len(p.AudioEdits),
		Profanity:        len(p.ProfanityIntervals),
		Nudity:           len(p.NudityIntervals),
		SexualContent:    len(p.SexualContentIntervals),
		Violence:         len(p.ViolenceIntervals),
	}
}

// RemovedPercent is the share of the original runtime that does not reach
// the output.
func (s Summary) RemovedPercent() float64 {
	if s.OriginalDuration <= 0 {
		return 0
	}
	return (s.OriginalDuration - s.OutputDuration) / s.OriginalDuration * 100
}

func (s Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%.3fs -> %.3fs (%.1f%% removed)", s.OriginalDuration, s.OutputDuration, s.RemovedPercent())
	fmt.Fprintf(&b, ", %d cut(s) totalling %.3fs", s.CutCount, s.CutDuration)
	fmt.Fprintf(&b, ", %d audio edit(s)", s.EditCount)
	fmt.Fprintf(&b, ", %d keep segment(s)", s.KeepCount)
	return b.String()
}
