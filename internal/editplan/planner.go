package editplan

import (
	"errors"
	"fmt"
	"math"

	"cleancut/internal/interval"
	"cleancut/internal/services"
)

// ErrInvalidOptions reports negative gaps or minimums and unknown censor modes.
var ErrInvalidOptions = fmt.Errorf("%w: invalid planner options", services.ErrInvalidInput)

// Inputs are the per-category intervals for one asset, already filtered
// through the confidence merger.
type Inputs struct {
	Duration      float64
	Profanity     []interval.Interval
	Nudity        []interval.Interval
	SexualContent []interval.Interval
	Violence      []interval.Interval
}

// Options tune merging and fragment policies. All values are seconds.
type Options struct {
	ProfanityGap       float64
	NudityGap          float64
	CensorMode         EditType
	MinSegmentDuration float64
	MinCutDuration     float64
}

// DefaultOptions returns a tight profanity gap, a scene-sized visual gap and
// beep censoring.
func DefaultOptions() Options {
	return Options{
		ProfanityGap:       0.5,
		NudityGap:          2.0,
		CensorMode:         EditBeep,
		MinSegmentDuration: 0.5,
		MinCutDuration:     0.3,
	}
}

// Validate rejects negative or non-finite durations and unknown censor modes.
func (o Options) Validate() error {
	var errs []error
	for name, v := range map[string]float64{
		"profanity gap":        o.ProfanityGap,
		"nudity gap":           o.NudityGap,
		"min segment duration": o.MinSegmentDuration,
		"min cut duration":     o.MinCutDuration,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			errs = append(errs, fmt.Errorf("%s must be a non-negative number, got %v", name, v))
		}
	}
	if _, err := ParseEditType(string(o.CensorMode)); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}
	return nil
}

// Plan builds the EditPlan for in. Inputs are validated, clipped to the asset
// and never mutated.
func Plan(in Inputs, opts Options) (EditPlan, error) {
	if math.IsNaN(in.Duration) || math.IsInf(in.Duration, 0) || in.Duration <= 0 {
		return EditPlan{}, services.Wrap(services.ErrInvalidInput, "editplan", "plan", "",
			fmt.Errorf("%w: got %v", interval.ErrInvalidDuration, in.Duration))
	}
	if err := opts.Validate(); err != nil {
		return EditPlan{}, services.Wrap(services.ErrInvalidInput, "editplan", "plan", "", err)
	}
	for name, list := range map[string][]interval.Interval{
		"profanity":      in.Profanity,
		"nudity":         in.Nudity,
		"sexual content": in.SexualContent,
		"violence":       in.Violence,
	} {
		if err := interval.ValidateAll(list); err != nil {
			return EditPlan{}, services.Wrap(services.ErrInvalidInput, "editplan", "plan", name, err)
		}
	}
	censor, _ := ParseEditType(string(opts.CensorMode))

	clip := func(list []interval.Interval) []interval.Interval {
		return interval.Clip(list, 0, in.Duration)
	}
	// A zero-length word has nothing to silence.
	profanity := interval.Filter(
		interval.Merge(clip(in.Profanity), opts.ProfanityGap),
		func(iv interval.Interval) bool { return iv.Duration() > 0 },
	)
	nudity := interval.Merge(clip(in.Nudity), opts.NudityGap)
	sexual := interval.Merge(clip(in.SexualContent), opts.NudityGap)
	violence := interval.Merge(clip(in.Violence), opts.NudityGap)

	candidates := make([]interval.Interval, 0, len(nudity)+len(sexual)+len(violence))
	candidates = append(candidates, nudity...)
	candidates = append(candidates, sexual...)
	candidates = append(candidates, violence...)
	cuts := interval.Merge(candidates, opts.NudityGap)
	cuts = interval.Filter(cuts, interval.MinDuration(opts.MinCutDuration))

	keep, err := interval.KeepSegments(in.Duration, cuts, opts.MinSegmentDuration)
	if err != nil {
		return EditPlan{}, services.Wrap(services.ErrPlanning, "editplan", "keep segments", "", err)
	}

	edits := []AudioEdit{}
	for _, p := range profanity {
		for _, k := range keep {
			if !p.Overlaps(k) {
				continue
			}
			edits = append(edits, AudioEdit{
				Start:   max(p.Start, k.Start),
				End:     min(p.End, k.End),
				Type:    censor,
				Reasons: append([]interval.Reason(nil), p.Reasons...),
			})
			break
		}
	}

	return EditPlan{
		OriginalDuration:       in.Duration,
		KeepSegments:           nonNil(keep),
		CutIntervals:           nonNil(cuts),
		AudioEdits:             edits,
		ProfanityIntervals:     nonNil(profanity),
		NudityIntervals:        nonNil(nudity),
		SexualContentIntervals: nonNil(sexual),
		ViolenceIntervals:      nonNil(violence),
	}, nil
}

// AdjustEditsForCuts maps audio edits onto the output timeline: each edit
// moves earlier by the total duration of cuts ending at or before its start.
// The plan is not modified; without cuts the result is an equal deep copy.
func AdjustEditsForCuts(plan EditPlan) []AudioEdit {
	out := make([]AudioEdit, 0, len(plan.AudioEdits))
	for _, e := range plan.AudioEdits {
		removed := 0.0
		for _, c := range plan.CutIntervals {
			if c.End <= e.Start {
				removed += c.Duration()
			}
		}
		out = append(out, e.shifted(removed))
	}
	return out
}

// nonNil keeps empty lists encoding as [] rather than null.
func nonNil[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}
