package editplan

import (
	"fmt"
	"math"

	"cleancut/internal/interval"
	"cleancut/internal/services"
)

// matchTolerance is how close an adjustment's bounds must be to a detected
// interval to select it.
const matchTolerance = 1e-3

// Adjustment nudges one detected interval. Start and End identify the
// interval as it appears in the detections; the deltas are added to its
// bounds.
type Adjustment struct {
	Category   interval.Category `json:"category" yaml:"category"`
	Start      float64           `json:"start" yaml:"start"`
	End        float64           `json:"end" yaml:"end"`
	StartDelta float64           `json:"start_delta" yaml:"start_delta"`
	EndDelta   float64           `json:"end_delta" yaml:"end_delta"`
}

// Overrides are reviewer corrections applied before planning. Handled
// ranges are removed from every category, typically because the source was
// already edited there.
type Overrides struct {
	Handled []interval.Interval `json:"handled,omitempty" yaml:"handled,omitempty"`
	Adjust  []Adjustment        `json:"adjust,omitempty" yaml:"adjust,omitempty"`
}

// IsZero reports whether no override is present.
func (o Overrides) IsZero() bool {
	return len(o.Handled) == 0 && len(o.Adjust) == 0
}

// ApplyOverrides returns a copy of in with adjustments applied first and
// handled ranges excluded second. An adjustment that matches no interval in
// its category is an error.
func ApplyOverrides(in Inputs, ov Overrides) (Inputs, error) {
	if err := interval.ValidateAll(ov.Handled); err != nil {
		return Inputs{}, services.Wrap(services.ErrInvalidInput, "editplan", "overrides", "handled", err)
	}

	out := Inputs{
		Duration:      in.Duration,
		Profanity:     cloneIntervals(in.Profanity),
		Nudity:        cloneIntervals(in.Nudity),
		SexualContent: cloneIntervals(in.SexualContent),
		Violence:      cloneIntervals(in.Violence),
	}

	for _, adj := range ov.Adjust {
		list, err := out.category(adj.Category)
		if err != nil {
			return Inputs{}, err
		}
		matched := false
		for i, iv := range *list {
			if !near(iv.Start, adj.Start) || !near(iv.End, adj.End) {
				continue
			}
			adjusted := interval.Adjust(iv, adj.StartDelta, adj.EndDelta)
			adjusted.Reasons = append(adjusted.Reasons, interval.Reason{
				Category: interval.CategoryManual,
				Label:    fmt.Sprintf("adjusted %+.3fs/%+.3fs", adj.StartDelta, adj.EndDelta),
			})
			(*list)[i] = adjusted
			matched = true
		}
		if !matched {
			return Inputs{}, fmt.Errorf("%w: no %s interval at [%.3f, %.3f] to adjust",
				services.ErrInvalidInput, adj.Category, adj.Start, adj.End)
		}
	}

	if len(ov.Handled) > 0 {
		out.Profanity = interval.Exclude(out.Profanity, ov.Handled)
		out.Nudity = interval.Exclude(out.Nudity, ov.Handled)
		out.SexualContent = interval.Exclude(out.SexualContent, ov.Handled)
		out.Violence = interval.Exclude(out.Violence, ov.Handled)
	}
	return out, nil
}

func (in *Inputs) category(c interval.Category) (*[]interval.Interval, error) {
	switch c {
	case interval.CategoryProfanity:
		return &in.Profanity, nil
	case interval.CategoryNudity:
		return &in.Nudity, nil
	case interval.CategorySexualContent:
		return &in.SexualContent, nil
	case interval.CategoryViolence:
		return &in.Violence, nil
	}
	return nil, fmt.Errorf("%w: category %q cannot be adjusted", services.ErrInvalidInput, c)
}

func near(a, b float64) bool {
	return math.Abs(a-b) <= matchTolerance
}

func cloneIntervals(list []interval.Interval) []interval.Interval {
	if list == nil {
		return nil
	}
	out := make([]interval.Interval, len(list))
	for i, iv := range list {
		out[i] = iv.WithBounds(iv.Start, iv.End)
	}
	return out
}
