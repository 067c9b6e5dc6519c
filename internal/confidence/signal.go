package confidence

import (
	"fmt"
	"math"
	"strings"

	"cleancut/internal/interval"
	"cleancut/internal/services"
)

// Detector identifies the producer of a signal.
type Detector string

const (
	DetectorProfanity     Detector = "profanity"
	DetectorNudity        Detector = "nudity"
	DetectorSexualContent Detector = "sexual_content"
	DetectorLLMContext    Detector = "llm_context"
)

// Detectors lists every detector in scoring order.
var Detectors = []Detector{DetectorProfanity, DetectorNudity, DetectorSexualContent, DetectorLLMContext}

// ParseDetector accepts the canonical names plus a few spellings detectors emit.
func ParseDetector(value string) (Detector, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	normalized = strings.NewReplacer("-", "_", " ", "_").Replace(normalized)
	switch normalized {
	case "profanity", "speech":
		return DetectorProfanity, nil
	case "nudity", "visual":
		return DetectorNudity, nil
	case "sexual_content", "sexual":
		return DetectorSexualContent, nil
	case "llm_context", "llm":
		return DetectorLLMContext, nil
	}
	return "", fmt.Errorf("%w: unknown detector %q", services.ErrInvalidInput, value)
}

// Category maps a detector to the interval category it reports.
func (d Detector) Category() interval.Category {
	switch d {
	case DetectorProfanity:
		return interval.CategoryProfanity
	case DetectorNudity:
		return interval.CategoryNudity
	case DetectorSexualContent:
		return interval.CategorySexualContent
	default:
		return interval.CategoryLLMContext
	}
}

// Signal is one raw detector output. Confidence is in [0, 1].
type Signal struct {
	Detector   Detector `json:"detector" yaml:"detector"`
	Start      float64  `json:"start" yaml:"start"`
	End        float64  `json:"end" yaml:"end"`
	Confidence float64  `json:"confidence" yaml:"confidence"`
	Label      string   `json:"label,omitempty" yaml:"label,omitempty"`
}

// Validate rejects unknown detectors, malformed spans and out-of-range confidences.
func (s Signal) Validate() error {
	if _, err := ParseDetector(string(s.Detector)); err != nil {
		return err
	}
	if err := (interval.Interval{Start: s.Start, End: s.End}).Validate(); err != nil {
		return err
	}
	if math.IsNaN(s.Confidence) || s.Confidence < 0 || s.Confidence > 1 {
		return fmt.Errorf("%w: confidence %v outside [0, 1]", services.ErrInvalidInput, s.Confidence)
	}
	return nil
}

func (s Signal) reason() interval.Reason {
	return interval.Reason{Category: s.Detector.Category(), Label: s.Label, Score: s.Confidence}
}
