package interval

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Category identifies which detector family produced a span.
type Category string

const (
	CategoryProfanity     Category = "profanity"
	CategoryNudity        Category = "nudity"
	CategorySexualContent Category = "sexual_content"
	CategoryViolence      Category = "violence"
	CategoryLLMContext    Category = "llm_context"
	CategoryManual        Category = "manual"
)

var titleCaser = cases.Title(language.English)

// DisplayName renders the category for humans, e.g. "Sexual Content".
func (c Category) DisplayName() string {
	return titleCaser.String(strings.ReplaceAll(string(c), "_", " "))
}

// Reason records why a span exists. Score is the detector confidence when known.
type Reason struct {
	Category Category `json:"category" yaml:"category"`
	Label    string   `json:"label,omitempty" yaml:"label,omitempty"`
	Score    float64  `json:"score,omitempty" yaml:"score,omitempty"`
}

// Describe renders the reason for display, e.g. "Nudity: exposed_breast (0.91)".
func (r Reason) Describe() string {
	var b strings.Builder
	b.WriteString(r.Category.DisplayName())
	if label := strings.TrimSpace(r.Label); label != "" {
		b.WriteString(": ")
		b.WriteString(label)
	}
	if r.Score > 0 {
		fmt.Fprintf(&b, " (%.2f)", r.Score)
	}
	return b.String()
}

// unionReasons appends reasons from b not already present in a, keeping first-appearance order.
func unionReasons(a, b []Reason) []Reason {
	if len(b) == 0 {
		return a
	}
	out := a
	for _, r := range b {
		seen := false
		for _, existing := range out {
			if existing == r {
				seen = true
				break
			}
		}
		if !seen {
			out = append(out, r)
		}
	}
	return out
}
