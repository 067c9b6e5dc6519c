package confidence

import (
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"

	"cleancut/internal/logging"
	"cleancut/internal/services"
)

// Decision is the verdict for one set of per-detector confidences.
type Decision struct {
	Censor    bool
	Score     float64
	Threshold float64
	// Detectors lists the detector types that cleared their floor, in scoring order.
	Detectors []Detector
	Reason    string
}

// Detection is a cluster of signals with its verdict.
type Detection struct {
	Start        float64  `json:"start"`
	End          float64  `json:"end"`
	ShouldCensor bool     `json:"should_censor"`
	TotalScore   float64  `json:"total_score"`
	Confidence   float64  `json:"confidence"`
	Signals      []Signal `json:"signals"`
	Reason       string   `json:"reason"`
	// Firing lists the detector types that counted toward the score.
	Firing []Detector `json:"firing,omitempty"`
}

// Merger scores and clusters signals with a fixed Config.
type Merger struct {
	cfg    Config
	logger *slog.Logger
}

// NewMerger validates cfg. A nil logger discards output.
func NewMerger(cfg Config, logger *slog.Logger) (*Merger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Aggregation == "" {
		cfg.Aggregation = AggregateMax
	}
	return &Merger{cfg: cfg, logger: logging.NewComponentLogger(logger, "confidence")}, nil
}

// Config returns the merger configuration.
func (m *Merger) Config() Config {
	return m.cfg
}

// ShouldCensor scores one confidence per detector type. Only detectors whose
// confidence is strictly above their floor contribute weight*confidence. Two
// or more contributing types add the agreement boost and use the multi-signal
// threshold; otherwise the single-signal threshold applies. In strict mode a
// single contributing type never censors.
func (m *Merger) ShouldCensor(scores map[Detector]float64) Decision {
	var (
		score  float64
		firing []Detector
		terms  []string
	)
	for _, d := range Detectors {
		conf, ok := scores[d]
		if !ok || conf <= m.cfg.floor(d) {
			continue
		}
		w := m.cfg.weight(d)
		score += w * conf
		firing = append(firing, d)
		terms = append(terms, fmt.Sprintf("%s %.2fx%.2f", d, conf, w))
	}

	decision := Decision{Detectors: firing}
	rule := "single-signal"
	decision.Threshold = m.cfg.SingleSignalThreshold
	if len(firing) >= 2 {
		score += m.cfg.AgreementBoost
		terms = append(terms, fmt.Sprintf("agreement boost %.2f", m.cfg.AgreementBoost))
		rule = "multi-signal"
		decision.Threshold = m.cfg.MultiSignalThreshold
	}
	decision.Score = score

	switch {
	case len(firing) == 0:
		decision.Reason = "no detector above its floor"
	case m.cfg.RequireMultiSignal && len(firing) < 2:
		decision.Reason = fmt.Sprintf("%s = %.2f; multi-signal agreement required, only %s fired",
			strings.Join(terms, " + "), score, firing[0])
	default:
		decision.Censor = score >= decision.Threshold
		cmp := "<"
		if decision.Censor {
			cmp = ">="
		}
		decision.Reason = fmt.Sprintf("%s = %.2f %s %s threshold %.2f",
			strings.Join(terms, " + "), score, cmp, rule, decision.Threshold)
	}
	return decision
}

// MergeOverlapping clusters signals and scores each cluster. A signal joins
// the open cluster when its start is within tolerance of the cluster's running
// maximum end. Repeated signals from one detector reduce per the configured
// Aggregation. Output is ordered by start.
func (m *Merger) MergeOverlapping(signals []Signal, tolerance float64) ([]Detection, error) {
	for i, s := range signals {
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("signal %d: %w", i, err)
		}
	}
	if math.IsNaN(tolerance) || tolerance < 0 {
		return nil, fmt.Errorf("%w: tolerance must be >= 0", services.ErrInvalidInput)
	}
	if len(signals) == 0 {
		return nil, nil
	}

	sorted := slices.Clone(signals)
	for i := range sorted {
		sorted[i].Detector, _ = ParseDetector(string(sorted[i].Detector))
	}
	slices.SortStableFunc(sorted, func(a, b Signal) int {
		switch {
		case a.Start < b.Start:
			return -1
		case a.Start > b.Start:
			return 1
		}
		return 0
	})

	var detections []Detection
	cluster := []Signal{sorted[0]}
	runningEnd := sorted[0].End
	for _, s := range sorted[1:] {
		if s.Start <= runningEnd+tolerance {
			cluster = append(cluster, s)
			runningEnd = math.Max(runningEnd, s.End)
			continue
		}
		detections = append(detections, m.score(cluster, runningEnd))
		cluster = []Signal{s}
		runningEnd = s.End
	}
	detections = append(detections, m.score(cluster, runningEnd))
	return detections, nil
}

func (m *Merger) score(cluster []Signal, end float64) Detection {
	scores := m.reduce(cluster)
	decision := m.ShouldCensor(scores)
	det := Detection{
		Start:        cluster[0].Start,
		End:          end,
		ShouldCensor: decision.Censor,
		TotalScore:   decision.Score,
		Confidence:   math.Min(1, decision.Score),
		Signals:      cluster,
		Reason:       decision.Reason,
		Firing:       decision.Detectors,
	}
	result := "keep"
	if det.ShouldCensor {
		result = "censor"
	}
	m.logger.Debug("detection scored", logging.Args(append(
		logging.DecisionAttrs("censor_verdict", result, decision.Reason),
		logging.Span("span", det.Start, det.End),
		logging.Int("signals", len(cluster)),
	)...)...)
	return det
}

func (m *Merger) reduce(cluster []Signal) map[Detector]float64 {
	scores := make(map[Detector]float64, len(Detectors))
	for _, s := range cluster {
		prev, seen := scores[s.Detector]
		if seen && m.cfg.Aggregation == AggregateMax {
			scores[s.Detector] = math.Max(prev, s.Confidence)
			continue
		}
		scores[s.Detector] = s.Confidence
	}
	return scores
}
