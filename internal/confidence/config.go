package confidence

import (
	"errors"
	"fmt"
	"math"

	"cleancut/internal/services"
)

// Aggregation selects how repeated signals from one detector inside a cluster combine.
type Aggregation string

const (
	// AggregateMax keeps the strongest confidence seen for the detector.
	AggregateMax Aggregation = "max"
	// AggregateLast keeps the confidence of the latest-starting signal.
	AggregateLast Aggregation = "last"
)

// Config holds the fusion weights and thresholds.
type Config struct {
	Weights               map[Detector]float64
	Floors                map[Detector]float64
	SingleSignalThreshold float64
	MultiSignalThreshold  float64
	AgreementBoost        float64
	RequireMultiSignal    bool
	Aggregation           Aggregation
	TimeTolerance         float64
}

// DefaultConfig returns the stock weights: full weight for profanity and
// nudity, reduced weight for dialog-derived signals, and a 0.5 nudity floor.
func DefaultConfig() Config {
	return Config{
		Weights: map[Detector]float64{
			DetectorProfanity:     1.0,
			DetectorNudity:        1.0,
			DetectorSexualContent: 0.8,
			DetectorLLMContext:    0.6,
		},
		Floors: map[Detector]float64{
			DetectorNudity:        0.5,
			DetectorSexualContent: 0.3,
			DetectorLLMContext:    0.3,
		},
		SingleSignalThreshold: 0.85,
		MultiSignalThreshold:  0.6,
		AgreementBoost:        0.2,
		Aggregation:           AggregateMax,
		TimeTolerance:         1.0,
	}
}

// Validate checks weights, floors and thresholds.
func (c Config) Validate() error {
	var errs []error
	for d, w := range c.Weights {
		if math.IsNaN(w) || w < 0 {
			errs = append(errs, fmt.Errorf("weight for %s must be >= 0", d))
		}
	}
	for d, f := range c.Floors {
		if math.IsNaN(f) || f < 0 || f > 1 {
			errs = append(errs, fmt.Errorf("floor for %s must be within [0, 1]", d))
		}
	}
	if c.SingleSignalThreshold < 0 || c.MultiSignalThreshold < 0 {
		errs = append(errs, errors.New("thresholds must be >= 0"))
	}
	if c.AgreementBoost < 0 {
		errs = append(errs, errors.New("agreement boost must be >= 0"))
	}
	if c.TimeTolerance < 0 {
		errs = append(errs, errors.New("time tolerance must be >= 0"))
	}
	switch c.Aggregation {
	case AggregateMax, AggregateLast, "":
	default:
		errs = append(errs, fmt.Errorf("unknown aggregation %q", c.Aggregation))
	}
	if err := errors.Join(errs...); err != nil {
		return services.Wrap(services.ErrConfiguration, "confidence", "validate", "", err)
	}
	return nil
}

func (c Config) weight(d Detector) float64 {
	if w, ok := c.Weights[d]; ok {
		return w
	}
	return 1.0
}

func (c Config) floor(d Detector) float64 {
	return c.Floors[d]
}
