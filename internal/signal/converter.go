package signal

import (
	"errors"
	"fmt"

	"wager-lab/internal/domain"
)

// Converter errors.
var (
	// ErrInvalidThreshold is returned when the decision threshold falls
	// outside [0.5, 1.0].
	ErrInvalidThreshold = errors.New("invalid signal threshold")

	// ErrInvalidParameter is returned for out-of-range ranking parameters.
	ErrInvalidParameter = errors.New("invalid signal parameter")
)

// Converter maps model probabilities to directional signals around a
// symmetric threshold. The threshold is fixed at construction.
type Converter struct {
	threshold float64
}

// NewConverter validates the threshold and builds a converter.
// Thresholds below 0.5 would make BUY and SELL zones overlap.
func NewConverter(threshold float64) (*Converter, error) {
	if threshold < 0.5 || threshold > 1.0 {
		return nil, fmt.Errorf("%w: %v, want [0.5, 1.0]", ErrInvalidThreshold, threshold)
	}
	return &Converter{threshold: threshold}, nil
}

// Threshold reports the configured decision threshold.
func (c *Converter) Threshold() float64 { return c.threshold }

// Convert maps an up-probability to a signal kind and confidence.
//
// probUp >= threshold yields BUY with confidence probUp;
// probUp <= 1-threshold yields SELL with confidence 1-probUp;
// everything between holds with confidence max(probUp, 1-probUp).
// At threshold exactly 0.5 every probability is actionable and HOLD
// never fires.
func (c *Converter) Convert(probUp float64) (domain.SignalKind, float64) {
	switch {
	case probUp >= c.threshold:
		return domain.SignalBuy, probUp
	case probUp <= 1-c.threshold:
		return domain.SignalSell, 1 - probUp
	default:
		conf := probUp
		if 1-probUp > conf {
			conf = 1 - probUp
		}
		return domain.SignalHold, conf
	}
}

// Signal builds a full signal record for an entity at a timestamp.
func (c *Converter) Signal(signalID, entityID string, timestampMs int64, probUp float64) domain.Signal {
	kind, conf := c.Convert(probUp)
	return domain.Signal{
		SignalID:    signalID,
		EntityID:    entityID,
		TimestampMs: timestampMs,
		Kind:        kind,
		Confidence:  conf,
		ProbUp:      probUp,
	}
}
