package stake

import (
	"fmt"

	"wager-lab/internal/domain"
)

// Kelly sizes positions as a configured fraction of the full Kelly
// criterion, capped at a maximum ratio of the balance.
type Kelly struct {
	fraction float64 // applied fraction of full Kelly, (0, 1]
	maxRatio float64 // hard cap on the balance ratio, (0, 1]
	minStake float64
	unit     float64
}

// NewKelly validates parameters and builds the sizer. fraction scales the
// full Kelly ratio down (0.25 is a common choice); maxRatio caps the final
// ratio regardless of how favorable the edge looks.
func NewKelly(fraction, maxRatio, minStake, unit float64) (*Kelly, error) {
	if fraction <= 0 || fraction > 1 {
		return nil, fmt.Errorf("%w: kelly_fraction %v, want (0, 1]", ErrInvalidParameter, fraction)
	}
	if maxRatio <= 0 || maxRatio > 1 {
		return nil, fmt.Errorf("%w: max_ratio %v, want (0, 1]", ErrInvalidParameter, maxRatio)
	}
	if minStake < 0 {
		return nil, fmt.Errorf("%w: min_stake %v, want >= 0", ErrInvalidParameter, minStake)
	}
	if unit < 0 {
		return nil, fmt.Errorf("%w: unit %v, want >= 0", ErrInvalidParameter, unit)
	}
	return &Kelly{fraction: fraction, maxRatio: maxRatio, minStake: minStake, unit: unit}, nil
}

// FullKelly computes the unfractioned Kelly ratio f* = (b*p - (1-p)) / b
// for win probability p and decimal odds. b is the net payout multiple
// (odds - 1). Non-positive edges yield 0, never a negative ratio.
func FullKelly(p, odds float64) float64 {
	b := odds - 1
	if b <= 0 {
		return 0
	}
	f := (b*p - (1 - p)) / b
	if f <= 0 {
		return 0
	}
	return f
}

// Size computes the stake for a win probability and decimal odds at the
// current balance. A non-positive edge always yields a zero stake; no
// fraction setting can produce a bet on negative expectancy.
func (k *Kelly) Size(signalID string, balance, p, odds float64) domain.Stake {
	constraints := domain.StakeConstraints{KellyFraction: k.fraction}
	if balance <= 0 {
		return domain.Stake{SignalID: signalID, Constraints: constraints}
	}

	full := FullKelly(p, odds)
	if full == 0 {
		return domain.Stake{SignalID: signalID, Constraints: constraints}
	}

	ratio := full * k.fraction
	if ratio > k.maxRatio {
		ratio = k.maxRatio
	}

	amount := floorToUnit(balance*ratio, k.unit)
	if amount < k.minStake || amount <= 0 {
		return domain.Stake{SignalID: signalID, Constraints: constraints}
	}

	return domain.Stake{
		SignalID:    signalID,
		Amount:      amount,
		Cost:        amount,
		Constraints: constraints,
	}
}
