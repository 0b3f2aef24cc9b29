package stake

import (
	"fmt"

	"wager-lab/internal/domain"
)

// FixedFractional sizes every position as a fixed percentage of the
// current balance.
type FixedFractional struct {
	riskPct     float64 // percent of balance, (0, 100]
	minStake    float64
	maxPosition float64
	unit        float64 // smallest tradable increment
}

// NewFixedFractional validates parameters and builds the sizer.
// riskPct is a percentage: 2.0 risks 2% of the balance per position.
func NewFixedFractional(riskPct, minStake, maxPosition, unit float64) (*FixedFractional, error) {
	if riskPct <= 0 || riskPct > 100 {
		return nil, fmt.Errorf("%w: risk_pct %v, want (0, 100]", ErrInvalidParameter, riskPct)
	}
	if minStake < 0 {
		return nil, fmt.Errorf("%w: min_stake %v, want >= 0", ErrInvalidParameter, minStake)
	}
	if maxPosition <= 0 {
		return nil, fmt.Errorf("%w: max_position %v, want > 0", ErrInvalidParameter, maxPosition)
	}
	if unit < 0 {
		return nil, fmt.Errorf("%w: unit %v, want >= 0", ErrInvalidParameter, unit)
	}
	return &FixedFractional{riskPct: riskPct, minStake: minStake, maxPosition: maxPosition, unit: unit}, nil
}

// Size computes the stake for the current balance. Stakes below the
// minimum come back zero rather than rounded up; tiny edges are not worth
// forcing a trade.
func (f *FixedFractional) Size(signalID string, balance float64) domain.Stake {
	constraints := domain.StakeConstraints{RiskPct: f.riskPct}
	if balance <= 0 {
		return domain.Stake{SignalID: signalID, Constraints: constraints}
	}

	amount := balance * f.riskPct / 100
	if amount > f.maxPosition {
		amount = f.maxPosition
	}
	amount = floorToUnit(amount, f.unit)
	if amount < f.minStake || amount <= 0 {
		return domain.Stake{SignalID: signalID, Constraints: constraints}
	}

	return domain.Stake{
		SignalID:    signalID,
		Amount:      amount,
		Cost:        amount,
		Constraints: constraints,
	}
}
