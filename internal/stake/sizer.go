// Package stake converts decisions into concrete position sizes under a
// risk or budget constraint. All strategies floor to the smallest tradable
// unit and never round up past their configured limit.
package stake

import "errors"

// Sizing errors.
var (
	// ErrInvalidParameter is returned for out-of-range sizing settings.
	ErrInvalidParameter = errors.New("invalid stake parameter")

	// ErrInsufficientData is returned when a combinatorial sizer is given
	// no legs or a leg with no candidates.
	ErrInsufficientData = errors.New("insufficient data for stake sizing")
)

// floorToUnit rounds an amount down to a whole multiple of unit.
// unit <= 0 leaves the amount untouched.
func floorToUnit(amount, unit float64) float64 {
	if unit <= 0 {
		return amount
	}
	if amount < 0 {
		return 0
	}
	n := int64(amount / unit)
	return float64(n) * unit
}
