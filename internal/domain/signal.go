package domain

import (
	"fmt"
	"strings"
)

// SignalKind is the discrete decision derived from a predicted probability.
type SignalKind string

// Signal kinds.
const (
	SignalBuy  SignalKind = "BUY"
	SignalSell SignalKind = "SELL"
	SignalHold SignalKind = "HOLD"
)

// Signal is a probability turned into a decision.
// Confidence is the probability of the realized class under the stated
// decision rule: ProbUp for BUY, 1-ProbUp for SELL, max of the two for HOLD.
type Signal struct {
	SignalID    string
	EntityID    string
	TimestampMs int64
	Kind        SignalKind
	Confidence  float64
	ProbUp      float64 // raw model probability behind the decision
}

// Combination is one ranked bet combination.
// Entities keeps role order for exacta-style bets (first, second) and is
// sorted ascending for unordered trio-style bets.
type Combination struct {
	Entities    []int
	Probability float64
}

// Key returns the payout-table lookup key, e.g. "3-7" or "1-4-9".
func (c Combination) Key() string {
	parts := make([]string, len(c.Entities))
	for i, e := range c.Entities {
		parts[i] = fmt.Sprintf("%d", e)
	}
	return strings.Join(parts, "-")
}

// Covers reports whether the realized winner set is contained in the
// combination's entity set. Order is ignored; a wager hits when every
// realized winner was purchased.
func (c Combination) Covers(winners []int) bool {
	if len(winners) == 0 {
		return false
	}
	have := make(map[int]struct{}, len(c.Entities))
	for _, e := range c.Entities {
		have[e] = struct{}{}
	}
	for _, w := range winners {
		if _, ok := have[w]; !ok {
			return false
		}
	}
	return true
}
