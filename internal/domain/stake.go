package domain

// StakeConstraints records which sizing limits produced a stake.
// Zero-valued fields were not part of the applied strategy.
type StakeConstraints struct {
	RiskPct       float64 // fixed-fractional risk, percent of balance
	KellyFraction float64 // applied fraction of full Kelly
	Budget        float64 // combinatorial budget, currency units
}

// Stake is a concrete position or ticket purchase derived from a Signal.
// Cost never exceeds the configured constraint; amounts are floored to the
// smallest tradable unit, never rounded up.
type Stake struct {
	SignalID    string
	Amount      float64 // currency committed
	Units       int     // FX units, 0 when not applicable
	Tickets     int     // combinatorial tickets, 0 when not applicable
	Cost        float64 // total cost charged against the balance
	Constraints StakeConstraints
}

// IsZero reports whether the sizer declined to bet.
func (s Stake) IsZero() bool {
	return s.Cost == 0 && s.Amount == 0 && s.Tickets == 0
}
