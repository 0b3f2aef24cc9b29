package domain

// Exit reason codes recorded on backtest events.
const (
	ExitReasonStopLoss   = "STOP_LOSS"
	ExitReasonTakeProfit = "TAKE_PROFIT"
	ExitReasonTimeout    = "TIMEOUT"
	ExitReasonHit        = "HIT"
	ExitReasonMiss       = "MISS"
	ExitReasonNoPayout   = "NO_PAYOUT_DATA" // hit, but no payout row; settled at zero
)

// BacktestEvent is one settled signal in a backtest run.
// The sequence for a run is append-only, ordered by timestamp, and never
// mutated after the run closes. PnL is payout-cost on a hit, -cost on a
// miss; for FX it is the continuous (exit-entry)*direction*units net of
// costs.
type BacktestEvent struct {
	RunID       string
	Seq         int // position within the run, 0-based
	TimestampMs int64
	SignalID    string
	EntityID    string
	Stake       Stake
	Payout      float64
	PnL         float64
	IsHit       bool
	ExitReason  string
	Balance     float64 // balance after applying PnL
}
