package domain

// PerformanceSummary aggregates a closed backtest event sequence.
// It is always recomputed fresh from the full sequence, never updated
// incrementally, so repeated computation is bit-identical.
//
// Degenerate cases are sentinel values, not errors: ProfitFactor is +Inf
// when there are no losing trades, SharpeRatio is 0 when returns have zero
// variance, and a run with no trades yields the zero summary with
// TotalTrades == 0.
type PerformanceSummary struct {
	TotalTrades     int
	Wins            int
	Losses          int
	WinRate         float64
	ProfitFactor    float64
	SharpeRatio     float64
	MaxDrawdown     float64 // worst (equity-peak)/peak ratio, <= 0
	MaxLosingStreak int
	ROI             float64
	InitialBalance  float64
	FinalBalance    float64
	TotalCost       float64
	TotalPayout     float64
}

// FoldMetrics is the out-of-sample score of one walk-forward fold.
// AUC is NaN when the fold's test window contains a single class; such
// folds are excluded from cross-fold means rather than treated as failures.
type FoldMetrics struct {
	Fold      int
	AUC       float64
	LogLoss   float64
	TrainSize int
	TestSize  int
}
