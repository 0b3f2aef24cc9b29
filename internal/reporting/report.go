package reporting

import (
	"time"

	"wager-lab/internal/domain"
)

// Report is the rendered output of one backtest run: the aggregate
// performance summary plus the cross-validation scores of the model that
// produced the signals.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	RunID       string
	ModelName   string
	Backend     string

	Summary     domain.PerformanceSummary
	FoldMetrics []domain.FoldMetrics

	// Per-event rows (sorted by seq)
	Events []*domain.BacktestEvent
}
