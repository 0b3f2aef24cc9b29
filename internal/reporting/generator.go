package reporting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wager-lab/internal/analysis"
	"wager-lab/internal/storage"
)

// Generator assembles reports from persisted backtest runs.
type Generator struct {
	events    storage.BacktestEventStore
	snapshots storage.ModelSnapshotStore
	now       func() time.Time
}

// NewGenerator creates a generator over the given stores. The snapshot
// store may be nil when no model metadata is wanted.
func NewGenerator(events storage.BacktestEventStore, snapshots storage.ModelSnapshotStore) *Generator {
	return &Generator{events: events, snapshots: snapshots, now: time.Now}
}

// Generate loads a closed run and computes its report. modelName may be
// empty; a name with no stored snapshot is reported without CV metrics
// rather than failing.
func (g *Generator) Generate(ctx context.Context, runID, modelName string, initialBalance float64, annualizationFactor int) (*Report, error) {
	events, err := g.events.GetByRunID(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("generate report for %s: %w", runID, err)
	}

	report := &Report{
		GeneratedAt: g.now(),
		RunID:       runID,
		ModelName:   modelName,
		Summary:     analysis.Analyze(events, initialBalance, annualizationFactor),
		Events:      events,
	}

	if modelName != "" && g.snapshots != nil {
		snap, err := g.snapshots.GetLatest(ctx, modelName)
		switch {
		case err == nil:
			report.Backend = snap.Backend
			report.FoldMetrics = snap.CVResults
		case errors.Is(err, storage.ErrNotFound):
			// Report the run without model metadata.
		default:
			return nil, fmt.Errorf("load snapshot for %s: %w", modelName, err)
		}
	}

	return report, nil
}
