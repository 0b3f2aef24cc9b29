package storage

import (
	"context"

	"wager-lab/internal/domain"
)

// CandleStore provides access to OHLC candle storage.
type CandleStore interface {
	// InsertBulk adds multiple candles. Fails entire batch on duplicate
	// (instrument, granularity, timestamp_ms).
	InsertBulk(ctx context.Context, candles []*domain.Candle) error

	// GetByInstrument retrieves all candles for an instrument/granularity,
	// ordered by timestamp ASC.
	GetByInstrument(ctx context.Context, instrument, granularity string) ([]*domain.Candle, error)

	// GetByTimeRange retrieves candles within [start, end] (inclusive),
	// ordered by timestamp ASC.
	GetByTimeRange(ctx context.Context, instrument, granularity string, start, end int64) ([]*domain.Candle, error)
}

// OutcomeStore provides access to resolved race/pool outcomes.
type OutcomeStore interface {
	// Insert adds a new outcome. Returns ErrDuplicateKey if event_id exists.
	Insert(ctx context.Context, o *domain.RaceOutcome) error

	// GetByID retrieves an outcome by event ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, eventID string) (*domain.RaceOutcome, error)

	// GetByTimeRange retrieves outcomes within [start, end] (inclusive),
	// ordered by timestamp ASC, event_id ASC.
	GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.RaceOutcome, error)
}

// PayoutStore provides access to the per-event payout tables.
type PayoutStore interface {
	// InsertBulk adds multiple payout rows. Fails entire batch on duplicate
	// (event_id, combination_key).
	InsertBulk(ctx context.Context, payouts []*domain.Payout) error

	// GetPayout retrieves the unit payout for a combination.
	// Returns ErrNotFound when no payout data exists for the key.
	GetPayout(ctx context.Context, eventID, combinationKey string) (float64, error)
}

// BacktestEventStore provides access to settled backtest events.
type BacktestEventStore interface {
	// InsertBulk adds the events of one run atomically. Fails entire batch
	// on duplicate (run_id, seq).
	InsertBulk(ctx context.Context, events []*domain.BacktestEvent) error

	// GetByRunID retrieves all events of a run, ordered by seq ASC.
	GetByRunID(ctx context.Context, runID string) ([]*domain.BacktestEvent, error)

	// ListRunIDs retrieves all known run IDs, sorted ASC.
	ListRunIDs(ctx context.Context) ([]string, error)
}

// ModelSnapshotStore provides access to persisted trained models.
type ModelSnapshotStore interface {
	// Insert adds a new snapshot. Returns ErrDuplicateKey if (name, version) exists.
	Insert(ctx context.Context, s *domain.ModelSnapshot) error

	// GetLatest retrieves the most recent snapshot for a model name
	// (highest created_at_ms, ties by version DESC). Returns ErrNotFound
	// if the model has never been trained.
	GetLatest(ctx context.Context, name string) (*domain.ModelSnapshot, error)

	// GetByVersion retrieves a specific snapshot. Returns ErrNotFound if not exists.
	GetByVersion(ctx context.Context, name, version string) (*domain.ModelSnapshot, error)
}
