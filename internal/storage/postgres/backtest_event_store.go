package postgres

import (
	"context"
	"fmt"

	"wager-lab/internal/domain"
	"wager-lab/internal/storage"
)

// BacktestEventStore implements storage.BacktestEventStore using PostgreSQL.
type BacktestEventStore struct {
	pool *Pool
}

// NewBacktestEventStore creates a new BacktestEventStore.
func NewBacktestEventStore(pool *Pool) *BacktestEventStore {
	return &BacktestEventStore{pool: pool}
}

// Compile-time interface check.
var _ storage.BacktestEventStore = (*BacktestEventStore)(nil)

// InsertBulk adds the events of one run atomically. Fails entire batch on
// any duplicate (run_id, seq).
func (s *BacktestEventStore) InsertBulk(ctx context.Context, events []*domain.BacktestEvent) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO backtest_events (
			run_id, seq, timestamp_ms, signal_id, entity_id,
			stake_amount, stake_units, stake_tickets, stake_cost,
			risk_pct, kelly_fraction, budget,
			payout, pnl, is_hit, exit_reason, balance
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9,
			$10, $11, $12,
			$13, $14, $15, $16, $17
		)
	`

	for _, e := range events {
		_, err := tx.Exec(ctx, query,
			e.RunID, e.Seq, e.TimestampMs, e.SignalID, e.EntityID,
			e.Stake.Amount, e.Stake.Units, e.Stake.Tickets, e.Stake.Cost,
			e.Stake.Constraints.RiskPct, e.Stake.Constraints.KellyFraction, e.Stake.Constraints.Budget,
			e.Payout, e.PnL, e.IsHit, e.ExitReason, e.Balance,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert backtest event in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByRunID retrieves all events of a run, ordered by seq ASC.
func (s *BacktestEventStore) GetByRunID(ctx context.Context, runID string) ([]*domain.BacktestEvent, error) {
	query := `
		SELECT
			run_id, seq, timestamp_ms, signal_id, entity_id,
			stake_amount, stake_units, stake_tickets, stake_cost,
			risk_pct, kelly_fraction, budget,
			payout, pnl, is_hit, exit_reason, balance
		FROM backtest_events
		WHERE run_id = $1
		ORDER BY seq ASC
	`

	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query backtest events: %w", err)
	}
	defer rows.Close()

	events := make([]*domain.BacktestEvent, 0)
	for rows.Next() {
		var e domain.BacktestEvent
		err := rows.Scan(
			&e.RunID, &e.Seq, &e.TimestampMs, &e.SignalID, &e.EntityID,
			&e.Stake.Amount, &e.Stake.Units, &e.Stake.Tickets, &e.Stake.Cost,
			&e.Stake.Constraints.RiskPct, &e.Stake.Constraints.KellyFraction, &e.Stake.Constraints.Budget,
			&e.Payout, &e.PnL, &e.IsHit, &e.ExitReason, &e.Balance,
		)
		if err != nil {
			return nil, fmt.Errorf("scan backtest event: %w", err)
		}
		e.Stake.SignalID = e.SignalID
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate backtest events: %w", err)
	}
	return events, nil
}

// ListRunIDs retrieves all known run IDs, sorted ASC.
func (s *BacktestEventStore) ListRunIDs(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT run_id
		FROM backtest_events
		ORDER BY run_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query run ids: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan run id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run ids: %w", err)
	}
	return ids, nil
}
