package postgres

import (
	"context"
	"fmt"

	"wager-lab/internal/domain"
	"wager-lab/internal/storage"
)

// OutcomeStore implements storage.OutcomeStore using PostgreSQL.
type OutcomeStore struct {
	pool *Pool
}

// NewOutcomeStore creates a new OutcomeStore.
func NewOutcomeStore(pool *Pool) *OutcomeStore {
	return &OutcomeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.OutcomeStore = (*OutcomeStore)(nil)

// Insert adds a new outcome. Returns ErrDuplicateKey if event_id exists.
func (s *OutcomeStore) Insert(ctx context.Context, o *domain.RaceOutcome) error {
	query := `
		INSERT INTO race_outcomes (event_id, timestamp_ms, winners)
		VALUES ($1, $2, $3)
	`

	_, err := s.pool.Exec(ctx, query, o.EventID, o.TimestampMs, o.Winners)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert race outcome: %w", err)
	}
	return nil
}

// GetByID retrieves an outcome by event ID. Returns ErrNotFound if not exists.
func (s *OutcomeStore) GetByID(ctx context.Context, eventID string) (*domain.RaceOutcome, error) {
	query := `
		SELECT event_id, timestamp_ms, winners
		FROM race_outcomes
		WHERE event_id = $1
	`

	var o domain.RaceOutcome
	err := s.pool.QueryRow(ctx, query, eventID).Scan(&o.EventID, &o.TimestampMs, &o.Winners)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get race outcome: %w", err)
	}
	return &o, nil
}

// GetByTimeRange retrieves outcomes within [start, end] inclusive,
// ordered by timestamp ASC, event_id ASC.
func (s *OutcomeStore) GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.RaceOutcome, error) {
	query := `
		SELECT event_id, timestamp_ms, winners
		FROM race_outcomes
		WHERE timestamp_ms >= $1 AND timestamp_ms <= $2
		ORDER BY timestamp_ms ASC, event_id ASC
	`

	rows, err := s.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("query race outcomes: %w", err)
	}
	defer rows.Close()

	outcomes := make([]*domain.RaceOutcome, 0)
	for rows.Next() {
		var o domain.RaceOutcome
		if err := rows.Scan(&o.EventID, &o.TimestampMs, &o.Winners); err != nil {
			return nil, fmt.Errorf("scan race outcome: %w", err)
		}
		outcomes = append(outcomes, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate race outcomes: %w", err)
	}
	return outcomes, nil
}
