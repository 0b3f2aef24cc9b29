package postgres

import (
	"context"
	"fmt"

	"wager-lab/internal/domain"
	"wager-lab/internal/storage"
)

// PayoutStore implements storage.PayoutStore using PostgreSQL.
type PayoutStore struct {
	pool *Pool
}

// NewPayoutStore creates a new PayoutStore.
func NewPayoutStore(pool *Pool) *PayoutStore {
	return &PayoutStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PayoutStore = (*PayoutStore)(nil)

// InsertBulk adds multiple payout rows atomically. Fails entire batch on
// any duplicate (event_id, combination_key).
func (s *PayoutStore) InsertBulk(ctx context.Context, payouts []*domain.Payout) error {
	if len(payouts) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO payouts (event_id, combination_key, amount)
		VALUES ($1, $2, $3)
	`

	for _, p := range payouts {
		if _, err := tx.Exec(ctx, query, p.EventID, p.CombinationKey, p.Amount); err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert payout in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetPayout retrieves the unit payout for a combination.
// Returns ErrNotFound when no payout data exists for the key.
func (s *PayoutStore) GetPayout(ctx context.Context, eventID, combinationKey string) (float64, error) {
	query := `
		SELECT amount
		FROM payouts
		WHERE event_id = $1 AND combination_key = $2
	`

	var amount float64
	err := s.pool.QueryRow(ctx, query, eventID, combinationKey).Scan(&amount)
	if err != nil {
		if isNotFoundError(err) {
			return 0, storage.ErrNotFound
		}
		return 0, fmt.Errorf("get payout: %w", err)
	}
	return amount, nil
}
