package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wager-lab/internal/domain"
	"wager-lab/internal/storage"
)

func TestPayoutStore_InsertBulkAndGetPayout(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewPayoutStore(pool)

	payouts := []*domain.Payout{
		{EventID: "e1", CombinationKey: "3-7", Amount: 1540},
		{EventID: "e1", CombinationKey: "1-4-9", Amount: 8820},
	}
	require.NoError(t, store.InsertBulk(ctx, payouts))

	amount, err := store.GetPayout(ctx, "e1", "3-7")
	require.NoError(t, err)
	assert.InDelta(t, 1540, amount, 1e-9)
}

func TestPayoutStore_GetPayoutNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPayoutStore(pool)

	_, err := store.GetPayout(context.Background(), "e1", "9-9")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPayoutStore_DuplicateFailsBatch(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewPayoutStore(pool)

	require.NoError(t, store.InsertBulk(ctx, []*domain.Payout{
		{EventID: "e1", CombinationKey: "3-7", Amount: 100},
	}))

	err := store.InsertBulk(ctx, []*domain.Payout{
		{EventID: "e1", CombinationKey: "4-5", Amount: 200},
		{EventID: "e1", CombinationKey: "3-7", Amount: 300},
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	// Transaction rolled back: the non-duplicate row must not exist.
	_, err = store.GetPayout(ctx, "e1", "4-5")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
