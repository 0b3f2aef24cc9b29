package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wager-lab/internal/domain"
	"wager-lab/internal/storage"
)

func TestOutcomeStore_InsertAndGetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewOutcomeStore(pool)

	o := &domain.RaceOutcome{EventID: "jra-202405-11R", TimestampMs: 1715400000000, Winners: []int{3, 7}}
	require.NoError(t, store.Insert(ctx, o))

	retrieved, err := store.GetByID(ctx, "jra-202405-11R")
	require.NoError(t, err)

	assert.Equal(t, o.EventID, retrieved.EventID)
	assert.Equal(t, o.TimestampMs, retrieved.TimestampMs)
	assert.Equal(t, []int{3, 7}, retrieved.Winners)
}

func TestOutcomeStore_DuplicateEventID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewOutcomeStore(pool)

	o := &domain.RaceOutcome{EventID: "e1", TimestampMs: 1000, Winners: []int{1}}
	require.NoError(t, store.Insert(ctx, o))

	err := store.Insert(ctx, o)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestOutcomeStore_GetByIDNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewOutcomeStore(pool)

	_, err := store.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestOutcomeStore_GetByTimeRange(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewOutcomeStore(pool)

	outcomes := []*domain.RaceOutcome{
		{EventID: "e3", TimestampMs: 3000, Winners: []int{1}},
		{EventID: "e1", TimestampMs: 1000, Winners: []int{2}},
		{EventID: "e2b", TimestampMs: 2000, Winners: []int{3}},
		{EventID: "e2a", TimestampMs: 2000, Winners: []int{4}},
		{EventID: "e9", TimestampMs: 9000, Winners: []int{5}},
	}
	for _, o := range outcomes {
		require.NoError(t, store.Insert(ctx, o))
	}

	got, err := store.GetByTimeRange(ctx, 1000, 3000)
	require.NoError(t, err)
	require.Len(t, got, 4)

	// Ordered by timestamp, then event_id.
	assert.Equal(t, "e1", got[0].EventID)
	assert.Equal(t, "e2a", got[1].EventID)
	assert.Equal(t, "e2b", got[2].EventID)
	assert.Equal(t, "e3", got[3].EventID)
}
