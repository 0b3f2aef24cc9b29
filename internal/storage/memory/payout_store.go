package memory

import (
	"context"
	"sync"

	"wager-lab/internal/domain"
	"wager-lab/internal/storage"
)

// PayoutStore is an in-memory implementation of storage.PayoutStore.
type PayoutStore struct {
	mu   sync.RWMutex
	data map[string]float64 // keyed by event_id + "\x00" + combination_key
}

// NewPayoutStore creates a new in-memory payout store.
func NewPayoutStore() *PayoutStore {
	return &PayoutStore{
		data: make(map[string]float64),
	}
}

func payoutKey(eventID, combinationKey string) string {
	return eventID + "\x00" + combinationKey
}

// InsertBulk adds multiple payout rows atomically. Fails entire batch on
// any duplicate (event_id, combination_key).
func (s *PayoutStore) InsertBulk(_ context.Context, payouts []*domain.Payout) error {
	if len(payouts) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(payouts))
	for _, p := range payouts {
		if p == nil || p.EventID == "" || p.CombinationKey == "" {
			return storage.ErrInvalidInput
		}
		key := payoutKey(p.EventID, p.CombinationKey)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, p := range payouts {
		s.data[payoutKey(p.EventID, p.CombinationKey)] = p.Amount
	}
	return nil
}

// GetPayout retrieves the unit payout for a combination.
// Returns ErrNotFound when no payout data exists for the key.
func (s *PayoutStore) GetPayout(_ context.Context, eventID, combinationKey string) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	amount, exists := s.data[payoutKey(eventID, combinationKey)]
	if !exists {
		return 0, storage.ErrNotFound
	}
	return amount, nil
}

// Ensure PayoutStore implements storage.PayoutStore
var _ storage.PayoutStore = (*PayoutStore)(nil)
