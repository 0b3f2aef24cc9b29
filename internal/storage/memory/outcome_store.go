package memory

import (
	"context"
	"sort"
	"sync"

	"wager-lab/internal/domain"
	"wager-lab/internal/storage"
)

// OutcomeStore is an in-memory implementation of storage.OutcomeStore.
type OutcomeStore struct {
	mu   sync.RWMutex
	data map[string]*domain.RaceOutcome // keyed by event_id
}

// NewOutcomeStore creates a new in-memory outcome store.
func NewOutcomeStore() *OutcomeStore {
	return &OutcomeStore{
		data: make(map[string]*domain.RaceOutcome),
	}
}

// Insert adds a new outcome. Returns ErrDuplicateKey if event_id exists.
func (s *OutcomeStore) Insert(_ context.Context, o *domain.RaceOutcome) error {
	if o == nil || o.EventID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[o.EventID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[o.EventID] = copyOutcome(o)
	return nil
}

// GetByID retrieves an outcome by event ID. Returns ErrNotFound if not exists.
func (s *OutcomeStore) GetByID(_ context.Context, eventID string) (*domain.RaceOutcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, exists := s.data[eventID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copyOutcome(o), nil
}

// GetByTimeRange retrieves outcomes within [start, end] inclusive,
// ordered by timestamp ASC, event_id ASC.
func (s *OutcomeStore) GetByTimeRange(_ context.Context, start, end int64) ([]*domain.RaceOutcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.RaceOutcome, 0)
	for _, o := range s.data {
		if o.TimestampMs < start || o.TimestampMs > end {
			continue
		}
		result = append(result, copyOutcome(o))
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].TimestampMs != result[j].TimestampMs {
			return result[i].TimestampMs < result[j].TimestampMs
		}
		return result[i].EventID < result[j].EventID
	})
	return result, nil
}

func copyOutcome(o *domain.RaceOutcome) *domain.RaceOutcome {
	c := *o
	c.Winners = append([]int(nil), o.Winners...)
	return &c
}

// Ensure OutcomeStore implements storage.OutcomeStore
var _ storage.OutcomeStore = (*OutcomeStore)(nil)
