package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"wager-lab/internal/domain"
	"wager-lab/internal/storage"
)

// BacktestEventStore is an in-memory implementation of storage.BacktestEventStore.
type BacktestEventStore struct {
	mu   sync.RWMutex
	data map[string]*domain.BacktestEvent // keyed by run_id/seq
}

// NewBacktestEventStore creates a new in-memory backtest event store.
func NewBacktestEventStore() *BacktestEventStore {
	return &BacktestEventStore{
		data: make(map[string]*domain.BacktestEvent),
	}
}

func eventKey(runID string, seq int) string {
	return fmt.Sprintf("%s/%d", runID, seq)
}

// InsertBulk adds the events of one run atomically. Fails entire batch on
// any duplicate (run_id, seq).
func (s *BacktestEventStore) InsertBulk(_ context.Context, events []*domain.BacktestEvent) error {
	if len(events) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(events))
	for _, e := range events {
		if e == nil || e.RunID == "" {
			return storage.ErrInvalidInput
		}
		key := eventKey(e.RunID, e.Seq)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, e := range events {
		copy := *e
		s.data[eventKey(e.RunID, e.Seq)] = &copy
	}
	return nil
}

// GetByRunID retrieves all events of a run, ordered by seq ASC.
func (s *BacktestEventStore) GetByRunID(_ context.Context, runID string) ([]*domain.BacktestEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.BacktestEvent, 0)
	for _, e := range s.data {
		if e.RunID != runID {
			continue
		}
		copy := *e
		result = append(result, &copy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Seq < result[j].Seq
	})
	return result, nil
}

// ListRunIDs retrieves all known run IDs, sorted ASC.
func (s *BacktestEventStore) ListRunIDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, e := range s.data {
		seen[e.RunID] = struct{}{}
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Ensure BacktestEventStore implements storage.BacktestEventStore
var _ storage.BacktestEventStore = (*BacktestEventStore)(nil)
