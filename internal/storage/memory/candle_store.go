package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"wager-lab/internal/domain"
	"wager-lab/internal/storage"
)

// CandleStore is an in-memory implementation of storage.CandleStore.
type CandleStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Candle // keyed by instrument/granularity/timestamp
}

// NewCandleStore creates a new in-memory candle store.
func NewCandleStore() *CandleStore {
	return &CandleStore{
		data: make(map[string]*domain.Candle),
	}
}

func candleKey(instrument, granularity string, timestampMs int64) string {
	return fmt.Sprintf("%s/%s/%d", instrument, granularity, timestampMs)
}

// InsertBulk adds multiple candles atomically. Fails entire batch on any duplicate.
func (s *CandleStore) InsertBulk(_ context.Context, candles []*domain.Candle) error {
	if len(candles) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(candles))
	for _, c := range candles {
		if c == nil || c.Instrument == "" || c.Granularity == "" {
			return storage.ErrInvalidInput
		}
		key := candleKey(c.Instrument, c.Granularity, c.TimestampMs)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, c := range candles {
		copy := *c
		s.data[candleKey(c.Instrument, c.Granularity, c.TimestampMs)] = &copy
	}
	return nil
}

// GetByInstrument retrieves all candles for an instrument/granularity,
// ordered by timestamp ASC.
func (s *CandleStore) GetByInstrument(ctx context.Context, instrument, granularity string) ([]*domain.Candle, error) {
	return s.GetByTimeRange(ctx, instrument, granularity, 0, int64(1)<<62)
}

// GetByTimeRange retrieves candles within [start, end] inclusive,
// ordered by timestamp ASC.
func (s *CandleStore) GetByTimeRange(_ context.Context, instrument, granularity string, start, end int64) ([]*domain.Candle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Candle, 0)
	for _, c := range s.data {
		if c.Instrument != instrument || c.Granularity != granularity {
			continue
		}
		if c.TimestampMs < start || c.TimestampMs > end {
			continue
		}
		copy := *c
		result = append(result, &copy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].TimestampMs < result[j].TimestampMs
	})
	return result, nil
}

// Ensure CandleStore implements storage.CandleStore
var _ storage.CandleStore = (*CandleStore)(nil)
