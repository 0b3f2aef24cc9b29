package memory

import (
	"context"
	"sync"

	"wager-lab/internal/domain"
	"wager-lab/internal/storage"
)

// ModelSnapshotStore is an in-memory implementation of storage.ModelSnapshotStore.
type ModelSnapshotStore struct {
	mu   sync.RWMutex
	data map[string][]*domain.ModelSnapshot // keyed by model name
}

// NewModelSnapshotStore creates a new in-memory model snapshot store.
func NewModelSnapshotStore() *ModelSnapshotStore {
	return &ModelSnapshotStore{
		data: make(map[string][]*domain.ModelSnapshot),
	}
}

// Insert adds a new snapshot. Returns ErrDuplicateKey if (name, version) exists.
func (s *ModelSnapshotStore) Insert(_ context.Context, snap *domain.ModelSnapshot) error {
	if snap == nil || snap.Name == "" || snap.Version == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.data[snap.Name] {
		if existing.Version == snap.Version {
			return storage.ErrDuplicateKey
		}
	}

	s.data[snap.Name] = append(s.data[snap.Name], copySnapshot(snap))
	return nil
}

// GetLatest retrieves the most recent snapshot for a model name, ties by
// version DESC. Returns ErrNotFound if the model has never been trained.
func (s *ModelSnapshotStore) GetLatest(_ context.Context, name string) (*domain.ModelSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snaps := s.data[name]
	if len(snaps) == 0 {
		return nil, storage.ErrNotFound
	}

	latest := snaps[0]
	for _, snap := range snaps[1:] {
		if snap.CreatedAtMs > latest.CreatedAtMs ||
			(snap.CreatedAtMs == latest.CreatedAtMs && snap.Version > latest.Version) {
			latest = snap
		}
	}
	return copySnapshot(latest), nil
}

// GetByVersion retrieves a specific snapshot. Returns ErrNotFound if not exists.
func (s *ModelSnapshotStore) GetByVersion(_ context.Context, name, version string) (*domain.ModelSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, snap := range s.data[name] {
		if snap.Version == version {
			return copySnapshot(snap), nil
		}
	}
	return nil, storage.ErrNotFound
}

func copySnapshot(snap *domain.ModelSnapshot) *domain.ModelSnapshot {
	c := *snap
	c.Payload = append([]byte(nil), snap.Payload...)
	c.FeatureNames = append([]string(nil), snap.FeatureNames...)
	c.CVResults = append([]domain.FoldMetrics(nil), snap.CVResults...)
	return &c
}

// Ensure ModelSnapshotStore implements storage.ModelSnapshotStore
var _ storage.ModelSnapshotStore = (*ModelSnapshotStore)(nil)
