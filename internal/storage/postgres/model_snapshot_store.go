package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"wager-lab/internal/domain"
	"wager-lab/internal/storage"
)

// ModelSnapshotStore implements storage.ModelSnapshotStore using PostgreSQL.
type ModelSnapshotStore struct {
	pool *Pool
}

// NewModelSnapshotStore creates a new ModelSnapshotStore.
func NewModelSnapshotStore(pool *Pool) *ModelSnapshotStore {
	return &ModelSnapshotStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ModelSnapshotStore = (*ModelSnapshotStore)(nil)

// Insert adds a new snapshot. Returns ErrDuplicateKey if (name, version) exists.
func (s *ModelSnapshotStore) Insert(ctx context.Context, snap *domain.ModelSnapshot) error {
	cvJSON, err := json.Marshal(snap.CVResults)
	if err != nil {
		return fmt.Errorf("marshal cv results: %w", err)
	}

	query := `
		INSERT INTO model_snapshots (
			name, version, backend, payload, feature_names, cv_results, created_at_ms
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err = s.pool.Exec(ctx, query,
		snap.Name, snap.Version, snap.Backend, snap.Payload, snap.FeatureNames, cvJSON, snap.CreatedAtMs,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert model snapshot: %w", err)
	}
	return nil
}

// GetLatest retrieves the most recent snapshot for a model name, ties by
// version DESC. Returns ErrNotFound if the model has never been trained.
func (s *ModelSnapshotStore) GetLatest(ctx context.Context, name string) (*domain.ModelSnapshot, error) {
	query := `
		SELECT name, version, backend, payload, feature_names, cv_results, created_at_ms
		FROM model_snapshots
		WHERE name = $1
		ORDER BY created_at_ms DESC, version DESC
		LIMIT 1
	`
	return s.scanOne(ctx, query, name)
}

// GetByVersion retrieves a specific snapshot. Returns ErrNotFound if not exists.
func (s *ModelSnapshotStore) GetByVersion(ctx context.Context, name, version string) (*domain.ModelSnapshot, error) {
	query := `
		SELECT name, version, backend, payload, feature_names, cv_results, created_at_ms
		FROM model_snapshots
		WHERE name = $1 AND version = $2
	`
	return s.scanOne(ctx, query, name, version)
}

func (s *ModelSnapshotStore) scanOne(ctx context.Context, query string, args ...any) (*domain.ModelSnapshot, error) {
	var snap domain.ModelSnapshot
	var cvJSON []byte
	err := s.pool.QueryRow(ctx, query, args...).Scan(
		&snap.Name, &snap.Version, &snap.Backend, &snap.Payload, &snap.FeatureNames, &cvJSON, &snap.CreatedAtMs,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get model snapshot: %w", err)
	}

	if len(cvJSON) > 0 {
		if err := json.Unmarshal(cvJSON, &snap.CVResults); err != nil {
			return nil, fmt.Errorf("unmarshal cv results: %w", err)
		}
	}
	return &snap, nil
}
