package model

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wager-lab/internal/domain"
	"wager-lab/internal/storage"
)

// LoadStatus tags the outcome of a registry load.
type LoadStatus string

// Load outcomes. NotTrained is an expected state, not an error: callers
// branch on the status instead of catching "file not found" style failures.
const (
	LoadLoaded     LoadStatus = "LOADED"
	LoadNotTrained LoadStatus = "NOT_TRAINED"
	LoadFailed     LoadStatus = "FAILED"
)

// LoadOutcome is the tagged result of Registry.Load.
// Model and Snapshot are set only when Status is LoadLoaded;
// Err is set only when Status is LoadFailed.
type LoadOutcome struct {
	Status   LoadStatus
	Model    Trained
	Snapshot *domain.ModelSnapshot
	Err      error
}

// Registry persists and restores trained models through a snapshot store.
type Registry struct {
	store storage.ModelSnapshotStore
	now   func() time.Time
}

// NewRegistry creates a registry over the given snapshot store.
func NewRegistry(store storage.ModelSnapshotStore) *Registry {
	return &Registry{store: store, now: time.Now}
}

// Save persists a trained model under name/version along with its
// cross-validation results. Version must be unique per name.
func (r *Registry) Save(ctx context.Context, name, version string, t Trained, cv []domain.FoldMetrics) (*domain.ModelSnapshot, error) {
	if t.Classifier == nil {
		return nil, fmt.Errorf("save model %q: nil classifier", name)
	}
	payload, err := t.Classifier.Params()
	if err != nil {
		return nil, fmt.Errorf("save model %q: %w", name, err)
	}

	snap := &domain.ModelSnapshot{
		Name:         name,
		Version:      version,
		Backend:      t.Classifier.Backend(),
		Payload:      payload,
		FeatureNames: t.FeatureNames,
		CVResults:    cv,
		CreatedAtMs:  r.now().UnixMilli(),
	}
	if err := r.store.Insert(ctx, snap); err != nil {
		return nil, fmt.Errorf("save model %q: %w", name, err)
	}
	return snap, nil
}

// Load restores the latest trained model for a name. A model that has
// never been trained yields LoadNotTrained, not an error.
func (r *Registry) Load(ctx context.Context, name string) LoadOutcome {
	snap, err := r.store.GetLatest(ctx, name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return LoadOutcome{Status: LoadNotTrained}
		}
		return LoadOutcome{Status: LoadFailed, Err: fmt.Errorf("load model %q: %w", name, err)}
	}

	clf, err := Restore(snap.Backend, snap.Payload)
	if err != nil {
		return LoadOutcome{Status: LoadFailed, Err: fmt.Errorf("load model %q: %w", name, err)}
	}

	return LoadOutcome{
		Status:   LoadLoaded,
		Model:    Trained{Classifier: clf, FeatureNames: snap.FeatureNames},
		Snapshot: snap,
	}
}
