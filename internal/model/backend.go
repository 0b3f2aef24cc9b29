package model

import (
	"errors"
	"fmt"
)

// Backend identifiers. The active backend is an explicit configuration
// choice, not an import-time fallback.
const (
	BackendLogistic = "LOGISTIC"
	BackendStumps   = "STUMPS"
)

// ErrNotFitted is returned when prediction is attempted before Fit.
var ErrNotFitted = errors.New("classifier is not fitted")

// Classifier is a binary probabilistic classifier.
// Implementations must be deterministic: fitting the same data twice
// produces bit-identical parameters. A fitted classifier is immutable;
// PredictProba must not mutate internal state.
type Classifier interface {
	// Fit trains on feature rows and 0/1 labels.
	Fit(features [][]float64, labels []int) error

	// PredictProba returns the positive-class probability per row.
	PredictProba(features [][]float64) ([]float64, error)

	// Params returns the JSON-encoded fitted parameters for persistence.
	Params() ([]byte, error)

	// Backend returns the backend identifier.
	Backend() string
}

// Trained pairs a fitted classifier with the exact feature-name list it was
// trained on. The pair travels together so downstream code never recovers
// feature names by introspecting the estimator.
type Trained struct {
	Classifier   Classifier
	FeatureNames []string
}

// Factory builds a fresh unfitted classifier. The evaluator calls it once
// per fold plus once for the final full-data fit.
type Factory func() Classifier

// NewFactory returns a factory for the named backend.
func NewFactory(backend string) (Factory, error) {
	switch backend {
	case BackendLogistic:
		return func() Classifier { return NewLogistic(DefaultLogisticParams()) }, nil
	case BackendStumps:
		return func() Classifier { return NewStumps(DefaultStumpsParams()) }, nil
	default:
		return nil, fmt.Errorf("unknown model backend %q", backend)
	}
}

// Restore rebuilds a fitted classifier from persisted parameters.
func Restore(backend string, payload []byte) (Classifier, error) {
	switch backend {
	case BackendLogistic:
		return restoreLogistic(payload)
	case BackendStumps:
		return restoreStumps(payload)
	default:
		return nil, fmt.Errorf("unknown model backend %q", backend)
	}
}

// sanitize replaces non-finite feature values in place of the source's
// nan_to_num preprocessing: NaN becomes 0, infinities clamp to +-1e6.
func sanitize(v float64) float64 {
	switch {
	case v != v: // NaN
		return 0
	case v > 1e6:
		return 1e6
	case v < -1e6:
		return -1e6
	default:
		return v
	}
}
