package model

import (
	"encoding/json"
	"fmt"
	"math"
)

// LogisticParams configures the logistic regression backend.
type LogisticParams struct {
	Epochs       int     `json:"epochs"`
	LearningRate float64 `json:"learning_rate"`
	L2           float64 `json:"l2"`
}

// DefaultLogisticParams returns the default training configuration.
func DefaultLogisticParams() LogisticParams {
	return LogisticParams{
		Epochs:       200,
		LearningRate: 0.1,
		L2:           1e-4,
	}
}

// logisticState is the persisted form of a fitted Logistic.
type logisticState struct {
	Params    LogisticParams `json:"params"`
	Weights   []float64      `json:"weights"`
	Intercept float64        `json:"intercept"`
	Means     []float64      `json:"means"`
	Stds      []float64      `json:"stds"`
}

// Logistic is a standardized logistic regression fitted with full-batch
// gradient descent. Deterministic: no sampling, no shuffling.
type Logistic struct {
	params    LogisticParams
	weights   []float64
	intercept float64
	means     []float64
	stds      []float64
	fitted    bool
}

// NewLogistic creates an unfitted logistic regression backend.
func NewLogistic(params LogisticParams) *Logistic {
	return &Logistic{params: params}
}

// Backend returns the backend identifier.
func (l *Logistic) Backend() string { return BackendLogistic }

// Fit trains on feature rows and 0/1 labels.
func (l *Logistic) Fit(features [][]float64, labels []int) error {
	n := len(features)
	if n == 0 || n != len(labels) {
		return fmt.Errorf("logistic fit: %d rows, %d labels", n, len(labels))
	}
	dim := len(features[0])

	x := make([][]float64, n)
	for i, row := range features {
		if len(row) != dim {
			return fmt.Errorf("logistic fit: row %d has %d features, want %d", i, len(row), dim)
		}
		clean := make([]float64, dim)
		for j, v := range row {
			clean[j] = sanitize(v)
		}
		x[i] = clean
	}

	l.means, l.stds = standardizeStats(x)
	for _, row := range x {
		for j := range row {
			row[j] = (row[j] - l.means[j]) / l.stds[j]
		}
	}

	l.weights = make([]float64, dim)
	l.intercept = 0

	lr := l.params.LearningRate
	for epoch := 0; epoch < l.params.Epochs; epoch++ {
		gradW := make([]float64, dim)
		gradB := 0.0
		for i, row := range x {
			p := sigmoid(dot(l.weights, row) + l.intercept)
			err := p - float64(labels[i])
			for j, v := range row {
				gradW[j] += err * v
			}
			gradB += err
		}
		inv := 1.0 / float64(n)
		for j := range l.weights {
			l.weights[j] -= lr * (gradW[j]*inv + l.params.L2*l.weights[j])
		}
		l.intercept -= lr * gradB * inv
	}

	l.fitted = true
	return nil
}

// PredictProba returns the positive-class probability per row.
func (l *Logistic) PredictProba(features [][]float64) ([]float64, error) {
	if !l.fitted {
		return nil, ErrNotFitted
	}
	out := make([]float64, len(features))
	for i, row := range features {
		z := l.intercept
		for j := range l.weights {
			v := 0.0
			if j < len(row) {
				v = sanitize(row[j])
			}
			z += l.weights[j] * (v - l.means[j]) / l.stds[j]
		}
		out[i] = sigmoid(z)
	}
	return out, nil
}

// Params returns the JSON-encoded fitted parameters.
func (l *Logistic) Params() ([]byte, error) {
	if !l.fitted {
		return nil, ErrNotFitted
	}
	return json.Marshal(logisticState{
		Params:    l.params,
		Weights:   l.weights,
		Intercept: l.intercept,
		Means:     l.means,
		Stds:      l.stds,
	})
}

func restoreLogistic(payload []byte) (*Logistic, error) {
	var st logisticState
	if err := json.Unmarshal(payload, &st); err != nil {
		return nil, fmt.Errorf("decode logistic snapshot: %w", err)
	}
	return &Logistic{
		params:    st.Params,
		weights:   st.Weights,
		intercept: st.Intercept,
		means:     st.Means,
		stds:      st.Stds,
		fitted:    true,
	}, nil
}

// standardizeStats computes per-column mean and standard deviation.
// Zero-variance columns get std 1 so standardization is a no-op for them.
func standardizeStats(x [][]float64) (means, stds []float64) {
	n := float64(len(x))
	dim := len(x[0])
	means = make([]float64, dim)
	stds = make([]float64, dim)

	for _, row := range x {
		for j, v := range row {
			means[j] += v
		}
	}
	for j := range means {
		means[j] /= n
	}
	for _, row := range x {
		for j, v := range row {
			d := v - means[j]
			stds[j] += d * d
		}
	}
	for j := range stds {
		stds[j] = math.Sqrt(stds[j] / n)
		if stds[j] == 0 {
			stds[j] = 1
		}
	}
	return means, stds
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}

func dot(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

var _ Classifier = (*Logistic)(nil)
