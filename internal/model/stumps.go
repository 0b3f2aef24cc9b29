package model

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// StumpsParams configures the gradient-boosted stumps backend.
type StumpsParams struct {
	Rounds       int     `json:"rounds"`
	LearningRate float64 `json:"learning_rate"`
	MinLeaf      int     `json:"min_leaf"`
}

// DefaultStumpsParams returns the default training configuration.
func DefaultStumpsParams() StumpsParams {
	return StumpsParams{
		Rounds:       100,
		LearningRate: 0.1,
		MinLeaf:      5,
	}
}

// stump is one depth-1 regression tree on the logit scale.
type stump struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      float64 `json:"left"`  // value when x[feature] <= threshold
	Right     float64 `json:"right"` // value when x[feature] > threshold
}

// stumpsState is the persisted form of a fitted Stumps.
type stumpsState struct {
	Params StumpsParams `json:"params"`
	Base   float64      `json:"base"`
	Trees  []stump      `json:"trees"`
}

// Stumps is a gradient-boosted ensemble of decision stumps minimizing
// log-loss. Split search scans every feature at midpoints between sorted
// unique values; ties break toward the lower feature index and threshold,
// so fitting is deterministic.
type Stumps struct {
	params StumpsParams
	base   float64
	trees  []stump
	fitted bool
}

// NewStumps creates an unfitted boosted-stumps backend.
func NewStumps(params StumpsParams) *Stumps {
	return &Stumps{params: params}
}

// Backend returns the backend identifier.
func (s *Stumps) Backend() string { return BackendStumps }

// Fit trains on feature rows and 0/1 labels.
func (s *Stumps) Fit(features [][]float64, labels []int) error {
	n := len(features)
	if n == 0 || n != len(labels) {
		return fmt.Errorf("stumps fit: %d rows, %d labels", n, len(labels))
	}
	dim := len(features[0])

	x := make([][]float64, n)
	y := make([]float64, n)
	pos := 0
	for i, row := range features {
		if len(row) != dim {
			return fmt.Errorf("stumps fit: row %d has %d features, want %d", i, len(row), dim)
		}
		clean := make([]float64, dim)
		for j, v := range row {
			clean[j] = sanitize(v)
		}
		x[i] = clean
		y[i] = float64(labels[i])
		pos += labels[i]
	}

	// Base score: log-odds of the positive rate, clamped away from 0/1.
	rate := math.Min(math.Max(float64(pos)/float64(n), 1e-6), 1-1e-6)
	s.base = math.Log(rate / (1 - rate))

	scores := make([]float64, n)
	for i := range scores {
		scores[i] = s.base
	}

	s.trees = make([]stump, 0, s.params.Rounds)
	grad := make([]float64, n)
	for round := 0; round < s.params.Rounds; round++ {
		for i := range grad {
			grad[i] = y[i] - sigmoid(scores[i]) // negative gradient of log-loss
		}

		best, ok := s.bestStump(x, grad, dim)
		if !ok {
			break
		}

		best.Left *= s.params.LearningRate
		best.Right *= s.params.LearningRate
		s.trees = append(s.trees, best)

		for i, row := range x {
			if row[best.Feature] <= best.Threshold {
				scores[i] += best.Left
			} else {
				scores[i] += best.Right
			}
		}
	}

	s.fitted = true
	return nil
}

// bestStump finds the least-squares best single split on the residuals.
func (s *Stumps) bestStump(x [][]float64, grad []float64, dim int) (stump, bool) {
	n := len(x)
	bestSSE := math.Inf(1)
	var best stump
	found := false

	type pair struct{ v, g float64 }
	col := make([]pair, n)

	for f := 0; f < dim; f++ {
		for i, row := range x {
			col[i] = pair{row[f], grad[i]}
		}
		sort.Slice(col, func(a, b int) bool { return col[a].v < col[b].v })

		total := 0.0
		for _, p := range col {
			total += p.g
		}

		leftSum := 0.0
		for i := 0; i < n-1; i++ {
			leftSum += col[i].g
			if col[i].v == col[i+1].v {
				continue
			}
			leftN := i + 1
			rightN := n - leftN
			if leftN < s.params.MinLeaf || rightN < s.params.MinLeaf {
				continue
			}
			leftMean := leftSum / float64(leftN)
			rightMean := (total - leftSum) / float64(rightN)
			// SSE reduction is equivalent to maximizing n_l*m_l^2 + n_r*m_r^2;
			// store the negated gain so the comparison stays a minimum.
			sse := -(float64(leftN)*leftMean*leftMean + float64(rightN)*rightMean*rightMean)
			if sse < bestSSE {
				bestSSE = sse
				best = stump{
					Feature:   f,
					Threshold: (col[i].v + col[i+1].v) / 2,
					Left:      leftMean,
					Right:     rightMean,
				}
				found = true
			}
		}
	}
	return best, found
}

// PredictProba returns the positive-class probability per row.
func (s *Stumps) PredictProba(features [][]float64) ([]float64, error) {
	if !s.fitted {
		return nil, ErrNotFitted
	}
	out := make([]float64, len(features))
	for i, row := range features {
		score := s.base
		for _, t := range s.trees {
			v := 0.0
			if t.Feature < len(row) {
				v = sanitize(row[t.Feature])
			}
			if v <= t.Threshold {
				score += t.Left
			} else {
				score += t.Right
			}
		}
		out[i] = sigmoid(score)
	}
	return out, nil
}

// Params returns the JSON-encoded fitted parameters.
func (s *Stumps) Params() ([]byte, error) {
	if !s.fitted {
		return nil, ErrNotFitted
	}
	return json.Marshal(stumpsState{Params: s.params, Base: s.base, Trees: s.trees})
}

func restoreStumps(payload []byte) (*Stumps, error) {
	var st stumpsState
	if err := json.Unmarshal(payload, &st); err != nil {
		return nil, fmt.Errorf("decode stumps snapshot: %w", err)
	}
	return &Stumps{params: st.Params, base: st.Base, trees: st.Trees, fitted: true}, nil
}

var _ Classifier = (*Stumps)(nil)
