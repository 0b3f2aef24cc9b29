package evaluation

import (
	"math"
	"sort"
)

// probEps clamps predicted probabilities away from 0 and 1 for log-loss.
const probEps = 1e-7

// AUC computes the ROC area under the curve via the rank-sum statistic,
// with average ranks on tied scores. Returns NaN when labels contain a
// single class; AUC is undefined there and callers exclude such folds from
// aggregation instead of failing.
func AUC(labels []int, probs []float64) float64 {
	n := len(labels)
	pos := 0
	for _, y := range labels {
		if y == 1 {
			pos++
		}
	}
	neg := n - pos
	if pos == 0 || neg == 0 {
		return math.NaN()
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return probs[idx[a]] < probs[idx[b]] })

	// Average ranks across tied scores, accumulate the positive-class rank sum.
	rankSum := 0.0
	i := 0
	for i < n {
		j := i
		for j+1 < n && probs[idx[j+1]] == probs[idx[i]] {
			j++
		}
		avgRank := float64(i+j)/2 + 1 // ranks are 1-based
		for k := i; k <= j; k++ {
			if labels[idx[k]] == 1 {
				rankSum += avgRank
			}
		}
		i = j + 1
	}

	u := rankSum - float64(pos)*float64(pos+1)/2
	return u / (float64(pos) * float64(neg))
}

// LogLoss computes the mean binary cross-entropy with probabilities
// clamped to [probEps, 1-probEps].
func LogLoss(labels []int, probs []float64) float64 {
	if len(labels) == 0 {
		return 0
	}
	sum := 0.0
	for i, y := range labels {
		p := math.Min(math.Max(probs[i], probEps), 1-probEps)
		if y == 1 {
			sum += -math.Log(p)
		} else {
			sum += -math.Log(1 - p)
		}
	}
	return sum / float64(len(labels))
}

// nanMean averages the finite entries, skipping NaN. Returns NaN when
// every entry is NaN or the slice is empty.
func nanMean(values []float64) float64 {
	sum := 0.0
	n := 0
	for _, v := range values {
		if !math.IsNaN(v) {
			sum += v
			n++
		}
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}
