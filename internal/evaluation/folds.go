package evaluation

// Fold is one walk-forward split. Training covers all samples with
// timestamp <= TrainEndMs; the test window is (GapEndMs, TestEndMs].
// The gap keeps labels whose horizon crosses the boundary out of the
// test window.
type Fold struct {
	Index      int
	TrainEndMs int64
	GapEndMs   int64
	TestEndMs  int64
}

// makeFolds splits the sorted unique timestamps into nSplits+1 contiguous
// equal-count blocks and derives one expanding-window fold per split.
// Blocks are counted over unique timestamps, not raw rows, so
// high-frequency days do not dominate the boundaries.
func makeFolds(uniq []int64, nSplits int, gapMs, testWindowMs int64) []Fold {
	total := len(uniq)
	splitSize := total / (nSplits + 1)

	folds := make([]Fold, 0, nSplits)
	for k := 0; k < nSplits; k++ {
		endIdx := splitSize * (k + 1)
		if endIdx > total-1 {
			endIdx = total - 1
		}
		trainEnd := uniq[endIdx]
		gapEnd := trainEnd + gapMs
		folds = append(folds, Fold{
			Index:      k,
			TrainEndMs: trainEnd,
			GapEndMs:   gapEnd,
			TestEndMs:  gapEnd + testWindowMs,
		})
	}
	return folds
}

// uniqueTimestamps returns the sorted distinct timestamps of a
// chronologically sorted sample sequence.
func uniqueTimestamps(timestamps []int64) []int64 {
	uniq := make([]int64, 0, len(timestamps))
	for i, ts := range timestamps {
		if i == 0 || ts != timestamps[i-1] {
			uniq = append(uniq, ts)
		}
	}
	return uniq
}
