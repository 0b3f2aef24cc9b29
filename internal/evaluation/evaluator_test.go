package evaluation

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"wager-lab/internal/domain"
	"wager-lab/internal/model"
)

const dayMs = int64(24 * 60 * 60 * 1000)

// echoClassifier predicts its first feature as the probability and records
// what it was fit on, so tests can inspect fold membership.
type echoClassifier struct {
	fitX [][]float64
	fitY []int
}

func (c *echoClassifier) Fit(x [][]float64, y []int) error {
	c.fitX = x
	c.fitY = y
	return nil
}

func (c *echoClassifier) PredictProba(x [][]float64) ([]float64, error) {
	probs := make([]float64, len(x))
	for i, row := range x {
		probs[i] = row[0]
	}
	return probs, nil
}

func (c *echoClassifier) Params() ([]byte, error) { return []byte("{}"), nil }
func (c *echoClassifier) Backend() string         { return "echo" }

func makeSamples(days int) []domain.Sample {
	samples := make([]domain.Sample, 0, days)
	for i := 0; i < days; i++ {
		label := i % 2
		prob := 0.2
		if label == 1 {
			prob = 0.8
		}
		samples = append(samples, domain.Sample{
			TimestampMs: int64(i) * dayMs,
			EntityID:    "USDJPY",
			Features:    []float64{prob},
			Label:       label,
		})
	}
	return samples
}

func TestNewEvaluatorRejectsBadConfig(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
	}{
		{"zero splits", Config{NSplits: 0, TestWindow: time.Hour}},
		{"negative gap", Config{NSplits: 3, Gap: -time.Hour, TestWindow: time.Hour}},
		{"zero test window", Config{NSplits: 3, TestWindow: 0}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewEvaluator(tc.cfg, zerolog.Nop())
			if !errors.Is(err, ErrInvalidParameter) {
				t.Errorf("expected ErrInvalidParameter, got %v", err)
			}
		})
	}
}

func TestEvaluateInsufficientData(t *testing.T) {
	ev, err := NewEvaluator(Config{NSplits: 3, TestWindow: time.Hour}, zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Many samples but a single unique timestamp.
	samples := []domain.Sample{
		{TimestampMs: 100, Features: []float64{0.5}, Label: 1},
		{TimestampMs: 100, Features: []float64{0.4}, Label: 0},
	}
	factory := func() model.Classifier { return &echoClassifier{} }

	_, err = ev.Evaluate(context.Background(), samples, factory, []string{"f0"})
	if !errors.Is(err, ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
}

func TestEvaluateNoLookaheadLeakage(t *testing.T) {
	gap := 2 * 24 * time.Hour
	ev, err := NewEvaluator(Config{NSplits: 3, Gap: gap, TestWindow: 5 * 24 * time.Hour}, zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	samples := makeSamples(40)
	var fitted []*echoClassifier
	factory := func() model.Classifier {
		c := &echoClassifier{}
		fitted = append(fitted, c)
		return c
	}

	report, err := ev.Evaluate(context.Background(), samples, factory, []string{"f0"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Folds) == 0 {
		t.Fatal("expected at least one scored fold")
	}

	uniq := uniqueTimestamps(func() []int64 {
		ts := make([]int64, len(samples))
		for i, s := range samples {
			ts[i] = s.TimestampMs
		}
		return ts
	}())
	folds := makeFolds(uniq, 3, gap.Milliseconds(), (5 * 24 * time.Hour).Milliseconds())

	for _, f := range folds {
		var trainTs, testTs []int64
		for _, s := range samples {
			if s.TimestampMs <= f.TrainEndMs {
				trainTs = append(trainTs, s.TimestampMs)
			}
			if s.TimestampMs > f.GapEndMs && s.TimestampMs <= f.TestEndMs {
				testTs = append(testTs, s.TimestampMs)
			}
		}
		if !NoLeakage(f, gap.Milliseconds(), trainTs, testTs) {
			t.Errorf("fold %d: training data overlaps test window", f.Index)
		}
	}
}

func TestEvaluateFoldSizesExpand(t *testing.T) {
	ev, err := NewEvaluator(Config{NSplits: 3, TestWindow: 5 * 24 * time.Hour}, zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	report, err := ev.Evaluate(context.Background(), makeSamples(40), func() model.Classifier { return &echoClassifier{} }, []string{"f0"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 1; i < len(report.Folds); i++ {
		if report.Folds[i].TrainSize <= report.Folds[i-1].TrainSize {
			t.Errorf("fold %d train size %d does not exceed fold %d train size %d",
				i, report.Folds[i].TrainSize, i-1, report.Folds[i-1].TrainSize)
		}
	}
}

func TestEvaluateOrderIndependent(t *testing.T) {
	ev, err := NewEvaluator(Config{NSplits: 3, TestWindow: 5 * 24 * time.Hour}, zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	factory := func() model.Classifier { return &echoClassifier{} }

	ordered := makeSamples(40)
	shuffled := make([]domain.Sample, len(ordered))
	copy(shuffled, ordered)
	// Reverse: worst-case disorder without randomness.
	for i, j := 0, len(shuffled)-1; i < j; i, j = i+1, j-1 {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}

	r1, err := ev.Evaluate(context.Background(), ordered, factory, []string{"f0"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r2, err := ev.Evaluate(context.Background(), shuffled, factory, []string{"f0"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(r1.Folds) != len(r2.Folds) {
		t.Fatalf("fold count differs: %d vs %d", len(r1.Folds), len(r2.Folds))
	}
	for i := range r1.Folds {
		if r1.Folds[i] != r2.Folds[i] {
			t.Errorf("fold %d differs between orderings: %+v vs %+v", i, r1.Folds[i], r2.Folds[i])
		}
	}
	if r1.MeanAUC != r2.MeanAUC || r1.MeanLogLoss != r2.MeanLogLoss {
		t.Errorf("aggregate metrics differ between orderings")
	}
}

func TestEvaluateSkipsEmptyTestWindow(t *testing.T) {
	// Gap larger than the whole range pushes every test window past the data.
	ev, err := NewEvaluator(Config{NSplits: 2, Gap: 100 * 24 * time.Hour, TestWindow: 24 * time.Hour}, zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	report, err := ev.Evaluate(context.Background(), makeSamples(10), func() model.Classifier { return &echoClassifier{} }, []string{"f0"})
	if err != nil {
		t.Fatalf("expected skipped folds, not an error, got %v", err)
	}
	if len(report.Folds) != 0 {
		t.Errorf("expected all folds skipped, got %d scored", len(report.Folds))
	}
	if !math.IsNaN(report.MeanAUC) {
		t.Errorf("expected NaN mean AUC with no scored folds, got %v", report.MeanAUC)
	}
}

func TestEvaluateFinalModelUsesAllData(t *testing.T) {
	ev, err := NewEvaluator(Config{NSplits: 2, TestWindow: 5 * 24 * time.Hour}, zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	samples := makeSamples(30)
	report, err := ev.Evaluate(context.Background(), samples, func() model.Classifier { return &echoClassifier{} }, []string{"f0"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	final, ok := report.Final.Classifier.(*echoClassifier)
	if !ok {
		t.Fatal("expected final model to be the factory's classifier")
	}
	if len(final.fitY) != len(samples) {
		t.Errorf("expected final refit on all %d samples, got %d", len(samples), len(final.fitY))
	}
	if len(report.Final.FeatureNames) != 1 || report.Final.FeatureNames[0] != "f0" {
		t.Errorf("expected feature names carried on final model, got %v", report.Final.FeatureNames)
	}
}

func TestEvaluateSingleClassFoldExcludedFromMean(t *testing.T) {
	// First half all label 0, second half alternating: early folds test on
	// a single class and must score NaN AUC without poisoning the mean.
	samples := make([]domain.Sample, 0, 40)
	for i := 0; i < 40; i++ {
		label := 0
		if i >= 20 {
			label = i % 2
		}
		prob := 0.2
		if label == 1 {
			prob = 0.8
		}
		samples = append(samples, domain.Sample{
			TimestampMs: int64(i) * dayMs,
			Features:    []float64{prob},
			Label:       label,
		})
	}

	ev, err := NewEvaluator(Config{NSplits: 3, TestWindow: 5 * 24 * time.Hour}, zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	report, err := ev.Evaluate(context.Background(), samples, func() model.Classifier { return &echoClassifier{} }, []string{"f0"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sawNaN := false
	for _, f := range report.Folds {
		if math.IsNaN(f.AUC) {
			sawNaN = true
		}
	}
	if !sawNaN {
		t.Fatal("expected at least one single-class fold with NaN AUC")
	}
	if math.IsNaN(report.MeanAUC) {
		t.Errorf("expected finite mean AUC excluding NaN folds, got NaN")
	}
}

func TestEvaluateContextCancelled(t *testing.T) {
	ev, err := NewEvaluator(Config{NSplits: 2, TestWindow: 5 * 24 * time.Hour}, zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = ev.Evaluate(ctx, makeSamples(20), func() model.Classifier { return &echoClassifier{} }, []string{"f0"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
