package evaluation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"wager-lab/internal/domain"
	"wager-lab/internal/model"
)

// Evaluation errors.
var (
	// ErrInsufficientData is returned when fewer than two unique
	// timestamps exist, so no walk-forward split is possible.
	ErrInsufficientData = errors.New("insufficient data for walk-forward evaluation")

	// ErrInvalidParameter is returned for out-of-range evaluator settings.
	ErrInvalidParameter = errors.New("invalid evaluator parameter")
)

// Config holds walk-forward settings. The config is immutable; a copy is
// taken at construction.
type Config struct {
	NSplits    int
	Gap        time.Duration // purge gap between train end and test start
	TestWindow time.Duration // length of each out-of-sample window
}

// Report is the output of one evaluation run: per-fold out-of-sample
// metrics plus the final model refit on the entire sample set. The final
// model, not any fold model, is what goes to production; fold models only
// score the approach.
type Report struct {
	Folds       []domain.FoldMetrics
	MeanAUC     float64 // NaN-excluded mean across scored folds
	MeanLogLoss float64
	Final       model.Trained
}

// Evaluator runs expanding-window walk-forward cross-validation.
type Evaluator struct {
	cfg Config
	log zerolog.Logger
}

// NewEvaluator validates the config and builds an evaluator.
// The logger may be zerolog.Nop().
func NewEvaluator(cfg Config, log zerolog.Logger) (*Evaluator, error) {
	if cfg.NSplits < 1 {
		return nil, fmt.Errorf("%w: n_splits %d, want >= 1", ErrInvalidParameter, cfg.NSplits)
	}
	if cfg.Gap < 0 {
		return nil, fmt.Errorf("%w: gap %v, want >= 0", ErrInvalidParameter, cfg.Gap)
	}
	if cfg.TestWindow <= 0 {
		return nil, fmt.Errorf("%w: test_window %v, want > 0", ErrInvalidParameter, cfg.TestWindow)
	}
	return &Evaluator{cfg: cfg, log: log}, nil
}

// Evaluate scores the model factory with walk-forward CV over the samples
// and refits a final model on the full set.
//
// Samples are copied and stably sorted by timestamp before splitting, so
// caller order never changes fold boundaries. Folds whose test window is
// empty are skipped and logged, not failed; folds whose test window holds
// a single class score NaN AUC and are excluded from MeanAUC.
func (e *Evaluator) Evaluate(ctx context.Context, samples []domain.Sample, factory model.Factory, featureNames []string) (*Report, error) {
	sorted := make([]domain.Sample, len(samples))
	copy(sorted, samples)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TimestampMs < sorted[j].TimestampMs
	})

	timestamps := make([]int64, len(sorted))
	for i, s := range sorted {
		timestamps[i] = s.TimestampMs
	}
	uniq := uniqueTimestamps(timestamps)
	if len(uniq) < 2 {
		return nil, fmt.Errorf("%w: %d unique timestamps", ErrInsufficientData, len(uniq))
	}

	folds := makeFolds(uniq, e.cfg.NSplits, e.cfg.Gap.Milliseconds(), e.cfg.TestWindow.Milliseconds())

	report := &Report{}
	for _, fold := range folds {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		trainX, trainY := sliceRange(sorted, minInt64, fold.TrainEndMs)
		testX, testY := sliceRange(sorted, fold.GapEndMs, fold.TestEndMs)

		if len(testY) == 0 {
			e.log.Info().
				Int("fold", fold.Index).
				Int64("train_end_ms", fold.TrainEndMs).
				Msg("skipping fold with empty test window")
			continue
		}

		clf := factory()
		if err := clf.Fit(trainX, trainY); err != nil {
			return nil, fmt.Errorf("fit fold %d: %w", fold.Index, err)
		}
		probs, err := clf.PredictProba(testX)
		if err != nil {
			return nil, fmt.Errorf("predict fold %d: %w", fold.Index, err)
		}

		fm := domain.FoldMetrics{
			Fold:      fold.Index,
			AUC:       AUC(testY, probs),
			LogLoss:   LogLoss(testY, probs),
			TrainSize: len(trainY),
			TestSize:  len(testY),
		}
		report.Folds = append(report.Folds, fm)

		e.log.Debug().
			Int("fold", fm.Fold).
			Float64("auc", fm.AUC).
			Float64("logloss", fm.LogLoss).
			Int("train_size", fm.TrainSize).
			Int("test_size", fm.TestSize).
			Msg("fold scored")
	}

	aucs := make([]float64, len(report.Folds))
	losses := make([]float64, len(report.Folds))
	for i, fm := range report.Folds {
		aucs[i] = fm.AUC
		losses[i] = fm.LogLoss
	}
	report.MeanAUC = nanMean(aucs)
	report.MeanLogLoss = nanMean(losses)

	// Refit on the entire record set: the deployed model sees all data,
	// the fold scores above estimate how that recipe generalizes.
	allX, allY := sliceRange(sorted, minInt64, maxInt64)
	final := factory()
	if err := final.Fit(allX, allY); err != nil {
		return nil, fmt.Errorf("fit final model: %w", err)
	}
	report.Final = model.Trained{Classifier: final, FeatureNames: featureNames}

	return report, nil
}

// NoLeakage verifies the walk-forward property for a fold against the
// samples it would consume: every training timestamp plus the gap strictly
// precedes every test timestamp. Exposed for tests and audits.
func NoLeakage(fold Fold, gapMs int64, trainTs, testTs []int64) bool {
	if len(trainTs) == 0 || len(testTs) == 0 {
		return true
	}
	maxTrain := trainTs[0]
	for _, ts := range trainTs {
		if ts > maxTrain {
			maxTrain = ts
		}
	}
	minTest := testTs[0]
	for _, ts := range testTs {
		if ts < minTest {
			minTest = ts
		}
	}
	return maxTrain+gapMs < minTest
}

const (
	minInt64 = int64(-1) << 63
	maxInt64 = int64(1<<63 - 1)
)

// sliceRange collects features and labels for samples with timestamp in
// (after, until]. after == minInt64 makes the range inclusive from the start.
func sliceRange(sorted []domain.Sample, after, until int64) ([][]float64, []int) {
	var x [][]float64
	var y []int
	for _, s := range sorted {
		if s.TimestampMs > after && s.TimestampMs <= until {
			x = append(x, s.Features)
			y = append(y, s.Label)
		}
	}
	return x, y
}
