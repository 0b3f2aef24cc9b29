package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"wager-lab/internal/config"
	"wager-lab/internal/domain"
	"wager-lab/internal/evaluation"
	"wager-lab/internal/model"
	"wager-lab/internal/storage"
	"wager-lab/internal/storage/memory"
	"wager-lab/internal/storage/migrations"
	pgstore "wager-lab/internal/storage/postgres"
)

// sampleFile is the JSON input format: a feature-name header plus one row
// per labeled observation.
type sampleFile struct {
	FeatureNames []string `json:"feature_names"`
	Samples      []struct {
		TimestampMs int64     `json:"timestamp_ms"`
		EntityID    string    `json:"entity_id"`
		Features    []float64 `json:"features"`
		Label       int       `json:"label"`
	} `json:"samples"`
}

func main() {
	configPath := flag.String("config", "", "Path to YAML config (optional, defaults apply)")
	samplesPath := flag.String("samples", "", "Path to JSON sample file (required)")
	modelName := flag.String("model-name", "", "Model name for persistence (defaults to config model.name)")
	version := flag.String("version", "", "Snapshot version (defaults to a timestamp)")
	persist := flag.Bool("persist", false, "Persist the final model snapshot to storage")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (overrides config)")
	outputJSON := flag.Bool("json", false, "Output fold metrics as JSON")
	flag.Parse()

	cfg, err := loadConfig(*configPath, *useMemory, *postgresDSN)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	logger := newLogger(cfg)

	if *samplesPath == "" {
		logger.Fatal().Msg("--samples is required")
	}
	name := *modelName
	if name == "" {
		name = cfg.Model.Name
	}
	if *persist && name == "" {
		logger.Fatal().Msg("--model-name (or model.name in config) is required with --persist")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
		cancel()
	}()

	samples, featureNames, err := loadSamples(*samplesPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("load samples")
	}

	factory, err := model.NewFactory(cfg.Model.Backend)
	if err != nil {
		logger.Fatal().Err(err).Msg("select model backend")
	}

	evaluator, err := evaluation.NewEvaluator(evaluation.Config{
		NSplits:    cfg.Evaluation.NSplits,
		Gap:        cfg.Evaluation.Gap,
		TestWindow: cfg.Evaluation.TestWindow,
	}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("build evaluator")
	}

	logger.Info().
		Int("samples", len(samples)).
		Str("backend", cfg.Model.Backend).
		Int("n_splits", cfg.Evaluation.NSplits).
		Msg("running walk-forward evaluation")

	report, err := evaluator.Evaluate(ctx, samples, factory, featureNames)
	if err != nil {
		logger.Fatal().Err(err).Msg("evaluation failed")
	}

	if *outputJSON {
		out, _ := json.MarshalIndent(struct {
			Folds       []domain.FoldMetrics `json:"folds"`
			MeanAUC     float64              `json:"mean_auc"`
			MeanLogLoss float64              `json:"mean_log_loss"`
		}{report.Folds, report.MeanAUC, report.MeanLogLoss}, "", "  ")
		fmt.Println(string(out))
	} else {
		printReport(report)
	}

	if !*persist {
		return
	}

	store, cleanup, err := snapshotStore(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect to storage")
	}
	defer cleanup()

	v := *version
	if v == "" {
		v = time.Now().UTC().Format("20060102T150405")
	}

	registry := model.NewRegistry(store)
	snap, err := registry.Save(ctx, name, v, report.Final, report.Folds)
	if err != nil {
		logger.Fatal().Err(err).Msg("persist model snapshot")
	}
	logger.Info().
		Str("name", snap.Name).
		Str("version", snap.Version).
		Str("backend", snap.Backend).
		Msg("model snapshot saved")
}

func loadConfig(path string, useMemory bool, postgresDSN string) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if path != "" {
		cfg, err = config.LoadWithEnv(path)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = config.Default()
	}
	if postgresDSN != "" {
		cfg.Storage.PostgresDSN = postgresDSN
		cfg.Storage.Driver = "database"
	}
	if useMemory {
		cfg.Storage.Driver = "memory"
	}
	return cfg, cfg.Validate()
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
	if cfg.Log.Pretty {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	return logger
}

func loadSamples(path string) ([]domain.Sample, []string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read samples: %w", err)
	}
	var file sampleFile
	if err := json.Unmarshal(b, &file); err != nil {
		return nil, nil, fmt.Errorf("parse samples: %w", err)
	}
	if len(file.FeatureNames) == 0 {
		return nil, nil, fmt.Errorf("sample file has no feature_names")
	}

	samples := make([]domain.Sample, 0, len(file.Samples))
	for i, row := range file.Samples {
		if len(row.Features) != len(file.FeatureNames) {
			return nil, nil, fmt.Errorf("sample %d has %d features, want %d", i, len(row.Features), len(file.FeatureNames))
		}
		samples = append(samples, domain.Sample{
			TimestampMs: row.TimestampMs,
			EntityID:    row.EntityID,
			Features:    row.Features,
			Label:       row.Label,
		})
	}
	return samples, file.FeatureNames, nil
}

// snapshotStore picks the model snapshot store per the storage driver.
func snapshotStore(ctx context.Context, cfg *config.Config) (storage.ModelSnapshotStore, func(), error) {
	if cfg.Storage.Driver == "memory" {
		return memory.NewModelSnapshotStore(), func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}
	return pgstore.NewModelSnapshotStore(pool), pool.Close, nil
}

func printReport(r *evaluation.Report) {
	fmt.Println()
	fmt.Println("=== Walk-Forward Evaluation ===")
	fmt.Printf("%-6s %-10s %-10s %-10s %-10s\n", "Fold", "Train", "Test", "AUC", "LogLoss")
	for _, f := range r.Folds {
		fmt.Printf("%-6d %-10d %-10d %-10.4f %-10.4f\n", f.Fold, f.TrainSize, f.TestSize, f.AUC, f.LogLoss)
	}
	fmt.Println()
	fmt.Printf("Mean AUC:      %.4f\n", r.MeanAUC)
	fmt.Printf("Mean LogLoss:  %.4f\n", r.MeanLogLoss)
}
