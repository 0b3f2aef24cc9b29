package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"wager-lab/internal/config"
	"wager-lab/internal/reporting"
	"wager-lab/internal/storage/migrations"
	pgstore "wager-lab/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config (optional, defaults apply)")
	runID := flag.String("run-id", "", "Run ID to report on")
	modelName := flag.String("model-name", "", "Attach cross-validation metrics for this model (defaults to config model.name)")
	list := flag.Bool("list", false, "List stored run IDs and exit")
	format := flag.String("format", "markdown", "Output format: markdown or csv")
	outputDir := flag.String("output-dir", "", "Write the report under this directory instead of stdout")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (overrides config)")
	flag.Parse()

	cfg, err := loadConfig(*configPath, *postgresDSN)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	logger := newLogger(cfg)

	if cfg.Storage.Driver != "database" {
		logger.Fatal().Msg("reporting reads persisted runs; set --postgres-dsn or storage.driver: database")
	}
	*format = strings.ToLower(*format)
	if *format != "markdown" && *format != "csv" {
		logger.Fatal().Str("format", *format).Msg("format must be markdown or csv")
	}

	ctx := context.Background()

	pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect to postgres")
	}
	defer pool.Close()
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("run migrations")
	}

	eventStore := pgstore.NewBacktestEventStore(pool)
	snapshotStore := pgstore.NewModelSnapshotStore(pool)

	if *list {
		ids, err := eventStore.ListRunIDs(ctx)
		if err != nil {
			logger.Fatal().Err(err).Msg("list runs")
		}
		for _, id := range ids {
			fmt.Println(id)
		}
		return
	}

	if *runID == "" {
		logger.Fatal().Msg("--run-id is required (use --list to see stored runs)")
	}
	name := *modelName
	if name == "" {
		name = cfg.Model.Name
	}

	gen := reporting.NewGenerator(eventStore, snapshotStore)
	report, err := gen.Generate(ctx, *runID, name, cfg.Backtest.InitialBalance, cfg.Backtest.AnnualizationFactor)
	if err != nil {
		logger.Fatal().Err(err).Msg("generate report")
	}

	var rendered, filename string
	if *format == "csv" {
		rendered = reporting.RenderCSV(report.Events)
		filename = fmt.Sprintf("%s.csv", *runID)
	} else {
		rendered = reporting.RenderMarkdown(report)
		filename = fmt.Sprintf("%s.md", *runID)
	}

	if *outputDir == "" {
		fmt.Print(rendered)
		return
	}

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		logger.Fatal().Err(err).Msg("create output directory")
	}
	path := filepath.Join(*outputDir, filename)
	if err := os.WriteFile(path, []byte(rendered), 0o644); err != nil {
		logger.Fatal().Err(err).Msg("write report")
	}
	logger.Info().Str("path", path).Msg("report written")
}

func loadConfig(path, postgresDSN string) (*config.Config, error) {
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
