package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/rs/zerolog"

	"wager-lab/internal/analysis"
	"wager-lab/internal/backtest"
	"wager-lab/internal/config"
	"wager-lab/internal/domain"
	sigconv "wager-lab/internal/signal"
	"wager-lab/internal/stake"
	"wager-lab/internal/storage"
	chstore "wager-lab/internal/storage/clickhouse"
	"wager-lab/internal/storage/memory"
	"wager-lab/internal/storage/migrations"
	pgstore "wager-lab/internal/storage/postgres"
)

// prediction is one model probability keyed to a candle open time.
type prediction struct {
	TimestampMs int64   `json:"timestamp_ms"`
	ProbUp      float64 `json:"prob_up"`
}

// candleRow is the JSON fixture format for candle series.
type candleRow struct {
	Instrument  string  `json:"instrument"`
	Granularity string  `json:"granularity"`
	TimestampMs int64   `json:"timestamp_ms"`
	Open        float64 `json:"open"`
	High        float64 `json:"high"`
	Low         float64 `json:"low"`
	Close       float64 `json:"close"`
	Volume      float64 `json:"volume"`
}

func main() {
	configPath := flag.String("config", "", "Path to YAML config (optional, defaults apply)")
	runID := flag.String("run-id", "", "Run ID for the event sequence (required)")
	instrument := flag.String("instrument", "", "Instrument to replay, e.g. USD_JPY (required)")
	granularity := flag.String("granularity", "H1", "Candle granularity")
	predictionsPath := flag.String("predictions", "", "Path to JSON prediction file (required)")
	candlesPath := flag.String("candles", "", "Path to JSON candle fixture (required with --use-memory)")
	maxHoldBars := flag.Int("max-hold-bars", 24, "Forward window length in bars before timeout exit")
	spread := flag.Float64("spread", 0, "Spread in price units charged per unit traded")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage with candle fixtures")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (overrides config)")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string (overrides config)")
	flag.Parse()

	cfg, err := loadConfig(*configPath, *useMemory, *postgresDSN, *clickhouseDSN)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	logger := newLogger(cfg)

	if *runID == "" {
		logger.Fatal().Msg("--run-id is required")
	}
	if *instrument == "" {
		logger.Fatal().Msg("--instrument is required")
	}
	if *predictionsPath == "" {
		logger.Fatal().Msg("--predictions is required")
	}
	if cfg.Storage.Driver == "memory" && *candlesPath == "" {
		logger.Fatal().Msg("--candles is required with in-memory storage")
	}
	if cfg.Storage.Driver == "database" && cfg.Storage.ClickhouseDSN == "" {
		logger.Fatal().Msg("clickhouse DSN is required with the database driver (candle series)")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-sigCh
		logger.Info().Str("signal", s.String()).Msg("shutting down")
		cancel()
	}()

	candleStore, eventStore, cleanup, err := createStores(ctx, cfg, *candlesPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect to storage")
	}
	defer cleanup()

	candles, err := candleStore.GetByInstrument(ctx, *instrument, *granularity)
	if err != nil {
		logger.Fatal().Err(err).Msg("load candles")
	}
	if len(candles) == 0 {
		logger.Fatal().Str("instrument", *instrument).Msg("no candles for instrument")
	}

	predictions, err := loadPredictions(*predictionsPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("load predictions")
	}

	converter, err := sigconv.NewConverter(cfg.Signal.Threshold)
	if err != nil {
		logger.Fatal().Err(err).Msg("build signal converter")
	}
	sizer, err := stake.NewFixedFractional(cfg.Stake.RiskPct, cfg.Stake.MinStake, cfg.Stake.MaxPosition, cfg.Stake.Unit)
	if err != nil {
		logger.Fatal().Err(err).Msg("build stake sizer")
	}

	steps := buildSteps(cfg, converter, sizer, *instrument, *runID, candles, predictions, *maxHoldBars, *spread)
	logger.Info().
		Str("run_id", *runID).
		Str("instrument", *instrument).
		Int("predictions", len(predictions)).
		Int("steps", len(steps)).
		Msg("running fx backtest")

	runner := backtest.NewRunner(nil, eventStore, nil, logger)
	events, err := runner.RunFX(ctx, *runID, cfg.Backtest.InitialBalance, steps)
	if err != nil {
		logger.Fatal().Err(err).Msg("backtest failed")
	}

	summary := analysis.Analyze(events, cfg.Backtest.InitialBalance, cfg.Backtest.AnnualizationFactor)
	printSummary(*runID, summary)
}

// buildSteps turns predictions into sized FX steps. HOLD signals and
// declined stakes place no position; stakes are sized at the starting
// balance since the step list is fixed before the run.
func buildSteps(
	cfg *config.Config,
	converter *sigconv.Converter,
	sizer *stake.FixedFractional,
	instrument, runID string,
	candles []*domain.Candle,
	predictions []prediction,
	maxHoldBars int,
	spread float64,
) []backtest.FXStep {
	index := make(map[int64]int, len(candles))
	for i, c := range candles {
		index[c.TimestampMs] = i
	}

	steps := make([]backtest.FXStep, 0, len(predictions))
	for _, p := range predictions {
		i, ok := index[p.TimestampMs]
		if !ok {
			continue
		}

		signalID := fmt.Sprintf("%s-%d", runID, p.TimestampMs)
		sig := converter.Signal(signalID, instrument, p.TimestampMs, p.ProbUp)
		if sig.Kind == domain.SignalHold {
			continue
		}

		stk := sizer.Size(signalID, cfg.Backtest.InitialBalance)
		if stk.IsZero() {
			continue
		}

		direction := 1
		if sig.Kind == domain.SignalSell {
			direction = -1
		}

		// Unit sizing by stop distance: the committed amount is the loss
		// taken if the stop fires.
		units := int(stk.Amount / cfg.Backtest.StopLoss)
		if float64(units) > cfg.Stake.MaxPosition {
			units = int(cfg.Stake.MaxPosition)
		}
		if units < 1 {
			continue
		}
		stk.Units = units

		entry := candles[i].Open
		end := i + maxHoldBars
		if end > len(candles) {
			end = len(candles)
		}

		steps = append(steps, backtest.FXStep{
			TimestampMs: p.TimestampMs,
			Signal:      sig,
			Stake:       stk,
			Trade: backtest.FXTrade{
				EntryPrice: entry,
				Direction:  direction,
				Units:      units,
				StopLoss:   cfg.Backtest.StopLoss,
				TakeProfit: cfg.Backtest.TakeProfit,
				SpreadCost: spread * float64(units),
			},
			Window: candles[i:end],
		})
	}

	sort.Slice(steps, func(a, b int) bool { return steps[a].TimestampMs < steps[b].TimestampMs })
	return steps
}

func loadConfig(path string, useMemory bool, postgresDSN, clickhouseDSN string) (*config.Config, error) {
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
	if clickhouseDSN != "" {
		cfg.Storage.ClickhouseDSN = clickhouseDSN
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

// createStores wires candle and event storage for the configured driver:
// ClickHouse holds the candle series, PostgreSQL the event ledger.
func createStores(ctx context.Context, cfg *config.Config, candlesPath string) (storage.CandleStore, storage.BacktestEventStore, func(), error) {
	if cfg.Storage.Driver == "memory" {
		candleStore := memory.NewCandleStore()
		if err := loadCandleFixture(ctx, candleStore, candlesPath); err != nil {
			return nil, nil, nil, err
		}
		return candleStore, memory.NewBacktestEventStore(), func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, nil, fmt.Errorf("run postgres migrations: %w", err)
	}

	conn, err := migrations.RunClickhouseMigrations(ctx, cfg.Storage.ClickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
	}

	cleanup := func() {
		conn.Close()
		pool.Close()
	}
	return chstore.NewCandleStore(conn), pgstore.NewBacktestEventStore(pool), cleanup, nil
}

func loadPredictions(path string) ([]prediction, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read predictions: %w", err)
	}
	var predictions []prediction
	if err := json.Unmarshal(b, &predictions); err != nil {
		return nil, fmt.Errorf("parse predictions: %w", err)
	}
	return predictions, nil
}

func loadCandleFixture(ctx context.Context, store *memory.CandleStore, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read candles: %w", err)
	}
	var rows []candleRow
	if err := json.Unmarshal(b, &rows); err != nil {
		return fmt.Errorf("parse candles: %w", err)
	}

	candles := make([]*domain.Candle, 0, len(rows))
	for _, r := range rows {
		candles = append(candles, &domain.Candle{
			Instrument:  r.Instrument,
			Granularity: r.Granularity,
			TimestampMs: r.TimestampMs,
			Open:        r.Open,
			High:        r.High,
			Low:         r.Low,
			Close:       r.Close,
			Volume:      r.Volume,
		})
	}
	return store.InsertBulk(ctx, candles)
}

func printSummary(runID string, s domain.PerformanceSummary) {
	fmt.Println()
	fmt.Println("=== Backtest Result ===")
	fmt.Printf("Run ID:             %s\n", runID)
	fmt.Printf("Total Trades:       %d\n", s.TotalTrades)
	fmt.Printf("Wins / Losses:      %d / %d\n", s.Wins, s.Losses)
	fmt.Printf("Win Rate:           %.2f%%\n", s.WinRate*100)
	fmt.Printf("Profit Factor:      %.4f\n", s.ProfitFactor)
	fmt.Printf("Sharpe Ratio:       %.4f\n", s.SharpeRatio)
	fmt.Printf("Max Drawdown:       %.2f%%\n", s.MaxDrawdown*100)
	fmt.Printf("Max Losing Streak:  %d\n", s.MaxLosingStreak)
	fmt.Printf("ROI:                %.2f%%\n", s.ROI*100)
	fmt.Printf("Final Balance:      %.2f\n", s.FinalBalance)
}
