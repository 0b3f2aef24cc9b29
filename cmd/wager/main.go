package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"

	"wager-lab/internal/analysis"
	"wager-lab/internal/backtest"
	"wager-lab/internal/config"
	"wager-lab/internal/domain"
	sigconv "wager-lab/internal/signal"
	"wager-lab/internal/stake"
	"wager-lab/internal/storage"
	"wager-lab/internal/storage/memory"
	"wager-lab/internal/storage/migrations"
	pgstore "wager-lab/internal/storage/postgres"
)

// racePrediction carries the model probabilities for one bettable event.
type racePrediction struct {
	EventID    string          `json:"event_id"`
	WinProbs   map[int]float64 `json:"win_probs"`
	PlaceProbs map[int]float64 `json:"place_probs"`
}

// outcomeRow and payoutRow are the JSON fixture formats for memory runs.
type outcomeRow struct {
	EventID     string `json:"event_id"`
	TimestampMs int64  `json:"timestamp_ms"`
	Winners     []int  `json:"winners"`
}

type payoutRow struct {
	EventID        string  `json:"event_id"`
	CombinationKey string  `json:"combination_key"`
	Amount         float64 `json:"amount"`
}

// legRow is the JSON input for pool allocation planning.
type legRow struct {
	RaceID     string `json:"race_id"`
	Candidates []struct {
		EntityID    int     `json:"entity_id"`
		Probability float64 `json:"probability"`
	} `json:"candidates"`
}

func main() {
	configPath := flag.String("config", "", "Path to YAML config (optional, defaults apply)")
	mode := flag.String("mode", "backtest", "Mode: backtest (replay stored outcomes) or plan (optimize a pool allocation)")
	runID := flag.String("run-id", "", "Run ID for the event sequence (required in backtest mode)")
	betType := flag.String("bet", "exacta", "Bet type: exacta or trio")
	predictionsPath := flag.String("predictions", "", "Path to JSON race prediction file (required in backtest mode)")
	legsPath := flag.String("legs", "", "Path to JSON pool legs file (required in plan mode)")
	outcomesPath := flag.String("outcomes", "", "Path to JSON outcome fixture (required with --use-memory)")
	payoutsPath := flag.String("payouts", "", "Path to JSON payout fixture (optional with --use-memory)")
	start := flag.Int64("start", 0, "Start of the replay range (Unix ms, inclusive)")
	end := flag.Int64("end", math.MaxInt64, "End of the replay range (Unix ms, inclusive)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage with fixtures")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (overrides config)")
	flag.Parse()

	cfg, err := loadConfig(*configPath, *useMemory, *postgresDSN)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	logger := newLogger(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-sigCh
		logger.Info().Str("signal", s.String()).Msg("shutting down")
		cancel()
	}()

	switch strings.ToLower(*mode) {
	case "plan":
		if *legsPath == "" {
			logger.Fatal().Msg("--legs is required in plan mode")
		}
		runPlan(cfg, logger, *legsPath)
	case "backtest":
		if *runID == "" {
			logger.Fatal().Msg("--run-id is required in backtest mode")
		}
		if *predictionsPath == "" {
			logger.Fatal().Msg("--predictions is required in backtest mode")
		}
		if cfg.Storage.Driver == "memory" && *outcomesPath == "" {
			logger.Fatal().Msg("--outcomes is required with in-memory storage")
		}
		*betType = strings.ToLower(*betType)
		if *betType != "exacta" && *betType != "trio" {
			logger.Fatal().Str("bet", *betType).Msg("bet type must be exacta or trio")
		}
		runBacktest(ctx, cfg, logger, *runID, *betType, *predictionsPath, *outcomesPath, *payoutsPath, *start, *end)
	default:
		logger.Fatal().Str("mode", *mode).Msg("mode must be backtest or plan")
	}
}

// runPlan optimizes a horses-per-leg allocation for a multi-leg pool bet
// and prints it without placing anything.
func runPlan(cfg *config.Config, logger zerolog.Logger, legsPath string) {
	legs, err := loadLegs(legsPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("load legs")
	}

	sizer, err := stake.NewBudgetCombinatorial(cfg.Stake.Budget, cfg.Stake.UnitCost, cfg.Stake.MaxPerLeg)
	if err != nil {
		logger.Fatal().Err(err).Msg("build budget sizer")
	}

	alloc, err := sizer.Optimize(legs)
	if err != nil {
		logger.Fatal().Err(err).Msg("optimization failed")
	}

	fmt.Println()
	fmt.Println("=== Pool Allocation ===")
	fmt.Printf("Budget:           %.0f (unit cost %.0f)\n", cfg.Stake.Budget, cfg.Stake.UnitCost)
	for i, n := range alloc.Counts {
		fmt.Printf("Leg %d (%s):  cover %d\n", i+1, legs[i].RaceID, n)
	}
	fmt.Printf("Tickets:          %d\n", alloc.Tickets)
	fmt.Printf("Cost:             %.0f\n", alloc.Cost)
	fmt.Printf("Hit Probability:  %.4f\n", alloc.HitProbability)
}

// runBacktest replays stored outcomes, betting the top-ranked combination
// per event with the full ticket budget.
func runBacktest(
	ctx context.Context,
	cfg *config.Config,
	logger zerolog.Logger,
	runID, betType, predictionsPath, outcomesPath, payoutsPath string,
	start, end int64,
) {
	outcomeStore, payoutStore, eventStore, cleanup, err := createStores(ctx, cfg, outcomesPath, payoutsPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect to storage")
	}
	defer cleanup()

	predictions, err := loadPredictions(predictionsPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("load predictions")
	}

	tickets := int(cfg.Stake.Budget / cfg.Stake.UnitCost)
	place := func(outcome *domain.RaceOutcome) (backtest.Bet, bool) {
		pred, ok := predictions[outcome.EventID]
		if !ok {
			return backtest.Bet{}, false
		}

		var combos []domain.Combination
		var rankErr error
		if betType == "exacta" {
			combos, rankErr = sigconv.RankExacta(pred.WinProbs, pred.PlaceProbs, cfg.Signal.TopN)
		} else {
			combos, rankErr = sigconv.RankTrio(pred.WinProbs, cfg.Signal.TopN)
		}
		if rankErr != nil || len(combos) == 0 {
			logger.Warn().Err(rankErr).Str("event_id", outcome.EventID).Msg("no rankable combinations")
			return backtest.Bet{}, false
		}

		top := combos[0]
		signalID := fmt.Sprintf("%s-%s", runID, outcome.EventID)
		return backtest.Bet{
			Signal: domain.Signal{
				SignalID:    signalID,
				EntityID:    outcome.EventID,
				TimestampMs: outcome.TimestampMs,
				Kind:        domain.SignalBuy,
				Confidence:  top.Probability,
				ProbUp:      top.Probability,
			},
			Combination: top,
			Stake: domain.Stake{
				SignalID:    signalID,
				Amount:      float64(tickets) * cfg.Stake.UnitCost,
				Tickets:     tickets,
				Cost:        float64(tickets) * cfg.Stake.UnitCost,
				Constraints: domain.StakeConstraints{Budget: cfg.Stake.Budget},
			},
			Tickets: tickets,
		}, true
	}

	settler := backtest.NewWagerSettler(payoutStore, logger)
	runner := backtest.NewRunner(outcomeStore, eventStore, settler, logger)

	logger.Info().
		Str("run_id", runID).
		Str("bet", betType).
		Int("tickets", tickets).
		Msg("running wager backtest")

	events, err := runner.RunWagers(ctx, runID, cfg.Backtest.InitialBalance, start, end, place)
	if err != nil {
		logger.Fatal().Err(err).Msg("backtest failed")
	}

	summary := analysis.Analyze(events, cfg.Backtest.InitialBalance, cfg.Backtest.AnnualizationFactor)
	printSummary(runID, summary)
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

func createStores(ctx context.Context, cfg *config.Config, outcomesPath, payoutsPath string) (storage.OutcomeStore, storage.PayoutStore, storage.BacktestEventStore, func(), error) {
	if cfg.Storage.Driver == "memory" {
		outcomeStore := memory.NewOutcomeStore()
		payoutStore := memory.NewPayoutStore()
		if err := loadFixtures(ctx, outcomeStore, payoutStore, outcomesPath, payoutsPath); err != nil {
			return nil, nil, nil, nil, err
		}
		return outcomeStore, payoutStore, memory.NewBacktestEventStore(), func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, nil, nil, fmt.Errorf("run postgres migrations: %w", err)
	}
	return pgstore.NewOutcomeStore(pool), pgstore.NewPayoutStore(pool), pgstore.NewBacktestEventStore(pool), pool.Close, nil
}

func loadFixtures(ctx context.Context, outcomes *memory.OutcomeStore, payouts *memory.PayoutStore, outcomesPath, payoutsPath string) error {
	b, err := os.ReadFile(outcomesPath)
	if err != nil {
		return fmt.Errorf("read outcomes: %w", err)
	}
	var outcomeRows []outcomeRow
	if err := json.Unmarshal(b, &outcomeRows); err != nil {
		return fmt.Errorf("parse outcomes: %w", err)
	}
	for _, r := range outcomeRows {
		err := outcomes.Insert(ctx, &domain.RaceOutcome{
			EventID:     r.EventID,
			TimestampMs: r.TimestampMs,
			Winners:     r.Winners,
		})
		if err != nil {
			return fmt.Errorf("insert outcome %s: %w", r.EventID, err)
		}
	}

	if payoutsPath == "" {
		return nil
	}
	b, err = os.ReadFile(payoutsPath)
	if err != nil {
		return fmt.Errorf("read payouts: %w", err)
	}
	var payoutRows []payoutRow
	if err := json.Unmarshal(b, &payoutRows); err != nil {
		return fmt.Errorf("parse payouts: %w", err)
	}
	rows := make([]*domain.Payout, 0, len(payoutRows))
	for _, r := range payoutRows {
		rows = append(rows, &domain.Payout{
			EventID:        r.EventID,
			CombinationKey: r.CombinationKey,
			Amount:         r.Amount,
		})
	}
	if len(rows) == 0 {
		return nil
	}
	return payouts.InsertBulk(ctx, rows)
}

func loadPredictions(path string) (map[string]racePrediction, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read predictions: %w", err)
	}
	var rows []racePrediction
	if err := json.Unmarshal(b, &rows); err != nil {
		return nil, fmt.Errorf("parse predictions: %w", err)
	}
	predictions := make(map[string]racePrediction, len(rows))
	for _, r := range rows {
		predictions[r.EventID] = r
	}
	return predictions, nil
}

func loadLegs(path string) ([]domain.PoolLeg, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read legs: %w", err)
	}
	var rows []legRow
	if err := json.Unmarshal(b, &rows); err != nil {
		return nil, fmt.Errorf("parse legs: %w", err)
	}

	legs := make([]domain.PoolLeg, 0, len(rows))
	for _, r := range rows {
		leg := domain.PoolLeg{RaceID: r.RaceID}
		for _, c := range r.Candidates {
			leg.Candidates = append(leg.Candidates, domain.LegCandidate{
				EntityID:    c.EntityID,
				Probability: c.Probability,
			})
		}
		legs = append(legs, leg)
	}
	return legs, nil
}

func printSummary(runID string, s domain.PerformanceSummary) {
	fmt.Println()
	fmt.Println("=== Wager Backtest Result ===")
	fmt.Printf("Run ID:             %s\n", runID)
	fmt.Printf("Total Bets:         %d\n", s.TotalTrades)
	fmt.Printf("Hits / Misses:      %d / %d\n", s.Wins, s.Losses)
	fmt.Printf("Hit Rate:           %.2f%%\n", s.WinRate*100)
	fmt.Printf("Profit Factor:      %.4f\n", s.ProfitFactor)
	fmt.Printf("Max Drawdown:       %.2f%%\n", s.MaxDrawdown*100)
	fmt.Printf("Max Losing Streak:  %d\n", s.MaxLosingStreak)
	fmt.Printf("ROI:                %.2f%%\n", s.ROI*100)
	fmt.Printf("Final Balance:      %.2f\n", s.FinalBalance)
}
