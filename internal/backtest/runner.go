package backtest

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"wager-lab/internal/domain"
	"wager-lab/internal/storage"
)

// Bet is one combination wager placed against an upcoming outcome.
type Bet struct {
	Signal      domain.Signal
	Combination domain.Combination
	Stake       domain.Stake
	Tickets     int
}

// BetFunc decides the wager for one outcome. Returning false skips the
// event without recording it. The function only sees the outcome's
// identity and timestamp fields it needs to place the bet; winners are
// resolved by the runner after the bet is fixed.
type BetFunc func(outcome *domain.RaceOutcome) (Bet, bool)

// FXStep is one FX signal with its resolved position and forward window.
type FXStep struct {
	TimestampMs int64
	Signal      domain.Signal
	Stake       domain.Stake
	Trade       FXTrade
	Window      []*domain.Candle
}

// Runner drives full backtest runs over stored outcomes and persists the
// resulting event sequences.
type Runner struct {
	outcomes storage.OutcomeStore
	events   storage.BacktestEventStore
	settler  *WagerSettler
	log      zerolog.Logger
}

// NewRunner creates a runner over the given stores.
func NewRunner(outcomes storage.OutcomeStore, events storage.BacktestEventStore, settler *WagerSettler, log zerolog.Logger) *Runner {
	return &Runner{outcomes: outcomes, events: events, settler: settler, log: log}
}

// RunWagers replays all outcomes in [start, end], placing one bet per
// outcome through place, settling each against the payout table, and
// persisting the closed event sequence under runID.
func (r *Runner) RunWagers(ctx context.Context, runID string, initialBalance float64, start, end int64, place BetFunc) ([]*domain.BacktestEvent, error) {
	outcomes, err := r.outcomes.GetByTimeRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("run %s: load outcomes: %w", runID, err)
	}

	engine, err := NewEngine(runID, initialBalance, r.log)
	if err != nil {
		return nil, err
	}

	for _, outcome := range outcomes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		bet, ok := place(outcome)
		if !ok {
			continue
		}

		settlement, err := r.settler.Settle(ctx, outcome, bet.Combination, bet.Tickets)
		if err != nil {
			return nil, fmt.Errorf("run %s: %w", runID, err)
		}
		if _, err := engine.Step(outcome.TimestampMs, bet.Signal, bet.Stake, settlement.Payout, settlement.IsHit, settlement.ExitReason); err != nil {
			return nil, err
		}
	}

	return r.closeAndPersist(ctx, runID, engine)
}

// RunFX replays a chronological sequence of FX steps, resolving each exit
// against its forward window, and persists the closed event sequence.
// Steps must be pre-sorted by timestamp.
func (r *Runner) RunFX(ctx context.Context, runID string, initialBalance float64, steps []FXStep) ([]*domain.BacktestEvent, error) {
	engine, err := NewEngine(runID, initialBalance, r.log)
	if err != nil {
		return nil, err
	}

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		exit, err := ResolveFXExit(step.Trade, step.Window)
		if err != nil {
			return nil, fmt.Errorf("run %s: signal %s: %w", runID, step.Signal.SignalID, err)
		}

		// The engine charges cost and credits payout; expressing the
		// continuous pnl as cost plus pnl keeps both paths on one ledger.
		payout := step.Stake.Cost + exit.PnL
		if _, err := engine.Step(step.TimestampMs, step.Signal, step.Stake, payout, exit.PnL > 0, exit.Reason); err != nil {
			return nil, err
		}
	}

	return r.closeAndPersist(ctx, runID, engine)
}

func (r *Runner) closeAndPersist(ctx context.Context, runID string, engine *Engine) ([]*domain.BacktestEvent, error) {
	events, err := engine.Close()
	if err != nil {
		return nil, err
	}
	if len(events) > 0 {
		if err := r.events.InsertBulk(ctx, events); err != nil {
			return nil, fmt.Errorf("run %s: persist events: %w", runID, err)
		}
	}

	r.log.Info().
		Str("run_id", runID).
		Int("events", len(events)).
		Float64("final_balance", engine.Balance()).
		Msg("backtest run closed")

	return events, nil
}
