package backtest

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"wager-lab/internal/domain"
)

// Engine errors.
var (
	// ErrClosed is returned when stepping or closing an already closed run.
	ErrClosed = errors.New("backtest run is closed")

	// ErrInvalidParameter is returned for out-of-range engine settings.
	ErrInvalidParameter = errors.New("invalid backtest parameter")
)

// state tracks the engine lifecycle. A run moves from ready through
// processing to closed and never back.
type state int

const (
	stateReady state = iota
	stateProcessing
	stateClosed
)

// Engine replays a chronological sequence of settled outcomes against the
// running balance, recording one event per processed signal. The event
// sequence is append-only during a run and frozen at Close.
//
// The caller guarantees that each outcome it feeds could not have been
// seen by the signal generator at decision time; the engine does not
// re-verify chronology against the signal source.
type Engine struct {
	runID   string
	balance float64
	seq     int
	state   state
	events  []*domain.BacktestEvent
	log     zerolog.Logger
}

// NewEngine starts a run with the given opening balance.
// The logger may be zerolog.Nop().
func NewEngine(runID string, initialBalance float64, log zerolog.Logger) (*Engine, error) {
	if runID == "" {
		return nil, fmt.Errorf("%w: empty run id", ErrInvalidParameter)
	}
	if initialBalance <= 0 {
		return nil, fmt.Errorf("%w: initial balance %v, want > 0", ErrInvalidParameter, initialBalance)
	}
	return &Engine{
		runID:   runID,
		balance: initialBalance,
		events:  make([]*domain.BacktestEvent, 0),
		log:     log,
	}, nil
}

// Balance returns the current running balance.
func (e *Engine) Balance() float64 { return e.balance }

// Step settles one signal: charges the stake's cost, credits the payout,
// and appends the event. A zero stake is still recorded so win-rate and
// ROI denominators stay honest. Returns ErrClosed after Close.
func (e *Engine) Step(timestampMs int64, sig domain.Signal, stk domain.Stake, payout float64, isHit bool, exitReason string) (*domain.BacktestEvent, error) {
	if e.state == stateClosed {
		return nil, fmt.Errorf("%w: step after close", ErrClosed)
	}
	e.state = stateProcessing

	pnl := payout - stk.Cost
	e.balance += pnl

	event := &domain.BacktestEvent{
		RunID:       e.runID,
		Seq:         e.seq,
		TimestampMs: timestampMs,
		SignalID:    sig.SignalID,
		EntityID:    sig.EntityID,
		Stake:       stk,
		Payout:      payout,
		PnL:         pnl,
		IsHit:       isHit,
		ExitReason:  exitReason,
		Balance:     e.balance,
	}
	e.seq++
	e.events = append(e.events, event)

	e.log.Debug().
		Str("run_id", e.runID).
		Int("seq", event.Seq).
		Float64("pnl", pnl).
		Float64("balance", e.balance).
		Str("exit", exitReason).
		Msg("event settled")

	return event, nil
}

// Close finalizes the run and returns the full event sequence. Further
// steps fail with ErrClosed.
func (e *Engine) Close() ([]*domain.BacktestEvent, error) {
	if e.state == stateClosed {
		return nil, ErrClosed
	}
	e.state = stateClosed
	return e.events, nil
}

// Events returns the events recorded so far without closing the run.
func (e *Engine) Events() []*domain.BacktestEvent { return e.events }
