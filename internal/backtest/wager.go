package backtest

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"wager-lab/internal/domain"
	"wager-lab/internal/storage"
)

// WagerSettler resolves combinatorial bets against realized outcomes and
// the per-event payout table.
type WagerSettler struct {
	payouts storage.PayoutStore
	log     zerolog.Logger
}

// NewWagerSettler builds a settler over the given payout store.
func NewWagerSettler(payouts storage.PayoutStore, log zerolog.Logger) *WagerSettler {
	return &WagerSettler{payouts: payouts, log: log}
}

// Settlement is the resolved result of one combination bet.
type Settlement struct {
	IsHit      bool
	Payout     float64 // per-ticket payout times tickets, 0 on miss
	ExitReason string
}

// Settle resolves one purchased combination against an outcome. A hit
// requires the realized winner set to be covered by the combination. A
// hit with no payout row counts as a zero-payout hit, logged at debug
// level; missing data is not an error and the event still enters the run.
func (w *WagerSettler) Settle(ctx context.Context, outcome *domain.RaceOutcome, combo domain.Combination, tickets int) (Settlement, error) {
	if tickets < 0 {
		return Settlement{}, fmt.Errorf("%w: tickets %d, want >= 0", ErrInvalidParameter, tickets)
	}

	if !combo.Covers(outcome.Winners) {
		return Settlement{IsHit: false, ExitReason: domain.ExitReasonMiss}, nil
	}

	amount, err := w.payouts.GetPayout(ctx, outcome.EventID, combo.Key())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			w.log.Debug().
				Str("event_id", outcome.EventID).
				Str("combination", combo.Key()).
				Msg("no payout data for hit combination")
			return Settlement{IsHit: true, ExitReason: domain.ExitReasonNoPayout}, nil
		}
		return Settlement{}, fmt.Errorf("settle %s/%s: %w", outcome.EventID, combo.Key(), err)
	}

	return Settlement{
		IsHit:      true,
		Payout:     amount * float64(tickets),
		ExitReason: domain.ExitReasonHit,
	}, nil
}
