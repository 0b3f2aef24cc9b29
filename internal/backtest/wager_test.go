package backtest

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"wager-lab/internal/domain"
	"wager-lab/internal/storage/memory"
)

func settlerWith(t *testing.T, payouts []*domain.Payout) *WagerSettler {
	t.Helper()
	store := memory.NewPayoutStore()
	if len(payouts) > 0 {
		if err := store.InsertBulk(context.Background(), payouts); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	return NewWagerSettler(store, zerolog.Nop())
}

func TestSettleHitWithPayout(t *testing.T) {
	settler := settlerWith(t, []*domain.Payout{
		{EventID: "e1", CombinationKey: "3-7", Amount: 1540},
	})

	outcome := &domain.RaceOutcome{EventID: "e1", Winners: []int{3, 7}}
	combo := domain.Combination{Entities: []int{3, 7}, Probability: 0.12}

	got, err := settler.Settle(context.Background(), outcome, combo, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.IsHit || got.ExitReason != domain.ExitReasonHit {
		t.Errorf("expected hit, got %+v", got)
	}
	if got.Payout != 3080 {
		t.Errorf("expected payout 1540*2=3080, got %v", got.Payout)
	}
}

func TestSettleMiss(t *testing.T) {
	settler := settlerWith(t, nil)

	outcome := &domain.RaceOutcome{EventID: "e1", Winners: []int{1, 4}}
	combo := domain.Combination{Entities: []int{3, 7}}

	got, err := settler.Settle(context.Background(), outcome, combo, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.IsHit || got.Payout != 0 || got.ExitReason != domain.ExitReasonMiss {
		t.Errorf("expected zero-payout miss, got %+v", got)
	}
}

func TestSettleHitMissingPayoutData(t *testing.T) {
	// Winner set covered but no payout row: zero payout, still a hit,
	// never an error.
	settler := settlerWith(t, nil)

	outcome := &domain.RaceOutcome{EventID: "e1", Winners: []int{3, 7}}
	combo := domain.Combination{Entities: []int{3, 7}}

	got, err := settler.Settle(context.Background(), outcome, combo, 1)
	if err != nil {
		t.Fatalf("expected missing payout to settle, got error %v", err)
	}
	if !got.IsHit {
		t.Errorf("expected hit despite missing payout data")
	}
	if got.Payout != 0 || got.ExitReason != domain.ExitReasonNoPayout {
		t.Errorf("expected zero payout with no-data reason, got %+v", got)
	}
}

func TestSettlePartialCoverageIsMiss(t *testing.T) {
	settler := settlerWith(t, nil)

	// Triple combination covering only two of the winners.
	outcome := &domain.RaceOutcome{EventID: "e1", Winners: []int{1, 4, 9}}
	combo := domain.Combination{Entities: []int{1, 4, 8}}

	got, err := settler.Settle(context.Background(), outcome, combo, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.IsHit {
		t.Errorf("expected miss when winners not fully covered")
	}
}
