package stake

import (
	"errors"
	"math"
	"testing"

	"wager-lab/internal/domain"
)

func twoLegs() []domain.PoolLeg {
	return []domain.PoolLeg{
		{RaceID: "r1", Candidates: []domain.LegCandidate{
			{EntityID: 1, Probability: 0.5},
			{EntityID: 2, Probability: 0.3},
			{EntityID: 3, Probability: 0.2},
		}},
		{RaceID: "r2", Candidates: []domain.LegCandidate{
			{EntityID: 1, Probability: 0.4},
			{EntityID: 2, Probability: 0.4},
			{EntityID: 3, Probability: 0.2},
		}},
	}
}

func TestNewBudgetCombinatorialRejectsBadParams(t *testing.T) {
	cases := []struct {
		name             string
		budget, unitCost float64
		maxPerLeg        int
	}{
		{"zero budget", 0, 100, 8},
		{"zero unit cost", 400, 0, 8},
		{"zero max per leg", 400, 100, 0},
		{"budget below unit cost", 50, 100, 8},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewBudgetCombinatorial(tc.budget, tc.unitCost, tc.maxPerLeg)
			if !errors.Is(err, ErrInvalidParameter) {
				t.Errorf("expected ErrInvalidParameter, got %v", err)
			}
		})
	}
}

func TestOptimizeTwoLegScenario(t *testing.T) {
	sizer, err := NewBudgetCombinatorial(400, 100, 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	alloc, err := sizer.Optimize(twoLegs())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Best allocation within 4 tickets is 2 per leg:
	// (0.5+0.3) * (0.4+0.4) = 0.64.
	if len(alloc.Counts) != 2 || alloc.Counts[0] != 2 || alloc.Counts[1] != 2 {
		t.Errorf("expected counts (2,2), got %v", alloc.Counts)
	}
	if math.Abs(alloc.HitProbability-0.64) > 1e-9 {
		t.Errorf("expected hit probability 0.64, got %v", alloc.HitProbability)
	}
	if alloc.Tickets != 4 || alloc.Cost != 400 {
		t.Errorf("expected 4 tickets at cost 400, got %d at %v", alloc.Tickets, alloc.Cost)
	}
}

func TestOptimizeRespectsBudgetExactly(t *testing.T) {
	legs := []domain.PoolLeg{
		{Candidates: []domain.LegCandidate{{EntityID: 1, Probability: 0.4}, {EntityID: 2, Probability: 0.3}, {EntityID: 3, Probability: 0.2}}},
		{Candidates: []domain.LegCandidate{{EntityID: 1, Probability: 0.4}, {EntityID: 2, Probability: 0.3}, {EntityID: 3, Probability: 0.2}}},
		{Candidates: []domain.LegCandidate{{EntityID: 1, Probability: 0.4}, {EntityID: 2, Probability: 0.3}, {EntityID: 3, Probability: 0.2}}},
	}

	for _, budget := range []float64{100, 300, 700, 1500} {
		sizer, err := NewBudgetCombinatorial(budget, 100, 8)
		if err != nil {
			t.Fatalf("budget %v: unexpected error: %v", budget, err)
		}
		alloc, err := sizer.Optimize(legs)
		if err != nil {
			t.Fatalf("budget %v: unexpected error: %v", budget, err)
		}
		if alloc.Cost > budget {
			t.Errorf("budget %v: cost %v exceeds budget", budget, alloc.Cost)
		}
	}
}

func TestOptimizeMaxPerLegCap(t *testing.T) {
	sizer, err := NewBudgetCombinatorial(100000, 100, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	alloc, err := sizer.Optimize(twoLegs())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, n := range alloc.Counts {
		if n > 2 {
			t.Errorf("leg %d: count %d exceeds per-leg cap 2", i, n)
		}
	}
}

func TestOptimizeClampsLegProbability(t *testing.T) {
	// A leg whose probabilities sum past 1 contributes at most 1.
	legs := []domain.PoolLeg{
		{Candidates: []domain.LegCandidate{{EntityID: 1, Probability: 0.8}, {EntityID: 2, Probability: 0.7}}},
		{Candidates: []domain.LegCandidate{{EntityID: 1, Probability: 0.5}, {EntityID: 2, Probability: 0.5}}},
	}
	sizer, err := NewBudgetCombinatorial(1000, 100, 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	alloc, err := sizer.Optimize(legs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if alloc.HitProbability > 1.0+1e-12 {
		t.Errorf("hit probability %v exceeds 1", alloc.HitProbability)
	}
}

func TestOptimizeTieBreaksTowardFewerTickets(t *testing.T) {
	// Second candidate in each leg has zero probability: covering it
	// cannot raise the hit probability, so the cheaper allocation wins.
	legs := []domain.PoolLeg{
		{Candidates: []domain.LegCandidate{{EntityID: 1, Probability: 0.5}, {EntityID: 2, Probability: 0.0}}},
		{Candidates: []domain.LegCandidate{{EntityID: 1, Probability: 0.5}, {EntityID: 2, Probability: 0.0}}},
	}
	sizer, err := NewBudgetCombinatorial(400, 100, 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	alloc, err := sizer.Optimize(legs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if alloc.Counts[0] != 1 || alloc.Counts[1] != 1 {
		t.Errorf("expected minimal counts (1,1) on probability tie, got %v", alloc.Counts)
	}
	if alloc.Tickets != 1 {
		t.Errorf("expected 1 ticket, got %d", alloc.Tickets)
	}
}

func TestOptimizeDeterministic(t *testing.T) {
	sizer, err := NewBudgetCombinatorial(400, 100, 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first, err := sizer.Optimize(twoLegs())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := sizer.Optimize(twoLegs())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if again.Tickets != first.Tickets || again.HitProbability != first.HitProbability {
			t.Fatalf("run %d differs: %+v vs %+v", i, again, first)
		}
		for j := range first.Counts {
			if again.Counts[j] != first.Counts[j] {
				t.Fatalf("run %d counts differ: %v vs %v", i, again.Counts, first.Counts)
			}
		}
	}
}

func TestOptimizeEmptyLegs(t *testing.T) {
	sizer, err := NewBudgetCombinatorial(400, 100, 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := sizer.Optimize(nil); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData for no legs, got %v", err)
	}

	legs := []domain.PoolLeg{{Candidates: nil}}
	if _, err := sizer.Optimize(legs); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData for empty leg, got %v", err)
	}
}

func TestFloorToUnit(t *testing.T) {
	cases := []struct{ amount, unit, want float64 }{
		{250, 100, 200},
		{299.99, 100, 200},
		{300, 100, 300},
		{99, 100, 0},
		{-50, 100, 0},
		{123.45, 0, 123.45},
	}
	for _, tc := range cases {
		if got := floorToUnit(tc.amount, tc.unit); got != tc.want {
			t.Errorf("floorToUnit(%v, %v): expected %v, got %v", tc.amount, tc.unit, got, tc.want)
		}
	}
}
