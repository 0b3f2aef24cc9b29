package stake

import (
	"fmt"
	"sort"

	"wager-lab/internal/domain"
)

// BudgetCombinatorial picks how many candidates to cover in each leg of a
// multi-leg pool bet so the joint hit probability is maximized without the
// ticket cost exceeding a fixed budget.
type BudgetCombinatorial struct {
	budget    float64
	unitCost  float64
	maxPerLeg int
}

// NewBudgetCombinatorial validates parameters and builds the sizer.
func NewBudgetCombinatorial(budget, unitCost float64, maxPerLeg int) (*BudgetCombinatorial, error) {
	if budget <= 0 {
		return nil, fmt.Errorf("%w: budget %v, want > 0", ErrInvalidParameter, budget)
	}
	if unitCost <= 0 {
		return nil, fmt.Errorf("%w: unit_cost %v, want > 0", ErrInvalidParameter, unitCost)
	}
	if maxPerLeg < 1 {
		return nil, fmt.Errorf("%w: max_per_leg %d, want >= 1", ErrInvalidParameter, maxPerLeg)
	}
	if budget < unitCost {
		return nil, fmt.Errorf("%w: budget %v below unit cost %v", ErrInvalidParameter, budget, unitCost)
	}
	return &BudgetCombinatorial{budget: budget, unitCost: unitCost, maxPerLeg: maxPerLeg}, nil
}

// Optimize enumerates every horses-per-leg allocation whose ticket count
// fits the budget and returns the one with the highest joint hit
// probability. Legs are assumed independent; each leg contributes the sum
// of its top-N candidate probabilities, clamped to 1.
//
// The search is exhaustive and deterministic. Ties break toward fewer
// tickets, then toward the lexicographically smaller count tuple, so equal
// allocations always resolve the same way.
func (s *BudgetCombinatorial) Optimize(legs []domain.PoolLeg) (domain.Allocation, error) {
	if len(legs) == 0 {
		return domain.Allocation{}, fmt.Errorf("%w: no legs", ErrInsufficientData)
	}

	// Precompute cumulative top-N probability per leg, descending by
	// probability with entity id breaking ties.
	cumProbs := make([][]float64, len(legs))
	for li, leg := range legs {
		if len(leg.Candidates) == 0 {
			return domain.Allocation{}, fmt.Errorf("%w: leg %d has no candidates", ErrInsufficientData, li)
		}
		cands := make([]domain.LegCandidate, len(leg.Candidates))
		copy(cands, leg.Candidates)
		sort.SliceStable(cands, func(a, b int) bool {
			if cands[a].Probability != cands[b].Probability {
				return cands[a].Probability > cands[b].Probability
			}
			return cands[a].EntityID < cands[b].EntityID
		})

		limit := s.maxPerLeg
		if limit > len(cands) {
			limit = len(cands)
		}
		cum := make([]float64, limit+1)
		for n := 1; n <= limit; n++ {
			cum[n] = cum[n-1] + cands[n-1].Probability
			if cum[n] > 1.0 {
				cum[n] = 1.0
			}
		}
		cumProbs[li] = cum
	}

	maxTickets := int(s.budget / s.unitCost)

	best := domain.Allocation{HitProbability: -1}
	counts := make([]int, len(legs))
	s.search(cumProbs, counts, 0, 1, maxTickets, &best)
	if best.HitProbability < 0 {
		return domain.Allocation{}, fmt.Errorf("%w: budget %v cannot cover one ticket per leg", ErrInvalidParameter, s.budget)
	}
	best.Cost = float64(best.Tickets) * s.unitCost
	return best, nil
}

// search recursively assigns a count to each leg, pruning branches whose
// ticket product already exceeds the budget.
func (s *BudgetCombinatorial) search(cumProbs [][]float64, counts []int, leg, tickets, maxTickets int, best *domain.Allocation) {
	if leg == len(cumProbs) {
		prob := 1.0
		for li, n := range counts {
			prob *= cumProbs[li][n]
		}
		if betterAllocation(prob, tickets, counts, best) {
			best.Counts = append(best.Counts[:0], counts...)
			best.Tickets = tickets
			best.HitProbability = prob
		}
		return
	}

	limit := len(cumProbs[leg]) - 1
	for n := 1; n <= limit; n++ {
		if tickets*n > maxTickets {
			break
		}
		counts[leg] = n
		s.search(cumProbs, counts, leg+1, tickets*n, maxTickets, best)
	}
	counts[leg] = 0
}

func betterAllocation(prob float64, tickets int, counts []int, best *domain.Allocation) bool {
	if prob != best.HitProbability {
		return prob > best.HitProbability
	}
	if tickets != best.Tickets {
		return tickets < best.Tickets
	}
	for i := range counts {
		if counts[i] != best.Counts[i] {
			return counts[i] < best.Counts[i]
		}
	}
	return false
}

// Stake wraps an optimized allocation as a stake record.
func (s *BudgetCombinatorial) Stake(signalID string, alloc domain.Allocation) domain.Stake {
	return domain.Stake{
		SignalID:    signalID,
		Tickets:     alloc.Tickets,
		Cost:        alloc.Cost,
		Constraints: domain.StakeConstraints{Budget: s.budget},
	}
}
