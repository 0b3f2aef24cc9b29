package signal

import (
	"fmt"
	"sort"

	"wager-lab/internal/domain"
)

// divEps floors the conditional denominator so an entity with win
// probability at or near 1.0 cannot divide by zero.
const divEps = 1e-6

// RankExacta scores every ordered (first, second) pair from the win and
// place probability maps and returns the topN pairs by descending
// probability.
//
// The pair probability is winProbs[i] * placeProbs[j] / max(1-winProbs[i],
// divEps), a conditional approximation: given i wins, j's place
// probability is renormalized over the remaining field. Probabilities may
// exceed raw products and are not normalized across pairs; only the
// relative ranking matters downstream.
//
// Ties break toward the lexicographically smaller (first, second) entity
// pair so results are stable across runs.
func RankExacta(winProbs, placeProbs map[int]float64, topN int) ([]domain.Combination, error) {
	if topN <= 0 {
		return nil, fmt.Errorf("%w: top_n %d, want > 0", ErrInvalidParameter, topN)
	}

	firsts := sortedIDs(winProbs)
	seconds := sortedIDs(placeProbs)

	combos := make([]domain.Combination, 0, len(firsts)*len(seconds))
	for _, i := range firsts {
		denom := 1 - winProbs[i]
		if denom < divEps {
			denom = divEps
		}
		for _, j := range seconds {
			if j == i {
				continue
			}
			combos = append(combos, domain.Combination{
				Entities:    []int{i, j},
				Probability: winProbs[i] * placeProbs[j] / denom,
			})
		}
	}

	sortCombinations(combos)
	if len(combos) > topN {
		combos = combos[:topN]
	}
	return combos, nil
}

// RankTrio scores every unordered triple from the top3 probability map and
// returns the topN triples by descending probability. The triple
// probability is the plain product of the three member probabilities, an
// independence approximation. Entities within a triple are listed in
// ascending ID order; ties break toward the smaller ID tuple.
func RankTrio(topProbs map[int]float64, topN int) ([]domain.Combination, error) {
	if topN <= 0 {
		return nil, fmt.Errorf("%w: top_n %d, want > 0", ErrInvalidParameter, topN)
	}

	ids := sortedIDs(topProbs)
	var combos []domain.Combination
	for a := 0; a < len(ids); a++ {
		for b := a + 1; b < len(ids); b++ {
			for c := b + 1; c < len(ids); c++ {
				i, j, k := ids[a], ids[b], ids[c]
				combos = append(combos, domain.Combination{
					Entities:    []int{i, j, k},
					Probability: topProbs[i] * topProbs[j] * topProbs[k],
				})
			}
		}
	}

	sortCombinations(combos)
	if len(combos) > topN {
		combos = combos[:topN]
	}
	return combos, nil
}

func sortedIDs(probs map[int]float64) []int {
	ids := make([]int, 0, len(probs))
	for id := range probs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// sortCombinations orders by probability descending, then by entity tuple
// ascending so equal-probability combinations rank deterministically.
func sortCombinations(combos []domain.Combination) {
	sort.SliceStable(combos, func(a, b int) bool {
		if combos[a].Probability != combos[b].Probability {
			return combos[a].Probability > combos[b].Probability
		}
		ea, eb := combos[a].Entities, combos[b].Entities
		for i := range ea {
			if ea[i] != eb[i] {
				return ea[i] < eb[i]
			}
		}
		return false
	})
}
