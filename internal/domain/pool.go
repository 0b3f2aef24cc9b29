package domain

// LegCandidate is one runner in a pool leg with its win probability.
type LegCandidate struct {
	EntityID    int
	Probability float64
}

// PoolLeg holds the per-runner win probabilities for one leg of a
// multi-leg pool bet. Candidates need not be pre-sorted; sizing sorts them
// descending by probability (ties by entity id) before selecting top-N.
type PoolLeg struct {
	RaceID     string
	Candidates []LegCandidate
}

// Allocation is a horses-per-leg selection for a multi-leg pool bet.
// Tickets is the product of Counts; HitProbability assumes legs are
// independent: the product over legs of the summed top-N probabilities.
type Allocation struct {
	Counts         []int
	Tickets        int
	Cost           float64
	HitProbability float64
}
