package domain

// RaceOutcome is the resolved result of one bettable event: the entity set
// a winning combination must cover (the winner, the top-3 finishers, or the
// five leg winners of a carryover pool).
type RaceOutcome struct {
	EventID     string
	TimestampMs int64
	Winners     []int
}

// Payout is one row of the per-event payout table: the gross return of a
// unit ticket on the given combination. A missing row is "no payout data",
// which settles at zero rather than failing the run.
type Payout struct {
	EventID        string
	CombinationKey string
	Amount         float64
}
