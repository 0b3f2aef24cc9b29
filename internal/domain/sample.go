package domain

// Sample is one timestamped feature row with its realized label.
// All samples consumed by a training fold for time t must have been
// knowable strictly before t; that guarantee belongs to whoever built the
// features, not to this package.
type Sample struct {
	TimestampMs int64
	EntityID    string // grouping key: instrument, race id, runner id
	Features    []float64
	Label       int // 1 = positive class, 0 = negative
}
