package domain

// Candle is one OHLC bar for an instrument at a fixed granularity.
// Candles are immutable after ingestion; everything downstream treats the
// series as an append-only chronological record.
type Candle struct {
	Instrument  string
	Granularity string // e.g. "H1", "D"
	TimestampMs int64  // bar open time (Unix ms)
	Open        float64
	High        float64
	Low         float64
	Close       float64
	Volume      float64
}
