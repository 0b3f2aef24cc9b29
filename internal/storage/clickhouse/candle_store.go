package clickhouse

import (
	"context"
	"fmt"

	"wager-lab/internal/domain"
	"wager-lab/internal/storage"
)

// CandleStore implements storage.CandleStore using ClickHouse.
type CandleStore struct {
	conn *Conn
}

// NewCandleStore creates a new CandleStore.
func NewCandleStore(conn *Conn) *CandleStore {
	return &CandleStore{conn: conn}
}

// Compile-time interface check.
var _ storage.CandleStore = (*CandleStore)(nil)

// InsertBulk adds multiple candles. Fails entire batch on duplicate
// (instrument, granularity, timestamp_ms).
func (s *CandleStore) InsertBulk(ctx context.Context, candles []*domain.Candle) error {
	if len(candles) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	type key struct {
		instrument  string
		granularity string
		timestampMs int64
	}
	seen := make(map[key]struct{})
	for _, c := range candles {
		if c == nil || c.Instrument == "" || c.Granularity == "" {
			return storage.ErrInvalidInput
		}
		k := key{c.Instrument, c.Granularity, c.TimestampMs}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	// Check for duplicates against existing DB rows
	for _, c := range candles {
		exists, err := s.exists(ctx, c.Instrument, c.Granularity, c.TimestampMs)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO candles (
			instrument, granularity, timestamp_ms, open, high, low, close, volume
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, c := range candles {
		err = batch.Append(
			c.Instrument, c.Granularity, uint64(c.TimestampMs),
			c.Open, c.High, c.Low, c.Close, c.Volume,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByInstrument retrieves all candles for an instrument/granularity,
// ordered by timestamp ASC.
func (s *CandleStore) GetByInstrument(ctx context.Context, instrument, granularity string) ([]*domain.Candle, error) {
	query := `
		SELECT instrument, granularity, timestamp_ms, open, high, low, close, volume
		FROM candles
		WHERE instrument = ? AND granularity = ?
		ORDER BY timestamp_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, instrument, granularity)
	if err != nil {
		return nil, fmt.Errorf("query by instrument: %w", err)
	}
	defer rows.Close()

	return scanCandles(rows)
}

// GetByTimeRange retrieves candles within [start, end] (inclusive),
// ordered by timestamp ASC.
func (s *CandleStore) GetByTimeRange(ctx context.Context, instrument, granularity string, start, end int64) ([]*domain.Candle, error) {
	query := `
		SELECT instrument, granularity, timestamp_ms, open, high, low, close, volume
		FROM candles
		WHERE instrument = ? AND granularity = ? AND timestamp_ms >= ? AND timestamp_ms <= ?
		ORDER BY timestamp_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, instrument, granularity, uint64(start), uint64(end))
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	return scanCandles(rows)
}

// exists checks if a candle with the given key exists.
func (s *CandleStore) exists(ctx context.Context, instrument, granularity string, timestampMs int64) (bool, error) {
	query := `
		SELECT count(*) FROM candles
		WHERE instrument = ? AND granularity = ? AND timestamp_ms = ?
	`

	var count uint64
	if err := s.conn.QueryRow(ctx, query, instrument, granularity, uint64(timestampMs)).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

type candleRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanCandles(rows candleRows) ([]*domain.Candle, error) {
	candles := make([]*domain.Candle, 0)
	for rows.Next() {
		var c domain.Candle
		var ts uint64
		err := rows.Scan(&c.Instrument, &c.Granularity, &ts, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume)
		if err != nil {
			return nil, fmt.Errorf("scan candle: %w", err)
		}
		c.TimestampMs = int64(ts)
		candles = append(candles, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candles: %w", err)
	}
	return candles, nil
}
