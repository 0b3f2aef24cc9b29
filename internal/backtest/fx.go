package backtest

import (
	"fmt"

	"wager-lab/internal/domain"
)

// FXTrade describes an open position to resolve against a forward window
// of candles. StopLoss and TakeProfit are price distances from entry,
// both positive.
type FXTrade struct {
	EntryPrice float64
	Direction  int // +1 long, -1 short
	Units      int
	StopLoss   float64
	TakeProfit float64
	SpreadCost float64 // total round-trip cost in currency units
}

// FXExit is a resolved trade exit.
type FXExit struct {
	Price       float64
	TimestampMs int64
	Reason      string // domain.ExitReason* constant
	PnL         float64
}

// ResolveFXExit walks the forward window in order and exits at the first
// bar that touches the stop or the take-profit. When one bar touches
// both, the stop wins; intrabar ordering is unknown, so the conservative
// fill is assumed. If neither level is touched the trade times out at the
// close of the last bar.
func ResolveFXExit(trade FXTrade, window []*domain.Candle) (FXExit, error) {
	if len(window) == 0 {
		return FXExit{}, fmt.Errorf("%w: empty forward window", ErrInvalidParameter)
	}
	if trade.Direction != 1 && trade.Direction != -1 {
		return FXExit{}, fmt.Errorf("%w: direction %d, want +1 or -1", ErrInvalidParameter, trade.Direction)
	}
	if trade.StopLoss <= 0 || trade.TakeProfit <= 0 {
		return FXExit{}, fmt.Errorf("%w: stop %v take profit %v, want > 0", ErrInvalidParameter, trade.StopLoss, trade.TakeProfit)
	}

	var stopPrice, targetPrice float64
	if trade.Direction == 1 {
		stopPrice = trade.EntryPrice - trade.StopLoss
		targetPrice = trade.EntryPrice + trade.TakeProfit
	} else {
		stopPrice = trade.EntryPrice + trade.StopLoss
		targetPrice = trade.EntryPrice - trade.TakeProfit
	}

	for _, bar := range window {
		stopHit := false
		targetHit := false
		if trade.Direction == 1 {
			stopHit = bar.Low <= stopPrice
			targetHit = bar.High >= targetPrice
		} else {
			stopHit = bar.High >= stopPrice
			targetHit = bar.Low <= targetPrice
		}

		switch {
		case stopHit:
			return exitAt(trade, stopPrice, bar.TimestampMs, domain.ExitReasonStopLoss), nil
		case targetHit:
			return exitAt(trade, targetPrice, bar.TimestampMs, domain.ExitReasonTakeProfit), nil
		}
	}

	last := window[len(window)-1]
	return exitAt(trade, last.Close, last.TimestampMs, domain.ExitReasonTimeout), nil
}

func exitAt(trade FXTrade, price float64, timestampMs int64, reason string) FXExit {
	pnl := (price - trade.EntryPrice) * float64(trade.Direction) * float64(trade.Units)
	return FXExit{
		Price:       price,
		TimestampMs: timestampMs,
		Reason:      reason,
		PnL:         pnl - trade.SpreadCost,
	}
}
