// Package analysis computes aggregate statistics over closed backtest
// runs. Every summary is recomputed from the full event sequence; nothing
// is updated incrementally, so repeated calls are bit-identical.
package analysis

import (
	"math"

	"wager-lab/internal/domain"
)

// Analyze summarizes a closed, chronologically ordered event sequence.
//
// Degenerate inputs map to defined sentinels rather than errors: an empty
// sequence yields a zero-trade summary, a loss-free run has +Inf profit
// factor, and flat returns score a Sharpe of 0.
func Analyze(events []*domain.BacktestEvent, initialBalance float64, annualizationFactor int) domain.PerformanceSummary {
	summary := domain.PerformanceSummary{
		InitialBalance: initialBalance,
		FinalBalance:   initialBalance,
	}
	if len(events) == 0 {
		return summary
	}

	var grossProfit, grossLoss float64
	streak := 0
	for _, ev := range events {
		summary.TotalTrades++
		summary.TotalCost += ev.Stake.Cost
		summary.TotalPayout += ev.Payout

		switch {
		case ev.PnL > 0:
			summary.Wins++
			grossProfit += ev.PnL
			streak = 0
		case ev.PnL < 0:
			summary.Losses++
			grossLoss += -ev.PnL
			streak++
			if streak > summary.MaxLosingStreak {
				summary.MaxLosingStreak = streak
			}
		default:
			streak = 0
		}
	}

	summary.WinRate = float64(summary.Wins) / float64(summary.TotalTrades)

	if grossLoss == 0 {
		summary.ProfitFactor = math.Inf(1)
	} else {
		summary.ProfitFactor = grossProfit / grossLoss
	}

	summary.SharpeRatio = sharpe(events, initialBalance, annualizationFactor)
	summary.MaxDrawdown = maxDrawdown(events, initialBalance)

	final := initialBalance
	for _, ev := range events {
		final += ev.PnL
	}
	summary.FinalBalance = final
	summary.ROI = (final - initialBalance) / initialBalance

	return summary
}

// sharpe computes mean(returns)/std(returns) * sqrt(annualization) with
// returns normalized by the initial balance. Zero variance scores 0, not
// NaN; a flat equity curve has no meaningful Sharpe.
func sharpe(events []*domain.BacktestEvent, initialBalance float64, annualizationFactor int) float64 {
	n := len(events)
	returns := make([]float64, n)
	mean := 0.0
	for i, ev := range events {
		returns[i] = ev.PnL / initialBalance
		mean += returns[i]
	}
	mean /= float64(n)

	variance := 0.0
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(n)

	std := math.Sqrt(variance)
	if std == 0 {
		return 0
	}
	return mean / std * math.Sqrt(float64(annualizationFactor))
}

// maxDrawdown walks the equity curve from the initial balance and returns
// the deepest peak-relative decline as a non-positive fraction.
func maxDrawdown(events []*domain.BacktestEvent, initialBalance float64) float64 {
	equity := initialBalance
	peak := initialBalance
	worst := 0.0
	for _, ev := range events {
		equity += ev.PnL
		if equity > peak {
			peak = equity
		}
		if peak > 0 {
			dd := (equity - peak) / peak
			if dd < worst {
				worst = dd
			}
		}
	}
	return worst
}
