package reporting

import (
	"fmt"
	"strings"

	"wager-lab/internal/domain"
)

// RenderCSV renders the per-event sequence as CSV string.
func RenderCSV(events []*domain.BacktestEvent) string {
	var sb strings.Builder

	// Header
	sb.WriteString("run_id,seq,timestamp_ms,signal_id,entity_id,cost,payout,pnl,is_hit,exit_reason,balance\n")

	// Rows
	for _, e := range events {
		sb.WriteString(fmt.Sprintf("%s,%d,%d,%s,%s,%.6f,%.6f,%.6f,%t,%s,%.6f\n",
			e.RunID,
			e.Seq,
			e.TimestampMs,
			e.SignalID,
			e.EntityID,
			e.Stake.Cost,
			e.Payout,
			e.PnL,
			e.IsHit,
			e.ExitReason,
			e.Balance,
		))
	}

	return sb.String()
}
