package reporting

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Backtest Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Run: %s", r.RunID))
	if r.ModelName != "" {
		sb.WriteString(fmt.Sprintf(" | Model: %s (%s)", r.ModelName, r.Backend))
	}
	sb.WriteString("\n\n")

	// Performance Summary
	s := r.Summary
	sb.WriteString("## Performance Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Total Trades | %d |\n", s.TotalTrades))
	sb.WriteString(fmt.Sprintf("| Wins / Losses | %d / %d |\n", s.Wins, s.Losses))
	sb.WriteString(fmt.Sprintf("| Win Rate | %.4f |\n", s.WinRate))
	sb.WriteString(fmt.Sprintf("| Profit Factor | %s |\n", formatRatio(s.ProfitFactor)))
	sb.WriteString(fmt.Sprintf("| Sharpe Ratio | %.4f |\n", s.SharpeRatio))
	sb.WriteString(fmt.Sprintf("| Max Drawdown | %.4f |\n", s.MaxDrawdown))
	sb.WriteString(fmt.Sprintf("| Max Losing Streak | %d |\n", s.MaxLosingStreak))
	sb.WriteString(fmt.Sprintf("| ROI | %.4f |\n", s.ROI))
	sb.WriteString(fmt.Sprintf("| Initial Balance | %.2f |\n", s.InitialBalance))
	sb.WriteString(fmt.Sprintf("| Final Balance | %.2f |\n", s.FinalBalance))
	sb.WriteString(fmt.Sprintf("| Total Cost | %.2f |\n", s.TotalCost))
	sb.WriteString(fmt.Sprintf("| Total Payout | %.2f |\n", s.TotalPayout))
	sb.WriteString("\n")

	// Cross-Validation
	sb.WriteString("## Cross-Validation\n\n")
	if len(r.FoldMetrics) > 0 {
		sb.WriteString("| Fold | AUC | LogLoss | Train | Test |\n")
		sb.WriteString("|------|-----|---------|-------|------|\n")
		for _, f := range r.FoldMetrics {
			sb.WriteString(fmt.Sprintf("| %d | %s | %.4f | %d | %d |\n",
				f.Fold, formatRatio(f.AUC), f.LogLoss, f.TrainSize, f.TestSize))
		}
	} else {
		sb.WriteString("No cross-validation results available.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}

// formatRatio prints a metric that may legitimately be NaN or infinite.
func formatRatio(v float64) string {
	switch {
	case math.IsNaN(v):
		return "n/a"
	case math.IsInf(v, 1):
		return "inf"
	default:
		return fmt.Sprintf("%.4f", v)
	}
}
