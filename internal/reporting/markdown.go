package reporting

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString(fmt.Sprintf("# Backtest Report: %s\n\n", r.StrategyID))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	if r.RunID != "" {
		sb.WriteString(fmt.Sprintf("Run: %s\n\n", r.RunID))
	}
	sb.WriteString(fmt.Sprintf("Variant: %s | Schedule: %s | Window: %s to %s\n\n",
		r.Variant, orDash(r.Schedule), formatDay(r.From), formatDay(r.To)))

	// Performance
	sb.WriteString("## Performance\n\n")
	if p := r.Performance; p != nil && p.Days > 0 {
		sb.WriteString("| Metric | Value |\n")
		sb.WriteString("|--------|-------|\n")
		sb.WriteString(fmt.Sprintf("| Days | %d |\n", p.Days))
		sb.WriteString(fmt.Sprintf("| Start Equity | %.2f |\n", p.StartEquity))
		sb.WriteString(fmt.Sprintf("| End Equity | %.2f |\n", p.EndEquity))
		sb.WriteString(fmt.Sprintf("| Total Return | %.2f%% |\n", p.TotalReturn*100))
		sb.WriteString(fmt.Sprintf("| CAGR | %.2f%% |\n", p.CAGR*100))
		sb.WriteString(fmt.Sprintf("| Annualized Vol | %.2f%% |\n", p.AnnualizedVol*100))
		sb.WriteString(fmt.Sprintf("| Sharpe | %.2f |\n", p.Sharpe))
		sb.WriteString(fmt.Sprintf("| Max Drawdown | %.2f%% |\n", p.MaxDrawdown*100))
		sb.WriteString(fmt.Sprintf("| Daily Return P10/P50/P90 | %.4f / %.4f / %.4f |\n",
			p.DailyReturnP10, p.DailyReturnP50, p.DailyReturnP90))
	} else {
		sb.WriteString("No equity curve available.\n")
	}
	sb.WriteString("\n")

	// Decisions
	sb.WriteString("## Decisions\n\n")
	d := r.Decisions
	if d == nil || d.Triggers == 0 {
		sb.WriteString("No decisions recorded.\n\n")
	} else {
		sb.WriteString(fmt.Sprintf("Triggers: %d | Skipped: %d | Traded: %d | Market fallbacks: %d | Mean target weight: %.4f\n\n",
			d.Triggers, d.Skipped, d.Traded, d.MarketFallbacks, d.MeanTargetWeight))
		sb.WriteString("| Reason | Count |\n")
		sb.WriteString("|--------|-------|\n")
		for _, reason := range d.Reasons() {
			sb.WriteString(fmt.Sprintf("| %s | %d |\n", reason, d.ByReason[reason]))
		}
		sb.WriteString("\n")

		if len(d.SelectionFrequency) > 0 {
			sb.WriteString("### Selection Frequency\n\n")
			sb.WriteString("| Symbol | Triggers Selected |\n")
			sb.WriteString("|--------|-------------------|\n")
			symbols := make([]string, 0, len(d.SelectionFrequency))
			for sym := range d.SelectionFrequency {
				symbols = append(symbols, sym)
			}
			sort.Strings(symbols)
			for _, sym := range symbols {
				sb.WriteString(fmt.Sprintf("| %s | %d |\n", sym, d.SelectionFrequency[sym]))
			}
			sb.WriteString("\n")
		}
	}

	// Final state
	sb.WriteString("## Final State\n\n")
	sb.WriteString(fmt.Sprintf("Selection: %s\n\n", orDash(strings.Join(r.FinalSelection, ", "))))
	if len(r.FinalHoldings) > 0 {
		sb.WriteString("| Symbol | Quantity | Value | Weight |\n")
		sb.WriteString("|--------|----------|-------|--------|\n")
		for _, h := range r.FinalHoldings {
			sb.WriteString(fmt.Sprintf("| %s | %.4f | %.2f | %.4f |\n", h.Symbol, h.Quantity, h.Value, h.Weight))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func formatDay(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(time.DateOnly)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
