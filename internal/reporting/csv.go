package reporting

import (
	"fmt"
	"strings"
	"time"

	"regime-allocator/internal/domain"
)

// RenderCSV renders decision records as CSV string.
// Selection and instructions are joined with '|' so no field needs quoting.
func RenderCSV(records []*domain.DecisionRecord) string {
	var sb strings.Builder

	// Header
	sb.WriteString("decision_id,strategy_id,variant,date,reason,")
	sb.WriteString("momentum,realized_vol,vol_scalar,oscillator,current_weight,target_weight,")
	sb.WriteString("qualifying_count,market_bullish,market_fallback,winter_season,selection,instructions\n")

	// Rows
	for _, r := range records {
		m := r.Metrics
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%s,%s,%.6f,%.6f,%.6f,%.4f,%.6f,%.6f,%d,%t,%t,%t,%s,%s\n",
			r.DecisionID,
			r.StrategyID,
			r.Variant,
			time.UnixMilli(r.TimestampMs).UTC().Format(time.DateOnly),
			r.Reason,
			m.Momentum,
			m.RealizedVol,
			m.VolScalar,
			m.Oscillator,
			m.CurrentWeight,
			m.TargetWeight,
			m.QualifyingCount,
			m.MarketBullish,
			m.MarketFallback,
			m.WinterSeason,
			strings.Join(r.Selection, "|"),
			formatInstructions(r.Instructions),
		))
	}

	return sb.String()
}

// formatInstructions renders e.g. "liquidate:XLV|set_weight:XLK=0.3333".
func formatInstructions(ins []domain.Instruction) string {
	parts := make([]string, len(ins))
	for i, in := range ins {
		if in.Kind == domain.InstructionLiquidate {
			parts[i] = fmt.Sprintf("%s:%s", in.Kind, in.Symbol)
			continue
		}
		parts[i] = fmt.Sprintf("%s:%s=%.4f", in.Kind, in.Symbol, in.Weight)
	}
	return strings.Join(parts, "|")
}
