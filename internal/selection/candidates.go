package selection

import (
	"regime-allocator/internal/indicator"
	"regime-allocator/internal/instrument"
)

// Specs name the indicators read from each instrument state.
type Specs struct {
	Momentum indicator.Spec
	Trend    indicator.Spec // long average
	ROC      indicator.Spec
}

// Candidates builds the candidate view for symbols in enumeration order.
// Symbols missing from the store are reported as not ready.
func Candidates(store *instrument.Store, symbols []string, specs Specs) []Candidate {
	out := make([]Candidate, 0, len(symbols))
	for _, sym := range symbols {
		c := Candidate{Symbol: sym}
		s, ok := store.Get(sym)
		if !ok {
			out = append(out, c)
			continue
		}

		c.Price, _ = s.Price()
		if mom, ok := s.Indicator(specs.Momentum); ok {
			c.MomentumReady = mom.IsReady()
		}
		if trend, ok := s.Indicator(specs.Trend); ok && trend.IsReady() {
			c.TrendReady = true
			c.LongAverage = trend.Value()
		}
		if roc, ok := s.Indicator(specs.ROC); ok && roc.IsReady() {
			c.ROCReady = true
			c.ROC = roc.Value()
		}
		out = append(out, c)
	}
	return out
}
