// Package verification replays a strategy over stored bars and checks that
// the persisted decision records are reproduced exactly.
package verification

import (
	"context"
	"math"
	"slices"

	"regime-allocator/internal/backtest"
	"regime-allocator/internal/domain"
)

// FloatTolerance is the tolerance for float64 comparisons.
const FloatTolerance = 1e-9

// FieldDivergence represents a mismatch between stored and replayed values.
type FieldDivergence struct {
	Field    string // field name
	Expected any    // stored value
	Actual   any    // replayed value
}

// VerificationResult contains the result of verifying a single decision.
type VerificationResult struct {
	DecisionID     string
	TimestampMs    int64
	Match          bool
	Divergences    []FieldDivergence
	StoredReason   domain.ReasonCode
	ReplayedReason domain.ReasonCode
}

// VerificationReport contains results for one strategy.
type VerificationReport struct {
	StrategyID         string
	TotalDecisions     int // stored decisions inside the window
	MatchedDecisions   int
	DivergentDecisions int
	MissingDecisions   int // stored but not replayed
	ExtraDecisions     int // replayed but not stored
	Results            []VerificationResult
}

// OK reports whether every stored decision was reproduced and nothing extra appeared.
func (r *VerificationReport) OK() bool {
	return r.DivergentDecisions == 0 && r.MissingDecisions == 0 && r.ExtraDecisions == 0
}

// Verifier checks stored decisions against a fresh replay.
type Verifier interface {
	// Verify replays strategy over [from, to] and compares the decisions it
	// produces with the stored ones. strategy must be freshly constructed.
	Verify(ctx context.Context, strategy backtest.Strategy, from, to int64) (*VerificationReport, error)
}

// CompareDecisionRecords compares two decision records and returns divergences.
// Uses FloatTolerance for float64 comparisons.
func CompareDecisionRecords(stored, replayed *domain.DecisionRecord) []FieldDivergence {
	var d []FieldDivergence
	add := func(field string, expected, actual any) {
		d = append(d, FieldDivergence{Field: field, Expected: expected, Actual: actual})
	}

	if stored.DecisionID != replayed.DecisionID {
		add("DecisionID", stored.DecisionID, replayed.DecisionID)
	}
	if stored.StrategyID != replayed.StrategyID {
		add("StrategyID", stored.StrategyID, replayed.StrategyID)
	}
	if stored.Variant != replayed.Variant {
		add("Variant", stored.Variant, replayed.Variant)
	}
	if stored.TimestampMs != replayed.TimestampMs {
		add("TimestampMs", stored.TimestampMs, replayed.TimestampMs)
	}
	if stored.Reason != replayed.Reason {
		add("Reason", stored.Reason, replayed.Reason)
	}
	if !slices.Equal(stored.Selection, replayed.Selection) {
		add("Selection", stored.Selection, replayed.Selection)
	}

	d = append(d, compareMetrics(stored.Metrics, replayed.Metrics)...)
	d = append(d, compareInstructions(stored.Instructions, replayed.Instructions)...)
	return d
}

func compareMetrics(s, r domain.DecisionMetrics) []FieldDivergence {
	var d []FieldDivergence
	floats := []struct {
		field string
		s, r  float64
	}{
		{"Metrics.Momentum", s.Momentum, r.Momentum},
		{"Metrics.RealizedVol", s.RealizedVol, r.RealizedVol},
		{"Metrics.VolScalar", s.VolScalar, r.VolScalar},
		{"Metrics.Oscillator", s.Oscillator, r.Oscillator},
		{"Metrics.CurrentWeight", s.CurrentWeight, r.CurrentWeight},
		{"Metrics.TargetWeight", s.TargetWeight, r.TargetWeight},
	}
	for _, f := range floats {
		if !floatEquals(f.s, f.r) {
			d = append(d, FieldDivergence{Field: f.field, Expected: f.s, Actual: f.r})
		}
	}

	if s.QualifyingCount != r.QualifyingCount {
		d = append(d, FieldDivergence{Field: "Metrics.QualifyingCount", Expected: s.QualifyingCount, Actual: r.QualifyingCount})
	}
	if s.MarketBullish != r.MarketBullish {
		d = append(d, FieldDivergence{Field: "Metrics.MarketBullish", Expected: s.MarketBullish, Actual: r.MarketBullish})
	}
	if s.MarketFallback != r.MarketFallback {
		d = append(d, FieldDivergence{Field: "Metrics.MarketFallback", Expected: s.MarketFallback, Actual: r.MarketFallback})
	}
	if s.WinterSeason != r.WinterSeason {
		d = append(d, FieldDivergence{Field: "Metrics.WinterSeason", Expected: s.WinterSeason, Actual: r.WinterSeason})
	}
	return d
}

func compareInstructions(s, r []domain.Instruction) []FieldDivergence {
	if len(s) != len(r) {
		return []FieldDivergence{{Field: "Instructions", Expected: len(s), Actual: len(r)}}
	}
	for i := range s {
		if s[i].Kind != r[i].Kind || s[i].Symbol != r[i].Symbol || !floatEquals(s[i].Weight, r[i].Weight) {
			return []FieldDivergence{{Field: "Instructions", Expected: s, Actual: r}}
		}
	}
	return nil
}

// floatEquals compares two float64 values with tolerance.
func floatEquals(a, b float64) bool {
	return math.Abs(a-b) < FloatTolerance
}
