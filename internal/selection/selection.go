// Package selection ranks candidate instruments by momentum and picks a
// bounded top set, falling back to a safety set under adverse conditions.
package selection

import (
	"sort"

	"regime-allocator/internal/domain"
)

// Candidate is the indicator view of one instrument at decision time.
type Candidate struct {
	Symbol        string
	Price         float64
	LongAverage   float64
	TrendReady    bool    // long average ready
	MomentumReady bool    // momentum indicator ready
	ROC           float64 // rate of change over the lookback
	ROCReady      bool
}

// Score is a candidate that passed the trend filter.
type Score struct {
	Symbol string
	Score  float64
}

// Params configure the selection policy.
type Params struct {
	TopN        int      // maximum number of selected candidates
	MinRequired int      // qualifying candidates needed to avoid the safety set
	SafetySet   []string // fallback allocation, held in its entirety
}

// Result is the outcome of one selection.
type Result struct {
	Scored    []Score  // trend-qualified candidates, score descending
	Selection []string // chosen symbols in rank order
	Fallback  bool     // true when the safety set was chosen
	Reason    domain.ReasonCode
}

// Rank filters candidates by trend and sorts them by score descending.
// Candidates without ready momentum or trend indicators are skipped; a
// candidate at or below its long average is excluded. Ties keep input order.
func Rank(candidates []Candidate) []Score {
	scores := make([]Score, 0, len(candidates))
	for _, c := range candidates {
		if !c.MomentumReady || !c.TrendReady {
			continue
		}
		if c.Price <= c.LongAverage {
			continue
		}
		score := 0.0
		if c.ROCReady {
			score = c.ROC
		}
		scores = append(scores, Score{Symbol: c.Symbol, Score: score})
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Score > scores[j].Score
	})
	return scores
}

// Select ranks candidates and applies the regime and minimum-count gates.
func (p Params) Select(candidates []Candidate, marketBullish bool) Result {
	scored := Rank(candidates)
	res := Result{Scored: scored}

	switch {
	case !marketBullish:
		res.Reason = domain.ReasonSafetyBearish
	case len(scored) < p.MinRequired:
		res.Reason = domain.ReasonSafetyTooFew
	default:
		n := p.TopN
		if n > len(scored) {
			n = len(scored)
		}
		res.Selection = make([]string, 0, n)
		for _, s := range scored[:n] {
			res.Selection = append(res.Selection, s.Symbol)
		}
		res.Reason = domain.ReasonRotateTopN
		return res
	}

	res.Fallback = true
	res.Selection = append([]string(nil), p.SafetySet...)
	return res
}

// EqualWeights assigns 1/len(selection) to each selected symbol.
func EqualWeights(selection []string) map[string]float64 {
	weights := make(map[string]float64, len(selection))
	if len(selection) == 0 {
		return weights
	}
	w := 1.0 / float64(len(selection))
	for _, sym := range selection {
		weights[sym] = w
	}
	return weights
}
