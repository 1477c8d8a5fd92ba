// Package metrics computes performance statistics from a backtest equity
// curve and aggregates decision records.
package metrics

import (
	"math"
	"sort"

	"regime-allocator/internal/backtest"
	"regime-allocator/internal/instrument"
)

// Performance summarizes an equity curve. Returns are fractions.
type Performance struct {
	Days           int
	StartEquity    float64
	EndEquity      float64
	TotalReturn    float64
	CAGR           float64
	AnnualizedVol  float64
	Sharpe         float64 // risk-free rate 0
	MaxDrawdown    float64 // worst peak-to-trough, as a fraction of the peak
	DailyReturnP10 float64
	DailyReturnP50 float64
	DailyReturnP90 float64
	BestDay        float64
	WorstDay       float64
}

// Compute calculates performance from an end-of-day equity curve.
// The curve must be in chronological order.
func Compute(curve []backtest.EquityPoint) *Performance {
	n := len(curve)
	if n == 0 {
		return &Performance{}
	}

	p := &Performance{
		Days:        n,
		StartEquity: curve[0].Equity,
		EndEquity:   curve[n-1].Equity,
	}
	if p.StartEquity > 0 {
		p.TotalReturn = p.EndEquity/p.StartEquity - 1
	}

	years := curve[n-1].Day.Sub(curve[0].Day).Hours() / 24 / 365.25
	if years > 0 && p.StartEquity > 0 && p.EndEquity > 0 {
		p.CAGR = math.Pow(p.EndEquity/p.StartEquity, 1/years) - 1
	}

	returns := dailyReturns(curve)
	if len(returns) > 0 {
		mean := computeMean(returns)
		stddev := computeStddev(returns, mean)
		annualization := math.Sqrt(instrument.TradingDaysPerYear)
		p.AnnualizedVol = stddev * annualization
		if stddev > 0 {
			p.Sharpe = mean / stddev * annualization
		}

		sorted := append([]float64(nil), returns...)
		sort.Float64s(sorted)
		p.DailyReturnP10 = computePercentile(sorted, 0.10)
		p.DailyReturnP50 = computePercentile(sorted, 0.50)
		p.DailyReturnP90 = computePercentile(sorted, 0.90)
		p.WorstDay = sorted[0]
		p.BestDay = sorted[len(sorted)-1]
	}

	p.MaxDrawdown = computeMaxDrawdown(curve)
	return p
}

// dailyReturns returns simple returns between consecutive points.
// Steps from a non-positive equity are skipped.
func dailyReturns(curve []backtest.EquityPoint) []float64 {
	out := make([]float64, 0, len(curve))
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Equity
		if prev <= 0 {
			continue
		}
		out = append(out, curve[i].Equity/prev-1)
	}
	return out
}

// computeMean calculates arithmetic mean.
func computeMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// computeStddev calculates sample standard deviation (n-1 denominator).
func computeStddev(values []float64, mean float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	sumSq := 0.0
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(n-1))
}

// computePercentile uses linear interpolation.
// sorted must be pre-sorted ASC.
// p is percentile (0.10 = 10th percentile).
func computePercentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}

	idx := p * float64(n-1)
	lower := int(idx)
	upper := lower + 1
	if upper >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}

// computeMaxDrawdown finds the worst relative decline from a running peak.
func computeMaxDrawdown(curve []backtest.EquityPoint) float64 {
	peak := 0.0
	maxDrawdown := 0.0
	for _, pt := range curve {
		if pt.Equity > peak {
			peak = pt.Equity
		}
		if peak <= 0 {
			continue
		}
		if dd := (peak - pt.Equity) / peak; dd > maxDrawdown {
			maxDrawdown = dd
		}
	}
	return maxDrawdown
}
