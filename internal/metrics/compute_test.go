package metrics

import (
	"math"
	"testing"
	"time"

	"regime-allocator/internal/backtest"
)

func curve(start time.Time, equity ...float64) []backtest.EquityPoint {
	out := make([]backtest.EquityPoint, len(equity))
	for i, e := range equity {
		out[i] = backtest.EquityPoint{Day: start.AddDate(0, 0, i), Equity: e}
	}
	return out
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestCompute_Empty(t *testing.T) {
	p := Compute(nil)
	if p.Days != 0 || p.TotalReturn != 0 || p.MaxDrawdown != 0 {
		t.Errorf("expected zero performance, got %+v", p)
	}
}

func TestCompute_TotalReturnAndDrawdown(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	p := Compute(curve(start, 100, 120, 90, 110))

	if p.Days != 4 {
		t.Errorf("expected 4 days, got %d", p.Days)
	}
	if !approx(p.TotalReturn, 0.10) {
		t.Errorf("expected total return 0.10, got %f", p.TotalReturn)
	}
	// Peak 120, trough 90.
	if !approx(p.MaxDrawdown, 0.25) {
		t.Errorf("expected max drawdown 0.25, got %f", p.MaxDrawdown)
	}
	if !approx(p.BestDay, 0.20) {
		t.Errorf("expected best day 0.20, got %f", p.BestDay)
	}
	if !approx(p.WorstDay, -0.25) {
		t.Errorf("expected worst day -0.25, got %f", p.WorstDay)
	}
}

func TestCompute_CAGROverOneYear(t *testing.T) {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	pts := []backtest.EquityPoint{
		{Day: start, Equity: 100},
		{Day: start.Add(time.Duration(365.25 * 24 * float64(time.Hour))), Equity: 121},
	}
	p := Compute(pts)
	if !approx(p.CAGR, 0.21) {
		t.Errorf("expected CAGR 0.21, got %f", p.CAGR)
	}
}

func TestCompute_FlatCurveHasNoSharpe(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	p := Compute(curve(start, 100, 100, 100))
	if p.Sharpe != 0 || p.AnnualizedVol != 0 {
		t.Errorf("expected zero sharpe and vol, got %f / %f", p.Sharpe, p.AnnualizedVol)
	}
}

func TestCompute_SharpeSign(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	up := Compute(curve(start, 100, 101, 103, 104, 106))
	if up.Sharpe <= 0 {
		t.Errorf("expected positive sharpe, got %f", up.Sharpe)
	}
	down := Compute(curve(start, 100, 99, 97, 96, 94))
	if down.Sharpe >= 0 {
		t.Errorf("expected negative sharpe, got %f", down.Sharpe)
	}
}

func TestComputePercentile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5}
	tests := []struct {
		p    float64
		want float64
	}{
		{0, 1}, {0.5, 3}, {0.9, 4.6}, {1, 5},
	}
	for _, tt := range tests {
		if got := computePercentile(sorted, tt.p); !approx(got, tt.want) {
			t.Errorf("p%.0f: expected %f, got %f", tt.p*100, tt.want, got)
		}
	}
	if got := computePercentile(nil, 0.5); got != 0 {
		t.Errorf("expected 0 for empty input, got %f", got)
	}
}

func TestComputeStddev(t *testing.T) {
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	got := computeStddev(values, computeMean(values))
	if !approx(got, math.Sqrt(32.0/7)) {
		t.Errorf("expected %f, got %f", math.Sqrt(32.0/7), got)
	}
	if computeStddev([]float64{1}, 1) != 0 {
		t.Error("expected 0 for single sample")
	}
}
