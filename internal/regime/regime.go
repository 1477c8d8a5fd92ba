// Package regime derives trend, season and market-regime signals from
// current indicator values. Nothing is cached between calls.
package regime

import (
	"time"

	"regime-allocator/internal/indicator"
	"regime-allocator/internal/instrument"
)

// Snapshot is the regime view at one evaluation instant.
type Snapshot struct {
	AboveLongAvg   bool
	AboveShortAvg  bool
	GoldenCross    bool
	IsWinterSeason bool
	MarketBullish  bool
	MarketFallback bool // benchmark average not ready, bullish assumed
}

// Trend holds the moving-average signals of one instrument.
type Trend struct {
	Price         float64
	ShortAverage  float64
	LongAverage   float64
	AboveLongAvg  bool
	AboveShortAvg bool
	GoldenCross   bool
}

// Classifier reads the configured averages from instrument states.
type Classifier struct {
	ShortAverage indicator.Spec
	LongAverage  indicator.Spec
	Benchmark    string // symbol whose long average gates the market regime
}

// Trend evaluates price against the short and long averages of s.
// ok is false when there is no price or either average is not ready.
func (c Classifier) Trend(s *instrument.State) (Trend, bool) {
	if s == nil {
		return Trend{}, false
	}
	price, ok := s.Price()
	if !ok {
		return Trend{}, false
	}
	short, ok := s.Indicator(c.ShortAverage)
	if !ok || !short.IsReady() {
		return Trend{}, false
	}
	long, ok := s.Indicator(c.LongAverage)
	if !ok || !long.IsReady() {
		return Trend{}, false
	}

	return Trend{
		Price:         price,
		ShortAverage:  short.Value(),
		LongAverage:   long.Value(),
		AboveLongAvg:  price > long.Value(),
		AboveShortAvg: price > short.Value(),
		GoldenCross:   short.Value() > long.Value(),
	}, true
}

// Market reports whether the benchmark trades above its long average.
// When the benchmark average is not ready the market is treated as bullish
// and fallback is true.
func (c Classifier) Market(store *instrument.Store) (bullish, fallback bool) {
	s, ok := store.Get(c.Benchmark)
	if !ok {
		return true, true
	}
	long, ok := s.Indicator(c.LongAverage)
	if !ok || !long.IsReady() {
		return true, true
	}
	price, ok := s.Price()
	if !ok {
		return true, true
	}
	return price > long.Value(), false
}

// Classify builds the full snapshot for symbol at evaluation time at.
// When symbol is empty only season and market fields are filled.
// ok is false when symbol is set but its trend cannot be evaluated.
func (c Classifier) Classify(store *instrument.Store, symbol string, at time.Time) (Snapshot, bool) {
	snap := Snapshot{IsWinterSeason: IsWinterSeason(at)}
	snap.MarketBullish, snap.MarketFallback = c.Market(store)

	if symbol == "" {
		return snap, true
	}

	s, _ := store.Get(symbol)
	trend, ok := c.Trend(s)
	if !ok {
		return snap, false
	}
	snap.AboveLongAvg = trend.AboveLongAvg
	snap.AboveShortAvg = trend.AboveShortAvg
	snap.GoldenCross = trend.GoldenCross
	return snap, true
}

// IsWinterSeason is true from November through April.
func IsWinterSeason(at time.Time) bool {
	m := at.Month()
	return m >= time.November || m <= time.April
}
