// Package instrument maintains per-symbol price history and indicators.
package instrument

import (
	"fmt"
	"math"

	"regime-allocator/internal/domain"
	"regime-allocator/internal/indicator"
	"regime-allocator/internal/window"
)

// TradingDaysPerYear annualizes daily volatility.
const TradingDaysPerYear = 252

// RejectReason explains why a bar was dropped. Empty means accepted.
type RejectReason string

// Reject reasons
const (
	RejectNone          RejectReason = ""
	RejectInvalidPrice  RejectReason = "invalid_price"
	RejectOutOfOrder    RejectReason = "out_of_order"
	RejectUnknownSymbol RejectReason = "unknown_symbol"
)

// StateConfig sizes the history buffers and lists the indicators to maintain.
type StateConfig struct {
	PriceCapacity  int              // price window slots; momentum(n) needs n+1
	ReturnCapacity int              // return window slots; volatility(n) needs n
	Indicators     []indicator.Spec // indicators updated on every accepted bar
}

// State is the rolling state of one instrument.
type State struct {
	symbol     string
	prices     *window.Rolling[float64]
	returns    *window.Rolling[float64]
	indicators map[indicator.Spec]indicator.Indicator
	lastTimeMs int64
	hasLast    bool
}

// NewState creates the state for symbol.
func NewState(symbol string, cfg StateConfig) (*State, error) {
	s := &State{
		symbol:     symbol,
		prices:     window.New[float64](cfg.PriceCapacity),
		returns:    window.New[float64](cfg.ReturnCapacity),
		indicators: make(map[indicator.Spec]indicator.Indicator, len(cfg.Indicators)),
	}

	for _, spec := range cfg.Indicators {
		if _, exists := s.indicators[spec]; exists {
			continue
		}
		ind, err := indicator.New(spec)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", symbol, err)
		}
		s.indicators[spec] = ind
	}

	return s, nil
}

// Symbol returns the instrument identifier.
func (s *State) Symbol() string { return s.symbol }

// Ingest appends the bar close, derives the simple return from the previous
// close and updates every indicator. Invalid or out-of-order bars leave the
// state unchanged.
func (s *State) Ingest(bar *domain.PriceBar) RejectReason {
	if !bar.Valid() {
		return RejectInvalidPrice
	}
	if s.hasLast && bar.TimestampMs <= s.lastTimeMs {
		return RejectOutOfOrder
	}

	if prev, ok := s.prices.Get(0); ok && prev > 0 {
		s.returns.Add(bar.Close/prev - 1)
	}
	s.prices.Add(bar.Close)
	for _, ind := range s.indicators {
		ind.Update(bar.Close)
	}

	s.lastTimeMs = bar.TimestampMs
	s.hasLast = true
	return RejectNone
}

// Price returns the most recent close.
func (s *State) Price() (float64, bool) {
	return s.prices.Get(0)
}

// Samples returns the number of accepted bars over the lifetime of the state.
func (s *State) Samples() int { return s.prices.Total() }

// PriceCount returns the number of closes currently held.
func (s *State) PriceCount() int { return s.prices.Count() }

// ReturnCount returns the number of returns currently held.
func (s *State) ReturnCount() int { return s.returns.Count() }

// Indicator returns the indicator registered under spec.
func (s *State) Indicator(spec indicator.Spec) (indicator.Indicator, bool) {
	ind, ok := s.indicators[spec]
	return ind, ok
}

// Ready reports whether every listed indicator exists and is ready.
func (s *State) Ready(specs ...indicator.Spec) bool {
	for _, spec := range specs {
		ind, ok := s.indicators[spec]
		if !ok || !ind.IsReady() {
			return false
		}
	}
	return true
}

// Momentum returns price[0]/price[lookback] - 1.
// ok is false until the price window holds more than lookback closes.
func (s *State) Momentum(lookback int) (float64, bool) {
	if lookback <= 0 || s.prices.Count() <= lookback {
		return 0, false
	}
	current, _ := s.prices.Get(0)
	past, _ := s.prices.Get(lookback)
	if past <= 0 {
		return 0, false
	}
	return current/past - 1, true
}

// RealizedVolatility returns the sample standard deviation of the most recent
// n returns, annualized by sqrt(252). ok is false until n returns exist.
func (s *State) RealizedVolatility(n int) (float64, bool) {
	if n < 2 || s.returns.Count() < n {
		return 0, false
	}
	return SampleStdDev(s.returns.Newest(n)) * math.Sqrt(TradingDaysPerYear), true
}

// SampleStdDev returns the standard deviation with an n-1 denominator.
// Returns 0 for fewer than two values.
func SampleStdDev(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}

	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(n)

	sumSq := 0.0
	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(n-1))
}
