// Package strategy wires indicator stores, regime classification and the
// rebalance policies into runnable strategies.
package strategy

import (
	"errors"
	"time"

	"regime-allocator/internal/domain"
	"regime-allocator/internal/indicator"
)

// ErrInvalidParams is returned when strategy parameters are inconsistent.
var ErrInvalidParams = errors.New("invalid strategy params")

func sma(period int) indicator.Spec  { return indicator.Spec{Kind: indicator.KindSMA, Period: period} }
func rsi(period int) indicator.Spec  { return indicator.Spec{Kind: indicator.KindRSI, Period: period} }
func mom(period int) indicator.Spec  { return indicator.Spec{Kind: indicator.KindMOM, Period: period} }
func rocp(period int) indicator.Spec { return indicator.Spec{Kind: indicator.KindROCP, Period: period} }

// warmup counts trading days with at least one accepted bar.
type warmup struct {
	required int
	days     int
	lastDay  time.Time
}

func (w *warmup) observe(bar *domain.PriceBar) {
	y, m, d := bar.Time().Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	if w.days > 0 && !day.After(w.lastDay) {
		return
	}
	w.days++
	w.lastDay = day
}

func (w *warmup) complete() bool { return w.days >= w.required }

// uniqueSymbols concatenates groups, keeping the first occurrence of each symbol.
func uniqueSymbols(groups ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, g := range groups {
		for _, sym := range g {
			if sym == "" {
				continue
			}
			if _, ok := seen[sym]; ok {
				continue
			}
			seen[sym] = struct{}{}
			out = append(out, sym)
		}
	}
	return out
}

// hasDuplicate reports whether a symbol appears twice in symbols.
func hasDuplicate(symbols []string) bool {
	seen := make(map[string]struct{}, len(symbols))
	for _, sym := range symbols {
		if _, ok := seen[sym]; ok {
			return true
		}
		seen[sym] = struct{}{}
	}
	return false
}
