package domain

import (
	"math"
	"time"
)

// PriceBar represents one daily close for an instrument.
// Corresponds to price_bars table in ClickHouse.
type PriceBar struct {
	Symbol      string  // instrument identifier, e.g. "MSFT"
	TimestampMs int64   // bar close time, Unix milliseconds (UTC)
	Close       float64 // adjusted close price
}

// Time returns the bar timestamp as UTC time.
func (b *PriceBar) Time() time.Time {
	return time.UnixMilli(b.TimestampMs).UTC()
}

// Valid reports whether the bar carries a usable price.
// Non-positive, NaN and infinite closes are rejected.
func (b *PriceBar) Valid() bool {
	if b == nil || b.Symbol == "" {
		return false
	}
	if math.IsNaN(b.Close) || math.IsInf(b.Close, 0) {
		return false
	}
	return b.Close > 0
}
