package ingestion

import (
	"errors"
	"sort"

	"regime-allocator/internal/domain"
)

// ErrInvalidOrdering is returned when bars are not properly ordered.
var ErrInvalidOrdering = errors.New("bars are not in deterministic order")

// SortBars orders bars by (symbol ASC, timestamp_ms ASC).
func SortBars(bars []*domain.PriceBar) {
	sort.SliceStable(bars, func(i, j int) bool {
		return compareBars(bars[i], bars[j]) < 0
	})
}

// ValidateBarOrdering checks that bars are strictly ordered.
// Returns ErrInvalidOrdering on a repeated (symbol, timestamp_ms).
func ValidateBarOrdering(bars []*domain.PriceBar) error {
	for i := 1; i < len(bars); i++ {
		if compareBars(bars[i-1], bars[i]) >= 0 {
			return ErrInvalidOrdering
		}
	}
	return nil
}

// compareBars returns:
//   - negative if a < b
//   - zero if a == b
//   - positive if a > b
//
// Order: (symbol ASC, timestamp_ms ASC)
func compareBars(a, b *domain.PriceBar) int {
	if a.Symbol != b.Symbol {
		if a.Symbol < b.Symbol {
			return -1
		}
		return 1
	}
	if a.TimestampMs != b.TimestampMs {
		if a.TimestampMs < b.TimestampMs {
			return -1
		}
		return 1
	}
	return 0
}
