package replay

import (
	"errors"
	"fmt"
	"sort"

	"regime-allocator/internal/domain"
)

// ErrInvalidOrdering reports a bar stream that is not strictly increasing
// by (timestamp_ms, symbol).
var ErrInvalidOrdering = errors.New("bars out of replay order")

// SortBars orders bars by (timestamp_ms ASC, symbol ASC).
func SortBars(bars []*domain.PriceBar) {
	sort.SliceStable(bars, func(i, j int) bool {
		return compareBars(bars[i], bars[j]) < 0
	})
}

// MergeBars combines per-symbol series into one sorted event stream.
func MergeBars(series ...[]*domain.PriceBar) []*Event {
	total := 0
	for _, s := range series {
		total += len(s)
	}

	bars := make([]*domain.PriceBar, 0, total)
	for _, s := range series {
		bars = append(bars, s...)
	}
	SortBars(bars)

	events := make([]*Event, len(bars))
	for i, b := range bars {
		events[i] = &Event{Sequence: i, Bar: b}
	}
	return events
}

// VerifyOrdering checks that events are strictly increasing by
// (timestamp_ms, symbol). A repeated key is an ordering violation.
func VerifyOrdering(events []*Event) error {
	for i := 1; i < len(events); i++ {
		if compareBars(events[i-1].Bar, events[i].Bar) >= 0 {
			return fmt.Errorf("%w: %s@%d after %s@%d", ErrInvalidOrdering,
				events[i].Bar.Symbol, events[i].Bar.TimestampMs,
				events[i-1].Bar.Symbol, events[i-1].Bar.TimestampMs)
		}
	}
	return nil
}

// compareBars orders by timestamp_ms, then symbol, with cmp.Compare semantics.
func compareBars(a, b *domain.PriceBar) int {
	if a.TimestampMs != b.TimestampMs {
		if a.TimestampMs < b.TimestampMs {
			return -1
		}
		return 1
	}
	if a.Symbol != b.Symbol {
		if a.Symbol < b.Symbol {
			return -1
		}
		return 1
	}
	return 0
}
