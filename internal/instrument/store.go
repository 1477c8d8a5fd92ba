package instrument

import (
	"fmt"
	"sort"

	"regime-allocator/internal/domain"
)

// Store holds the state of every tracked instrument.
// States are created up front and never removed during a run.
type Store struct {
	states map[string]*State
}

// NewStore creates one State per symbol, all sharing cfg.
func NewStore(symbols []string, cfg StateConfig) (*Store, error) {
	st := &Store{states: make(map[string]*State, len(symbols))}
	for _, sym := range symbols {
		if _, exists := st.states[sym]; exists {
			continue
		}
		s, err := NewState(sym, cfg)
		if err != nil {
			return nil, fmt.Errorf("create instrument state: %w", err)
		}
		st.states[sym] = s
	}
	return st, nil
}

// Ingest routes the bar to its instrument.
func (st *Store) Ingest(bar *domain.PriceBar) RejectReason {
	if bar == nil {
		return RejectInvalidPrice
	}
	s, ok := st.states[bar.Symbol]
	if !ok {
		return RejectUnknownSymbol
	}
	return s.Ingest(bar)
}

// Get returns the state for symbol.
func (st *Store) Get(symbol string) (*State, bool) {
	s, ok := st.states[symbol]
	return s, ok
}

// Symbols returns tracked symbols in lexical order.
func (st *Store) Symbols() []string {
	out := make([]string, 0, len(st.states))
	for sym := range st.states {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}
