// Package paper simulates fills at the last known close. Leverage is allowed:
// cash goes negative when target weights sum above 1.
package paper

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"regime-allocator/internal/domain"
	"regime-allocator/internal/execution"
)

// Submit errors
var (
	// ErrNoPrice is returned when an instruction names a symbol that has no close yet.
	ErrNoPrice = errors.New("no price for symbol")

	// ErrUnknownInstruction is returned for an instruction kind the broker cannot apply.
	ErrUnknownInstruction = errors.New("unknown instruction kind")
)

// Fill is one executed trade.
type Fill struct {
	TimestampMs int64
	Symbol      string
	Quantity    float64 // signed; negative sells
	Price       float64
	Fee         float64
}

// Broker is an in-memory paper broker.
// It implements execution.Sink and execution.PortfolioReader.
type Broker struct {
	mu        sync.RWMutex
	cash      float64
	feeRate   float64
	positions map[string]float64 // quantity per symbol
	prices    map[string]float64 // last close per symbol
	fills     []Fill
}

// NewBroker creates a broker with starting cash and a proportional fee
// charged on traded notional (e.g. 0.0005 for 5 bps).
func NewBroker(initialCash, feeRate float64) *Broker {
	return &Broker{
		cash:      initialCash,
		feeRate:   feeRate,
		positions: make(map[string]float64),
		prices:    make(map[string]float64),
	}
}

// Mark records the latest close of a bar.
func (b *Broker) Mark(bar *domain.PriceBar) {
	if !bar.Valid() {
		return
	}
	b.mu.Lock()
	b.prices[bar.Symbol] = bar.Close
	b.mu.Unlock()
}

// Equity returns cash plus marked position value.
func (b *Broker) Equity() float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.equityLocked()
}

func (b *Broker) equityLocked() float64 {
	total := b.cash
	for sym, qty := range b.positions {
		total += qty * b.prices[sym]
	}
	return total
}

// Cash returns the cash balance. Negative when leveraged.
func (b *Broker) Cash() float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.cash
}

// Position returns the held quantity of symbol.
func (b *Broker) Position(symbol string) float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.positions[symbol]
}

// Positions returns a copy of held quantities keyed by symbol.
func (b *Broker) Positions() map[string]float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make(map[string]float64, len(b.positions))
	for sym, qty := range b.positions {
		out[sym] = qty
	}
	return out
}

// Fills returns a copy of all executed trades.
func (b *Broker) Fills() []Fill {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]Fill(nil), b.fills...)
}

// Snapshot returns market value per held symbol and total equity.
func (b *Broker) Snapshot() domain.PortfolioSnapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()

	holdings := make(map[string]float64, len(b.positions))
	for sym, qty := range b.positions {
		holdings[sym] = qty * b.prices[sym]
	}
	return domain.PortfolioSnapshot{Holdings: holdings, TotalValue: b.equityLocked()}
}

// Submit applies the order's instructions in sequence. Target values are
// sized against the equity at the start of the order. Instructions for
// symbols without a price and unknown kinds are skipped and reported in the
// returned error.
func (b *Broker) Submit(_ context.Context, order *execution.Order) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	equity := b.equityLocked()
	var errs []error

	for _, in := range order.Instructions {
		if in.Kind != domain.InstructionLiquidate && in.Kind != domain.InstructionSetWeight {
			errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownInstruction, in.Kind))
			continue
		}

		price, ok := b.prices[in.Symbol]
		if !ok || price <= 0 {
			errs = append(errs, fmt.Errorf("%w: %s", ErrNoPrice, in.Symbol))
			continue
		}

		var target float64
		if in.Kind == domain.InstructionSetWeight {
			target = in.Weight * equity / price
		}

		delta := target - b.positions[in.Symbol]
		if delta == 0 {
			continue
		}
		fee := abs(delta*price) * b.feeRate
		b.cash -= delta*price + fee
		b.positions[in.Symbol] = target
		if target == 0 {
			delete(b.positions, in.Symbol)
		}
		b.fills = append(b.fills, Fill{
			TimestampMs: order.TimestampMs,
			Symbol:      in.Symbol,
			Quantity:    delta,
			Price:       price,
			Fee:         fee,
		})
	}

	return errors.Join(errs...)
}

// Holdings lists held symbols, sorted.
func (b *Broker) Holdings() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]string, 0, len(b.positions))
	for sym := range b.positions {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

var (
	_ execution.Sink            = (*Broker)(nil)
	_ execution.PortfolioReader = (*Broker)(nil)
)
