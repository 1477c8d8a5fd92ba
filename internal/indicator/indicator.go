// Package indicator implements incremental technical indicators.
//
// Every indicator carries its own minimal state, updates from one observation
// at a time and exposes a readiness flag that flips to true exactly once.
package indicator

import (
	"errors"
	"fmt"
)

// Kind tags the indicator implementation.
type Kind string

// Indicator kinds
const (
	KindSMA  Kind = "SMA"
	KindMOM  Kind = "MOM"
	KindROCP Kind = "ROCP"
	KindRSI  Kind = "RSI"
)

// Factory errors
var (
	ErrUnknownKind   = errors.New("unknown indicator kind")
	ErrInvalidPeriod = errors.New("indicator period must be positive")
)

// Indicator is updated with one observation at a time.
type Indicator interface {
	// Kind returns the indicator tag.
	Kind() Kind

	// Period returns the configured lookback.
	Period() int

	// Update feeds a new observation.
	Update(value float64)

	// Value returns the current value. Meaningless until IsReady.
	Value() float64

	// IsReady reports whether enough samples were observed.
	// Once true it never reverts.
	IsReady() bool

	// Samples returns the number of observations fed so far.
	Samples() int
}

// Spec describes one indicator instance.
type Spec struct {
	Kind   Kind
	Period int
}

// String returns e.g. "SMA(200)".
func (s Spec) String() string {
	return fmt.Sprintf("%s(%d)", s.Kind, s.Period)
}

// New creates an indicator from spec.
func New(spec Spec) (Indicator, error) {
	if spec.Period <= 0 {
		return nil, fmt.Errorf("%s: %w", spec, ErrInvalidPeriod)
	}

	switch spec.Kind {
	case KindSMA:
		return NewSMA(spec.Period), nil
	case KindMOM:
		return NewMomentum(spec.Period), nil
	case KindROCP:
		return NewROCP(spec.Period), nil
	case KindRSI:
		return NewRSI(spec.Period), nil
	default:
		return nil, fmt.Errorf("%q: %w", spec.Kind, ErrUnknownKind)
	}
}
