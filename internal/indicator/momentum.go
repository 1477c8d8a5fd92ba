package indicator

import "regime-allocator/internal/window"

// lagged keeps the last period+1 observations so value[period] is reachable.
type lagged struct {
	period  int
	values  *window.Rolling[float64]
	samples int
}

func newLagged(period int) lagged {
	return lagged{period: period, values: window.New[float64](period + 1)}
}

func (l *lagged) update(value float64) {
	l.values.Add(value)
	l.samples++
}

func (l *lagged) ends() (current, past float64, ok bool) {
	current, ok = l.values.Get(0)
	if !ok {
		return 0, 0, false
	}
	past, ok = l.values.Get(l.period)
	return current, past, ok
}

// Momentum is the absolute price change over period observations.
type Momentum struct {
	lagged
}

// NewMomentum creates a momentum indicator: value - value[period].
func NewMomentum(period int) *Momentum {
	return &Momentum{lagged: newLagged(period)}
}

func (m *Momentum) Kind() Kind           { return KindMOM }
func (m *Momentum) Period() int          { return m.period }
func (m *Momentum) Update(value float64) { m.update(value) }
func (m *Momentum) IsReady() bool        { return m.samples > m.period }
func (m *Momentum) Samples() int         { return m.samples }

// Value returns value[0] - value[period], or 0 when not ready.
func (m *Momentum) Value() float64 {
	current, past, ok := m.ends()
	if !ok {
		return 0
	}
	return current - past
}

// ROCP is the rate of change as a fraction: value/value[period] - 1.
type ROCP struct {
	lagged
}

// NewROCP creates a rate-of-change-percentage indicator.
func NewROCP(period int) *ROCP {
	return &ROCP{lagged: newLagged(period)}
}

func (r *ROCP) Kind() Kind           { return KindROCP }
func (r *ROCP) Period() int          { return r.period }
func (r *ROCP) Update(value float64) { r.update(value) }
func (r *ROCP) IsReady() bool        { return r.samples > r.period }
func (r *ROCP) Samples() int         { return r.samples }

// Value returns value[0]/value[period] - 1, or 0 when not ready.
func (r *ROCP) Value() float64 {
	current, past, ok := r.ends()
	if !ok || past == 0 {
		return 0
	}
	return current/past - 1
}

var (
	_ Indicator = (*Momentum)(nil)
	_ Indicator = (*ROCP)(nil)
)
