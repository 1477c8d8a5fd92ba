package indicator

import "regime-allocator/internal/window"

// SMA is a simple moving average maintained with a running sum.
type SMA struct {
	period  int
	values  *window.Rolling[float64]
	sum     float64
	samples int
}

// NewSMA creates a simple moving average over period observations.
func NewSMA(period int) *SMA {
	return &SMA{period: period, values: window.New[float64](period)}
}

func (s *SMA) Kind() Kind  { return KindSMA }
func (s *SMA) Period() int { return s.period }

// Update adds value and drops the observation that falls out of the window.
func (s *SMA) Update(value float64) {
	if s.values.Full() {
		oldest, _ := s.values.Get(s.period - 1)
		s.sum -= oldest
	}
	s.values.Add(value)
	s.sum += value
	s.samples++
}

// Value returns the mean of the stored observations.
func (s *SMA) Value() float64 {
	if s.values.Count() == 0 {
		return 0
	}
	return s.sum / float64(s.values.Count())
}

func (s *SMA) IsReady() bool { return s.samples >= s.period }
func (s *SMA) Samples() int  { return s.samples }

var _ Indicator = (*SMA)(nil)
