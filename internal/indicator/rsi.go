package indicator

// RSI is the relative strength index with Wilder smoothing.
//
// The first period price changes seed simple averages of gains and losses;
// afterwards each average follows avg = prev*(n-1)/n + new/n.
type RSI struct {
	period  int
	prev    float64
	samples int
	changes int
	sumGain float64
	sumLoss float64
	avgGain float64
	avgLoss float64
}

// NewRSI creates a Wilder-smoothed RSI over period changes.
func NewRSI(period int) *RSI {
	return &RSI{period: period}
}

func (r *RSI) Kind() Kind  { return KindRSI }
func (r *RSI) Period() int { return r.period }

// Update feeds a new price.
func (r *RSI) Update(value float64) {
	r.samples++
	if r.samples == 1 {
		r.prev = value
		return
	}

	change := value - r.prev
	r.prev = value

	gain, loss := 0.0, 0.0
	if change > 0 {
		gain = change
	} else {
		loss = -change
	}

	r.changes++
	n := float64(r.period)
	switch {
	case r.changes < r.period:
		r.sumGain += gain
		r.sumLoss += loss
	case r.changes == r.period:
		r.avgGain = (r.sumGain + gain) / n
		r.avgLoss = (r.sumLoss + loss) / n
	default:
		r.avgGain = r.avgGain*(n-1)/n + gain/n
		r.avgLoss = r.avgLoss*(n-1)/n + loss/n
	}
}

// Value returns the RSI in [0, 100]. A flat series reads 50.
func (r *RSI) Value() float64 {
	if !r.IsReady() {
		return 0
	}
	if r.avgLoss == 0 {
		if r.avgGain == 0 {
			return 50
		}
		return 100
	}
	rs := r.avgGain / r.avgLoss
	return 100 - 100/(1+rs)
}

// IsReady is true once period changes (period+1 prices) were observed.
func (r *RSI) IsReady() bool { return r.changes >= r.period }
func (r *RSI) Samples() int  { return r.samples }

var _ Indicator = (*RSI)(nil)
