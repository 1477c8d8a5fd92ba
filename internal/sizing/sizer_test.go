package sizing

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regime-allocator/internal/domain"
)

func bullish(vol, osc float64) Inputs {
	return Inputs{
		Momentum:      0.25,
		RealizedVol:   vol,
		AboveLongAvg:  true,
		AboveShortAvg: true,
		GoldenCross:   true,
		Oscillator:    osc,
	}
}

func TestSize_LowVolCappedAtMaxLeverage(t *testing.T) {
	// vol 0.10 is floored to 0.12; 1.6 * 0.22/0.12 = 2.93 -> capped at 2.0
	res := DefaultParams().Size(bullish(0.10, 50))

	assert.Equal(t, TierStrong, res.Tier)
	assert.Equal(t, domain.ReasonStrongTrend, res.Reason)
	assert.InDelta(t, 0.22/0.12, res.VolScalar, 1e-12)
	assert.InDelta(t, 2.0, res.Target, 1e-12)
}

func TestSize_NonPositiveMomentumExits(t *testing.T) {
	for _, mom := range []float64{0, -0.01, -0.5} {
		in := bullish(0.10, 50)
		in.Momentum = mom
		res := DefaultParams().Size(in)
		assert.Equal(t, TierExit, res.Tier)
		assert.Equal(t, 0.0, res.Target)
		assert.Equal(t, domain.ReasonExit, res.Reason)
	}
}

func TestSize_BelowLongAverageExits(t *testing.T) {
	in := bullish(0.20, 50)
	in.AboveLongAvg = false
	res := DefaultParams().Size(in)
	assert.Equal(t, TierExit, res.Tier)
	assert.Equal(t, 0.0, res.Target)
}

func TestSize_StrongOscillatorAdjustments(t *testing.T) {
	p := DefaultParams()
	// vol 0.30: 1.6 * 0.22/0.30 = 1.1733
	base := 1.6 * 0.22 / 0.30

	dip := p.Size(bullish(0.30, 30))
	assert.Equal(t, domain.ReasonStrongDip, dip.Reason)
	assert.InDelta(t, base*1.15, dip.Target, 1e-12)

	hot := p.Size(bullish(0.30, 80))
	assert.Equal(t, domain.ReasonStrongOverbought, hot.Reason)
	assert.InDelta(t, base*0.92, hot.Target, 1e-12)

	// thresholds are strict
	assert.Equal(t, domain.ReasonStrongTrend, p.Size(bullish(0.30, 35)).Reason)
	assert.Equal(t, domain.ReasonStrongTrend, p.Size(bullish(0.30, 72)).Reason)
}

func TestSize_OverboughtTrimFloorsAtOne(t *testing.T) {
	// very high vol pushes the raw strong position to the 1.0 floor
	res := DefaultParams().Size(bullish(1.0, 90))
	assert.Equal(t, 1.0, res.Target)
}

func TestSize_DipBoostCappedAtMax(t *testing.T) {
	res := DefaultParams().Size(bullish(0.05, 10))
	assert.Equal(t, 2.0, res.Target)
	assert.Equal(t, domain.ReasonStrongDip, res.Reason)
}

func TestSize_StrongAdjustmentsStayWithinBounds(t *testing.T) {
	p := DefaultParams()
	p.OverboughtTrim = 1.5
	p.DipBoost = 0.5

	hot := p.Size(bullish(0.05, 90))
	assert.Equal(t, domain.ReasonStrongOverbought, hot.Reason)
	assert.Equal(t, p.MaxLeverage, hot.Target)

	dip := p.Size(bullish(1.0, 10))
	assert.Equal(t, domain.ReasonStrongDip, dip.Reason)
	assert.Equal(t, 1.0, dip.Target)
}

func TestSize_Moderate(t *testing.T) {
	p := DefaultParams()
	in := bullish(0.25, 50)
	in.GoldenCross = false

	res := p.Size(in)
	assert.Equal(t, TierModerate, res.Tier)
	assert.Equal(t, domain.ReasonModerateTrend, res.Reason)
	assert.InDelta(t, 1.25*0.22/0.25, res.Target, 1e-12)

	in.RealizedVol = 0.05 // 1.25*0.22/0.12 = 2.29 -> 1.5
	assert.InDelta(t, 1.5, p.Size(in).Target, 1e-12)

	in.RealizedVol = 0.60 // 1.25*0.22/0.60 = 0.46 -> 0.9
	assert.InDelta(t, 0.9, p.Size(in).Target, 1e-12)
}

func TestSize_ModerateWhenBelowShortAverage(t *testing.T) {
	in := bullish(0.25, 50)
	in.AboveShortAvg = false
	assert.Equal(t, TierModerate, DefaultParams().Size(in).Tier)
}

func TestSize_RandomizedBounds(t *testing.T) {
	p := DefaultParams()
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 20000; i++ {
		in := Inputs{
			Momentum:      rng.Float64()*2 - 1,
			RealizedVol:   rng.Float64() * 1.5,
			AboveLongAvg:  rng.Intn(4) > 0,
			AboveShortAvg: rng.Intn(2) == 0,
			GoldenCross:   rng.Intn(2) == 0,
			Oscillator:    rng.Float64() * 100,
		}
		res := p.Size(in)

		require.GreaterOrEqual(t, res.Target, 0.0)
		require.LessOrEqual(t, res.Target, p.MaxLeverage)

		switch res.Tier {
		case TierExit:
			require.Equal(t, 0.0, res.Target)
			require.True(t, in.Momentum <= 0 || !in.AboveLongAvg)
		case TierStrong:
			require.GreaterOrEqual(t, res.Target, 1.0)
			require.LessOrEqual(t, res.Target, p.MaxLeverage)
		case TierModerate:
			require.GreaterOrEqual(t, res.Target, 0.9)
			require.LessOrEqual(t, res.Target, 1.5)
		default:
			t.Fatalf("unexpected tier %q", res.Tier)
		}
	}
}
