package indicator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Kinds(t *testing.T) {
	tests := []struct {
		kind Kind
		want Kind
	}{
		{KindSMA, KindSMA},
		{KindMOM, KindMOM},
		{KindROCP, KindROCP},
		{KindRSI, KindRSI},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			ind, err := New(Spec{Kind: tt.kind, Period: 5})
			require.NoError(t, err)
			assert.Equal(t, tt.want, ind.Kind())
			assert.Equal(t, 5, ind.Period())
			assert.False(t, ind.IsReady())
		})
	}
}

func TestNew_Errors(t *testing.T) {
	_, err := New(Spec{Kind: "EMA", Period: 5})
	assert.True(t, errors.Is(err, ErrUnknownKind))

	_, err = New(Spec{Kind: KindSMA, Period: 0})
	assert.True(t, errors.Is(err, ErrInvalidPeriod))
}

// readyAt feeds increasing prices and returns the sample count at which
// the indicator first became ready. It fails if readiness ever reverts.
func readyAt(t *testing.T, ind Indicator, feed int) int {
	t.Helper()
	first := -1
	for i := 1; i <= feed; i++ {
		ind.Update(100 + float64(i))
		if ind.IsReady() && first < 0 {
			first = i
		}
		if first > 0 {
			require.True(t, ind.IsReady(), "readiness reverted at sample %d", i)
		}
	}
	return first
}

func TestReadiness_TransitionsOnceAtMinimum(t *testing.T) {
	assert.Equal(t, 10, readyAt(t, NewSMA(10), 50))
	assert.Equal(t, 11, readyAt(t, NewMomentum(10), 50))
	assert.Equal(t, 11, readyAt(t, NewROCP(10), 50))
	assert.Equal(t, 15, readyAt(t, NewRSI(14), 50))
}

func TestSMA_RollingMean(t *testing.T) {
	sma := NewSMA(3)
	for _, v := range []float64{1, 2, 3} {
		sma.Update(v)
	}
	assert.InDelta(t, 2.0, sma.Value(), 1e-12)

	sma.Update(10)
	assert.InDelta(t, 5.0, sma.Value(), 1e-12) // (2+3+10)/3

	sma.Update(10)
	sma.Update(10)
	assert.InDelta(t, 10.0, sma.Value(), 1e-12)
}

func TestMomentumAndROCP(t *testing.T) {
	mom := NewMomentum(2)
	roc := NewROCP(2)
	for _, v := range []float64{100, 105, 110} {
		mom.Update(v)
		roc.Update(v)
	}

	require.True(t, mom.IsReady())
	require.True(t, roc.IsReady())
	assert.InDelta(t, 10.0, mom.Value(), 1e-12)
	assert.InDelta(t, 0.10, roc.Value(), 1e-12)

	mom.Update(99)
	roc.Update(99)
	assert.InDelta(t, -6.0, mom.Value(), 1e-12)
	assert.InDelta(t, 99.0/105.0-1, roc.Value(), 1e-12)
}

func TestRSI_WilderSmoothing(t *testing.T) {
	rsi := NewRSI(2)
	rsi.Update(10)
	rsi.Update(12) // +2
	assert.False(t, rsi.IsReady())

	rsi.Update(11) // -1; seed: avgGain=1, avgLoss=0.5
	require.True(t, rsi.IsReady())
	assert.InDelta(t, 100-100/(1+2.0), rsi.Value(), 1e-9)

	rsi.Update(14) // +3; avgGain=1*0.5+1.5=2, avgLoss=0.25
	assert.InDelta(t, 100-100/(1+8.0), rsi.Value(), 1e-9)
}

func TestRSI_Extremes(t *testing.T) {
	up := NewRSI(3)
	flat := NewRSI(3)
	down := NewRSI(3)
	for i := 0; i < 10; i++ {
		up.Update(float64(100 + i))
		flat.Update(100)
		down.Update(float64(100 - i))
	}

	assert.Equal(t, 100.0, up.Value())
	assert.Equal(t, 50.0, flat.Value())
	assert.InDelta(t, 0.0, down.Value(), 1e-12)
}

func TestSpec_String(t *testing.T) {
	assert.Equal(t, "SMA(200)", Spec{Kind: KindSMA, Period: 200}.String())
}
