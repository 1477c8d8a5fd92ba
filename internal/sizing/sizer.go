// Package sizing maps trend, momentum and volatility to a target leverage.
package sizing

import (
	"math"

	"regime-allocator/internal/domain"
)

// Tier is the decision tier that produced a target.
type Tier string

// Tiers, evaluated in this order.
const (
	TierExit     Tier = "exit"
	TierStrong   Tier = "strong"
	TierModerate Tier = "moderate"
)

// Params are the sizing constants. Immutable after construction.
type Params struct {
	TargetVol           float64 // annualized volatility target, e.g. 0.22
	VolFloor            float64 // realized vol is never assumed below this
	BaseLeverage        float64 // moderate-trend multiplier
	StrongTrendLeverage float64 // strong-trend multiplier
	MaxLeverage         float64 // hard cap on any target

	OversoldBelow   float64 // oscillator level that boosts a strong position
	OverboughtAbove float64 // oscillator level that trims a strong position
	DipBoost        float64 // multiplier applied when oversold
	OverboughtTrim  float64 // multiplier applied when overbought
	ModerateMin     float64 // moderate tier lower clamp
	ModerateMax     float64 // moderate tier upper clamp
}

// DefaultParams returns the calibrated constants.
func DefaultParams() Params {
	return Params{
		TargetVol:           0.22,
		VolFloor:            0.12,
		BaseLeverage:        1.25,
		StrongTrendLeverage: 1.6,
		MaxLeverage:         2.0,
		OversoldBelow:       35,
		OverboughtAbove:     72,
		DipBoost:            1.15,
		OverboughtTrim:      0.92,
		ModerateMin:         0.9,
		ModerateMax:         1.5,
	}
}

// Inputs are the current signals for one instrument.
type Inputs struct {
	Momentum      float64
	RealizedVol   float64
	AboveLongAvg  bool
	AboveShortAvg bool
	GoldenCross   bool
	Oscillator    float64
}

// Result is the sizing outcome.
type Result struct {
	Target    float64 // fraction of portfolio value, may exceed 1.0
	Tier      Tier
	Reason    domain.ReasonCode
	VolScalar float64 // 0 for the exit tier
}

// VolScalar returns targetVol / max(realizedVol, volFloor).
func (p Params) VolScalar(realizedVol float64) float64 {
	return p.TargetVol / math.Max(realizedVol, p.VolFloor)
}

// Size computes the target leverage. Pure; no side effects.
func (p Params) Size(in Inputs) Result {
	if in.Momentum <= 0 || !in.AboveLongAvg {
		return Result{Target: 0, Tier: TierExit, Reason: domain.ReasonExit}
	}

	scalar := p.VolScalar(in.RealizedVol)

	if in.AboveShortAvg && in.GoldenCross {
		position := clamp(p.StrongTrendLeverage*scalar, 1.0, p.MaxLeverage)
		reason := domain.ReasonStrongTrend

		switch {
		case in.Oscillator < p.OversoldBelow:
			position = clamp(position*p.DipBoost, 1.0, p.MaxLeverage)
			reason = domain.ReasonStrongDip
		case in.Oscillator > p.OverboughtAbove:
			position = clamp(position*p.OverboughtTrim, 1.0, p.MaxLeverage)
			reason = domain.ReasonStrongOverbought
		}

		return Result{Target: position, Tier: TierStrong, Reason: reason, VolScalar: scalar}
	}

	return Result{
		Target:    clamp(p.BaseLeverage*scalar, p.ModerateMin, p.ModerateMax),
		Tier:      TierModerate,
		Reason:    domain.ReasonModerateTrend,
		VolScalar: scalar,
	}
}

// clamp bounds v to [lo, hi]; hi wins when lo > hi.
func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
