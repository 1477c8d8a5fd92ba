package domain

// Variant identifies the decision policy of a strategy.
type Variant string

// Variant constants
const (
	VariantVolTarget        Variant = "vol_target"
	VariantSeasonalRotation Variant = "seasonal_rotation"
)

// ReasonCode is the enumerated audit tag attached to every decision.
type ReasonCode string

// Reason codes
const (
	ReasonSkippedWarmup    ReasonCode = "SKIPPED_WARMUP"
	ReasonSkippedNotReady  ReasonCode = "SKIPPED_NOT_READY"
	ReasonExit             ReasonCode = "EXIT"
	ReasonStrongTrend      ReasonCode = "STRONG_TREND"
	ReasonStrongDip        ReasonCode = "STRONG_DIP"
	ReasonStrongOverbought ReasonCode = "STRONG_OVERBOUGHT"
	ReasonModerateTrend    ReasonCode = "MODERATE_TREND"
	ReasonHoldWithinBand   ReasonCode = "HOLD_WITHIN_BAND"
	ReasonRotateTopN       ReasonCode = "ROTATE_TOP_N"
	ReasonSafetyBearish    ReasonCode = "SAFETY_BEARISH"
	ReasonSafetyTooFew     ReasonCode = "SAFETY_TOO_FEW"
)

// InstructionKind is the type of a rebalancing instruction.
type InstructionKind string

// Instruction kinds
const (
	InstructionSetWeight InstructionKind = "set_weight"
	InstructionLiquidate InstructionKind = "liquidate"
)

// Instruction is one order-level request handed to the execution collaborator.
type Instruction struct {
	Kind   InstructionKind `json:"kind"`
	Symbol string          `json:"symbol"`
	Weight float64         `json:"weight"` // target fraction of portfolio value; 0 for liquidate
}

// SetWeight builds a set-weight instruction.
func SetWeight(symbol string, weight float64) Instruction {
	return Instruction{Kind: InstructionSetWeight, Symbol: symbol, Weight: weight}
}

// Liquidate builds a liquidate instruction.
func Liquidate(symbol string) Instruction {
	return Instruction{Kind: InstructionLiquidate, Symbol: symbol}
}

// DecisionMetrics holds the numeric payload supporting a decision.
// Fields that were not computed for a variant stay zero.
type DecisionMetrics struct {
	Momentum        float64 `json:"momentum"`
	RealizedVol     float64 `json:"realized_vol"`
	VolScalar       float64 `json:"vol_scalar"`
	Oscillator      float64 `json:"oscillator"`
	CurrentWeight   float64 `json:"current_weight"`
	TargetWeight    float64 `json:"target_weight"`
	QualifyingCount int     `json:"qualifying_count"`
	MarketBullish   bool    `json:"market_bullish"`
	MarketFallback  bool    `json:"market_fallback"` // bullish assumed because benchmark average not ready
	WinterSeason    bool    `json:"winter_season"`
}

// RebalanceDecision is the computed target allocation for one decision instant.
type RebalanceDecision struct {
	Weights map[string]float64 // symbol -> target fraction
	Reason  ReasonCode
	Metrics DecisionMetrics
}

// DecisionRecord is the observability record emitted once per triggered rebalance.
// Corresponds to decision_records table in PostgreSQL.
type DecisionRecord struct {
	DecisionID   string // deterministic hash
	StrategyID   string
	Variant      Variant
	TimestampMs  int64 // evaluation time (ms)
	Reason       ReasonCode
	Metrics      DecisionMetrics
	Selection    []string // selected symbols, in rank order
	Instructions []Instruction
}

// Traded reports whether the decision emitted any instruction.
func (r *DecisionRecord) Traded() bool {
	return len(r.Instructions) > 0
}
