// Package config loads the allocator configuration from YAML.
//
// Loading applies struct-tag defaults, then the file, then environment
// overrides, then validation. The result is immutable by convention: callers
// must not mutate a loaded Config.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Strategy variants accepted in strategy.variant.
const (
	VariantVolTarget        = "vol_target"
	VariantSeasonalRotation = "seasonal_rotation"
)

// Environment variables that override connection settings.
const (
	EnvPostgresDSN   = "ALLOCATOR_POSTGRES_DSN"
	EnvClickhouseDSN = "ALLOCATOR_CLICKHOUSE_DSN"
	EnvRedisAddr     = "ALLOCATOR_REDIS_ADDR"
	EnvKafkaBrokers  = "ALLOCATOR_KAFKA_BROKERS"
)

// Config is the root configuration.
type Config struct {
	Log       LogConfig       `yaml:"log"`
	Strategy  StrategyConfig  `yaml:"strategy"`
	Backtest  BacktestConfig  `yaml:"backtest"`
	Storage   StorageConfig   `yaml:"storage"`
	Execution ExecutionConfig `yaml:"execution"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// LogConfig configures the zerolog logger.
type LogConfig struct {
	Level  string `yaml:"level" default:"info" validate:"oneof=trace debug info warn error fatal panic disabled"`
	Format string `yaml:"format" default:"console" validate:"oneof=json console"`
	Output string `yaml:"output" default:"stderr" validate:"required"`
}

// StrategyConfig selects and parameterizes one strategy.
type StrategyConfig struct {
	ID         string          `yaml:"id" validate:"required"`
	Variant    string          `yaml:"variant" validate:"required,oneof=vol_target seasonal_rotation"`
	Schedule   ScheduleConfig  `yaml:"schedule"`
	WarmupBars int             `yaml:"warmup_bars" validate:"gte=0"`
	VolTarget  VolTargetConfig `yaml:"vol_target"`
	Rotation   RotationConfig  `yaml:"rotation"`
	Regime     RegimeConfig    `yaml:"regime"`
}

// ScheduleConfig is the trigger rule: weekly with a weekday anchor or
// monthly with month_start.
type ScheduleConfig struct {
	Frequency string `yaml:"frequency" validate:"omitempty,oneof=weekly monthly"`
	Anchor    string `yaml:"anchor"`
}

// RegimeConfig names the moving averages behind trend and market regime.
type RegimeConfig struct {
	ShortSMA  int    `yaml:"short_sma" default:"50" validate:"gt=0"`
	LongSMA   int    `yaml:"long_sma" default:"200" validate:"gt=0"`
	Benchmark string `yaml:"benchmark" default:"SPY"`
}

// VolTargetConfig parameterizes the single-instrument strategy.
type VolTargetConfig struct {
	Symbol             string       `yaml:"symbol" default:"MSFT"`
	MomentumLookback   int          `yaml:"momentum_lookback" default:"252" validate:"gt=0"`
	VolWindow          int          `yaml:"vol_window" default:"20" validate:"gte=2"`
	OscillatorPeriod   int          `yaml:"oscillator_period" default:"14" validate:"gt=0"`
	RebalanceThreshold float64      `yaml:"rebalance_threshold" default:"0.10" validate:"gte=0"`
	Sizing             SizingConfig `yaml:"sizing"`
}

// SizingConfig holds the sizing constants.
type SizingConfig struct {
	TargetVol           float64 `yaml:"target_vol" default:"0.22" validate:"gt=0"`
	VolFloor            float64 `yaml:"vol_floor" default:"0.12" validate:"gt=0"`
	BaseLeverage        float64 `yaml:"base_leverage" default:"1.25" validate:"gt=0"`
	StrongTrendLeverage float64 `yaml:"strong_trend_leverage" default:"1.6" validate:"gt=0"`
	MaxLeverage         float64 `yaml:"max_leverage" default:"2.0" validate:"gte=1"`
	OversoldBelow       float64 `yaml:"oversold_below" default:"35" validate:"gte=0,lte=100"`
	OverboughtAbove     float64 `yaml:"overbought_above" default:"72" validate:"gte=0,lte=100"`
	DipBoost            float64 `yaml:"dip_boost" default:"1.15" validate:"gte=1"`
	OverboughtTrim      float64 `yaml:"overbought_trim" default:"0.92" validate:"gt=0,lte=1"`
	ModerateMin         float64 `yaml:"moderate_min" default:"0.9" validate:"gte=0"`
	ModerateMax         float64 `yaml:"moderate_max" default:"1.5" validate:"gt=0"`
}

// RotationConfig parameterizes the seasonal rotation strategy.
type RotationConfig struct {
	Aggressive     []string `yaml:"aggressive" validate:"unique,dive,required"`
	Defensive      []string `yaml:"defensive" validate:"unique,dive,required"`
	Safety         []string `yaml:"safety" validate:"unique,dive,required"`
	MomentumPeriod int      `yaml:"momentum_period" default:"63" validate:"gt=0"`
	ROCPeriod      int      `yaml:"roc_period" default:"63" validate:"gt=0"`
	TopN           int      `yaml:"top_n" default:"3" validate:"gt=0"`
	MinCandidates  int      `yaml:"min_candidates" default:"2" validate:"gte=0"`
}

// BacktestConfig configures the replay window and the paper broker.
type BacktestConfig struct {
	From        string  `yaml:"from" validate:"omitempty,datetime=2006-01-02"`
	To          string  `yaml:"to" validate:"omitempty,datetime=2006-01-02"`
	InitialCash float64 `yaml:"initial_cash" default:"100000" validate:"gt=0"`
	FeeRate     float64 `yaml:"fee_rate" validate:"gte=0,lt=1"`
}

// StorageConfig holds connection settings. Empty values disable a backend.
type StorageConfig struct {
	PostgresDSN    string `yaml:"postgres_dsn"`
	ClickhouseDSN  string `yaml:"clickhouse_dsn"`
	RedisAddr      string `yaml:"redis_addr"`
	RedisNamespace string `yaml:"redis_namespace" default:"allocator:selection"`
}

// ExecutionConfig configures order publishing.
type ExecutionConfig struct {
	Kafka KafkaConfig `yaml:"kafka"`
}

// KafkaConfig configures the Kafka order sink. No brokers disables it.
type KafkaConfig struct {
	Brokers      []string      `yaml:"brokers"`
	Topic        string        `yaml:"topic" default:"allocator.orders"`
	WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
}

// MetricsConfig configures the Prometheus endpoint. Empty addr disables it.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

var validate = validator.New()

// Default returns a Config with every default applied and no strategy chosen.
func Default() (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	return &c, nil
}

// Parse decodes YAML over the defaults, then fills strategy presets and validates.
func Parse(data []byte) (*Config, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.applyPresets()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// LoadWithEnv loads config from YAML and overrides connection settings with
// environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	c.ApplyEnv(os.Getenv)
	return c, nil
}

// ApplyEnv overrides connection settings from getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvPostgresDSN); v != "" {
		c.Storage.PostgresDSN = v
	}
	if v := getenv(EnvClickhouseDSN); v != "" {
		c.Storage.ClickhouseDSN = v
	}
	if v := getenv(EnvRedisAddr); v != "" {
		c.Storage.RedisAddr = v
	}
	if v := getenv(EnvKafkaBrokers); v != "" {
		c.Execution.Kafka.Brokers = strings.Split(v, ",")
	}
}

// applyPresets fills variant-specific values left empty in the file.
func (c *Config) applyPresets() {
	s := &c.Strategy
	switch s.Variant {
	case VariantVolTarget:
		if s.Schedule.Frequency == "" {
			s.Schedule = ScheduleConfig{Frequency: "weekly", Anchor: "monday"}
		}
		if s.WarmupBars == 0 {
			s.WarmupBars = s.VolTarget.MomentumLookback + 5
		}
	case VariantSeasonalRotation:
		if s.Schedule.Frequency == "" {
			s.Schedule = ScheduleConfig{Frequency: "monthly", Anchor: "month_start"}
		}
		if s.WarmupBars == 0 {
			s.WarmupBars = s.Regime.LongSMA + 10
		}
		r := &s.Rotation
		if len(r.Aggressive) == 0 {
			r.Aggressive = []string{"XLV", "XLI", "XLY", "XLB"}
		}
		if len(r.Defensive) == 0 {
			r.Defensive = []string{"XLK", "XLP", "XLU", "QQQ"}
		}
		if len(r.Safety) == 0 {
			r.Safety = []string{"TLT", "SHY"}
		}
	}
}

// Validate checks struct tags and cross-field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	var problems []string
	s := c.Strategy
	if s.Regime.ShortSMA >= s.Regime.LongSMA {
		problems = append(problems, "regime.short_sma must be below regime.long_sma")
	}

	switch s.Variant {
	case VariantVolTarget:
		v := s.VolTarget
		if v.Symbol == "" {
			problems = append(problems, "vol_target.symbol is required")
		}
		if v.Sizing.MaxLeverage < v.Sizing.ModerateMax {
			problems = append(problems, "sizing.max_leverage must be at least sizing.moderate_max")
		}
		if v.Sizing.ModerateMin > v.Sizing.ModerateMax {
			problems = append(problems, "sizing.moderate_min must not exceed sizing.moderate_max")
		}
		if v.Sizing.OversoldBelow >= v.Sizing.OverboughtAbove {
			problems = append(problems, "sizing.oversold_below must be below sizing.overbought_above")
		}
	case VariantSeasonalRotation:
		r := s.Rotation
		if len(r.Safety) == 0 {
			problems = append(problems, "rotation.safety must not be empty")
		}
		if len(r.Aggressive) == 0 || len(r.Defensive) == 0 {
			problems = append(problems, "rotation.aggressive and rotation.defensive must not be empty")
		}
		if s.Regime.Benchmark == "" {
			problems = append(problems, "regime.benchmark is required")
		}
	}

	if c.Backtest.From != "" && c.Backtest.To != "" && c.Backtest.From > c.Backtest.To {
		problems = append(problems, "backtest.from must not be after backtest.to")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// Range returns the backtest window as inclusive millisecond bounds.
// Missing bounds are open.
func (b BacktestConfig) Range() (from, to int64) {
	from, to = 0, int64(1)<<62
	if t, err := time.Parse(time.DateOnly, b.From); err == nil {
		from = t.UnixMilli()
	}
	if t, err := time.Parse(time.DateOnly, b.To); err == nil {
		to = t.Add(24*time.Hour).UnixMilli() - 1
	}
	return from, to
}
