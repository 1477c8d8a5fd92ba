// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Ingestion metrics
	BarsIngested *prometheus.CounterVec
	BarsRejected *prometheus.CounterVec

	// Decision metrics
	RebalancesTotal     *prometheus.CounterVec
	InstructionsEmitted *prometheus.CounterVec
	TargetLeverage      *prometheus.GaugeVec
	SelectionSize       *prometheus.GaugeVec
	MarketFallbacks     *prometheus.CounterVec

	// Execution metrics
	ExecutionErrors *prometheus.CounterVec

	// Backtest metrics
	BacktestRunsTotal *prometheus.CounterVec
	BacktestDuration  *prometheus.HistogramVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulRun prometheus.Gauge
}

// NewMetrics creates a new Metrics instance registered with reg.
// A nil reg uses the default Prometheus registerer.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "regime_allocator"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		BarsIngested: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "bars_ingested_total",
			Help:      "Total number of price bars accepted by the indicator store",
		}, []string{"symbol"}),
		BarsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "bars_rejected_total",
			Help:      "Total number of price bars dropped by reason",
		}, []string{"reason"}),

		RebalancesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "decision",
			Name:      "rebalances_total",
			Help:      "Total number of triggered rebalances by variant and reason",
		}, []string{"variant", "reason"}),
		InstructionsEmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "decision",
			Name:      "instructions_emitted_total",
			Help:      "Total number of rebalancing instructions by kind",
		}, []string{"kind"}),
		TargetLeverage: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "decision",
			Name:      "target_leverage",
			Help:      "Most recent target weight of the single-instrument strategy",
		}, []string{"strategy"}),
		SelectionSize: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "decision",
			Name:      "selection_size",
			Help:      "Number of symbols in the most recent selection",
		}, []string{"strategy"}),
		MarketFallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "decision",
			Name:      "market_regime_fallbacks_total",
			Help:      "Decisions that assumed a bullish market because the benchmark average was not ready",
		}, []string{"strategy"}),

		ExecutionErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "execution",
			Name:      "errors_total",
			Help:      "Total number of instruction dispatch failures by sink",
		}, []string{"sink"}),

		BacktestRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "runs_total",
			Help:      "Total number of backtest runs by status",
		}, []string{"strategy", "status"}),
		BacktestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "duration_seconds",
			Help:      "Backtest execution duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
		}, []string{"strategy"}),

		DBQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		LastSuccessfulRun: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of last successful backtest run",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("", nil)

// RecordBarIngested increments the accepted bars counter.
func RecordBarIngested(symbol string) {
	DefaultMetrics.BarsIngested.WithLabelValues(symbol).Inc()
}

// RecordBarRejected increments the rejected bars counter.
func RecordBarRejected(reason string) {
	DefaultMetrics.BarsRejected.WithLabelValues(reason).Inc()
}

// RecordRebalance records one triggered rebalance.
func RecordRebalance(variant, reason string) {
	DefaultMetrics.RebalancesTotal.WithLabelValues(variant, reason).Inc()
}

// RecordInstruction increments the instruction counter for kind.
func RecordInstruction(kind string) {
	DefaultMetrics.InstructionsEmitted.WithLabelValues(kind).Inc()
}

// UpdateTargetLeverage sets the latest single-instrument target.
func UpdateTargetLeverage(strategy string, target float64) {
	DefaultMetrics.TargetLeverage.WithLabelValues(strategy).Set(target)
}

// UpdateSelectionSize sets the latest selection size.
func UpdateSelectionSize(strategy string, n int) {
	DefaultMetrics.SelectionSize.WithLabelValues(strategy).Set(float64(n))
}

// RecordMarketFallback counts a decision taken on the bullish default.
func RecordMarketFallback(strategy string) {
	DefaultMetrics.MarketFallbacks.WithLabelValues(strategy).Inc()
}

// RecordExecutionError counts a failed dispatch.
func RecordExecutionError(sink string) {
	DefaultMetrics.ExecutionErrors.WithLabelValues(sink).Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// ObserveStorageQuery records the duration of a query started at start.
// Intended for defer at the top of a store method.
func ObserveStorageQuery(database, operation string, start time.Time) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(time.Since(start).Seconds())
}

// RecordBacktestRun records a finished backtest.
func RecordBacktestRun(strategy, status string, duration time.Duration) {
	DefaultMetrics.BacktestRunsTotal.WithLabelValues(strategy, status).Inc()
	DefaultMetrics.BacktestDuration.WithLabelValues(strategy).Observe(duration.Seconds())
	if status == "ok" {
		DefaultMetrics.LastSuccessfulRun.SetToCurrentTime()
	}
}
