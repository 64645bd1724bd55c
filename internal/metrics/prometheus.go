package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Alhambren/Dandolo-Prod-sub001/types"
)

// PrometheusCollector implements types.MetricsCollector backed by Prometheus.
//
// Metric registration is deferred until first use so that constructing the
// collector never fails; duplicate registration across collectors sharing a
// registry surfaces as a panic from the Prometheus client, which is the
// conventional behavior.
type PrometheusCollector struct {
	reg       prometheus.Registerer
	namespace string
	once      sync.Once

	assignments     *prometheus.CounterVec
	noProviders     prometheus.Counter
	sessionRemovals *prometheus.CounterVec

	analysisRuns     *prometheus.CounterVec
	analysisDuration prometheus.Histogram
	variance         prometheus.Gauge

	rebalanceRuns     *prometheus.CounterVec
	rebalanceDuration prometheus.Histogram
	migrations        *prometheus.CounterVec

	storeOps *prometheus.HistogramVec
}

// Compile-time assertion that PrometheusCollector implements MetricsCollector.
var _ types.MetricsCollector = (*PrometheusCollector)(nil)

// NewPrometheus creates a new Prometheus-backed metrics collector.
//
// Parameters:
//   - reg: Prometheus registerer interface (uses prometheus.DefaultRegisterer if nil)
//   - namespace: Prometheus metrics namespace (defaults to "dandolo" if empty)
//
// Returns:
//   - *PrometheusCollector: A MetricsCollector implementation using Prometheus
func NewPrometheus(reg prometheus.Registerer, namespace string) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "dandolo"
	}

	return &PrometheusCollector{reg: reg, namespace: namespace}
}

func (p *PrometheusCollector) ensureRegistered() {
	p.once.Do(func() {
		p.assignments = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "registry",
			Name:      "assignments_total",
			Help:      "Session assignment resolutions by provider and outcome.",
		}, []string{"provider", "outcome"})

		p.noProviders = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "registry",
			Name:      "no_providers_total",
			Help:      "Assignment failures caused by an empty active provider list.",
		})

		p.sessionRemovals = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "registry",
			Name:      "session_removals_total",
			Help:      "Session record removals by reason.",
		}, []string{"reason"})

		p.analysisRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "analyzer",
			Name:      "runs_total",
			Help:      "Distribution analysis runs by recommendation outcome.",
		}, []string{"recommended"})

		p.analysisDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "analyzer",
			Name:      "duration_seconds",
			Help:      "Distribution analysis run duration in seconds.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		})

		p.variance = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Subsystem: "analyzer",
			Name:      "distribution_variance",
			Help:      "Population variance of per-provider session counts from the latest analysis.",
		})

		p.rebalanceRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "rebalance",
			Name:      "runs_total",
			Help:      "Rebalancing runs by execution mode.",
		}, []string{"performed", "dry_run"})

		p.rebalanceDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "rebalance",
			Name:      "duration_seconds",
			Help:      "Rebalancing run duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		})

		p.migrations = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "rebalance",
			Name:      "migrations_total",
			Help:      "Attempted session migrations by outcome and reason.",
		}, []string{"success", "reason"})

		p.storeOps = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "store",
			Name:      "operation_duration_seconds",
			Help:      "Session store operation latency in seconds by operation.",
			Buckets:   []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"op"})

		p.reg.MustRegister(
			p.assignments, p.noProviders, p.sessionRemovals,
			p.analysisRuns, p.analysisDuration, p.variance,
			p.rebalanceRuns, p.rebalanceDuration, p.migrations,
			p.storeOps,
		)
	})
}

// RecordAssignment increments the assignment counter for a provider/outcome pair.
func (p *PrometheusCollector) RecordAssignment(providerID, outcome string) {
	p.ensureRegistered()
	p.assignments.WithLabelValues(providerID, outcome).Inc()
}

// RecordNoProviders increments the empty-fleet failure counter.
func (p *PrometheusCollector) RecordNoProviders() {
	p.ensureRegistered()
	p.noProviders.Inc()
}

// RecordSessionRemoved increments the removal counter for a reason.
func (p *PrometheusCollector) RecordSessionRemoved(reason string) {
	p.ensureRegistered()
	p.sessionRemovals.WithLabelValues(reason).Inc()
}

// RecordAnalysis records one analyzer run.
func (p *PrometheusCollector) RecordAnalysis(recommended bool, duration float64) {
	p.ensureRegistered()
	p.analysisRuns.WithLabelValues(strconv.FormatBool(recommended)).Inc()
	p.analysisDuration.Observe(duration)
}

// RecordDistributionVariance sets the variance gauge.
func (p *PrometheusCollector) RecordDistributionVariance(variance float64) {
	p.ensureRegistered()
	p.variance.Set(variance)
}

// RecordRebalanceRun records one rebalancing run.
func (p *PrometheusCollector) RecordRebalanceRun(performed, dryRun bool, duration float64) {
	p.ensureRegistered()
	p.rebalanceRuns.WithLabelValues(strconv.FormatBool(performed), strconv.FormatBool(dryRun)).Inc()
	p.rebalanceDuration.Observe(duration)
}

// RecordMigration records one attempted migration.
func (p *PrometheusCollector) RecordMigration(success bool, reason string) {
	p.ensureRegistered()
	if reason == "" {
		reason = "none"
	}
	p.migrations.WithLabelValues(strconv.FormatBool(success), reason).Inc()
}

// RecordStoreOperation records session store latency for one operation.
func (p *PrometheusCollector) RecordStoreOperation(operation string, duration float64) {
	p.ensureRegistered()
	p.storeOps.WithLabelValues(operation).Observe(duration)
}
