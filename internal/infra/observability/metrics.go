package observability

import (
	"time"

	"github.com/jeongsim/accounting-api/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the accounting API.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration   *prometheus.HistogramVec
	externalErrors    *prometheus.CounterVec
	cacheHits         *prometheus.CounterVec
	cacheMisses       *prometheus.CounterVec
	snapshotFallbacks prometheus.Counter
	writeAttempts     *prometheus.CounterVec
	approvalDenials   *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "accounting_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "accounting_external_errors_total",
				Help: "Total errors from the spreadsheet backend.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "accounting_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "accounting_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		snapshotFallbacks: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "accounting_snapshot_fallbacks_total",
				Help: "Times the demo dataset was substituted for a failed fetch.",
			},
		),
		writeAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "accounting_write_attempts_total",
				Help: "Fire-and-forget backend writes by action and outcome.",
			},
			[]string{"action", "outcome"},
		),
		approvalDenials: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "accounting_approval_denials_total",
				Help: "Approval toggles rejected by role gating.",
			},
			[]string{"step"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrSnapshotFallback counts a demo-data substitution.
func (m *Metrics) IncrSnapshotFallback() {
	m.snapshotFallbacks.Inc()
}

// IncrWrite counts a backend write attempt by outcome ("sent"/"failed").
func (m *Metrics) IncrWrite(action, outcome string) {
	m.writeAttempts.WithLabelValues(action, outcome).Inc()
}

// IncrApprovalDenial counts a role-gated rejection for an approval step.
func (m *Metrics) IncrApprovalDenial(step string) {
	m.approvalDenials.WithLabelValues(step).Inc()
}

// GetOpsSnapshot returns a snapshot of operational counters for the
// GET /v1/metrics/ops endpoint.
func (m *Metrics) GetOpsSnapshot() *domain.OpsMetrics {
	cacheHits := getCounterValue(m.cacheHits, "snapshot")
	cacheMisses := getCounterValue(m.cacheMisses, "snapshot")

	cacheHitRate := float64(0)
	if cacheHits+cacheMisses > 0 {
		cacheHitRate = cacheHits / (cacheHits + cacheMisses)
	}

	writeFailures := getCounterValue(m.writeAttempts, "addTransaction", "failed") +
		getCounterValue(m.writeAttempts, "updateTransaction", "failed") +
		getCounterValue(m.writeAttempts, "addDonation", "failed")

	fallbacks := float64(0)
	d := &dto.Metric{}
	if err := m.snapshotFallbacks.Write(d); err == nil && d.Counter != nil && d.Counter.Value != nil {
		fallbacks = *d.Counter.Value
	}

	return &domain.OpsMetrics{
		SnapshotFallbacks: fallbacks,
		CacheHitRate:      cacheHitRate,
		WriteFailures:     writeFailures,
		ApprovalDenials: getCounterValue(m.approvalDenials, "secGen") +
			getCounterValue(m.approvalDenials, "director"),
		Period: "all_time",
	}
}

// getCounterValue extracts the current float64 value from a CounterVec
// for a given label combination.
func getCounterValue(cv *prometheus.CounterVec, labels ...string) float64 {
	counter := cv.WithLabelValues(labels...)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
