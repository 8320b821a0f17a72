package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the ledger service.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	mutationsTotal  *prometheus.CounterVec
	gateDenials     *prometheus.CounterVec
	backupOps       *prometheus.CounterVec
	externalErrors  *prometheus.CounterVec
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
}

// OpsSummary is a point-in-time view of the operational counters,
// served by GET /v1/metrics/summary.
type OpsSummary struct {
	TotalMutations int64   `json:"totalMutations"`
	CardCapDenials int64   `json:"cardCapDenials"`
	HistoryDenials int64   `json:"historyDenials"`
	BackupExports  int64   `json:"backupExports"`
	BackupImports  int64   `json:"backupImports"`
	BackupFailures int64   `json:"backupFailures"`
	ExternalErrors int64   `json:"externalErrors"`
	CacheHitRate   float64 `json:"cacheHitRate"`
	Period         string  `json:"period"`
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
				Name:    "fl_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		mutationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fl_ledger_mutations_total",
				Help: "Total ledger mutations by entity and action.",
			},
			[]string{"entity", "action"},
		),
		gateDenials: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fl_gate_denials_total",
				Help: "Total entitlement gate denials by reason.",
			},
			[]string{"reason"},
		),
		backupOps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fl_backup_operations_total",
				Help: "Total backup operations by direction and outcome.",
			},
			[]string{"direction", "outcome"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fl_external_errors_total",
				Help: "Total errors from external collaborators.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fl_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fl_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrMutation counts one ledger mutation.
func (m *Metrics) IncrMutation(entity, action string) {
	m.mutationsTotal.WithLabelValues(entity, action).Inc()
}

// IncrGateDenial counts one entitlement denial.
func (m *Metrics) IncrGateDenial(reason string) {
	m.gateDenials.WithLabelValues(reason).Inc()
}

// IncrBackup counts one backup export/import with its outcome.
func (m *Metrics) IncrBackup(direction, outcome string) {
	m.backupOps.WithLabelValues(direction, outcome).Inc()
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

// GetOpsSummary returns a snapshot of the operational counters suitable
// for the GET /v1/metrics/summary endpoint.
func (m *Metrics) GetOpsSummary() *OpsSummary {
	mutations := float64(0)
	for _, entity := range []string{"account", "card", "transaction"} {
		for _, action := range []string{"create", "update", "delete", "toggle", "import"} {
			mutations += getCounterValue(m.mutationsTotal, entity, action)
		}
	}

	hits := getCounterValue(m.cacheHits, "config")
	misses := getCounterValue(m.cacheMisses, "config")
	hitRate := float64(0)
	if hits+misses > 0 {
		hitRate = hits / (hits + misses)
	}

	externalErrors := float64(0)
	for _, svc := range []string{"storage", "sync", "notify"} {
		externalErrors += getCounterValue(m.externalErrors, svc)
	}

	return &OpsSummary{
		TotalMutations: int64(mutations),
		CardCapDenials: int64(getCounterValue(m.gateDenials, "cards")),
		HistoryDenials: int64(getCounterValue(m.gateDenials, "history")),
		BackupExports:  int64(getCounterValue(m.backupOps, "export", "ok")),
		BackupImports:  int64(getCounterValue(m.backupOps, "import", "ok")),
		BackupFailures: int64(getCounterValue(m.backupOps, "export", "error") + getCounterValue(m.backupOps, "import", "error")),
		ExternalErrors: int64(externalErrors),
		CacheHitRate:   hitRate,
		Period:         "all_time",
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for the given labels.
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
