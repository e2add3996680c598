package observability

import (
	"time"

	"github.com/flipfolio/flipfolio-api-go/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Autosave flush outcomes, used as the "outcome" label value.
const (
	FlushWritten   = "written"
	FlushSkipped   = "skipped"
	FlushCoalesced = "coalesced"
	FlushFailed    = "failed"
)

// Metrics holds all Prometheus metrics for the API.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	externalErrors  *prometheus.CounterVec
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
	autosaveFlushes *prometheus.CounterVec
	openSessions    prometheus.Gauge
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
				Name:    "flipfolio_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flipfolio_external_errors_total",
				Help: "Total errors from external services.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flipfolio_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flipfolio_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		autosaveFlushes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flipfolio_autosave_flushes_total",
				Help: "Autosave flushes by outcome (written, skipped, coalesced, failed).",
			},
			[]string{"outcome"},
		),
		openSessions: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "flipfolio_autosave_open_sessions",
				Help: "Journal pages currently held open by the autosave coordinator.",
			},
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

// IncrAutosaveFlush increments the flush counter for one outcome.
func (m *Metrics) IncrAutosaveFlush(outcome string) {
	m.autosaveFlushes.WithLabelValues(outcome).Inc()
}

// SetOpenSessions records how many autosave sessions are live.
func (m *Metrics) SetOpenSessions(n int) {
	m.openSessions.Set(float64(n))
}

// AutosaveSnapshot reads the autosave counters back out of the registry for
// the GET /v1/metrics/autosave endpoint. Counters are cumulative since start.
func (m *Metrics) AutosaveSnapshot() *domain.AutosaveMetrics {
	written := getCounterValue(m.autosaveFlushes, FlushWritten)
	skipped := getCounterValue(m.autosaveFlushes, FlushSkipped)
	coalesced := getCounterValue(m.autosaveFlushes, FlushCoalesced)
	failed := getCounterValue(m.autosaveFlushes, FlushFailed)
	total := written + skipped + coalesced + failed

	skipRatio := float64(0)
	if total > 0 {
		skipRatio = skipped / total
	}

	cacheHits := getCounterValue(m.cacheHits, "rollup")
	cacheMisses := getCounterValue(m.cacheMisses, "rollup")
	cacheHitRate := float64(0)
	if cacheHits+cacheMisses > 0 {
		cacheHitRate = cacheHits / (cacheHits + cacheMisses)
	}

	return &domain.AutosaveMetrics{
		OpenSessions:     int64(getGaugeValue(m.openSessions)),
		FlushesTotal:     int64(total),
		FlushesSkipped:   int64(skipped),
		FlushesCoalesced: int64(coalesced),
		FlushesFailed:    int64(failed),
		SkipRatio:        skipRatio,
		CacheHitRate:     cacheHitRate,
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}

// getGaugeValue extracts the current float64 value from a Gauge.
func getGaugeValue(g prometheus.Gauge) float64 {
	m := &dto.Metric{}
	if err := g.Write(m); err != nil {
		return 0
	}
	if m.Gauge != nil && m.Gauge.Value != nil {
		return *m.Gauge.Value
	}
	return 0
}
