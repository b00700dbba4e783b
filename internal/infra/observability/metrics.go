package observability

import (
	"time"

	"github.com/moreirajr/funnelboard-go/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the dashboard backend.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration  *prometheus.HistogramVec
	externalErrors   *prometheus.CounterVec
	cacheHits        *prometheus.CounterVec
	cacheMisses      *prometheus.CounterVec
	fetchesTotal     *prometheus.CounterVec
	rowsNormalized   prometheus.Counter
	unparseableDates prometheus.Counter
	staleSummaries   prometheus.Counter
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
				Name:    "funnelboard_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "funnelboard_external_errors_total",
				Help: "Total errors from external services.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "funnelboard_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "funnelboard_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		fetchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "funnelboard_fetches_total",
				Help: "Total upstream metric fetches by outcome.",
			},
			[]string{"status"},
		),
		rowsNormalized: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "funnelboard_rows_normalized_total",
				Help: "Total raw metric rows normalized.",
			},
		),
		unparseableDates: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "funnelboard_unparseable_dates_total",
				Help: "Rows whose date field could not be parsed and fell back to today.",
			},
		),
		staleSummaries: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "funnelboard_stale_summaries_total",
				Help: "Summaries served from the last-good cache after a fetch failure.",
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

// IncrFetch increments the upstream fetch counter with a status label
// ("success" or "error").
func (m *Metrics) IncrFetch(status string) {
	m.fetchesTotal.WithLabelValues(status).Inc()
}

// RecordNormalization records one normalization pass: how many rows went
// through and how many needed the today-fallback for their date.
func (m *Metrics) RecordNormalization(rows, dateFallbacks int) {
	m.rowsNormalized.Add(float64(rows))
	m.unparseableDates.Add(float64(dateFallbacks))
}

// IncrStaleSummary counts a summary replayed from the last-good cache.
func (m *Metrics) IncrStaleSummary() {
	m.staleSummaries.Inc()
}

// GetFetchSnapshot returns a snapshot of fetch-related counters suitable for
// the GET /v1/metrics/fetch endpoint.
func (m *Metrics) GetFetchSnapshot() *domain.FetchStats {
	// Prometheus counters expose cumulative values.
	success := getCounterValue(m.fetchesTotal, "success")
	errors := getCounterValue(m.fetchesTotal, "error")
	total := success + errors
	cacheHits := getCounterValue(m.cacheHits, "summary")
	cacheMisses := getCounterValue(m.cacheMisses, "summary")

	errorRate := float64(0)
	cacheHitRate := float64(0)
	if total > 0 {
		errorRate = errors / total
	}
	if cacheHits+cacheMisses > 0 {
		cacheHitRate = cacheHits / (cacheHits + cacheMisses)
	}

	return &domain.FetchStats{
		TotalFetches:     int64(total),
		FetchErrors:      int64(errors),
		ErrorRate:        errorRate,
		CacheHitRate:     cacheHitRate,
		RowsNormalized:   int64(getPlainCounterValue(m.rowsNormalized)),
		UnparseableDates: int64(getPlainCounterValue(m.unparseableDates)),
		StaleSummaries:   int64(getPlainCounterValue(m.staleSummaries)),
		Period:           "all_time",
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

func getPlainCounterValue(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
