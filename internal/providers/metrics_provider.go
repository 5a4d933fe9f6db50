package providers

import (
	"time"
	"unifeed/internal/structures"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type MetricsProviderInterface interface {
	IncRequestsTotal(endpoint string, status int)
	ObserveRequestDuration(endpoint string, duration time.Duration)
	IncCacheHits()
	IncCacheMisses()
	ObserveRefreshDuration(duration time.Duration)
	IncSourceFailures(kind string)
	IncMutations(action, outcome string)
	IncChangeEvents(op string)
	IncRefreshSuppressed()
	SetEntriesTotal(kind string, count int)
}

// SessionCounter reports the number of open viewing sessions.
type SessionCounter interface {
	Len() int
}

type MetricsProvider struct {
	requestsTotal     *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	cacheHits         prometheus.Counter
	cacheMisses       prometheus.Counter
	refreshDuration   prometheus.Histogram
	sourceFailures    *prometheus.CounterVec
	mutationsTotal    *prometheus.CounterVec
	changeEvents      *prometheus.CounterVec
	refreshSuppressed prometheus.Counter
	entriesTotal      *prometheus.GaugeVec
}

func (m *MetricsProvider) IncRequestsTotal(endpoint string, status int) {
	m.requestsTotal.WithLabelValues(endpoint, httpStatusBucket(status)).Inc()
}

func (m *MetricsProvider) ObserveRequestDuration(endpoint string, duration time.Duration) {
	m.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *MetricsProvider) IncCacheHits() {
	m.cacheHits.Inc()
}

func (m *MetricsProvider) IncCacheMisses() {
	m.cacheMisses.Inc()
}

func (m *MetricsProvider) ObserveRefreshDuration(duration time.Duration) {
	m.refreshDuration.Observe(duration.Seconds())
}

func (m *MetricsProvider) IncSourceFailures(kind string) {
	m.sourceFailures.WithLabelValues(kind).Inc()
}

func (m *MetricsProvider) IncMutations(action, outcome string) {
	m.mutationsTotal.WithLabelValues(action, outcome).Inc()
}

func (m *MetricsProvider) IncChangeEvents(op string) {
	m.changeEvents.WithLabelValues(op).Inc()
}

func (m *MetricsProvider) IncRefreshSuppressed() {
	m.refreshSuppressed.Inc()
}

func (m *MetricsProvider) SetEntriesTotal(kind string, count int) {
	m.entriesTotal.WithLabelValues(kind).Set(float64(count))
}

func httpStatusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

func NewMetricsProvider(conf *structures.Config, sessions SessionCounter) MetricsProviderInterface {
	if !conf.Metrics.Enabled {
		return &noopMetrics{}
	}

	m := &MetricsProvider{
		requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "unifeed_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"endpoint", "status"}),

		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "unifeed_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		cacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "unifeed_cache_hits_total",
			Help: "Total number of local cache hits",
		}),

		cacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "unifeed_cache_misses_total",
			Help: "Total number of local cache misses",
		}),

		refreshDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "unifeed_refresh_duration_seconds",
			Help:    "Duration of timeline refreshes in seconds",
			Buckets: prometheus.DefBuckets,
		}),

		sourceFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "unifeed_source_failures_total",
			Help: "Total number of failed content source fetches",
		}, []string{"kind"}),

		mutationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "unifeed_mutations_total",
			Help: "Total number of optimistic mutations by outcome",
		}, []string{"action", "outcome"}),

		changeEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "unifeed_change_events_total",
			Help: "Total number of change-feed events received",
		}, []string{"op"}),

		refreshSuppressed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "unifeed_refresh_suppressed_total",
			Help: "Change-feed refresh triggers dropped inside the cooldown window",
		}),

		entriesTotal: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "unifeed_entries_total",
			Help: "Entries per kind in the last completed refresh",
		}, []string{"kind"}),
	}

	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "unifeed_sessions_open",
		Help: "Current number of open viewing sessions",
	}, func() float64 {
		return float64(sessions.Len())
	})

	return m
}

// noopMetrics is a no-op implementation for when metrics are disabled.
type noopMetrics struct{}

// NewNoopMetrics returns a MetricsProviderInterface that records nothing.
func NewNoopMetrics() MetricsProviderInterface {
	return &noopMetrics{}
}

func (n *noopMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (n *noopMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (n *noopMetrics) IncCacheHits()                                    {}
func (n *noopMetrics) IncCacheMisses()                                  {}
func (n *noopMetrics) ObserveRefreshDuration(_ time.Duration)           {}
func (n *noopMetrics) IncSourceFailures(_ string)                       {}
func (n *noopMetrics) IncMutations(_, _ string)                         {}
func (n *noopMetrics) IncChangeEvents(_ string)                         {}
func (n *noopMetrics) IncRefreshSuppressed()                            {}
func (n *noopMetrics) SetEntriesTotal(_ string, _ int)                  {}
