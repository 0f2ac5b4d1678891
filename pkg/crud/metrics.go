package crud

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsCollector exposes prometheus metrics for endpoint calls and the
// result cache. A nil collector records nothing.
type MetricsCollector struct {
	callsTotal       *prometheus.CounterVec
	requestsTotal    *prometheus.CounterVec
	requestsInFlight *prometheus.GaugeVec
	requestDuration  *prometheus.HistogramVec
	cacheHits        *prometheus.CounterVec
	cacheMisses      *prometheus.CounterVec
	invalidations    *prometheus.CounterVec
	errorsTotal      *prometheus.CounterVec
}

// NewMetricsCollector creates a collector on the default registerer.
func NewMetricsCollector() *MetricsCollector {
	return NewMetricsCollectorWithRegistry(prometheus.DefaultRegisterer)
}

// NewMetricsCollectorWithRegistry creates a collector using the supplied registerer.
func NewMetricsCollectorWithRegistry(registry prometheus.Registerer) *MetricsCollector {
	labels := []string{"resource", "endpoint"}

	return &MetricsCollector{
		callsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "restcrud_endpoint_calls_total",
				Help: "Total number of endpoint calls, cached or not",
			},
			labels,
		),
		requestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "restcrud_requests_total",
				Help: "Total number of HTTP requests issued by endpoints",
			},
			[]string{"resource", "endpoint", "method", "status_code"},
		),
		requestsInFlight: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "restcrud_requests_in_flight",
				Help: "Number of endpoint requests currently in flight",
			},
			labels,
		),
		requestDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "restcrud_request_duration_seconds",
				Help:    "Duration of endpoint requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			labels,
		),
		cacheHits: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "restcrud_cache_hits_total",
				Help: "Total number of calls answered from the result cache",
			},
			labels,
		),
		cacheMisses: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "restcrud_cache_misses_total",
				Help: "Total number of cachable calls that had to go to the network",
			},
			labels,
		),
		invalidations: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "restcrud_cache_invalidated_entries_total",
				Help: "Total number of cache entries removed by invalidation",
			},
			[]string{"resource", "source"},
		),
		errorsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "restcrud_errors_total",
				Help: "Total number of failed endpoint requests",
			},
			labels,
		),
	}
}

// RecordCall counts one endpoint invocation.
func (m *MetricsCollector) RecordCall(resource, endpoint string) {
	if m == nil {
		return
	}

	m.callsTotal.WithLabelValues(resource, endpoint).Inc()
}

// RecordCacheHit counts a call served from the cache.
func (m *MetricsCollector) RecordCacheHit(resource, endpoint string) {
	if m == nil {
		return
	}

	m.cacheHits.WithLabelValues(resource, endpoint).Inc()
}

// RecordCacheMiss counts a cachable call that had no usable entry.
func (m *MetricsCollector) RecordCacheMiss(resource, endpoint string) {
	if m == nil {
		return
	}

	m.cacheMisses.WithLabelValues(resource, endpoint).Inc()
}

// RecordRequestStart marks a request as in flight.
func (m *MetricsCollector) RecordRequestStart(resource, endpoint string) {
	if m == nil {
		return
	}

	m.requestsInFlight.WithLabelValues(resource, endpoint).Inc()
}

// RecordRequestEnd records the outcome of a request started with
// RecordRequestStart. statusCode is 0 when no response was received.
func (m *MetricsCollector) RecordRequestEnd(resource, endpoint, method string, statusCode int, seconds float64, failed bool) {
	if m == nil {
		return
	}

	m.requestsInFlight.WithLabelValues(resource, endpoint).Dec()
	m.requestsTotal.WithLabelValues(resource, endpoint, method, strconv.Itoa(statusCode)).Inc()
	m.requestDuration.WithLabelValues(resource, endpoint).Observe(seconds)

	if failed {
		m.errorsTotal.WithLabelValues(resource, endpoint).Inc()
	}
}

// RecordInvalidation counts removed entries. source is "local" or "remote".
func (m *MetricsCollector) RecordInvalidation(resource, source string, removed int) {
	if m == nil || removed == 0 {
		return
	}

	m.invalidations.WithLabelValues(resource, source).Add(float64(removed))
}
