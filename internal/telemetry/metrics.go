// Package telemetry provides observability primitives for restorehq.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus collectors for the service.
type Metrics struct {
	RequestsTotal     *prometheus.CounterVec
	RequestDuration   *prometheus.HistogramVec
	ActiveRequests    prometheus.Gauge
	PostcodeChecks    *prometheus.CounterVec
	SearchCacheHits   prometheus.Counter
	SearchCacheMisses prometheus.Counter
	LeadsReceived     *prometheus.CounterVec
	LeadsDropped      prometheus.Counter
	LeadQueueLength   prometheus.Gauge
	NotifyDuration    *prometheus.HistogramVec
	NotifyErrors      *prometheus.CounterVec
	RateLimitRejects  prometheus.Counter
}

// NewMetrics creates and registers all metrics with the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "restorehq",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),

		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:                       "restorehq",
			Name:                            "request_duration_seconds",
			Help:                            "HTTP request duration in seconds.",
			NativeHistogramBucketFactor:     1.1,
			NativeHistogramMaxBucketNumber:  100,
			NativeHistogramMinResetDuration: 0,
		}, []string{"method", "path"}),

		ActiveRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "restorehq",
			Name:      "active_requests",
			Help:      "Number of currently active requests.",
		}),

		PostcodeChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "restorehq",
			Name:      "postcode_checks_total",
			Help:      "Postcode coverage checks by outcome.",
		}, []string{"serviced"}),

		SearchCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "restorehq",
			Name:      "search_cache_hits_total",
			Help:      "Total search result cache hits.",
		}),

		SearchCacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "restorehq",
			Name:      "search_cache_misses_total",
			Help:      "Total search result cache misses.",
		}),

		LeadsReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "restorehq",
			Name:      "leads_received_total",
			Help:      "Contact-form leads accepted, by urgency.",
		}, []string{"urgency"}),

		LeadsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "restorehq",
			Name:      "leads_dropped_total",
			Help:      "Leads dropped because the dispatch queue was full.",
		}),

		LeadQueueLength: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "restorehq",
			Name:      "lead_queue_length",
			Help:      "Current number of queued leads.",
		}),

		NotifyDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:                       "restorehq",
			Name:                            "notify_duration_seconds",
			Help:                            "Outbound lead notification duration in seconds.",
			NativeHistogramBucketFactor:     1.1,
			NativeHistogramMaxBucketNumber:  100,
			NativeHistogramMinResetDuration: 0,
		}, []string{"notifier"}),

		NotifyErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "restorehq",
			Name:      "notify_errors_total",
			Help:      "Total failed lead notifications.",
		}, []string{"notifier"}),

		RateLimitRejects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "restorehq",
			Name:      "ratelimit_rejects_total",
			Help:      "Total contact submissions rejected by the rate limiter.",
		}),
	}

	reg.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.ActiveRequests,
		m.PostcodeChecks,
		m.SearchCacheHits,
		m.SearchCacheMisses,
		m.LeadsReceived,
		m.LeadsDropped,
		m.LeadQueueLength,
		m.NotifyDuration,
		m.NotifyErrors,
		m.RateLimitRejects,
	)

	return m
}
