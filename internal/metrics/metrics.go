package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics stores Prometheus collectors used across the service.
type Metrics struct {
	ActivitiesRecorded *prometheus.CounterVec
	CashOffers         *prometheus.CounterVec
	AnalyticsFallback  *prometheus.CounterVec
	ReaderFailures     *prometheus.CounterVec
	AnalyticsCache     *prometheus.CounterVec
	HTTPRequests       *prometheus.CounterVec
	HTTPLatency        *prometheus.HistogramVec
}

var (
	regOnce         sync.Once
	metricsInstance *Metrics
)

// Registry builds and registers the metrics singleton with optional namespace.
func Registry(namespace string) *Metrics {
	regOnce.Do(func() {
		metricsInstance = New(namespace)
		prometheus.MustRegister(metricsInstance.Collectors()...)
	})
	return metricsInstance
}

// New builds unregistered collectors. Tests use it directly.
func New(namespace string) *Metrics {
	return &Metrics{
		ActivitiesRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "activities_recorded_total",
			Help:      "Customer interactions recorded, by kind.",
		}, []string{"kind"}),
		CashOffers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cash_offers_total",
			Help:      "Cash offers by outcome (submitted, rejected_rule, accepted, rejected).",
		}, []string{"result"}),
		AnalyticsFallback: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analytics_fallback_total",
			Help:      "Reports served from raw event counts instead of per-customer grouping.",
		}, []string{"report"}),
		ReaderFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analytics_reader_failures_total",
			Help:      "Interaction reader failures treated as empty input.",
		}, []string{"source"}),
		AnalyticsCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analytics_cache_total",
			Help:      "Analytics report cache lookups by result.",
		}, []string{"result"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.ActivitiesRecorded,
		m.CashOffers,
		m.AnalyticsFallback,
		m.ReaderFailures,
		m.AnalyticsCache,
		m.HTTPRequests,
		m.HTTPLatency,
	}
}
