package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search Prometheus metrics.
var (
	SearchQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bitsync",
			Name:      "search_queries_total",
			Help:      "Total number of search pipeline runs",
		},
		[]string{"category", "status"}, // status: idle / results / empty / failed
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bitsync",
			Name:      "search_duration_seconds",
			Help:      "Search pipeline duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"category"},
	)

	SearchResultsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bitsync",
			Name:      "search_results_total",
			Help:      "Total result items returned, by kind",
		},
		[]string{"kind"},
	)

	SearchSourceErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bitsync",
			Name:      "search_source_errors_total",
			Help:      "Total data source failures",
		},
		[]string{"kind", "error_type"}, // error_type: timeout / failed
	)

	RateLimitedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "bitsync",
			Name:      "rate_limited_requests_total",
			Help:      "Requests rejected by the rate limiter",
		},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers Prometheus search metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchQueriesTotal)
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(SearchResultsTotal)
	prometheus.MustRegister(SearchSourceErrorsTotal)
	prometheus.MustRegister(RateLimitedTotal)
	searchMetricsRegistered = true
}
