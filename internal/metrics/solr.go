package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search service Prometheus metrics.
var (
	SolrRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "solrq",
			Name:      "solr_requests_total",
			Help:      "Total number of requests sent to the search service",
		},
		[]string{"operation", "method", "status"},
	)

	SolrRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "solrq",
			Name:      "solr_request_duration_seconds",
			Help:      "Search service request duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	SolrErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "solrq",
			Name:      "solr_errors_total",
			Help:      "Total search service errors",
		},
		[]string{"operation", "error_type"},
	)

	SolrResultsFound = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "solrq",
			Name:      "solr_results_found",
			Help:      "Number of matching documents reported per select",
			Buckets:   prometheus.ExponentialBuckets(1, 10, 7),
		},
	)

	ResponseCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "solrq",
			Name:      "response_cache_total",
			Help:      "Select response cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

// SolrCollectors returns the search service and cache collectors.
func SolrCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		SolrRequestsTotal,
		SolrRequestDuration,
		SolrErrorsTotal,
		SolrResultsFound,
		ResponseCacheTotal,
	}
}

var solrMetricsRegistered bool

// RegisterSolrMetrics registers the search service metrics. Must be called once from main.
func RegisterSolrMetrics() {
	if solrMetricsRegistered {
		return
	}
	prometheus.MustRegister(SolrCollectors()...)
	solrMetricsRegistered = true
}
