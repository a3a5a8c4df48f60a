package metrics

import "github.com/prometheus/client_golang/prometheus"

// Ranking and search cache Prometheus metrics.
var (
	RankingDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "semsearch",
			Name:      "ranking_duration_seconds",
			Help:      "Ranking pipeline duration in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
	)

	RankingDocuments = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "semsearch",
			Name:      "ranking_documents",
			Help:      "Documents entering and leaving the ranking pipeline",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100},
		},
		[]string{"stage"}, // "candidates" / "results"
	)

	SearchResultCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "semsearch",
			Name:      "search_result_cache_total",
			Help:      "Search result cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers ranking and result cache metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(RankingDuration)
	prometheus.MustRegister(RankingDocuments)
	prometheus.MustRegister(SearchResultCacheTotal)
	searchMetricsRegistered = true
}
