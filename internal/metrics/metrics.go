package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "catalog",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests by method, path and status code.",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "catalog",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds.",
		Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.3, 0.5, 1, 2, 5},
	}, []string{"method", "path"})

	FeedFetchTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "catalog",
		Name:      "feed_fetch_total",
		Help:      "Total feed refresh attempts by result status.",
	}, []string{"status"})

	FeedFetchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "catalog",
		Name:      "feed_fetch_duration_seconds",
		Help:      "Feed retrieval and parse duration in seconds.",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 20, 30},
	})

	CatalogRecords = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "catalog",
		Name:      "records",
		Help:      "Number of movie records in the current record set.",
	})

	CatalogLoading = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "catalog",
		Name:      "loading",
		Help:      "Whether a feed refresh is in flight (1) or not (0).",
	})

	RowsSkippedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "catalog",
		Name:      "rows_skipped_total",
		Help:      "Total feed rows discarded for having fewer than four columns.",
	})

	QueryCacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "catalog",
		Name:      "query_cache_hits_total",
		Help:      "Total number of filtered query cache hits.",
	})

	QueryCacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "catalog",
		Name:      "query_cache_misses_total",
		Help:      "Total number of filtered query cache misses.",
	})

	ImageProxyRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "catalog",
		Name:      "image_proxy_requests_total",
		Help:      "Total poster proxy requests by result status.",
	}, []string{"status"})

	WebSocketClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "catalog",
		Name:      "ws_clients",
		Help:      "Number of connected WebSocket clients.",
	})
)

func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		FeedFetchTotal,
		FeedFetchDuration,
		CatalogRecords,
		CatalogLoading,
		RowsSkippedTotal,
		QueryCacheHitsTotal,
		QueryCacheMissesTotal,
		ImageProxyRequestsTotal,
		WebSocketClients,
	)
}
