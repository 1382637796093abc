package retrieval

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SearchesTotal counts backend searches by mode and result.
	SearchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "retrievald",
			Subsystem: "retrieval",
			Name:      "searches_total",
			Help:      "Total number of backend searches",
		},
		[]string{"mode", "result"},
	)

	// SearchDuration tracks backend search latency by mode.
	SearchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "retrievald",
			Subsystem: "retrieval",
			Name:      "search_duration_seconds",
			Help:      "Duration of backend searches in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"mode"},
	)

	// ChunksReturned observes page sizes actually returned.
	ChunksReturned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "retrievald",
			Subsystem: "retrieval",
			Name:      "chunks_returned",
			Help:      "Number of chunks returned per search",
			Buckets:   []float64{0, 1, 5, 10, 30, 100, 300, 1000},
		},
	)
)
