package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Retrieval pipeline metrics.
var (
	RetrievalRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retrieval_requests_total",
			Help:      "Total number of document retrieval calls",
		},
		[]string{"status"}, // "ok" / "invalid" / "error"
	)

	RetrievalDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieval_duration_seconds",
			Help:      "End-to-end retrieval duration in seconds, full-text fetches included",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	DedupDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dedup_dropped_total",
			Help:      "Candidates dropped as repeats of an already returned full-text document",
		},
	)

	FullTextFetchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fulltext_fetch_total",
			Help:      "Full-text document fetches",
		},
		[]string{"status"}, // "ok" / "error"
	)

	FacetLookupTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "facet_lookup_total",
			Help:      "Facet value resolutions by outcome",
		},
		[]string{"facet", "status"},
	)
)

// Evaluation metrics.
var EvalScore = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "eval_score",
		Help:      "Mean evaluation score of the last run",
	},
	[]string{"mode"},
)

var retrievalOnce sync.Once

// RegisterRetrievalMetrics registers the retrieval and evaluation collectors.
func RegisterRetrievalMetrics() {
	register(&retrievalOnce,
		RetrievalRequestsTotal, RetrievalDuration, DedupDroppedTotal,
		FullTextFetchTotal, FacetLookupTotal, EvalScore)
}
