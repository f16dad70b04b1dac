package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	engineRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tracksearch",
			Name:      "engine_request_duration_seconds",
			Help:      "Search engine round-trip duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"op", "outcome"},
	)

	indexOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tracksearch",
			Name:      "index_operations_total",
			Help:      "Total document index/delete/bulk operations",
		},
		[]string{"op", "outcome"},
	)

	searchQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tracksearch",
			Name:      "search_queries_total",
			Help:      "Total search queries by variant",
		},
		[]string{"variant"},
	)
)

// RegisterSearchMetrics registers engine and search metrics explicitly (no init()).
func RegisterSearchMetrics() {
	prometheus.MustRegister(engineRequestDuration)
	prometheus.MustRegister(indexOperationsTotal)
	prometheus.MustRegister(searchQueriesTotal)
}

// ObserveEngineRequest records one engine round trip.
func ObserveEngineRequest(op string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	engineRequestDuration.WithLabelValues(op, outcome).Observe(time.Since(start).Seconds())
}

// CountIndexOperation records one write-path operation outcome.
func CountIndexOperation(op string, ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	indexOperationsTotal.WithLabelValues(op, outcome).Inc()
}

// CountSearchQuery records one executed search by variant ("basic", "advanced", "count").
func CountSearchQuery(variant string) {
	searchQueriesTotal.WithLabelValues(variant).Inc()
}
