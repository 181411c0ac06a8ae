package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Query kinds used as the "kind" label.
const (
	KindHits  = "hits"
	KindFacet = "facet"
)

// Search backend Prometheus metrics.
var (
	QueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "facetdex",
			Name:      "query_duration_seconds",
			Help:      "Backend query duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"backend", "kind"},
	)

	QueryErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "facetdex",
			Name:      "query_errors_total",
			Help:      "Total number of failed backend queries",
		},
		[]string{"backend", "kind"},
	)

	FacetsReturned = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "facetdex",
			Name:      "facets_returned",
			Help:      "Number of buckets returned per facet query",
			Buckets:   []float64{0, 1, 5, 10, 50, 100, 500, 1000},
		},
	)
)

var registerQueryOnce sync.Once

// RegisterQueryMetrics registers the query metrics with the default registry.
// Must be called from main; repeated calls are no-ops.
func RegisterQueryMetrics() {
	registerQueryOnce.Do(func() {
		prometheus.MustRegister(QueryDuration)
		prometheus.MustRegister(QueryErrorsTotal)
		prometheus.MustRegister(FacetsReturned)
	})
}
