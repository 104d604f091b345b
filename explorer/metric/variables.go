package metric

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Compositions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "explorer_compositions_total",
		Help: "The total number of compositions received, by lens and validity",
	}, []string{"lens", "valid"})
	QueryErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "explorer_query_errors_total",
		Help: "The total number of failed warehouse queries",
	}, []string{"lens"})
	QueryTime = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "explorer_query_time_ms",
		Help:    "Warehouse query time in milliseconds",
		Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
	}, []string{"lens"})
	BytesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "explorer_bytes_processed_total",
		Help: "The total number of bytes the warehouse reported processing",
	}, []string{"lens"})
	LookupCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "explorer_lookup_cache_total",
		Help: "Reference list lookups by cache outcome",
	}, []string{"result"})
)
