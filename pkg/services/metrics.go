package services

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	queriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sqlscope_queries_total",
			Help: "Total number of safe query executions by cache outcome.",
		},
		[]string{"cache"},
	)
	rejectedQueriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sqlscope_rejected_queries_total",
			Help: "Total number of queries rejected by validation.",
		},
	)
	accessDeniedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sqlscope_access_denied_total",
			Help: "Total number of queries denied by the table allow-list.",
		},
	)
	slowQueriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sqlscope_slow_queries_total",
			Help: "Total number of executions above the slow query threshold.",
		},
	)
	queryDurationMs = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sqlscope_query_duration_ms",
			Help:    "Query execution latency in milliseconds.",
			Buckets: []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 10000},
		},
	)
)

func init() {
	prometheus.MustRegister(
		queriesTotal,
		rejectedQueriesTotal,
		accessDeniedTotal,
		slowQueriesTotal,
		queryDurationMs,
	)
}
