// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_http_requests_total",
		Help: "HTTP requests by method, route and status code.",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ledger_http_request_duration_seconds",
		Help:    "HTTP request latency by method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	MatchTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_match_transitions_total",
		Help: "Match state transitions by resulting status.",
	}, []string{"status"})

	Exports = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_exports_total",
		Help: "Export log rows written.",
	})

	ImportedTransactions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_imported_transactions_total",
		Help: "Bank transaction CSV rows by outcome.",
	}, []string{"outcome"})
)

// ObserveMatchTransition counts a match entering status.
func ObserveMatchTransition(status string) {
	MatchTransitions.WithLabelValues(status).Inc()
}
