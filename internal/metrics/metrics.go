package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SearchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flightgraph_searches_total",
		Help: "Searches by terminal status and failure reason",
	}, []string{"status", "reason"})

	ExplorationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "flightgraph_exploration_duration_seconds",
		Help:    "Time from search creation to a terminal status",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	})

	LegsExplored = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flightgraph_legs_explored_total",
		Help: "Per-leg path searches by outcome",
	}, []string{"outcome"})

	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flightgraph_cache_lookups_total",
		Help: "Provider response cache lookups by result",
	}, []string{"result"})

	ProviderRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flightgraph_provider_requests_total",
		Help: "Outbound provider attempts by outcome",
	}, []string{"provider", "outcome"})

	BudgetDenied = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flightgraph_budget_denied_total",
		Help: "Provider requests refused because the daily budget was spent",
	})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flightgraph_http_requests_total",
		Help: "Total HTTP requests processed, labeled by status code",
	}, []string{"method", "endpoint", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "flightgraph_http_request_duration_seconds",
		Help:    "Latency distribution of HTTP requests",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"method", "endpoint"})
)
