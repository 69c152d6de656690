// Package monitor exposes the Prometheus metrics the pathfinder service
// updates per search:
//   - pathfinder_searches_total{status}          – searches by outcome (ok|empty|error)
//   - pathfinder_guard_breaches_total{guard}     – guard-limit hits (expansions|visited_states|time_budget)
//   - pathfinder_search_duration_seconds         – wall time per search
//   - pathfinder_paths_returned                  – result-set sizes
//
// Registered in init() and served by the HTTP handler the service starts at
// /metrics.
package monitor

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/p2pbook/pathfinder/internal/search"
)

var (
	mtxSearches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pathfinder_searches_total",
			Help: "Searches by outcome",
		},
		[]string{"status"},
	)

	mtxGuardBreaches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pathfinder_guard_breaches_total",
			Help: "Guard-limit breaches by guard",
		},
		[]string{"guard"},
	)

	mtxSearchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pathfinder_search_duration_seconds",
			Help:    "Wall time per search",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
		},
	)

	mtxPathsReturned = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pathfinder_paths_returned",
			Help:    "Result-set sizes",
			Buckets: prometheus.LinearBuckets(0, 1, 11),
		},
	)
)

func init() {
	prometheus.MustRegister(mtxSearches, mtxGuardBreaches, mtxSearchDuration, mtxPathsReturned)
}

// ObserveSearch records one search outcome.
func ObserveSearch(paths int, guards search.GuardLimitStatus, elapsed time.Duration, err error) {
	switch {
	case err != nil:
		mtxSearches.WithLabelValues("error").Inc()
	case paths == 0:
		mtxSearches.WithLabelValues("empty").Inc()
	default:
		mtxSearches.WithLabelValues("ok").Inc()
	}
	if guards.ExpansionsReached {
		mtxGuardBreaches.WithLabelValues("expansions").Inc()
	}
	if guards.VisitedStatesReached {
		mtxGuardBreaches.WithLabelValues("visited_states").Inc()
	}
	if guards.TimeBudgetReached {
		mtxGuardBreaches.WithLabelValues("time_budget").Inc()
	}
	mtxSearchDuration.Observe(elapsed.Seconds())
	mtxPathsReturned.Observe(float64(paths))
}
