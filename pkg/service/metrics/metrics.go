// Package metrics defines the Prometheus collectors of the sync engine.
// They are registered on the default registry and exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Fetch coordinator
	FetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "repairdesk_fetch_total",
			Help: "Total number of case fetch requests by outcome",
		},
		[]string{"outcome"},
	)

	FetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "repairdesk_fetch_duration_seconds",
			Help:    "Duration of remote case fetches in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	CachedCases = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "repairdesk_cases",
			Help: "Number of owned cases currently held in memory",
		},
	)

	// Status mutator
	StatusUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "repairdesk_status_updates_total",
			Help: "Total number of status change attempts by result",
		},
		[]string{"result"},
	)

	// Realtime listener
	RealtimeEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "repairdesk_realtime_events_total",
			Help: "Total number of realtime change events by type",
		},
		[]string{"type"},
	)

	RealtimeReconnects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "repairdesk_realtime_reconnects_total",
			Help: "Total number of realtime subscription re-establishments",
		},
	)

	// Local cache store
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "repairdesk_cache_errors_total",
			Help: "Total number of local cache store failures by operation",
		},
		[]string{"op"},
	)

	// Connectivity
	Online = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "repairdesk_online",
			Help: "1 when the backend is reachable, 0 otherwise",
		},
	)
)

// Fetch outcomes
const (
	OutcomeRemote    = "remote"
	OutcomeCache     = "cache"
	OutcomeEmpty     = "empty"
	OutcomeAuthError = "auth_error"
	OutcomeSkipped   = "skipped"
)

// Status update results
const (
	ResultUpdated  = "updated"
	ResultClaimed  = "claimed"
	ResultRejected = "rejected"
	ResultFailed   = "failed"
)

// SetOnline records the connectivity state
func SetOnline(online bool) {
	if online {
		Online.Set(1)
		return
	}
	Online.Set(0)
}
