package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// ActiveConnections tracks the number of live websocket connections.
	ActiveConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "fleetrelay_active_connections",
			Help: "Number of currently connected websocket clients and sensors.",
		},
	)

	// EventsDispatched counts server-to-client events by event name.
	EventsDispatched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetrelay_events_dispatched_total",
			Help: "Total number of events fanned out to connections.",
		},
		[]string{"event"},
	)

	// TelemetryReports counts ingested telemetry reports by outcome.
	TelemetryReports = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetrelay_telemetry_reports_total",
			Help: "Total number of telemetry reports processed.",
		},
		[]string{"outcome"}, // accepted / invalid / not_found / error
	)

	// IgnitionTransitions counts persisted ignition state changes.
	IgnitionTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetrelay_ignition_transitions_total",
			Help: "Total number of ignition state transitions persisted.",
		},
		[]string{"state"}, // on / off
	)

	// CacheRequests counts cache lookups by module and result.
	CacheRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetrelay_cache_requests_total",
			Help: "Total number of cache lookups.",
		},
		[]string{"module", "result"}, // hit / miss / error
	)
)

func init() {
	prometheus.MustRegister(
		ActiveConnections,
		EventsDispatched,
		TelemetryReports,
		IgnitionTransitions,
		CacheRequests,
	)
}
