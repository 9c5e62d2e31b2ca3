// Package metrics declares the Prometheus instruments of the tracking service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PositionReports = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracking_position_reports_total",
			Help: "Shipper position reports by result",
		},
		[]string{"result"}, // "ok", "invalid", "no_destination"
	)

	ETAComputations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracking_eta_computations_total",
			Help: "ETA computations by outcome",
		},
		[]string{"outcome"}, // "ok", "unavailable"
	)

	GeocodeCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tracking_geocode_cache_hits_total",
			Help: "Customer coordinate lookups served from cache",
		},
	)

	GeocodeCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tracking_geocode_cache_misses_total",
			Help: "Customer coordinate lookups that called the geocoding provider",
		},
	)

	ProviderRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tracking_provider_request_duration_seconds",
			Help:    "Latency of external maps provider calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider", "status"},
	)

	ActiveRooms = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tracking_active_rooms",
			Help: "Rooms with at least one subscriber",
		},
	)

	RoomSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tracking_room_subscribers",
			Help: "Total room memberships",
		},
	)

	BroadcastEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracking_broadcast_events_total",
			Help: "Events published to tracking rooms",
		},
		[]string{"type"},
	)

	DroppedDeliveries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tracking_dropped_deliveries_total",
			Help: "Events not delivered because a subscriber queue was full or closed",
		},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tracking_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	MirroredEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracking_mirrored_events_total",
			Help: "Events forwarded to the downstream event topic",
		},
		[]string{"result"},
	)
)
