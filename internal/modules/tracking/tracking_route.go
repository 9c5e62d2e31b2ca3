package tracking

import (
	"context"
	"fmt"
	"time"

	"order-tracking/internal/logging"
	"order-tracking/internal/metrics"
	"order-tracking/internal/models"
)

// Directions returns candidate routes between two points.
type Directions interface {
	Route(ctx context.Context, origin, destination models.GeoPoint, profile models.VehicleProfile) ([]models.Route, error)
}

// RouteEstimator turns provider routes into ETA results.
type RouteEstimator struct {
	directions Directions
	configured bool
	timeout    time.Duration
}

// NewRouteEstimator creates an estimator. When configured is false (no
// provider credential) every estimate is unavailable without a network call.
// Provider calls are bounded by timeout.
func NewRouteEstimator(directions Directions, configured bool, timeout time.Duration) *RouteEstimator {
	if timeout <= 0 {
		timeout = DefaultProviderTimeout
	}
	return &RouteEstimator{
		directions: directions,
		configured: configured && directions != nil,
		timeout:    timeout,
	}
}

// Estimate computes distance, duration and geometry from origin to destination.
// Any provider problem yields models.ErrETAUnavailable.
func (e *RouteEstimator) Estimate(ctx context.Context, origin, destination models.GeoPoint, profile models.VehicleProfile) (*models.ETAResult, error) {
	if !e.configured {
		metrics.ETAComputations.WithLabelValues("unavailable").Inc()
		return nil, models.ErrETAUnavailable
	}
	if profile == "" {
		profile = models.VehicleBike
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	routes, err := e.directions.Route(ctx, origin, destination, profile)
	if err != nil {
		metrics.ETAComputations.WithLabelValues("unavailable").Inc()
		logging.Ctx(ctx).Warn().Err(err).Str("provider", "directions").Msg("route estimation failed")
		return nil, fmt.Errorf("estimator.Estimate: %w", models.ErrETAUnavailable)
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		metrics.ETAComputations.WithLabelValues("unavailable").Inc()
		return nil, models.ErrETAUnavailable
	}

	leg := routes[0].Legs[0]
	text := leg.DurationText
	if text == "" {
		text = FormatDuration(leg.DurationSeconds)
	}

	metrics.ETAComputations.WithLabelValues("ok").Inc()
	return &models.ETAResult{
		DistanceMeters:  leg.DistanceMeters,
		DurationSeconds: leg.DurationSeconds,
		DisplayText:     text,
		EncodedPolyline: routes[0].OverviewPolyline,
	}, nil
}

// FormatDuration renders seconds as "<m> phút" or "<h> giờ <m> phút".
// Seconds are first rounded up to whole minutes; the hour form starts at
// 60 rounded minutes, so 3599s reads "1 giờ 0 phút".
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	minutes := (seconds + 59) / 60
	if minutes < 60 {
		return fmt.Sprintf("%d phút", minutes)
	}
	return fmt.Sprintf("%d giờ %d phút", minutes/60, minutes%60)
}
