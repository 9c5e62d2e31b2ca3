package maps

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"order-tracking/internal/logging"
	"order-tracking/internal/metrics"
	"order-tracking/internal/models"
)

// BreakerClient guards the provider client with one circuit breaker per
// endpoint so a failing directions API does not stall geocoding and vice versa.
type BreakerClient struct {
	client     *Client
	geocodeCB  *gobreaker.CircuitBreaker[[]models.GeoPoint]
	directions *gobreaker.CircuitBreaker[[]models.Route]
}

// NewBreakerClient wraps client. The circuit opens after 5 consecutive
// failures and probes again after 30 seconds.
func NewBreakerClient(client *Client) *BreakerClient {
	return &BreakerClient{
		client:     client,
		geocodeCB:  gobreaker.NewCircuitBreaker[[]models.GeoPoint](breakerSettings("maps-geocode")),
		directions: gobreaker.NewCircuitBreaker[[]models.Route](breakerSettings("maps-directions")),
	}
}

func breakerSettings(name string) gobreaker.Settings {
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)
	return gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// A missing key is a configuration state, not a provider failure.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotConfigured)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	}
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// Geocode calls Client.Geocode through the geocode breaker.
func (b *BreakerClient) Geocode(ctx context.Context, address string) ([]models.GeoPoint, error) {
	return b.geocodeCB.Execute(func() ([]models.GeoPoint, error) {
		return b.client.Geocode(ctx, address)
	})
}

// Route calls Client.Route through the directions breaker.
func (b *BreakerClient) Route(ctx context.Context, origin, destination models.GeoPoint, profile models.VehicleProfile) ([]models.Route, error) {
	return b.directions.Execute(func() ([]models.Route, error) {
		return b.client.Route(ctx, origin, destination, profile)
	})
}

// Configured reports whether the wrapped client has an API key.
func (b *BreakerClient) Configured() bool {
	return b.client.Configured()
}
