package tracking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"order-tracking/internal/logging"
	"order-tracking/internal/metrics"
	"order-tracking/internal/models"
)

// Geocoder resolves a free-text address to candidate coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) ([]models.GeoPoint, error)
}

// AddressLookup returns the shipping address of an order. It is provided
// by the order repository.
type AddressLookup interface {
	GetShippingAddress(ctx context.Context, orderID string) (string, error)
}

// AddressLookupFunc adapts a function to AddressLookup.
type AddressLookupFunc func(ctx context.Context, orderID string) (string, error)

func (f AddressLookupFunc) GetShippingAddress(ctx context.Context, orderID string) (string, error) {
	return f(ctx, orderID)
}

// GeocodeResolver caches customer coordinates per order for the lifetime
// of the process. Concurrent misses for the same order may both call the
// provider; the last one to finish wins.
type GeocodeResolver struct {
	geocoder Geocoder
	timeout  time.Duration
	mu       sync.RWMutex
	cache    map[string]models.CustomerCoordinates
}

// DefaultProviderTimeout bounds a single geocoding or directions call.
const DefaultProviderTimeout = 5 * time.Second

// NewGeocodeResolver creates a resolver. A nil geocoder makes every miss
// unavailable.
func NewGeocodeResolver(geocoder Geocoder, timeout time.Duration) *GeocodeResolver {
	if timeout <= 0 {
		timeout = DefaultProviderTimeout
	}
	return &GeocodeResolver{
		geocoder: geocoder,
		timeout:  timeout,
		cache:    make(map[string]models.CustomerCoordinates),
	}
}

// Resolve returns the delivery coordinates of orderID. It fails with
// models.ErrAddressNotFound when the order has no shipping address and with
// models.ErrGeocodeUnavailable when the provider cannot answer.
func (r *GeocodeResolver) Resolve(ctx context.Context, orderID string, lookup AddressLookup) (models.CustomerCoordinates, error) {
	r.mu.RLock()
	coords, ok := r.cache[orderID]
	r.mu.RUnlock()
	if ok {
		metrics.GeocodeCacheHits.Inc()
		return coords, nil
	}
	metrics.GeocodeCacheMisses.Inc()

	address, err := lookup.GetShippingAddress(ctx, orderID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.CustomerCoordinates{}, models.ErrAddressNotFound
		}
		logging.Ctx(ctx).Warn().Err(err).Str("order_id", orderID).Msg("shipping address lookup failed")
		return models.CustomerCoordinates{}, fmt.Errorf("resolver.Resolve lookup: %w", models.ErrGeocodeUnavailable)
	}
	address = strings.TrimSpace(address)
	if address == "" {
		return models.CustomerCoordinates{}, models.ErrAddressNotFound
	}

	if r.geocoder == nil {
		return models.CustomerCoordinates{}, models.ErrGeocodeUnavailable
	}
	gctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	points, err := r.geocoder.Geocode(gctx, address)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("order_id", orderID).Str("provider", "geocode").Msg("geocoding failed")
		return models.CustomerCoordinates{}, fmt.Errorf("resolver.Resolve geocode: %w", models.ErrGeocodeUnavailable)
	}
	if len(points) == 0 {
		return models.CustomerCoordinates{}, models.ErrGeocodeUnavailable
	}

	coords = models.CustomerCoordinates{OrderID: orderID, Lat: points[0].Lat, Lng: points[0].Lng}
	r.mu.Lock()
	r.cache[orderID] = coords
	r.mu.Unlock()
	return coords, nil
}

// Cached returns the cached coordinates without touching the provider.
func (r *GeocodeResolver) Cached(orderID string) (models.CustomerCoordinates, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	coords, ok := r.cache[orderID]
	return coords, ok
}
