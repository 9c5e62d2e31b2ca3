package tracking

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"order-tracking/internal/models"
)

func TestGeocodeResolver_MissThenHit(t *testing.T) {
	repo := newFakeRepo()
	repo.addresses["O1"] = "1 Lê Lợi"
	geo := &fakeGeocoder{results: map[string][]models.GeoPoint{
		"1 Lê Lợi": {{Lat: 10.72, Lng: 106.65}, {Lat: 0, Lng: 0}},
	}}
	r := NewGeocodeResolver(geo, testTimeout)

	got, err := r.Resolve(context.Background(), "O1", repo)
	require.NoError(t, err)
	assert.Equal(t, models.CustomerCoordinates{OrderID: "O1", Lat: 10.72, Lng: 106.65}, got)

	// The address changing must not change the cached coordinates.
	repo.addresses["O1"] = "somewhere else"
	got, err = r.Resolve(context.Background(), "O1", repo)
	require.NoError(t, err)
	assert.Equal(t, 10.72, got.Lat)
	assert.Equal(t, int32(1), geo.calls.Load(), "cache hit must not call the provider")

	cached, ok := r.Cached("O1")
	assert.True(t, ok)
	assert.Equal(t, got, cached)
}

func TestGeocodeResolver_CachesPerOrder(t *testing.T) {
	repo := newFakeRepo()
	repo.addresses["O1"] = "same"
	repo.addresses["O2"] = "same"
	geo := &fakeGeocoder{results: map[string][]models.GeoPoint{"same": {{Lat: 1, Lng: 1}}}}
	r := NewGeocodeResolver(geo, testTimeout)

	_, err := r.Resolve(context.Background(), "O1", repo)
	require.NoError(t, err)
	_, err = r.Resolve(context.Background(), "O2", repo)
	require.NoError(t, err)
	assert.Equal(t, int32(2), geo.calls.Load())
}

func TestGeocodeResolver_AddressNotFound(t *testing.T) {
	repo := newFakeRepo()
	repo.addresses["blank"] = "   "
	r := NewGeocodeResolver(&fakeGeocoder{}, testTimeout)

	_, err := r.Resolve(context.Background(), "blank", repo)
	assert.ErrorIs(t, err, models.ErrAddressNotFound)

	_, err = r.Resolve(context.Background(), "unknown", repo)
	assert.ErrorIs(t, err, models.ErrAddressNotFound)
}

func TestGeocodeResolver_ProviderFailures(t *testing.T) {
	repo := newFakeRepo()
	repo.addresses["O1"] = "addr"

	tests := []struct {
		name string
		geo  Geocoder
	}{
		{"no results", &fakeGeocoder{results: map[string][]models.GeoPoint{}}},
		{"provider error", &fakeGeocoder{err: errors.New("boom")}},
		{"no provider", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewGeocodeResolver(tt.geo, testTimeout)
			_, err := r.Resolve(context.Background(), "O1", repo)
			assert.ErrorIs(t, err, models.ErrGeocodeUnavailable)
			_, ok := r.Cached("O1")
			assert.False(t, ok, "failures are not cached")
		})
	}
}

func TestGeocodeResolver_LookupFailure(t *testing.T) {
	repo := newFakeRepo()
	repo.err = errors.New("db down")
	r := NewGeocodeResolver(&fakeGeocoder{}, testTimeout)

	_, err := r.Resolve(context.Background(), "O1", repo)
	assert.ErrorIs(t, err, models.ErrGeocodeUnavailable)
}

func TestAddressLookupFunc(t *testing.T) {
	lookup := AddressLookupFunc(func(_ context.Context, id string) (string, error) {
		return "addr-" + id, nil
	})
	geo := &fakeGeocoder{results: map[string][]models.GeoPoint{"addr-O9": {{Lat: 5, Lng: 6}}}}

	got, err := NewGeocodeResolver(geo, testTimeout).Resolve(context.Background(), "O9", lookup)
	require.NoError(t, err)
	assert.Equal(t, 6.0, got.Lng)
}
