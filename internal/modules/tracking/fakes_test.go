package tracking

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"order-tracking/internal/models"
)

// fakeRepo is an in-memory OrderRepository.
type fakeRepo struct {
	mu        sync.Mutex
	addresses map[string]string
	shipments map[string]*models.Shipment
	err       error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{addresses: map[string]string{}, shipments: map[string]*models.Shipment{}}
}

func (r *fakeRepo) GetShippingAddress(_ context.Context, orderID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return "", r.err
	}
	addr, ok := r.addresses[orderID]
	if !ok {
		return "", models.ErrNotFound
	}
	return addr, nil
}

func (r *fakeRepo) GetActiveShipment(_ context.Context, orderID string, statuses []string) (*models.Shipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	s, ok := r.shipments[orderID]
	if !ok {
		return nil, models.ErrNotFound
	}
	for _, st := range statuses {
		if st == s.Status {
			cp := *s
			return &cp, nil
		}
	}
	return nil, models.ErrNotFound
}

// fakeGeocoder returns a fixed answer per address.
type fakeGeocoder struct {
	results map[string][]models.GeoPoint
	err     error
	calls   atomic.Int32
}

func (g *fakeGeocoder) Geocode(_ context.Context, address string) ([]models.GeoPoint, error) {
	g.calls.Add(1)
	if g.err != nil {
		return nil, g.err
	}
	return g.results[address], nil
}

// fakeDirections returns fixed routes, or blocks until ctx is done when
// block is set.
type fakeDirections struct {
	mu       sync.Mutex
	routes   []models.Route
	err      error
	block    bool
	profiles []models.VehicleProfile
	released atomic.Int32
}

func (d *fakeDirections) Route(ctx context.Context, _, _ models.GeoPoint, profile models.VehicleProfile) ([]models.Route, error) {
	d.mu.Lock()
	d.profiles = append(d.profiles, profile)
	d.mu.Unlock()
	if d.block {
		<-ctx.Done()
		d.released.Add(1)
		return nil, ctx.Err()
	}
	return d.routes, d.err
}

func (d *fakeDirections) lastProfile() models.VehicleProfile {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.profiles) == 0 {
		return ""
	}
	return d.profiles[len(d.profiles)-1]
}

// fakeNotifier records notifications.
type fakeNotifier struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (n *fakeNotifier) NotifyStatusChange(_ context.Context, to string, s *models.Shipment, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, to+"|"+s.Status)
	return n.err
}

const testTimeout = 100 * time.Millisecond

func route(distance, duration int, text string) []models.Route {
	return []models.Route{{
		Legs:             []models.RouteLeg{{DistanceMeters: distance, DurationSeconds: duration, DurationText: text}},
		OverviewPolyline: "poly",
	}}
}

// fixture wires the whole tracking module against fakes.
type fixture struct {
	repo       *fakeRepo
	geocoder   *fakeGeocoder
	directions *fakeDirections
	notifier   *fakeNotifier
	cache      *LocationCache
	rooms      *RoomBroadcaster
	orch       *Orchestrator
	query      *QueryService
	now        time.Time
}

func newFixture() *fixture {
	f := &fixture{
		repo:       newFakeRepo(),
		geocoder:   &fakeGeocoder{results: map[string][]models.GeoPoint{}},
		directions: &fakeDirections{},
		notifier:   &fakeNotifier{},
		cache:      NewLocationCache(),
		now:        time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	resolver := NewGeocodeResolver(f.geocoder, testTimeout)
	estimator := NewRouteEstimator(f.directions, true, testTimeout)
	f.rooms = NewRoomBroadcaster(nil)
	f.orch = NewOrchestrator(f.cache, resolver, estimator, f.rooms, f.repo, f.notifier)
	f.orch.now = func() time.Time { return f.now }
	f.query = NewQueryService(f.cache, resolver, estimator, f.repo)
	f.query.now = func() time.Time { return f.now }
	return f
}

func (f *fixture) close() {
	f.orch.Close()
	f.cache.Close()
}
