package tracking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"order-tracking/internal/models"
)

func joinCustomer(t *testing.T, f *fixture, orderID string) *QueueSubscriber {
	t.Helper()
	sub := NewQueueSubscriber("viewer-"+orderID, 16)
	f.rooms.Join(orderID, sub, models.RoleCustomer)
	require.Equal(t, []models.EventType{models.EventJoinedRoom}, eventTypes(drain(sub)))
	return sub
}

func TestReportPosition_BroadcastsPositionThenETA(t *testing.T) {
	f := newFixture()
	defer f.close()
	f.repo.addresses["O1"] = "12 Nguyễn Huệ, Quận 1"
	f.geocoder.results["12 Nguyễn Huệ, Quận 1"] = []models.GeoPoint{{Lat: 10.72, Lng: 106.65}}
	f.directions.routes = route(3000, 600, "")
	sub := joinCustomer(t, f, "O1")
	at := f.now.Add(-2 * time.Second)

	res, err := f.orch.ReportPosition(context.Background(), models.PositionReport{
		OrderID: "O1", Lat: 10.7, Lng: 106.6, VehicleProfile: models.VehicleCar, CapturedAt: at,
	})
	require.NoError(t, err)
	require.NotNil(t, res.ETA)
	assert.Equal(t, "O1", res.OrderID)
	assert.Equal(t, models.TimedLocation{Lat: 10.7, Lng: 106.6, Timestamp: at}, res.Location)
	assert.Equal(t, 3000, res.ETA.DistanceMeters)
	assert.Equal(t, 600, res.ETA.DurationSeconds)
	assert.Equal(t, "10 phút", res.ETA.DisplayText)
	assert.Equal(t, models.VehicleCar, f.directions.lastProfile())

	events := drain(sub)
	require.Equal(t, []models.EventType{models.EventShipperMoved, models.EventUpdateETA}, eventTypes(events))
	moved := events[0]
	assert.Equal(t, "O1", moved.OrderID)
	require.NotNil(t, moved.Location)
	assert.Equal(t, models.GeoPoint{Lat: 10.7, Lng: 106.6}, *moved.Location)
	assert.Equal(t, at, moved.Timestamp)
	update := events[1]
	require.NotNil(t, update.ETA)
	assert.Equal(t, models.ETAPayload{Distance: 3000, Duration: 600, Text: "10 phút", Polyline: "poly"}, *update.ETA)

	snap, ok := f.cache.Get("O1", f.now)
	require.True(t, ok)
	assert.Equal(t, models.VehicleCar, snap.VehicleProfile)
	assert.Equal(t, at, snap.CapturedAt)
}

func TestReportPosition_ProviderTimeoutStillBroadcastsPosition(t *testing.T) {
	f := newFixture()
	defer f.close()
	f.repo.addresses["O1"] = "addr"
	f.geocoder.results["addr"] = []models.GeoPoint{{Lat: 10.72, Lng: 106.65}}
	f.directions.block = true
	sub := joinCustomer(t, f, "O1")

	res, err := f.orch.ReportPosition(context.Background(), models.PositionReport{OrderID: "O1", Lat: 10.7, Lng: 106.6})
	require.NoError(t, err)
	assert.Nil(t, res.ETA)
	assert.Equal(t, []models.EventType{models.EventShipperMoved}, eventTypes(drain(sub)))
}

func TestReportPosition_UnknownCustomerLocation(t *testing.T) {
	f := newFixture()
	defer f.close()
	f.repo.addresses["O2"] = ""
	sub := joinCustomer(t, f, "O2")

	res, err := f.orch.ReportPosition(context.Background(), models.PositionReport{OrderID: "O2", Lat: 10.7, Lng: 106.6})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, models.ErrCustomerLocationUnknown)
	assert.ErrorIs(t, err, models.ErrAddressNotFound)
	assert.Empty(t, drain(sub), "nothing is broadcast when the destination is unknown")

	_, ok := f.cache.Get("O2", f.now)
	assert.True(t, ok, "position is cached before the destination is resolved")
}

func TestReportPosition_GeocodeUnavailable(t *testing.T) {
	f := newFixture()
	defer f.close()
	f.repo.addresses["O3"] = "addr"
	f.geocoder.err = errors.New("quota exceeded")

	_, err := f.orch.ReportPosition(context.Background(), models.PositionReport{OrderID: "O3", Lat: 1, Lng: 1})
	assert.ErrorIs(t, err, models.ErrCustomerLocationUnknown)
	assert.ErrorIs(t, err, models.ErrGeocodeUnavailable)
}

func TestReportPosition_InvalidCoordinates(t *testing.T) {
	tests := []struct {
		name     string
		lat, lng float64
	}{
		{"lat too high", 90.5, 0},
		{"lat too low", -91, 0},
		{"lng too high", 0, 180.01},
		{"lng too low", 0, -200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			defer f.close()

			_, err := f.orch.ReportPosition(context.Background(), models.PositionReport{OrderID: "O1", Lat: tt.lat, Lng: tt.lng})
			assert.ErrorIs(t, err, models.ErrInvalidCoordinates)
			assert.Equal(t, 0, f.cache.Len())
		})
	}
}

func TestReportPosition_Defaults(t *testing.T) {
	f := newFixture()
	defer f.close()
	f.repo.addresses["O1"] = "addr"
	f.geocoder.results["addr"] = []models.GeoPoint{{Lat: 10.72, Lng: 106.65}}
	f.directions.routes = route(500, 90, "")

	res, err := f.orch.ReportPosition(context.Background(), models.PositionReport{OrderID: "O1", Lat: 10.7, Lng: 106.6})
	require.NoError(t, err)
	assert.Equal(t, f.now, res.Location.Timestamp)
	assert.Equal(t, "2 phút", res.ETA.DisplayText)
	assert.Equal(t, models.VehicleBike, f.directions.lastProfile())

	snap, ok := f.cache.Get("O1", f.now)
	require.True(t, ok)
	assert.Equal(t, models.VehicleBike, snap.VehicleProfile)
}

func TestReportPosition_GeocodesOncePerOrder(t *testing.T) {
	f := newFixture()
	defer f.close()
	f.repo.addresses["O1"] = "addr"
	f.geocoder.results["addr"] = []models.GeoPoint{{Lat: 10.72, Lng: 106.65}}
	f.directions.routes = route(500, 90, "")

	for i := 0; i < 3; i++ {
		_, err := f.orch.ReportPosition(context.Background(), models.PositionReport{OrderID: "O1", Lat: 10.7, Lng: 106.6 + float64(i)/100})
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), f.geocoder.calls.Load())

	snap, ok := f.cache.Get("O1", f.now)
	require.True(t, ok)
	assert.InDelta(t, 106.62, snap.Lng, 1e-9)
}

func TestChangeStatus_BroadcastsAndNotifies(t *testing.T) {
	f := newFixture()
	f.repo.shipments["O1"] = &models.Shipment{
		OrderID:  "O1",
		Status:   models.ShipmentInTransit,
		Customer: models.CustomerInfo{Name: "An", Email: "an@example.com"},
	}
	sub := joinCustomer(t, f, "O1")

	err := f.orch.ChangeStatus(context.Background(), "O1", models.ShipmentDelivered, "left at the door")
	require.NoError(t, err)
	f.close()

	events := drain(sub)
	require.Len(t, events, 1)
	assert.Equal(t, models.EventStatusChanged, events[0].Type)
	assert.Equal(t, models.ShipmentDelivered, events[0].Status)
	assert.Equal(t, "left at the door", events[0].Message)
	assert.Equal(t, f.now, events[0].Timestamp)
	assert.Equal(t, []string{"an@example.com|" + models.ShipmentDelivered}, f.notifier.sent)
}

func TestChangeStatus_SkipsNotificationWithoutEmail(t *testing.T) {
	f := newFixture()
	f.repo.shipments["O1"] = &models.Shipment{OrderID: "O1", Status: models.ShipmentInTransit}

	require.NoError(t, f.orch.ChangeStatus(context.Background(), "O1", models.ShipmentDelivering, ""))
	require.NoError(t, f.orch.ChangeStatus(context.Background(), "missing", models.ShipmentDelivering, ""))
	f.close()

	assert.Empty(t, f.notifier.sent)
}

func TestChangeStatus_NotifierFailureIsNotReturned(t *testing.T) {
	f := newFixture()
	f.notifier.err = errors.New("ses throttled")
	f.repo.shipments["O1"] = &models.Shipment{OrderID: "O1", Status: models.ShipmentInTransit, Customer: models.CustomerInfo{Email: "a@b.c"}}

	assert.NoError(t, f.orch.ChangeStatus(context.Background(), "O1", models.ShipmentFailed, ""))
	f.close()
	assert.Len(t, f.notifier.sent, 1)
}

func TestChangeStatus_RequiresStatus(t *testing.T) {
	f := newFixture()
	defer f.close()
	assert.Error(t, f.orch.ChangeStatus(context.Background(), "O1", "", ""))
}

func TestChangeStatus_WithoutNotifier(t *testing.T) {
	f := newFixture()
	defer f.close()
	f.orch.notifier = nil
	sub := joinCustomer(t, f, "O1")

	require.NoError(t, f.orch.ChangeStatus(context.Background(), "O1", models.ShipmentDelivering, ""))
	assert.Equal(t, []models.EventType{models.EventStatusChanged}, eventTypes(drain(sub)))
}
