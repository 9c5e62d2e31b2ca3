package models

import (
	"strings"
	"time"
)

// VehicleProfile selects the routing mode used for ETA computation.
type VehicleProfile string

const (
	VehicleCar  VehicleProfile = "car"
	VehicleBike VehicleProfile = "bike"
)

// ParseVehicleProfile normalizes a client supplied vehicle name. Motorcycle
// is an alias of bike and anything unknown or empty falls back to bike.
func ParseVehicleProfile(s string) VehicleProfile {
	if strings.EqualFold(strings.TrimSpace(s), string(VehicleCar)) {
		return VehicleCar
	}
	return VehicleBike
}

// GeoPoint is a WGS84 coordinate pair.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the point lies inside the latitude/longitude ranges.
func (p GeoPoint) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// ShipperPositionSnapshot is the last known shipper position for an order.
type ShipperPositionSnapshot struct {
	OrderID        string         `json:"orderId"`
	Lat            float64        `json:"lat"`
	Lng            float64        `json:"lng"`
	CapturedAt     time.Time      `json:"capturedAt"`
	VehicleProfile VehicleProfile `json:"vehicleProfile"`
}

// Point returns the snapshot coordinates.
func (s ShipperPositionSnapshot) Point() GeoPoint {
	return GeoPoint{Lat: s.Lat, Lng: s.Lng}
}

// CustomerCoordinates is the geocoded delivery destination of an order.
type CustomerCoordinates struct {
	OrderID string  `json:"orderId"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

// Point returns the destination coordinates.
func (c CustomerCoordinates) Point() GeoPoint {
	return GeoPoint{Lat: c.Lat, Lng: c.Lng}
}

// ETAResult is a freshly computed travel estimate. It is never stored.
type ETAResult struct {
	DistanceMeters  int    `json:"distanceMeters"`
	DurationSeconds int    `json:"durationSeconds"`
	DisplayText     string `json:"displayText"`
	EncodedPolyline string `json:"encodedPolyline,omitempty"`
}

// Payload converts the result into its broadcast shape.
func (e ETAResult) Payload() *ETAPayload {
	return &ETAPayload{
		Distance: e.DistanceMeters,
		Duration: e.DurationSeconds,
		Text:     e.DisplayText,
		Polyline: e.EncodedPolyline,
	}
}

// PositionReport is a shipper GPS ping accepted by the tracking service.
type PositionReport struct {
	OrderID        string
	Lat            float64
	Lng            float64
	VehicleProfile VehicleProfile
	CapturedAt     time.Time
}

// ReportPositionRequest is the body of POST /tracking/:orderId/location.
type ReportPositionRequest struct {
	Lat       *float64   `json:"lat" validate:"required,min=-90,max=90"`
	Lng       *float64   `json:"lng" validate:"required,min=-180,max=180"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
	Vehicle   string     `json:"vehicle,omitempty" validate:"omitempty,oneof=car bike motorbike motorcycle"`
}

// TimedLocation is a position with the instant it was captured.
type TimedLocation struct {
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Timestamp time.Time `json:"timestamp"`
}

// PositionResult is the synchronous answer to a position report.
type PositionResult struct {
	OrderID  string        `json:"orderId"`
	Location TimedLocation `json:"location"`
	ETA      *ETAResult    `json:"eta"`
}
