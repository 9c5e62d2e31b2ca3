package models

import "errors"

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Message string `json:"message"`
}

var (
	// ErrNotFound is returned when a requested resource is not found.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidCoordinates is returned when a latitude or longitude is out of range.
	ErrInvalidCoordinates = errors.New("invalid coordinates")

	// ErrAddressNotFound is returned when an order has no shipping address on file.
	ErrAddressNotFound = errors.New("shipping address not found")

	// ErrGeocodeUnavailable is returned when the geocoding provider gave no result
	// or could not be reached.
	ErrGeocodeUnavailable = errors.New("geocode unavailable")

	// ErrETAUnavailable means the ETA is currently unknown. It is a soft failure.
	ErrETAUnavailable = errors.New("eta unavailable")

	// ErrCustomerLocationUnknown is returned by a position report when the
	// customer's delivery coordinates cannot be resolved.
	ErrCustomerLocationUnknown = errors.New("no destination on file for this order")

	// ErrNoActiveShipment is returned when an order is not currently being delivered.
	ErrNoActiveShipment = errors.New("order is not currently being delivered")
)
