package models

import "time"

// Shipment statuses recorded in the shipping log.
const (
	ShipmentPending    = "pending"
	ShipmentPickedUp   = "picked_up"
	ShipmentInTransit  = "in_transit"
	ShipmentDelivering = "delivering"
	ShipmentDelivered  = "delivered"
	ShipmentCancelled  = "cancelled"
	ShipmentFailed     = "failed"
)

// InFlightStatuses is the status set for which an order is considered
// actively tracked, from pickup through delivery.
var InFlightStatuses = []string{ShipmentPickedUp, ShipmentInTransit, ShipmentDelivering, ShipmentDelivered}

// AgentInfo describes the shipper assigned to a shipment.
type AgentInfo struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Phone        string `json:"phone,omitempty"`
	VehiclePlate string `json:"vehiclePlate,omitempty"`
}

// CustomerInfo describes the recipient of an order.
type CustomerInfo struct {
	Name    string `json:"name"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"-"`
	Address string `json:"address"`
}

// Shipment is the active shipping log entry of an order.
type Shipment struct {
	OrderID   string       `json:"orderId"`
	Status    string       `json:"status"`
	Agent     *AgentInfo   `json:"agent,omitempty"`
	Customer  CustomerInfo `json:"customer"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// TrackingInfo is the point-in-time snapshot returned to pull clients.
type TrackingInfo struct {
	OrderID         string                   `json:"orderId"`
	ShipmentStatus  string                   `json:"shipmentStatus"`
	AssignedAgent   *AgentInfo               `json:"assignedAgent"`
	CustomerInfo    CustomerInfo             `json:"customerInfo"`
	CurrentLocation *ShipperPositionSnapshot `json:"currentLocation"`
	ETA             *ETAResult               `json:"eta"`
}

// StatusChangeRequest is the body of POST /tracking/:orderId/status.
type StatusChangeRequest struct {
	Status  string `json:"status" validate:"required,oneof=pending picked_up in_transit delivering delivered cancelled failed"`
	Message string `json:"message,omitempty" validate:"max=500"`
}
