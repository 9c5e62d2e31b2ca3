package models

import "time"

// EventType tags a message pushed to a tracking room.
type EventType string

const (
	EventShipperMoved     EventType = "shipperMoved"
	EventUpdateETA        EventType = "updateETA"
	EventStatusChanged    EventType = "statusChanged"
	EventJoinedRoom       EventType = "joinedRoom"
	EventPositionReported EventType = "positionReported"
	EventPong             EventType = "pong"
	EventError            EventType = "error"
)

// SubscriberRole is the declared role of a room member.
type SubscriberRole string

const (
	RoleShipper  SubscriberRole = "shipper"
	RoleCustomer SubscriberRole = "customer"
)

// ParseSubscriberRole defaults to customer for empty or unknown values.
func ParseSubscriberRole(s string) SubscriberRole {
	if SubscriberRole(s) == RoleShipper {
		return RoleShipper
	}
	return RoleCustomer
}

// ETAPayload is the wire shape of an ETA inside an updateETA event.
type ETAPayload struct {
	Distance int    `json:"distance"`
	Duration int    `json:"duration"`
	Text     string `json:"text"`
	Polyline string `json:"polyline,omitempty"`
}

// EventPayload carries the type specific fields of a tracking event.
// Only the fields relevant to the event type are set.
type EventPayload struct {
	Location  *GeoPoint       `json:"location,omitempty"`
	ETA       *ETAPayload     `json:"eta,omitempty"`
	Status    string          `json:"status,omitempty"`
	Message   string          `json:"message,omitempty"`
	Room      string          `json:"room,omitempty"`
	Result    *PositionResult `json:"result,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// TrackingEvent is the envelope delivered to room subscribers.
type TrackingEvent struct {
	Type    EventType `json:"type"`
	OrderID string    `json:"orderId,omitempty"`
	EventPayload
}

// SocketAction is the verb of a message sent by a socket client.
type SocketAction string

const (
	ActionJoin     SocketAction = "join"
	ActionLeave    SocketAction = "leave"
	ActionPosition SocketAction = "position"
	ActionPing     SocketAction = "ping"
)

// SocketMessage is a client to server socket message. Position fields are
// only read for the position action.
type SocketMessage struct {
	Action    SocketAction `json:"action"`
	OrderID   string       `json:"orderId,omitempty"`
	Role      string       `json:"role,omitempty"`
	Lat       *float64     `json:"lat,omitempty"`
	Lng       *float64     `json:"lng,omitempty"`
	Timestamp *time.Time   `json:"timestamp,omitempty"`
	Vehicle   string       `json:"vehicle,omitempty"`
}
