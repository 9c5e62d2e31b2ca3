package tracking

import (
	"sort"
	"sync"
	"time"

	"order-tracking/internal/logging"
	"order-tracking/internal/metrics"
	"order-tracking/internal/models"
)

// Subscriber is a room member. Deliver must not block: it either queues the
// event and returns true or drops it and returns false.
type Subscriber interface {
	ID() string
	Deliver(evt models.TrackingEvent) bool
}

// EventMirror receives a copy of every published room event.
type EventMirror interface {
	Mirror(evt models.TrackingEvent)
}

// RoomName is the room identifier for an order.
func RoomName(orderID string) string {
	return "order_" + orderID
}

type member struct {
	sub  Subscriber
	role models.SubscriberRole
}

// RoomBroadcaster keeps one subscriber set per order and fans events out to
// it. Rooms exist only while they have members.
type RoomBroadcaster struct {
	mu          sync.RWMutex
	rooms       map[string]map[string]member
	memberships map[string]map[string]struct{} // subscriber id -> order ids
	mirror      EventMirror
	now         func() time.Time
}

// NewRoomBroadcaster creates an empty broadcaster. mirror may be nil.
func NewRoomBroadcaster(mirror EventMirror) *RoomBroadcaster {
	return &RoomBroadcaster{
		rooms:       make(map[string]map[string]member),
		memberships: make(map[string]map[string]struct{}),
		mirror:      mirror,
		now:         time.Now,
	}
}

// Join adds sub to the room of orderID and sends it a joinedRoom
// acknowledgement. Joining twice keeps a single membership.
func (b *RoomBroadcaster) Join(orderID string, sub Subscriber, role models.SubscriberRole) {
	b.mu.Lock()
	room, ok := b.rooms[orderID]
	if !ok {
		room = make(map[string]member)
		b.rooms[orderID] = room
	}
	room[sub.ID()] = member{sub: sub, role: role}
	orders, ok := b.memberships[sub.ID()]
	if !ok {
		orders = make(map[string]struct{})
		b.memberships[sub.ID()] = orders
	}
	orders[orderID] = struct{}{}
	b.updateGauges()

	// The ack is sent under the lock so no room event can reach sub first.
	// Deliver never blocks.
	ack := models.TrackingEvent{
		Type:    models.EventJoinedRoom,
		OrderID: orderID,
		EventPayload: models.EventPayload{
			Room:      RoomName(orderID),
			Message:   "Joined tracking room for order " + orderID,
			Timestamp: b.now(),
		},
	}
	if !sub.Deliver(ack) {
		metrics.DroppedDeliveries.Inc()
	}
	b.mu.Unlock()
	logging.Debug().Str("order_id", orderID).Str("subscriber", sub.ID()).Str("role", string(role)).Msg("joined tracking room")
}

// Leave removes sub from the room of orderID. Leaving a room one is not in
// is a no-op.
func (b *RoomBroadcaster) Leave(orderID string, sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.leaveLocked(orderID, sub.ID())
	b.updateGauges()
}

// LeaveAll removes sub from every room it joined, e.g. on disconnect.
func (b *RoomBroadcaster) LeaveAll(sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for orderID := range b.memberships[sub.ID()] {
		b.leaveLocked(orderID, sub.ID())
	}
	b.updateGauges()
}

func (b *RoomBroadcaster) leaveLocked(orderID, subID string) {
	if room, ok := b.rooms[orderID]; ok {
		delete(room, subID)
		if len(room) == 0 {
			delete(b.rooms, orderID)
		}
	}
	if orders, ok := b.memberships[subID]; ok {
		delete(orders, orderID)
		if len(orders) == 0 {
			delete(b.memberships, subID)
		}
	}
}

// Publish delivers the event to every current member of the room and
// returns how many accepted it. An empty room is not an error.
func (b *RoomBroadcaster) Publish(orderID string, eventType models.EventType, payload models.EventPayload) int {
	if payload.Timestamp.IsZero() {
		payload.Timestamp = b.now()
	}
	evt := models.TrackingEvent{Type: eventType, OrderID: orderID, EventPayload: payload}

	// Deliver outside the lock so a slow subscriber never holds up joins.
	members := b.members(orderID)
	delivered := 0
	for _, m := range members {
		if m.sub.Deliver(evt) {
			delivered++
		} else {
			metrics.DroppedDeliveries.Inc()
			logging.Warn().Str("order_id", orderID).Str("subscriber", m.sub.ID()).Str("type", string(eventType)).Msg("dropped tracking event")
		}
	}
	metrics.BroadcastEvents.WithLabelValues(string(eventType)).Inc()

	if b.mirror != nil {
		b.mirror.Mirror(evt)
	}
	return delivered
}

// members returns the room members ordered by subscriber id.
func (b *RoomBroadcaster) members(orderID string) []member {
	b.mu.RLock()
	defer b.mu.RUnlock()
	room := b.rooms[orderID]
	out := make([]member, 0, len(room))
	for _, m := range room {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].sub.ID() < out[j].sub.ID() })
	return out
}

// SubscriberCount returns the number of members in the room of orderID.
func (b *RoomBroadcaster) SubscriberCount(orderID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.rooms[orderID])
}

// RoomCount returns the number of active rooms.
func (b *RoomBroadcaster) RoomCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.rooms)
}

// Role returns the role sub joined the room with.
func (b *RoomBroadcaster) Role(orderID string, sub Subscriber) (models.SubscriberRole, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	m, ok := b.rooms[orderID][sub.ID()]
	return m.role, ok
}

// updateGauges must be called with mu held.
func (b *RoomBroadcaster) updateGauges() {
	total := 0
	for _, room := range b.rooms {
		total += len(room)
	}
	metrics.ActiveRooms.Set(float64(len(b.rooms)))
	metrics.RoomSubscribers.Set(float64(total))
}

// QueueSubscriber is a Subscriber backed by a buffered channel. Transport
// adapters drain Events and write them to the wire.
type QueueSubscriber struct {
	id     string
	mu     sync.Mutex
	queue  chan models.TrackingEvent
	closed bool
}

// NewQueueSubscriber creates a subscriber with the given queue capacity.
func NewQueueSubscriber(id string, capacity int) *QueueSubscriber {
	return &QueueSubscriber{id: id, queue: make(chan models.TrackingEvent, capacity)}
}

func (q *QueueSubscriber) ID() string {
	return q.id
}

// Deliver enqueues evt without blocking.
func (q *QueueSubscriber) Deliver(evt models.TrackingEvent) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	select {
	case q.queue <- evt:
		return true
	default:
		return false
	}
}

// Events returns the receive side of the queue. It is closed by Close.
func (q *QueueSubscriber) Events() <-chan models.TrackingEvent {
	return q.queue
}

// Close stops accepting events and closes the queue. Safe to call twice.
func (q *QueueSubscriber) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.queue)
	}
}
