// Package tracking implements live order tracking: the shipper location
// cache, customer geocoding, ETA estimation and per-order broadcast rooms.
package tracking

import (
	"sync"
	"time"

	"order-tracking/internal/models"
)

// LocationTTL is how long a shipper position stays valid after capture.
const LocationTTL = 5 * time.Minute

type cacheEntry struct {
	snapshot models.ShipperPositionSnapshot
	timer    *time.Timer
	gen      uint64
}

// LocationCache holds the latest shipper position per order.
//
// Reads compare capturedAt against the TTL, so an entry whose eviction
// timer has not fired yet is still reported absent once stale. Each write
// stops the previous timer for the order and arms a new one.
type LocationCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]*cacheEntry
	gen     uint64
	closed  bool
}

// NewLocationCache creates a cache using LocationTTL.
func NewLocationCache() *LocationCache {
	return newLocationCache(LocationTTL)
}

func newLocationCache(ttl time.Duration) *LocationCache {
	return &LocationCache{
		ttl:     ttl,
		entries: make(map[string]*cacheEntry),
	}
}

// TTL returns the configured time-to-live.
func (c *LocationCache) TTL() time.Duration {
	return c.ttl
}

// Set stores the position for orderID, replacing any existing entry.
// Writes are applied in call order; capturedAt is not compared.
func (c *LocationCache) Set(orderID string, lat, lng float64, profile models.VehicleProfile, capturedAt time.Time) {
	if profile == "" {
		profile = models.VehicleBike
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	if prev, ok := c.entries[orderID]; ok && prev.timer != nil {
		prev.timer.Stop()
	}

	c.gen++
	gen := c.gen
	entry := &cacheEntry{
		snapshot: models.ShipperPositionSnapshot{
			OrderID:        orderID,
			Lat:            lat,
			Lng:            lng,
			CapturedAt:     capturedAt,
			VehicleProfile: profile,
		},
		gen: gen,
	}
	entry.timer = time.AfterFunc(c.ttl, func() { c.evict(orderID, gen) })
	c.entries[orderID] = entry
}

// evict removes the entry only if it was not superseded since the timer
// was armed.
func (c *LocationCache) evict(orderID string, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[orderID]; ok && e.gen == gen {
		delete(c.entries, orderID)
	}
}

// Get returns the snapshot for orderID if now - capturedAt <= ttl.
func (c *LocationCache) Get(orderID string, now time.Time) (models.ShipperPositionSnapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[orderID]
	if !ok {
		return models.ShipperPositionSnapshot{}, false
	}
	if now.Sub(e.snapshot.CapturedAt) > c.ttl {
		return models.ShipperPositionSnapshot{}, false
	}
	return e.snapshot, true
}

// Len returns the number of physically stored entries, stale ones included.
func (c *LocationCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close stops all pending eviction timers and drops every entry.
func (c *LocationCache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, e := range c.entries {
		if e.timer != nil {
			e.timer.Stop()
		}
		delete(c.entries, id)
	}
	c.closed = true
}
