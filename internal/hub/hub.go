// Package hub implements the live fan-out of new readings to connected
// viewers. The hub holds only the current subscriber set: there is no
// history and no replay, so a subscriber that connects after a reading was
// broadcast never receives it and should query the store's latest reading
// for its initial state.
package hub

import (
	"sync"

	"github.com/google/uuid"

	"github.com/tinoq/sense-backend/internal/metrics"
	"github.com/tinoq/sense-backend/internal/telemetry"
)

// subscriberBuffer bounds the per-subscriber event channel. A subscriber
// that cannot keep up misses subsequent broadcasts; there is no queueing
// beyond this buffer and no backpressure on the ingestion path.
const subscriberBuffer = 16

// Subscriber is one connected live viewer.
type Subscriber struct {
	id     string
	events chan telemetry.Reading
}

// ID returns the subscriber's opaque handle id.
func (s *Subscriber) ID() string { return s.id }

// Events is the stream of readings broadcast while this subscriber is
// registered.
func (s *Subscriber) Events() <-chan telemetry.Reading { return s.events }

// Hub broadcasts new readings to the current subscriber set. All methods are
// safe for concurrent use: the ingestion consumer broadcasts while
// connection handlers subscribe and unsubscribe.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]*Subscriber
}

// New creates an empty Hub.
func New() *Hub {
	return &Hub{
		subscribers: make(map[string]*Subscriber),
	}
}

// Subscribe registers a new subscriber and returns its handle.
func (h *Hub) Subscribe() *Subscriber {
	sub := &Subscriber{
		id:     uuid.NewString(),
		events: make(chan telemetry.Reading, subscriberBuffer),
	}

	h.mu.Lock()
	h.subscribers[sub.id] = sub
	h.mu.Unlock()

	metrics.LiveSubscribers.Inc()
	return sub
}

// Unsubscribe removes a subscriber. Unsubscribing twice is a no-op.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	if sub == nil {
		return
	}

	h.mu.Lock()
	_, ok := h.subscribers[sub.id]
	delete(h.subscribers, sub.id)
	h.mu.Unlock()

	if ok {
		metrics.LiveSubscribers.Dec()
	}
}

// Broadcast delivers r to every currently registered subscriber. Delivery is
// independent per subscriber: a full (slow) subscriber is skipped and does
// not delay or block the others.
func (h *Hub) Broadcast(r telemetry.Reading) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.subscribers {
		select {
		case sub.events <- r:
		default:
			// Subscriber is not keeping up; it misses this reading.
		}
	}
}

// Count returns the number of currently registered subscribers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}
