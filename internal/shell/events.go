package shell

import (
	"sync"
)

// Event names carried on the live stream.
const (
	EventOutputLine   = "output-line"
	EventNotification = "shell-notification"
)

// Event is one live update pushed to subscribers.
type Event struct {
	Name string `json:"event"`
	Line Entry  `json:"line"`
}

// EventSink consumes entries produced by the core for live display. Delivery
// is at-most-once with no acknowledgement; history remains the durable
// catch-up path.
type EventSink interface {
	// OutputLine delivers a Command, Stdout, or Stderr entry.
	OutputLine(Entry)
	// Notification delivers a Notification entry.
	Notification(Entry)
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) OutputLine(Entry)   {}
func (NopSink) Notification(Entry) {}

// Subscriber receives a bounded stream of events. When its channel is full,
// further events are dropped for this subscriber only.
type Subscriber struct {
	C chan Event
}

// Hub fans produced entries out to any number of subscribers. A slow
// subscriber never blocks the producers.
type Hub struct {
	mu     sync.RWMutex
	subs   map[*Subscriber]struct{}
	buffer int
	onDrop func() // optional, called once per dropped event
}

// DefaultEventBuffer is the per-subscriber channel capacity.
const DefaultEventBuffer = 256

// NewHub creates an event hub with the given per-subscriber buffer size.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = DefaultEventBuffer
	}
	return &Hub{
		subs:   make(map[*Subscriber]struct{}),
		buffer: buffer,
	}
}

// SetDropHook registers a callback invoked for every dropped event. Must be
// set before the hub is shared across goroutines.
func (h *Hub) SetDropHook(fn func()) {
	h.onDrop = fn
}

// Subscribe registers a new subscriber.
func (h *Hub) Subscribe() *Subscriber {
	sub := &Subscriber{C: make(chan Event, h.buffer)}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

// Unsubscribe removes a subscriber and closes its channel.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	if _, ok := h.subs[sub]; ok {
		delete(h.subs, sub)
		close(sub.C)
	}
	h.mu.Unlock()
}

// Subscribers returns the current subscriber count.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// OutputLine broadcasts a produced entry on the output-line stream.
func (h *Hub) OutputLine(e Entry) {
	h.broadcast(Event{Name: EventOutputLine, Line: e})
}

// Notification broadcasts a notification entry.
func (h *Hub) Notification(e Entry) {
	h.broadcast(Event{Name: EventNotification, Line: e})
}

func (h *Hub) broadcast(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs {
		select {
		case sub.C <- ev:
		default:
			if h.onDrop != nil {
				h.onDrop()
			}
		}
	}
}
