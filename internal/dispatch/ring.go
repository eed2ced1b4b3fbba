package dispatch

import (
	"sync"

	"github.com/rank11/sol-wallet-monitor/internal/models"
)

// RecordedEvent is a TradeEvent plus its dispatch outcome, kept in the ring
// for the status API.
type RecordedEvent struct {
	models.TradeEvent
	Suppressed bool   `json:"suppressed"`
	SendError  string `json:"send_error,omitempty"`
}

// EventRing is a fixed-size in-memory buffer of recent events. It exists
// only for inspection; losing it loses nothing durable.
type EventRing struct {
	mu     sync.Mutex
	events []RecordedEvent
	next   int
	full   bool
}

// NewEventRing creates a ring holding up to size events.
func NewEventRing(size int) *EventRing {
	if size <= 0 {
		size = 200
	}
	return &EventRing{events: make([]RecordedEvent, size)}
}

// Add records an event, overwriting the oldest once full.
func (r *EventRing) Add(event RecordedEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[r.next] = event
	r.next = (r.next + 1) % len(r.events)
	if r.next == 0 {
		r.full = true
	}
}

// Recent returns the recorded events, newest first.
func (r *EventRing) Recent() []RecordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := r.next
	if r.full {
		count = len(r.events)
	}
	out := make([]RecordedEvent, 0, count)
	for i := 0; i < count; i++ {
		idx := (r.next - 1 - i + len(r.events)) % len(r.events)
		out = append(out, r.events[idx])
	}
	return out
}
