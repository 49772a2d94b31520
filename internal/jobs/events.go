package jobs

import (
	"sync"
	"time"

	"iso2god-desktop/internal/domain"
)

// EventType classifies messages pushed to the primary window.
type EventType string

const (
	EventTypeJobs     EventType = "jobs"
	EventTypeProgress EventType = "progress"
	EventTypeStatus   EventType = "status"
	EventTypeAlert    EventType = "alert"
	EventTypeWindow   EventType = "window"
)

// Event is a sequenced payload consumed by UI subscribers.
type Event struct {
	Seq       int64                   `json:"seq"`
	Timestamp time.Time               `json:"timestamp"`
	Type      EventType               `json:"type"`
	RunID     string                  `json:"runId,omitempty"`
	Status    domain.ConversionStatus `json:"status,omitempty"`
	Jobs      []domain.Job            `json:"jobs"`
	Progress  []domain.ProgressEntry  `json:"progress,omitempty"`
	Aggregate *float64                `json:"aggregate,omitempty"`
	Source    string                  `json:"source,omitempty"`
	Window    string                  `json:"window,omitempty"`
	Reason    string                  `json:"reason,omitempty"`
	Message   string                  `json:"message,omitempty"`
}

// EventBus keeps a bounded history of UI events for incremental reads.
type EventBus struct {
	mu        sync.RWMutex
	nextSeq   int64
	maxEvents int
	events    []Event
}

// NewEventBus creates a bounded in-memory event buffer.
func NewEventBus(maxEvents int) *EventBus {
	if maxEvents <= 0 {
		maxEvents = 500
	}

	return &EventBus{
		maxEvents: maxEvents,
		events:    make([]Event, 0, maxEvents),
	}
}

// Publish appends one event and assigns its sequence and timestamp.
func (b *EventBus) Publish(event Event) Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextSeq++
	event.Seq = b.nextSeq
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	b.events = append(b.events, event)
	if len(b.events) > b.maxEvents {
		trim := len(b.events) - b.maxEvents
		b.events = append([]Event(nil), b.events[trim:]...)
	}

	return event
}

// Since returns events with sequence strictly greater than seq.
func (b *EventBus) Since(seq int64) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []Event
	for _, event := range b.events {
		if event.Seq > seq {
			out = append(out, event)
		}
	}
	return out
}

// LastOf returns the newest retained event of type t.
func (b *EventBus) LastOf(t EventType) (Event, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for i := len(b.events) - 1; i >= 0; i-- {
		if b.events[i].Type == t {
			return b.events[i], true
		}
	}
	return Event{}, false
}
