package memory

import (
	"context"
	"sync"

	"recruiter-backend/domain/events"
)

// EventSink collects domain events in memory. Tests assert against Events().
type EventSink struct {
	mu     sync.Mutex
	events []events.DomainEvent
}

// NewEventSink creates an empty in-memory event sink
func NewEventSink() *EventSink {
	return &EventSink{}
}

// SaveEvent appends the event
func (s *EventSink) SaveEvent(ctx context.Context, event events.DomainEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// Events returns a snapshot of everything recorded so far
func (s *EventSink) Events() []events.DomainEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]events.DomainEvent(nil), s.events...)
}

// OfType returns recorded events matching the given event type
func (s *EventSink) OfType(eventType string) []events.DomainEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []events.DomainEvent
	for _, event := range s.events {
		if event.GetEventType() == eventType {
			matched = append(matched, event)
		}
	}
	return matched
}
