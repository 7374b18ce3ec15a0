package events

import (
	"encoding/json"
	"time"
)

// Envelope carries a stored event payload back through the publishing path.
// The outbox relay reads rows long after the typed event value is gone, so it
// republishes the original JSON untouched.
type Envelope struct {
	AggregateID string
	EventType   string
	Timestamp   time.Time
	Payload     json.RawMessage
}

func (e Envelope) GetAggregateID() string  { return e.AggregateID }
func (e Envelope) GetEventType() string    { return e.EventType }
func (e Envelope) GetTimestamp() time.Time { return e.Timestamp }

// MarshalJSON emits the stored payload verbatim
func (e Envelope) MarshalJSON() ([]byte, error) {
	return e.Payload, nil
}
