package events

import (
	"time"

	"recruiter-backend/domain/core/valueobjects"
)

// Event source identifier used on the bus
const SourceRecruiter = "recruiter-backend"

// DomainEvent is the base interface for all domain events.
// Events represent something that has happened in the past.
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }

// VersionCreated is raised after a new entity version durably commits.
// Downstream systems subscribe to this to learn "entity X reached version Y".
type VersionCreated struct {
	BaseEvent
	Kind    valueobjects.Kind `json:"kind"`
	Name    string            `json:"name"`
	Version int               `json:"version"`
	Actor   string            `json:"actor"`
}

// NewVersionCreated creates a VersionCreated event
func NewVersionCreated(key valueobjects.EntityKey, actor string, timestamp time.Time) VersionCreated {
	return VersionCreated{
		BaseEvent: BaseEvent{
			AggregateID: key.String(),
			EventType:   "entity.version_created",
			Timestamp:   timestamp,
		},
		Kind:    key.Kind,
		Name:    key.Name,
		Version: key.Version,
		Actor:   actor,
	}
}

// CascadeCompleted is raised once after an edit finished propagating through
// every composite owner that pinned the edited entity.
type CascadeCompleted struct {
	BaseEvent
	Root    string   `json:"root"`
	Created []string `json:"created"`
}

// NewCascadeCompleted creates a CascadeCompleted event
func NewCascadeCompleted(root valueobjects.EntityKey, created []valueobjects.EntityKey, timestamp time.Time) CascadeCompleted {
	createdKeys := make([]string, 0, len(created))
	for _, key := range created {
		createdKeys = append(createdKeys, key.String())
	}
	return CascadeCompleted{
		BaseEvent: BaseEvent{
			AggregateID: root.String(),
			EventType:   "entity.cascade_completed",
			Timestamp:   timestamp,
		},
		Root:    root.String(),
		Created: createdKeys,
	}
}

// VersionActivated is raised when a version becomes the active occupant of a
// structural slot, replacing whichever version was active before.
type VersionActivated struct {
	BaseEvent
	Slot       valueobjects.SlotKey   `json:"slot"`
	Activated  valueobjects.EntityKey `json:"activated"`
	Deactivated *valueobjects.EntityKey `json:"deactivated,omitempty"`
	Actor      string                 `json:"actor"`
}

// NewVersionActivated creates a VersionActivated event
func NewVersionActivated(slot valueobjects.SlotKey, activated valueobjects.EntityKey, deactivated *valueobjects.EntityKey, actor string, timestamp time.Time) VersionActivated {
	return VersionActivated{
		BaseEvent: BaseEvent{
			AggregateID: activated.String(),
			EventType:   "entity.version_activated",
			Timestamp:   timestamp,
		},
		Slot:        slot,
		Activated:   activated,
		Deactivated: deactivated,
		Actor:       actor,
	}
}

// VersionSoftDeleted is raised when a version is retired. The content stays
// retrievable through the history path.
type VersionSoftDeleted struct {
	BaseEvent
	Kind    valueobjects.Kind `json:"kind"`
	Name    string            `json:"name"`
	Version int               `json:"version"`
	Actor   string            `json:"actor"`
}

// NewVersionSoftDeleted creates a VersionSoftDeleted event
func NewVersionSoftDeleted(key valueobjects.EntityKey, actor string, timestamp time.Time) VersionSoftDeleted {
	return VersionSoftDeleted{
		BaseEvent: BaseEvent{
			AggregateID: key.String(),
			EventType:   "entity.version_soft_deleted",
			Timestamp:   timestamp,
		},
		Kind:    key.Kind,
		Name:    key.Name,
		Version: key.Version,
		Actor:   actor,
	}
}

// VersionPurged is raised on the rare hard delete of an orphaned version
// that was never referenced and never activated.
type VersionPurged struct {
	BaseEvent
	Kind    valueobjects.Kind `json:"kind"`
	Name    string            `json:"name"`
	Version int               `json:"version"`
	Actor   string            `json:"actor"`
}

// NewVersionPurged creates a VersionPurged event
func NewVersionPurged(key valueobjects.EntityKey, actor string, timestamp time.Time) VersionPurged {
	return VersionPurged{
		BaseEvent: BaseEvent{
			AggregateID: key.String(),
			EventType:   "entity.version_purged",
			Timestamp:   timestamp,
		},
		Kind:    key.Kind,
		Name:    key.Name,
		Version: key.Version,
		Actor:   actor,
	}
}
