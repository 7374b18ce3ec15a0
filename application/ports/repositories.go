package ports

import (
	"context"

	"recruiter-backend/domain/core/entities"
	"recruiter-backend/domain/core/valueobjects"
	"recruiter-backend/domain/events"
)

// EntityStore is the persistence port for versioned entities.
//
// Lookup methods return (nil, nil) when the requested row simply does not
// exist; absence is a signal the caller interprets, not an error. Errors are
// reserved for infrastructure failures and concurrency signals.
type EntityStore interface {
	// GetExact fetches one version by its full key
	GetExact(ctx context.Context, key valueobjects.EntityKey) (*entities.VersionedEntity, error)

	// GetLatest fetches the newest non-deleted version of a named entity
	GetLatest(ctx context.Context, kind valueobjects.Kind, name string) (*entities.VersionedEntity, error)

	// ListAllVersions returns every version of a named entity, soft-deleted
	// included, ordered newest first
	ListAllVersions(ctx context.Context, kind valueobjects.Kind, name string) ([]*entities.VersionedEntity, error)

	// MaxVersion returns the highest existing version number of a named
	// entity, soft-deleted versions included, or 0 when none exist. Version
	// numbers are never reused, so the next version is always MaxVersion+1.
	MaxVersion(ctx context.Context, kind valueobjects.Kind, name string) (int, error)

	// Insert creates a new version row. The write is conditional on the key
	// not existing; losing that race yields a DuplicateVersion error.
	Insert(ctx context.Context, entity *entities.VersionedEntity) error

	// UpdateFlags persists the mutable subset of a version (deleted flag and
	// audit fields) guarded by the concurrency token the caller read. A
	// token mismatch yields a StaleToken error.
	UpdateFlags(ctx context.Context, entity *entities.VersionedEntity, expectedToken string) error

	// HardDelete physically removes a version row and its reference edges.
	// Only the orphan purge path calls this.
	HardDelete(ctx context.Context, key valueobjects.EntityKey) error

	// FindLatestReferrers returns, for every entity whose latest version pins
	// the given key, that latest version. Owners whose only pinning versions
	// are historical do not appear: their current content moved on.
	FindLatestReferrers(ctx context.Context, child valueobjects.EntityKey) ([]*entities.VersionedEntity, error)

	// IsReferenced reports whether any version of any entity pins the given
	// key, historical versions included
	IsReferenced(ctx context.Context, child valueobjects.EntityKey) (bool, error)
}

// SlotStore is the persistence port for active-slot mappings: which entity
// version currently occupies a structural position.
type SlotStore interface {
	// Activate makes the given version the active occupant of the slot and
	// returns the previously active key, if any. The swap is atomic.
	Activate(ctx context.Context, slot valueobjects.SlotKey, key valueobjects.EntityKey, actor string) (*valueobjects.EntityKey, error)

	// CurrentActive returns the key active at the slot, or nil when the slot
	// has never been activated
	CurrentActive(ctx context.Context, slot valueobjects.SlotKey) (*valueobjects.EntityKey, error)

	// VersionEverActivated reports whether the exact version was ever the
	// active occupant of any slot, including in the past
	VersionEverActivated(ctx context.Context, key valueobjects.EntityKey) (bool, error)

	// EntityEverActivated reports whether any version of the named entity was
	// ever activated anywhere. Drives the published-only cascade policy.
	EntityEverActivated(ctx context.Context, kind valueobjects.Kind, name string) (bool, error)
}

// EventStore is the outbox port: domain events are recorded durably alongside
// the operation that raised them and relayed to the bus asynchronously.
type EventStore interface {
	SaveEvent(ctx context.Context, event events.DomainEvent) error
}

// EventPublisher delivers domain events to the external bus
type EventPublisher interface {
	Publish(ctx context.Context, event events.DomainEvent) error
	PublishBatch(ctx context.Context, batch []events.DomainEvent) error
}
