package versioning

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	domainconfig "recruiter-backend/domain/config"
	"recruiter-backend/domain/core/entities"
	"recruiter-backend/domain/core/validators"
	"recruiter-backend/domain/core/valueobjects"
	"recruiter-backend/domain/events"
	"recruiter-backend/pkg/concurrency"
	apperrors "recruiter-backend/pkg/errors"

	"go.uber.org/zap"
)

// Store is everything the engine needs from entity persistence
type Store interface {
	ReadStore
	ListAllVersions(ctx context.Context, kind valueobjects.Kind, name string) ([]*entities.VersionedEntity, error)
	MaxVersion(ctx context.Context, kind valueobjects.Kind, name string) (int, error)
	Insert(ctx context.Context, entity *entities.VersionedEntity) error
	UpdateFlags(ctx context.Context, entity *entities.VersionedEntity, expectedToken string) error
	HardDelete(ctx context.Context, key valueobjects.EntityKey) error
	FindLatestReferrers(ctx context.Context, child valueobjects.EntityKey) ([]*entities.VersionedEntity, error)
	IsReferenced(ctx context.Context, child valueobjects.EntityKey) (bool, error)
}

// SlotStore is everything the engine needs from active-slot persistence
type SlotStore interface {
	Activate(ctx context.Context, slot valueobjects.SlotKey, key valueobjects.EntityKey, actor string) (*valueobjects.EntityKey, error)
	CurrentActive(ctx context.Context, slot valueobjects.SlotKey) (*valueobjects.EntityKey, error)
	VersionEverActivated(ctx context.Context, key valueobjects.EntityKey) (bool, error)
	EntityEverActivated(ctx context.Context, kind valueobjects.Kind, name string) (bool, error)
}

// EventSink records domain events for asynchronous delivery
type EventSink interface {
	SaveEvent(ctx context.Context, event events.DomainEvent) error
}

// CascadeResult reports what an edit produced: the new version of the edited
// entity itself plus every owner version the cascade created, in commit order.
type CascadeResult struct {
	Edited  valueobjects.EntityKey   `json:"edited"`
	Created []valueobjects.EntityKey `json:"created"`
}

// Engine is the versioning core. It appends immutable versions, propagates
// edits through pinning owners, flips active-slot mappings and soft-delete
// flags, and hides write races behind the retry coordinator.
type Engine struct {
	store     Store
	slots     SlotStore
	sink      EventSink
	resolver  *Resolver
	validator *validators.ContentValidator
	retry     *concurrency.Coordinator
	policy    Policy
	logger    *zap.Logger
}

// NewEngine wires the versioning engine
func NewEngine(store Store, slots SlotStore, sink EventSink, retry *concurrency.Coordinator, policy Policy, logger *zap.Logger) *Engine {
	if policy.Limits == nil {
		policy.Limits = domainconfig.DefaultDomainConfig()
	}
	return &Engine{
		store:     store,
		slots:     slots,
		sink:      sink,
		resolver:  NewResolver(store),
		validator: validators.NewContentValidatorWithConfig(policy.Limits),
		retry:     retry,
		policy:    policy,
		logger:    logger,
	}
}

// Resolver exposes the engine's reference resolver for the query layer
func (e *Engine) Resolver() *Resolver {
	return e.resolver
}

// CreateNextVersion appends the next version of a named entity. The first
// call for a fresh name creates version 1; subsequent calls append MaxVersion+1
// regardless of soft deletions in between, so version numbers are never reused.
//
// No cascade happens here. Use EditWithCascade when pinning owners must follow.
func (e *Engine) CreateNextVersion(ctx context.Context, kind valueobjects.Kind, name string, content json.RawMessage, actor string) (*entities.VersionedEntity, error) {
	if err := e.validateWrite(ctx, kind, name, content); err != nil {
		return nil, err
	}
	return e.insertNextVersion(ctx, kind, name, content, actor)
}

// EditWithCascade appends the next version of the edited entity, then walks
// every owner whose latest version pins the superseded version and re-versions
// it with the pin moved forward. The walk recurses: a re-versioned owner is
// itself an edit its own owners may need to follow.
//
// Dynamic references are never touched; they pick up the new version at read
// time on their own. An entity nothing pins cascades to nobody.
func (e *Engine) EditWithCascade(ctx context.Context, kind valueobjects.Kind, name string, content json.RawMessage, actor string) (*CascadeResult, error) {
	if err := e.validateWrite(ctx, kind, name, content); err != nil {
		return nil, err
	}

	edited, err := e.insertNextVersion(ctx, kind, name, content, actor)
	if err != nil {
		return nil, err
	}

	result := &CascadeResult{Edited: edited.Key(), Created: []valueobjects.EntityKey{}}

	// Version 1 supersedes nothing, so nothing can pin a predecessor
	if edited.Version > 1 {
		created, err := e.cascade(ctx, edited.Key().WithVersion(edited.Version-1), edited.Version, actor)
		if err != nil {
			return nil, err
		}
		result.Created = created
	}

	e.record(ctx, events.NewCascadeCompleted(result.Edited, result.Created, time.Now().UTC()))

	e.logger.Info("Edit cascade completed",
		zap.String("edited", result.Edited.String()),
		zap.Int("ownersReversioned", len(result.Created)),
	)
	return result, nil
}

// SetActiveVersion makes the given version the active occupant of a slot.
// Activation is always explicit: creating a version never activates it.
func (e *Engine) SetActiveVersion(ctx context.Context, slot valueobjects.SlotKey, key valueobjects.EntityKey, actor string) error {
	entity, err := e.store.GetExact(ctx, key)
	if err != nil {
		return err
	}
	if entity == nil {
		return apperrors.NewNotFoundError(fmt.Sprintf("entity version %s does not exist", key))
	}
	if entity.Deleted {
		return apperrors.NewValidationError(fmt.Sprintf("cannot activate soft-deleted version %s", key))
	}

	previous, err := e.slots.Activate(ctx, slot, key, actor)
	if err != nil {
		return err
	}

	e.record(ctx, events.NewVersionActivated(slot, key, previous, actor, time.Now().UTC()))
	return nil
}

// CurrentActive returns the version active at a slot, or nil when the slot
// was never activated
func (e *Engine) CurrentActive(ctx context.Context, slot valueobjects.SlotKey) (*valueobjects.EntityKey, error) {
	return e.slots.CurrentActive(ctx, slot)
}

// SoftDelete retires a version. The row stays; pinned references to it keep
// resolving and the history keeps listing it. Deleting an already-deleted
// version is a no-op.
func (e *Engine) SoftDelete(ctx context.Context, key valueobjects.EntityKey, actor string) error {
	var deleted bool

	err := e.retry.Execute(ctx, "soft-delete "+key.String(), func(ctx context.Context) error {
		entity, err := e.store.GetExact(ctx, key)
		if err != nil {
			return err
		}
		if entity == nil {
			return apperrors.NewNotFoundError(fmt.Sprintf("entity version %s does not exist", key))
		}
		if entity.Deleted {
			deleted = false
			return nil
		}

		token := entity.Token
		entity.MarkDeleted(actor)
		if err := e.store.UpdateFlags(ctx, entity, token); err != nil {
			return err
		}
		deleted = true
		return nil
	})
	if err != nil {
		return err
	}

	if deleted {
		e.record(ctx, events.NewVersionSoftDeleted(key, actor, time.Now().UTC()))
	}
	return nil
}

// PurgeOrphan physically removes a version that was never pinned by anything
// and never activated anywhere. Anything else refuses: history rows that ever
// mattered are permanent.
func (e *Engine) PurgeOrphan(ctx context.Context, key valueobjects.EntityKey, actor string) error {
	entity, err := e.store.GetExact(ctx, key)
	if err != nil {
		return err
	}
	if entity == nil {
		return apperrors.NewNotFoundError(fmt.Sprintf("entity version %s does not exist", key))
	}

	referenced, err := e.store.IsReferenced(ctx, key)
	if err != nil {
		return err
	}
	if referenced {
		return apperrors.NewConflictError(fmt.Sprintf("cannot purge %s: at least one entity version pins it", key))
	}

	activated, err := e.slots.VersionEverActivated(ctx, key)
	if err != nil {
		return err
	}
	if activated {
		return apperrors.NewConflictError(fmt.Sprintf("cannot purge %s: it was activated at least once", key))
	}

	if err := e.store.HardDelete(ctx, key); err != nil {
		return err
	}

	e.record(ctx, events.NewVersionPurged(key, actor, time.Now().UTC()))
	return nil
}

// GetHistory returns every version of a named entity, newest first,
// soft-deleted versions included
func (e *Engine) GetHistory(ctx context.Context, kind valueobjects.Kind, name string) ([]*entities.VersionedEntity, error) {
	versions, err := e.store.ListAllVersions(ctx, kind, name)
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("entity %s/%s does not exist", kind, name))
	}
	return versions, nil
}

// validateWrite runs every pre-persistence check: kind, name, content shape,
// and the existence of every reference the content carries
func (e *Engine) validateWrite(ctx context.Context, kind valueobjects.Kind, name string, content json.RawMessage) error {
	if !kind.IsValid() {
		return apperrors.NewValidationError(fmt.Sprintf("unknown entity kind: %q", kind))
	}
	if name == "" {
		return apperrors.NewValidationError("entity name is required")
	}
	if max := e.policy.Limits.MaxNameLength; max > 0 && len(name) > max {
		return apperrors.NewValidationError(fmt.Sprintf("entity name exceeds %d characters", max))
	}
	if err := e.validator.Validate(kind, content); err != nil {
		return err
	}

	doc, err := entities.DecodeContent(kind, content)
	if err != nil {
		return apperrors.NewValidationError(err.Error())
	}
	for _, ref := range doc.References() {
		if _, err := e.resolver.Resolve(ctx, ref); err != nil {
			return err
		}
	}
	return nil
}

// insertNextVersion computes MaxVersion+1 and inserts, retrying the whole
// computation when a concurrent writer claims the number first
func (e *Engine) insertNextVersion(ctx context.Context, kind valueobjects.Kind, name string, content json.RawMessage, actor string) (*entities.VersionedEntity, error) {
	var created *entities.VersionedEntity

	err := e.retry.Execute(ctx, fmt.Sprintf("create %s/%s", kind, name), func(ctx context.Context) error {
		max, err := e.store.MaxVersion(ctx, kind, name)
		if err != nil {
			return err
		}
		next := entities.NewVersionedEntity(kind, name, max+1, content, actor)
		if err := e.store.Insert(ctx, next); err != nil {
			return err
		}
		created = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.record(ctx, events.NewVersionCreated(created.Key(), actor, created.CreatedAt))

	e.logger.Debug("Entity version created",
		zap.String("key", created.Key().String()),
		zap.String("actor", actor),
	)
	return created, nil
}

// cascadeItem is one superseded version whose pinning owners still need a walk
type cascadeItem struct {
	prev       valueobjects.EntityKey
	newVersion int
}

// cascade walks owners breadth-first starting from the superseded version of
// the edited entity. Each owner whose latest version pins the superseded key
// gets a fresh version with the pin moved, and that fresh version joins the
// frontier so its own owners follow.
func (e *Engine) cascade(ctx context.Context, prev valueobjects.EntityKey, newVersion int, actor string) ([]valueobjects.EntityKey, error) {
	var created []valueobjects.EntityKey
	queue := []cascadeItem{{prev: prev, newVersion: newVersion}}
	visited := map[string]bool{}

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		owners, err := e.store.FindLatestReferrers(ctx, item.prev)
		if err != nil {
			return nil, err
		}

		for _, owner := range owners {
			// One work item per (owner, superseded child) pair
			mark := fmt.Sprintf("%s/%s<-%s", owner.Kind, owner.Name, item.prev)
			if visited[mark] {
				continue
			}
			visited[mark] = true

			skip, err := e.skipByPolicy(ctx, owner)
			if err != nil {
				return nil, err
			}
			if skip {
				e.logger.Info("Cascade skipped never-activated owner",
					zap.String("owner", owner.Key().String()),
					zap.String("child", item.prev.String()),
				)
				continue
			}

			reversioned, prevKey, err := e.repinOwner(ctx, owner.Kind, owner.Name, item.prev, item.newVersion, actor)
			if err != nil {
				return nil, err
			}
			if reversioned == nil {
				continue
			}

			created = append(created, reversioned.Key())
			if max := e.policy.Limits.MaxCascadeOwners; max > 0 && len(created) > max {
				return nil, apperrors.NewInternalError(
					fmt.Sprintf("cascade from %s exceeded the %d-owner safety limit", prev, max))
			}
			queue = append(queue, cascadeItem{prev: prevKey, newVersion: reversioned.Version})
		}
	}

	return created, nil
}

// skipByPolicy applies the published-only gate to a cascade owner
func (e *Engine) skipByPolicy(ctx context.Context, owner *entities.VersionedEntity) (bool, error) {
	if !e.policy.CascadePublishedOnly {
		return false, nil
	}
	activated, err := e.slots.EntityEverActivated(ctx, owner.Kind, owner.Name)
	if err != nil {
		return false, err
	}
	return !activated, nil
}

// repinOwner creates the next version of an owner with the pin on childPrev
// moved to childNewVersion. Returns (nil, _, nil) when the owner's latest no
// longer pins the superseded child: a concurrent edit already moved on, and
// that edit's own cascade covers the rest.
//
// The second return is the key of the owner version the new one superseded.
func (e *Engine) repinOwner(ctx context.Context, kind valueobjects.Kind, name string, childPrev valueobjects.EntityKey, childNewVersion int, actor string) (*entities.VersionedEntity, valueobjects.EntityKey, error) {
	var created *entities.VersionedEntity
	var superseded valueobjects.EntityKey

	err := e.retry.Execute(ctx, fmt.Sprintf("cascade %s/%s", kind, name), func(ctx context.Context) error {
		created = nil

		latest, err := e.store.GetLatest(ctx, kind, name)
		if err != nil {
			return err
		}
		if latest == nil {
			return nil
		}

		doc, err := entities.DecodeContent(latest.Kind, latest.Content)
		if err != nil {
			return apperrors.NewInvariantViolation(
				fmt.Sprintf("stored content of %s does not decode: %v", latest.Key(), err))
		}
		if !doc.Repin(childPrev, childNewVersion) {
			return nil
		}

		raw, err := entities.EncodeContent(doc)
		if err != nil {
			return apperrors.Wrap(err, "encoding repinned content")
		}

		max, err := e.store.MaxVersion(ctx, kind, name)
		if err != nil {
			return err
		}
		next := entities.NewVersionedEntity(kind, name, max+1, raw, actor)
		if err := e.store.Insert(ctx, next); err != nil {
			return err
		}

		created = next
		superseded = latest.Key()
		return nil
	})
	if err != nil {
		return nil, valueobjects.EntityKey{}, err
	}
	if created != nil {
		e.record(ctx, events.NewVersionCreated(created.Key(), actor, created.CreatedAt))
	}
	return created, superseded, nil
}

// record writes a domain event to the outbox. Delivery is best effort: the
// operation already committed, so a sink failure is logged, not surfaced.
func (e *Engine) record(ctx context.Context, event events.DomainEvent) {
	if e.sink == nil {
		return
	}
	if err := e.sink.SaveEvent(ctx, event); err != nil {
		e.logger.Warn("Failed to record domain event",
			zap.String("eventType", event.GetEventType()),
			zap.String("aggregateId", event.GetAggregateID()),
			zap.Error(err),
		)
	}
}
