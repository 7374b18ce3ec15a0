package versioning

import (
	"context"

	"recruiter-backend/domain/core/entities"
	"recruiter-backend/domain/core/valueobjects"
	apperrors "recruiter-backend/pkg/errors"
)

// ReadStore is the subset of the entity store the resolver needs
type ReadStore interface {
	GetExact(ctx context.Context, key valueobjects.EntityKey) (*entities.VersionedEntity, error)
	GetLatest(ctx context.Context, kind valueobjects.Kind, name string) (*entities.VersionedEntity, error)
}

// Resolver turns references into concrete entity versions.
//
// Pinned references resolve to exactly the version they carry, soft-deleted or
// not: a submission that captured a pinned reference must reproduce the same
// content forever. Dynamic references resolve to the newest non-deleted
// version at the moment of the call. Resolution never falls back: a reference
// that resolves to nothing is an error the caller sees.
type Resolver struct {
	store ReadStore
}

// NewResolver creates a resolver over the given store
func NewResolver(store ReadStore) *Resolver {
	return &Resolver{store: store}
}

// Resolve returns the entity version the reference denotes
func (r *Resolver) Resolve(ctx context.Context, ref valueobjects.Reference) (*entities.VersionedEntity, error) {
	if err := ref.Validate(); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	if key, pinned := ref.PinnedKey(); pinned {
		entity, err := r.store.GetExact(ctx, key)
		if err != nil {
			return nil, err
		}
		if entity == nil {
			return nil, apperrors.NewReferenceNotFound(ref.String())
		}
		return entity, nil
	}

	entity, err := r.store.GetLatest(ctx, ref.Kind, ref.Name)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, apperrors.NewReferenceNotFound(ref.String())
	}
	return entity, nil
}

// ResolveAll resolves every reference, failing on the first miss
func (r *Resolver) ResolveAll(ctx context.Context, refs []valueobjects.Reference) ([]*entities.VersionedEntity, error) {
	resolved := make([]*entities.VersionedEntity, 0, len(refs))
	for _, ref := range refs {
		entity, err := r.Resolve(ctx, ref)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, entity)
	}
	return resolved, nil
}
