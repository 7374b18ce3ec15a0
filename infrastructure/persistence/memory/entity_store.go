// Package memory holds in-process store implementations backed by maps.
// They carry the exact concurrency semantics of the DynamoDB stores
// (conditional inserts, token-guarded updates) so the engine and its tests
// exercise the same failure paths without AWS.
package memory

import (
	"context"
	"sort"
	"sync"

	"recruiter-backend/domain/core/entities"
	"recruiter-backend/domain/core/valueobjects"
	apperrors "recruiter-backend/pkg/errors"
)

// EntityStore is a map-backed versioned entity store
type EntityStore struct {
	mu sync.RWMutex

	// rows by full key string "kind/name@vN"
	rows map[string]*entities.VersionedEntity

	// referrers maps a pinned child key to the set of versions pinning it
	referrers map[string]map[string]valueobjects.EntityKey
}

// NewEntityStore creates an empty in-memory entity store
func NewEntityStore() *EntityStore {
	return &EntityStore{
		rows:      make(map[string]*entities.VersionedEntity),
		referrers: make(map[string]map[string]valueobjects.EntityKey),
	}
}

// GetExact fetches one version by its full key
func (s *EntityStore) GetExact(ctx context.Context, key valueobjects.EntityKey) (*entities.VersionedEntity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.rows[key.String()]
	if !ok {
		return nil, nil
	}
	return copyEntity(row), nil
}

// GetLatest fetches the newest non-deleted version of a named entity
func (s *EntityStore) GetLatest(ctx context.Context, kind valueobjects.Kind, name string) (*entities.VersionedEntity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *entities.VersionedEntity
	for _, row := range s.rows {
		if row.Kind != kind || row.Name != name || row.Deleted {
			continue
		}
		if latest == nil || row.Version > latest.Version {
			latest = row
		}
	}
	if latest == nil {
		return nil, nil
	}
	return copyEntity(latest), nil
}

// ListAllVersions returns every version newest first, soft-deleted included
func (s *EntityStore) ListAllVersions(ctx context.Context, kind valueobjects.Kind, name string) ([]*entities.VersionedEntity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var versions []*entities.VersionedEntity
	for _, row := range s.rows {
		if row.Kind == kind && row.Name == name {
			versions = append(versions, copyEntity(row))
		}
	}
	sort.Slice(versions, func(i, j int) bool {
		return versions[i].Version > versions[j].Version
	})
	return versions, nil
}

// MaxVersion returns the highest version number, soft-deleted included
func (s *EntityStore) MaxVersion(ctx context.Context, kind valueobjects.Kind, name string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	max := 0
	for _, row := range s.rows {
		if row.Kind == kind && row.Name == name && row.Version > max {
			max = row.Version
		}
	}
	return max, nil
}

// Insert creates a version row, failing with DuplicateVersion when the key
// already exists. Reference edges are recorded in the same critical section.
func (s *EntityStore) Insert(ctx context.Context, entity *entities.VersionedEntity) error {
	pinned, err := entity.PinnedReferences()
	if err != nil {
		return apperrors.NewValidationError(err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := entity.Key()
	if _, exists := s.rows[key.String()]; exists {
		return apperrors.NewDuplicateVersion(key.String())
	}

	s.rows[key.String()] = copyEntity(entity)

	for _, ref := range pinned {
		child, _ := ref.PinnedKey()
		edges, ok := s.referrers[child.String()]
		if !ok {
			edges = make(map[string]valueobjects.EntityKey)
			s.referrers[child.String()] = edges
		}
		edges[key.String()] = key
	}
	return nil
}

// UpdateFlags persists the mutable fields guarded by the concurrency token
func (s *EntityStore) UpdateFlags(ctx context.Context, entity *entities.VersionedEntity, expectedToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := entity.Key()
	row, ok := s.rows[key.String()]
	if !ok {
		return apperrors.NewNotFoundError("entity version " + key.String())
	}
	if row.Token != expectedToken {
		return apperrors.NewStaleToken(key.String())
	}

	row.Deleted = entity.Deleted
	row.UpdatedAt = entity.UpdatedAt
	row.UpdatedBy = entity.UpdatedBy
	row.Token = entity.Token
	return nil
}

// HardDelete removes a version row and its outgoing reference edges
func (s *EntityStore) HardDelete(ctx context.Context, key valueobjects.EntityKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[key.String()]
	if !ok {
		return nil
	}
	delete(s.rows, key.String())

	if pinned, err := row.PinnedReferences(); err == nil {
		for _, ref := range pinned {
			child, _ := ref.PinnedKey()
			if edges, ok := s.referrers[child.String()]; ok {
				delete(edges, key.String())
				if len(edges) == 0 {
					delete(s.referrers, child.String())
				}
			}
		}
	}
	return nil
}

// FindLatestReferrers returns the latest version of every entity whose latest
// version pins the given child key
func (s *EntityStore) FindLatestReferrers(ctx context.Context, child valueobjects.EntityKey) ([]*entities.VersionedEntity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Collect the distinct owners with at least one pinning version
	type ownerID struct {
		kind valueobjects.Kind
		name string
	}
	owners := make(map[ownerID]bool)
	for _, referrer := range s.referrers[child.String()] {
		owners[ownerID{kind: referrer.Kind, name: referrer.Name}] = true
	}

	var result []*entities.VersionedEntity
	for owner := range owners {
		var latest *entities.VersionedEntity
		for _, row := range s.rows {
			if row.Kind != owner.kind || row.Name != owner.name || row.Deleted {
				continue
			}
			if latest == nil || row.Version > latest.Version {
				latest = row
			}
		}
		if latest == nil {
			continue
		}
		// Only owners whose CURRENT version still pins the child cascade
		if _, pins := s.referrers[child.String()][latest.Key().String()]; pins {
			result = append(result, copyEntity(latest))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Key().String() < result[j].Key().String()
	})
	return result, nil
}

// IsReferenced reports whether any version of any entity pins the child key
func (s *EntityStore) IsReferenced(ctx context.Context, child valueobjects.EntityKey) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.referrers[child.String()]) > 0, nil
}

// copyEntity clones a row so callers never share store memory
func copyEntity(e *entities.VersionedEntity) *entities.VersionedEntity {
	clone := *e
	clone.Content = append([]byte(nil), e.Content...)
	return &clone
}
