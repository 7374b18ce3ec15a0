package memory

import (
	"context"
	"sync"
	"time"

	"recruiter-backend/domain/core/valueobjects"
)

// slotRecord is the current occupant of one slot
type slotRecord struct {
	key         valueobjects.EntityKey
	activatedAt time.Time
	activatedBy string
}

// SlotStore is a map-backed active-slot store. One record per slot key by
// construction, which is the single-active-version invariant itself.
type SlotStore struct {
	mu sync.RWMutex

	active map[string]slotRecord

	// everActivated remembers every key that ever held a slot, and every
	// entity name any version of which ever held a slot
	everActivatedVersion map[string]bool
	everActivatedEntity  map[string]bool
}

// NewSlotStore creates an empty in-memory slot store
func NewSlotStore() *SlotStore {
	return &SlotStore{
		active:               make(map[string]slotRecord),
		everActivatedVersion: make(map[string]bool),
		everActivatedEntity:  make(map[string]bool),
	}
}

// Activate swaps the slot occupant atomically and returns the previous one
func (s *SlotStore) Activate(ctx context.Context, slot valueobjects.SlotKey, key valueobjects.EntityKey, actor string) (*valueobjects.EntityKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var previous *valueobjects.EntityKey
	if current, ok := s.active[slot.String()]; ok {
		prev := current.key
		previous = &prev
	}

	s.active[slot.String()] = slotRecord{
		key:         key,
		activatedAt: time.Now().UTC(),
		activatedBy: actor,
	}
	s.everActivatedVersion[key.String()] = true
	s.everActivatedEntity[entityID(key.Kind, key.Name)] = true

	return previous, nil
}

// CurrentActive returns the occupant of the slot, nil when never activated
func (s *SlotStore) CurrentActive(ctx context.Context, slot valueobjects.SlotKey) (*valueobjects.EntityKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	current, ok := s.active[slot.String()]
	if !ok {
		return nil, nil
	}
	key := current.key
	return &key, nil
}

// VersionEverActivated reports whether the exact version ever held any slot
func (s *SlotStore) VersionEverActivated(ctx context.Context, key valueobjects.EntityKey) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.everActivatedVersion[key.String()], nil
}

// EntityEverActivated reports whether any version of the entity ever held a slot
func (s *SlotStore) EntityEverActivated(ctx context.Context, kind valueobjects.Kind, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.everActivatedEntity[entityID(kind, name)], nil
}

func entityID(kind valueobjects.Kind, name string) string {
	return string(kind) + "/" + name
}
