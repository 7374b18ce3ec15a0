package entities

import (
	"encoding/json"
	"time"

	"recruiter-backend/domain/core/valueobjects"

	"github.com/google/uuid"
)

// VersionedEntity is one immutable version of a named entity.
//
// Identity is (Kind, Name, Version). Once created, Content never changes; the
// only permitted mutations are the Deleted flag and the audit/actor fields,
// and those go through a token-guarded conditional update.
type VersionedEntity struct {
	Kind    valueobjects.Kind `json:"kind"`
	Name    string            `json:"name"`
	Version int               `json:"version"`

	// Content is the family-specific document, opaque to the store
	Content json.RawMessage `json:"content"`

	// Deleted marks a soft-deleted version; the content remains retrievable
	// through the history path for audit and submission reproduction
	Deleted bool `json:"deleted"`

	CreatedAt time.Time `json:"created_at"`
	CreatedBy string    `json:"created_by"`
	UpdatedAt time.Time `json:"updated_at"`
	UpdatedBy string    `json:"updated_by"`

	// Token is the opaque concurrency token; a conditional write that targets
	// a stale token fails atomically and triggers the retry path
	Token string `json:"token"`
}

// NewVersionedEntity builds version `version` of a named entity
func NewVersionedEntity(kind valueobjects.Kind, name string, version int, content json.RawMessage, actor string) *VersionedEntity {
	now := time.Now().UTC()
	return &VersionedEntity{
		Kind:      kind,
		Name:      name,
		Version:   version,
		Content:   content,
		CreatedAt: now,
		CreatedBy: actor,
		UpdatedAt: now,
		UpdatedBy: actor,
		Token:     uuid.NewString(),
	}
}

// Key returns the entity's (Kind, Name, Version) identity
func (e *VersionedEntity) Key() valueobjects.EntityKey {
	return valueobjects.EntityKey{Kind: e.Kind, Name: e.Name, Version: e.Version}
}

// Successor builds the next version of this entity with new content.
// The receiver is untouched; versions are immutable once created.
func (e *VersionedEntity) Successor(content json.RawMessage, actor string) *VersionedEntity {
	return NewVersionedEntity(e.Kind, e.Name, e.Version+1, content, actor)
}

// MarkDeleted flips the soft-delete flag and rolls the concurrency token.
// Callers persist the change with a conditional update on the previous token.
func (e *VersionedEntity) MarkDeleted(actor string) {
	e.Deleted = true
	e.UpdatedAt = time.Now().UTC()
	e.UpdatedBy = actor
	e.Token = uuid.NewString()
}

// PinnedReferences extracts the pinned references embedded in the content.
// Dynamic references are deliberately excluded: they need no cascade.
func (e *VersionedEntity) PinnedReferences() ([]valueobjects.Reference, error) {
	doc, err := DecodeContent(e.Kind, e.Content)
	if err != nil {
		return nil, err
	}
	var pinned []valueobjects.Reference
	for _, ref := range doc.References() {
		if ref.IsPinned() {
			pinned = append(pinned, ref)
		}
	}
	return pinned, nil
}
