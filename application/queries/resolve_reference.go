// Package queries holds the read-side operations of the versioning engine.
package queries

import (
	"context"

	"recruiter-backend/application/queries/bus"
	"recruiter-backend/domain/core/valueobjects"
	"recruiter-backend/domain/versioning"
	apperrors "recruiter-backend/pkg/errors"
	"recruiter-backend/pkg/utils"
)

// ResolveReferenceQuery resolves a reference to a concrete entity version.
// Version set resolves exactly that version; Version nil resolves the newest
// non-deleted version at call time.
type ResolveReferenceQuery struct {
	Kind    string `json:"kind" validate:"required"`
	Name    string `json:"name" validate:"required"`
	Version *int   `json:"version,omitempty"`
}

// Validate implements bus.Query
func (q ResolveReferenceQuery) Validate() error {
	if err := utils.ValidateStruct(q); err != nil {
		return apperrors.NewValidationError(err.Error())
	}
	if _, err := valueobjects.ParseKind(q.Kind); err != nil {
		return apperrors.NewValidationError(err.Error())
	}
	if q.Version != nil && *q.Version < 1 {
		return apperrors.NewValidationError("version must be >= 1")
	}
	return nil
}

// ResolveReferenceHandler handles ResolveReferenceQuery
type ResolveReferenceHandler struct {
	resolver *versioning.Resolver
}

// NewResolveReferenceHandler creates the handler
func NewResolveReferenceHandler(resolver *versioning.Resolver) *ResolveReferenceHandler {
	return &ResolveReferenceHandler{resolver: resolver}
}

// Handle resolves the reference
func (h *ResolveReferenceHandler) Handle(ctx context.Context, query bus.Query) (interface{}, error) {
	q, ok := query.(ResolveReferenceQuery)
	if !ok {
		return nil, apperrors.NewInternalError("ResolveReferenceHandler received wrong query type")
	}

	kind, err := valueobjects.ParseKind(q.Kind)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	ref := valueobjects.Reference{Kind: kind, Name: q.Name, Version: q.Version}
	return h.resolver.Resolve(ctx, ref)
}
