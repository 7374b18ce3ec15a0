package queries

import (
	"context"
	"fmt"

	"recruiter-backend/application/ports"
	"recruiter-backend/application/queries/bus"
	"recruiter-backend/domain/core/valueobjects"
	apperrors "recruiter-backend/pkg/errors"
	"recruiter-backend/pkg/utils"
)

// GetExactQuery fetches one entity version by its full key
type GetExactQuery struct {
	Kind    string `json:"kind" validate:"required"`
	Name    string `json:"name" validate:"required"`
	Version int    `json:"version" validate:"gte=1"`
}

// Validate implements bus.Query
func (q GetExactQuery) Validate() error {
	if err := utils.ValidateStruct(q); err != nil {
		return apperrors.NewValidationError(err.Error())
	}
	if _, err := valueobjects.ParseKind(q.Kind); err != nil {
		return apperrors.NewValidationError(err.Error())
	}
	return nil
}

// GetLatestQuery fetches the newest non-deleted version of a named entity
type GetLatestQuery struct {
	Kind string `json:"kind" validate:"required"`
	Name string `json:"name" validate:"required"`
}

// Validate implements bus.Query
func (q GetLatestQuery) Validate() error {
	if err := utils.ValidateStruct(q); err != nil {
		return apperrors.NewValidationError(err.Error())
	}
	if _, err := valueobjects.ParseKind(q.Kind); err != nil {
		return apperrors.NewValidationError(err.Error())
	}
	return nil
}

// GetEntityHandler handles GetExactQuery and GetLatestQuery
type GetEntityHandler struct {
	store ports.EntityStore
}

// NewGetEntityHandler creates the handler
func NewGetEntityHandler(store ports.EntityStore) *GetEntityHandler {
	return &GetEntityHandler{store: store}
}

// Handle fetches the requested version
func (h *GetEntityHandler) Handle(ctx context.Context, query bus.Query) (interface{}, error) {
	switch q := query.(type) {
	case GetExactQuery:
		kind, err := valueobjects.ParseKind(q.Kind)
		if err != nil {
			return nil, apperrors.NewValidationError(err.Error())
		}
		key, err := valueobjects.NewEntityKey(kind, q.Name, q.Version)
		if err != nil {
			return nil, apperrors.NewValidationError(err.Error())
		}
		entity, err := h.store.GetExact(ctx, key)
		if err != nil {
			return nil, err
		}
		if entity == nil {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("entity version %s", key))
		}
		return entity, nil

	case GetLatestQuery:
		kind, err := valueobjects.ParseKind(q.Kind)
		if err != nil {
			return nil, apperrors.NewValidationError(err.Error())
		}
		entity, err := h.store.GetLatest(ctx, kind, q.Name)
		if err != nil {
			return nil, err
		}
		if entity == nil {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("entity %s/%s", kind, q.Name))
		}
		return entity, nil

	default:
		return nil, apperrors.NewInternalError("GetEntityHandler received wrong query type")
	}
}
