package queries

import (
	"context"
	"fmt"

	"recruiter-backend/application/ports"
	"recruiter-backend/application/queries/bus"
	"recruiter-backend/domain/core/entities"
	"recruiter-backend/domain/core/valueobjects"
	"recruiter-backend/pkg/common"
	apperrors "recruiter-backend/pkg/errors"
	"recruiter-backend/pkg/utils"
)

// GetHistoryQuery lists every version of a named entity, newest first,
// soft-deleted versions included
type GetHistoryQuery struct {
	Kind     string `json:"kind" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Page     int    `json:"page" validate:"gte=0"`
	PageSize int    `json:"page_size" validate:"gte=0"`
}

// Validate implements bus.Query
func (q GetHistoryQuery) Validate() error {
	if err := utils.ValidateStruct(q); err != nil {
		return apperrors.NewValidationError(err.Error())
	}
	if _, err := valueobjects.ParseKind(q.Kind); err != nil {
		return apperrors.NewValidationError(err.Error())
	}
	return nil
}

// HistoryPage is one page of an entity's version history
type HistoryPage struct {
	Versions   []*entities.VersionedEntity `json:"versions"`
	Pagination *common.PaginationInfo      `json:"pagination"`
}

// GetHistoryHandler handles GetHistoryQuery
type GetHistoryHandler struct {
	store ports.EntityStore
}

// NewGetHistoryHandler creates the handler
func NewGetHistoryHandler(store ports.EntityStore) *GetHistoryHandler {
	return &GetHistoryHandler{store: store}
}

// Handle lists the version history
func (h *GetHistoryHandler) Handle(ctx context.Context, query bus.Query) (interface{}, error) {
	q, ok := query.(GetHistoryQuery)
	if !ok {
		return nil, apperrors.NewInternalError("GetHistoryHandler received wrong query type")
	}

	kind, err := valueobjects.ParseKind(q.Kind)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	versions, err := h.store.ListAllVersions(ctx, kind, q.Name)
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("entity %s/%s", kind, q.Name))
	}

	params := common.PaginationParams{Page: q.Page, PageSize: q.PageSize}
	params.Normalize()

	total := len(versions)
	start := params.Offset()
	if start > total {
		start = total
	}
	end := start + params.PageSize
	if end > total {
		end = total
	}

	return &HistoryPage{
		Versions:   versions[start:end],
		Pagination: common.BuildPaginationInfo(params, total),
	}, nil
}
