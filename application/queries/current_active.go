package queries

import (
	"context"

	"recruiter-backend/application/ports"
	"recruiter-backend/application/queries/bus"
	"recruiter-backend/domain/core/valueobjects"
	apperrors "recruiter-backend/pkg/errors"
	"recruiter-backend/pkg/utils"
)

// CurrentActiveQuery returns the entity version active at a structural slot
type CurrentActiveQuery struct {
	ParentID string `json:"parent_id" validate:"required"`
	Order    int    `json:"order" validate:"gte=0"`
}

// Validate implements bus.Query
func (q CurrentActiveQuery) Validate() error {
	if err := utils.ValidateStruct(q); err != nil {
		return apperrors.NewValidationError(err.Error())
	}
	return nil
}

// ActiveSlot is the response payload for an active-slot lookup. Key is nil
// when the slot has never been activated.
type ActiveSlot struct {
	Slot valueobjects.SlotKey    `json:"slot"`
	Key  *valueobjects.EntityKey `json:"key"`
}

// CurrentActiveHandler handles CurrentActiveQuery
type CurrentActiveHandler struct {
	slots ports.SlotStore
}

// NewCurrentActiveHandler creates the handler
func NewCurrentActiveHandler(slots ports.SlotStore) *CurrentActiveHandler {
	return &CurrentActiveHandler{slots: slots}
}

// Handle looks up the slot occupant
func (h *CurrentActiveHandler) Handle(ctx context.Context, query bus.Query) (interface{}, error) {
	q, ok := query.(CurrentActiveQuery)
	if !ok {
		return nil, apperrors.NewInternalError("CurrentActiveHandler received wrong query type")
	}

	slot, err := valueobjects.NewSlotKey(q.ParentID, q.Order)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	key, err := h.slots.CurrentActive(ctx, slot)
	if err != nil {
		return nil, err
	}
	return &ActiveSlot{Slot: slot, Key: key}, nil
}
