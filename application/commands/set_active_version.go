package commands

import (
	"context"

	"recruiter-backend/application/commands/bus"
	"recruiter-backend/domain/core/valueobjects"
	"recruiter-backend/domain/versioning"
	apperrors "recruiter-backend/pkg/errors"
	"recruiter-backend/pkg/utils"

	"go.uber.org/zap"
)

// SetActiveVersionCommand makes an entity version the active occupant of a
// structural slot. This is the only way a version becomes active.
type SetActiveVersionCommand struct {
	ParentID string `json:"parent_id" validate:"required"`
	Order    int    `json:"order" validate:"gte=0"`
	Kind     string `json:"kind" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Version  int    `json:"version" validate:"gte=1"`
	Actor    string `json:"actor" validate:"required"`
}

// Validate implements bus.Command
func (c SetActiveVersionCommand) Validate() error {
	if err := utils.ValidateStruct(c); err != nil {
		return apperrors.NewValidationError(err.Error())
	}
	if _, err := valueobjects.ParseKind(c.Kind); err != nil {
		return apperrors.NewValidationError(err.Error())
	}
	return nil
}

// ActivationResult reports the slot swap
type ActivationResult struct {
	Slot      valueobjects.SlotKey   `json:"slot"`
	Activated valueobjects.EntityKey `json:"activated"`
}

// SetActiveVersionHandler handles SetActiveVersionCommand
type SetActiveVersionHandler struct {
	engine *versioning.Engine
	logger *zap.Logger
}

// NewSetActiveVersionHandler creates the handler
func NewSetActiveVersionHandler(engine *versioning.Engine, logger *zap.Logger) *SetActiveVersionHandler {
	return &SetActiveVersionHandler{engine: engine, logger: logger}
}

// Handle flips the slot to the requested version
func (h *SetActiveVersionHandler) Handle(ctx context.Context, cmd bus.Command) (interface{}, error) {
	c, ok := cmd.(SetActiveVersionCommand)
	if !ok {
		return nil, apperrors.NewInternalError("SetActiveVersionHandler received wrong command type")
	}

	kind, err := valueobjects.ParseKind(c.Kind)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	key, err := valueobjects.NewEntityKey(kind, c.Name, c.Version)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	slot, err := valueobjects.NewSlotKey(c.ParentID, c.Order)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	if err := h.engine.SetActiveVersion(ctx, slot, key, c.Actor); err != nil {
		return nil, err
	}

	h.logger.Info("Active version set",
		zap.String("slot", slot.String()),
		zap.String("key", key.String()),
		zap.String("actor", c.Actor),
	)
	return &ActivationResult{Slot: slot, Activated: key}, nil
}
