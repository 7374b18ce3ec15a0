package commands

import (
	"context"
	"encoding/json"

	"recruiter-backend/application/commands/bus"
	"recruiter-backend/domain/core/valueobjects"
	"recruiter-backend/domain/versioning"
	apperrors "recruiter-backend/pkg/errors"
	"recruiter-backend/pkg/utils"

	"go.uber.org/zap"
)

// EditWithCascadeCommand appends the next version of an entity and propagates
// the edit through every owner whose latest version pins the superseded one
type EditWithCascadeCommand struct {
	Kind    string          `json:"kind" validate:"required"`
	Name    string          `json:"name" validate:"required,min=1,max=200"`
	Content json.RawMessage `json:"content" validate:"required"`
	Actor   string          `json:"actor" validate:"required"`
}

// Validate implements bus.Command
func (c EditWithCascadeCommand) Validate() error {
	if err := utils.ValidateStruct(c); err != nil {
		return apperrors.NewValidationError(err.Error())
	}
	if _, err := valueobjects.ParseKind(c.Kind); err != nil {
		return apperrors.NewValidationError(err.Error())
	}
	return nil
}

// EditWithCascadeHandler handles EditWithCascadeCommand
type EditWithCascadeHandler struct {
	engine *versioning.Engine
	logger *zap.Logger
}

// NewEditWithCascadeHandler creates the handler
func NewEditWithCascadeHandler(engine *versioning.Engine, logger *zap.Logger) *EditWithCascadeHandler {
	return &EditWithCascadeHandler{engine: engine, logger: logger}
}

// Handle runs the edit and its cascade, returning the full CascadeResult
func (h *EditWithCascadeHandler) Handle(ctx context.Context, cmd bus.Command) (interface{}, error) {
	c, ok := cmd.(EditWithCascadeCommand)
	if !ok {
		return nil, apperrors.NewInternalError("EditWithCascadeHandler received wrong command type")
	}

	kind, err := valueobjects.ParseKind(c.Kind)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	result, err := h.engine.EditWithCascade(ctx, kind, c.Name, c.Content, c.Actor)
	if err != nil {
		return nil, err
	}

	h.logger.Info("Edit with cascade completed",
		zap.String("edited", result.Edited.String()),
		zap.Int("ownersReversioned", len(result.Created)),
		zap.String("actor", c.Actor),
	)
	return result, nil
}
