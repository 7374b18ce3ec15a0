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

// SoftDeleteCommand retires one entity version. The version stays in history
// and pinned references to it keep resolving.
type SoftDeleteCommand struct {
	Kind    string `json:"kind" validate:"required"`
	Name    string `json:"name" validate:"required"`
	Version int    `json:"version" validate:"gte=1"`
	Actor   string `json:"actor" validate:"required"`
}

// Validate implements bus.Command
func (c SoftDeleteCommand) Validate() error {
	if err := utils.ValidateStruct(c); err != nil {
		return apperrors.NewValidationError(err.Error())
	}
	if _, err := valueobjects.ParseKind(c.Kind); err != nil {
		return apperrors.NewValidationError(err.Error())
	}
	return nil
}

// SoftDeleteHandler handles SoftDeleteCommand
type SoftDeleteHandler struct {
	engine *versioning.Engine
	logger *zap.Logger
}

// NewSoftDeleteHandler creates the handler
func NewSoftDeleteHandler(engine *versioning.Engine, logger *zap.Logger) *SoftDeleteHandler {
	return &SoftDeleteHandler{engine: engine, logger: logger}
}

// Handle marks the version deleted
func (h *SoftDeleteHandler) Handle(ctx context.Context, cmd bus.Command) (interface{}, error) {
	c, ok := cmd.(SoftDeleteCommand)
	if !ok {
		return nil, apperrors.NewInternalError("SoftDeleteHandler received wrong command type")
	}

	kind, err := valueobjects.ParseKind(c.Kind)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	key, err := valueobjects.NewEntityKey(kind, c.Name, c.Version)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	if err := h.engine.SoftDelete(ctx, key, c.Actor); err != nil {
		return nil, err
	}

	h.logger.Info("Version soft-deleted",
		zap.String("key", key.String()),
		zap.String("actor", c.Actor),
	)
	return key, nil
}
