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

// PurgeOrphanCommand hard-deletes a version that nothing ever pinned and
// nothing ever activated. A maintenance operation, refused for anything else.
type PurgeOrphanCommand struct {
	Kind    string `json:"kind" validate:"required"`
	Name    string `json:"name" validate:"required"`
	Version int    `json:"version" validate:"gte=1"`
	Actor   string `json:"actor" validate:"required"`
}

// Validate implements bus.Command
func (c PurgeOrphanCommand) Validate() error {
	if err := utils.ValidateStruct(c); err != nil {
		return apperrors.NewValidationError(err.Error())
	}
	if _, err := valueobjects.ParseKind(c.Kind); err != nil {
		return apperrors.NewValidationError(err.Error())
	}
	return nil
}

// PurgeOrphanHandler handles PurgeOrphanCommand
type PurgeOrphanHandler struct {
	engine *versioning.Engine
	logger *zap.Logger
}

// NewPurgeOrphanHandler creates the handler
func NewPurgeOrphanHandler(engine *versioning.Engine, logger *zap.Logger) *PurgeOrphanHandler {
	return &PurgeOrphanHandler{engine: engine, logger: logger}
}

// Handle removes the orphaned version
func (h *PurgeOrphanHandler) Handle(ctx context.Context, cmd bus.Command) (interface{}, error) {
	c, ok := cmd.(PurgeOrphanCommand)
	if !ok {
		return nil, apperrors.NewInternalError("PurgeOrphanHandler received wrong command type")
	}

	kind, err := valueobjects.ParseKind(c.Kind)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	key, err := valueobjects.NewEntityKey(kind, c.Name, c.Version)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	if err := h.engine.PurgeOrphan(ctx, key, c.Actor); err != nil {
		return nil, err
	}

	h.logger.Info("Orphan version purged",
		zap.String("key", key.String()),
		zap.String("actor", c.Actor),
	)
	return key, nil
}
