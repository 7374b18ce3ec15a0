// Package commands holds the write-side operations of the versioning engine.
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

// CreateVersionCommand appends the next version of a named entity without
// touching anything that references it
type CreateVersionCommand struct {
	Kind    string          `json:"kind" validate:"required"`
	Name    string          `json:"name" validate:"required,min=1,max=200"`
	Content json.RawMessage `json:"content" validate:"required"`
	Actor   string          `json:"actor" validate:"required"`
}

// Validate implements bus.Command
func (c CreateVersionCommand) Validate() error {
	if err := utils.ValidateStruct(c); err != nil {
		return apperrors.NewValidationError(err.Error())
	}
	if _, err := valueobjects.ParseKind(c.Kind); err != nil {
		return apperrors.NewValidationError(err.Error())
	}
	return nil
}

// CreateVersionHandler handles CreateVersionCommand
type CreateVersionHandler struct {
	engine *versioning.Engine
	logger *zap.Logger
}

// NewCreateVersionHandler creates the handler
func NewCreateVersionHandler(engine *versioning.Engine, logger *zap.Logger) *CreateVersionHandler {
	return &CreateVersionHandler{engine: engine, logger: logger}
}

// Handle appends the next version
func (h *CreateVersionHandler) Handle(ctx context.Context, cmd bus.Command) (interface{}, error) {
	c, ok := cmd.(CreateVersionCommand)
	if !ok {
		return nil, apperrors.NewInternalError("CreateVersionHandler received wrong command type")
	}

	kind, err := valueobjects.ParseKind(c.Kind)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	entity, err := h.engine.CreateNextVersion(ctx, kind, c.Name, c.Content, c.Actor)
	if err != nil {
		return nil, err
	}

	h.logger.Info("Version created",
		zap.String("key", entity.Key().String()),
		zap.String("actor", c.Actor),
	)
	return entity, nil
}
