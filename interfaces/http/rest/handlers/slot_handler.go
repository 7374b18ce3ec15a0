package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"recruiter-backend/application/commands"
	"recruiter-backend/application/commands/bus"
	"recruiter-backend/application/queries"
	querybus "recruiter-backend/application/queries/bus"
	"recruiter-backend/pkg/common"
	apperrors "recruiter-backend/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// SlotHandler handles active-slot HTTP requests
type SlotHandler struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	errors     *apperrors.ErrorHandler
	logger     *zap.Logger
}

// NewSlotHandler creates a new slot handler
func NewSlotHandler(commandBus *bus.CommandBus, queryBus *querybus.QueryBus, logger *zap.Logger) *SlotHandler {
	return &SlotHandler{
		commandBus: commandBus,
		queryBus:   queryBus,
		errors:     apperrors.NewErrorHandler(logger),
		logger:     logger,
	}
}

// activateRequest is the body for slot activation
type activateRequest struct {
	Kind    string `json:"kind"`
	Name    string `json:"name"`
	Version int    `json:"version"`
}

// Activate handles PUT /slots/{parentID}/{order}/active
func (h *SlotHandler) Activate(w http.ResponseWriter, r *http.Request) {
	order, err := parseOrderParam(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	var req activateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errors.Handle(w, r, apperrors.NewValidationError("invalid request body: "+err.Error()))
		return
	}

	result, err := h.commandBus.Send(r.Context(), commands.SetActiveVersionCommand{
		ParentID: chi.URLParam(r, "parentID"),
		Order:    order,
		Kind:     req.Kind,
		Name:     req.Name,
		Version:  req.Version,
		Actor:    common.ActorFromContext(r.Context()),
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, result)
}

// CurrentActive handles GET /slots/{parentID}/{order}/active
func (h *SlotHandler) CurrentActive(w http.ResponseWriter, r *http.Request) {
	order, err := parseOrderParam(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.CurrentActiveQuery{
		ParentID: chi.URLParam(r, "parentID"),
		Order:    order,
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, result)
}

// parseOrderParam reads the {order} URL parameter
func parseOrderParam(r *http.Request) (int, error) {
	order, err := strconv.Atoi(chi.URLParam(r, "order"))
	if err != nil || order < 0 {
		return 0, apperrors.NewValidationError("order must be a non-negative integer")
	}
	return order, nil
}
