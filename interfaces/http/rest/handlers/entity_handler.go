// Package handlers holds the HTTP handlers of the versioning API.
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

// EntityHandler handles versioned-entity HTTP requests
type EntityHandler struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	errors     *apperrors.ErrorHandler
	logger     *zap.Logger
}

// NewEntityHandler creates a new entity handler
func NewEntityHandler(commandBus *bus.CommandBus, queryBus *querybus.QueryBus, logger *zap.Logger) *EntityHandler {
	return &EntityHandler{
		commandBus: commandBus,
		queryBus:   queryBus,
		errors:     apperrors.NewErrorHandler(logger),
		logger:     logger,
	}
}

// versionRequest is the body for version-creating endpoints
type versionRequest struct {
	Content json.RawMessage `json:"content"`
}

// CreateVersion handles POST /entities/{kind}/{name}/versions.
// Appends the next version without cascading.
func (h *EntityHandler) CreateVersion(w http.ResponseWriter, r *http.Request) {
	var req versionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errors.Handle(w, r, apperrors.NewValidationError("invalid request body: "+err.Error()))
		return
	}

	result, err := h.commandBus.Send(r.Context(), commands.CreateVersionCommand{
		Kind:    chi.URLParam(r, "kind"),
		Name:    chi.URLParam(r, "name"),
		Content: req.Content,
		Actor:   common.ActorFromContext(r.Context()),
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, result)
}

// EditWithCascade handles POST /entities/{kind}/{name}/edits.
// Appends the next version and re-versions every owner pinning the old one.
func (h *EntityHandler) EditWithCascade(w http.ResponseWriter, r *http.Request) {
	var req versionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errors.Handle(w, r, apperrors.NewValidationError("invalid request body: "+err.Error()))
		return
	}

	result, err := h.commandBus.Send(r.Context(), commands.EditWithCascadeCommand{
		Kind:    chi.URLParam(r, "kind"),
		Name:    chi.URLParam(r, "name"),
		Content: req.Content,
		Actor:   common.ActorFromContext(r.Context()),
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, result)
}

// GetVersion handles GET /entities/{kind}/{name}/versions/{version}
func (h *EntityHandler) GetVersion(w http.ResponseWriter, r *http.Request) {
	version, err := parseVersionParam(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.GetExactQuery{
		Kind:    chi.URLParam(r, "kind"),
		Name:    chi.URLParam(r, "name"),
		Version: version,
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, result)
}

// GetLatest handles GET /entities/{kind}/{name}/latest
func (h *EntityHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	result, err := h.queryBus.Ask(r.Context(), queries.GetLatestQuery{
		Kind: chi.URLParam(r, "kind"),
		Name: chi.URLParam(r, "name"),
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, result)
}

// GetHistory handles GET /entities/{kind}/{name}/versions
func (h *EntityHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	params := common.ExtractPaginationParams(r)

	result, err := h.queryBus.Ask(r.Context(), queries.GetHistoryQuery{
		Kind:     chi.URLParam(r, "kind"),
		Name:     chi.URLParam(r, "name"),
		Page:     params.Page,
		PageSize: params.PageSize,
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, result)
}

// Resolve handles GET /resolve?kind=&name=&version=.
// Omitting version resolves the newest non-deleted version.
func (h *EntityHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	query := queries.ResolveReferenceQuery{
		Kind: r.URL.Query().Get("kind"),
		Name: r.URL.Query().Get("name"),
	}
	if raw := r.URL.Query().Get("version"); raw != "" {
		version, err := strconv.Atoi(raw)
		if err != nil {
			h.errors.Handle(w, r, apperrors.NewValidationError("version must be an integer"))
			return
		}
		query.Version = &version
	}

	result, err := h.queryBus.Ask(r.Context(), query)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, result)
}

// SoftDelete handles DELETE /entities/{kind}/{name}/versions/{version}
func (h *EntityHandler) SoftDelete(w http.ResponseWriter, r *http.Request) {
	version, err := parseVersionParam(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	result, err := h.commandBus.Send(r.Context(), commands.SoftDeleteCommand{
		Kind:    chi.URLParam(r, "kind"),
		Name:    chi.URLParam(r, "name"),
		Version: version,
		Actor:   common.ActorFromContext(r.Context()),
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, result)
}

// PurgeOrphan handles POST /entities/{kind}/{name}/versions/{version}/purge
func (h *EntityHandler) PurgeOrphan(w http.ResponseWriter, r *http.Request) {
	version, err := parseVersionParam(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	result, err := h.commandBus.Send(r.Context(), commands.PurgeOrphanCommand{
		Kind:    chi.URLParam(r, "kind"),
		Name:    chi.URLParam(r, "name"),
		Version: version,
		Actor:   common.ActorFromContext(r.Context()),
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, result)
}

// parseVersionParam reads the {version} URL parameter
func parseVersionParam(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "version")
	version, err := strconv.Atoi(raw)
	if err != nil || version < 1 {
		return 0, apperrors.NewValidationError("version must be a positive integer")
	}
	return version, nil
}
