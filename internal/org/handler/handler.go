// Package handler exposes the operator-facing organization endpoints.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cryptocrystian/pravado-v2-sub011/internal/org/models"
	"github.com/cryptocrystian/pravado-v2-sub011/internal/transport/http/shared"
	id "github.com/cryptocrystian/pravado-v2-sub011/pkg/domain"
	dErrors "github.com/cryptocrystian/pravado-v2-sub011/pkg/domain-errors"
	"github.com/cryptocrystian/pravado-v2-sub011/pkg/requestcontext"
)

// Service defines the org operations the handler needs.
type Service interface {
	CreateOrganization(ctx context.Context, name, slug string, plan models.Plan) (*models.Organization, error)
	GetOrganization(ctx context.Context, orgID id.OrgID) (*models.Organization, error)
	SuspendOrganization(ctx context.Context, orgID id.OrgID) (*models.Organization, error)
	ReactivateOrganization(ctx context.Context, orgID id.OrgID) (*models.Organization, error)
}

// Handler handles organization endpoints. These are platform-operator routes
// guarded by the admin token middleware, not end-user routes.
type Handler struct {
	logger *slog.Logger
	orgs   Service
}

func New(orgs Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, orgs: orgs}
}

// Register mounts the org routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/orgs", h.handleCreate)
	r.Get("/orgs/{orgID}", h.handleGet)
	r.Post("/orgs/{orgID}/suspend", h.handleSuspend)
	r.Post("/orgs/{orgID}/reactivate", h.handleReactivate)
}

type createRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
	Plan string `json:"plan"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	org, err := h.orgs.CreateOrganization(ctx, req.Name, req.Slug, models.Plan(req.Plan))
	if err != nil {
		h.logError(ctx, "failed to create organization", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, org)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orgID, err := id.ParseOrgID(chi.URLParam(r, "orgID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	org, err := h.orgs.GetOrganization(ctx, orgID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, org)
}

func (h *Handler) handleSuspend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orgID, err := id.ParseOrgID(chi.URLParam(r, "orgID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	org, err := h.orgs.SuspendOrganization(ctx, orgID)
	if err != nil {
		h.logError(ctx, "failed to suspend organization", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, org)
}

func (h *Handler) handleReactivate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orgID, err := id.ParseOrgID(chi.URLParam(r, "orgID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	org, err := h.orgs.ReactivateOrganization(ctx, orgID)
	if err != nil {
		h.logError(ctx, "failed to reactivate organization", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, org)
}

func (h *Handler) logError(ctx context.Context, msg string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
}
