package audit

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/cryptocrystian/pravado-v2-sub011/internal/transport/http/shared"
	dErrors "github.com/cryptocrystian/pravado-v2-sub011/pkg/domain-errors"
	"github.com/cryptocrystian/pravado-v2-sub011/pkg/requestcontext"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// Handler serves the org-scoped audit event listing.
type Handler struct {
	logger *slog.Logger
	store  Store
}

func NewHandler(logger *slog.Logger, store Store) *Handler {
	return &Handler{logger: logger, store: store}
}

// Register mounts the audit routes. The caller wraps them with auth and org
// guards.
func (h *Handler) Register(r chi.Router) {
	r.Get("/audit-events", h.handleList)
}

type listResponse struct {
	Events []Event `json:"events"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orgID := requestcontext.OrgID(ctx)
	if orgID.IsZero() {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing organization scope"))
		return
	}

	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be a positive integer"))
			return
		}
		if n > maxListLimit {
			n = maxListLimit
		}
		limit = n
	}

	events, err := h.store.ListByOrg(ctx, orgID, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list audit events",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to list audit events"))
		return
	}
	if events == nil {
		events = []Event{}
	}
	shared.WriteJSON(w, http.StatusOK, listResponse{Events: events})
}
