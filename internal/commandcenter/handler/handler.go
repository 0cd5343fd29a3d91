// Package handler exposes the executive command-center endpoints.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cryptocrystian/pravado-v2-sub011/internal/commandcenter/models"
	"github.com/cryptocrystian/pravado-v2-sub011/internal/commandcenter/service"
	"github.com/cryptocrystian/pravado-v2-sub011/internal/transport/http/shared"
	id "github.com/cryptocrystian/pravado-v2-sub011/pkg/domain"
	dErrors "github.com/cryptocrystian/pravado-v2-sub011/pkg/domain-errors"
	"github.com/cryptocrystian/pravado-v2-sub011/pkg/requestcontext"
)

// Service defines the command-center operations the handler needs.
type Service interface {
	CreateDashboard(ctx context.Context, params service.CreateDashboardParams) (*models.ExecDashboard, error)
	ListDashboards(ctx context.Context) ([]*models.ExecDashboard, error)
	GetDashboard(ctx context.Context, dashboardID id.DashboardID) (*models.ExecDashboard, error)
	UpdateDashboard(ctx context.Context, dashboardID id.DashboardID, params service.UpdateDashboardParams) (*models.ExecDashboard, error)
	ArchiveDashboard(ctx context.Context, dashboardID id.DashboardID) (*models.ExecDashboard, error)

	CreateInsight(ctx context.Context, dashboardID id.DashboardID, params service.CreateInsightParams) (*models.Insight, error)
	ListInsights(ctx context.Context, dashboardID id.DashboardID, status models.InsightStatus) ([]*models.Insight, error)
	AcknowledgeInsight(ctx context.Context, dashboardID id.DashboardID, insightID id.InsightID) (*models.Insight, error)
	DismissInsight(ctx context.Context, dashboardID id.DashboardID, insightID id.InsightID) (*models.Insight, error)

	IngestKPI(ctx context.Context, dashboardID id.DashboardID, params service.IngestKPIParams) (*models.KPISnapshot, error)
	ListKPIs(ctx context.Context, dashboardID id.DashboardID, limit int) ([]*models.KPISnapshot, error)
	LatestKPIs(ctx context.Context, dashboardID id.DashboardID) ([]*models.KPISnapshot, error)

	GenerateNarrative(ctx context.Context, dashboardID id.DashboardID, tone models.Tone) (*models.Narrative, error)
	ListNarratives(ctx context.Context, dashboardID id.DashboardID, limit int) ([]*models.Narrative, error)
	GetNarrative(ctx context.Context, narrativeID id.NarrativeID) (*models.Narrative, error)
}

// Handler handles the /exec-dashboards routes.
type Handler struct {
	logger *slog.Logger
	svc    Service
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, svc: svc}
}

// Register mounts the command-center routes.
func (h *Handler) Register(r chi.Router) {
	r.Route("/exec-dashboards", func(r chi.Router) {
		r.Get("/", h.handleListDashboards)
		r.Post("/", h.handleCreateDashboard)

		r.Route("/{dashboardID}", func(r chi.Router) {
			r.Get("/", h.handleGetDashboard)
			r.Patch("/", h.handleUpdateDashboard)
			r.Delete("/", h.handleArchiveDashboard)

			r.Route("/insights", func(r chi.Router) {
				r.Get("/", h.handleListInsights)
				r.Post("/", h.handleCreateInsight)
				r.Post("/{insightID}/acknowledge", h.handleAcknowledgeInsight)
				r.Post("/{insightID}/dismiss", h.handleDismissInsight)
			})

			r.Route("/kpis", func(r chi.Router) {
				r.Get("/", h.handleListKPIs)
				r.Post("/", h.handleIngestKPI)
				r.Get("/latest", h.handleLatestKPIs)
			})

			r.Route("/narratives", func(r chi.Router) {
				r.Get("/", h.handleListNarratives)
				r.Post("/", h.handleGenerateNarrative)
				r.Get("/{narrativeID}", h.handleGetNarrative)
			})
		})
	})
}

type createDashboardRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	TimeRange   string `json:"time_range"`
}

func (h *Handler) handleCreateDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createDashboardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	d, err := h.svc.CreateDashboard(ctx, service.CreateDashboardParams{
		Name:        req.Name,
		Description: req.Description,
		TimeRange:   models.TimeRange(req.TimeRange),
	})
	if err != nil {
		h.logError(ctx, "failed to create dashboard", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, d)
}

type dashboardListResponse struct {
	Dashboards []*models.ExecDashboard `json:"dashboards"`
}

func (h *Handler) handleListDashboards(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	dashboards, err := h.svc.ListDashboards(ctx)
	if err != nil {
		h.logError(ctx, "failed to list dashboards", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, dashboardListResponse{Dashboards: dashboards})
}

func (h *Handler) handleGetDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	dashboardID, err := id.ParseDashboardID(chi.URLParam(r, "dashboardID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	d, err := h.svc.GetDashboard(ctx, dashboardID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, d)
}

type updateDashboardRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	TimeRange   *string `json:"time_range"`
}

func (h *Handler) handleUpdateDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	dashboardID, err := id.ParseDashboardID(chi.URLParam(r, "dashboardID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req updateDashboardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	params := service.UpdateDashboardParams{
		Name:        req.Name,
		Description: req.Description,
	}
	if req.TimeRange != nil {
		timeRange := models.TimeRange(*req.TimeRange)
		params.TimeRange = &timeRange
	}
	d, err := h.svc.UpdateDashboard(ctx, dashboardID, params)
	if err != nil {
		h.logError(ctx, "failed to update dashboard", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, d)
}

func (h *Handler) handleArchiveDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	dashboardID, err := id.ParseDashboardID(chi.URLParam(r, "dashboardID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	d, err := h.svc.ArchiveDashboard(ctx, dashboardID)
	if err != nil {
		h.logError(ctx, "failed to archive dashboard", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, d)
}

type createInsightRequest struct {
	Title    string `json:"title"`
	Body     string `json:"body"`
	Severity string `json:"severity"`
	Source   string `json:"source"`
}

func (h *Handler) handleCreateInsight(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	dashboardID, err := id.ParseDashboardID(chi.URLParam(r, "dashboardID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req createInsightRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	i, err := h.svc.CreateInsight(ctx, dashboardID, service.CreateInsightParams{
		Title:    req.Title,
		Body:     req.Body,
		Severity: models.Severity(req.Severity),
		Source:   req.Source,
	})
	if err != nil {
		h.logError(ctx, "failed to create insight", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, i)
}

type insightListResponse struct {
	Insights []*models.Insight `json:"insights"`
}

func (h *Handler) handleListInsights(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	dashboardID, err := id.ParseDashboardID(chi.URLParam(r, "dashboardID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	status := models.InsightStatus(r.URL.Query().Get("status"))
	switch status {
	case "", models.InsightOpen, models.InsightAcknowledged, models.InsightDismissed:
	default:
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "status must be one of open, acknowledged, dismissed"))
		return
	}

	insights, err := h.svc.ListInsights(ctx, dashboardID, status)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, insightListResponse{Insights: insights})
}

func (h *Handler) handleAcknowledgeInsight(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	dashboardID, err := id.ParseDashboardID(chi.URLParam(r, "dashboardID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	insightID, err := id.ParseInsightID(chi.URLParam(r, "insightID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	i, err := h.svc.AcknowledgeInsight(ctx, dashboardID, insightID)
	if err != nil {
		h.logError(ctx, "failed to acknowledge insight", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, i)
}

func (h *Handler) handleDismissInsight(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	dashboardID, err := id.ParseDashboardID(chi.URLParam(r, "dashboardID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	insightID, err := id.ParseInsightID(chi.URLParam(r, "insightID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	i, err := h.svc.DismissInsight(ctx, dashboardID, insightID)
	if err != nil {
		h.logError(ctx, "failed to dismiss insight", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, i)
}

type ingestKPIRequest struct {
	Metric     string     `json:"metric"`
	Value      float64    `json:"value"`
	Unit       string     `json:"unit"`
	CapturedAt *time.Time `json:"captured_at"`
}

func (h *Handler) handleIngestKPI(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	dashboardID, err := id.ParseDashboardID(chi.URLParam(r, "dashboardID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req ingestKPIRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	params := service.IngestKPIParams{
		Metric: req.Metric,
		Value:  req.Value,
		Unit:   req.Unit,
	}
	if req.CapturedAt != nil {
		params.CapturedAt = *req.CapturedAt
	}
	k, err := h.svc.IngestKPI(ctx, dashboardID, params)
	if err != nil {
		h.logError(ctx, "failed to ingest kpi snapshot", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, k)
}

type kpiListResponse struct {
	Snapshots []*models.KPISnapshot `json:"snapshots"`
}

func (h *Handler) handleListKPIs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	dashboardID, err := id.ParseDashboardID(chi.URLParam(r, "dashboardID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	limit, err := limitParam(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	snapshots, err := h.svc.ListKPIs(ctx, dashboardID, limit)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, kpiListResponse{Snapshots: snapshots})
}

func (h *Handler) handleLatestKPIs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	dashboardID, err := id.ParseDashboardID(chi.URLParam(r, "dashboardID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	snapshots, err := h.svc.LatestKPIs(ctx, dashboardID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, kpiListResponse{Snapshots: snapshots})
}

type generateNarrativeRequest struct {
	Tone string `json:"tone"`
}

func (h *Handler) handleGenerateNarrative(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	dashboardID, err := id.ParseDashboardID(chi.URLParam(r, "dashboardID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req generateNarrativeRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
			return
		}
	}

	n, err := h.svc.GenerateNarrative(ctx, dashboardID, models.Tone(req.Tone))
	if err != nil {
		h.logError(ctx, "failed to generate narrative", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, n)
}

type narrativeListResponse struct {
	Narratives []*models.Narrative `json:"narratives"`
}

func (h *Handler) handleListNarratives(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	dashboardID, err := id.ParseDashboardID(chi.URLParam(r, "dashboardID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	limit, err := limitParam(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	narratives, err := h.svc.ListNarratives(ctx, dashboardID, limit)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, narrativeListResponse{Narratives: narratives})
}

func (h *Handler) handleGetNarrative(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	narrativeID, err := id.ParseNarrativeID(chi.URLParam(r, "narrativeID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	n, err := h.svc.GetNarrative(ctx, narrativeID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, n)
}

func limitParam(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return 0, dErrors.New(dErrors.CodeBadRequest, "limit must be a positive integer")
	}
	return limit, nil
}

func (h *Handler) logError(ctx context.Context, msg string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
}
