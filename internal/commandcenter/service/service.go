// Package service orchestrates executive dashboards and their sub-resources.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/cryptocrystian/pravado-v2-sub011/internal/audit"
	ccmetrics "github.com/cryptocrystian/pravado-v2-sub011/internal/commandcenter/metrics"
	"github.com/cryptocrystian/pravado-v2-sub011/internal/commandcenter/models"
	"github.com/cryptocrystian/pravado-v2-sub011/internal/commandcenter/store"
	"github.com/cryptocrystian/pravado-v2-sub011/internal/featureflag"
	"github.com/cryptocrystian/pravado-v2-sub011/internal/narrative/llm"
	id "github.com/cryptocrystian/pravado-v2-sub011/pkg/domain"
	dErrors "github.com/cryptocrystian/pravado-v2-sub011/pkg/domain-errors"
	"github.com/cryptocrystian/pravado-v2-sub011/pkg/platform/sentinel"
	"github.com/cryptocrystian/pravado-v2-sub011/pkg/requestcontext"
)

const tracerName = "pravado/commandcenter"

// AuditEmitter decouples the service from the audit publisher so tests can
// pass nil or a recorder.
type AuditEmitter interface {
	Emit(ctx context.Context, event audit.Event)
}

// Service orchestrates command-center operations.
type Service struct {
	dashboards store.DashboardStore
	insights   store.InsightStore
	kpis       store.KPIStore
	narratives store.NarrativeStore
	generator  llm.Generator
	flags      *featureflag.Flags

	auditor AuditEmitter
	metrics *ccmetrics.Metrics
	tracer  trace.Tracer
}

type Option func(*Service)

func WithAuditor(a AuditEmitter) Option {
	return func(s *Service) { s.auditor = a }
}

func WithMetrics(m *ccmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(dashboards store.DashboardStore, insights store.InsightStore, kpis store.KPIStore, narratives store.NarrativeStore, generator llm.Generator, flags *featureflag.Flags, opts ...Option) *Service {
	s := &Service{
		dashboards: dashboards,
		insights:   insights,
		kpis:       kpis,
		narratives: narratives,
		generator:  generator,
		flags:      flags,
		tracer:     otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateDashboardParams carries dashboard creation input.
type CreateDashboardParams struct {
	Name        string
	Description string
	TimeRange   models.TimeRange
}

// CreateDashboard provisions a dashboard owned by the calling user's org.
func (s *Service) CreateDashboard(ctx context.Context, params CreateDashboardParams) (*models.ExecDashboard, error) {
	orgID := requestcontext.OrgID(ctx)
	if orgID.IsZero() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "not authenticated")
	}

	d, err := models.NewExecDashboard(
		id.DashboardID(uuid.New()), orgID, requestcontext.UserID(ctx),
		params.Name, params.Description, params.TimeRange, requestcontext.Now(ctx),
	)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeBadRequest, dErrors.MessageOf(err))
		}
		return nil, err
	}

	if err := s.dashboards.Create(ctx, d); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create dashboard")
	}

	s.emit(ctx, audit.Event{Action: audit.ActionDashboardCreated, Subject: d.ID.String()})
	s.metrics.IncrementDashboardsCreated()
	return d, nil
}

// ListDashboards returns the org's dashboards, newest first.
func (s *Service) ListDashboards(ctx context.Context) ([]*models.ExecDashboard, error) {
	orgID := requestcontext.OrgID(ctx)
	if orgID.IsZero() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "not authenticated")
	}
	out, err := s.dashboards.ListByOrg(ctx, orgID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list dashboards")
	}
	return out, nil
}

// GetDashboard fetches one dashboard. Dashboards outside the caller's org
// report not found.
func (s *Service) GetDashboard(ctx context.Context, dashboardID id.DashboardID) (*models.ExecDashboard, error) {
	orgID := requestcontext.OrgID(ctx)
	d, err := s.dashboards.FindByID(ctx, orgID, dashboardID)
	if err != nil {
		return nil, wrapDashboardErr(err)
	}
	return d, nil
}

// UpdateDashboardParams carries the mutable dashboard fields. Nil pointers
// leave the current value in place.
type UpdateDashboardParams struct {
	Name        *string
	Description *string
	TimeRange   *models.TimeRange
}

// UpdateDashboard edits an active dashboard.
func (s *Service) UpdateDashboard(ctx context.Context, dashboardID id.DashboardID, params UpdateDashboardParams) (*models.ExecDashboard, error) {
	orgID := requestcontext.OrgID(ctx)
	now := requestcontext.Now(ctx)

	d, err := s.dashboards.Execute(ctx, orgID, dashboardID,
		func(d *models.ExecDashboard) error {
			if err := d.CanUpdate(); err != nil {
				return dErrors.New(dErrors.CodeConflict, "archived dashboards cannot be edited")
			}
			name := d.Name
			if params.Name != nil {
				name = strings.TrimSpace(*params.Name)
			}
			if name == "" {
				return dErrors.New(dErrors.CodeBadRequest, "dashboard name is required")
			}
			if params.TimeRange != nil && !params.TimeRange.Valid() {
				return dErrors.New(dErrors.CodeBadRequest, "time range must be one of 7d, 30d, 90d")
			}
			return nil
		},
		func(d *models.ExecDashboard) {
			name, description, timeRange := d.Name, d.Description, d.TimeRange
			if params.Name != nil {
				name = strings.TrimSpace(*params.Name)
			}
			if params.Description != nil {
				description = strings.TrimSpace(*params.Description)
			}
			if params.TimeRange != nil {
				timeRange = *params.TimeRange
			}
			d.ApplyUpdate(name, description, timeRange, now)
		},
	)
	if err != nil {
		return nil, wrapDashboardErr(err)
	}

	s.emit(ctx, audit.Event{Action: audit.ActionDashboardUpdated, Subject: d.ID.String()})
	return d, nil
}

// ArchiveDashboard retires a dashboard without deleting its history.
func (s *Service) ArchiveDashboard(ctx context.Context, dashboardID id.DashboardID) (*models.ExecDashboard, error) {
	orgID := requestcontext.OrgID(ctx)
	now := requestcontext.Now(ctx)

	d, err := s.dashboards.Execute(ctx, orgID, dashboardID,
		func(d *models.ExecDashboard) error {
			if err := d.CanArchive(); err != nil {
				return dErrors.New(dErrors.CodeConflict, "dashboard is already archived")
			}
			return nil
		},
		func(d *models.ExecDashboard) {
			d.ApplyArchive(now)
		},
	)
	if err != nil {
		return nil, wrapDashboardErr(err)
	}

	s.emit(ctx, audit.Event{Action: audit.ActionDashboardArchived, Subject: d.ID.String()})
	s.metrics.IncrementDashboardsArchived()
	return d, nil
}

// CreateInsightParams carries insight creation input.
type CreateInsightParams struct {
	Title    string
	Body     string
	Severity models.Severity
	Source   string
}

// CreateInsight attaches an insight to an active dashboard.
func (s *Service) CreateInsight(ctx context.Context, dashboardID id.DashboardID, params CreateInsightParams) (*models.Insight, error) {
	orgID := requestcontext.OrgID(ctx)

	d, err := s.dashboards.FindByID(ctx, orgID, dashboardID)
	if err != nil {
		return nil, wrapDashboardErr(err)
	}
	if !d.IsActive() {
		return nil, dErrors.New(dErrors.CodeConflict, "archived dashboards cannot accept insights")
	}

	i, err := models.NewInsight(
		id.InsightID(uuid.New()), d.ID, orgID,
		params.Title, params.Body, params.Source, params.Severity, requestcontext.Now(ctx),
	)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeBadRequest, dErrors.MessageOf(err))
		}
		return nil, err
	}

	if err := s.insights.Create(ctx, i); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create insight")
	}

	s.emit(ctx, audit.Event{Action: audit.ActionInsightCreated, Subject: i.ID.String(), Metadata: map[string]string{"severity": string(i.Severity)}})
	s.metrics.IncrementInsightsCreated(string(i.Severity))
	return i, nil
}

// ListInsights returns the dashboard's insights, optionally filtered by status.
func (s *Service) ListInsights(ctx context.Context, dashboardID id.DashboardID, status models.InsightStatus) ([]*models.Insight, error) {
	orgID := requestcontext.OrgID(ctx)

	if _, err := s.dashboards.FindByID(ctx, orgID, dashboardID); err != nil {
		return nil, wrapDashboardErr(err)
	}
	out, err := s.insights.ListByDashboard(ctx, orgID, dashboardID, status)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list insights")
	}
	return out, nil
}

// AcknowledgeInsight marks an open insight as acknowledged. The insight must
// belong to the given dashboard; one reached through another dashboard's URL
// reports not found.
func (s *Service) AcknowledgeInsight(ctx context.Context, dashboardID id.DashboardID, insightID id.InsightID) (*models.Insight, error) {
	orgID := requestcontext.OrgID(ctx)

	i, err := s.insights.Execute(ctx, orgID, insightID,
		func(i *models.Insight) error {
			if i.DashboardID != dashboardID {
				return dErrors.New(dErrors.CodeNotFound, "insight not found")
			}
			if err := i.CanAcknowledge(); err != nil {
				return dErrors.Newf(dErrors.CodeConflict, "insight is %s", i.Status)
			}
			return nil
		},
		func(i *models.Insight) {
			i.ApplyAcknowledge()
		},
	)
	if err != nil {
		return nil, wrapInsightErr(err)
	}

	s.emit(ctx, audit.Event{Action: audit.ActionInsightAcknowledged, Subject: i.ID.String()})
	return i, nil
}

// DismissInsight closes an insight. Gated by the insight_dismissal flag.
func (s *Service) DismissInsight(ctx context.Context, dashboardID id.DashboardID, insightID id.InsightID) (*models.Insight, error) {
	if !s.flags.Enabled(featureflag.InsightDismissal) {
		return nil, dErrors.New(dErrors.CodeForbidden, "insight dismissal is disabled")
	}
	orgID := requestcontext.OrgID(ctx)

	i, err := s.insights.Execute(ctx, orgID, insightID,
		func(i *models.Insight) error {
			if i.DashboardID != dashboardID {
				return dErrors.New(dErrors.CodeNotFound, "insight not found")
			}
			if err := i.CanDismiss(); err != nil {
				return dErrors.New(dErrors.CodeConflict, "insight is already dismissed")
			}
			return nil
		},
		func(i *models.Insight) {
			i.ApplyDismiss()
		},
	)
	if err != nil {
		return nil, wrapInsightErr(err)
	}

	s.emit(ctx, audit.Event{Action: audit.ActionInsightDismissed, Subject: i.ID.String()})
	return i, nil
}

// IngestKPIParams carries a KPI reading.
type IngestKPIParams struct {
	Metric     string
	Value      float64
	Unit       string
	CapturedAt time.Time
}

// IngestKPI records a snapshot. When the kpi_deltas flag is on, the delta
// against the previous reading of the same metric is computed at ingest so
// reads stay cheap.
func (s *Service) IngestKPI(ctx context.Context, dashboardID id.DashboardID, params IngestKPIParams) (*models.KPISnapshot, error) {
	orgID := requestcontext.OrgID(ctx)

	d, err := s.dashboards.FindByID(ctx, orgID, dashboardID)
	if err != nil {
		return nil, wrapDashboardErr(err)
	}
	if !d.IsActive() {
		return nil, dErrors.New(dErrors.CodeConflict, "archived dashboards cannot accept kpi snapshots")
	}

	capturedAt := params.CapturedAt
	if capturedAt.IsZero() {
		capturedAt = requestcontext.Now(ctx)
	}
	k, err := models.NewKPISnapshot(
		id.KPISnapshotID(uuid.New()), d.ID, orgID,
		params.Metric, params.Unit, params.Value, capturedAt,
	)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeBadRequest, dErrors.MessageOf(err))
		}
		return nil, err
	}

	if s.flags.Enabled(featureflag.KPIDeltas) {
		prev, err := s.kpis.LatestByMetric(ctx, orgID, d.ID, k.Metric)
		switch {
		case err == nil:
			k.Delta = k.Value - prev.Value
		case errors.Is(err, sentinel.ErrNotFound):
			// first reading, delta stays zero
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to compute kpi delta")
		}
	}

	if err := s.kpis.Create(ctx, k); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to ingest kpi snapshot")
	}

	s.emit(ctx, audit.Event{Action: audit.ActionKPIIngested, Subject: k.ID.String(), Metadata: map[string]string{"metric": k.Metric}})
	s.metrics.IncrementKPIsIngested()
	return k, nil
}

const defaultKPIListLimit = 100

// ListKPIs returns the dashboard's snapshots, newest first.
func (s *Service) ListKPIs(ctx context.Context, dashboardID id.DashboardID, limit int) ([]*models.KPISnapshot, error) {
	orgID := requestcontext.OrgID(ctx)

	if _, err := s.dashboards.FindByID(ctx, orgID, dashboardID); err != nil {
		return nil, wrapDashboardErr(err)
	}
	if limit <= 0 {
		limit = defaultKPIListLimit
	}
	out, err := s.kpis.ListByDashboard(ctx, orgID, dashboardID, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list kpi snapshots")
	}
	return out, nil
}

// LatestKPIs returns the most recent snapshot of each metric.
func (s *Service) LatestKPIs(ctx context.Context, dashboardID id.DashboardID) ([]*models.KPISnapshot, error) {
	orgID := requestcontext.OrgID(ctx)

	if _, err := s.dashboards.FindByID(ctx, orgID, dashboardID); err != nil {
		return nil, wrapDashboardErr(err)
	}
	out, err := s.kpis.LatestPerMetric(ctx, orgID, dashboardID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list latest kpi snapshots")
	}
	return out, nil
}

// GenerateNarrative asks the LLM to summarize the dashboard's open insights
// and latest KPIs, then persists the result. Gated by the exec_narratives
// flag.
func (s *Service) GenerateNarrative(ctx context.Context, dashboardID id.DashboardID, tone models.Tone) (*models.Narrative, error) {
	if !s.flags.Enabled(featureflag.ExecNarratives) {
		return nil, dErrors.New(dErrors.CodeForbidden, "narrative generation is disabled")
	}
	if tone == "" {
		tone = models.ToneExecutive
	}
	if !tone.Valid() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "tone must be one of executive, analyst, casual")
	}

	orgID := requestcontext.OrgID(ctx)
	d, err := s.dashboards.FindByID(ctx, orgID, dashboardID)
	if err != nil {
		return nil, wrapDashboardErr(err)
	}
	if !d.IsActive() {
		return nil, dErrors.New(dErrors.CodeConflict, "archived dashboards cannot generate narratives")
	}

	openInsights, err := s.insights.ListByDashboard(ctx, orgID, d.ID, models.InsightOpen)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load insights")
	}
	latestKPIs, err := s.kpis.LatestPerMetric(ctx, orgID, d.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load kpi snapshots")
	}

	prompt := llm.Prompt{
		DashboardName: d.Name,
		TimeRange:     string(d.TimeRange),
		Tone:          string(tone),
	}
	for _, i := range openInsights {
		prompt.Insights = append(prompt.Insights, llm.InsightSummary{Title: i.Title, Severity: string(i.Severity)})
	}
	for _, k := range latestKPIs {
		prompt.KPIs = append(prompt.KPIs, llm.KPISummary{Metric: k.Metric, Value: k.Value, Unit: k.Unit, Delta: k.Delta})
	}

	start := time.Now()
	spanCtx, span := s.tracer.Start(ctx, "narrative.generate",
		trace.WithAttributes(
			attribute.String("dashboard.id", d.ID.String()),
			attribute.Int("prompt.insights", len(prompt.Insights)),
			attribute.Int("prompt.kpis", len(prompt.KPIs)),
		),
	)
	result, err := s.generator.Generate(spanCtx, prompt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		span.End()
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "narrative generation is temporarily unavailable")
	}
	span.SetAttributes(attribute.String("llm.model", result.Model))
	span.End()

	n := &models.Narrative{
		ID:          id.NarrativeID(uuid.New()),
		DashboardID: d.ID,
		OrgID:       orgID,
		Headline:    result.Headline,
		Body:        result.Body,
		Model:       result.Model,
		Tone:        tone,
		GeneratedAt: requestcontext.Now(ctx),
	}
	if err := s.narratives.Create(ctx, n); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist narrative")
	}

	s.emit(ctx, audit.Event{Action: audit.ActionNarrativeGenerated, Subject: n.ID.String(), Metadata: map[string]string{"model": n.Model}})
	s.metrics.ObserveNarrativeGenerated(time.Since(start))
	return n, nil
}

const defaultNarrativeListLimit = 20

// ListNarratives returns the dashboard's narratives, newest first.
func (s *Service) ListNarratives(ctx context.Context, dashboardID id.DashboardID, limit int) ([]*models.Narrative, error) {
	orgID := requestcontext.OrgID(ctx)

	if _, err := s.dashboards.FindByID(ctx, orgID, dashboardID); err != nil {
		return nil, wrapDashboardErr(err)
	}
	if limit <= 0 {
		limit = defaultNarrativeListLimit
	}
	out, err := s.narratives.ListByDashboard(ctx, orgID, dashboardID, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list narratives")
	}
	return out, nil
}

// GetNarrative fetches one narrative.
func (s *Service) GetNarrative(ctx context.Context, narrativeID id.NarrativeID) (*models.Narrative, error) {
	orgID := requestcontext.OrgID(ctx)

	n, err := s.narratives.FindByID(ctx, orgID, narrativeID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "narrative not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "narrative store failure")
	}
	return n, nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditor != nil {
		s.auditor.Emit(ctx, event)
	}
}

func wrapDashboardErr(err error) error {
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "dashboard not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "dashboard store failure")
}

func wrapInsightErr(err error) error {
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "insight not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "insight store failure")
}
