package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/cryptocrystian/pravado-v2-sub011/internal/audit"
	"github.com/cryptocrystian/pravado-v2-sub011/internal/commandcenter/models"
	"github.com/cryptocrystian/pravado-v2-sub011/internal/commandcenter/store"
	"github.com/cryptocrystian/pravado-v2-sub011/internal/featureflag"
	"github.com/cryptocrystian/pravado-v2-sub011/internal/narrative/llm"
	id "github.com/cryptocrystian/pravado-v2-sub011/pkg/domain"
	dErrors "github.com/cryptocrystian/pravado-v2-sub011/pkg/domain-errors"
	"github.com/cryptocrystian/pravado-v2-sub011/pkg/requestcontext"
)

type auditRecorder struct {
	mu     sync.Mutex
	events []audit.Event
}

func (r *auditRecorder) Emit(_ context.Context, event audit.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *auditRecorder) actions() []audit.Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]audit.Action, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Action)
	}
	return out
}

// failingGenerator simulates an LLM outage.
type failingGenerator struct{}

func (failingGenerator) Generate(context.Context, llm.Prompt) (*llm.Result, error) {
	return nil, errors.New("upstream timeout")
}

type CommandCenterSuite struct {
	suite.Suite
	service *Service
	auditor *auditRecorder
	orgID   id.OrgID
	userID  id.UserID
}

func (s *CommandCenterSuite) SetupTest() {
	s.buildService(featureflag.New(nil), llm.NewStub())
}

func (s *CommandCenterSuite) buildService(flags *featureflag.Flags, generator llm.Generator) {
	s.auditor = &auditRecorder{}
	s.orgID = id.OrgID(uuid.New())
	s.userID = id.UserID(uuid.New())
	s.service = New(
		store.NewInMemoryDashboards(),
		store.NewInMemoryInsights(),
		store.NewInMemoryKPIs(),
		store.NewInMemoryNarratives(),
		generator,
		flags,
		WithAuditor(s.auditor),
	)
}

func TestCommandCenterSuite(t *testing.T) {
	suite.Run(t, new(CommandCenterSuite))
}

func (s *CommandCenterSuite) ctx() context.Context {
	ctx := context.Background()
	ctx = requestcontext.WithOrgID(ctx, s.orgID)
	ctx = requestcontext.WithUserID(ctx, s.userID)
	return ctx
}

func (s *CommandCenterSuite) createDashboard() *models.ExecDashboard {
	d, err := s.service.CreateDashboard(s.ctx(), CreateDashboardParams{
		Name:      "Brand Coverage",
		TimeRange: models.TimeRange30d,
	})
	s.Require().NoError(err)
	return d
}

func (s *CommandCenterSuite) TestDashboardLifecycle() {
	ctx := s.ctx()

	s.Run("create defaults to active with 30d window", func() {
		d, err := s.service.CreateDashboard(ctx, CreateDashboardParams{Name: "Launch Watch"})
		s.Require().NoError(err)
		s.Equal(models.DashboardActive, d.Status)
		s.Equal(models.TimeRange30d, d.TimeRange)
		s.Equal(s.userID, d.CreatedBy)
		s.Contains(s.auditor.actions(), audit.ActionDashboardCreated)
	})

	s.Run("create without name is a bad request", func() {
		_, err := s.service.CreateDashboard(ctx, CreateDashboardParams{Name: "  "})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("create with bogus time range is a bad request", func() {
		_, err := s.service.CreateDashboard(ctx, CreateDashboardParams{Name: "Bad Range", TimeRange: "14d"})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("update edits name and window", func() {
		d := s.createDashboard()
		name := "Renamed"
		timeRange := models.TimeRange90d
		updated, err := s.service.UpdateDashboard(ctx, d.ID, UpdateDashboardParams{Name: &name, TimeRange: &timeRange})
		s.Require().NoError(err)
		s.Equal("Renamed", updated.Name)
		s.Equal(models.TimeRange90d, updated.TimeRange)
	})

	s.Run("archive then edit is a conflict", func() {
		d := s.createDashboard()
		archived, err := s.service.ArchiveDashboard(ctx, d.ID)
		s.Require().NoError(err)
		s.Equal(models.DashboardArchived, archived.Status)
		s.Contains(s.auditor.actions(), audit.ActionDashboardArchived)

		name := "Too Late"
		_, err = s.service.UpdateDashboard(ctx, d.ID, UpdateDashboardParams{Name: &name})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))

		_, err = s.service.ArchiveDashboard(ctx, d.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("cross-org access reads as not found", func() {
		d := s.createDashboard()

		foreignCtx := requestcontext.WithOrgID(context.Background(), id.OrgID(uuid.New()))
		foreignCtx = requestcontext.WithUserID(foreignCtx, id.UserID(uuid.New()))
		_, err := s.service.GetDashboard(foreignCtx, d.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *CommandCenterSuite) TestInsightTriage() {
	ctx := s.ctx()
	d := s.createDashboard()

	s.Run("create defaults severity to info and status to open", func() {
		i, err := s.service.CreateInsight(ctx, d.ID, CreateInsightParams{Title: "Coverage spike"})
		s.Require().NoError(err)
		s.Equal(models.SeverityInfo, i.Severity)
		s.Equal(models.InsightOpen, i.Status)
		s.Contains(s.auditor.actions(), audit.ActionInsightCreated)
	})

	s.Run("acknowledge moves open to acknowledged once", func() {
		i, err := s.service.CreateInsight(ctx, d.ID, CreateInsightParams{Title: "Negative trend", Severity: models.SeverityWarning})
		s.Require().NoError(err)

		acked, err := s.service.AcknowledgeInsight(ctx, d.ID, i.ID)
		s.Require().NoError(err)
		s.Equal(models.InsightAcknowledged, acked.Status)

		_, err = s.service.AcknowledgeInsight(ctx, d.ID, i.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("dismiss closes an insight and cannot repeat", func() {
		i, err := s.service.CreateInsight(ctx, d.ID, CreateInsightParams{Title: "Stale story"})
		s.Require().NoError(err)

		dismissed, err := s.service.DismissInsight(ctx, d.ID, i.ID)
		s.Require().NoError(err)
		s.Equal(models.InsightDismissed, dismissed.Status)

		_, err = s.service.DismissInsight(ctx, d.ID, i.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))

		_, err = s.service.AcknowledgeInsight(ctx, d.ID, i.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("archived dashboard rejects new insights", func() {
		archived := s.createDashboard()
		_, err := s.service.ArchiveDashboard(ctx, archived.ID)
		s.Require().NoError(err)

		_, err = s.service.CreateInsight(ctx, archived.ID, CreateInsightParams{Title: "Late arrival"})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("insight cannot be triaged through another dashboard", func() {
		other := s.createDashboard()
		i, err := s.service.CreateInsight(ctx, d.ID, CreateInsightParams{Title: "Wrong door"})
		s.Require().NoError(err)

		_, err = s.service.AcknowledgeInsight(ctx, other.ID, i.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

		_, err = s.service.DismissInsight(ctx, other.ID, i.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

		// Triage through the owning dashboard still works.
		acked, err := s.service.AcknowledgeInsight(ctx, d.ID, i.ID)
		s.Require().NoError(err)
		s.Equal(models.InsightAcknowledged, acked.Status)
	})
}

func (s *CommandCenterSuite) TestDismissalFlagDisabled() {
	flags := featureflag.New(map[string]bool{featureflag.InsightDismissal: false})
	s.buildService(flags, llm.NewStub())
	ctx := s.ctx()
	d := s.createDashboard()

	i, err := s.service.CreateInsight(ctx, d.ID, CreateInsightParams{Title: "Cannot dismiss"})
	s.Require().NoError(err)

	_, err = s.service.DismissInsight(ctx, d.ID, i.ID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}

func (s *CommandCenterSuite) TestKPIDeltas() {
	ctx := s.ctx()
	d := s.createDashboard()

	s.Run("first reading has zero delta", func() {
		k, err := s.service.IngestKPI(ctx, d.ID, IngestKPIParams{Metric: "Share_Of_Voice", Value: 12.5, Unit: "%"})
		s.Require().NoError(err)
		s.Equal("share_of_voice", k.Metric)
		s.Zero(k.Delta)
		s.Contains(s.auditor.actions(), audit.ActionKPIIngested)
	})

	s.Run("second reading carries the delta", func() {
		k, err := s.service.IngestKPI(ctx, d.ID, IngestKPIParams{Metric: "share_of_voice", Value: 15.0, Unit: "%"})
		s.Require().NoError(err)
		s.InDelta(2.5, k.Delta, 0.0001)
	})

	s.Run("metric is required", func() {
		_, err := s.service.IngestKPI(ctx, d.ID, IngestKPIParams{Value: 1})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("latest per metric reflects newest values", func() {
		_, err := s.service.IngestKPI(ctx, d.ID, IngestKPIParams{Metric: "mentions", Value: 240})
		s.Require().NoError(err)

		latest, err := s.service.LatestKPIs(ctx, d.ID)
		s.Require().NoError(err)
		s.Len(latest, 2)
	})
}

func (s *CommandCenterSuite) TestKPIDeltaFlagDisabled() {
	flags := featureflag.New(map[string]bool{featureflag.KPIDeltas: false})
	s.buildService(flags, llm.NewStub())
	ctx := s.ctx()
	d := s.createDashboard()

	_, err := s.service.IngestKPI(ctx, d.ID, IngestKPIParams{Metric: "mentions", Value: 100})
	s.Require().NoError(err)

	k, err := s.service.IngestKPI(ctx, d.ID, IngestKPIParams{Metric: "mentions", Value: 150})
	s.Require().NoError(err)
	s.Zero(k.Delta, "delta computation should be skipped when the flag is off")
}

func (s *CommandCenterSuite) TestNarrativeGeneration() {
	ctx := s.ctx()
	d := s.createDashboard()

	_, err := s.service.CreateInsight(ctx, d.ID, CreateInsightParams{Title: "Competitor launch", Severity: models.SeverityCritical})
	s.Require().NoError(err)
	_, err = s.service.IngestKPI(ctx, d.ID, IngestKPIParams{Metric: "share_of_voice", Value: 18, Unit: "%"})
	s.Require().NoError(err)

	s.Run("generates and persists a narrative from the stub", func() {
		n, err := s.service.GenerateNarrative(ctx, d.ID, "")
		s.Require().NoError(err)
		s.Equal(models.ToneExecutive, n.Tone)
		s.Equal("stub", n.Model)
		s.NotEmpty(n.Headline)
		s.Contains(n.Body, "share_of_voice")
		s.Contains(s.auditor.actions(), audit.ActionNarrativeGenerated)

		listed, err := s.service.ListNarratives(ctx, d.ID, 0)
		s.Require().NoError(err)
		s.Require().Len(listed, 1)

		found, err := s.service.GetNarrative(ctx, listed[0].ID)
		s.Require().NoError(err)
		s.Equal(n.Headline, found.Headline)
	})

	s.Run("invalid tone is a bad request", func() {
		_, err := s.service.GenerateNarrative(ctx, d.ID, "sarcastic")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("archived dashboard refuses generation", func() {
		archived := s.createDashboard()
		_, err := s.service.ArchiveDashboard(ctx, archived.ID)
		s.Require().NoError(err)

		_, err = s.service.GenerateNarrative(ctx, archived.ID, models.ToneExecutive)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

func (s *CommandCenterSuite) TestNarrativeProviderFailure() {
	s.buildService(featureflag.New(nil), failingGenerator{})
	ctx := s.ctx()
	d := s.createDashboard()

	_, err := s.service.GenerateNarrative(ctx, d.ID, models.ToneExecutive)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))

	listed, err := s.service.ListNarratives(ctx, d.ID, 0)
	s.Require().NoError(err)
	s.Empty(listed, "failed generation must not persist a narrative")
}

func (s *CommandCenterSuite) TestNarrativeFlagDisabled() {
	flags := featureflag.New(map[string]bool{featureflag.ExecNarratives: false})
	s.buildService(flags, llm.NewStub())
	ctx := s.ctx()
	d := s.createDashboard()

	_, err := s.service.GenerateNarrative(ctx, d.ID, models.ToneExecutive)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}

func (s *CommandCenterSuite) TestRequestTimeFlowsIntoRecords() {
	fixed := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	ctx := requestcontext.WithTime(s.ctx(), fixed)

	d, err := s.service.CreateDashboard(ctx, CreateDashboardParams{Name: "Clock Check"})
	s.Require().NoError(err)
	s.Equal(fixed, d.CreatedAt)
	s.Equal(fixed, d.UpdatedAt)
}
