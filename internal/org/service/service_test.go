package service

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/cryptocrystian/pravado-v2-sub011/internal/audit"
	"github.com/cryptocrystian/pravado-v2-sub011/internal/org/models"
	"github.com/cryptocrystian/pravado-v2-sub011/internal/org/store"
	id "github.com/cryptocrystian/pravado-v2-sub011/pkg/domain"
	dErrors "github.com/cryptocrystian/pravado-v2-sub011/pkg/domain-errors"
)

// auditRecorder captures emitted events for assertions.
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

type OrgServiceSuite struct {
	suite.Suite
	service *Service
	auditor *auditRecorder
}

func (s *OrgServiceSuite) SetupTest() {
	s.auditor = &auditRecorder{}
	s.service = New(store.NewInMemory(), WithAuditor(s.auditor))
}

func TestOrgServiceSuite(t *testing.T) {
	suite.Run(t, new(OrgServiceSuite))
}

func (s *OrgServiceSuite) TestCreateOrganization() {
	ctx := context.Background()

	s.Run("creates active org on default plan", func() {
		org, err := s.service.CreateOrganization(ctx, "Acme PR", "acme-pr", "")
		s.Require().NoError(err)
		s.Equal(models.OrgStatusActive, org.Status)
		s.Equal(models.PlanStarter, org.Plan)
		s.Contains(s.auditor.actions(), audit.ActionOrgCreated)
	})

	s.Run("normalizes slug case and whitespace", func() {
		org, err := s.service.CreateOrganization(ctx, "  Globex  ", " GLOBEX ", models.PlanGrowth)
		s.Require().NoError(err)
		s.Equal("Globex", org.Name)
		s.Equal("globex", org.Slug)
	})

	s.Run("rejects invalid slug", func() {
		_, err := s.service.CreateOrganization(ctx, "Bad Slug", "Not A Slug!", "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("rejects duplicate name with conflict", func() {
		_, err := s.service.CreateOrganization(ctx, "Initech", "initech", "")
		s.Require().NoError(err)

		_, err = s.service.CreateOrganization(ctx, "initech", "initech-two", "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("rejects unknown plan", func() {
		_, err := s.service.CreateOrganization(ctx, "Plan Test", "plan-test", "platinum")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}

func (s *OrgServiceSuite) TestSuspendAndReactivate() {
	ctx := context.Background()

	org, err := s.service.CreateOrganization(ctx, "Umbrella", "umbrella", "")
	s.Require().NoError(err)

	s.Run("suspends an active org", func() {
		suspended, err := s.service.SuspendOrganization(ctx, org.ID)
		s.Require().NoError(err)
		s.Equal(models.OrgStatusSuspended, suspended.Status)
		s.Contains(s.auditor.actions(), audit.ActionOrgSuspended)
	})

	s.Run("suspending twice is a conflict", func() {
		_, err := s.service.SuspendOrganization(ctx, org.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("suspended org gates requests", func() {
		active, err := s.service.IsOrgActive(ctx, org.ID)
		s.Require().NoError(err)
		s.False(active)
	})

	s.Run("reactivates a suspended org", func() {
		reactivated, err := s.service.ReactivateOrganization(ctx, org.ID)
		s.Require().NoError(err)
		s.Equal(models.OrgStatusActive, reactivated.Status)

		active, err := s.service.IsOrgActive(ctx, org.ID)
		s.Require().NoError(err)
		s.True(active)
	})

	s.Run("reactivating an active org is a conflict", func() {
		_, err := s.service.ReactivateOrganization(ctx, org.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

func (s *OrgServiceSuite) TestLookups() {
	ctx := context.Background()

	s.Run("unknown org returns not found", func() {
		_, err := s.service.GetOrganization(ctx, id.OrgID(uuid.New()))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("zero id is a bad request", func() {
		_, err := s.service.GetOrganization(ctx, id.OrgID{})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("unknown org is inactive for the gate", func() {
		active, err := s.service.IsOrgActive(ctx, id.OrgID(uuid.New()))
		s.Require().NoError(err)
		s.False(active)
	})

	s.Run("finds by slug case-insensitively", func() {
		org, err := s.service.CreateOrganization(ctx, "Slug Lookup", "slug-lookup", "")
		s.Require().NoError(err)

		found, err := s.service.GetOrganizationBySlug(ctx, "SLUG-LOOKUP")
		s.Require().NoError(err)
		s.Equal(org.ID, found.ID)
	})
}
