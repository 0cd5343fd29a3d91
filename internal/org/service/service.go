// Package service orchestrates organization lifecycle management.
package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/cryptocrystian/pravado-v2-sub011/internal/audit"
	orgmetrics "github.com/cryptocrystian/pravado-v2-sub011/internal/org/metrics"
	"github.com/cryptocrystian/pravado-v2-sub011/internal/org/models"
	"github.com/cryptocrystian/pravado-v2-sub011/internal/org/store"
	id "github.com/cryptocrystian/pravado-v2-sub011/pkg/domain"
	dErrors "github.com/cryptocrystian/pravado-v2-sub011/pkg/domain-errors"
	"github.com/cryptocrystian/pravado-v2-sub011/pkg/platform/sentinel"
	"github.com/cryptocrystian/pravado-v2-sub011/pkg/requestcontext"
)

// AuditEmitter decouples the service from the audit publisher so tests can
// pass nil or a recorder.
type AuditEmitter interface {
	Emit(ctx context.Context, event audit.Event)
}

// Service orchestrates organization lifecycle operations.
type Service struct {
	orgs    store.OrgStore
	auditor AuditEmitter
	metrics *orgmetrics.Metrics
}

type Option func(*Service)

func WithAuditor(a AuditEmitter) Option {
	return func(s *Service) { s.auditor = a }
}

func WithMetrics(m *orgmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(orgs store.OrgStore, opts ...Option) *Service {
	s := &Service{orgs: orgs}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateOrganization provisions a new organization on the given plan.
func (s *Service) CreateOrganization(ctx context.Context, name, slug string, plan models.Plan) (*models.Organization, error) {
	name = strings.TrimSpace(name)
	slug = strings.ToLower(strings.TrimSpace(slug))

	org, err := models.NewOrganization(id.OrgID(uuid.New()), name, slug, plan, requestcontext.Now(ctx))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeBadRequest, dErrors.MessageOf(err))
		}
		return nil, err
	}

	if err := s.orgs.CreateIfAvailable(ctx, org); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "organization name and slug must be unique")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create organization")
	}

	s.emit(ctx, audit.Event{OrgID: org.ID, Action: audit.ActionOrgCreated, Subject: org.Slug})
	if s.metrics != nil {
		s.metrics.IncrementOrgsCreated()
	}
	return org, nil
}

// GetOrganization fetches an organization by ID.
func (s *Service) GetOrganization(ctx context.Context, orgID id.OrgID) (*models.Organization, error) {
	if orgID.IsZero() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "org id is required")
	}
	org, err := s.orgs.FindByID(ctx, orgID)
	if err != nil {
		return nil, wrapOrgErr(err)
	}
	return org, nil
}

// GetOrganizationBySlug fetches an organization by slug (case-insensitive).
func (s *Service) GetOrganizationBySlug(ctx context.Context, slug string) (*models.Organization, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "organization slug is required")
	}
	org, err := s.orgs.FindBySlug(ctx, slug)
	if err != nil {
		return nil, wrapOrgErr(err)
	}
	return org, nil
}

// SuspendOrganization transitions an organization to suspended status.
//
// Uses the Execute callback pattern so the store holds the lock (mutex or
// FOR UPDATE) across validation and mutation.
func (s *Service) SuspendOrganization(ctx context.Context, orgID id.OrgID) (*models.Organization, error) {
	if orgID.IsZero() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "org id is required")
	}

	now := requestcontext.Now(ctx)
	org, err := s.orgs.Execute(ctx, orgID,
		func(o *models.Organization) error {
			if err := o.CanSuspend(); err != nil {
				return dErrors.New(dErrors.CodeConflict, "organization is already suspended")
			}
			return nil
		},
		func(o *models.Organization) {
			o.ApplySuspension(now)
		},
	)
	if err != nil {
		return nil, wrapOrgErr(err)
	}

	s.emit(ctx, audit.Event{OrgID: org.ID, Action: audit.ActionOrgSuspended, Subject: org.Slug})
	if s.metrics != nil {
		s.metrics.IncrementOrgsSuspended()
	}
	return org, nil
}

// ReactivateOrganization transitions an organization back to active status.
func (s *Service) ReactivateOrganization(ctx context.Context, orgID id.OrgID) (*models.Organization, error) {
	if orgID.IsZero() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "org id is required")
	}

	now := requestcontext.Now(ctx)
	org, err := s.orgs.Execute(ctx, orgID,
		func(o *models.Organization) error {
			if err := o.CanReactivate(); err != nil {
				return dErrors.New(dErrors.CodeConflict, "organization is already active")
			}
			return nil
		},
		func(o *models.Organization) {
			o.ApplyReactivation(now)
		},
	)
	if err != nil {
		return nil, wrapOrgErr(err)
	}

	s.emit(ctx, audit.Event{OrgID: org.ID, Action: audit.ActionOrgReactivated, Subject: org.Slug})
	return org, nil
}

// IsOrgActive implements the middleware org gate.
func (s *Service) IsOrgActive(ctx context.Context, orgID id.OrgID) (bool, error) {
	org, err := s.orgs.FindByID(ctx, orgID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return org.IsActive(), nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditor != nil {
		s.auditor.Emit(ctx, event)
	}
}

func wrapOrgErr(err error) error {
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "organization not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "organization store failure")
}
