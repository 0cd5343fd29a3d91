package models

import (
	"regexp"
	"time"

	id "github.com/cryptocrystian/pravado-v2-sub011/pkg/domain"
	dErrors "github.com/cryptocrystian/pravado-v2-sub011/pkg/domain-errors"
)

// OrgStatus is the lifecycle state of an organization.
type OrgStatus string

const (
	OrgStatusActive    OrgStatus = "active"
	OrgStatusSuspended OrgStatus = "suspended"
)

// CanTransitionTo allows only active ↔ suspended.
func (s OrgStatus) CanTransitionTo(target OrgStatus) bool {
	switch s {
	case OrgStatusActive:
		return target == OrgStatusSuspended
	case OrgStatusSuspended:
		return target == OrgStatusActive
	default:
		return false
	}
}

// Plan is the billing plan attached to an organization. The API stores it as
// an opaque label; entitlement logic lives in the billing system.
type Plan string

const (
	PlanStarter    Plan = "starter"
	PlanGrowth     Plan = "growth"
	PlanEnterprise Plan = "enterprise"
)

func (p Plan) Valid() bool {
	switch p {
	case PlanStarter, PlanGrowth, PlanEnterprise:
		return true
	}
	return false
}

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// Organization is the aggregate root for a customer organization and the
// tenancy boundary for every other record.
//
// Invariants:
//   - Name is non-empty and at most 128 characters
//   - Slug is lowercase kebab-case, 1..64 characters, unique case-insensitively
//   - Status transitions: active ↔ suspended only
//   - CreatedAt is immutable after construction
//
// # Suspension Invariant
//
// When an organization is suspended, every authenticated request scoped to it
// MUST fail, even though its users, sessions, and dashboards keep their own
// status. This is enforced at the middleware layer (RequireActiveOrg) rather
// than by cascading status changes, so reactivation never touches child rows.
type Organization struct {
	ID        id.OrgID  `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Plan      Plan      `json:"plan"`
	Status    OrgStatus `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (o *Organization) IsActive() bool {
	return o.Status == OrgStatusActive
}

// CanSuspend checks the active → suspended transition.
func (o *Organization) CanSuspend() error {
	if !o.Status.CanTransitionTo(OrgStatusSuspended) {
		return dErrors.New(dErrors.CodeInvariantViolation, "organization is already suspended")
	}
	return nil
}

// ApplySuspension transitions to suspended. Call CanSuspend first.
func (o *Organization) ApplySuspension(now time.Time) {
	o.Status = OrgStatusSuspended
	o.UpdatedAt = now
}

// CanReactivate checks the suspended → active transition.
func (o *Organization) CanReactivate() error {
	if !o.Status.CanTransitionTo(OrgStatusActive) {
		return dErrors.New(dErrors.CodeInvariantViolation, "organization is already active")
	}
	return nil
}

// ApplyReactivation transitions to active. Call CanReactivate first.
func (o *Organization) ApplyReactivation(now time.Time) {
	o.Status = OrgStatusActive
	o.UpdatedAt = now
}

func NewOrganization(orgID id.OrgID, name, slug string, plan Plan, now time.Time) (*Organization, error) {
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "organization name cannot be empty")
	}
	if len(name) > 128 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "organization name must be 128 characters or less")
	}
	if slug == "" || len(slug) > 64 || !slugPattern.MatchString(slug) {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "organization slug must be lowercase kebab-case")
	}
	if plan == "" {
		plan = PlanStarter
	}
	if !plan.Valid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "unknown plan")
	}
	return &Organization{
		ID:        orgID,
		Name:      name,
		Slug:      slug,
		Plan:      plan,
		Status:    OrgStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
