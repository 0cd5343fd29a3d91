// Package audit captures append-only, organization-scoped audit events.
package audit

import (
	"time"

	id "github.com/cryptocrystian/pravado-v2-sub011/pkg/domain"
)

// Action names a thing that happened. Keep values stable: they are persisted
// and consumed by downstream pipelines.
type Action string

const (
	ActionOrgCreated     Action = "org_created"
	ActionOrgSuspended   Action = "org_suspended"
	ActionOrgReactivated Action = "org_reactivated"

	ActionUserRegistered Action = "user_registered"
	ActionLoginSucceeded Action = "login_succeeded"
	ActionLoginFailed    Action = "login_failed"
	ActionSessionRevoked Action = "session_revoked"

	ActionDashboardCreated  Action = "dashboard_created"
	ActionDashboardUpdated  Action = "dashboard_updated"
	ActionDashboardArchived Action = "dashboard_archived"

	ActionInsightCreated      Action = "insight_created"
	ActionInsightAcknowledged Action = "insight_acknowledged"
	ActionInsightDismissed    Action = "insight_dismissed"

	ActionKPIIngested        Action = "kpi_ingested"
	ActionNarrativeGenerated Action = "narrative_generated"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID        id.AuditEventID   `json:"id"`
	OrgID     id.OrgID          `json:"org_id"`
	ActorID   id.UserID         `json:"actor_id"`
	Action    Action            `json:"action"`
	Subject   string            `json:"subject"`
	RequestID string            `json:"request_id"`
	IP        string            `json:"ip"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}
