// Package domain holds typed identifiers shared across modules.
//
// Every entity ID is a distinct type over uuid.UUID so the compiler rejects
// cross-entity assignment (passing an OrgID where a UserID is expected is a
// compile error, not a runtime bug).
package domain

import (
	"github.com/google/uuid"

	dErrors "github.com/cryptocrystian/pravado-v2-sub011/pkg/domain-errors"
)

type (
	// OrgID identifies an organization, the tenancy boundary for all records.
	OrgID uuid.UUID

	// UserID identifies a user within an organization.
	UserID uuid.UUID

	// SessionID identifies an authenticated session.
	SessionID uuid.UUID

	// DashboardID identifies an executive dashboard.
	DashboardID uuid.UUID

	// InsightID identifies an insight row attached to a dashboard.
	InsightID uuid.UUID

	// KPISnapshotID identifies a KPI snapshot row attached to a dashboard.
	KPISnapshotID uuid.UUID

	// NarrativeID identifies a generated narrative attached to a dashboard.
	NarrativeID uuid.UUID

	// AuditEventID identifies an audit log row.
	AuditEventID uuid.UUID
)

func (id OrgID) String() string         { return uuid.UUID(id).String() }
func (id UserID) String() string        { return uuid.UUID(id).String() }
func (id SessionID) String() string     { return uuid.UUID(id).String() }
func (id DashboardID) String() string   { return uuid.UUID(id).String() }
func (id InsightID) String() string     { return uuid.UUID(id).String() }
func (id KPISnapshotID) String() string { return uuid.UUID(id).String() }
func (id NarrativeID) String() string   { return uuid.UUID(id).String() }
func (id AuditEventID) String() string  { return uuid.UUID(id).String() }

func (id OrgID) IsZero() bool         { return uuid.UUID(id) == uuid.Nil }
func (id UserID) IsZero() bool        { return uuid.UUID(id) == uuid.Nil }
func (id SessionID) IsZero() bool     { return uuid.UUID(id) == uuid.Nil }
func (id DashboardID) IsZero() bool   { return uuid.UUID(id) == uuid.Nil }
func (id InsightID) IsZero() bool     { return uuid.UUID(id) == uuid.Nil }
func (id KPISnapshotID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }
func (id NarrativeID) IsZero() bool   { return uuid.UUID(id) == uuid.Nil }
func (id AuditEventID) IsZero() bool  { return uuid.UUID(id) == uuid.Nil }

// MarshalText implementations keep JSON encoding as the canonical UUID string.

func (id OrgID) MarshalText() ([]byte, error)         { return []byte(id.String()), nil }
func (id UserID) MarshalText() ([]byte, error)        { return []byte(id.String()), nil }
func (id SessionID) MarshalText() ([]byte, error)     { return []byte(id.String()), nil }
func (id DashboardID) MarshalText() ([]byte, error)   { return []byte(id.String()), nil }
func (id InsightID) MarshalText() ([]byte, error)     { return []byte(id.String()), nil }
func (id KPISnapshotID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id NarrativeID) MarshalText() ([]byte, error)   { return []byte(id.String()), nil }
func (id AuditEventID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }

func (id *OrgID) UnmarshalText(b []byte) error {
	parsed, err := ParseOrgID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *UserID) UnmarshalText(b []byte) error {
	parsed, err := ParseUserID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *SessionID) UnmarshalText(b []byte) error {
	parsed, err := ParseSessionID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *DashboardID) UnmarshalText(b []byte) error {
	parsed, err := ParseDashboardID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *InsightID) UnmarshalText(b []byte) error {
	parsed, err := ParseInsightID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *KPISnapshotID) UnmarshalText(b []byte) error {
	parsed, err := ParseKPISnapshotID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *NarrativeID) UnmarshalText(b []byte) error {
	parsed, err := ParseNarrativeID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// parseUUID enforces the trust-boundary invariant: IDs arriving from the
// outside must be valid, non-nil UUIDs.
func parseUUID(raw, kind string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeBadRequest, kind+" id is required")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeBadRequest, "invalid "+kind+" id")
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeBadRequest, kind+" id cannot be nil")
	}
	return parsed, nil
}

func ParseOrgID(raw string) (OrgID, error) {
	u, err := parseUUID(raw, "org")
	return OrgID(u), err
}

func ParseUserID(raw string) (UserID, error) {
	u, err := parseUUID(raw, "user")
	return UserID(u), err
}

func ParseSessionID(raw string) (SessionID, error) {
	u, err := parseUUID(raw, "session")
	return SessionID(u), err
}

func ParseDashboardID(raw string) (DashboardID, error) {
	u, err := parseUUID(raw, "dashboard")
	return DashboardID(u), err
}

func ParseInsightID(raw string) (InsightID, error) {
	u, err := parseUUID(raw, "insight")
	return InsightID(u), err
}

func ParseKPISnapshotID(raw string) (KPISnapshotID, error) {
	u, err := parseUUID(raw, "kpi snapshot")
	return KPISnapshotID(u), err
}

func ParseNarrativeID(raw string) (NarrativeID, error) {
	u, err := parseUUID(raw, "narrative")
	return NarrativeID(u), err
}
