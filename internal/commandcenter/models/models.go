// Package models defines the executive command-center aggregates.
package models

import (
	"fmt"
	"strings"
	"time"

	id "github.com/cryptocrystian/pravado-v2-sub011/pkg/domain"
	dErrors "github.com/cryptocrystian/pravado-v2-sub011/pkg/domain-errors"
)

// TimeRange is the reporting window a dashboard covers.
type TimeRange string

const (
	TimeRange7d  TimeRange = "7d"
	TimeRange30d TimeRange = "30d"
	TimeRange90d TimeRange = "90d"
)

func (t TimeRange) Valid() bool {
	switch t {
	case TimeRange7d, TimeRange30d, TimeRange90d:
		return true
	}
	return false
}

// DashboardStatus is a dashboard's lifecycle state. Dashboards are archived,
// never hard-deleted, so their insights and KPI history survive.
type DashboardStatus string

const (
	DashboardActive   DashboardStatus = "active"
	DashboardArchived DashboardStatus = "archived"
)

const (
	maxNameLength        = 128
	maxDescriptionLength = 1024
)

// ExecDashboard is an org-scoped executive dashboard.
type ExecDashboard struct {
	ID          id.DashboardID  `json:"id"`
	OrgID       id.OrgID        `json:"org_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	TimeRange   TimeRange       `json:"time_range"`
	Status      DashboardStatus `json:"status"`
	CreatedBy   id.UserID       `json:"created_by"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// NewExecDashboard validates and constructs an active dashboard.
func NewExecDashboard(dashboardID id.DashboardID, orgID id.OrgID, createdBy id.UserID, name, description string, timeRange TimeRange, now time.Time) (*ExecDashboard, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "dashboard name is required")
	}
	if len(name) > maxNameLength {
		return nil, dErrors.Newf(dErrors.CodeInvariantViolation, "dashboard name must be at most %d characters", maxNameLength)
	}
	if len(description) > maxDescriptionLength {
		return nil, dErrors.Newf(dErrors.CodeInvariantViolation, "dashboard description must be at most %d characters", maxDescriptionLength)
	}
	if timeRange == "" {
		timeRange = TimeRange30d
	}
	if !timeRange.Valid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "time range must be one of 7d, 30d, 90d")
	}
	return &ExecDashboard{
		ID:          dashboardID,
		OrgID:       orgID,
		Name:        name,
		Description: strings.TrimSpace(description),
		TimeRange:   timeRange,
		Status:      DashboardActive,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (d *ExecDashboard) IsActive() bool {
	return d.Status == DashboardActive
}

// CanUpdate rejects edits to archived dashboards.
func (d *ExecDashboard) CanUpdate() error {
	if d.Status != DashboardActive {
		return fmt.Errorf("dashboard is %s", d.Status)
	}
	return nil
}

// ApplyUpdate overwrites the mutable fields. Empty name and zero time range
// are rejected by the service before this is called.
func (d *ExecDashboard) ApplyUpdate(name, description string, timeRange TimeRange, now time.Time) {
	d.Name = name
	d.Description = description
	d.TimeRange = timeRange
	d.UpdatedAt = now
}

func (d *ExecDashboard) CanArchive() error {
	if d.Status == DashboardArchived {
		return fmt.Errorf("dashboard is already archived")
	}
	return nil
}

func (d *ExecDashboard) ApplyArchive(now time.Time) {
	d.Status = DashboardArchived
	d.UpdatedAt = now
}

// Severity ranks how urgent an insight is.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityInfo, SeverityWarning, SeverityCritical:
		return true
	}
	return false
}

// InsightStatus tracks an insight's triage state.
type InsightStatus string

const (
	InsightOpen         InsightStatus = "open"
	InsightAcknowledged InsightStatus = "acknowledged"
	InsightDismissed    InsightStatus = "dismissed"
)

// Insight is a single finding surfaced on a dashboard.
type Insight struct {
	ID          id.InsightID   `json:"id"`
	DashboardID id.DashboardID `json:"dashboard_id"`
	OrgID       id.OrgID       `json:"org_id"`
	Title       string         `json:"title"`
	Body        string         `json:"body"`
	Severity    Severity       `json:"severity"`
	Source      string         `json:"source"`
	Status      InsightStatus  `json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
}

// NewInsight validates and constructs an open insight.
func NewInsight(insightID id.InsightID, dashboardID id.DashboardID, orgID id.OrgID, title, body, source string, severity Severity, now time.Time) (*Insight, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "insight title is required")
	}
	if severity == "" {
		severity = SeverityInfo
	}
	if !severity.Valid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "severity must be one of info, warning, critical")
	}
	return &Insight{
		ID:          insightID,
		DashboardID: dashboardID,
		OrgID:       orgID,
		Title:       title,
		Body:        strings.TrimSpace(body),
		Severity:    severity,
		Source:      strings.TrimSpace(source),
		Status:      InsightOpen,
		CreatedAt:   now,
	}, nil
}

// CanAcknowledge allows open insights only; acknowledging twice or reviving a
// dismissed insight is a conflict.
func (i *Insight) CanAcknowledge() error {
	if i.Status != InsightOpen {
		return fmt.Errorf("insight is %s", i.Status)
	}
	return nil
}

func (i *Insight) ApplyAcknowledge() {
	i.Status = InsightAcknowledged
}

// CanDismiss allows open or acknowledged insights.
func (i *Insight) CanDismiss() error {
	if i.Status == InsightDismissed {
		return fmt.Errorf("insight is already dismissed")
	}
	return nil
}

func (i *Insight) ApplyDismiss() {
	i.Status = InsightDismissed
}

// KPISnapshot is a point-in-time metric reading for a dashboard. Delta is the
// change against the previous snapshot of the same metric.
type KPISnapshot struct {
	ID          id.KPISnapshotID `json:"id"`
	DashboardID id.DashboardID   `json:"dashboard_id"`
	OrgID       id.OrgID         `json:"org_id"`
	Metric      string           `json:"metric"`
	Value       float64          `json:"value"`
	Unit        string           `json:"unit"`
	Delta       float64          `json:"delta"`
	CapturedAt  time.Time        `json:"captured_at"`
}

// NewKPISnapshot validates and constructs a snapshot. Delta is computed by
// the service once the previous reading is known.
func NewKPISnapshot(snapshotID id.KPISnapshotID, dashboardID id.DashboardID, orgID id.OrgID, metric, unit string, value float64, capturedAt time.Time) (*KPISnapshot, error) {
	metric = strings.ToLower(strings.TrimSpace(metric))
	if metric == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "kpi metric is required")
	}
	return &KPISnapshot{
		ID:          snapshotID,
		DashboardID: dashboardID,
		OrgID:       orgID,
		Metric:      metric,
		Value:       value,
		Unit:        strings.TrimSpace(unit),
		CapturedAt:  capturedAt,
	}, nil
}

// Tone selects the voice a narrative is written in.
type Tone string

const (
	ToneExecutive Tone = "executive"
	ToneAnalyst   Tone = "analyst"
	ToneCasual    Tone = "casual"
)

func (t Tone) Valid() bool {
	switch t {
	case ToneExecutive, ToneAnalyst, ToneCasual:
		return true
	}
	return false
}

// Narrative is LLM-generated prose summarizing a dashboard's current state.
type Narrative struct {
	ID          id.NarrativeID `json:"id"`
	DashboardID id.DashboardID `json:"dashboard_id"`
	OrgID       id.OrgID       `json:"org_id"`
	Headline    string         `json:"headline"`
	Body        string         `json:"body"`
	Model       string         `json:"model"`
	Tone        Tone           `json:"tone"`
	GeneratedAt time.Time      `json:"generated_at"`
}
