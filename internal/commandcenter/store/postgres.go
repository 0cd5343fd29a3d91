package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/cryptocrystian/pravado-v2-sub011/internal/commandcenter/models"
	id "github.com/cryptocrystian/pravado-v2-sub011/pkg/domain"
	"github.com/cryptocrystian/pravado-v2-sub011/pkg/platform/sentinel"
	"github.com/cryptocrystian/pravado-v2-sub011/pkg/platform/tx"
)

// PostgresDashboards persists dashboards in PostgreSQL.
type PostgresDashboards struct {
	db *sql.DB
}

func NewPostgresDashboards(db *sql.DB) *PostgresDashboards {
	return &PostgresDashboards{db: db}
}

const dashboardColumns = `id, org_id, name, description, time_range, status, created_by, created_at, updated_at`

func (s *PostgresDashboards) Create(ctx context.Context, d *models.ExecDashboard) error {
	query := `
		INSERT INTO exec_dashboards (` + dashboardColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := tx.QuerierFrom(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(d.ID), uuid.UUID(d.OrgID), d.Name, d.Description, string(d.TimeRange),
		string(d.Status), uuid.UUID(d.CreatedBy), d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create dashboard: %w", err)
	}
	return nil
}

func (s *PostgresDashboards) FindByID(ctx context.Context, orgID id.OrgID, dashboardID id.DashboardID) (*models.ExecDashboard, error) {
	query := `
		SELECT ` + dashboardColumns + `
		FROM exec_dashboards
		WHERE org_id = $1 AND id = $2
	`
	d, err := scanDashboard(tx.QuerierFrom(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(orgID), uuid.UUID(dashboardID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find dashboard: %w", err)
	}
	return d, nil
}

func (s *PostgresDashboards) ListByOrg(ctx context.Context, orgID id.OrgID) ([]*models.ExecDashboard, error) {
	query := `
		SELECT ` + dashboardColumns + `
		FROM exec_dashboards
		WHERE org_id = $1
		ORDER BY created_at DESC
	`
	rows, err := tx.QuerierFrom(ctx, s.db).QueryContext(ctx, query, uuid.UUID(orgID))
	if err != nil {
		return nil, fmt.Errorf("list dashboards: %w", err)
	}
	defer rows.Close()

	out := make([]*models.ExecDashboard, 0)
	for rows.Next() {
		d, err := scanDashboard(rows)
		if err != nil {
			return nil, fmt.Errorf("scan dashboard: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Execute loads the row FOR UPDATE, runs validate, applies mutate, and writes
// back, all within one transaction.
func (s *PostgresDashboards) Execute(ctx context.Context, orgID id.OrgID, dashboardID id.DashboardID, validate func(*models.ExecDashboard) error, mutate func(*models.ExecDashboard)) (*models.ExecDashboard, error) {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin execute: %w", err)
	}
	defer func() {
		_ = sqlTx.Rollback()
	}()

	query := `
		SELECT ` + dashboardColumns + `
		FROM exec_dashboards
		WHERE org_id = $1 AND id = $2
		FOR UPDATE
	`
	d, err := scanDashboard(sqlTx.QueryRowContext(ctx, query, uuid.UUID(orgID), uuid.UUID(dashboardID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("lock dashboard: %w", err)
	}

	if err := validate(d); err != nil {
		return nil, err
	}
	mutate(d)

	update := `
		UPDATE exec_dashboards
		SET name = $3, description = $4, time_range = $5, status = $6, updated_at = $7
		WHERE org_id = $1 AND id = $2
	`
	if _, err := sqlTx.ExecContext(ctx, update,
		uuid.UUID(d.OrgID), uuid.UUID(d.ID), d.Name, d.Description, string(d.TimeRange), string(d.Status), d.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("update dashboard: %w", err)
	}
	if err := sqlTx.Commit(); err != nil {
		return nil, fmt.Errorf("commit execute: %w", err)
	}
	return d, nil
}

type row interface {
	Scan(dest ...any) error
}

func scanDashboard(r row) (*models.ExecDashboard, error) {
	var d models.ExecDashboard
	var rawID, orgID, createdBy uuid.UUID
	var timeRange, status string
	if err := r.Scan(&rawID, &orgID, &d.Name, &d.Description, &timeRange, &status, &createdBy, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	d.ID = id.DashboardID(rawID)
	d.OrgID = id.OrgID(orgID)
	d.CreatedBy = id.UserID(createdBy)
	d.TimeRange = models.TimeRange(timeRange)
	d.Status = models.DashboardStatus(status)
	return &d, nil
}

// PostgresInsights persists insights in PostgreSQL.
type PostgresInsights struct {
	db *sql.DB
}

func NewPostgresInsights(db *sql.DB) *PostgresInsights {
	return &PostgresInsights{db: db}
}

const insightColumns = `id, dashboard_id, org_id, title, body, severity, source, status, created_at`

func (s *PostgresInsights) Create(ctx context.Context, i *models.Insight) error {
	query := `
		INSERT INTO insights (` + insightColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := tx.QuerierFrom(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(i.ID), uuid.UUID(i.DashboardID), uuid.UUID(i.OrgID),
		i.Title, i.Body, string(i.Severity), i.Source, string(i.Status), i.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create insight: %w", err)
	}
	return nil
}

func (s *PostgresInsights) ListByDashboard(ctx context.Context, orgID id.OrgID, dashboardID id.DashboardID, status models.InsightStatus) ([]*models.Insight, error) {
	query := `
		SELECT ` + insightColumns + `
		FROM insights
		WHERE org_id = $1 AND dashboard_id = $2 AND ($3 = '' OR status = $3)
		ORDER BY created_at DESC
	`
	rows, err := tx.QuerierFrom(ctx, s.db).QueryContext(ctx, query, uuid.UUID(orgID), uuid.UUID(dashboardID), string(status))
	if err != nil {
		return nil, fmt.Errorf("list insights: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Insight, 0)
	for rows.Next() {
		i, err := scanInsight(rows)
		if err != nil {
			return nil, fmt.Errorf("scan insight: %w", err)
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

func (s *PostgresInsights) Execute(ctx context.Context, orgID id.OrgID, insightID id.InsightID, validate func(*models.Insight) error, mutate func(*models.Insight)) (*models.Insight, error) {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin execute: %w", err)
	}
	defer func() {
		_ = sqlTx.Rollback()
	}()

	query := `
		SELECT ` + insightColumns + `
		FROM insights
		WHERE org_id = $1 AND id = $2
		FOR UPDATE
	`
	i, err := scanInsight(sqlTx.QueryRowContext(ctx, query, uuid.UUID(orgID), uuid.UUID(insightID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("lock insight: %w", err)
	}

	if err := validate(i); err != nil {
		return nil, err
	}
	mutate(i)

	update := `
		UPDATE insights
		SET status = $3
		WHERE org_id = $1 AND id = $2
	`
	if _, err := sqlTx.ExecContext(ctx, update, uuid.UUID(i.OrgID), uuid.UUID(i.ID), string(i.Status)); err != nil {
		return nil, fmt.Errorf("update insight: %w", err)
	}
	if err := sqlTx.Commit(); err != nil {
		return nil, fmt.Errorf("commit execute: %w", err)
	}
	return i, nil
}

func scanInsight(r row) (*models.Insight, error) {
	var i models.Insight
	var rawID, dashboardID, orgID uuid.UUID
	var severity, status string
	if err := r.Scan(&rawID, &dashboardID, &orgID, &i.Title, &i.Body, &severity, &i.Source, &status, &i.CreatedAt); err != nil {
		return nil, err
	}
	i.ID = id.InsightID(rawID)
	i.DashboardID = id.DashboardID(dashboardID)
	i.OrgID = id.OrgID(orgID)
	i.Severity = models.Severity(severity)
	i.Status = models.InsightStatus(status)
	return &i, nil
}

// PostgresKPIs persists KPI snapshots in PostgreSQL.
type PostgresKPIs struct {
	db *sql.DB
}

func NewPostgresKPIs(db *sql.DB) *PostgresKPIs {
	return &PostgresKPIs{db: db}
}

const kpiColumns = `id, dashboard_id, org_id, metric, value, unit, delta, captured_at`

func (s *PostgresKPIs) Create(ctx context.Context, k *models.KPISnapshot) error {
	query := `
		INSERT INTO kpi_snapshots (` + kpiColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := tx.QuerierFrom(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(k.ID), uuid.UUID(k.DashboardID), uuid.UUID(k.OrgID),
		k.Metric, k.Value, k.Unit, k.Delta, k.CapturedAt,
	)
	if err != nil {
		return fmt.Errorf("create kpi snapshot: %w", err)
	}
	return nil
}

func (s *PostgresKPIs) ListByDashboard(ctx context.Context, orgID id.OrgID, dashboardID id.DashboardID, limit int) ([]*models.KPISnapshot, error) {
	query := `
		SELECT ` + kpiColumns + `
		FROM kpi_snapshots
		WHERE org_id = $1 AND dashboard_id = $2
		ORDER BY captured_at DESC
		LIMIT $3
	`
	rows, err := tx.QuerierFrom(ctx, s.db).QueryContext(ctx, query, uuid.UUID(orgID), uuid.UUID(dashboardID), limit)
	if err != nil {
		return nil, fmt.Errorf("list kpi snapshots: %w", err)
	}
	defer rows.Close()

	return collectKPIs(rows)
}

func (s *PostgresKPIs) LatestByMetric(ctx context.Context, orgID id.OrgID, dashboardID id.DashboardID, metric string) (*models.KPISnapshot, error) {
	query := `
		SELECT ` + kpiColumns + `
		FROM kpi_snapshots
		WHERE org_id = $1 AND dashboard_id = $2 AND metric = $3
		ORDER BY captured_at DESC
		LIMIT 1
	`
	k, err := scanKPI(tx.QuerierFrom(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(orgID), uuid.UUID(dashboardID), metric))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("latest kpi snapshot: %w", err)
	}
	return k, nil
}

func (s *PostgresKPIs) LatestPerMetric(ctx context.Context, orgID id.OrgID, dashboardID id.DashboardID) ([]*models.KPISnapshot, error) {
	query := `
		SELECT DISTINCT ON (metric) ` + kpiColumns + `
		FROM kpi_snapshots
		WHERE org_id = $1 AND dashboard_id = $2
		ORDER BY metric, captured_at DESC
	`
	rows, err := tx.QuerierFrom(ctx, s.db).QueryContext(ctx, query, uuid.UUID(orgID), uuid.UUID(dashboardID))
	if err != nil {
		return nil, fmt.Errorf("latest kpi per metric: %w", err)
	}
	defer rows.Close()

	return collectKPIs(rows)
}

func collectKPIs(rows *sql.Rows) ([]*models.KPISnapshot, error) {
	out := make([]*models.KPISnapshot, 0)
	for rows.Next() {
		k, err := scanKPI(rows)
		if err != nil {
			return nil, fmt.Errorf("scan kpi snapshot: %w", err)
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

func scanKPI(r row) (*models.KPISnapshot, error) {
	var k models.KPISnapshot
	var rawID, dashboardID, orgID uuid.UUID
	if err := r.Scan(&rawID, &dashboardID, &orgID, &k.Metric, &k.Value, &k.Unit, &k.Delta, &k.CapturedAt); err != nil {
		return nil, err
	}
	k.ID = id.KPISnapshotID(rawID)
	k.DashboardID = id.DashboardID(dashboardID)
	k.OrgID = id.OrgID(orgID)
	return &k, nil
}

// PostgresNarratives persists narratives in PostgreSQL.
type PostgresNarratives struct {
	db *sql.DB
}

func NewPostgresNarratives(db *sql.DB) *PostgresNarratives {
	return &PostgresNarratives{db: db}
}

const narrativeColumns = `id, dashboard_id, org_id, headline, body, model, tone, generated_at`

func (s *PostgresNarratives) Create(ctx context.Context, n *models.Narrative) error {
	query := `
		INSERT INTO narratives (` + narrativeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := tx.QuerierFrom(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(n.ID), uuid.UUID(n.DashboardID), uuid.UUID(n.OrgID),
		n.Headline, n.Body, n.Model, string(n.Tone), n.GeneratedAt,
	)
	if err != nil {
		return fmt.Errorf("create narrative: %w", err)
	}
	return nil
}

func (s *PostgresNarratives) FindByID(ctx context.Context, orgID id.OrgID, narrativeID id.NarrativeID) (*models.Narrative, error) {
	query := `
		SELECT ` + narrativeColumns + `
		FROM narratives
		WHERE org_id = $1 AND id = $2
	`
	n, err := scanNarrative(tx.QuerierFrom(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(orgID), uuid.UUID(narrativeID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find narrative: %w", err)
	}
	return n, nil
}

func (s *PostgresNarratives) ListByDashboard(ctx context.Context, orgID id.OrgID, dashboardID id.DashboardID, limit int) ([]*models.Narrative, error) {
	query := `
		SELECT ` + narrativeColumns + `
		FROM narratives
		WHERE org_id = $1 AND dashboard_id = $2
		ORDER BY generated_at DESC
		LIMIT $3
	`
	rows, err := tx.QuerierFrom(ctx, s.db).QueryContext(ctx, query, uuid.UUID(orgID), uuid.UUID(dashboardID), limit)
	if err != nil {
		return nil, fmt.Errorf("list narratives: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Narrative, 0)
	for rows.Next() {
		n, err := scanNarrative(rows)
		if err != nil {
			return nil, fmt.Errorf("scan narrative: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func scanNarrative(r row) (*models.Narrative, error) {
	var n models.Narrative
	var rawID, dashboardID, orgID uuid.UUID
	var tone string
	if err := r.Scan(&rawID, &dashboardID, &orgID, &n.Headline, &n.Body, &n.Model, &tone, &n.GeneratedAt); err != nil {
		return nil, err
	}
	n.ID = id.NarrativeID(rawID)
	n.DashboardID = id.DashboardID(dashboardID)
	n.OrgID = id.OrgID(orgID)
	n.Tone = models.Tone(tone)
	return &n, nil
}
