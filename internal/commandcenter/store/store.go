// Package store persists command-center aggregates.
//
// Every query is scoped by org ID. A record that exists under a different
// org is reported as sentinel.ErrNotFound, never leaked.
package store

import (
	"context"

	"github.com/cryptocrystian/pravado-v2-sub011/internal/commandcenter/models"
	id "github.com/cryptocrystian/pravado-v2-sub011/pkg/domain"
)

// DashboardStore persists executive dashboards.
type DashboardStore interface {
	Create(ctx context.Context, d *models.ExecDashboard) error
	FindByID(ctx context.Context, orgID id.OrgID, dashboardID id.DashboardID) (*models.ExecDashboard, error)
	ListByOrg(ctx context.Context, orgID id.OrgID) ([]*models.ExecDashboard, error)

	// Execute runs validate then mutate under the store's lock and persists
	// the result.
	Execute(ctx context.Context, orgID id.OrgID, dashboardID id.DashboardID, validate func(*models.ExecDashboard) error, mutate func(*models.ExecDashboard)) (*models.ExecDashboard, error)
}

// InsightStore persists dashboard insights. An empty status filter lists all.
type InsightStore interface {
	Create(ctx context.Context, i *models.Insight) error
	ListByDashboard(ctx context.Context, orgID id.OrgID, dashboardID id.DashboardID, status models.InsightStatus) ([]*models.Insight, error)
	Execute(ctx context.Context, orgID id.OrgID, insightID id.InsightID, validate func(*models.Insight) error, mutate func(*models.Insight)) (*models.Insight, error)
}

// KPIStore persists KPI snapshots.
type KPIStore interface {
	Create(ctx context.Context, k *models.KPISnapshot) error
	ListByDashboard(ctx context.Context, orgID id.OrgID, dashboardID id.DashboardID, limit int) ([]*models.KPISnapshot, error)
	LatestByMetric(ctx context.Context, orgID id.OrgID, dashboardID id.DashboardID, metric string) (*models.KPISnapshot, error)
	LatestPerMetric(ctx context.Context, orgID id.OrgID, dashboardID id.DashboardID) ([]*models.KPISnapshot, error)
}

// NarrativeStore persists generated narratives.
type NarrativeStore interface {
	Create(ctx context.Context, n *models.Narrative) error
	FindByID(ctx context.Context, orgID id.OrgID, narrativeID id.NarrativeID) (*models.Narrative, error)
	ListByDashboard(ctx context.Context, orgID id.OrgID, dashboardID id.DashboardID, limit int) ([]*models.Narrative, error)
}
