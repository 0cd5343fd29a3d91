package store

import (
	"context"
	"sort"
	"sync"

	"github.com/cryptocrystian/pravado-v2-sub011/internal/commandcenter/models"
	id "github.com/cryptocrystian/pravado-v2-sub011/pkg/domain"
	"github.com/cryptocrystian/pravado-v2-sub011/pkg/platform/sentinel"
)

// InMemoryDashboards is the dev/test dashboard store.
type InMemoryDashboards struct {
	mu         sync.RWMutex
	dashboards map[id.DashboardID]*models.ExecDashboard
}

func NewInMemoryDashboards() *InMemoryDashboards {
	return &InMemoryDashboards{dashboards: make(map[id.DashboardID]*models.ExecDashboard)}
}

func (s *InMemoryDashboards) Create(_ context.Context, d *models.ExecDashboard) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *d
	s.dashboards[d.ID] = &clone
	return nil
}

func (s *InMemoryDashboards) FindByID(_ context.Context, orgID id.OrgID, dashboardID id.DashboardID) (*models.ExecDashboard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.dashboards[dashboardID]
	if !ok || d.OrgID != orgID {
		return nil, sentinel.ErrNotFound
	}
	clone := *d
	return &clone, nil
}

func (s *InMemoryDashboards) ListByOrg(_ context.Context, orgID id.OrgID) ([]*models.ExecDashboard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.ExecDashboard, 0)
	for _, d := range s.dashboards {
		if d.OrgID != orgID {
			continue
		}
		clone := *d
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *InMemoryDashboards) Execute(_ context.Context, orgID id.OrgID, dashboardID id.DashboardID, validate func(*models.ExecDashboard) error, mutate func(*models.ExecDashboard)) (*models.ExecDashboard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.dashboards[dashboardID]
	if !ok || d.OrgID != orgID {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(d); err != nil {
		return nil, err
	}
	mutate(d)
	clone := *d
	return &clone, nil
}

// InMemoryInsights is the dev/test insight store.
type InMemoryInsights struct {
	mu       sync.RWMutex
	insights map[id.InsightID]*models.Insight
}

func NewInMemoryInsights() *InMemoryInsights {
	return &InMemoryInsights{insights: make(map[id.InsightID]*models.Insight)}
}

func (s *InMemoryInsights) Create(_ context.Context, i *models.Insight) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *i
	s.insights[i.ID] = &clone
	return nil
}

func (s *InMemoryInsights) ListByDashboard(_ context.Context, orgID id.OrgID, dashboardID id.DashboardID, status models.InsightStatus) ([]*models.Insight, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Insight, 0)
	for _, i := range s.insights {
		if i.OrgID != orgID || i.DashboardID != dashboardID {
			continue
		}
		if status != "" && i.Status != status {
			continue
		}
		clone := *i
		out = append(out, &clone)
	}
	sort.Slice(out, func(a, b int) bool {
		return out[a].CreatedAt.After(out[b].CreatedAt)
	})
	return out, nil
}

func (s *InMemoryInsights) Execute(_ context.Context, orgID id.OrgID, insightID id.InsightID, validate func(*models.Insight) error, mutate func(*models.Insight)) (*models.Insight, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.insights[insightID]
	if !ok || i.OrgID != orgID {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(i); err != nil {
		return nil, err
	}
	mutate(i)
	clone := *i
	return &clone, nil
}

// InMemoryKPIs is the dev/test KPI snapshot store.
type InMemoryKPIs struct {
	mu        sync.RWMutex
	snapshots []*models.KPISnapshot
}

func NewInMemoryKPIs() *InMemoryKPIs {
	return &InMemoryKPIs{}
}

func (s *InMemoryKPIs) Create(_ context.Context, k *models.KPISnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *k
	s.snapshots = append(s.snapshots, &clone)
	return nil
}

func (s *InMemoryKPIs) ListByDashboard(_ context.Context, orgID id.OrgID, dashboardID id.DashboardID, limit int) ([]*models.KPISnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.KPISnapshot, 0)
	for _, k := range s.snapshots {
		if k.OrgID != orgID || k.DashboardID != dashboardID {
			continue
		}
		clone := *k
		out = append(out, &clone)
	}
	sort.Slice(out, func(a, b int) bool {
		return out[a].CapturedAt.After(out[b].CapturedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *InMemoryKPIs) LatestByMetric(_ context.Context, orgID id.OrgID, dashboardID id.DashboardID, metric string) (*models.KPISnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *models.KPISnapshot
	for _, k := range s.snapshots {
		if k.OrgID != orgID || k.DashboardID != dashboardID || k.Metric != metric {
			continue
		}
		if latest == nil || k.CapturedAt.After(latest.CapturedAt) {
			latest = k
		}
	}
	if latest == nil {
		return nil, sentinel.ErrNotFound
	}
	clone := *latest
	return &clone, nil
}

func (s *InMemoryKPIs) LatestPerMetric(_ context.Context, orgID id.OrgID, dashboardID id.DashboardID) ([]*models.KPISnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	latest := make(map[string]*models.KPISnapshot)
	for _, k := range s.snapshots {
		if k.OrgID != orgID || k.DashboardID != dashboardID {
			continue
		}
		if cur, ok := latest[k.Metric]; !ok || k.CapturedAt.After(cur.CapturedAt) {
			latest[k.Metric] = k
		}
	}
	out := make([]*models.KPISnapshot, 0, len(latest))
	for _, k := range latest {
		clone := *k
		out = append(out, &clone)
	}
	sort.Slice(out, func(a, b int) bool {
		return out[a].Metric < out[b].Metric
	})
	return out, nil
}

// InMemoryNarratives is the dev/test narrative store.
type InMemoryNarratives struct {
	mu         sync.RWMutex
	narratives map[id.NarrativeID]*models.Narrative
}

func NewInMemoryNarratives() *InMemoryNarratives {
	return &InMemoryNarratives{narratives: make(map[id.NarrativeID]*models.Narrative)}
}

func (s *InMemoryNarratives) Create(_ context.Context, n *models.Narrative) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *n
	s.narratives[n.ID] = &clone
	return nil
}

func (s *InMemoryNarratives) FindByID(_ context.Context, orgID id.OrgID, narrativeID id.NarrativeID) (*models.Narrative, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.narratives[narrativeID]
	if !ok || n.OrgID != orgID {
		return nil, sentinel.ErrNotFound
	}
	clone := *n
	return &clone, nil
}

func (s *InMemoryNarratives) ListByDashboard(_ context.Context, orgID id.OrgID, dashboardID id.DashboardID, limit int) ([]*models.Narrative, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Narrative, 0)
	for _, n := range s.narratives {
		if n.OrgID != orgID || n.DashboardID != dashboardID {
			continue
		}
		clone := *n
		out = append(out, &clone)
	}
	sort.Slice(out, func(a, b int) bool {
		return out[a].GeneratedAt.After(out[b].GeneratedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
