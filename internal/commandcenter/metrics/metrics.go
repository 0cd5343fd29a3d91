// Package metrics holds Prometheus metrics for the command-center module.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	DashboardsCreated   prometheus.Counter
	DashboardsArchived  prometheus.Counter
	InsightsCreated     *prometheus.CounterVec
	KPIsIngested        prometheus.Counter
	NarrativesGenerated prometheus.Counter
	NarrativeDuration   prometheus.Histogram
}

func New() *Metrics {
	return &Metrics{
		DashboardsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pravado_dashboards_created_total",
			Help: "Total executive dashboards created",
		}),
		DashboardsArchived: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pravado_dashboards_archived_total",
			Help: "Total executive dashboards archived",
		}),
		InsightsCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pravado_insights_created_total",
			Help: "Total insights created by severity",
		}, []string{"severity"}),
		KPIsIngested: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pravado_kpi_snapshots_ingested_total",
			Help: "Total KPI snapshots ingested",
		}),
		NarrativesGenerated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pravado_narratives_generated_total",
			Help: "Total narratives generated",
		}),
		NarrativeDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "pravado_narrative_generation_seconds",
			Help:    "Narrative generation latency including the LLM call",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		}),
	}
}

func (m *Metrics) IncrementDashboardsCreated() {
	if m != nil {
		m.DashboardsCreated.Inc()
	}
}

func (m *Metrics) IncrementDashboardsArchived() {
	if m != nil {
		m.DashboardsArchived.Inc()
	}
}

func (m *Metrics) IncrementInsightsCreated(severity string) {
	if m != nil {
		m.InsightsCreated.WithLabelValues(severity).Inc()
	}
}

func (m *Metrics) IncrementKPIsIngested() {
	if m != nil {
		m.KPIsIngested.Inc()
	}
}

func (m *Metrics) ObserveNarrativeGenerated(duration time.Duration) {
	if m != nil {
		m.NarrativesGenerated.Inc()
		m.NarrativeDuration.Observe(duration.Seconds())
	}
}
