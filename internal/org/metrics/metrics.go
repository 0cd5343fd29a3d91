// Package metrics holds Prometheus metrics for the org module.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	OrgsCreated   prometheus.Counter
	OrgsSuspended prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		OrgsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pravado_orgs_created_total",
			Help: "Total organizations created",
		}),
		OrgsSuspended: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pravado_orgs_suspended_total",
			Help: "Total organization suspensions",
		}),
	}
}

func (m *Metrics) IncrementOrgsCreated() {
	if m != nil {
		m.OrgsCreated.Inc()
	}
}

func (m *Metrics) IncrementOrgsSuspended() {
	if m != nil {
		m.OrgsSuspended.Inc()
	}
}
