// Package metrics holds Prometheus metrics for the auth module.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	UsersRegistered prometheus.Counter
	LoginAttempts   *prometheus.CounterVec
	SessionsRevoked prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		UsersRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pravado_users_registered_total",
			Help: "Total users registered",
		}),
		LoginAttempts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pravado_login_attempts_total",
			Help: "Total login attempts by outcome",
		}, []string{"outcome"}),
		SessionsRevoked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pravado_sessions_revoked_total",
			Help: "Total sessions revoked by logout",
		}),
	}
}

func (m *Metrics) IncrementUsersRegistered() {
	if m != nil {
		m.UsersRegistered.Inc()
	}
}

func (m *Metrics) IncrementLoginAttempts(outcome string) {
	if m != nil {
		m.LoginAttempts.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) IncrementSessionsRevoked() {
	if m != nil {
		m.SessionsRevoked.Inc()
	}
}
