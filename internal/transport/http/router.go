// Package http assembles the API router.
package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cryptocrystian/pravado-v2-sub011/internal/audit"
	authhandler "github.com/cryptocrystian/pravado-v2-sub011/internal/auth/handler"
	cchandler "github.com/cryptocrystian/pravado-v2-sub011/internal/commandcenter/handler"
	"github.com/cryptocrystian/pravado-v2-sub011/internal/health"
	orghandler "github.com/cryptocrystian/pravado-v2-sub011/internal/org/handler"
	"github.com/cryptocrystian/pravado-v2-sub011/internal/platform/config"
	"github.com/cryptocrystian/pravado-v2-sub011/internal/platform/metrics"
	"github.com/cryptocrystian/pravado-v2-sub011/internal/platform/middleware"
)

// Deps carries everything the router mounts.
type Deps struct {
	Logger  *slog.Logger
	Config  config.Config
	Metrics *metrics.Metrics

	TokenValidator  middleware.TokenValidator
	SessionResolver middleware.SessionResolver
	OrgGate         middleware.OrgGate

	Health        *health.Handler
	Auth          *authhandler.Handler
	Orgs          *orghandler.Handler
	CommandCenter *cchandler.Handler
	Audit         *audit.Handler
}

// NewRouter builds the full route tree.
//
// Layout: health and /metrics are public, /api/v1/auth login/register are
// public, /admin/v1 is admin-token gated, everything else under /api/v1
// requires an authenticated principal in an active org.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.Latency(d.Metrics))
	r.Use(middleware.Timeout(d.Config.HTTP.RequestTimeout))
	r.Use(middleware.CORS(d.Config.HTTP.CORSOrigin))
	r.Use(middleware.WithSessionCookieName(d.Config.Auth.SessionCookie))

	d.Health.Register(r)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.ContentTypeJSON)
			d.Auth.Register(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(d.TokenValidator, d.SessionResolver, d.Logger))
			r.Use(middleware.RequireActiveOrg(d.OrgGate, d.Logger))
			r.Use(middleware.ContentTypeJSON)

			d.Auth.RegisterProtected(r)
			d.CommandCenter.Register(r)
			d.Audit.Register(r)
		})
	})

	r.Route("/admin/v1", func(r chi.Router) {
		r.Use(middleware.RequireAdminToken(d.Config.Auth.AdminToken, d.Logger))
		r.Use(middleware.ContentTypeJSON)
		d.Orgs.Register(r)
	})

	return r
}
