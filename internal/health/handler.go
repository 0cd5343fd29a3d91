// Package health exposes the liveness, readiness, and info endpoints.
package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cryptocrystian/pravado-v2-sub011/internal/featureflag"
	"github.com/cryptocrystian/pravado-v2-sub011/internal/transport/http/shared"
)

// Pinger checks connectivity of a backing dependency.
type Pinger interface {
	Health(ctx context.Context) error
}

// Handler serves the health surface. Dependencies are optional: a nil pinger
// is treated as "not configured" and skipped, matching dev mode where the
// service runs memory-backed.
type Handler struct {
	logger      *slog.Logger
	app         string
	environment string
	version     string
	flags       *featureflag.Flags
	deps        map[string]Pinger
}

func New(logger *slog.Logger, app, environment, version string, flags *featureflag.Flags) *Handler {
	return &Handler{
		logger:      logger,
		app:         app,
		environment: environment,
		version:     version,
		flags:       flags,
		deps:        make(map[string]Pinger),
	}
}

// AddDependency registers a named dependency for readiness checks.
func (h *Handler) AddDependency(name string, p Pinger) {
	if p != nil {
		h.deps[name] = p
	}
}

// Register mounts the health routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/health/live", h.handleLive)
	r.Get("/health/ready", h.handleReady)
	r.Get("/health/info", h.handleInfo)
}

type liveResponse struct {
	Alive     bool      `json:"alive"`
	Timestamp time.Time `json:"timestamp"`
}

type readyResponse struct {
	Ready     bool      `json:"ready"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

type infoResponse struct {
	App         string          `json:"app"`
	Environment string          `json:"environment"`
	Features    map[string]bool `json:"features"`
	Timestamp   time.Time       `json:"timestamp"`
}

func (h *Handler) handleLive(w http.ResponseWriter, r *http.Request) {
	shared.WriteJSON(w, http.StatusOK, liveResponse{Alive: true, Timestamp: time.Now().UTC()})
}

func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	ready := true
	for name, dep := range h.deps {
		if err := dep.Health(ctx); err != nil {
			h.logger.WarnContext(ctx, "readiness check failed", "dependency", name, "error", err)
			ready = false
		}
	}

	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	shared.WriteJSON(w, status, readyResponse{Ready: ready, Version: h.version, Timestamp: time.Now().UTC()})
}

func (h *Handler) handleInfo(w http.ResponseWriter, r *http.Request) {
	shared.WriteJSON(w, http.StatusOK, infoResponse{
		App:         h.app,
		Environment: h.environment,
		Features:    h.flags.Snapshot(),
		Timestamp:   time.Now().UTC(),
	})
}
