package middleware

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	id "github.com/cryptocrystian/pravado-v2-sub011/pkg/domain"
	"github.com/cryptocrystian/pravado-v2-sub011/pkg/requestcontext"
)

// Principal is the authenticated identity resolved from a bearer token or
// session cookie.
type Principal struct {
	UserID    id.UserID
	SessionID id.SessionID
	OrgID     id.OrgID
}

// TokenValidator validates JWT access tokens.
type TokenValidator interface {
	ValidatePrincipal(tokenString string) (*Principal, error)
}

// SessionResolver resolves a session cookie value to a live principal.
// Returns sentinel.ErrNotFound or sentinel.ErrExpired for dead sessions.
type SessionResolver interface {
	ResolveSession(ctx context.Context, sessionID id.SessionID) (*Principal, error)
}

// OrgGate reports whether an organization may serve requests. Suspension is
// enforced here rather than by cascading status to every org-scoped record.
type OrgGate interface {
	IsOrgActive(ctx context.Context, orgID id.OrgID) (bool, error)
}

// RequireAuth authenticates via Authorization bearer token, falling back to
// the session cookie for browser dashboard requests. The cookie name comes
// from WithSessionCookieName on the request context. On success the
// principal's IDs are injected into the request context.
func RequireAuth(validator TokenValidator, sessions SessionResolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			principal, ok := authenticate(ctx, r, validator, sessions)
			if !ok {
				logger.WarnContext(ctx, "unauthorized request",
					"request_id", requestcontext.RequestID(ctx),
					"path", r.URL.Path,
				)
				writeUnauthorized(w)
				return
			}

			ctx = requestcontext.WithUserID(ctx, principal.UserID)
			ctx = requestcontext.WithSessionID(ctx, principal.SessionID)
			ctx = requestcontext.WithOrgID(ctx, principal.OrgID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func authenticate(ctx context.Context, r *http.Request, validator TokenValidator, sessions SessionResolver) (*Principal, bool) {
	const bearerPrefix = "Bearer "
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), bearerPrefix); ok {
		principal, err := validator.ValidatePrincipal(token)
		if err != nil {
			return nil, false
		}
		return principal, true
	}

	if sessions == nil {
		return nil, false
	}
	cookie, err := r.Cookie(sessionCookieName(r))
	if err != nil {
		return nil, false
	}
	sessionID, err := id.ParseSessionID(cookie.Value)
	if err != nil {
		return nil, false
	}
	principal, err := sessions.ResolveSession(ctx, sessionID)
	if err != nil {
		return nil, false
	}
	return principal, true
}

// cookieNameKey lets the router configure the cookie name once instead of
// threading it through every middleware constructor.
type cookieNameKey struct{}

// WithSessionCookieName stores the configured cookie name on the request context.
func WithSessionCookieName(name string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), cookieNameKey{}, name)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sessionCookieName(r *http.Request) string {
	if name, ok := r.Context().Value(cookieNameKey{}).(string); ok && name != "" {
		return name
	}
	return "pravado_session"
}

// RequireActiveOrg rejects requests whose org is suspended. Must run after
// RequireAuth.
func RequireActiveOrg(gate OrgGate, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			orgID := requestcontext.OrgID(ctx)
			if orgID.IsZero() {
				writeUnauthorized(w)
				return
			}
			active, err := gate.IsOrgActive(ctx, orgID)
			if err != nil {
				logger.ErrorContext(ctx, "org gate check failed",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
					"org_id", orgID.String(),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"error":"internal","error_description":"internal error"}`))
				return
			}
			if !active {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"forbidden","error_description":"organization is suspended"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdminToken guards platform-operator routes with a static token.
func RequireAdminToken(token string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			provided := r.Header.Get("X-Admin-Token")
			if token == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
				logger.WarnContext(r.Context(), "admin token rejected",
					"request_id", requestcontext.RequestID(r.Context()),
					"path", r.URL.Path,
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"forbidden","error_description":"admin token required"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"Missing or invalid credentials"}`))
}
