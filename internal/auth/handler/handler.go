// Package handler exposes the authentication endpoints.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cryptocrystian/pravado-v2-sub011/internal/auth/models"
	"github.com/cryptocrystian/pravado-v2-sub011/internal/auth/service"
	"github.com/cryptocrystian/pravado-v2-sub011/internal/transport/http/shared"
	id "github.com/cryptocrystian/pravado-v2-sub011/pkg/domain"
	dErrors "github.com/cryptocrystian/pravado-v2-sub011/pkg/domain-errors"
	"github.com/cryptocrystian/pravado-v2-sub011/pkg/requestcontext"
)

// Service defines the auth operations the handler needs.
type Service interface {
	Register(ctx context.Context, params service.RegisterParams) (*models.User, error)
	Login(ctx context.Context, email, password string) (*service.LoginResult, error)
	Logout(ctx context.Context, sessionID id.SessionID) error
	CurrentUser(ctx context.Context, userID id.UserID) (*models.User, error)
}

// Handler handles the /auth routes.
type Handler struct {
	logger        *slog.Logger
	auth          Service
	cookieName    string
	secureCookies bool
}

func New(auth Service, cookieName string, secureCookies bool, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, auth: auth, cookieName: cookieName, secureCookies: secureCookies}
}

// Register mounts the public auth routes; RegisterProtected mounts the routes
// that require an authenticated principal.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/register", h.handleRegister)
	r.Post("/auth/login", h.handleLogin)
}

func (h *Handler) RegisterProtected(r chi.Router) {
	r.Post("/auth/logout", h.handleLogout)
	r.Get("/auth/me", h.handleMe)
}

type registerRequest struct {
	OrgSlug  string `json:"org_slug"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	u, err := h.auth.Register(ctx, service.RegisterParams{
		OrgSlug:  req.OrgSlug,
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		h.logError(ctx, "failed to register user", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, u)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	User        *models.User `json:"user"`
	AccessToken string       `json:"access_token"`
	ExpiresAt   time.Time    `json:"expires_at"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	result, err := h.auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		h.logError(ctx, "login failed", err)
		shared.WriteError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    result.Session.ID.String(),
		Path:     "/",
		Expires:  result.Session.ExpiresAt,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	shared.WriteJSON(w, http.StatusOK, loginResponse{
		User:        result.User,
		AccessToken: result.AccessToken,
		ExpiresAt:   result.Session.ExpiresAt,
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessionID := requestcontext.SessionID(ctx)
	if err := h.auth.Logout(ctx, sessionID); err != nil {
		h.logError(ctx, "logout failed", err)
		shared.WriteError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	u, err := h.auth.CurrentUser(ctx, requestcontext.UserID(ctx))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) logError(ctx context.Context, msg string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
}
