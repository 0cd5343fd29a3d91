// Package service orchestrates registration, login, and session lifecycle.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/cryptocrystian/pravado-v2-sub011/internal/audit"
	authmetrics "github.com/cryptocrystian/pravado-v2-sub011/internal/auth/metrics"
	"github.com/cryptocrystian/pravado-v2-sub011/internal/auth/models"
	sessionstore "github.com/cryptocrystian/pravado-v2-sub011/internal/auth/store/session"
	userstore "github.com/cryptocrystian/pravado-v2-sub011/internal/auth/store/user"
	"github.com/cryptocrystian/pravado-v2-sub011/internal/platform/middleware"
	orgmodels "github.com/cryptocrystian/pravado-v2-sub011/internal/org/models"
	id "github.com/cryptocrystian/pravado-v2-sub011/pkg/domain"
	dErrors "github.com/cryptocrystian/pravado-v2-sub011/pkg/domain-errors"
	"github.com/cryptocrystian/pravado-v2-sub011/pkg/platform/sentinel"
	"github.com/cryptocrystian/pravado-v2-sub011/pkg/platform/tx"
	"github.com/cryptocrystian/pravado-v2-sub011/pkg/requestcontext"
)

// TokenIssuer issues access tokens for a freshly created session.
type TokenIssuer interface {
	GenerateAccessToken(userID id.UserID, sessionID id.SessionID, orgID id.OrgID, expiresIn time.Duration) (string, error)
}

// OrgDirectory resolves organizations during registration without pulling in
// the whole org service.
type OrgDirectory interface {
	GetOrganizationBySlug(ctx context.Context, slug string) (*orgmodels.Organization, error)
}

// AuditEmitter decouples the service from the audit publisher so tests can
// pass nil or a recorder.
type AuditEmitter interface {
	Emit(ctx context.Context, event audit.Event)
}

// Service orchestrates authentication operations.
type Service struct {
	users    userstore.Store
	sessions sessionstore.Store
	orgs     OrgDirectory
	tokens   TokenIssuer

	accessTokenTTL time.Duration
	sessionTTL     time.Duration

	runner  tx.Runner
	auditor AuditEmitter
	metrics *authmetrics.Metrics
}

type Option func(*Service)

func WithAuditor(a AuditEmitter) Option {
	return func(s *Service) { s.auditor = a }
}

func WithMetrics(m *authmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithTxRunner makes multi-statement operations transactional. Defaults to a
// no-op runner for memory-backed wiring.
func WithTxRunner(r tx.Runner) Option {
	return func(s *Service) { s.runner = r }
}

func New(users userstore.Store, sessions sessionstore.Store, orgs OrgDirectory, tokens TokenIssuer, accessTokenTTL, sessionTTL time.Duration, opts ...Option) *Service {
	s := &Service{
		users:          users,
		sessions:       sessions,
		orgs:           orgs,
		tokens:         tokens,
		accessTokenTTL: accessTokenTTL,
		sessionTTL:     sessionTTL,
		runner:         tx.NewNoopRunner(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterParams carries registration input. OrgSlug identifies the
// organization the user joins.
type RegisterParams struct {
	OrgSlug  string
	Email    string
	Name     string
	Password string
}

const minPasswordLength = 8

// Register creates a user in the organization identified by slug. The first
// user of an organization becomes its admin.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(params.Email))
	name := strings.TrimSpace(params.Name)

	if email == "" || !strings.Contains(email, "@") {
		return nil, dErrors.New(dErrors.CodeBadRequest, "a valid email is required")
	}
	if name == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "name is required")
	}
	if len(params.Password) < minPasswordLength {
		return nil, dErrors.New(dErrors.CodeBadRequest, "password must be at least 8 characters")
	}

	org, err := s.orgs.GetOrganizationBySlug(ctx, params.OrgSlug)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, dErrors.New(dErrors.CodeBadRequest, "unknown organization")
		}
		return nil, err
	}
	if !org.IsActive() {
		return nil, dErrors.New(dErrors.CodeForbidden, "organization is suspended")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	// The membership count and the insert share one transaction so two
	// concurrent first registrations cannot both become admin.
	var u *models.User
	err = s.runner.RunInTx(ctx, func(ctx context.Context) error {
		role := models.RoleMember
		count, err := s.users.CountByOrg(ctx, org.ID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to inspect organization membership")
		}
		if count == 0 {
			role = models.RoleAdmin
		}

		u = &models.User{
			ID:           id.UserID(uuid.New()),
			OrgID:        org.ID,
			Email:        email,
			Name:         name,
			Role:         role,
			PasswordHash: string(hash),
			CreatedAt:    requestcontext.Now(ctx),
		}
		if err := s.users.CreateIfEmailAvailable(ctx, u); err != nil {
			if errors.Is(err, sentinel.ErrAlreadyUsed) {
				return dErrors.New(dErrors.CodeConflict, "email is already registered")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
		}
		return nil
	})
	if err != nil {
		var coded *dErrors.Error
		if errors.As(err, &coded) {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to register user")
	}

	s.emit(ctx, audit.Event{OrgID: u.OrgID, ActorID: u.ID, Action: audit.ActionUserRegistered, Subject: u.Email})
	s.metrics.IncrementUsersRegistered()
	return u, nil
}

// LoginResult is the successful outcome of a login.
type LoginResult struct {
	User        *models.User
	Session     *models.Session
	AccessToken string
}

// Login verifies credentials and opens a session. Credential failures are
// indistinguishable to the caller but audited with the attempted email.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "email and password are required")
	}

	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, s.failLogin(ctx, email)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up user")
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, s.failLogin(ctx, email)
	}

	now := requestcontext.Now(ctx)
	sess := &models.Session{
		ID:        id.SessionID(uuid.New()),
		UserID:    u.ID,
		OrgID:     u.OrgID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create session")
	}

	token, err := s.tokens.GenerateAccessToken(u.ID, sess.ID, u.OrgID, s.accessTokenTTL)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue access token")
	}

	s.emit(ctx, audit.Event{OrgID: u.OrgID, ActorID: u.ID, Action: audit.ActionLoginSucceeded, Subject: u.Email})
	s.metrics.IncrementLoginAttempts("success")
	return &LoginResult{User: u, Session: sess, AccessToken: token}, nil
}

func (s *Service) failLogin(ctx context.Context, email string) error {
	s.emit(ctx, audit.Event{Action: audit.ActionLoginFailed, Subject: email})
	s.metrics.IncrementLoginAttempts("failure")
	return dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
}

// Logout revokes the given session. Revoking an already-dead session is not
// an error; logout is idempotent from the client's perspective.
func (s *Service) Logout(ctx context.Context, sessionID id.SessionID) error {
	if sessionID.IsZero() {
		return dErrors.New(dErrors.CodeBadRequest, "session id is required")
	}
	if err := s.sessions.Revoke(ctx, sessionID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) || errors.Is(err, sentinel.ErrExpired) {
			return nil
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke session")
	}

	s.emit(ctx, audit.Event{Action: audit.ActionSessionRevoked, Subject: sessionID.String()})
	s.metrics.IncrementSessionsRevoked()
	return nil
}

// CurrentUser returns the authenticated user's profile.
func (s *Service) CurrentUser(ctx context.Context, userID id.UserID) (*models.User, error) {
	if userID.IsZero() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "not authenticated")
	}
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "not authenticated")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up user")
	}
	return u, nil
}

// ResolveSession implements the middleware session resolver for cookie auth.
func (s *Service) ResolveSession(ctx context.Context, sessionID id.SessionID) (*middleware.Principal, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.Live(requestcontext.Now(ctx)) {
		return nil, sentinel.ErrExpired
	}
	return &middleware.Principal{UserID: sess.UserID, SessionID: sess.ID, OrgID: sess.OrgID}, nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditor != nil {
		s.auditor.Emit(ctx, event)
	}
}
