package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/cryptocrystian/pravado-v2-sub011/internal/audit"
	"github.com/cryptocrystian/pravado-v2-sub011/internal/auth/models"
	sessionstore "github.com/cryptocrystian/pravado-v2-sub011/internal/auth/store/session"
	userstore "github.com/cryptocrystian/pravado-v2-sub011/internal/auth/store/user"
	"github.com/cryptocrystian/pravado-v2-sub011/internal/jwttoken"
	orgmodels "github.com/cryptocrystian/pravado-v2-sub011/internal/org/models"
	orgstore "github.com/cryptocrystian/pravado-v2-sub011/internal/org/store"
	id "github.com/cryptocrystian/pravado-v2-sub011/pkg/domain"
	dErrors "github.com/cryptocrystian/pravado-v2-sub011/pkg/domain-errors"
	"github.com/cryptocrystian/pravado-v2-sub011/pkg/platform/sentinel"
)

type auditRecorder struct {
	mu     sync.Mutex
	events []audit.Event
}

func (r *auditRecorder) Emit(_ context.Context, event audit.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *auditRecorder) actions() []audit.Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]audit.Action, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Action)
	}
	return out
}

// orgDirectory wraps the memory org store behind the narrow interface the
// auth service needs.
type orgDirectory struct {
	orgs orgstore.OrgStore
}

func (d *orgDirectory) GetOrganizationBySlug(ctx context.Context, slug string) (*orgmodels.Organization, error) {
	org, err := d.orgs.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "organization not found")
		}
		return nil, err
	}
	return org, nil
}

type AuthServiceSuite struct {
	suite.Suite
	service  *Service
	orgs     *orgstore.InMemory
	sessions *sessionstore.InMemory
	auditor  *auditRecorder
	org      *orgmodels.Organization
}

func (s *AuthServiceSuite) SetupTest() {
	s.orgs = orgstore.NewInMemory()
	s.sessions = sessionstore.NewInMemory()
	s.auditor = &auditRecorder{}

	org, err := orgmodels.NewOrganization(id.OrgID(uuid.New()), "Acme PR", "acme-pr", orgmodels.PlanStarter, time.Now())
	s.Require().NoError(err)
	s.Require().NoError(s.orgs.CreateIfAvailable(context.Background(), org))
	s.org = org

	tokens := jwttoken.NewService("test-signing-key", "pravado-test", "pravado-dashboard")
	s.service = New(
		userstore.NewInMemory(), s.sessions, &orgDirectory{orgs: s.orgs}, tokens,
		15*time.Minute, 24*time.Hour,
		WithAuditor(s.auditor),
	)
}

func TestAuthServiceSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceSuite))
}

func (s *AuthServiceSuite) register(email string) *models.User {
	u, err := s.service.Register(context.Background(), RegisterParams{
		OrgSlug:  s.org.Slug,
		Email:    email,
		Name:     "Test User",
		Password: "correct-horse",
	})
	s.Require().NoError(err)
	return u
}

func (s *AuthServiceSuite) TestRegister() {
	ctx := context.Background()

	s.Run("first user of an org becomes admin", func() {
		u := s.register("first@example.com")
		s.Equal(models.RoleAdmin, u.Role)
		s.Equal(s.org.ID, u.OrgID)
		s.Contains(s.auditor.actions(), audit.ActionUserRegistered)
	})

	s.Run("subsequent users are members", func() {
		u := s.register("second@example.com")
		s.Equal(models.RoleMember, u.Role)
	})

	s.Run("email is normalized to lowercase", func() {
		u, err := s.service.Register(ctx, RegisterParams{
			OrgSlug:  s.org.Slug,
			Email:    "  UPPER@Example.COM ",
			Name:     "Upper Case",
			Password: "correct-horse",
		})
		s.Require().NoError(err)
		s.Equal("upper@example.com", u.Email)
	})

	s.Run("duplicate email is a conflict", func() {
		s.register("dupe@example.com")

		_, err := s.service.Register(ctx, RegisterParams{
			OrgSlug:  s.org.Slug,
			Email:    "DUPE@example.com",
			Name:     "Dupe",
			Password: "correct-horse",
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("short password is a bad request", func() {
		_, err := s.service.Register(ctx, RegisterParams{
			OrgSlug:  s.org.Slug,
			Email:    "short@example.com",
			Name:     "Short",
			Password: "tiny",
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("unknown org slug is a bad request", func() {
		_, err := s.service.Register(ctx, RegisterParams{
			OrgSlug:  "no-such-org",
			Email:    "lost@example.com",
			Name:     "Lost",
			Password: "correct-horse",
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("suspended org rejects registration", func() {
		now := time.Now()
		_, err := s.orgs.Execute(ctx, s.org.ID,
			func(o *orgmodels.Organization) error { return nil },
			func(o *orgmodels.Organization) { o.ApplySuspension(now) },
		)
		s.Require().NoError(err)

		_, err = s.service.Register(ctx, RegisterParams{
			OrgSlug:  s.org.Slug,
			Email:    "late@example.com",
			Name:     "Late",
			Password: "correct-horse",
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

// recordingRunner counts transaction boundaries while delegating to the
// callback, the way the no-op runner does.
type recordingRunner struct {
	calls int
}

func (r *recordingRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	r.calls++
	return fn(ctx)
}

func (s *AuthServiceSuite) TestRegisterRunsInTransaction() {
	ctx := context.Background()
	runner := &recordingRunner{}
	tokens := jwttoken.NewService("test-signing-key", "pravado-test", "pravado-dashboard")
	svc := New(
		userstore.NewInMemory(), s.sessions, &orgDirectory{orgs: s.orgs}, tokens,
		15*time.Minute, 24*time.Hour,
		WithTxRunner(runner),
	)

	u, err := svc.Register(ctx, RegisterParams{
		OrgSlug:  s.org.Slug,
		Email:    "txn@example.com",
		Name:     "Txn User",
		Password: "correct-horse",
	})
	s.Require().NoError(err)
	s.Equal(models.RoleAdmin, u.Role)
	s.Equal(1, runner.calls)

	// Failures inside the boundary surface with their original code.
	_, err = svc.Register(ctx, RegisterParams{
		OrgSlug:  s.org.Slug,
		Email:    "txn@example.com",
		Name:     "Txn User",
		Password: "correct-horse",
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	s.Equal(2, runner.calls)

	// Validation failures never open a transaction.
	_, err = svc.Register(ctx, RegisterParams{
		OrgSlug:  s.org.Slug,
		Email:    "bad-email",
		Name:     "No At Sign",
		Password: "correct-horse",
	})
	s.Require().Error(err)
	s.Equal(2, runner.calls)
}

func (s *AuthServiceSuite) TestLogin() {
	ctx := context.Background()
	u := s.register("login@example.com")

	s.Run("valid credentials open a session and issue a token", func() {
		result, err := s.service.Login(ctx, "login@example.com", "correct-horse")
		s.Require().NoError(err)
		s.Equal(u.ID, result.User.ID)
		s.NotEmpty(result.AccessToken)
		s.True(result.Session.Live(time.Now()))
		s.Contains(s.auditor.actions(), audit.ActionLoginSucceeded)
	})

	s.Run("wrong password is unauthorized and audited", func() {
		_, err := s.service.Login(ctx, "login@example.com", "wrong-password")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
		s.Contains(s.auditor.actions(), audit.ActionLoginFailed)
	})

	s.Run("unknown email is indistinguishable from wrong password", func() {
		_, err := s.service.Login(ctx, "ghost@example.com", "correct-horse")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *AuthServiceSuite) TestLogoutAndResolveSession() {
	ctx := context.Background()
	s.register("session@example.com")

	result, err := s.service.Login(ctx, "session@example.com", "correct-horse")
	s.Require().NoError(err)

	s.Run("live session resolves to a principal", func() {
		principal, err := s.service.ResolveSession(ctx, result.Session.ID)
		s.Require().NoError(err)
		s.Equal(result.User.ID, principal.UserID)
		s.Equal(result.User.OrgID, principal.OrgID)
	})

	s.Run("logout revokes the session", func() {
		s.Require().NoError(s.service.Logout(ctx, result.Session.ID))
		s.Contains(s.auditor.actions(), audit.ActionSessionRevoked)

		_, err := s.service.ResolveSession(ctx, result.Session.ID)
		s.Require().ErrorIs(err, sentinel.ErrExpired)
	})

	s.Run("logout is idempotent", func() {
		s.Require().NoError(s.service.Logout(ctx, result.Session.ID))
	})

	s.Run("unknown session does not resolve", func() {
		_, err := s.service.ResolveSession(ctx, id.SessionID(uuid.New()))
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *AuthServiceSuite) TestCurrentUser() {
	ctx := context.Background()
	u := s.register("me@example.com")

	s.Run("returns the user's profile", func() {
		found, err := s.service.CurrentUser(ctx, u.ID)
		s.Require().NoError(err)
		s.Equal(u.Email, found.Email)
	})

	s.Run("zero user id is unauthorized", func() {
		_, err := s.service.CurrentUser(ctx, id.UserID{})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("unknown user id is unauthorized", func() {
		_, err := s.service.CurrentUser(ctx, id.UserID(uuid.New()))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}
