package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/cryptocrystian/pravado-v2-sub011/internal/auth/service"
	sessionstore "github.com/cryptocrystian/pravado-v2-sub011/internal/auth/store/session"
	userstore "github.com/cryptocrystian/pravado-v2-sub011/internal/auth/store/user"
	"github.com/cryptocrystian/pravado-v2-sub011/internal/jwttoken"
	orgmodels "github.com/cryptocrystian/pravado-v2-sub011/internal/org/models"
	orgstore "github.com/cryptocrystian/pravado-v2-sub011/internal/org/store"
	id "github.com/cryptocrystian/pravado-v2-sub011/pkg/domain"
	dErrors "github.com/cryptocrystian/pravado-v2-sub011/pkg/domain-errors"
	"github.com/cryptocrystian/pravado-v2-sub011/pkg/platform/sentinel"
	"github.com/cryptocrystian/pravado-v2-sub011/pkg/testutil"
)

const testCookieName = "pravado_session"

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

type authFixture struct {
	router  http.Handler
	service *service.Service
	org     *orgmodels.Organization
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	orgs := orgstore.NewInMemory()
	org, err := orgmodels.NewOrganization(id.OrgID(uuid.New()), "Acme PR", "acme-pr", orgmodels.PlanStarter, time.Now())
	if err != nil {
		t.Fatalf("failed to build organization: %v", err)
	}
	if err := orgs.CreateIfAvailable(context.Background(), org); err != nil {
		t.Fatalf("failed to seed organization: %v", err)
	}

	tokens := jwttoken.NewService("test-signing-key", "pravado-test", "pravado-dashboard")
	svc := service.New(
		userstore.NewInMemory(), sessionstore.NewInMemory(), &orgDirectory{orgs: orgs}, tokens,
		15*time.Minute, 24*time.Hour,
	)

	h := New(svc, testCookieName, false, slog.Default())
	r := chi.NewRouter()
	h.Register(r)
	r.Group(func(protected chi.Router) {
		h.RegisterProtected(protected)
	})

	return &authFixture{router: r, service: svc, org: org}
}

func (f *authFixture) register(t *testing.T, email string) {
	t.Helper()
	rec := testutil.DoRequest(f.router, testutil.NewJSONRequest(t, http.MethodPost, "/auth/register", map[string]string{
		"org_slug": f.org.Slug,
		"email":    email,
		"name":     "Test User",
		"password": "correct-horse",
	}))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 registering, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRegisterEndpoint(t *testing.T) {
	f := newAuthFixture(t)

	rec := testutil.DoRequest(f.router, testutil.NewJSONRequest(t, http.MethodPost, "/auth/register", map[string]string{
		"org_slug": f.org.Slug,
		"email":    "first@example.com",
		"name":     "First User",
		"password": "correct-horse",
	}))
	testutil.AssertStatus(t, rec, http.StatusCreated)
	u := testutil.UnmarshalResponse[map[string]any](t, rec)
	if (*u)["role"] != "admin" {
		t.Fatalf("expected first user to be admin, got %v", (*u)["role"])
	}
	// Password hashes never leave the service.
	if _, leaked := (*u)["password_hash"]; leaked {
		t.Fatal("password hash leaked in register response")
	}

	rec = testutil.DoRequest(f.router, testutil.NewRequestWithBody(t, http.MethodPost, "/auth/register", "{broken"))
	testutil.AssertStatusAndError(t, rec, http.StatusBadRequest, "bad_request")

	rec = testutil.DoRequest(f.router, testutil.NewJSONRequest(t, http.MethodPost, "/auth/register", map[string]string{
		"org_slug": "no-such-org",
		"email":    "lost@example.com",
		"name":     "Lost",
		"password": "correct-horse",
	}))
	testutil.AssertStatusAndError(t, rec, http.StatusBadRequest, "bad_request")
}

func TestLoginEndpoint(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "login@example.com")

	rec := testutil.DoRequest(f.router, testutil.NewJSONRequest(t, http.MethodPost, "/auth/login", map[string]string{
		"email":    "login@example.com",
		"password": "correct-horse",
	}))
	testutil.AssertStatus(t, rec, http.StatusOK)

	resp := testutil.UnmarshalResponse[struct {
		AccessToken string `json:"access_token"`
	}](t, rec)
	if resp.AccessToken == "" {
		t.Fatal("expected an access token in the login response")
	}

	var sessionCookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == testCookieName {
			sessionCookie = c
		}
	}
	if sessionCookie == nil {
		t.Fatal("expected a session cookie to be set")
	}
	if !sessionCookie.HttpOnly {
		t.Error("session cookie must be http-only")
	}
	if sessionCookie.Value == "" {
		t.Error("session cookie must carry the session id")
	}

	rec = testutil.DoRequest(f.router, testutil.NewJSONRequest(t, http.MethodPost, "/auth/login", map[string]string{
		"email":    "login@example.com",
		"password": "wrong-password",
	}))
	testutil.AssertStatusAndError(t, rec, http.StatusUnauthorized, "unauthorized")
}

func TestLogoutEndpoint(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "logout@example.com")

	result, err := f.service.Login(context.Background(), "logout@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	req := testutil.NewRequest(t, http.MethodPost, "/auth/logout")
	req = testutil.WithPrincipal(req, result.User.ID, result.Session.ID, result.User.OrgID)
	rec := testutil.DoRequest(f.router, req)
	testutil.AssertStatus(t, rec, http.StatusNoContent)

	var cleared *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == testCookieName {
			cleared = c
		}
	}
	if cleared == nil || cleared.MaxAge != -1 {
		t.Fatal("expected the session cookie to be cleared")
	}

	if _, err := f.service.ResolveSession(context.Background(), result.Session.ID); !errors.Is(err, sentinel.ErrExpired) {
		t.Fatalf("expected revoked session, got %v", err)
	}
}

func TestMeEndpoint(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "me@example.com")

	result, err := f.service.Login(context.Background(), "me@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	req := testutil.NewRequest(t, http.MethodGet, "/auth/me")
	req = testutil.WithPrincipal(req, result.User.ID, result.Session.ID, result.User.OrgID)
	rec := testutil.DoRequest(f.router, req)
	testutil.AssertStatus(t, rec, http.StatusOK)

	me := testutil.UnmarshalResponse[struct {
		Email string `json:"email"`
	}](t, rec)
	if me.Email != "me@example.com" {
		t.Fatalf("unexpected profile email %q", me.Email)
	}

	// Without a principal in context the lookup is unauthorized.
	rec = testutil.DoRequest(f.router, testutil.NewRequest(t, http.MethodGet, "/auth/me"))
	testutil.AssertStatusAndError(t, rec, http.StatusUnauthorized, "unauthorized")
}
