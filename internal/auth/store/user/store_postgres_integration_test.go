//go:build integration

package user_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/cryptocrystian/pravado-v2-sub011/internal/auth/models"
	"github.com/cryptocrystian/pravado-v2-sub011/internal/auth/store/user"
	orgmodels "github.com/cryptocrystian/pravado-v2-sub011/internal/org/models"
	orgstore "github.com/cryptocrystian/pravado-v2-sub011/internal/org/store"
	id "github.com/cryptocrystian/pravado-v2-sub011/pkg/domain"
	"github.com/cryptocrystian/pravado-v2-sub011/pkg/platform/sentinel"
	"github.com/cryptocrystian/pravado-v2-sub011/pkg/testutil/containers"
)

type PostgresUserStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *user.PostgresStore
	orgID id.OrgID
}

func TestPostgresUserStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresUserStoreSuite))
}

func (s *PostgresUserStoreSuite) SetupSuite() {
	s.pg = containers.GetManager().GetPostgres(s.T())
	s.store = user.NewPostgres(s.pg.DB)
}

func (s *PostgresUserStoreSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.pg.TruncateTables(ctx,
		"audit_events", "narratives", "kpi_snapshots", "insights", "exec_dashboards", "users", "organizations"))

	// Users need a parent organization.
	org, err := orgmodels.NewOrganization(id.OrgID(uuid.New()), "Acme PR", "acme-pr", orgmodels.PlanStarter, time.Now().UTC())
	s.Require().NoError(err)
	s.Require().NoError(orgstore.NewPostgres(s.pg.DB).CreateIfAvailable(ctx, org))
	s.orgID = org.ID
}

func (s *PostgresUserStoreSuite) newUser(email string) *models.User {
	return &models.User{
		ID:           id.UserID(uuid.New()),
		OrgID:        s.orgID,
		Email:        email,
		Name:         "Test User",
		Role:         models.RoleMember,
		PasswordHash: "$2a$10$not-a-real-hash",
		CreatedAt:    time.Now().UTC(),
	}
}

func (s *PostgresUserStoreSuite) TestCreateAndFind() {
	ctx := context.Background()
	u := s.newUser("alice@example.com")

	s.Require().NoError(s.store.CreateIfEmailAvailable(ctx, u))

	byID, err := s.store.FindByID(ctx, u.ID)
	s.Require().NoError(err)
	s.Equal(u.Email, byID.Email)
	s.Equal(s.orgID, byID.OrgID)

	byEmail, err := s.store.FindByEmail(ctx, "alice@example.com")
	s.Require().NoError(err)
	s.Equal(u.ID, byEmail.ID)

	_, err = s.store.FindByEmail(ctx, "ghost@example.com")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresUserStoreSuite) TestEmailUniqueness() {
	ctx := context.Background()
	s.Require().NoError(s.store.CreateIfEmailAvailable(ctx, s.newUser("taken@example.com")))

	err := s.store.CreateIfEmailAvailable(ctx, s.newUser("taken@example.com"))
	s.Require().ErrorIs(err, sentinel.ErrAlreadyUsed)
}

func (s *PostgresUserStoreSuite) TestCountByOrg() {
	ctx := context.Background()

	count, err := s.store.CountByOrg(ctx, s.orgID)
	s.Require().NoError(err)
	s.Zero(count)

	s.Require().NoError(s.store.CreateIfEmailAvailable(ctx, s.newUser("one@example.com")))
	s.Require().NoError(s.store.CreateIfEmailAvailable(ctx, s.newUser("two@example.com")))

	count, err = s.store.CountByOrg(ctx, s.orgID)
	s.Require().NoError(err)
	s.Equal(2, count)

	count, err = s.store.CountByOrg(ctx, id.OrgID(uuid.New()))
	s.Require().NoError(err)
	s.Zero(count)
}
