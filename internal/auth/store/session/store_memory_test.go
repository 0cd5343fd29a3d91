package session

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/cryptocrystian/pravado-v2-sub011/internal/auth/models"
	id "github.com/cryptocrystian/pravado-v2-sub011/pkg/domain"
	"github.com/cryptocrystian/pravado-v2-sub011/pkg/platform/sentinel"
)

type InMemorySessionStoreSuite struct {
	suite.Suite
	store *InMemory
}

func (s *InMemorySessionStoreSuite) SetupTest() {
	s.store = NewInMemory()
}

func TestInMemorySessionStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemorySessionStoreSuite))
}

func newTestSession(ttl time.Duration) *models.Session {
	now := time.Now()
	return &models.Session{
		ID:        id.SessionID(uuid.New()),
		UserID:    id.UserID(uuid.New()),
		OrgID:     id.OrgID(uuid.New()),
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

func (s *InMemorySessionStoreSuite) TestSaveAndGet() {
	ctx := context.Background()

	sess := newTestSession(time.Hour)
	s.Require().NoError(s.store.Save(ctx, sess))

	found, err := s.store.Get(ctx, sess.ID)
	s.Require().NoError(err)
	s.Equal(sess.UserID, found.UserID)
	s.Equal(sess.OrgID, found.OrgID)
	s.Nil(found.RevokedAt)
}

func (s *InMemorySessionStoreSuite) TestGetUnknownSession() {
	_, err := s.store.Get(context.Background(), id.SessionID(uuid.New()))
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemorySessionStoreSuite) TestRevoke() {
	ctx := context.Background()

	s.Run("marks session revoked", func() {
		sess := newTestSession(time.Hour)
		s.Require().NoError(s.store.Save(ctx, sess))

		s.Require().NoError(s.store.Revoke(ctx, sess.ID))

		found, err := s.store.Get(ctx, sess.ID)
		s.Require().NoError(err)
		s.NotNil(found.RevokedAt)
		s.False(found.Live(time.Now()))
	})

	s.Run("revoking unknown session returns ErrNotFound", func() {
		err := s.store.Revoke(ctx, id.SessionID(uuid.New()))
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *InMemorySessionStoreSuite) TestLiveness() {
	now := time.Now()

	sess := newTestSession(time.Hour)
	s.True(sess.Live(now))
	s.False(sess.Live(now.Add(2 * time.Hour)))
}
