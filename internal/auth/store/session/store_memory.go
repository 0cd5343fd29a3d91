package session

import (
	"context"
	"sync"
	"time"

	"github.com/cryptocrystian/pravado-v2-sub011/internal/auth/models"
	id "github.com/cryptocrystian/pravado-v2-sub011/pkg/domain"
	"github.com/cryptocrystian/pravado-v2-sub011/pkg/platform/sentinel"
)

// InMemory is the dev/test session store.
type InMemory struct {
	mu       sync.RWMutex
	sessions map[id.SessionID]*models.Session
}

func NewInMemory() *InMemory {
	return &InMemory{sessions: make(map[id.SessionID]*models.Session)}
}

func (s *InMemory) Save(_ context.Context, sess *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *sess
	s.sessions[sess.ID] = &clone
	return nil
}

func (s *InMemory) Get(_ context.Context, sessionID id.SessionID) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *sess
	return &clone, nil
}

func (s *InMemory) Revoke(_ context.Context, sessionID id.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return sentinel.ErrNotFound
	}
	now := time.Now()
	sess.RevokedAt = &now
	return nil
}
