// Package session persists login sessions.
package session

import (
	"context"

	"github.com/cryptocrystian/pravado-v2-sub011/internal/auth/models"
	id "github.com/cryptocrystian/pravado-v2-sub011/pkg/domain"
)

// Store persists sessions. Get returns sentinel.ErrNotFound for unknown or
// evicted sessions; liveness (expiry, revocation) is the service's concern.
type Store interface {
	Save(ctx context.Context, s *models.Session) error
	Get(ctx context.Context, sessionID id.SessionID) (*models.Session, error)
	Revoke(ctx context.Context, sessionID id.SessionID) error
}
