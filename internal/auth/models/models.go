package models

import (
	"time"

	id "github.com/cryptocrystian/pravado-v2-sub011/pkg/domain"
)

// Role is a user's role within their organization.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// User belongs to exactly one organization. Email is unique platform-wide so
// login does not need an org discriminator.
type User struct {
	ID           id.UserID `json:"id"`
	OrgID        id.OrgID  `json:"org_id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Session is a server-side login session. The cookie carries only the
// session ID; everything else is resolved from the store.
type Session struct {
	ID        id.SessionID `json:"id"`
	UserID    id.UserID    `json:"user_id"`
	OrgID     id.OrgID     `json:"org_id"`
	CreatedAt time.Time    `json:"created_at"`
	ExpiresAt time.Time    `json:"expires_at"`
	RevokedAt *time.Time   `json:"revoked_at,omitempty"`
}

// Live reports whether the session is usable at the given time.
func (s *Session) Live(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}
