// Package user persists user accounts.
package user

import (
	"context"

	"github.com/cryptocrystian/pravado-v2-sub011/internal/auth/models"
	id "github.com/cryptocrystian/pravado-v2-sub011/pkg/domain"
)

// Store persists users. Implementations return sentinel errors for
// infrastructure facts.
type Store interface {
	// CreateIfEmailAvailable inserts the user unless the email is taken
	// (case-insensitive). Returns sentinel.ErrAlreadyUsed on collision.
	CreateIfEmailAvailable(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, userID id.UserID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	CountByOrg(ctx context.Context, orgID id.OrgID) (int, error)
}
