// Package store defines the organization persistence contract.
package store

import (
	"context"

	"github.com/cryptocrystian/pravado-v2-sub011/internal/org/models"
	id "github.com/cryptocrystian/pravado-v2-sub011/pkg/domain"
)

// OrgStore persists organizations. Implementations return
// pkg/platform/sentinel errors for infrastructure facts.
type OrgStore interface {
	// CreateIfAvailable inserts the organization unless its name or slug is
	// already taken (case-insensitive). Returns sentinel.ErrAlreadyUsed on
	// collision.
	CreateIfAvailable(ctx context.Context, org *models.Organization) error

	FindByID(ctx context.Context, orgID id.OrgID) (*models.Organization, error)
	FindBySlug(ctx context.Context, slug string) (*models.Organization, error)

	// Execute atomically validates then mutates an organization while holding
	// the row lock (mutex in memory, FOR UPDATE in Postgres).
	Execute(ctx context.Context, orgID id.OrgID, validate func(*models.Organization) error, mutate func(*models.Organization)) (*models.Organization, error)
}
