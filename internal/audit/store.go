package audit

import (
	"context"

	id "github.com/cryptocrystian/pravado-v2-sub011/pkg/domain"
)

// Store persists audit events. Append-only: no update or delete operations
// exist by design.
type Store interface {
	Append(ctx context.Context, event Event) error
	// ListByOrg returns the newest events for an organization, newest first,
	// capped at limit.
	ListByOrg(ctx context.Context, orgID id.OrgID, limit int) ([]Event, error)
}
