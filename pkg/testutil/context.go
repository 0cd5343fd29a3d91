package testutil

import (
	"net/http"
	"time"

	id "github.com/cryptocrystian/pravado-v2-sub011/pkg/domain"
	"github.com/cryptocrystian/pravado-v2-sub011/pkg/requestcontext"
)

// WithPrincipal injects user, session, and org IDs into the request context,
// simulating what the auth middleware does for authenticated requests.
func WithPrincipal(req *http.Request, userID id.UserID, sessionID id.SessionID, orgID id.OrgID) *http.Request {
	ctx := req.Context()
	ctx = requestcontext.WithUserID(ctx, userID)
	ctx = requestcontext.WithSessionID(ctx, sessionID)
	ctx = requestcontext.WithOrgID(ctx, orgID)
	return req.WithContext(ctx)
}

// WithOrg injects only the org scope.
func WithOrg(req *http.Request, orgID id.OrgID) *http.Request {
	return req.WithContext(requestcontext.WithOrgID(req.Context(), orgID))
}

// WithFixedTime pins the request-scoped clock so handlers produce
// deterministic timestamps.
func WithFixedTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}
