// Package identity maps gateway-asserted request identity to mutation
// scopes. Authentication itself is an external collaborator: the
// fronting proxy verifies sessions or API tokens and forwards the
// result as trusted headers.
package identity

import (
	"net/http"
	"strconv"

	"github.com/maneesh/lumina/internal/models"
)

// Headers set by the authenticating proxy
const (
	HeaderUserID   = "X-User-ID"
	HeaderTenantID = "X-Tenant-ID"
	HeaderRole     = "X-User-Role"
)

// Identity is the authenticated caller as asserted by the gateway.
// A zero UserID means an anonymous (public) request.
type Identity struct {
	UserID   int64
	TenantID int64
	Admin    bool
}

// FromRequest extracts the caller identity from gateway headers
func FromRequest(r *http.Request) Identity {
	id := Identity{
		UserID:   parseID(r.Header.Get(HeaderUserID)),
		TenantID: parseID(r.Header.Get(HeaderTenantID)),
	}
	id.Admin = id.UserID != 0 && r.Header.Get(HeaderRole) == "admin"
	return id
}

func parseID(raw string) int64 {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 1 {
		return 0
	}
	return n
}

// Authenticated reports whether the request carries a logged-in user
func (id Identity) Authenticated() bool {
	return id.UserID != 0
}

// Scope returns the mutation scope for this caller: admins operate
// unrestricted, everyone else is confined to their tenant and user.
func (id Identity) Scope() models.Scope {
	if id.Admin {
		return models.Unrestricted()
	}
	return models.Restricted(id.TenantID, id.UserID)
}
