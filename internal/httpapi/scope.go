package httpapi

import (
	"net/http"
	"strings"

	"tenure.app/internal/identity"
	"tenure.app/internal/tenancy"
)

// declaredBuilding picks the building id the client declared, in fixed
// precedence: path segment, then query string, then JSON body.
func declaredBuilding(r *http.Request, fromPath, fromBody string) string {
	if v := strings.TrimSpace(fromPath); v != "" {
		return v
	}
	if v := strings.TrimSpace(r.URL.Query().Get("buildingId")); v != "" {
		return v
	}
	return strings.TrimSpace(fromBody)
}

// resolveScope runs the one scope resolution a handler is allowed, feeding
// the resolver the request metadata the audit trail records.
func (a *API) resolveScope(r *http.Request, actor *identity.Identity, buildingID string, base tenancy.Filter, opts tenancy.Options) (tenancy.Filter, error) {
	return a.scope.Resolve(r.Context(), actor, tenancy.Request{
		BuildingID: buildingID,
		Path:       r.URL.Path,
		IP:         clientIP(r),
		UserAgent:  r.UserAgent(),
	}, base, opts)
}

// residentPin adds per-resident ownership to the base filter for entities
// whose schema has no lease column (tickets, threads). Those handlers
// resolve building-wide and carry the pin in the base instead; isolation
// stays fail-closed because the pin uses the actor's own id.
func residentPin(actor *identity.Identity, base tenancy.Filter) tenancy.Filter {
	if actor != nil && actor.Role == identity.RoleResident {
		return base.With("resident_id", actor.ID)
	}
	return base
}
