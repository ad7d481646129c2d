// Package tenancy derives per-request storage filters that enforce tenant
// boundaries. Every scoped endpoint resolves exactly one scope before
// touching storage; the resulting filter is the only thing that keeps one
// building's (and one resident's) records away from another's.
package tenancy

import (
	"context"
	"fmt"
	"strings"

	"tenure.app/internal/audit"
	"tenure.app/internal/identity"
	"tenure.app/internal/obs"
)

// Narrowing column defaults. Per-call overrides cover entities whose schema
// diverges (leases narrow on their own primary key, tickets and threads on
// resident_id).
const (
	DefaultResidentField = "resident_id"
	DefaultUnitField     = "unit_id"
	DefaultLeaseField    = "lease_id"

	defaultAction = "admin_access"
)

// Request carries the declared building and the request metadata recorded
// when an admin resolution is audited.
type Request struct {
	BuildingID string
	Path       string
	IP         string
	UserAgent  string
}

// Options configures one resolution.
//
// BuildingWide skips resident narrowing for building-wide reads
// (announcements, community chat). The zero value keeps narrowing on, so
// forgetting to set anything fails closed.
type Options struct {
	Action        string
	BuildingWide  bool
	ResidentField string
	UnitField     string
	LeaseField    string
}

func (o Options) residentField() string {
	if o.ResidentField != "" {
		return o.ResidentField
	}
	return DefaultResidentField
}

func (o Options) unitField() string {
	if o.UnitField != "" {
		return o.UnitField
	}
	return DefaultUnitField
}

func (o Options) leaseField() string {
	if o.LeaseField != "" {
		return o.LeaseField
	}
	return DefaultLeaseField
}

func (o Options) action() string {
	if o.Action != "" {
		return o.Action
	}
	return defaultAction
}

// Resolver derives storage filters from the acting identity. Admin
// resolutions append one audit entry each before the filter is released;
// audit durability is a precondition for admin access, not a side channel.
type Resolver struct {
	audit audit.Store
}

// NewResolver constructs a resolver over the given audit store.
func NewResolver(auditStore audit.Store) (*Resolver, error) {
	if auditStore == nil {
		return nil, fmt.Errorf("audit store is required")
	}
	return &Resolver{audit: auditStore}, nil
}

// Resolve merges the declared building into base and applies role policy:
//
//   - management must have the building in its assignment set; no narrowing.
//   - residents are pinned to their home building and, unless BuildingWide,
//     narrowed by lease, then unit, then their own id. A resident with none
//     of the three is denied: a missing identifier must never widen into an
//     all-building query.
//   - admin sees the whole building, after exactly one audit entry.
//
// All failures are terminal for the request. The narrowing priority
// lease > unit > resident id is load-bearing access policy; do not reorder.
func (r *Resolver) Resolve(ctx context.Context, actor *identity.Identity, req Request, base Filter, opts Options) (Filter, error) {
	if actor == nil {
		obs.ObserveScopeResolution("none", "denied")
		return Filter{}, ErrUnauthenticated
	}

	role := actor.Role.String()
	buildingID := strings.TrimSpace(req.BuildingID)
	if buildingID == "" {
		// Checked before role dispatch: no role gets a default building.
		obs.ObserveScopeResolution(role, "denied")
		return Filter{}, ErrBuildingRequired
	}

	filter := base.With(FieldBuilding, buildingID)

	switch actor.Role {
	case identity.RoleManagement:
		if !actor.AssignedTo(buildingID) {
			obs.ObserveScopeResolution(role, "denied")
			return Filter{}, ErrBuildingDenied
		}

	case identity.RoleResident:
		if home := actor.HomeBuilding(); home != "" && home != buildingID {
			obs.ObserveScopeResolution(role, "denied")
			return Filter{}, ErrBuildingDenied
		}
		if !opts.BuildingWide {
			switch {
			case actor.LeaseID != "":
				filter = filter.With(opts.leaseField(), actor.LeaseID)
			case actor.UnitID != "":
				filter = filter.With(opts.unitField(), actor.UnitID)
			case actor.ID != "":
				filter = filter.With(opts.residentField(), actor.ID)
			default:
				obs.ObserveScopeResolution(role, "denied")
				return Filter{}, ErrScopeMissing
			}
		}

	case identity.RoleAdmin:
		entry := &audit.Entry{
			ActorID:    actor.ID,
			Role:       role,
			Action:     opts.action(),
			Path:       req.Path,
			BuildingID: buildingID,
			IP:         req.IP,
			UserAgent:  req.UserAgent,
		}
		if err := r.audit.Append(ctx, entry); err != nil {
			obs.ObserveScopeResolution(role, "denied")
			return Filter{}, fmt.Errorf("audit append: %w", err)
		}

	default:
		obs.ObserveScopeResolution(role, "denied")
		return Filter{}, ErrRoleNotAllowed
	}

	obs.ObserveScopeResolution(role, "allowed")
	return filter, nil
}
