package tenancy

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"tenure.app/internal/audit"
	"tenure.app/internal/identity"
)

func newTestResolver(t *testing.T) (*Resolver, *audit.Memory) {
	t.Helper()
	mem := audit.NewMemory()
	rec, err := audit.NewRecorder(mem)
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}
	resolver, err := NewResolver(rec)
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}
	return resolver, mem
}

func filterMap(f Filter) map[string]any {
	out := make(map[string]any, f.Len())
	for _, c := range f.Conditions() {
		out[c.Field] = c.Value
	}
	return out
}

func TestResidentNarrowsByLeaseFirst(t *testing.T) {
	resolver, _ := newTestResolver(t)
	// Both unit and lease set: the lease, being most specific, must win.
	actor := &identity.Identity{ID: "R1", Role: identity.RoleResident, BuildingID: "B1", UnitID: "U1", LeaseID: "L1"}

	got, err := resolver.Resolve(context.Background(), actor, Request{BuildingID: "B1"}, Filter{}, Options{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	want := map[string]any{"building_id": "B1", "lease_id": "L1"}
	if !reflect.DeepEqual(filterMap(got), want) {
		t.Fatalf("filter = %v, want %v", filterMap(got), want)
	}
}

func TestResidentFallsBackToUnitThenID(t *testing.T) {
	resolver, _ := newTestResolver(t)

	unitOnly := &identity.Identity{ID: "R1", Role: identity.RoleResident, BuildingID: "B1", UnitID: "U1"}
	got, err := resolver.Resolve(context.Background(), unitOnly, Request{BuildingID: "B1"}, Filter{}, Options{})
	if err != nil {
		t.Fatalf("resolve unit-only: %v", err)
	}
	if v, _ := got.Get("unit_id"); v != "U1" {
		t.Fatalf("expected unit narrowing, got %v", filterMap(got))
	}
	if _, ok := got.Get("lease_id"); ok {
		t.Fatal("lease narrowing must be absent")
	}

	idOnly := &identity.Identity{ID: "R1", Role: identity.RoleResident, BuildingID: "B1"}
	got, err = resolver.Resolve(context.Background(), idOnly, Request{BuildingID: "B1"}, Filter{}, Options{})
	if err != nil {
		t.Fatalf("resolve id-only: %v", err)
	}
	if v, _ := got.Get("resident_id"); v != "R1" {
		t.Fatalf("expected resident-id narrowing, got %v", filterMap(got))
	}
}

func TestResidentWithoutAnyIdentifierFailsClosed(t *testing.T) {
	resolver, _ := newTestResolver(t)
	actor := &identity.Identity{Role: identity.RoleResident, BuildingID: "B1"}

	_, err := resolver.Resolve(context.Background(), actor, Request{BuildingID: "B1"}, Filter{}, Options{})
	if !errors.Is(err, ErrScopeMissing) {
		t.Fatalf("expected ErrScopeMissing, got %v", err)
	}
}

func TestResidentBuildingWideSkipsNarrowing(t *testing.T) {
	resolver, _ := newTestResolver(t)
	actor := &identity.Identity{ID: "R1", Role: identity.RoleResident, BuildingID: "B1", LeaseID: "L1"}

	got, err := resolver.Resolve(context.Background(), actor, Request{BuildingID: "B1"}, Filter{}, Options{BuildingWide: true})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	want := map[string]any{"building_id": "B1"}
	if !reflect.DeepEqual(filterMap(got), want) {
		t.Fatalf("filter = %v, want %v", filterMap(got), want)
	}
}

func TestResidentForeignBuildingDenied(t *testing.T) {
	resolver, _ := newTestResolver(t)
	actor := &identity.Identity{ID: "R1", Role: identity.RoleResident, BuildingID: "B1", LeaseID: "L1"}

	_, err := resolver.Resolve(context.Background(), actor, Request{BuildingID: "B2"}, Filter{}, Options{})
	if !errors.Is(err, ErrBuildingDenied) {
		t.Fatalf("expected ErrBuildingDenied, got %v", err)
	}
}

func TestResidentFieldOverrides(t *testing.T) {
	resolver, _ := newTestResolver(t)
	actor := &identity.Identity{ID: "R1", Role: identity.RoleResident, BuildingID: "B1", LeaseID: "L1"}

	// Leases narrow on their own primary key.
	got, err := resolver.Resolve(context.Background(), actor, Request{BuildingID: "B1"}, Filter{}, Options{LeaseField: "id"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if v, _ := got.Get("id"); v != "L1" {
		t.Fatalf("expected id=L1, got %v", filterMap(got))
	}
}

func TestManagementMembership(t *testing.T) {
	resolver, _ := newTestResolver(t)
	actor := &identity.Identity{ID: "M1", Role: identity.RoleManagement, BuildingIDs: []string{"B1", "B2"}}

	got, err := resolver.Resolve(context.Background(), actor, Request{BuildingID: "B2"}, Filter{}, Options{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	// Management is never narrowed below the building.
	want := map[string]any{"building_id": "B2"}
	if !reflect.DeepEqual(filterMap(got), want) {
		t.Fatalf("filter = %v, want %v", filterMap(got), want)
	}

	_, err = resolver.Resolve(context.Background(), actor, Request{BuildingID: "B3"}, Filter{}, Options{})
	if !errors.Is(err, ErrBuildingDenied) {
		t.Fatalf("expected ErrBuildingDenied for unassigned building, got %v", err)
	}
}

func TestManagementDeniedRegardlessOfBaseFilter(t *testing.T) {
	resolver, _ := newTestResolver(t)
	actor := &identity.Identity{ID: "M1", Role: identity.RoleManagement, BuildingIDs: []string{"B1"}}

	base := NewFilter(Cond{Field: "id", Value: "T9"}, Cond{Field: "status", Value: "open"})
	_, err := resolver.Resolve(context.Background(), actor, Request{BuildingID: "B3"}, base, Options{})
	if !errors.Is(err, ErrBuildingDenied) {
		t.Fatalf("expected ErrBuildingDenied, got %v", err)
	}
}

func TestAdminAppendsExactlyOneAuditEntry(t *testing.T) {
	resolver, mem := newTestResolver(t)
	actor := &identity.Identity{ID: "A1", Role: identity.RoleAdmin}

	got, err := resolver.Resolve(context.Background(), actor, Request{
		BuildingID: "B1",
		Path:       "/api/admin/users",
		IP:         "10.0.0.9",
		UserAgent:  "test-agent",
	}, Filter{}, Options{Action: "admin_list_users"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	want := map[string]any{"building_id": "B1"}
	if !reflect.DeepEqual(filterMap(got), want) {
		t.Fatalf("filter = %v, want %v", filterMap(got), want)
	}

	entries := mem.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected exactly one audit entry, got %d", len(entries))
	}
	e := entries[0]
	if e.Action != "admin_list_users" || e.BuildingID != "B1" || e.ActorID != "A1" {
		t.Fatalf("audit entry mismatch: %+v", e)
	}
	if e.Path != "/api/admin/users" || e.IP != "10.0.0.9" || e.UserAgent != "test-agent" {
		t.Fatalf("request metadata not recorded: %+v", e)
	}
}

func TestAdminAuditFailureFailsResolution(t *testing.T) {
	resolver, mem := newTestResolver(t)
	mem.FailWith(errors.New("write refused"))
	actor := &identity.Identity{ID: "A1", Role: identity.RoleAdmin}

	_, err := resolver.Resolve(context.Background(), actor, Request{BuildingID: "B1"}, Filter{}, Options{})
	if err == nil {
		t.Fatal("expected resolution to fail with audit store")
	}
	if len(mem.Entries()) != 0 {
		t.Fatal("no entry should exist after a failed append")
	}
}

func TestAdminRepeatedCallsAreNotDeduplicated(t *testing.T) {
	resolver, mem := newTestResolver(t)
	actor := &identity.Identity{ID: "A1", Role: identity.RoleAdmin}
	req := Request{BuildingID: "B1", Path: "/api/invoices"}

	first, err := resolver.Resolve(context.Background(), actor, req, Filter{}, Options{Action: "list_invoices"})
	if err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	second, err := resolver.Resolve(context.Background(), actor, req, Filter{}, Options{Action: "list_invoices"})
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if !reflect.DeepEqual(filterMap(first), filterMap(second)) {
		t.Fatalf("identical inputs must produce identical filters: %v vs %v", filterMap(first), filterMap(second))
	}
	if len(mem.Entries()) != 2 {
		t.Fatalf("expected two independent audit entries, got %d", len(mem.Entries()))
	}
}

func TestMissingBuildingFailsBeforeRoleDispatch(t *testing.T) {
	resolver, mem := newTestResolver(t)
	actors := []*identity.Identity{
		{ID: "R1", Role: identity.RoleResident, BuildingID: "B1", LeaseID: "L1"},
		{ID: "M1", Role: identity.RoleManagement, BuildingIDs: []string{"B1"}},
		{ID: "A1", Role: identity.RoleAdmin},
	}
	for _, actor := range actors {
		_, err := resolver.Resolve(context.Background(), actor, Request{}, Filter{}, Options{})
		if !errors.Is(err, ErrBuildingRequired) {
			t.Fatalf("role %s: expected ErrBuildingRequired, got %v", actor.Role, err)
		}
	}
	// In particular, no audit entry for the admin: the check precedes dispatch.
	if len(mem.Entries()) != 0 {
		t.Fatalf("expected no audit entries, got %d", len(mem.Entries()))
	}
}

func TestNilIdentityUnauthenticated(t *testing.T) {
	resolver, _ := newTestResolver(t)
	_, err := resolver.Resolve(context.Background(), nil, Request{BuildingID: "B1"}, Filter{}, Options{})
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestUnknownRoleDenied(t *testing.T) {
	resolver, _ := newTestResolver(t)
	actor := &identity.Identity{ID: "X1", Role: identity.RoleUnknown, BuildingID: "B1"}
	_, err := resolver.Resolve(context.Background(), actor, Request{BuildingID: "B1"}, Filter{}, Options{})
	if !errors.Is(err, ErrRoleNotAllowed) {
		t.Fatalf("expected ErrRoleNotAllowed, got %v", err)
	}
}

func TestBaseFilterMergedForSingleRecordLookup(t *testing.T) {
	resolver, _ := newTestResolver(t)
	actor := &identity.Identity{ID: "M1", Role: identity.RoleManagement, BuildingIDs: []string{"B1"}}

	base := NewFilter(Cond{Field: "id", Value: "INV42"})
	got, err := resolver.Resolve(context.Background(), actor, Request{BuildingID: "B1"}, base, Options{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	want := map[string]any{"id": "INV42", "building_id": "B1"}
	if !reflect.DeepEqual(filterMap(got), want) {
		t.Fatalf("filter = %v, want %v", filterMap(got), want)
	}
}
