package httpapi

import (
	"net/http"
	"strings"
	"time"

	"tenure.app/internal/identity"
	"tenure.app/internal/property"
	"tenure.app/internal/tenancy"
)

// leaseScope narrows residents by the lease primary key itself; leases have
// no lease_id column of their own.
func leaseScope(action string) tenancy.Options {
	return tenancy.Options{Action: action, LeaseField: "id"}
}

type leaseRequest struct {
	BuildingID string     `json:"building_id"`
	UnitID     string     `json:"unit_id"`
	ResidentID string     `json:"resident_id"`
	StartDate  *time.Time `json:"start_date"`
	EndDate    *time.Time `json:"end_date"`
	Status     string     `json:"status"`
	RentAmount int64      `json:"rent_amount"`
	Currency   string     `json:"currency"`
}

func (a *API) handleLeases(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listLeases(w, r)
	case http.MethodPost:
		a.createLease(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) listLeases(w http.ResponseWriter, r *http.Request) {
	actor, err := a.actor(r)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	filter, err := a.resolveScope(r, actor, declaredBuilding(r, "", ""), tenancy.Filter{}, leaseScope("list_leases"))
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	items, err := a.stores.Leases.List(r.Context(), filter)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": items})
}

// createLease creates the lease and links the resident and unit to it: the
// resident gains a home lease and unit, the unit goes occupied.
func (a *API) createLease(w http.ResponseWriter, r *http.Request) {
	actor, ok := a.requireRole(w, r, identity.RoleManagement, identity.RoleAdmin)
	if !ok {
		return
	}
	var req leaseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.UnitID == "" || req.ResidentID == "" || req.StartDate == nil {
		writeError(w, r, http.StatusBadRequest, "unit_id, resident_id and start_date are required")
		return
	}
	filter, err := a.resolveScope(r, actor, declaredBuilding(r, "", req.BuildingID), tenancy.Filter{}, leaseScope("create_lease"))
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	buildingID, _ := filter.Get(tenancy.FieldBuilding)

	status := req.Status
	if status == "" {
		status = property.LeaseActive
	}
	item := &property.Lease{
		BuildingID: buildingID.(string),
		UnitID:     req.UnitID,
		ResidentID: req.ResidentID,
		StartDate:  req.StartDate.UTC(),
		EndDate:    req.EndDate,
		Status:     status,
		RentAmount: req.RentAmount,
		Currency:   req.Currency,
	}
	if err := a.stores.Leases.Create(r.Context(), item); err != nil {
		handleDomainError(w, r, err)
		return
	}

	if _, err := a.identities.Update(r.Context(), req.ResidentID, identity.Update{
		LeaseID: &item.ID,
		UnitID:  &req.UnitID,
	}); err != nil {
		handleDomainError(w, r, err)
		return
	}
	if unit, err := a.stores.Units.Find(r.Context(), filter.With("id", req.UnitID)); err == nil {
		unit.Status = property.UnitOccupied
		if err := a.stores.Units.Update(r.Context(), filter, unit); err != nil {
			handleDomainError(w, r, err)
			return
		}
	}

	writeJSON(w, http.StatusCreated, map[string]any{"data": item})
}

func (a *API) handleLeaseResource(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/leases/"), "/")
	if id, ok := strings.CutSuffix(rest, "/terminate"); ok && !strings.Contains(id, "/") && id != "" {
		if r.Method != http.MethodPost {
			methodNotAllowed(w, r, http.MethodPost)
			return
		}
		a.terminateLease(w, r, id)
		return
	}
	if rest == "" || strings.Contains(rest, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		a.getLease(w, r, rest)
	case http.MethodDelete:
		a.deleteLease(w, r, rest)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost, http.MethodDelete)
	}
}

func (a *API) getLease(w http.ResponseWriter, r *http.Request, id string) {
	actor, err := a.actor(r)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	// The record id goes into the base filter so resident narrowing, which
	// also binds the id column, takes precedence over the requested id.
	base := tenancy.NewFilter(tenancy.Cond{Field: "id", Value: id})
	filter, err := a.resolveScope(r, actor, declaredBuilding(r, "", ""), base, leaseScope("get_lease"))
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	item, err := a.stores.Leases.Find(r.Context(), filter)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if item.ID != id {
		handleDomainError(w, r, property.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": item})
}

type terminateRequest struct {
	BuildingID string     `json:"building_id"`
	Reason     string     `json:"reason"`
	EndDate    *time.Time `json:"end_date"`
}

// terminateLease ends the lease, releases the unit and unlinks the resident.
func (a *API) terminateLease(w http.ResponseWriter, r *http.Request, id string) {
	actor, ok := a.requireRole(w, r, identity.RoleManagement, identity.RoleAdmin)
	if !ok {
		return
	}
	var req terminateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	filter, err := a.resolveScope(r, actor, declaredBuilding(r, "", req.BuildingID), tenancy.Filter{}, leaseScope("terminate_lease"))
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	item, err := a.stores.Leases.Find(r.Context(), filter.With("id", id))
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if item.Status == property.LeaseEnded {
		writeError(w, r, http.StatusConflict, "lease already ended")
		return
	}

	now := time.Now().UTC()
	end := req.EndDate
	if end == nil {
		end = &now
	}
	item.Status = property.LeaseEnded
	item.EndDate = end
	item.TerminationReason = req.Reason
	item.TerminatedAt = &now
	item.TerminatedBy = actor.ID
	if err := a.stores.Leases.Update(r.Context(), filter, item); err != nil {
		handleDomainError(w, r, err)
		return
	}

	if item.ResidentID != "" {
		empty := ""
		if _, err := a.identities.Update(r.Context(), item.ResidentID, identity.Update{LeaseID: &empty}); err != nil && err != identity.ErrNotFound {
			handleDomainError(w, r, err)
			return
		}
	}
	if item.UnitID != "" {
		if unit, err := a.stores.Units.Find(r.Context(), filter.With("id", item.UnitID)); err == nil {
			unit.Status = property.UnitVacant
			if err := a.stores.Units.Update(r.Context(), filter, unit); err != nil {
				handleDomainError(w, r, err)
				return
			}
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": item})
}

func (a *API) deleteLease(w http.ResponseWriter, r *http.Request, id string) {
	actor, ok := a.requireRole(w, r, identity.RoleManagement, identity.RoleAdmin)
	if !ok {
		return
	}
	filter, err := a.resolveScope(r, actor, declaredBuilding(r, "", ""), tenancy.Filter{}, leaseScope("delete_lease"))
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if err := a.stores.Leases.Delete(r.Context(), filter.With("id", id)); err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}
