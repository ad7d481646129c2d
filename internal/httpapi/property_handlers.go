package httpapi

import (
	"net/http"
	"strings"

	"tenure.app/internal/identity"
	"tenure.app/internal/property"
	"tenure.app/internal/tenancy"
)

type unitRequest struct {
	BuildingID string `json:"building_id"`
	Number     string `json:"number"`
	Floor      string `json:"floor"`
	Status     string `json:"status"`
	Beds       int    `json:"beds"`
	Baths      int    `json:"baths"`
	SizeSqft   int    `json:"size_sqft"`
}

func (a *API) handleUnits(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listUnits(w, r)
	case http.MethodPost:
		a.createUnit(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) listUnits(w http.ResponseWriter, r *http.Request) {
	actor, err := a.actor(r)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	filter, err := a.resolveScope(r, actor, declaredBuilding(r, "", ""), tenancy.Filter{}, tenancy.Options{
		Action:       "list_units",
		BuildingWide: true,
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	items, err := a.stores.Units.List(r.Context(), filter)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": items})
}

func (a *API) createUnit(w http.ResponseWriter, r *http.Request) {
	actor, ok := a.requireRole(w, r, identity.RoleManagement, identity.RoleAdmin)
	if !ok {
		return
	}
	var req unitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Number) == "" {
		writeError(w, r, http.StatusBadRequest, "number is required")
		return
	}
	filter, err := a.resolveScope(r, actor, declaredBuilding(r, "", req.BuildingID), tenancy.Filter{}, tenancy.Options{
		Action:       "create_unit",
		BuildingWide: true,
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	buildingID, _ := filter.Get(tenancy.FieldBuilding)

	status := req.Status
	if status == "" {
		status = property.UnitVacant
	}
	item := &property.Unit{
		BuildingID: buildingID.(string),
		Number:     strings.TrimSpace(req.Number),
		Floor:      req.Floor,
		Status:     status,
		Beds:       req.Beds,
		Baths:      req.Baths,
		SizeSqft:   req.SizeSqft,
	}
	if err := a.stores.Units.Create(r.Context(), item); err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"data": item})
}

func (a *API) handleUnitResource(w http.ResponseWriter, r *http.Request) {
	id := resourceID(r.URL.Path, "/api/units/")
	if id == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		a.getUnit(w, r, id)
	case http.MethodPatch:
		a.updateUnit(w, r, id)
	case http.MethodDelete:
		a.deleteUnit(w, r, id)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch, http.MethodDelete)
	}
}

func (a *API) getUnit(w http.ResponseWriter, r *http.Request, id string) {
	actor, err := a.actor(r)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	filter, err := a.resolveScope(r, actor, declaredBuilding(r, "", ""), tenancy.Filter{}, tenancy.Options{
		Action:       "get_unit",
		BuildingWide: true,
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	item, err := a.stores.Units.Find(r.Context(), filter.With("id", id))
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": item})
}

func (a *API) updateUnit(w http.ResponseWriter, r *http.Request, id string) {
	actor, ok := a.requireRole(w, r, identity.RoleManagement, identity.RoleAdmin)
	if !ok {
		return
	}
	var req unitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	filter, err := a.resolveScope(r, actor, declaredBuilding(r, "", req.BuildingID), tenancy.Filter{}, tenancy.Options{
		Action:       "update_unit",
		BuildingWide: true,
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	item, err := a.stores.Units.Find(r.Context(), filter.With("id", id))
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if req.Number != "" {
		item.Number = strings.TrimSpace(req.Number)
	}
	if req.Floor != "" {
		item.Floor = req.Floor
	}
	if req.Status != "" {
		item.Status = req.Status
	}
	if req.Beds > 0 {
		item.Beds = req.Beds
	}
	if req.Baths > 0 {
		item.Baths = req.Baths
	}
	if req.SizeSqft > 0 {
		item.SizeSqft = req.SizeSqft
	}
	if err := a.stores.Units.Update(r.Context(), filter, item); err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": item})
}

func (a *API) deleteUnit(w http.ResponseWriter, r *http.Request, id string) {
	actor, ok := a.requireRole(w, r, identity.RoleManagement, identity.RoleAdmin)
	if !ok {
		return
	}
	filter, err := a.resolveScope(r, actor, declaredBuilding(r, "", ""), tenancy.Filter{}, tenancy.Options{
		Action:       "delete_unit",
		BuildingWide: true,
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if err := a.stores.Units.Delete(r.Context(), filter.With("id", id)); err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}

type buildingRequest struct {
	Name          string   `json:"name"`
	Code          string   `json:"code"`
	AddressLine1  string   `json:"address_line1"`
	AddressLine2  string   `json:"address_line2"`
	City          string   `json:"city"`
	State         string   `json:"state"`
	PostalCode    string   `json:"postal_code"`
	Country       string   `json:"country"`
	Status        string   `json:"status"`
	ManagementIDs []string `json:"management_ids"`
}

// Buildings are the tenancy registry itself, so these handlers are role
// gated rather than scope resolved.
func (a *API) handleBuildings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listBuildings(w, r)
	case http.MethodPost:
		a.createBuilding(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) listBuildings(w http.ResponseWriter, r *http.Request) {
	actor, ok := a.requireRole(w, r, identity.RoleManagement, identity.RoleAdmin)
	if !ok {
		return
	}
	items, err := a.stores.Buildings.List(r.Context())
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	// Management only sees its own portfolio.
	if actor.Role == identity.RoleManagement {
		assigned := make(map[string]bool, len(actor.BuildingIDs))
		for _, id := range actor.BuildingIDs {
			assigned[id] = true
		}
		mine := items[:0]
		for _, b := range items {
			if assigned[b.ID] {
				mine = append(mine, b)
			}
		}
		items = mine
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": items})
}

func (a *API) createBuilding(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.requireRole(w, r, identity.RoleAdmin); !ok {
		return
	}
	var req buildingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, r, http.StatusBadRequest, "name is required")
		return
	}
	status := req.Status
	if status == "" {
		status = "active"
	}
	item := &property.Building{
		Name:          strings.TrimSpace(req.Name),
		Code:          req.Code,
		AddressLine1:  req.AddressLine1,
		AddressLine2:  req.AddressLine2,
		City:          req.City,
		State:         req.State,
		PostalCode:    req.PostalCode,
		Country:       req.Country,
		Status:        status,
		ManagementIDs: req.ManagementIDs,
	}
	if err := a.stores.Buildings.Create(r.Context(), item); err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"data": item})
}

func (a *API) handleBuildingResource(w http.ResponseWriter, r *http.Request) {
	id := resourceID(r.URL.Path, "/api/buildings/")
	if id == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		a.getBuilding(w, r, id)
	case http.MethodPatch:
		a.updateBuilding(w, r, id)
	case http.MethodDelete:
		a.deleteBuilding(w, r, id)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch, http.MethodDelete)
	}
}

func (a *API) getBuilding(w http.ResponseWriter, r *http.Request, id string) {
	actor, ok := a.requireRole(w, r, identity.RoleManagement, identity.RoleAdmin)
	if !ok {
		return
	}
	if actor.Role == identity.RoleManagement && !actor.AssignedTo(id) {
		handleDomainError(w, r, tenancy.ErrBuildingDenied)
		return
	}
	item, err := a.stores.Buildings.Find(r.Context(), id)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": item})
}

func (a *API) updateBuilding(w http.ResponseWriter, r *http.Request, id string) {
	actor, ok := a.requireRole(w, r, identity.RoleManagement, identity.RoleAdmin)
	if !ok {
		return
	}
	if actor.Role == identity.RoleManagement && !actor.AssignedTo(id) {
		handleDomainError(w, r, tenancy.ErrBuildingDenied)
		return
	}
	var req buildingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	item, err := a.stores.Buildings.Find(r.Context(), id)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if req.Name != "" {
		item.Name = strings.TrimSpace(req.Name)
	}
	if req.Code != "" {
		item.Code = req.Code
	}
	if req.AddressLine1 != "" {
		item.AddressLine1 = req.AddressLine1
	}
	if req.AddressLine2 != "" {
		item.AddressLine2 = req.AddressLine2
	}
	if req.City != "" {
		item.City = req.City
	}
	if req.State != "" {
		item.State = req.State
	}
	if req.PostalCode != "" {
		item.PostalCode = req.PostalCode
	}
	if req.Country != "" {
		item.Country = req.Country
	}
	if req.Status != "" {
		item.Status = req.Status
	}
	if req.ManagementIDs != nil {
		item.ManagementIDs = req.ManagementIDs
	}
	if err := a.stores.Buildings.Update(r.Context(), item); err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": item})
}

func (a *API) deleteBuilding(w http.ResponseWriter, r *http.Request, id string) {
	if _, ok := a.requireRole(w, r, identity.RoleAdmin); !ok {
		return
	}
	if err := a.stores.Buildings.Delete(r.Context(), id); err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}

type agentRequest struct {
	BuildingID string `json:"building_id"`
	Name       string `json:"name"`
	Trade      string `json:"trade"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Company    string `json:"company"`
	Status     string `json:"status"`
	Notes      string `json:"notes"`
}

func (a *API) handleServiceAgents(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listServiceAgents(w, r)
	case http.MethodPost:
		a.createServiceAgent(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) listServiceAgents(w http.ResponseWriter, r *http.Request) {
	actor, ok := a.requireRole(w, r, identity.RoleManagement, identity.RoleAdmin)
	if !ok {
		return
	}
	filter, err := a.resolveScope(r, actor, declaredBuilding(r, "", ""), tenancy.Filter{}, tenancy.Options{
		Action:       "list_service_agents",
		BuildingWide: true,
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	items, err := a.stores.ServiceAgents.List(r.Context(), filter)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": items})
}

func (a *API) createServiceAgent(w http.ResponseWriter, r *http.Request) {
	actor, ok := a.requireRole(w, r, identity.RoleManagement, identity.RoleAdmin)
	if !ok {
		return
	}
	var req agentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, r, http.StatusBadRequest, "name is required")
		return
	}
	filter, err := a.resolveScope(r, actor, declaredBuilding(r, "", req.BuildingID), tenancy.Filter{}, tenancy.Options{
		Action:       "create_service_agent",
		BuildingWide: true,
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	buildingID, _ := filter.Get(tenancy.FieldBuilding)

	trade := req.Trade
	if trade == "" {
		trade = property.TradeOther
	}
	status := req.Status
	if status == "" {
		status = "active"
	}
	item := &property.ServiceAgent{
		BuildingID: buildingID.(string),
		Name:       strings.TrimSpace(req.Name),
		Trade:      trade,
		Email:      req.Email,
		Phone:      req.Phone,
		Company:    req.Company,
		Status:     status,
		Notes:      req.Notes,
	}
	if err := a.stores.ServiceAgents.Create(r.Context(), item); err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"data": item})
}

func (a *API) handleServiceAgentResource(w http.ResponseWriter, r *http.Request) {
	id := resourceID(r.URL.Path, "/api/service-agents/")
	if id == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	actor, ok := a.requireRole(w, r, identity.RoleManagement, identity.RoleAdmin)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		a.getServiceAgent(w, r, actor, id)
	case http.MethodPatch:
		a.updateServiceAgent(w, r, actor, id)
	case http.MethodDelete:
		a.deleteServiceAgent(w, r, actor, id)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch, http.MethodDelete)
	}
}

func (a *API) getServiceAgent(w http.ResponseWriter, r *http.Request, actor *identity.Identity, id string) {
	filter, err := a.resolveScope(r, actor, declaredBuilding(r, "", ""), tenancy.Filter{}, tenancy.Options{
		Action:       "get_service_agent",
		BuildingWide: true,
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	item, err := a.stores.ServiceAgents.Find(r.Context(), filter.With("id", id))
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": item})
}

func (a *API) updateServiceAgent(w http.ResponseWriter, r *http.Request, actor *identity.Identity, id string) {
	var req agentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	filter, err := a.resolveScope(r, actor, declaredBuilding(r, "", req.BuildingID), tenancy.Filter{}, tenancy.Options{
		Action:       "update_service_agent",
		BuildingWide: true,
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	item, err := a.stores.ServiceAgents.Find(r.Context(), filter.With("id", id))
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if req.Name != "" {
		item.Name = strings.TrimSpace(req.Name)
	}
	if req.Trade != "" {
		item.Trade = req.Trade
	}
	if req.Email != "" {
		item.Email = req.Email
	}
	if req.Phone != "" {
		item.Phone = req.Phone
	}
	if req.Company != "" {
		item.Company = req.Company
	}
	if req.Status != "" {
		item.Status = req.Status
	}
	if req.Notes != "" {
		item.Notes = req.Notes
	}
	if err := a.stores.ServiceAgents.Update(r.Context(), filter, item); err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": item})
}

func (a *API) deleteServiceAgent(w http.ResponseWriter, r *http.Request, actor *identity.Identity, id string) {
	filter, err := a.resolveScope(r, actor, declaredBuilding(r, "", ""), tenancy.Filter{}, tenancy.Options{
		Action:       "delete_service_agent",
		BuildingWide: true,
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if err := a.stores.ServiceAgents.Delete(r.Context(), filter.With("id", id)); err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}
