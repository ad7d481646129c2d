package httpapi

import (
	"net/http"
	"time"

	"tenure.app/internal/identity"
	"tenure.app/internal/property"
	"tenure.app/internal/tenancy"
)

type invoiceRequest struct {
	BuildingID string              `json:"building_id"`
	ResidentID string              `json:"resident_id"`
	UnitID     string              `json:"unit_id"`
	LeaseID    string              `json:"lease_id"`
	Amount     int64               `json:"amount"`
	Currency   string              `json:"currency"`
	DueDate    *time.Time          `json:"due_date"`
	Status     string              `json:"status"`
	LineItems  []property.LineItem `json:"line_items"`
}

func (a *API) handleInvoices(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listInvoices(w, r)
	case http.MethodPost:
		a.createInvoice(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

// listInvoices relies on the resolver's default narrowing: a resident with
// an active lease only ever sees that lease's invoices.
func (a *API) listInvoices(w http.ResponseWriter, r *http.Request) {
	actor, err := a.actor(r)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	filter, err := a.resolveScope(r, actor, declaredBuilding(r, "", ""), tenancy.Filter{}, tenancy.Options{
		Action: "list_invoices",
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	items, err := a.stores.Invoices.List(r.Context(), filter)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": items})
}

func (a *API) createInvoice(w http.ResponseWriter, r *http.Request) {
	actor, ok := a.requireRole(w, r, identity.RoleManagement, identity.RoleAdmin)
	if !ok {
		return
	}
	var req invoiceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Amount <= 0 {
		writeError(w, r, http.StatusBadRequest, "amount must be positive")
		return
	}
	filter, err := a.resolveScope(r, actor, declaredBuilding(r, "", req.BuildingID), tenancy.Filter{}, tenancy.Options{
		Action: "create_invoice",
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	buildingID, _ := filter.Get(tenancy.FieldBuilding)

	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}
	status := req.Status
	if status == "" {
		status = property.InvoiceOpen
	}
	item := &property.Invoice{
		BuildingID: buildingID.(string),
		ResidentID: req.ResidentID,
		UnitID:     req.UnitID,
		LeaseID:    req.LeaseID,
		Amount:     req.Amount,
		Currency:   currency,
		DueDate:    req.DueDate,
		Status:     status,
		LineItems:  req.LineItems,
	}
	if err := a.stores.Invoices.Create(r.Context(), item); err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"data": item})
}

func (a *API) handleInvoiceResource(w http.ResponseWriter, r *http.Request) {
	id := resourceID(r.URL.Path, "/api/invoices/")
	if id == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		a.getInvoice(w, r, id)
	case http.MethodPatch:
		a.updateInvoice(w, r, id)
	case http.MethodDelete:
		a.deleteInvoice(w, r, id)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch, http.MethodDelete)
	}
}

func (a *API) getInvoice(w http.ResponseWriter, r *http.Request, id string) {
	actor, err := a.actor(r)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	filter, err := a.resolveScope(r, actor, declaredBuilding(r, "", ""), tenancy.Filter{}, tenancy.Options{
		Action: "get_invoice",
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	item, err := a.stores.Invoices.Find(r.Context(), filter.With("id", id))
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": item})
}

func (a *API) updateInvoice(w http.ResponseWriter, r *http.Request, id string) {
	actor, ok := a.requireRole(w, r, identity.RoleManagement, identity.RoleAdmin)
	if !ok {
		return
	}
	var req invoiceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	filter, err := a.resolveScope(r, actor, declaredBuilding(r, "", req.BuildingID), tenancy.Filter{}, tenancy.Options{
		Action: "update_invoice",
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	item, err := a.stores.Invoices.Find(r.Context(), filter.With("id", id))
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if req.Amount > 0 {
		item.Amount = req.Amount
	}
	if req.Currency != "" {
		item.Currency = req.Currency
	}
	if req.Status != "" {
		item.Status = req.Status
	}
	if req.DueDate != nil {
		item.DueDate = req.DueDate
	}
	if req.LineItems != nil {
		item.LineItems = req.LineItems
	}
	if err := a.stores.Invoices.Update(r.Context(), filter, item); err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": item})
}

func (a *API) deleteInvoice(w http.ResponseWriter, r *http.Request, id string) {
	actor, ok := a.requireRole(w, r, identity.RoleManagement, identity.RoleAdmin)
	if !ok {
		return
	}
	filter, err := a.resolveScope(r, actor, declaredBuilding(r, "", ""), tenancy.Filter{}, tenancy.Options{
		Action: "delete_invoice",
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if err := a.stores.Invoices.Delete(r.Context(), filter.With("id", id)); err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}
