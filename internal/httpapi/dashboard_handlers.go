package httpapi

import (
	"net/http"
	"time"

	"tenure.app/internal/identity"
	"tenure.app/internal/property"
	"tenure.app/internal/tenancy"
)

// handleDashboard aggregates per-building counts through a single scope
// resolution. Residents count only what they own (tickets, invoices,
// threads) plus the building's published announcements.
func (a *API) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	actor, err := a.actor(r)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	filter, err := a.resolveScope(r, actor, declaredBuilding(r, "", ""), residentPin(actor, tenancy.Filter{}), tenancy.Options{
		Action:       "dashboard",
		BuildingWide: true,
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	ctx := r.Context()
	buildingID, _ := filter.Get(tenancy.FieldBuilding)
	buildingFilter := tenancy.NewFilter(tenancy.Cond{Field: tenancy.FieldBuilding, Value: buildingID})

	announcements, err := a.stores.Announcements.List(ctx, buildingFilter)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	announcementCount := 0
	now := time.Now().UTC()
	for _, item := range announcements {
		if actor.Role == identity.RoleResident {
			if item.Status != property.AnnouncementPublished {
				continue
			}
			if item.PublishAt != nil && item.PublishAt.After(now) {
				continue
			}
		}
		announcementCount++
	}

	threads, err := a.stores.Threads.List(ctx, filter)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}

	tickets, err := a.stores.Tickets.List(ctx, filter)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	openTickets := 0
	for _, t := range tickets {
		if t.Status != property.TicketClosed {
			openTickets++
		}
	}

	// Invoices carry a lease column, so the resident pin does not apply to
	// them; scope by resident id directly for residents.
	invoiceFilter := buildingFilter
	if actor.Role == identity.RoleResident {
		invoiceFilter = invoiceFilter.With("resident_id", actor.ID)
	}
	invoices, err := a.stores.Invoices.List(ctx, invoiceFilter)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	openInvoices := 0
	for _, inv := range invoices {
		if inv.Status == property.InvoiceOpen || inv.Status == property.InvoiceOverdue {
			openInvoices++
		}
	}

	units, err := a.stores.Units.List(ctx, buildingFilter)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}

	// Leases carry a resident column, so resident scoping is direct.
	leaseFilter := buildingFilter
	if actor.Role == identity.RoleResident {
		leaseFilter = leaseFilter.With("resident_id", actor.ID)
	}
	leases, err := a.stores.Leases.List(ctx, leaseFilter)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	activeLeases := 0
	for _, l := range leases {
		if l.Status == property.LeaseActive {
			activeLeases++
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{
			"announcements": announcementCount,
			"threads":       len(threads),
			"open_tickets":  openTickets,
			"open_invoices": openInvoices,
			"active_leases": activeLeases,
			"units":         len(units),
		},
	})
}
