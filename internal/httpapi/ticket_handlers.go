package httpapi

import (
	"net/http"
	"strings"
	"time"

	"tenure.app/internal/identity"
	"tenure.app/internal/property"
	"tenure.app/internal/tenancy"
)

type ticketRequest struct {
	BuildingID        string     `json:"building_id"`
	ResidentID        string     `json:"resident_id"`
	UnitID            string     `json:"unit_id"`
	Title             string     `json:"title"`
	Description       string     `json:"description"`
	AssignedAgentID   string     `json:"assigned_agent_id"`
	AssignedAgentName string     `json:"assigned_agent_name"`
	Status            string     `json:"status"`
	Priority          string     `json:"priority"`
	CompletionNotes   string     `json:"completion_notes"`
	DueDate           *time.Time `json:"due_date"`
}

func (a *API) handleTickets(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listTickets(w, r)
	case http.MethodPost:
		a.createTicket(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

// Tickets have no lease column, so resident isolation rides in the base
// filter and the scope resolves building-wide.
func (a *API) listTickets(w http.ResponseWriter, r *http.Request) {
	actor, err := a.actor(r)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	filter, err := a.resolveScope(r, actor, declaredBuilding(r, "", ""), residentPin(actor, tenancy.Filter{}), tenancy.Options{
		Action:       "list_tickets",
		BuildingWide: true,
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	items, err := a.stores.Tickets.List(r.Context(), filter)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": items})
}

func (a *API) createTicket(w http.ResponseWriter, r *http.Request) {
	actor, err := a.actor(r)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	var req ticketRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeError(w, r, http.StatusBadRequest, "title is required")
		return
	}
	filter, err := a.resolveScope(r, actor, declaredBuilding(r, "", req.BuildingID), tenancy.Filter{}, tenancy.Options{
		Action:       "create_ticket",
		BuildingWide: true,
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	buildingID, _ := filter.Get(tenancy.FieldBuilding)

	residentID := req.ResidentID
	unitID := req.UnitID
	// Residents always file on their own behalf, whatever the body says.
	if actor.Role == identity.RoleResident {
		residentID = actor.ID
		unitID = actor.UnitID
	}
	priority := req.Priority
	if priority == "" {
		priority = property.PriorityMedium
	}
	item := &property.Ticket{
		BuildingID:  buildingID.(string),
		ResidentID:  residentID,
		UnitID:      unitID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Status:      property.TicketOpen,
		Priority:    priority,
		DueDate:     req.DueDate,
	}
	if err := a.stores.Tickets.Create(r.Context(), item); err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"data": item})
}

func (a *API) handleTicketResource(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/tickets/"), "/")
	if id, ok := strings.CutSuffix(rest, "/notes"); ok && !strings.Contains(id, "/") && id != "" {
		a.handleTicketNotes(w, r, id)
		return
	}
	if rest == "" || strings.Contains(rest, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		a.getTicket(w, r, rest)
	case http.MethodPatch:
		a.updateTicket(w, r, rest)
	case http.MethodDelete:
		a.deleteTicket(w, r, rest)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch, http.MethodDelete)
	}
}

func (a *API) getTicket(w http.ResponseWriter, r *http.Request, id string) {
	actor, err := a.actor(r)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	filter, err := a.resolveScope(r, actor, declaredBuilding(r, "", ""), residentPin(actor, tenancy.Filter{}), tenancy.Options{
		Action:       "get_ticket",
		BuildingWide: true,
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	item, err := a.stores.Tickets.Find(r.Context(), filter.With("id", id))
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": item})
}

func (a *API) updateTicket(w http.ResponseWriter, r *http.Request, id string) {
	actor, ok := a.requireRole(w, r, identity.RoleManagement, identity.RoleAdmin)
	if !ok {
		return
	}
	var req ticketRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	filter, err := a.resolveScope(r, actor, declaredBuilding(r, "", req.BuildingID), tenancy.Filter{}, tenancy.Options{
		Action:       "update_ticket",
		BuildingWide: true,
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	item, err := a.stores.Tickets.Find(r.Context(), filter.With("id", id))
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if req.Title != "" {
		item.Title = strings.TrimSpace(req.Title)
	}
	if req.Description != "" {
		item.Description = req.Description
	}
	if req.Priority != "" {
		item.Priority = req.Priority
	}
	if req.AssignedAgentID != "" {
		item.AssignedAgentID = req.AssignedAgentID
		item.AssignedAgentName = req.AssignedAgentName
	}
	if req.DueDate != nil {
		item.DueDate = req.DueDate
	}
	if req.Status != "" && req.Status != item.Status {
		item.Status = req.Status
		if req.Status == property.TicketResolved || req.Status == property.TicketClosed {
			now := time.Now().UTC()
			item.CompletedAt = &now
			item.CompletedBy = actor.ID
			item.CompletionNotes = req.CompletionNotes
		}
	}
	if err := a.stores.Tickets.Update(r.Context(), filter, item); err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": item})
}

func (a *API) deleteTicket(w http.ResponseWriter, r *http.Request, id string) {
	actor, ok := a.requireRole(w, r, identity.RoleManagement, identity.RoleAdmin)
	if !ok {
		return
	}
	filter, err := a.resolveScope(r, actor, declaredBuilding(r, "", ""), tenancy.Filter{}, tenancy.Options{
		Action:       "delete_ticket",
		BuildingWide: true,
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if err := a.stores.Tickets.Delete(r.Context(), filter.With("id", id)); err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}

type ticketNoteRequest struct {
	BuildingID string `json:"building_id"`
	Body       string `json:"body"`
}

// handleTicketNotes serves the note trail on a ticket. The ticket itself is
// looked up through the caller's scope first, so a resident can only annotate
// their own tickets.
func (a *API) handleTicketNotes(w http.ResponseWriter, r *http.Request, id string) {
	actor, err := a.actor(r)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	var req ticketNoteRequest
	if r.Method == http.MethodPost {
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
	}
	filter, err := a.resolveScope(r, actor, declaredBuilding(r, "", req.BuildingID), residentPin(actor, tenancy.Filter{}), tenancy.Options{
		Action:       "ticket_notes",
		BuildingWide: true,
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	item, err := a.stores.Tickets.Find(r.Context(), filter.With("id", id))
	if err != nil {
		handleDomainError(w, r, err)
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"data": item.Notes})
	case http.MethodPost:
		if strings.TrimSpace(req.Body) == "" {
			writeError(w, r, http.StatusBadRequest, "body is required")
			return
		}
		note := property.TicketNote{
			SenderID:   actor.ID,
			SenderRole: actor.Role.String(),
			Body:       req.Body,
			CreatedAt:  time.Now().UTC(),
		}
		item.Notes = append(item.Notes, note)
		if err := a.stores.Tickets.Update(r.Context(), filter, item); err != nil {
			handleDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"data": note})
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}
