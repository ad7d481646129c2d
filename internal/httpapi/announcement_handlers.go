package httpapi

import (
	"net/http"
	"strings"
	"time"

	"tenure.app/internal/identity"
	"tenure.app/internal/property"
	"tenure.app/internal/tenancy"
)

type announcementRequest struct {
	BuildingID string     `json:"building_id"`
	Title      string     `json:"title"`
	Body       string     `json:"body"`
	Status     string     `json:"status"`
	PublishAt  *time.Time `json:"publish_at"`
	AuthorID   string     `json:"author_id"`
}

func (a *API) handleAnnouncements(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listAnnouncements(w, r)
	case http.MethodPost:
		a.createAnnouncement(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) listAnnouncements(w http.ResponseWriter, r *http.Request) {
	actor, err := a.actor(r)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	filter, err := a.resolveScope(r, actor, declaredBuilding(r, "", ""), tenancy.Filter{}, tenancy.Options{
		Action:       "list_announcements",
		BuildingWide: true,
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	// Residents only see what has actually been published.
	if actor.Role == identity.RoleResident {
		filter = filter.With("status", property.AnnouncementPublished)
	}
	items, err := a.stores.Announcements.List(r.Context(), filter)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if actor.Role == identity.RoleResident {
		now := time.Now().UTC()
		visible := items[:0]
		for _, item := range items {
			if item.PublishAt == nil || !item.PublishAt.After(now) {
				visible = append(visible, item)
			}
		}
		items = visible
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": items})
}

func (a *API) createAnnouncement(w http.ResponseWriter, r *http.Request) {
	actor, ok := a.requireRole(w, r, identity.RoleManagement, identity.RoleAdmin)
	if !ok {
		return
	}
	var req announcementRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Body) == "" {
		writeError(w, r, http.StatusBadRequest, "title and body are required")
		return
	}
	filter, err := a.resolveScope(r, actor, declaredBuilding(r, "", req.BuildingID), tenancy.Filter{}, tenancy.Options{
		Action:       "create_announcement",
		BuildingWide: true,
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	buildingID, _ := filter.Get(tenancy.FieldBuilding)

	status := req.Status
	if status == "" {
		status = property.AnnouncementDraft
	}
	authorID := strings.TrimSpace(req.AuthorID)
	if authorID == "" {
		authorID = actor.ID
	}
	item := &property.Announcement{
		BuildingID: buildingID.(string),
		Title:      strings.TrimSpace(req.Title),
		Body:       req.Body,
		Status:     status,
		PublishAt:  req.PublishAt,
		AuthorID:   authorID,
	}
	if err := a.stores.Announcements.Create(r.Context(), item); err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"data": item})
}

func (a *API) handleAnnouncementResource(w http.ResponseWriter, r *http.Request) {
	id := resourceID(r.URL.Path, "/api/announcements/")
	if id == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		a.getAnnouncement(w, r, id)
	case http.MethodPatch:
		a.updateAnnouncement(w, r, id)
	case http.MethodDelete:
		a.deleteAnnouncement(w, r, id)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch, http.MethodDelete)
	}
}

func (a *API) getAnnouncement(w http.ResponseWriter, r *http.Request, id string) {
	actor, err := a.actor(r)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	filter, err := a.resolveScope(r, actor, declaredBuilding(r, "", ""), tenancy.Filter{}, tenancy.Options{
		Action:       "get_announcement",
		BuildingWide: true,
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	item, err := a.stores.Announcements.Find(r.Context(), filter.With("id", id))
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": item})
}

func (a *API) updateAnnouncement(w http.ResponseWriter, r *http.Request, id string) {
	actor, ok := a.requireRole(w, r, identity.RoleManagement, identity.RoleAdmin)
	if !ok {
		return
	}
	var req announcementRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	filter, err := a.resolveScope(r, actor, declaredBuilding(r, "", req.BuildingID), tenancy.Filter{}, tenancy.Options{
		Action:       "update_announcement",
		BuildingWide: true,
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	item, err := a.stores.Announcements.Find(r.Context(), filter.With("id", id))
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Title) != "" {
		item.Title = strings.TrimSpace(req.Title)
	}
	if req.Body != "" {
		item.Body = req.Body
	}
	if req.Status != "" {
		item.Status = req.Status
	}
	if req.PublishAt != nil {
		item.PublishAt = req.PublishAt
	}
	if err := a.stores.Announcements.Update(r.Context(), filter, item); err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": item})
}

func (a *API) deleteAnnouncement(w http.ResponseWriter, r *http.Request, id string) {
	actor, ok := a.requireRole(w, r, identity.RoleManagement, identity.RoleAdmin)
	if !ok {
		return
	}
	filter, err := a.resolveScope(r, actor, declaredBuilding(r, "", ""), tenancy.Filter{}, tenancy.Options{
		Action:       "delete_announcement",
		BuildingWide: true,
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if err := a.stores.Announcements.Delete(r.Context(), filter.With("id", id)); err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}
