package httpapi

import (
	"net/http"
	"strings"
	"time"

	"tenure.app/internal/identity"
	"tenure.app/internal/property"
	"tenure.app/internal/tenancy"
)

type threadRequest struct {
	BuildingID string `json:"building_id"`
	Subject    string `json:"subject"`
	ResidentID string `json:"resident_id"`
	UnitID     string `json:"unit_id"`
}

func (a *API) handleThreads(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listThreads(w, r)
	case http.MethodPost:
		a.createThread(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

// Threads carry resident isolation in the base filter, like tickets.
func (a *API) listThreads(w http.ResponseWriter, r *http.Request) {
	actor, err := a.actor(r)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	filter, err := a.resolveScope(r, actor, declaredBuilding(r, "", ""), residentPin(actor, tenancy.Filter{}), tenancy.Options{
		Action:       "list_threads",
		BuildingWide: true,
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	items, err := a.stores.Threads.List(r.Context(), filter)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": items})
}

func (a *API) createThread(w http.ResponseWriter, r *http.Request) {
	actor, err := a.actor(r)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	var req threadRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	filter, err := a.resolveScope(r, actor, declaredBuilding(r, "", req.BuildingID), tenancy.Filter{}, tenancy.Options{
		Action:       "create_thread",
		BuildingWide: true,
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	buildingID, _ := filter.Get(tenancy.FieldBuilding)

	residentID := req.ResidentID
	unitID := req.UnitID
	if actor.Role == identity.RoleResident {
		residentID = actor.ID
		unitID = actor.UnitID
	}
	item := &property.Thread{
		BuildingID: buildingID.(string),
		Subject:    strings.TrimSpace(req.Subject),
		Status:     "open",
		ResidentID: residentID,
		UnitID:     unitID,
	}
	if err := a.stores.Threads.Create(r.Context(), item); err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"data": item})
}

func (a *API) handleThreadResource(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/threads/"), "/")
	if id, ok := strings.CutSuffix(rest, "/messages"); ok && !strings.Contains(id, "/") && id != "" {
		a.handleThreadMessages(w, r, id)
		return
	}
	if rest == "" || strings.Contains(rest, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		a.getThread(w, r, rest)
	case http.MethodDelete:
		a.deleteThread(w, r, rest)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodDelete)
	}
}

func (a *API) getThread(w http.ResponseWriter, r *http.Request, id string) {
	actor, err := a.actor(r)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	filter, err := a.resolveScope(r, actor, declaredBuilding(r, "", ""), residentPin(actor, tenancy.Filter{}), tenancy.Options{
		Action:       "get_thread",
		BuildingWide: true,
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	item, err := a.stores.Threads.Find(r.Context(), filter.With("id", id))
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": item})
}

func (a *API) deleteThread(w http.ResponseWriter, r *http.Request, id string) {
	actor, ok := a.requireRole(w, r, identity.RoleManagement, identity.RoleAdmin)
	if !ok {
		return
	}
	filter, err := a.resolveScope(r, actor, declaredBuilding(r, "", ""), tenancy.Filter{}, tenancy.Options{
		Action:       "delete_thread",
		BuildingWide: true,
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if err := a.stores.Threads.Delete(r.Context(), filter.With("id", id)); err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}

type messageRequest struct {
	BuildingID  string                `json:"building_id"`
	Body        string                `json:"body"`
	Attachments []property.Attachment `json:"attachments"`
}

// handleThreadMessages serves a thread's message log. The thread is fetched
// through the caller's scoped filter first; only then are messages touched,
// so a foreign thread id 404s before any message is read or written.
func (a *API) handleThreadMessages(w http.ResponseWriter, r *http.Request, threadID string) {
	actor, err := a.actor(r)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	var req messageRequest
	if r.Method == http.MethodPost {
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
	}
	filter, err := a.resolveScope(r, actor, declaredBuilding(r, "", req.BuildingID), residentPin(actor, tenancy.Filter{}), tenancy.Options{
		Action:       "thread_messages",
		BuildingWide: true,
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	thread, err := a.stores.Threads.Find(r.Context(), filter.With("id", threadID))
	if err != nil {
		handleDomainError(w, r, err)
		return
	}

	switch r.Method {
	case http.MethodGet:
		msgFilter := tenancy.NewFilter(
			tenancy.Cond{Field: tenancy.FieldBuilding, Value: thread.BuildingID},
			tenancy.Cond{Field: "thread_id", Value: thread.ID},
		)
		msgs, err := a.stores.Messages.List(r.Context(), msgFilter)
		if err != nil {
			handleDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": msgs})
	case http.MethodPost:
		if strings.TrimSpace(req.Body) == "" {
			writeError(w, r, http.StatusBadRequest, "body is required")
			return
		}
		msg := &property.Message{
			BuildingID:  thread.BuildingID,
			ThreadID:    thread.ID,
			SenderID:    actor.ID,
			Body:        req.Body,
			Attachments: req.Attachments,
		}
		if err := a.stores.Messages.Create(r.Context(), msg); err != nil {
			handleDomainError(w, r, err)
			return
		}
		now := time.Now().UTC()
		thread.LastMessageAt = &now
		if err := a.stores.Threads.Update(r.Context(), filter, thread); err != nil {
			handleDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"data": msg})
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleCommunityMessages(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listCommunityMessages(w, r)
	case http.MethodPost:
		a.createCommunityMessage(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

// The community board is building-wide for every role.
func (a *API) listCommunityMessages(w http.ResponseWriter, r *http.Request) {
	actor, err := a.actor(r)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	filter, err := a.resolveScope(r, actor, declaredBuilding(r, "", ""), tenancy.Filter{}, tenancy.Options{
		Action:       "list_community_messages",
		BuildingWide: true,
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	items, err := a.stores.CommunityMessages.List(r.Context(), filter)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": items})
}

func (a *API) createCommunityMessage(w http.ResponseWriter, r *http.Request) {
	actor, err := a.actor(r)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	var req messageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Body) == "" {
		writeError(w, r, http.StatusBadRequest, "body is required")
		return
	}
	filter, err := a.resolveScope(r, actor, declaredBuilding(r, "", req.BuildingID), tenancy.Filter{}, tenancy.Options{
		Action:       "post_community_message",
		BuildingWide: true,
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	buildingID, _ := filter.Get(tenancy.FieldBuilding)

	senderName := actor.Name
	if senderName == "" {
		senderName = actor.Email
	}
	msg := &property.CommunityMessage{
		BuildingID:  buildingID.(string),
		SenderID:    actor.ID,
		SenderName:  senderName,
		Body:        req.Body,
		Attachments: req.Attachments,
	}
	if err := a.stores.CommunityMessages.Create(r.Context(), msg); err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"data": msg})
}

func (a *API) handleCommunityMessageResource(w http.ResponseWriter, r *http.Request) {
	id := resourceID(r.URL.Path, "/api/community/messages/")
	if id == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, r, http.MethodDelete)
		return
	}
	actor, ok := a.requireRole(w, r, identity.RoleManagement, identity.RoleAdmin)
	if !ok {
		return
	}
	filter, err := a.resolveScope(r, actor, declaredBuilding(r, "", ""), tenancy.Filter{}, tenancy.Options{
		Action:       "delete_community_message",
		BuildingWide: true,
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if err := a.stores.CommunityMessages.Delete(r.Context(), filter.With("id", id)); err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}
