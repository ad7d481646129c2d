package httpapi

import (
	"net/http"
	"strings"

	"tenure.app/internal/identity"
	"tenure.app/internal/tenancy"
)

type userRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Role       string `json:"role"`
	BuildingID string `json:"building_id"`
	UnitID     string `json:"unit_id"`
	Bio        string `json:"bio"`
}

// handleUsers is the building directory for management and admins. The
// scope resolution pins the declared building before the identity store
// is consulted.
func (a *API) handleUsers(w http.ResponseWriter, r *http.Request) {
	actor, ok := a.requireRole(w, r, identity.RoleManagement, identity.RoleAdmin)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		a.listUsers(w, r, actor, "list_users")
	case http.MethodPost:
		a.createUser(w, r, actor, "create_user")
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) listUsers(w http.ResponseWriter, r *http.Request, actor *identity.Identity, action string) {
	filter, err := a.resolveScope(r, actor, declaredBuilding(r, "", ""), tenancy.Filter{}, tenancy.Options{
		Action:       action,
		BuildingWide: true,
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	buildingID, _ := filter.Get(tenancy.FieldBuilding)
	users, err := a.identities.ListByBuilding(r.Context(), buildingID.(string))
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	out := make([]*identity.Identity, 0, len(users))
	for _, u := range users {
		out = append(out, u.Sanitized())
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": out})
}

func (a *API) createUser(w http.ResponseWriter, r *http.Request, actor *identity.Identity, action string) {
	var req userRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, r, http.StatusBadRequest, "email and password are required")
		return
	}
	filter, err := a.resolveScope(r, actor, declaredBuilding(r, "", req.BuildingID), tenancy.Filter{}, tenancy.Options{
		Action:       action,
		BuildingWide: true,
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	buildingID, _ := filter.Get(tenancy.FieldBuilding)

	role := identity.RoleResident
	if req.Role != "" {
		parsed, perr := identity.ParseRole(req.Role)
		if perr != nil {
			writeError(w, r, http.StatusBadRequest, perr.Error())
			return
		}
		// Only admins mint privileged accounts.
		if parsed != identity.RoleResident && actor.Role != identity.RoleAdmin {
			writeError(w, r, http.StatusForbidden, "insufficient role")
			return
		}
		role = parsed
	}
	hash, err := identity.HashPassword(req.Password)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	user := &identity.Identity{
		Name:         strings.TrimSpace(req.Name),
		Email:        req.Email,
		PasswordHash: hash,
		Role:         role,
		BuildingID:   buildingID.(string),
		UnitID:       req.UnitID,
		Bio:          req.Bio,
	}
	if role == identity.RoleManagement {
		user.BuildingIDs = []string{buildingID.(string)}
	}
	if err := a.identities.Create(r.Context(), user); err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"data": user.Sanitized()})
}

type selfUpdateRequest struct {
	Name     *string `json:"name"`
	Bio      *string `json:"bio"`
	Password *string `json:"password"`
}

// handleUpdateMe lets any authenticated user edit their own profile.
func (a *API) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		methodNotAllowed(w, r, http.MethodPatch)
		return
	}
	actor, err := a.actor(r)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	var req selfUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Password != nil && len(*req.Password) < 8 {
		writeError(w, r, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}
	updated, err := a.identities.Update(r.Context(), actor.ID, identity.Update{
		Name:     req.Name,
		Bio:      req.Bio,
		Password: req.Password,
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": updated.Sanitized()})
}

// handleUserResource lets management edit or remove accounts in buildings
// they are assigned to. The target's home building is checked against the
// resolved scope so a manager cannot reach across buildings by id.
func (a *API) handleUserResource(w http.ResponseWriter, r *http.Request) {
	id := resourceID(r.URL.Path, "/api/users/")
	if id == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	actor, ok := a.requireRole(w, r, identity.RoleManagement, identity.RoleAdmin)
	if !ok {
		return
	}

	var req selfUpdateRequest
	if r.Method == http.MethodPatch {
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
	}

	action := "update_user"
	if r.Method == http.MethodDelete {
		action = "delete_user"
	}
	filter, err := a.resolveScope(r, actor, declaredBuilding(r, "", ""), tenancy.Filter{}, tenancy.Options{
		Action:       action,
		BuildingWide: true,
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	buildingID, _ := filter.Get(tenancy.FieldBuilding)

	target, err := a.identities.Find(r.Context(), id)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if target.BuildingID != buildingID.(string) && !target.AssignedTo(buildingID.(string)) {
		handleDomainError(w, r, identity.ErrNotFound)
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"data": target.Sanitized()})
	case http.MethodPatch:
		updated, err := a.identities.Update(r.Context(), id, identity.Update{
			Name:     req.Name,
			Bio:      req.Bio,
			Password: req.Password,
		})
		if err != nil {
			handleDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": updated.Sanitized()})
	case http.MethodDelete:
		if id == actor.ID {
			writeError(w, r, http.StatusConflict, "cannot delete own account")
			return
		}
		if err := a.identities.Delete(r.Context(), id); err != nil {
			handleDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch, http.MethodDelete)
	}
}

// Admin user management. Every operation resolves a scope, so each call
// lands one entry in the audit trail.
func (a *API) handleAdminUsers(w http.ResponseWriter, r *http.Request) {
	actor, ok := a.requireRole(w, r, identity.RoleAdmin)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		a.listUsers(w, r, actor, "admin_list_users")
	case http.MethodPost:
		a.createUser(w, r, actor, "admin_create_user")
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleAdminUserResource(w http.ResponseWriter, r *http.Request) {
	id := resourceID(r.URL.Path, "/api/admin/users/")
	if id == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	actor, ok := a.requireRole(w, r, identity.RoleAdmin)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		a.adminGetUser(w, r, actor, id)
	case http.MethodPatch:
		a.adminUpdateUser(w, r, actor, id)
	case http.MethodDelete:
		a.adminDeleteUser(w, r, actor, id)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch, http.MethodDelete)
	}
}

func (a *API) adminGetUser(w http.ResponseWriter, r *http.Request, actor *identity.Identity, id string) {
	if _, err := a.resolveScope(r, actor, declaredBuilding(r, "", ""), tenancy.Filter{}, tenancy.Options{
		Action:       "admin_get_user",
		BuildingWide: true,
	}); err != nil {
		handleDomainError(w, r, err)
		return
	}
	user, err := a.identities.Find(r.Context(), id)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": user.Sanitized()})
}

type adminUserUpdate struct {
	BuildingID  *string  `json:"building_id"`
	Name        *string  `json:"name"`
	Email       *string  `json:"email"`
	Password    *string  `json:"password"`
	Role        *string  `json:"role"`
	BuildingIDs []string `json:"building_ids"`
	UnitID      *string  `json:"unit_id"`
	LeaseID     *string  `json:"lease_id"`
	Bio         *string  `json:"bio"`
}

func (a *API) adminUpdateUser(w http.ResponseWriter, r *http.Request, actor *identity.Identity, id string) {
	var req adminUserUpdate
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	declared := ""
	if req.BuildingID != nil {
		declared = *req.BuildingID
	}
	if _, err := a.resolveScope(r, actor, declaredBuilding(r, "", declared), tenancy.Filter{}, tenancy.Options{
		Action:       "admin_update_user",
		BuildingWide: true,
	}); err != nil {
		handleDomainError(w, r, err)
		return
	}
	upd := identity.Update{
		Name:        req.Name,
		Email:       req.Email,
		Password:    req.Password,
		BuildingID:  req.BuildingID,
		BuildingIDs: req.BuildingIDs,
		UnitID:      req.UnitID,
		LeaseID:     req.LeaseID,
		Bio:         req.Bio,
	}
	if req.Role != nil {
		parsed, perr := identity.ParseRole(*req.Role)
		if perr != nil {
			writeError(w, r, http.StatusBadRequest, perr.Error())
			return
		}
		upd.Role = &parsed
	}
	user, err := a.identities.Update(r.Context(), id, upd)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": user.Sanitized()})
}

func (a *API) adminDeleteUser(w http.ResponseWriter, r *http.Request, actor *identity.Identity, id string) {
	if _, err := a.resolveScope(r, actor, declaredBuilding(r, "", ""), tenancy.Filter{}, tenancy.Options{
		Action:       "admin_delete_user",
		BuildingWide: true,
	}); err != nil {
		handleDomainError(w, r, err)
		return
	}
	if id == actor.ID {
		writeError(w, r, http.StatusConflict, "cannot delete own account")
		return
	}
	if err := a.identities.Delete(r.Context(), id); err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}
