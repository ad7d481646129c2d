package httpapi

import (
	"net/http"
	"strings"

	"tenure.app/internal/identity"
)

type registerRequest struct {
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Password    string   `json:"password"`
	Role        string   `json:"role"`
	BuildingID  string   `json:"building_id"`
	BuildingIDs []string `json:"building_ids"`
	UnitID      string   `json:"unit_id"`
	LeaseID     string   `json:"lease_id"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeError(w, r, http.StatusBadRequest, "email and password are required")
		return
	}
	if strings.TrimSpace(req.BuildingID) == "" {
		writeError(w, r, http.StatusBadRequest, "buildingId is required")
		return
	}

	role := identity.RoleResident
	if strings.TrimSpace(req.Role) != "" {
		parsed, err := identity.ParseRole(req.Role)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "unknown role")
			return
		}
		role = parsed
	}

	hash, err := identity.HashPassword(req.Password)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid password")
		return
	}
	actor := &identity.Identity{
		Name:         strings.TrimSpace(req.Name),
		Email:        req.Email,
		PasswordHash: hash,
		Role:         role,
		BuildingID:   strings.TrimSpace(req.BuildingID),
		BuildingIDs:  req.BuildingIDs,
		UnitID:       strings.TrimSpace(req.UnitID),
		LeaseID:      strings.TrimSpace(req.LeaseID),
	}
	if err := a.identities.Create(r.Context(), actor); err != nil {
		handleDomainError(w, r, err)
		return
	}

	token, expires, err := a.tokens.Sign(actor)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "token generation failed")
		return
	}
	a.setSessionCookie(w, token, expires)
	writeJSON(w, http.StatusCreated, map[string]any{"user": actor.Sanitized()})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeError(w, r, http.StatusBadRequest, "email and password are required")
		return
	}

	actor, err := a.identities.FindByEmail(r.Context(), req.Email)
	if err != nil {
		// Same response for unknown email and bad password.
		handleDomainError(w, r, identity.ErrBadCredentials)
		return
	}
	if err := identity.VerifyPassword(actor.PasswordHash, req.Password); err != nil {
		handleDomainError(w, r, identity.ErrBadCredentials)
		return
	}

	token, expires, err := a.tokens.Sign(actor)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "token generation failed")
		return
	}
	a.setSessionCookie(w, token, expires)
	writeJSON(w, http.StatusOK, map[string]any{"user": actor.Sanitized()})
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	a.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	actor, err := a.actor(r)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": actor.Sanitized()})
}
