package httpapi

import (
	"net/http"
	"time"

	"tenure.app/internal/identity"
)

var publicPaths = map[string]bool{
	"/api/health":        true,
	"/api/ready":         true,
	"/metrics":           true,
	"/api/auth/register": true,
	"/api/auth/login":    true,
	"/":                  true,
}

// withSession resolves the cookie session and stores the identity in the
// request context. Public paths pass through untouched; everything else
// requires a live session.
func (a *API) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions || publicPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		var token string
		if c, err := r.Cookie(a.cookieName); err == nil {
			token = c.Value
		}
		actor, err := a.sessions.Resolve(r.Context(), token)
		if err != nil {
			handleDomainError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(identity.ContextWithIdentity(r.Context(), actor)))
	})
}

// actor returns the session identity; handlers behind withSession always
// have one, but direct handler tests may not.
func (a *API) actor(r *http.Request) (*identity.Identity, error) {
	actor, ok := identity.FromContext(r.Context())
	if !ok || actor == nil {
		return nil, identity.ErrUnauthenticated
	}
	return actor, nil
}

// requireRole gates a handler to the given roles.
func (a *API) requireRole(w http.ResponseWriter, r *http.Request, roles ...identity.Role) (*identity.Identity, bool) {
	actor, err := a.actor(r)
	if err != nil {
		handleDomainError(w, r, err)
		return nil, false
	}
	for _, role := range roles {
		if actor.Role == role {
			return actor, true
		}
	}
	writeError(w, r, http.StatusForbidden, "insufficient role")
	return nil, false
}

// setSessionCookie issues the HttpOnly session cookie.
func (a *API) setSessionCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     a.cookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   a.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (a *API) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     a.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
