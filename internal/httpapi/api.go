// Package httpapi is the REST surface. Every building-scoped handler
// resolves a tenant scope exactly once and hands the resulting filter to
// storage; the handlers themselves never widen or rebuild filters.
package httpapi

import (
	"context"
	"net/http"

	"tenure.app/internal/identity"
	"tenure.app/internal/obs"
	"tenure.app/internal/property"
	"tenure.app/internal/tenancy"
)

// Options wires the API's collaborators.
type Options struct {
	Stores     property.Stores
	Identities identity.Store
	Sessions   *identity.SessionResolver
	Tokens     *identity.Tokens
	Scope      *tenancy.Resolver

	// Ready is probed by /api/ready; nil means always ready.
	Ready func(ctx context.Context) error

	// WS, when set, serves the websocket gateway on /api/ws.
	WS http.Handler

	CookieName   string
	CookieSecure bool
	Origins      []string
	RateBurst    int
	RatePerSec   int
	MaxBodyBytes int64
	Version      string
}

// API is the HTTP layer.
type API struct {
	mux        *http.ServeMux
	stores     property.Stores
	identities identity.Store
	sessions   *identity.SessionResolver
	tokens     *identity.Tokens
	scope      *tenancy.Resolver
	ready      func(ctx context.Context) error

	cookieName   string
	cookieSecure bool
	origins      []string
	rateBurst    int
	ratePerSec   int
	maxBodyBytes int64
	version      string
}

func New(opts Options) *API {
	a := &API{
		mux:          http.NewServeMux(),
		stores:       opts.Stores,
		identities:   opts.Identities,
		sessions:     opts.Sessions,
		tokens:       opts.Tokens,
		scope:        opts.Scope,
		ready:        opts.Ready,
		cookieName:   opts.CookieName,
		cookieSecure: opts.CookieSecure,
		origins:      opts.Origins,
		rateBurst:    opts.RateBurst,
		ratePerSec:   opts.RatePerSec,
		maxBodyBytes: opts.MaxBodyBytes,
		version:      opts.Version,
	}
	if a.cookieName == "" {
		a.cookieName = "tenure_session"
	}
	if a.rateBurst <= 0 {
		a.rateBurst = 20
	}
	if a.ratePerSec <= 0 {
		a.ratePerSec = 10
	}
	if a.maxBodyBytes <= 0 {
		a.maxBodyBytes = 1 << 20
	}

	a.mux.HandleFunc("/api/health", a.Health)
	a.mux.HandleFunc("/api/ready", a.Ready)
	a.mux.Handle("/metrics", obs.Handler())

	a.mux.HandleFunc("/api/auth/register", a.handleRegister)
	a.mux.HandleFunc("/api/auth/login", a.handleLogin)
	a.mux.HandleFunc("/api/auth/logout", a.handleLogout)
	a.mux.HandleFunc("/api/auth/me", a.handleMe)

	a.mux.HandleFunc("/api/dashboard", a.handleDashboard)

	a.mux.HandleFunc("/api/announcements", a.handleAnnouncements)
	a.mux.HandleFunc("/api/announcements/", a.handleAnnouncementResource)
	a.mux.HandleFunc("/api/invoices", a.handleInvoices)
	a.mux.HandleFunc("/api/invoices/", a.handleInvoiceResource)
	a.mux.HandleFunc("/api/tickets", a.handleTickets)
	a.mux.HandleFunc("/api/tickets/", a.handleTicketResource)
	a.mux.HandleFunc("/api/leases", a.handleLeases)
	a.mux.HandleFunc("/api/leases/", a.handleLeaseResource)
	a.mux.HandleFunc("/api/units", a.handleUnits)
	a.mux.HandleFunc("/api/units/", a.handleUnitResource)
	a.mux.HandleFunc("/api/buildings", a.handleBuildings)
	a.mux.HandleFunc("/api/buildings/", a.handleBuildingResource)
	a.mux.HandleFunc("/api/service-agents", a.handleServiceAgents)
	a.mux.HandleFunc("/api/service-agents/", a.handleServiceAgentResource)
	a.mux.HandleFunc("/api/users", a.handleUsers)
	a.mux.HandleFunc("/api/users/me", a.handleUpdateMe)
	a.mux.HandleFunc("/api/users/", a.handleUserResource)
	a.mux.HandleFunc("/api/threads", a.handleThreads)
	a.mux.HandleFunc("/api/threads/", a.handleThreadResource)
	a.mux.HandleFunc("/api/community/messages", a.handleCommunityMessages)
	a.mux.HandleFunc("/api/community/messages/", a.handleCommunityMessageResource)

	a.mux.HandleFunc("/api/admin/users", a.handleAdminUsers)
	a.mux.HandleFunc("/api/admin/users/", a.handleAdminUserResource)

	if opts.WS != nil {
		a.mux.Handle("/api/ws", opts.WS)
	}

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler returns the fully wrapped server handler.
func (a *API) Handler() http.Handler {
	h := http.Handler(a.mux)
	h = a.withSession(h)
	h = MaxBodyBytes(h, a.maxBodyBytes)
	h = RateLimit(h, a.rateBurst, a.ratePerSec)
	h = CORS(h, a.origins)
	h = SecurityHeaders(h)
	h = Logging(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

func (a *API) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "tenure-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if a.ready != nil {
		if err := a.ready(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"status": "not_ready",
				"error":  err.Error(),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}
