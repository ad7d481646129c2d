package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tenure.app/internal/audit"
	"tenure.app/internal/identity"
	"tenure.app/internal/property"
	"tenure.app/internal/tenancy"
)

type testEnv struct {
	api        *API
	server     *httptest.Server
	mem        *property.Memory
	identities *identity.Memory
	audit      *audit.Memory
	tokens     *identity.Tokens
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mem := property.NewMemory()
	idents := identity.NewMemory()
	auditMem := audit.NewMemory()

	recorder, err := audit.NewRecorder(auditMem)
	if err != nil {
		t.Fatalf("recorder: %v", err)
	}
	resolver, err := tenancy.NewResolver(recorder)
	if err != nil {
		t.Fatalf("resolver: %v", err)
	}
	tokens, err := identity.NewTokens("test-secret-test-secret", time.Hour)
	if err != nil {
		t.Fatalf("tokens: %v", err)
	}
	sessions, err := identity.NewSessionResolver(tokens, idents)
	if err != nil {
		t.Fatalf("sessions: %v", err)
	}

	api := New(Options{
		Stores:     mem.Stores(),
		Identities: idents,
		Sessions:   sessions,
		Tokens:     tokens,
		Scope:      resolver,
	})
	server := httptest.NewServer(api.Handler())
	t.Cleanup(server.Close)

	return &testEnv{
		api:        api,
		server:     server,
		mem:        mem,
		identities: idents,
		audit:      auditMem,
		tokens:     tokens,
	}
}

func (e *testEnv) addUser(t *testing.T, u *identity.Identity) *identity.Identity {
	t.Helper()
	hash, err := identity.HashPassword("password123!")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u.PasswordHash = hash
	if err := e.identities.Create(context.Background(), u); err != nil {
		t.Fatalf("create identity: %v", err)
	}
	return u
}

func (e *testEnv) cookieFor(t *testing.T, u *identity.Identity) *http.Cookie {
	t.Helper()
	token, expires, err := e.tokens.Sign(u)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return &http.Cookie{Name: "tenure_session", Value: token, Expires: expires}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, cookie *http.Cookie) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, e.server.URL+path, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeData[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var payload struct {
		Data T `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return payload.Data
}

func TestAuthFlow(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/auth/register", map[string]any{
		"name":        "Rhea",
		"email":       "rhea@example.com",
		"password":    "password123!",
		"building_id": "b1",
	}, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status = %d", resp.StatusCode)
	}
	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "tenure_session" {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatal("expected session cookie on register")
	}
	if !cookie.HttpOnly {
		t.Fatal("session cookie must be HttpOnly")
	}

	me := env.do(t, http.MethodGet, "/api/auth/me", nil, cookie)
	if me.StatusCode != http.StatusOK {
		t.Fatalf("me status = %d", me.StatusCode)
	}
	var body struct {
		User identity.Identity `json:"user"`
	}
	if err := json.NewDecoder(me.Body).Decode(&body); err != nil {
		t.Fatalf("decode me: %v", err)
	}
	if body.User.Email != "rhea@example.com" {
		t.Fatalf("me email = %q", body.User.Email)
	}

	login := env.do(t, http.MethodPost, "/api/auth/login", map[string]any{
		"email":    "rhea@example.com",
		"password": "wrong-password",
	}, nil)
	if login.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad login status = %d", login.StatusCode)
	}
}

func TestUnauthenticatedRequestsRejected(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodGet, "/api/invoices?buildingId=b1", nil, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestMissingBuildingIsBadRequest(t *testing.T) {
	env := newTestEnv(t)
	resident := env.addUser(t, &identity.Identity{
		Email: "res@example.com", Role: identity.RoleResident, BuildingID: "b1", LeaseID: "l1",
	})
	cookie := env.cookieFor(t, resident)

	resp := env.do(t, http.MethodGet, "/api/invoices", nil, cookie)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestResidentForeignBuildingForbidden(t *testing.T) {
	env := newTestEnv(t)
	resident := env.addUser(t, &identity.Identity{
		Email: "res@example.com", Role: identity.RoleResident, BuildingID: "b1", LeaseID: "l1",
	})
	cookie := env.cookieFor(t, resident)

	resp := env.do(t, http.MethodGet, "/api/invoices?buildingId=b2", nil, cookie)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", resp.StatusCode)
	}
}

func TestResidentInvoicesNarrowedByLease(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	stores := env.mem.Stores()

	mine := &property.Invoice{BuildingID: "b1", LeaseID: "l1", ResidentID: "r1", Amount: 100, Currency: "USD", Status: property.InvoiceOpen}
	other := &property.Invoice{BuildingID: "b1", LeaseID: "l2", ResidentID: "r2", Amount: 200, Currency: "USD", Status: property.InvoiceOpen}
	for _, inv := range []*property.Invoice{mine, other} {
		if err := stores.Invoices.Create(ctx, inv); err != nil {
			t.Fatalf("create invoice: %v", err)
		}
	}

	resident := env.addUser(t, &identity.Identity{
		ID: "r1", Email: "res@example.com", Role: identity.RoleResident,
		BuildingID: "b1", UnitID: "u1", LeaseID: "l1",
	})
	cookie := env.cookieFor(t, resident)

	resp := env.do(t, http.MethodGet, "/api/invoices?buildingId=b1", nil, cookie)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	invoices := decodeData[[]*property.Invoice](t, resp)
	if len(invoices) != 1 {
		t.Fatalf("got %d invoices, want 1", len(invoices))
	}
	if invoices[0].ID != mine.ID {
		t.Fatalf("got invoice %s, want %s", invoices[0].ID, mine.ID)
	}
}

func TestResidentWithoutScopeFailsClosed(t *testing.T) {
	env := newTestEnv(t)
	resident := env.addUser(t, &identity.Identity{
		Email: "bare@example.com", Role: identity.RoleResident, BuildingID: "b1",
	})
	cookie := env.cookieFor(t, resident)

	resp := env.do(t, http.MethodGet, "/api/invoices?buildingId=b1", nil, cookie)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", resp.StatusCode)
	}
}

func TestResidentTicketsPinnedToOwner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	stores := env.mem.Stores()

	mine := &property.Ticket{BuildingID: "b1", ResidentID: "r1", Title: "leaky tap", Status: property.TicketOpen, Priority: property.PriorityMedium}
	other := &property.Ticket{BuildingID: "b1", ResidentID: "r2", Title: "broken lift", Status: property.TicketOpen, Priority: property.PriorityMedium}
	for _, tk := range []*property.Ticket{mine, other} {
		if err := stores.Tickets.Create(ctx, tk); err != nil {
			t.Fatalf("create ticket: %v", err)
		}
	}

	resident := env.addUser(t, &identity.Identity{
		ID: "r1", Email: "res@example.com", Role: identity.RoleResident, BuildingID: "b1", LeaseID: "l1",
	})
	cookie := env.cookieFor(t, resident)

	resp := env.do(t, http.MethodGet, "/api/tickets?buildingId=b1", nil, cookie)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	tickets := decodeData[[]*property.Ticket](t, resp)
	if len(tickets) != 1 || tickets[0].ID != mine.ID {
		t.Fatalf("resident sees %d tickets, want just their own", len(tickets))
	}

	// Fetching the foreign ticket by id 404s rather than leaking it.
	foreign := env.do(t, http.MethodGet, "/api/tickets/"+other.ID+"?buildingId=b1", nil, cookie)
	if foreign.StatusCode != http.StatusNotFound {
		t.Fatalf("foreign ticket status = %d, want 404", foreign.StatusCode)
	}
}

func TestTicketCreateIgnoresSpoofedResident(t *testing.T) {
	env := newTestEnv(t)
	resident := env.addUser(t, &identity.Identity{
		ID: "r1", Email: "res@example.com", Role: identity.RoleResident,
		BuildingID: "b1", UnitID: "u9", LeaseID: "l1",
	})
	cookie := env.cookieFor(t, resident)

	resp := env.do(t, http.MethodPost, "/api/tickets", map[string]any{
		"building_id": "b1",
		"title":       "noisy neighbours",
		"resident_id": "someone-else",
	}, cookie)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	ticket := decodeData[*property.Ticket](t, resp)
	if ticket.ResidentID != "r1" || ticket.UnitID != "u9" {
		t.Fatalf("ticket owner = %s/%s, want pinned to actor", ticket.ResidentID, ticket.UnitID)
	}
}

func TestManagementForeignBuildingForbidden(t *testing.T) {
	env := newTestEnv(t)
	manager := env.addUser(t, &identity.Identity{
		Email: "mgr@example.com", Role: identity.RoleManagement,
		BuildingIDs: []string{"b1", "b2"},
	})
	cookie := env.cookieFor(t, manager)

	ok := env.do(t, http.MethodGet, "/api/invoices?buildingId=b2", nil, cookie)
	if ok.StatusCode != http.StatusOK {
		t.Fatalf("assigned building status = %d", ok.StatusCode)
	}
	denied := env.do(t, http.MethodGet, "/api/invoices?buildingId=b3", nil, cookie)
	if denied.StatusCode != http.StatusForbidden {
		t.Fatalf("foreign building status = %d, want 403", denied.StatusCode)
	}
}

func TestAdminAccessIsAudited(t *testing.T) {
	env := newTestEnv(t)
	admin := env.addUser(t, &identity.Identity{
		Email: "admin@example.com", Role: identity.RoleAdmin, BuildingID: "b1",
	})
	cookie := env.cookieFor(t, admin)

	resp := env.do(t, http.MethodGet, "/api/admin/users?buildingId=b1", nil, cookie)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	entries := env.audit.Entries()
	if len(entries) != 1 {
		t.Fatalf("audit entries = %d, want 1", len(entries))
	}
	e := entries[0]
	if e.Action != "admin_list_users" || e.BuildingID != "b1" || e.ActorID != admin.ID {
		t.Fatalf("unexpected audit entry %+v", e)
	}
	if e.Path != "/api/admin/users" {
		t.Fatalf("audit path = %q", e.Path)
	}
}

func TestAdminRoutesRejectNonAdmins(t *testing.T) {
	env := newTestEnv(t)
	manager := env.addUser(t, &identity.Identity{
		Email: "mgr@example.com", Role: identity.RoleManagement, BuildingIDs: []string{"b1"},
	})
	cookie := env.cookieFor(t, manager)

	resp := env.do(t, http.MethodGet, "/api/admin/users?buildingId=b1", nil, cookie)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", resp.StatusCode)
	}
	if n := len(env.audit.Entries()); n != 0 {
		t.Fatalf("audit entries = %d, want 0", n)
	}
}

func TestLeaseLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	stores := env.mem.Stores()

	unit := &property.Unit{BuildingID: "b1", Number: "101", Status: property.UnitVacant}
	if err := stores.Units.Create(ctx, unit); err != nil {
		t.Fatalf("create unit: %v", err)
	}
	resident := env.addUser(t, &identity.Identity{
		Email: "res@example.com", Role: identity.RoleResident, BuildingID: "b1",
	})
	manager := env.addUser(t, &identity.Identity{
		Email: "mgr@example.com", Role: identity.RoleManagement, BuildingIDs: []string{"b1"},
	})
	cookie := env.cookieFor(t, manager)

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	created := env.do(t, http.MethodPost, "/api/leases", map[string]any{
		"building_id": "b1",
		"unit_id":     unit.ID,
		"resident_id": resident.ID,
		"start_date":  start,
		"rent_amount": 95000,
		"currency":    "USD",
	}, cookie)
	if created.StatusCode != http.StatusCreated {
		t.Fatalf("create lease status = %d", created.StatusCode)
	}
	lease := decodeData[*property.Lease](t, created)
	if lease.Status != property.LeaseActive {
		t.Fatalf("lease status = %q", lease.Status)
	}

	linked, err := env.identities.Find(ctx, resident.ID)
	if err != nil {
		t.Fatalf("find resident: %v", err)
	}
	if linked.LeaseID != lease.ID || linked.UnitID != unit.ID {
		t.Fatalf("resident not linked: lease=%q unit=%q", linked.LeaseID, linked.UnitID)
	}
	bf := tenancy.NewFilter(tenancy.Cond{Field: tenancy.FieldBuilding, Value: "b1"})
	occupied, err := stores.Units.Find(ctx, bf.With("id", unit.ID))
	if err != nil {
		t.Fatalf("find unit: %v", err)
	}
	if occupied.Status != property.UnitOccupied {
		t.Fatalf("unit status = %q, want occupied", occupied.Status)
	}

	terminated := env.do(t, http.MethodPost, fmt.Sprintf("/api/leases/%s/terminate", lease.ID), map[string]any{
		"building_id": "b1",
		"reason":      "moving out",
	}, cookie)
	if terminated.StatusCode != http.StatusOK {
		t.Fatalf("terminate status = %d", terminated.StatusCode)
	}
	ended := decodeData[*property.Lease](t, terminated)
	if ended.Status != property.LeaseEnded || ended.TerminatedAt == nil || ended.TerminationReason != "moving out" {
		t.Fatalf("unexpected terminated lease %+v", ended)
	}
	if ended.TerminatedBy != manager.ID {
		t.Fatalf("terminated_by = %q", ended.TerminatedBy)
	}

	unlinked, err := env.identities.Find(ctx, resident.ID)
	if err != nil {
		t.Fatalf("find resident: %v", err)
	}
	if unlinked.LeaseID != "" {
		t.Fatalf("resident still linked to lease %q", unlinked.LeaseID)
	}
	vacant, err := stores.Units.Find(ctx, bf.With("id", unit.ID))
	if err != nil {
		t.Fatalf("find unit: %v", err)
	}
	if vacant.Status != property.UnitVacant {
		t.Fatalf("unit status = %q, want vacant", vacant.Status)
	}

	again := env.do(t, http.MethodPost, fmt.Sprintf("/api/leases/%s/terminate", lease.ID), map[string]any{
		"building_id": "b1",
	}, cookie)
	if again.StatusCode != http.StatusConflict {
		t.Fatalf("double terminate status = %d, want 409", again.StatusCode)
	}
}

func TestResidentSeesOnlyPublishedAnnouncements(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	stores := env.mem.Stores()

	future := time.Now().UTC().Add(24 * time.Hour)
	published := &property.Announcement{BuildingID: "b1", Title: "pool open", Body: "...", Status: property.AnnouncementPublished}
	draft := &property.Announcement{BuildingID: "b1", Title: "draft", Body: "...", Status: property.AnnouncementDraft}
	scheduled := &property.Announcement{BuildingID: "b1", Title: "later", Body: "...", Status: property.AnnouncementPublished, PublishAt: &future}
	for _, an := range []*property.Announcement{published, draft, scheduled} {
		if err := stores.Announcements.Create(ctx, an); err != nil {
			t.Fatalf("create announcement: %v", err)
		}
	}

	resident := env.addUser(t, &identity.Identity{
		Email: "res@example.com", Role: identity.RoleResident, BuildingID: "b1", LeaseID: "l1",
	})
	resp := env.do(t, http.MethodGet, "/api/announcements?buildingId=b1", nil, env.cookieFor(t, resident))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	items := decodeData[[]*property.Announcement](t, resp)
	if len(items) != 1 || items[0].ID != published.ID {
		t.Fatalf("resident sees %d announcements, want only the published one", len(items))
	}

	manager := env.addUser(t, &identity.Identity{
		Email: "mgr@example.com", Role: identity.RoleManagement, BuildingIDs: []string{"b1"},
	})
	all := env.do(t, http.MethodGet, "/api/announcements?buildingId=b1", nil, env.cookieFor(t, manager))
	if got := decodeData[[]*property.Announcement](t, all); len(got) != 3 {
		t.Fatalf("management sees %d announcements, want 3", len(got))
	}
}

func TestThreadMessagesScopedToThreadOwner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	stores := env.mem.Stores()

	mine := &property.Thread{BuildingID: "b1", Subject: "heating", Status: "open", ResidentID: "r1"}
	other := &property.Thread{BuildingID: "b1", Subject: "parking", Status: "open", ResidentID: "r2"}
	for _, th := range []*property.Thread{mine, other} {
		if err := stores.Threads.Create(ctx, th); err != nil {
			t.Fatalf("create thread: %v", err)
		}
	}

	resident := env.addUser(t, &identity.Identity{
		ID: "r1", Email: "res@example.com", Role: identity.RoleResident, BuildingID: "b1", LeaseID: "l1",
	})
	cookie := env.cookieFor(t, resident)

	posted := env.do(t, http.MethodPost, "/api/threads/"+mine.ID+"/messages", map[string]any{
		"building_id": "b1",
		"body":        "still cold in here",
	}, cookie)
	if posted.StatusCode != http.StatusCreated {
		t.Fatalf("post message status = %d", posted.StatusCode)
	}

	bumped, err := stores.Threads.Find(ctx, tenancy.NewFilter(
		tenancy.Cond{Field: tenancy.FieldBuilding, Value: "b1"},
		tenancy.Cond{Field: "id", Value: mine.ID},
	))
	if err != nil {
		t.Fatalf("find thread: %v", err)
	}
	if bumped.LastMessageAt == nil {
		t.Fatal("last_message_at not bumped")
	}

	foreign := env.do(t, http.MethodPost, "/api/threads/"+other.ID+"/messages", map[string]any{
		"building_id": "b1",
		"body":        "hello",
	}, cookie)
	if foreign.StatusCode != http.StatusNotFound {
		t.Fatalf("foreign thread status = %d, want 404", foreign.StatusCode)
	}
}

func TestDashboardCountsForResident(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	stores := env.mem.Stores()

	seed := []error{
		stores.Announcements.Create(ctx, &property.Announcement{BuildingID: "b1", Title: "a", Body: "b", Status: property.AnnouncementPublished}),
		stores.Tickets.Create(ctx, &property.Ticket{BuildingID: "b1", ResidentID: "r1", Title: "t1", Status: property.TicketOpen, Priority: property.PriorityLow}),
		stores.Tickets.Create(ctx, &property.Ticket{BuildingID: "b1", ResidentID: "r1", Title: "t2", Status: property.TicketClosed, Priority: property.PriorityLow}),
		stores.Tickets.Create(ctx, &property.Ticket{BuildingID: "b1", ResidentID: "r2", Title: "t3", Status: property.TicketOpen, Priority: property.PriorityLow}),
		stores.Invoices.Create(ctx, &property.Invoice{BuildingID: "b1", ResidentID: "r1", LeaseID: "l1", Amount: 1, Currency: "USD", Status: property.InvoiceOpen}),
		stores.Invoices.Create(ctx, &property.Invoice{BuildingID: "b1", ResidentID: "r1", LeaseID: "l1", Amount: 1, Currency: "USD", Status: property.InvoicePaid}),
		stores.Threads.Create(ctx, &property.Thread{BuildingID: "b1", ResidentID: "r1", Status: "open"}),
		stores.Threads.Create(ctx, &property.Thread{BuildingID: "b1", ResidentID: "r2", Status: "open"}),
	}
	for _, err := range seed {
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	resident := env.addUser(t, &identity.Identity{
		ID: "r1", Email: "res@example.com", Role: identity.RoleResident, BuildingID: "b1", LeaseID: "l1",
	})
	resp := env.do(t, http.MethodGet, "/api/dashboard?buildingId=b1", nil, env.cookieFor(t, resident))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	counts := decodeData[map[string]int](t, resp)
	want := map[string]int{"announcements": 1, "threads": 1, "open_tickets": 1, "open_invoices": 1}
	for k, v := range want {
		if counts[k] != v {
			t.Fatalf("%s = %d, want %d (counts %v)", k, counts[k], v, counts)
		}
	}
}

func TestSecurityHeadersAndRequestID(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodGet, "/api/health", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-Id") == "" {
		t.Fatal("missing X-Request-Id")
	}
	if resp.Header.Get("X-Content-Type-Options") != "nosniff" {
		t.Fatal("missing nosniff header")
	}
}

func TestUnknownRouteIs404(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodGet, "/api/nope", nil, nil)
	if resp.StatusCode != http.StatusUnauthorized && resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}
