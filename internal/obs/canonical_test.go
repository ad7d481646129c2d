package obs

import "testing"

func TestCanonicalPath(t *testing.T) {
	const id = "01J8ZQ4T2N8Y3V5W6X7Y8Z9A0B"
	cases := map[string]string{
		"":                          "/",
		"/metrics":                  "/metrics",
		"/api/invoices":             "/api/invoices",
		"/api/invoices/" + id:       "/api/invoices/:id",
		"/api/invoices?status=open": "/api/invoices",
		"/api/threads/" + id + "/messages":        "/api/threads/:id/messages",
		"/api/admin/users/" + id:                  "/api/admin/users/:id",
		"/api/leases/" + id + "/terminate":        "/api/leases/:id/terminate",
		"/api/community/messages/notanulidhere":   "/api/community/messages/notanulidhere",
		"/api/community/messages/" + id + "?x=1":  "/api/community/messages/:id",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}
