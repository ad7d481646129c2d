package identity

import (
	"errors"
	"testing"
	"time"
)

func newTestTokens(t *testing.T, ttl time.Duration) *Tokens {
	t.Helper()
	tokens, err := NewTokens("test-secret", ttl)
	if err != nil {
		t.Fatalf("new tokens: %v", err)
	}
	return tokens
}

func TestSignAndVerifyRoundTrip(t *testing.T) {
	tokens := newTestTokens(t, time.Hour)
	id := &Identity{
		ID:          "01J000000000000000000000AA",
		Role:        RoleResident,
		BuildingID:  "B1",
		UnitID:      "U1",
		LeaseID:     "L1",
	}
	signed, exp, err := tokens.Sign(id)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if !exp.After(time.Now()) {
		t.Fatalf("expiry not in the future: %s", exp)
	}

	claims, err := tokens.Verify(signed)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != id.ID {
		t.Fatalf("subject = %q, want %q", claims.Subject, id.ID)
	}
	if claims.Role != "resident" || claims.BuildingID != "B1" || claims.LeaseID != "L1" {
		t.Fatalf("tenancy claims not carried: %+v", claims)
	}
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	tokens := newTestTokens(t, time.Hour)
	other, err := NewTokens("other-secret", time.Hour)
	if err != nil {
		t.Fatalf("new tokens: %v", err)
	}
	signed, _, err := other.Sign(&Identity{ID: "x", Role: RoleAdmin})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := tokens.Verify(signed); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	tokens := newTestTokens(t, time.Minute)
	tokens.now = func() time.Time { return time.Now().Add(-time.Hour) }
	signed, _, err := tokens.Sign(&Identity{ID: "x", Role: RoleResident})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	tokens.now = time.Now
	if _, err := tokens.Verify(signed); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	tokens := newTestTokens(t, time.Hour)
	for _, raw := range []string{"", "   ", "not.a.token", "a.b"} {
		if _, err := tokens.Verify(raw); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("Verify(%q): expected ErrInvalidToken, got %v", raw, err)
		}
	}
}

func TestParseRole(t *testing.T) {
	cases := map[string]Role{
		"resident":   RoleResident,
		"Management": RoleManagement,
		" admin ":    RoleAdmin,
	}
	for input, want := range cases {
		got, err := ParseRole(input)
		if err != nil {
			t.Fatalf("ParseRole(%q): %v", input, err)
		}
		if got != want {
			t.Fatalf("ParseRole(%q)=%v, want %v", input, got, want)
		}
	}
	if _, err := ParseRole("superuser"); err == nil {
		t.Fatal("expected error for unknown role")
	}
}
