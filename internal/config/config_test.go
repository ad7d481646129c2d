package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TENURE_AUTH_SECRET", "test-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("unexpected addr %q", cfg.HTTPAddr)
	}
	if cfg.TokenTTL != 168*time.Hour {
		t.Fatalf("unexpected ttl %s", cfg.TokenTTL)
	}
	if cfg.CookieName != "tenure_session" {
		t.Fatalf("unexpected cookie name %q", cfg.CookieName)
	}
	if got := cfg.Origins(); len(got) != 1 || got[0] != "http://localhost:5173" {
		t.Fatalf("unexpected origins %v", got)
	}
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("TENURE_AUTH_SECRET", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing secret")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TENURE_AUTH_SECRET", "s")
	t.Setenv("TENURE_HTTP_ADDR", ":9191")
	t.Setenv("TENURE_TOKEN_TTL", "15m")
	t.Setenv("TENURE_CLIENT_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != ":9191" {
		t.Fatalf("unexpected addr %q", cfg.HTTPAddr)
	}
	if cfg.TokenTTL != 15*time.Minute {
		t.Fatalf("unexpected ttl %s", cfg.TokenTTL)
	}
	if got := cfg.Origins(); len(got) != 2 || got[1] != "https://b.example" {
		t.Fatalf("unexpected origins %v", got)
	}
}
