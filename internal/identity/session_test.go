package identity

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stubStore struct {
	findFn func(ctx context.Context, id string) (*Identity, error)
}

func (s *stubStore) Create(ctx context.Context, id *Identity) error { return nil }
func (s *stubStore) Find(ctx context.Context, id string) (*Identity, error) {
	if s.findFn != nil {
		return s.findFn(ctx, id)
	}
	return nil, ErrNotFound
}
func (s *stubStore) FindByEmail(ctx context.Context, email string) (*Identity, error) {
	return nil, ErrNotFound
}
func (s *stubStore) ListByBuilding(ctx context.Context, buildingID string) ([]*Identity, error) {
	return nil, nil
}
func (s *stubStore) Update(ctx context.Context, id string, upd Update) (*Identity, error) {
	return nil, ErrNotFound
}
func (s *stubStore) Delete(ctx context.Context, id string) error { return nil }

func TestSessionResolveHappyPath(t *testing.T) {
	tokens := newTestTokens(t, time.Hour)
	stored := &Identity{ID: "id-1", Role: RoleResident, BuildingID: "B1", PasswordHash: "secret-hash"}
	store := &stubStore{findFn: func(_ context.Context, id string) (*Identity, error) {
		if id != "id-1" {
			return nil, ErrNotFound
		}
		return stored, nil
	}}
	resolver, err := NewSessionResolver(tokens, store)
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}

	signed, _, err := tokens.Sign(stored)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	got, err := resolver.Resolve(context.Background(), signed)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got.ID != "id-1" {
		t.Fatalf("resolved id = %q", got.ID)
	}
	if got.PasswordHash != "" {
		t.Fatal("credential hash must be stripped")
	}
}

func TestSessionResolveMissingToken(t *testing.T) {
	resolver, err := NewSessionResolver(newTestTokens(t, time.Hour), &stubStore{})
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}
	if _, err := resolver.Resolve(context.Background(), ""); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestSessionResolveRevokedAccount(t *testing.T) {
	tokens := newTestTokens(t, time.Hour)
	resolver, err := NewSessionResolver(tokens, &stubStore{}) // store has no identities
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}
	signed, _, err := tokens.Sign(&Identity{ID: "gone", Role: RoleResident})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := resolver.Resolve(context.Background(), signed); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for deleted account, got %v", err)
	}
}
