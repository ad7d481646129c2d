package identity

import (
	"context"
	"errors"
	"strings"
)

// SessionResolver turns an inbound session token into a live identity.
// Claims routed through the token are not trusted for data access: the
// stored identity is re-fetched on every call so revoked or changed
// accounts lose access immediately.
type SessionResolver struct {
	tokens *Tokens
	store  Store
}

// NewSessionResolver constructs a resolver over the given verifier/store.
func NewSessionResolver(tokens *Tokens, store Store) (*SessionResolver, error) {
	if tokens == nil {
		return nil, errors.New("token verifier is required")
	}
	if store == nil {
		return nil, errors.New("identity store is required")
	}
	return &SessionResolver{tokens: tokens, store: store}, nil
}

// Resolve validates the token and loads the acting identity with the
// credential hash stripped. An empty token fails with ErrUnauthenticated; a
// bad signature or a subject that no longer resolves fails with
// ErrInvalidToken.
func (r *SessionResolver) Resolve(ctx context.Context, token string) (*Identity, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrUnauthenticated
	}
	claims, err := r.tokens.Verify(token)
	if err != nil {
		return nil, ErrInvalidToken
	}
	id, err := r.store.Find(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return id.Sanitized(), nil
}
