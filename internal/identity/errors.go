package identity

import "errors"

var (
	ErrNotFound        = errors.New("identity: not found")
	ErrEmailTaken      = errors.New("identity: email already in use")
	ErrInvalidInput    = errors.New("identity: invalid input")
	ErrUnauthenticated = errors.New("identity: not authenticated")
	ErrInvalidToken    = errors.New("identity: invalid token")
	ErrBadCredentials  = errors.New("identity: invalid credentials")
)
