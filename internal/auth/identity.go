package auth

import (
	"context"
	"errors"
)

// ErrInvalidToken is returned for any token that fails verification:
// bad signature, expired, wrong issuer or audience, missing subject.
var ErrInvalidToken = errors.New("invalid or expired token")

// Identity is the verified caller.
type Identity struct {
	UID   string `json:"uid"`
	Email string `json:"email,omitempty"`
	Admin bool   `json:"admin"`
}

// Verifier turns a bearer token into an Identity.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}
