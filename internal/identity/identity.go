// Package identity verifies session tokens against the identity provider.
// The provider is an external collaborator; implementations only resolve a
// bearer token to an opaque user id or reject it.
package identity

import (
	"context"
	"errors"
)

// ErrInvalidToken covers every provider-side rejection: malformed, expired,
// revoked, wrong signature. Callers collapse it to a single 401.
var ErrInvalidToken = errors.New("invalid token")

// TokenVerifier resolves a bearer session token to a user id.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (userID string, err error)
}
