// Package service contains application services for credentials, keys and secrets.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	pkgcrypto "github.com/hushkeep/hushkeep/internal/crypto"
	"github.com/hushkeep/hushkeep/internal/errs"
	"github.com/hushkeep/hushkeep/internal/identity"
	"github.com/hushkeep/hushkeep/internal/repository"
)

// APIKeyCache caches api-key to user resolutions. Implemented by cache.Cache;
// a nil value disables caching. SetUserID must not overwrite an entry that
// Invalidate has revoked, so a lookup racing a rotation cannot resurrect the
// rotated-out key.
type APIKeyCache interface {
	GetUserID(ctx context.Context, apiKey string) (string, error)
	SetUserID(ctx context.Context, apiKey, userID string) error
	Invalidate(ctx context.Context, apiKey string) error
}

// CredentialVerifier resolves request credentials to a verified user id.
// Every secret/key operation goes through exactly one of the two paths.
type CredentialVerifier interface {
	// VerifySession resolves an Authorization header value. All failures
	// (missing header, malformed Bearer prefix, provider-rejected token)
	// collapse to errs.ErrUnauthorized; distinctions are log-only.
	VerifySession(ctx context.Context, authHeader string) (string, error)
	// VerifyAPIKey resolves an API key by direct lookup filtered by
	// active=true. No expiry: only regeneration deactivates a key.
	VerifyAPIKey(ctx context.Context, key string) (string, error)
}

type VerifierImpl struct {
	tokens identity.TokenVerifier
	keys   repository.APIKeyRepository
	cache  APIKeyCache
}

// NewVerifier constructs a CredentialVerifier. cache may be nil.
func NewVerifier(tokens identity.TokenVerifier, keys repository.APIKeyRepository, cache APIKeyCache) *VerifierImpl {
	return &VerifierImpl{tokens: tokens, keys: keys, cache: cache}
}

// VerifySession extracts the bearer token and delegates to the identity
// provider. Provider outages are not masked as bad credentials.
func (v *VerifierImpl) VerifySession(ctx context.Context, authHeader string) (string, error) {
	token, ok := bearerToken(authHeader)
	if !ok {
		return "", fmt.Errorf("%w: missing bearer token", errs.ErrUnauthorized)
	}
	userID, err := v.tokens.Verify(ctx, token)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidToken) {
			return "", fmt.Errorf("%w: token rejected", errs.ErrUnauthorized)
		}
		return "", err
	}
	return userID, nil
}

// VerifyAPIKey rejects malformed keys before any store access, then resolves
// through the cache or the store.
func (v *VerifierImpl) VerifyAPIKey(ctx context.Context, key string) (string, error) {
	if !pkgcrypto.IsAPIKeyToken(key) {
		return "", fmt.Errorf("%w: malformed api key", errs.ErrUnauthorized)
	}
	if v.cache != nil {
		if userID, _ := v.cache.GetUserID(ctx, key); userID != "" {
			return userID, nil
		}
	}
	rec, err := v.keys.FindActiveByKey(ctx, key)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return "", fmt.Errorf("%w: unknown or inactive api key", errs.ErrUnauthorized)
		}
		return "", err
	}
	if v.cache != nil {
		_ = v.cache.SetUserID(ctx, key, rec.UserID)
	}
	return rec.UserID, nil
}

// bearerToken parses an "Authorization: Bearer <token>" header value.
func bearerToken(header string) (string, bool) {
	h := strings.TrimSpace(header)
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return "", false
	}
	t := strings.TrimSpace(h[7:])
	return t, t != ""
}
