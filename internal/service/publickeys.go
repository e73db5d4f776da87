package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/hushkeep/hushkeep/internal/crypto/clientcipher"
	"github.com/hushkeep/hushkeep/internal/errs"
	"github.com/hushkeep/hushkeep/internal/repository"
)

// PublicKeyService is the per-user registry of client encryption keys.
// Updating a key does not touch existing secret ciphertexts.
type PublicKeyService interface {
	// Get returns the registered key material, "" if none.
	Get(ctx context.Context, userID string) (string, error)
	// Set validates and upserts the key material.
	Set(ctx context.Context, userID, keyMaterial string) error
}

type PublicKeyServiceImpl struct {
	keys repository.PublicKeyRepository
}

// NewPublicKeyService constructs a PublicKeyService.
func NewPublicKeyService(keys repository.PublicKeyRepository) *PublicKeyServiceImpl {
	return &PublicKeyServiceImpl{keys: keys}
}

// Get returns "" for users that never registered a key; that is not an error.
func (s *PublicKeyServiceImpl) Get(ctx context.Context, userID string) (string, error) {
	rec, err := s.keys.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	return rec.Key, nil
}

// Set rejects anything that is not a PEM-armored RSA public key, then
// upserts. The format check runs before any store access.
func (s *PublicKeyServiceImpl) Set(ctx context.Context, userID, keyMaterial string) error {
	if userID == "" {
		return errors.New("empty userID")
	}
	if !clientcipher.IsValidPublicKey(keyMaterial) {
		return fmt.Errorf("%w: malformed public key", errs.ErrValidation)
	}
	return s.keys.Upsert(ctx, userID, keyMaterial)
}
