package service

import (
	"context"
	"errors"
	"time"

	"github.com/gofrs/uuid/v5"

	pkgcrypto "github.com/hushkeep/hushkeep/internal/crypto"
	"github.com/hushkeep/hushkeep/internal/errs"
	"github.com/hushkeep/hushkeep/internal/model"
	"github.com/hushkeep/hushkeep/internal/repository"
)

// APIKeyService manages the API key lifecycle: one active key per user,
// superseded keys retained inactive.
type APIKeyService interface {
	// GetOrCreate returns the existing active key unchanged, or issues the
	// first one. created reports which happened.
	GetOrCreate(ctx context.Context, userID string) (key string, created bool, err error)
	// Regenerate replaces the active key: deactivate-then-insert in one
	// storage transaction.
	Regenerate(ctx context.Context, userID string) (string, error)
}

type APIKeyServiceImpl struct {
	keys  repository.APIKeyRepository
	cache APIKeyCache
}

// NewAPIKeyService constructs an APIKeyService. cache may be nil.
func NewAPIKeyService(keys repository.APIKeyRepository, cache APIKeyCache) *APIKeyServiceImpl {
	return &APIKeyServiceImpl{keys: keys, cache: cache}
}

// GetOrCreate is idempotent: two calls without an intervening Regenerate
// return the identical key. A concurrent first call may lose the insert race
// and falls back to reading the winner's key.
func (s *APIKeyServiceImpl) GetOrCreate(ctx context.Context, userID string) (string, bool, error) {
	if userID == "" {
		return "", false, errors.New("empty userID")
	}
	existing, err := s.keys.GetActive(ctx, userID)
	if err == nil {
		return existing.Key, false, nil
	}
	if !errors.Is(err, errs.ErrNotFound) {
		return "", false, err
	}

	rec, err := s.newKey(userID)
	if err != nil {
		return "", false, err
	}
	if err := s.keys.Create(ctx, rec); err != nil {
		if errors.Is(err, errs.ErrAlreadyExists) {
			winner, gerr := s.keys.GetActive(ctx, userID)
			if gerr != nil {
				return "", false, gerr
			}
			return winner.Key, false, nil
		}
		return "", false, err
	}
	return rec.Key, true, nil
}

// Regenerate rotates the key and revokes the superseded key in the cache so
// it stops resolving immediately, even against a lookup already in flight
// (TTL bounds staleness if the write fails).
func (s *APIKeyServiceImpl) Regenerate(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", errors.New("empty userID")
	}
	old, err := s.keys.GetActive(ctx, userID)
	if err != nil && !errors.Is(err, errs.ErrNotFound) {
		return "", err
	}

	rec, err := s.newKey(userID)
	if err != nil {
		return "", err
	}
	if err := s.keys.Rotate(ctx, userID, rec); err != nil {
		return "", err
	}
	if s.cache != nil && old != nil {
		_ = s.cache.Invalidate(ctx, old.Key)
	}
	return rec.Key, nil
}

func (s *APIKeyServiceImpl) newKey(userID string) (*model.APIKey, error) {
	token, err := pkgcrypto.NewAPIKeyToken()
	if err != nil {
		return nil, err
	}
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	return &model.APIKey{
		ID:        id,
		UserID:    userID,
		Key:       token,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}, nil
}
