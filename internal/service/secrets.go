package service

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/gofrs/uuid/v5"

	"github.com/hushkeep/hushkeep/internal/errs"
	"github.com/hushkeep/hushkeep/internal/model"
	"github.com/hushkeep/hushkeep/internal/repository"
)

// maxSecretNameLen bounds the secret name.
const maxSecretNameLen = 255

// SecretService is the gateway over secret records. Two read surfaces with
// different exposure contracts: the session surface masks values, the
// API-key surface returns them exactly as stored. The server never encrypts
// or decrypts a value.
type SecretService interface {
	// ListMasked returns the user's secrets for the session surface, values
	// redacted. Ordering is not part of the contract.
	ListMasked(ctx context.Context, userID string) ([]model.MaskedSecret, error)
	// ListRaw returns the user's secrets with exact stored values.
	ListRaw(ctx context.Context, userID string) ([]model.SecretRecord, error)
	// GetRaw returns one secret by name, errs.ErrNotFound if absent.
	// Duplicate names resolve to the oldest record.
	GetRaw(ctx context.Context, userID, name string) (*model.SecretRecord, error)
	// Create validates and stores a secret. The value is stored as given.
	Create(ctx context.Context, userID, key, value string) (*model.SecretRecord, error)
	// Delete removes the user's secret by id. Missing or foreign records
	// are a no-op success.
	Delete(ctx context.Context, userID string, id uuid.UUID) error
}

type SecretServiceImpl struct {
	repo repository.SecretRepository
}

// NewSecretService constructs a SecretService.
func NewSecretService(repo repository.SecretRepository) *SecretServiceImpl {
	return &SecretServiceImpl{repo: repo}
}

// ListMasked never exposes the stored value.
func (s *SecretServiceImpl) ListMasked(ctx context.Context, userID string) ([]model.MaskedSecret, error) {
	if userID == "" {
		return nil, errors.New("empty userID")
	}
	recs, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]model.MaskedSecret, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Masked())
	}
	return out, nil
}

// ListRaw is the programmatic retrieval path; the consumer holds the
// decryption key out-of-band.
func (s *SecretServiceImpl) ListRaw(ctx context.Context, userID string) ([]model.SecretRecord, error) {
	if userID == "" {
		return nil, errors.New("empty userID")
	}
	return s.repo.List(ctx, userID)
}

// GetRaw resolves a name to a single record.
func (s *SecretServiceImpl) GetRaw(ctx context.Context, userID, name string) (*model.SecretRecord, error) {
	if userID == "" || name == "" {
		return nil, errors.New("empty userID/name")
	}
	recs, err := s.repo.FindByName(ctx, userID, name)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, errs.ErrNotFound
	}
	return &recs[0], nil
}

// Create validates before any store access. Name uniqueness is deliberately
// not enforced; duplicates coexist distinguishable by id.
func (s *SecretServiceImpl) Create(ctx context.Context, userID, key, value string) (*model.SecretRecord, error) {
	if userID == "" {
		return nil, errors.New("empty userID")
	}
	if key == "" {
		return nil, fmt.Errorf("%w: key cannot be empty", errs.ErrValidation)
	}
	if utf8.RuneCountInString(key) > maxSecretNameLen {
		return nil, fmt.Errorf("%w: key is too long", errs.ErrValidation)
	}
	if value == "" {
		return nil, fmt.Errorf("%w: value cannot be empty", errs.ErrValidation)
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	rec := &model.SecretRecord{
		ID:        id,
		UserID:    userID,
		Key:       key,
		Value:     value,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Delete delegates to the combined-predicate delete; no existence check.
func (s *SecretServiceImpl) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	if userID == "" || id == uuid.Nil {
		return errors.New("empty userID/id")
	}
	return s.repo.Delete(ctx, userID, id)
}
