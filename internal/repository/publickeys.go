package repository

import (
	"context"

	"github.com/hushkeep/hushkeep/internal/model"
)

// PublicKeyRepository stores one encryption public key per user.
type PublicKeyRepository interface {
	// Get returns the user's registered key, or errs.ErrNotFound.
	Get(ctx context.Context, userID string) (*model.PublicKeyRecord, error)

	// Upsert inserts the key or replaces the existing record in place.
	// No history is retained.
	Upsert(ctx context.Context, userID, key string) error
}
