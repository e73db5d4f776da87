// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/hushkeep/hushkeep/internal/model"
)

// APIKeyRepository stores issued API keys. The single-active-per-user
// invariant is enforced here (transaction + partial unique index), not in
// process memory.
type APIKeyRepository interface {
	// GetActive returns the user's active key, or errs.ErrNotFound.
	GetActive(ctx context.Context, userID string) (*model.APIKey, error)

	// FindActiveByKey resolves key material to its record, filtered by
	// active=true. errs.ErrNotFound covers absent and deactivated keys.
	FindActiveByKey(ctx context.Context, key string) (*model.APIKey, error)

	// Create inserts a new active key.
	Create(ctx context.Context, k *model.APIKey) error

	// Rotate deactivates all active keys for the user and inserts the new
	// one in a single transaction. Deactivate-then-insert ordering: a
	// concurrent reader sees the old key or the new key, never a durable
	// zero-active window.
	Rotate(ctx context.Context, userID string, newKey *model.APIKey) error
}
