package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"
	"github.com/hushkeep/hushkeep/internal/model"
)

// SecretRepository provides user-scoped access to secret records.
// Results come back in created_at order for stability, but ordering is not
// part of the contract.
type SecretRepository interface {
	// List returns all of the user's secrets.
	List(ctx context.Context, userID string) ([]model.SecretRecord, error)

	// FindByName returns the user's secrets with the given name. Names are
	// not unique per user, so this may return several records.
	FindByName(ctx context.Context, userID, name string) ([]model.SecretRecord, error)

	// Create inserts a new record.
	Create(ctx context.Context, s *model.SecretRecord) error

	// Delete removes the record matching both id and userID in one
	// predicate. Zero rows affected is success: a separate existence check
	// would leak other users' record ids.
	Delete(ctx context.Context, userID string, id uuid.UUID) error
}
