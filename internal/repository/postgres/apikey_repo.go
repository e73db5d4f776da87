package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/hushkeep/hushkeep/internal/errs"
	"github.com/hushkeep/hushkeep/internal/model"
)

// APIKeyRepo implements APIKeyRepository using PostgreSQL.
type APIKeyRepo struct{ db *DB }

// NewAPIKeyRepo constructs an API key repository.
func NewAPIKeyRepo(db *DB) *APIKeyRepo { return &APIKeyRepo{db: db} }

// GetActive selects the user's active key.
func (r *APIKeyRepo) GetActive(ctx context.Context, userID string) (*model.APIKey, error) {
	const q = `
SELECT id, user_id, key, active, created_at
FROM api_keys WHERE user_id=$1 AND active=true`
	row := r.db.Pool.QueryRow(ctx, q, userID)
	var k model.APIKey
	if err := row.Scan(&k.ID, &k.UserID, &k.Key, &k.Active, &k.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &k, nil
}

// FindActiveByKey resolves key material, filtered by active=true. Absent and
// deactivated keys are indistinguishable to the caller.
func (r *APIKeyRepo) FindActiveByKey(ctx context.Context, key string) (*model.APIKey, error) {
	const q = `
SELECT id, user_id, key, active, created_at
FROM api_keys WHERE key=$1 AND active=true`
	row := r.db.Pool.QueryRow(ctx, q, key)
	var k model.APIKey
	if err := row.Scan(&k.ID, &k.UserID, &k.Key, &k.Active, &k.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &k, nil
}

// Create inserts a new active key row.
func (r *APIKeyRepo) Create(ctx context.Context, k *model.APIKey) error {
	const q = `
INSERT INTO api_keys (id, user_id, key, active, created_at)
VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.Pool.Exec(ctx, q, k.ID, k.UserID, k.Key, k.Active, k.CreatedAt)
	if isUniqueViolation(err) {
		// the partial unique index on (user_id) WHERE active caught a
		// concurrent insert
		return errs.ErrAlreadyExists
	}
	return err
}

// Rotate deactivates all active keys for the user, then inserts the new one,
// inside one transaction. Old rows are kept with active=false.
func (r *APIKeyRepo) Rotate(ctx context.Context, userID string, newKey *model.APIKey) (err error) {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = e
		}
	}()

	const deactivate = `UPDATE api_keys SET active=false WHERE user_id=$1 AND active=true`
	const insert = `
INSERT INTO api_keys (id, user_id, key, active, created_at)
VALUES ($1, $2, $3, $4, $5)`

	if _, err = tx.Exec(ctx, deactivate, userID); err != nil {
		return err
	}
	if _, err = tx.Exec(ctx, insert, newKey.ID, newKey.UserID, newKey.Key, newKey.Active, newKey.CreatedAt); err != nil {
		return err
	}
	return nil
}
