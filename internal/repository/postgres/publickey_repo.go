package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/hushkeep/hushkeep/internal/errs"
	"github.com/hushkeep/hushkeep/internal/model"
)

// PublicKeyRepo implements PublicKeyRepository using PostgreSQL.
type PublicKeyRepo struct{ db *DB }

// NewPublicKeyRepo constructs a public key repository.
func NewPublicKeyRepo(db *DB) *PublicKeyRepo { return &PublicKeyRepo{db: db} }

// Get selects the user's registered key.
func (r *PublicKeyRepo) Get(ctx context.Context, userID string) (*model.PublicKeyRecord, error) {
	const q = `SELECT user_id, key, updated_at FROM public_keys WHERE user_id=$1`
	row := r.db.Pool.QueryRow(ctx, q, userID)
	var rec model.PublicKeyRecord
	if err := row.Scan(&rec.UserID, &rec.Key, &rec.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// Upsert inserts or replaces the user's key in place.
func (r *PublicKeyRepo) Upsert(ctx context.Context, userID, key string) error {
	const q = `
INSERT INTO public_keys (user_id, key, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (user_id) DO UPDATE SET key=EXCLUDED.key, updated_at=now()`
	_, err := r.db.Pool.Exec(ctx, q, userID, key)
	return err
}
