package postgres

import (
	"context"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/hushkeep/hushkeep/internal/model"
)

// SecretRepo implements SecretRepository using PostgreSQL.
type SecretRepo struct{ db *DB }

// NewSecretRepo constructs a secret repository.
func NewSecretRepo(db *DB) *SecretRepo { return &SecretRepo{db: db} }

// List returns all secrets for the user.
func (r *SecretRepo) List(ctx context.Context, userID string) ([]model.SecretRecord, error) {
	const q = `
SELECT id, user_id, key, value, created_at
FROM user_secrets WHERE user_id=$1
ORDER BY created_at ASC`
	rows, err := r.db.Pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSecrets(rows)
}

// FindByName returns the user's secrets with the given name, oldest first.
func (r *SecretRepo) FindByName(ctx context.Context, userID, name string) ([]model.SecretRecord, error) {
	const q = `
SELECT id, user_id, key, value, created_at
FROM user_secrets WHERE user_id=$1 AND key=$2
ORDER BY created_at ASC`
	rows, err := r.db.Pool.Query(ctx, q, userID, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSecrets(rows)
}

// Create inserts a new secret row.
func (r *SecretRepo) Create(ctx context.Context, s *model.SecretRecord) error {
	const q = `
INSERT INTO user_secrets (id, user_id, key, value, created_at)
VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.Pool.Exec(ctx, q, s.ID, s.UserID, s.Key, s.Value, s.CreatedAt)
	return err
}

// Delete removes the record matching both id and user_id. Ownership lives in
// the predicate; zero rows affected is success.
func (r *SecretRepo) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	const q = `DELETE FROM user_secrets WHERE id=$1 AND user_id=$2`
	_, err := r.db.Pool.Exec(ctx, q, id, userID)
	return err
}

func scanSecrets(rows pgx.Rows) ([]model.SecretRecord, error) {
	var out []model.SecretRecord
	for rows.Next() {
		var s model.SecretRecord
		if err := rows.Scan(&s.ID, &s.UserID, &s.Key, &s.Value, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
