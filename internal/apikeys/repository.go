package apikeys

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fincompass/fincompass/internal/shared"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const keyColumns = `id, business_id, COALESCE(name, ''), COALESCE(scopes, ''), revoked, created_at`

func scanKey(row pgx.Row) (*APIKey, error) {
	var k APIKey
	var rawScopes string
	if err := row.Scan(&k.ID, &k.BusinessID, &k.Name, &rawScopes, &k.Revoked, &k.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	k.Scopes = shared.SplitScopes(rawScopes)
	return &k, nil
}

// Insert stores a new key record with its hash.
func (r *Repository) Insert(ctx context.Context, businessID int64, name, keyHash string, scopes []string) (*APIKey, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO api_keys (business_id, name, key_hash, scopes, revoked, created_at)
		 VALUES ($1, NULLIF($2, ''), $3, $4, FALSE, now())
		 RETURNING `+keyColumns,
		businessID, name, keyHash, shared.JoinScopes(scopes))
	return scanKey(row)
}

// Get fetches a key by id.
func (r *Repository) Get(ctx context.Context, id int64) (*APIKey, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+keyColumns+` FROM api_keys WHERE id = $1`, id)
	return scanKey(row)
}

// ListByBusiness returns a business's keys, newest first.
func (r *Repository) ListByBusiness(ctx context.Context, businessID int64) ([]APIKey, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+keyColumns+` FROM api_keys WHERE business_id = $1 ORDER BY created_at DESC`, businessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []APIKey
	for rows.Next() {
		k, err := scanKey(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *k)
	}
	return out, rows.Err()
}

// Revoke permanently disables a key. A revoked key never authenticates
// again, even on a hash match.
func (r *Repository) Revoke(ctx context.Context, id int64) (*APIKey, error) {
	row := r.pool.QueryRow(ctx, `UPDATE api_keys SET revoked = TRUE WHERE id = $1 RETURNING `+keyColumns, id)
	return scanKey(row)
}

// Delete removes a key record.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM api_keys WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
