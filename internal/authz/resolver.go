package authz

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fincompass/fincompass/internal/shared"
)

// PGResolver answers guard lookups with point queries against PostgreSQL.
type PGResolver struct {
	pool *pgxpool.Pool
}

// NewResolver constructs a resolver backed by the shared pool.
func NewResolver(pool *pgxpool.Pool) *PGResolver {
	return &PGResolver{pool: pool}
}

// BusinessOwner returns the owner of a business.
func (r *PGResolver) BusinessOwner(ctx context.Context, businessID int64) (int64, error) {
	var ownerID int64
	err := r.pool.QueryRow(ctx, `SELECT owner_id FROM businesses WHERE id = $1`, businessID).Scan(&ownerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, shared.ErrNotFound
	}
	return ownerID, err
}

// FindBusiness returns the ownership edge for a business.
func (r *PGResolver) FindBusiness(ctx context.Context, id int64) (Business, error) {
	var b Business
	err := r.pool.QueryRow(ctx, `SELECT id, owner_id FROM businesses WHERE id = $1`, id).Scan(&b.ID, &b.OwnerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return Business{}, shared.ErrNotFound
	}
	return b, err
}

// BusinessesOwnedBy lists the businesses a user owns.
func (r *PGResolver) BusinessesOwnedBy(ctx context.Context, ownerID int64) ([]Business, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, owner_id FROM businesses WHERE owner_id = $1 ORDER BY id`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var owned []Business
	for rows.Next() {
		var b Business
		if err := rows.Scan(&b.ID, &b.OwnerID); err != nil {
			return nil, err
		}
		owned = append(owned, b)
	}
	return owned, rows.Err()
}

// FindTransaction returns the transaction-to-business edge.
func (r *PGResolver) FindTransaction(ctx context.Context, id int64) (Transaction, error) {
	var t Transaction
	err := r.pool.QueryRow(ctx, `SELECT id, business_id FROM transactions WHERE id = $1`, id).Scan(&t.ID, &t.BusinessID)
	if errors.Is(err, pgx.ErrNoRows) {
		return Transaction{}, shared.ErrNotFound
	}
	return t, err
}

var _ ResourceResolver = (*PGResolver)(nil)
