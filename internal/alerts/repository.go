package alerts

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

const alertColumns = `id, business_id, level, message, linked_transaction_id, resolved, resolved_at, created_at`

func scanAlert(row pgx.Row) (*Alert, error) {
	var a Alert
	if err := row.Scan(&a.ID, &a.BusinessID, &a.Level, &a.Message, &a.LinkedTransactionID, &a.Resolved, &a.ResolvedAt, &a.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// Create inserts an alert.
func (r *Repository) Create(ctx context.Context, a Alert) (*Alert, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO alerts (business_id, level, message, linked_transaction_id, resolved, created_at)
		 VALUES ($1, $2, $3, $4, FALSE, now())
		 RETURNING `+alertColumns,
		a.BusinessID, a.Level, a.Message, a.LinkedTransactionID)
	return scanAlert(row)
}

// Get fetches an alert by id.
func (r *Repository) Get(ctx context.Context, id int64) (*Alert, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+alertColumns+` FROM alerts WHERE id = $1`, id)
	return scanAlert(row)
}

// ListByBusiness returns a business's alerts, newest first; unresolved only
// when onlyOpen is set.
func (r *Repository) ListByBusiness(ctx context.Context, businessID int64, onlyOpen bool) ([]Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE business_id = $1`
	if onlyOpen {
		query += ` AND resolved = FALSE`
	}
	query += ` ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, businessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// Resolve marks an alert settled.
func (r *Repository) Resolve(ctx context.Context, id int64) (*Alert, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE alerts SET resolved = TRUE, resolved_at = now() WHERE id = $1 RETURNING `+alertColumns, id)
	return scanAlert(row)
}

// Delete removes an alert.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM alerts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
