package transactions

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fincompass/fincompass/internal/shared"
)

// ListFilter narrows a business transaction listing.
type ListFilter struct {
	BusinessID int64
	From       time.Time
	To         time.Time
	Direction  string
	Limit      int
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const txColumns = `id, business_id, date, COALESCE(description, ''), amount::double precision, direction,
	category_id, COALESCE(source, ''), is_anomalous, COALESCE(ai_tag, ''), created_at, COALESCE(updated_at, created_at)`

func scanTransaction(row pgx.Row) (*Transaction, error) {
	var t Transaction
	err := row.Scan(&t.ID, &t.BusinessID, &t.Date, &t.Description, &t.Amount, &t.Direction,
		&t.CategoryID, &t.Source, &t.IsAnomalous, &t.AITag, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// Create inserts a transaction.
func (r *Repository) Create(ctx context.Context, t Transaction) (*Transaction, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO transactions (business_id, date, description, amount, direction, category_id, source, is_anomalous, ai_tag, created_at)
		 VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, NULLIF($7, ''), $8, NULLIF($9, ''), now())
		 RETURNING `+txColumns,
		t.BusinessID, t.Date, t.Description, t.Amount, t.Direction, t.CategoryID, t.Source, t.IsAnomalous, t.AITag)
	return scanTransaction(row)
}

// Get fetches a transaction by id.
func (r *Repository) Get(ctx context.Context, id int64) (*Transaction, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+txColumns+` FROM transactions WHERE id = $1`, id)
	return scanTransaction(row)
}

// List returns business transactions matching the filter, newest first.
func (r *Repository) List(ctx context.Context, f ListFilter) ([]Transaction, error) {
	query := `SELECT ` + txColumns + ` FROM transactions WHERE business_id = $1`
	args := []any{f.BusinessID}
	if !f.From.IsZero() {
		args = append(args, f.From)
		query += ` AND date >= $` + strconv.Itoa(len(args))
	}
	if !f.To.IsZero() {
		args = append(args, f.To)
		query += ` AND date <= $` + strconv.Itoa(len(args))
	}
	if f.Direction != "" {
		args = append(args, f.Direction)
		query += ` AND direction = $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY date DESC, id DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// Update persists mutable transaction fields.
func (r *Repository) Update(ctx context.Context, t Transaction) (*Transaction, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE transactions
		 SET date = $2, description = NULLIF($3, ''), amount = $4, direction = $5, category_id = $6,
		     is_anomalous = $7, ai_tag = NULLIF($8, ''), updated_at = now()
		 WHERE id = $1
		 RETURNING `+txColumns,
		t.ID, t.Date, t.Description, t.Amount, t.Direction, t.CategoryID, t.IsAnomalous, t.AITag)
	return scanTransaction(row)
}

// Delete removes a transaction.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// MarkAnomalous flags a transaction as anomalous with the given tag.
func (r *Repository) MarkAnomalous(ctx context.Context, id int64, tag string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE transactions SET is_anomalous = TRUE, ai_tag = $2, updated_at = now() WHERE id = $1`,
		id, tag)
	return err
}
