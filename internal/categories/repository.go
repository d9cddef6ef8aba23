package categories

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

const categoryColumns = `id, business_id, name, type, parent_id, created_at`

func scanCategory(row pgx.Row) (*Category, error) {
	var c Category
	if err := row.Scan(&c.ID, &c.BusinessID, &c.Name, &c.Type, &c.ParentID, &c.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Create inserts a category.
func (r *Repository) Create(ctx context.Context, c Category) (*Category, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO categories (business_id, name, type, parent_id, created_at)
		 VALUES ($1, $2, $3, $4, now())
		 RETURNING `+categoryColumns,
		c.BusinessID, c.Name, c.Type, c.ParentID)
	return scanCategory(row)
}

// Get fetches a category by id.
func (r *Repository) Get(ctx context.Context, id int64) (*Category, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id)
	return scanCategory(row)
}

// ListByBusiness returns a business's categories.
func (r *Repository) ListByBusiness(ctx context.Context, businessID int64) ([]Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+categoryColumns+` FROM categories WHERE business_id = $1 ORDER BY name`, businessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// Update persists category changes.
func (r *Repository) Update(ctx context.Context, c Category) (*Category, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE categories SET name = $2, type = $3, parent_id = $4 WHERE id = $1 RETURNING `+categoryColumns,
		c.ID, c.Name, c.Type, c.ParentID)
	return scanCategory(row)
}

// Delete removes a category; child categories cascade via the schema.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
