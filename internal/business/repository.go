package business

import (
	"context"
	"encoding/json"
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

const businessColumns = `id, owner_id, name, COALESCE(country, ''), COALESCE(city, ''), currency, timezone, settings, created_at`

func scanBusiness(row pgx.Row) (*Business, error) {
	var b Business
	var rawSettings []byte
	if err := row.Scan(&b.ID, &b.OwnerID, &b.Name, &b.Country, &b.City, &b.Currency, &b.Timezone, &rawSettings, &b.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	if len(rawSettings) > 0 {
		if err := json.Unmarshal(rawSettings, &b.Settings); err != nil {
			b.Settings = nil
		}
	}
	return &b, nil
}

// Create inserts a business for the given owner.
func (r *Repository) Create(ctx context.Context, b Business) (*Business, error) {
	settings, err := marshalSettings(b.Settings)
	if err != nil {
		return nil, err
	}
	row := r.pool.QueryRow(ctx,
		`INSERT INTO businesses (owner_id, name, country, city, currency, timezone, settings, created_at)
		 VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, $6, $7, now())
		 RETURNING `+businessColumns,
		b.OwnerID, b.Name, b.Country, b.City, b.Currency, b.Timezone, settings)
	return scanBusiness(row)
}

// Get fetches a business by id.
func (r *Repository) Get(ctx context.Context, id int64) (*Business, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+businessColumns+` FROM businesses WHERE id = $1`, id)
	return scanBusiness(row)
}

// ListByOwner returns the businesses a user owns.
func (r *Repository) ListByOwner(ctx context.Context, ownerID int64) ([]Business, error) {
	return r.list(ctx, `SELECT `+businessColumns+` FROM businesses WHERE owner_id = $1 ORDER BY id`, ownerID)
}

// List returns every business. Admin only at the handler layer.
func (r *Repository) List(ctx context.Context) ([]Business, error) {
	return r.list(ctx, `SELECT `+businessColumns+` FROM businesses ORDER BY id`)
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]Business, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Business
	for rows.Next() {
		b, err := scanBusiness(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// Update persists mutable business fields.
func (r *Repository) Update(ctx context.Context, b Business) (*Business, error) {
	settings, err := marshalSettings(b.Settings)
	if err != nil {
		return nil, err
	}
	row := r.pool.QueryRow(ctx,
		`UPDATE businesses
		 SET name = $2, country = NULLIF($3, ''), city = NULLIF($4, ''), currency = $5, timezone = $6, settings = $7
		 WHERE id = $1
		 RETURNING `+businessColumns,
		b.ID, b.Name, b.Country, b.City, b.Currency, b.Timezone, settings)
	return scanBusiness(row)
}

// Delete removes a business. Owned categories, transactions, forecasts, risk
// scores, alerts and api keys go with it via ON DELETE CASCADE.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM businesses WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func marshalSettings(settings map[string]any) ([]byte, error) {
	if settings == nil {
		return nil, nil
	}
	return json.Marshal(settings)
}
