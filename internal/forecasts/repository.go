package forecasts

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

const forecastColumns = `id, business_id, granularity, period_start, period_end,
	predicted_value::double precision, lower_bound::double precision, upper_bound::double precision,
	forecast_metadata, created_at`

func scanForecast(row pgx.Row) (*Forecast, error) {
	var f Forecast
	var rawMetadata []byte
	if err := row.Scan(&f.ID, &f.BusinessID, &f.Granularity, &f.PeriodStart, &f.PeriodEnd,
		&f.PredictedValue, &f.LowerBound, &f.UpperBound, &rawMetadata, &f.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	if len(rawMetadata) > 0 {
		if err := json.Unmarshal(rawMetadata, &f.Metadata); err != nil {
			f.Metadata = nil
		}
	}
	return &f, nil
}

// Create inserts a forecast.
func (r *Repository) Create(ctx context.Context, f Forecast) (*Forecast, error) {
	metadata, err := marshalMetadata(f.Metadata)
	if err != nil {
		return nil, err
	}
	row := r.pool.QueryRow(ctx,
		`INSERT INTO forecasts (business_id, granularity, period_start, period_end,
		   predicted_value, lower_bound, upper_bound, forecast_metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		 RETURNING `+forecastColumns,
		f.BusinessID, f.Granularity, f.PeriodStart, f.PeriodEnd,
		f.PredictedValue, f.LowerBound, f.UpperBound, metadata)
	return scanForecast(row)
}

// Get fetches a forecast by id.
func (r *Repository) Get(ctx context.Context, id int64) (*Forecast, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+forecastColumns+` FROM forecasts WHERE id = $1`, id)
	return scanForecast(row)
}

// ListByBusiness returns a business's forecasts, newest first.
func (r *Repository) ListByBusiness(ctx context.Context, businessID int64) ([]Forecast, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+forecastColumns+` FROM forecasts WHERE business_id = $1 ORDER BY created_at DESC`, businessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Forecast
	for rows.Next() {
		f, err := scanForecast(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *f)
	}
	return out, rows.Err()
}

// Update persists mutable forecast fields.
func (r *Repository) Update(ctx context.Context, f Forecast) (*Forecast, error) {
	metadata, err := marshalMetadata(f.Metadata)
	if err != nil {
		return nil, err
	}
	row := r.pool.QueryRow(ctx,
		`UPDATE forecasts
		 SET granularity = $2, period_start = $3, period_end = $4,
		     predicted_value = $5, lower_bound = $6, upper_bound = $7, forecast_metadata = $8
		 WHERE id = $1
		 RETURNING `+forecastColumns,
		f.ID, f.Granularity, f.PeriodStart, f.PeriodEnd,
		f.PredictedValue, f.LowerBound, f.UpperBound, metadata)
	return scanForecast(row)
}

// Delete removes a forecast.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM forecasts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func marshalMetadata(metadata map[string]any) ([]byte, error) {
	if metadata == nil {
		return nil, nil
	}
	return json.Marshal(metadata)
}
