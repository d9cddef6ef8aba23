package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fincompass/fincompass/internal/shared"
)

// Repository runs the aggregate queries the metrics service composes.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// WindowTotals sums inflow and outflow amounts for [from, to).
func (r *Repository) WindowTotals(ctx context.Context, businessID int64, from, to time.Time) (WindowTotals, error) {
	var totals WindowTotals
	err := r.pool.QueryRow(ctx,
		`SELECT
		   COALESCE(SUM(amount) FILTER (WHERE direction = 'inflow'), 0)::double precision,
		   COALESCE(SUM(amount) FILTER (WHERE direction = 'outflow'), 0)::double precision
		 FROM transactions
		 WHERE business_id = $1 AND date >= $2 AND date < $3`,
		businessID, from, to).Scan(&totals.Inflow, &totals.Outflow)
	return totals, err
}

// DailyNets returns per-calendar-day net flows for [from, to), ordered by
// day. Days with no transactions do not appear.
func (r *Repository) DailyNets(ctx context.Context, businessID int64, from, to time.Time) ([]float64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT
		   SUM(CASE WHEN direction = 'inflow' THEN amount ELSE -amount END)::double precision
		 FROM transactions
		 WHERE business_id = $1 AND date >= $2 AND date < $3
		 GROUP BY date
		 ORDER BY date`,
		businessID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var nets []float64
	for rows.Next() {
		var net float64
		if err := rows.Scan(&net); err != nil {
			return nil, err
		}
		nets = append(nets, net)
	}
	return nets, rows.Err()
}

// LatestRisk fetches the newest persisted risk score for the business, or
// shared.ErrNotFound when none exists.
func (r *Repository) LatestRisk(ctx context.Context, businessID int64) (*RiskInputs, error) {
	var inputs RiskInputs
	err := r.pool.QueryRow(ctx,
		`SELECT
		   COALESCE(cashflow_risk_score, 0)::double precision,
		   COALESCE(liquidity_score, 0)::double precision,
		   COALESCE(volatility_index, 0)::double precision
		 FROM risk_scores
		 WHERE business_id = $1
		 ORDER BY assessed_at DESC
		 LIMIT 1`,
		businessID).Scan(&inputs.CashflowRiskScore, &inputs.LiquidityScore, &inputs.VolatilityIndex)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &inputs, nil
}

// CurrentCash reads current_cash from the business settings map, defaulting
// to 0 when the key or the map is absent.
func (r *Repository) CurrentCash(ctx context.Context, businessID int64) (float64, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx,
		`SELECT settings FROM businesses WHERE id = $1`, businessID).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, shared.ErrNotFound
		}
		return 0, err
	}
	if len(raw) == 0 {
		return 0, nil
	}
	var settings map[string]any
	if err := json.Unmarshal(raw, &settings); err != nil {
		return 0, nil
	}
	switch v := settings["current_cash"].(type) {
	case float64:
		return v, nil
	case json.Number:
		f, _ := v.Float64()
		return f, nil
	default:
		return 0, nil
	}
}
