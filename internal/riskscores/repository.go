package riskscores

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

const riskColumns = `id, business_id, assessed_at,
	COALESCE(liquidity_score, 0)::double precision,
	COALESCE(cashflow_risk_score, 0)::double precision,
	COALESCE(volatility_index, 0)::double precision,
	COALESCE(drawdown_prob, 0)::double precision,
	details`

func scanRiskScore(row pgx.Row) (*RiskScore, error) {
	var rs RiskScore
	var rawDetails []byte
	err := row.Scan(&rs.ID, &rs.BusinessID, &rs.AssessedAt,
		&rs.LiquidityScore, &rs.CashflowRiskScore, &rs.VolatilityIndex, &rs.DrawdownProb, &rawDetails)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	if len(rawDetails) > 0 {
		_ = json.Unmarshal(rawDetails, &rs.Details)
	}
	return &rs, nil
}

// Create inserts a risk score snapshot.
func (r *Repository) Create(ctx context.Context, rs RiskScore) (*RiskScore, error) {
	var details []byte
	if rs.Details != nil {
		raw, err := json.Marshal(rs.Details)
		if err != nil {
			return nil, err
		}
		details = raw
	}
	row := r.pool.QueryRow(ctx,
		`INSERT INTO risk_scores (business_id, assessed_at, liquidity_score, cashflow_risk_score, volatility_index, drawdown_prob, details)
		 VALUES ($1, now(), $2, $3, $4, $5, $6)
		 RETURNING `+riskColumns,
		rs.BusinessID, rs.LiquidityScore, rs.CashflowRiskScore, rs.VolatilityIndex, rs.DrawdownProb, details)
	return scanRiskScore(row)
}

// Get fetches a risk score by id.
func (r *Repository) Get(ctx context.Context, id int64) (*RiskScore, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+riskColumns+` FROM risk_scores WHERE id = $1`, id)
	return scanRiskScore(row)
}

// ListByBusiness returns a business's risk scores, newest first.
func (r *Repository) ListByBusiness(ctx context.Context, businessID int64) ([]RiskScore, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+riskColumns+` FROM risk_scores WHERE business_id = $1 ORDER BY assessed_at DESC`, businessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []RiskScore
	for rows.Next() {
		rs, err := scanRiskScore(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rs)
	}
	return out, rows.Err()
}

// Latest returns the most recent risk score for a business.
func (r *Repository) Latest(ctx context.Context, businessID int64) (*RiskScore, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+riskColumns+` FROM risk_scores WHERE business_id = $1 ORDER BY assessed_at DESC LIMIT 1`, businessID)
	return scanRiskScore(row)
}

// Delete removes a risk score.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM risk_scores WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
