package riskscores

import "time"

// RiskScore is a point-in-time risk snapshot for a business. Several may
// exist; the latest by assessed_at is authoritative for dashboards.
type RiskScore struct {
	ID                int64          `json:"id"`
	BusinessID        int64          `json:"business_id"`
	AssessedAt        time.Time      `json:"assessed_at"`
	LiquidityScore    float64        `json:"liquidity_score"`
	CashflowRiskScore float64        `json:"cashflow_risk_score"`
	VolatilityIndex   float64        `json:"volatility_index"`
	DrawdownProb      float64        `json:"drawdown_prob"`
	Details           map[string]any `json:"details,omitempty"`
}
