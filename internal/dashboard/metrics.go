package dashboard

import (
	"math"
	"time"
)

// MetricsSnapshot is the aggregated dashboard payload. Every section is
// computed independently so a failure in one degrades that section to its
// zero value instead of failing the whole response.
type MetricsSnapshot struct {
	BusinessID    int64           `json:"business_id"`
	GeneratedAt   time.Time       `json:"generated_at"`
	Cashflow      CashflowMetric  `json:"cashflow"`
	Liquidity     float64         `json:"liquidity_score"`
	Volatility    float64         `json:"volatility"`
	RiskBreakdown []RiskCategory  `json:"risk_breakdown"`
	ProjectedRisk string          `json:"projected_risk"`
}

// CashflowMetric summarises the trailing window against the prior one.
type CashflowMetric struct {
	Net       float64 `json:"net"`
	Previous  float64 `json:"previous"`
	PctChange float64 `json:"pct_change"`
	Trend     string  `json:"trend"`
}

// RiskCategory is one slice of the risk breakdown.
type RiskCategory struct {
	Category    string  `json:"category"`
	Score       float64 `json:"score"`
	Description string  `json:"description"`
}

// WindowTotals holds inflow and outflow sums for one window.
type WindowTotals struct {
	Inflow  float64
	Outflow float64
}

// Net returns inflow minus outflow.
func (w WindowTotals) Net() float64 {
	return w.Inflow - w.Outflow
}

// ComputeCashflow derives the net cashflow metric from the trailing window
// and the window immediately before it. A zero previous net pins the
// percentage change at 0 rather than dividing by zero.
func ComputeCashflow(current, previous WindowTotals) CashflowMetric {
	cur := current.Net()
	prev := previous.Net()
	metric := CashflowMetric{Net: cur, Previous: prev, Trend: "neutral"}
	if prev != 0 {
		metric.PctChange = (cur - prev) / math.Abs(prev) * 100
	}
	switch {
	case metric.PctChange > 0:
		metric.Trend = "up"
	case metric.PctChange < 0:
		metric.Trend = "down"
	}
	return metric
}

// ComputeLiquidity scales available cash against the trailing-window outflow.
// Zero outflow yields 0, keeping the ratio bounded.
func ComputeLiquidity(currentCash, outflow float64) float64 {
	if outflow == 0 {
		return 0
	}
	return currentCash / outflow * 100
}

// ComputeVolatility measures the dispersion of daily net flows relative to
// their mean, as a percentage rounded to one decimal. Fewer than two days of
// data, or a zero mean, yields 0.
func ComputeVolatility(dailyNets []float64) float64 {
	if len(dailyNets) < 2 {
		return 0
	}
	var sum float64
	for _, v := range dailyNets {
		sum += v
	}
	mean := sum / float64(len(dailyNets))
	if mean == 0 {
		return 0
	}
	var sq float64
	for _, v := range dailyNets {
		d := v - mean
		sq += d * d
	}
	stddev := math.Sqrt(sq / float64(len(dailyNets)))
	return math.Round(stddev/math.Abs(mean)*1000) / 10
}

// ProjectRisk classifies the business into three tiers from the sign of the
// net cashflow and the volatility level.
func ProjectRisk(netCashflow, volatility float64) string {
	switch {
	case netCashflow < 0:
		return "High"
	case volatility > 20:
		return "Medium"
	default:
		return "Low"
	}
}

// RiskInputs is the subset of a persisted risk score snapshot the breakdown
// needs.
type RiskInputs struct {
	CashflowRiskScore float64
	LiquidityScore    float64
	VolatilityIndex   float64
}

// BuildRiskBreakdown maps the latest persisted risk score into display
// categories. The volatility index is stored on a 0-1 scale and is stretched
// to 0-100 here.
func BuildRiskBreakdown(latest *RiskInputs) []RiskCategory {
	if latest == nil {
		return DefaultRiskBreakdown()
	}
	return []RiskCategory{
		{Category: "Cashflow Risk", Score: latest.CashflowRiskScore, Description: "Assessed from recent cashflow history."},
		{Category: "Liquidity Risk", Score: latest.LiquidityScore, Description: "Assessed from available cash coverage."},
		{Category: "Burn Rate Risk", Score: latest.VolatilityIndex * 100, Description: "Assessed from spending volatility."},
	}
}

// DefaultRiskBreakdown is the placeholder used when no risk score has ever
// been persisted for the business.
func DefaultRiskBreakdown() []RiskCategory {
	return []RiskCategory{
		{Category: "Cashflow Risk", Score: 50, Description: "Default cashflow risk assessment."},
		{Category: "Liquidity Risk", Score: 60, Description: "Default liquidity risk assessment."},
		{Category: "Burn Rate Risk", Score: 40, Description: "Default burn rate risk assessment."},
	}
}
