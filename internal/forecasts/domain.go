package forecasts

import "time"

// Granularity values a forecast period may use.
const (
	GranularityDaily   = "daily"
	GranularityWeekly  = "weekly"
	GranularityMonthly = "monthly"
)

// Forecast is a predicted cashflow band for a period, optionally annotated
// with an LLM-generated insight stored in Metadata under "ai_analysis".
type Forecast struct {
	ID             int64          `json:"id"`
	BusinessID     int64          `json:"business_id"`
	Granularity    string         `json:"granularity"`
	PeriodStart    time.Time      `json:"period_start"`
	PeriodEnd      time.Time      `json:"period_end"`
	PredictedValue *float64       `json:"predicted_value"`
	LowerBound     *float64       `json:"lower_bound"`
	UpperBound     *float64       `json:"upper_bound"`
	Metadata       map[string]any `json:"forecast_metadata,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}
