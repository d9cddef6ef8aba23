package dashboard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	_ "github.com/fincompass/fincompass/testing"
)

func TestComputeCashflow(t *testing.T) {
	metric := ComputeCashflow(
		WindowTotals{Inflow: 10000, Outflow: 4000},
		WindowTotals{Inflow: 5000, Outflow: 2000},
	)
	assert.Equal(t, 6000.0, metric.Net)
	assert.Equal(t, 3000.0, metric.Previous)
	assert.Equal(t, 100.0, metric.PctChange)
	assert.Equal(t, "up", metric.Trend)
}

func TestComputeCashflowDown(t *testing.T) {
	metric := ComputeCashflow(
		WindowTotals{Inflow: 1000, Outflow: 2000},
		WindowTotals{Inflow: 3000, Outflow: 1000},
	)
	assert.Equal(t, -1000.0, metric.Net)
	assert.Equal(t, -150.0, metric.PctChange)
	assert.Equal(t, "down", metric.Trend)
}

func TestComputeCashflowZeroPrevious(t *testing.T) {
	metric := ComputeCashflow(WindowTotals{Inflow: 500}, WindowTotals{})
	assert.Equal(t, 0.0, metric.PctChange)
	assert.Equal(t, "neutral", metric.Trend)
}

func TestComputeLiquidity(t *testing.T) {
	assert.Equal(t, 250.0, ComputeLiquidity(10000, 4000))
	assert.Equal(t, 0.0, ComputeLiquidity(10000, 0))
	assert.Equal(t, 0.0, ComputeLiquidity(0, 4000))
}

func TestComputeVolatility(t *testing.T) {
	// mean 25, stddev 75, ratio 300%.
	assert.Equal(t, 300.0, ComputeVolatility([]float64{100, -50, 100, -50}))
	assert.Equal(t, 0.0, ComputeVolatility([]float64{100}))
	assert.Equal(t, 0.0, ComputeVolatility(nil))
	// mean exactly zero.
	assert.Equal(t, 0.0, ComputeVolatility([]float64{50, -50}))
	// constant series has zero dispersion.
	assert.Equal(t, 0.0, ComputeVolatility([]float64{25, 25, 25}))
}

func TestProjectRisk(t *testing.T) {
	assert.Equal(t, "High", ProjectRisk(-1, 0))
	assert.Equal(t, "Medium", ProjectRisk(100, 21))
	assert.Equal(t, "Low", ProjectRisk(100, 20))
	assert.Equal(t, "Low", ProjectRisk(0, 0))
}

func TestBuildRiskBreakdown(t *testing.T) {
	got := BuildRiskBreakdown(&RiskInputs{
		CashflowRiskScore: 70,
		LiquidityScore:    55,
		VolatilityIndex:   0.42,
	})
	assert.Len(t, got, 3)
	assert.Equal(t, "Cashflow Risk", got[0].Category)
	assert.Equal(t, 70.0, got[0].Score)
	assert.Equal(t, 55.0, got[1].Score)
	assert.InDelta(t, 42.0, got[2].Score, 1e-9)
}

func TestBuildRiskBreakdownDefaults(t *testing.T) {
	got := BuildRiskBreakdown(nil)
	assert.Equal(t, DefaultRiskBreakdown(), got)
	assert.Equal(t, 50.0, got[0].Score)
	assert.Equal(t, 60.0, got[1].Score)
	assert.Equal(t, 40.0, got[2].Score)
}
