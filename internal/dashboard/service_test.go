package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fincompass/fincompass/internal/shared"
	_ "github.com/fincompass/fincompass/testing"
)

type mockRepo struct {
	mu          sync.Mutex
	current     WindowTotals
	previous    WindowTotals
	dailyNets   []float64
	currentCash float64
	latestRisk  *RiskInputs
	failTotals  bool
	totalsCalls int
	riskErr     error
	cashErr     error
}

func (m *mockRepo) WindowTotals(ctx context.Context, businessID int64, from, to time.Time) (WindowTotals, error) {
	m.mu.Lock()
	m.totalsCalls++
	m.mu.Unlock()
	if m.failTotals {
		return WindowTotals{}, errors.New("boom")
	}
	// The trailing window ends now, the prior one thirty days earlier.
	if time.Since(to) < time.Hour {
		return m.current, nil
	}
	return m.previous, nil
}

func (m *mockRepo) DailyNets(ctx context.Context, businessID int64, from, to time.Time) ([]float64, error) {
	return m.dailyNets, nil
}

func (m *mockRepo) LatestRisk(ctx context.Context, businessID int64) (*RiskInputs, error) {
	if m.riskErr != nil {
		return nil, m.riskErr
	}
	if m.latestRisk == nil {
		return nil, shared.ErrNotFound
	}
	return m.latestRisk, nil
}

func (m *mockRepo) CurrentCash(ctx context.Context, businessID int64) (float64, error) {
	if m.cashErr != nil {
		return 0, m.cashErr
	}
	return m.currentCash, nil
}

func newTestService(t *testing.T, repo RepositoryPort) (*Service, *Cache) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	c := NewCache(client, time.Minute)
	return NewService(repo, c, slog.Default()), c
}

func TestMetricsSnapshot(t *testing.T) {
	repo := &mockRepo{
		current:     WindowTotals{Inflow: 10000, Outflow: 4000},
		previous:    WindowTotals{Inflow: 5000, Outflow: 2000},
		dailyNets:   []float64{100, -50, 100, -50},
		currentCash: 8000,
	}
	svc, _ := newTestService(t, repo)

	snapshot, err := svc.Metrics(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), snapshot.BusinessID)
	assert.Equal(t, 6000.0, snapshot.Cashflow.Net)
	assert.Equal(t, 100.0, snapshot.Cashflow.PctChange)
	assert.Equal(t, "up", snapshot.Cashflow.Trend)
	assert.Equal(t, 200.0, snapshot.Liquidity)
	assert.Equal(t, 300.0, snapshot.Volatility)
	// Volatility above threshold with positive net.
	assert.Equal(t, "Medium", snapshot.ProjectedRisk)
	assert.Equal(t, DefaultRiskBreakdown(), snapshot.RiskBreakdown)
}

func TestMetricsUsesPersistedRisk(t *testing.T) {
	repo := &mockRepo{
		latestRisk: &RiskInputs{CashflowRiskScore: 70, LiquidityScore: 55, VolatilityIndex: 0.42},
	}
	svc, _ := newTestService(t, repo)

	snapshot, err := svc.Metrics(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, snapshot.RiskBreakdown, 3)
	assert.Equal(t, 70.0, snapshot.RiskBreakdown[0].Score)
}

func TestMetricsIdempotent(t *testing.T) {
	repo := &mockRepo{
		current:   WindowTotals{Inflow: 1000, Outflow: 500},
		dailyNets: []float64{10, 20},
	}
	svc, _ := newTestService(t, repo)

	first, err := svc.Metrics(context.Background(), 1)
	require.NoError(t, err)
	second, err := svc.Metrics(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	// Second read must come from the cache, not the repository.
	assert.Equal(t, 2, repo.totalsCalls)
}

func TestMetricsInvalidation(t *testing.T) {
	repo := &mockRepo{current: WindowTotals{Inflow: 1000}}
	svc, _ := newTestService(t, repo)

	_, err := svc.Metrics(context.Background(), 1)
	require.NoError(t, err)
	require.NoError(t, svc.Invalidate(context.Background()))

	repo.current = WindowTotals{Inflow: 9000}
	snapshot, err := svc.Metrics(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 9000.0, snapshot.Cashflow.Net)
}

func TestMetricsDegradesToZeros(t *testing.T) {
	repo := &mockRepo{
		failTotals: true,
		riskErr:    errors.New("db down"),
		cashErr:    errors.New("db down"),
	}
	svc, _ := newTestService(t, repo)

	snapshot, err := svc.Metrics(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 0.0, snapshot.Cashflow.Net)
	assert.Equal(t, 0.0, snapshot.Liquidity)
	assert.Equal(t, 0.0, snapshot.Volatility)
	assert.Equal(t, "Low", snapshot.ProjectedRisk)
	assert.Equal(t, DefaultRiskBreakdown(), snapshot.RiskBreakdown)
}
