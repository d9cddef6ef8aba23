package forecasts_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fincompass/fincompass/internal/ai"
	"github.com/fincompass/fincompass/internal/forecasts"
	"github.com/fincompass/fincompass/internal/platform/httpx"
	"github.com/fincompass/fincompass/internal/shared"
	"github.com/fincompass/fincompass/internal/transactions"
	_ "github.com/fincompass/fincompass/testing"
)

type stubForecastRepo struct {
	nextID int64
	store  map[int64]forecasts.Forecast
}

func newStubForecastRepo() *stubForecastRepo {
	return &stubForecastRepo{nextID: 1, store: map[int64]forecasts.Forecast{}}
}

func (r *stubForecastRepo) Create(ctx context.Context, f forecasts.Forecast) (*forecasts.Forecast, error) {
	f.ID = r.nextID
	r.nextID++
	f.CreatedAt = time.Now().UTC()
	r.store[f.ID] = f
	return &f, nil
}

func (r *stubForecastRepo) Get(ctx context.Context, id int64) (*forecasts.Forecast, error) {
	f, ok := r.store[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &f, nil
}

func (r *stubForecastRepo) ListByBusiness(ctx context.Context, businessID int64) ([]forecasts.Forecast, error) {
	var out []forecasts.Forecast
	for _, f := range r.store {
		if f.BusinessID == businessID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *stubForecastRepo) Update(ctx context.Context, f forecasts.Forecast) (*forecasts.Forecast, error) {
	if _, ok := r.store[f.ID]; !ok {
		return nil, shared.ErrNotFound
	}
	r.store[f.ID] = f
	return &f, nil
}

func (r *stubForecastRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.store[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.store, id)
	return nil
}

type stubTxSource struct {
	txs []transactions.Transaction
	err error
}

func (s *stubTxSource) List(ctx context.Context, f transactions.ListFilter) ([]transactions.Transaction, error) {
	return s.txs, s.err
}

type stubInsighter struct {
	reply string
	err   error
	calls int
}

func (s *stubInsighter) Generate(ctx context.Context, system, prompt string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

func validForecast() forecasts.Forecast {
	return forecasts.Forecast{
		BusinessID:  3,
		Granularity: forecasts.GranularityMonthly,
		PeriodStart: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestCreateValidation(t *testing.T) {
	svc := forecasts.NewService(newStubForecastRepo(), &stubTxSource{}, &stubInsighter{}, slog.Default())
	ctx := context.Background()

	bad := validForecast()
	bad.Granularity = "hourly"
	_, err := svc.Create(ctx, bad)
	assert.ErrorIs(t, err, httpx.ErrValidation)

	inverted := validForecast()
	inverted.PeriodEnd = inverted.PeriodStart.AddDate(0, -1, 0)
	_, err = svc.Create(ctx, inverted)
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestCreateAttachesInsight(t *testing.T) {
	repo := newStubForecastRepo()
	source := &stubTxSource{txs: []transactions.Transaction{
		{BusinessID: 3, Date: time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC), Amount: 500, Direction: transactions.DirectionInflow},
		{BusinessID: 3, Date: time.Date(2026, 4, 12, 0, 0, 0, 0, time.UTC), Amount: 200, Direction: transactions.DirectionOutflow},
	}}
	llm := &stubInsighter{reply: "Outlook is stable."}
	svc := forecasts.NewService(repo, source, llm, slog.Default())

	created, err := svc.Create(context.Background(), validForecast())
	require.NoError(t, err)
	assert.Equal(t, 1, llm.calls)
	assert.Equal(t, "Outlook is stable.", created.Metadata["ai_analysis"])
	assert.Equal(t, 2, created.Metadata["transaction_count"])
	assert.NotContains(t, created.Metadata, "ai_error")
}

func TestCreateInsightFallback(t *testing.T) {
	llm := &stubInsighter{err: ai.ErrDisabled}
	svc := forecasts.NewService(newStubForecastRepo(), &stubTxSource{}, llm, slog.Default())

	created, err := svc.Create(context.Background(), validForecast())
	require.NoError(t, err, "insight failures must never reject the forecast")
	assert.Equal(t, "AI analysis unavailable.", created.Metadata["ai_analysis"])
	assert.Equal(t, ai.ErrDisabled.Error(), created.Metadata["ai_error"])
	assert.Equal(t, 0, created.Metadata["transaction_count"])
}

func TestCreateTransactionContextFailure(t *testing.T) {
	source := &stubTxSource{err: errors.New("db down")}
	llm := &stubInsighter{reply: "Limited context available."}
	svc := forecasts.NewService(newStubForecastRepo(), source, llm, slog.Default())

	created, err := svc.Create(context.Background(), validForecast())
	require.NoError(t, err)
	assert.Equal(t, 0, created.Metadata["transaction_count"])
	assert.Equal(t, "Limited context available.", created.Metadata["ai_analysis"])
}

func TestUpdateValidation(t *testing.T) {
	repo := newStubForecastRepo()
	svc := forecasts.NewService(repo, &stubTxSource{}, &stubInsighter{}, slog.Default())
	ctx := context.Background()

	created, err := svc.Create(ctx, validForecast())
	require.NoError(t, err)

	_, err = svc.Update(ctx, created.ID, forecasts.Forecast{Granularity: "yearly"})
	assert.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.Update(ctx, created.ID, forecasts.Forecast{
		PeriodEnd: created.PeriodStart.AddDate(0, 0, -1),
	})
	assert.ErrorIs(t, err, httpx.ErrValidation)

	predicted := 4200.0
	updated, err := svc.Update(ctx, created.ID, forecasts.Forecast{PredictedValue: &predicted})
	require.NoError(t, err)
	require.NotNil(t, updated.PredictedValue)
	assert.InDelta(t, 4200, *updated.PredictedValue, 0.001)
	assert.Equal(t, created.Granularity, updated.Granularity)

	_, err = svc.Update(ctx, 999, forecasts.Forecast{})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
