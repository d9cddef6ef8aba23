package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fincompass/fincompass/internal/dashboard"
	jobmetrics "github.com/fincompass/fincompass/internal/jobs"
	"github.com/fincompass/fincompass/internal/riskscores"
)

// RiskAssessJob recomputes and persists a risk score snapshot per business,
// so the dashboard breakdown reflects recent transaction history instead of
// its default placeholder.
type RiskAssessJob struct {
	Pool        *pgxpool.Pool
	Logger      *slog.Logger
	Metrics     *jobmetrics.Metrics
	Invalidator riskscores.MetricsInvalidator
	clock       func() time.Time
}

// NewRiskAssessJob initialises the risk assessment handler. invalidator may
// be nil when caching is off.
func NewRiskAssessJob(pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics, invalidator riskscores.MetricsInvalidator) *RiskAssessJob {
	return &RiskAssessJob{
		Pool:        pool,
		Logger:      logger,
		Metrics:     metrics,
		Invalidator: invalidator,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the risk assessment logic.
func (j *RiskAssessJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Pool == nil {
		return errors.New("risk assess: handler not configured")
	}
	var payload RiskAssessPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskRiskAssess)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger()
	businessIDs, err := j.targetBusinesses(ctx, payload.BusinessID)
	if err != nil {
		resultErr = err
		logger.Error("resolve businesses", slog.Any("error", err))
		return resultErr
	}
	logger.Info("starting risk assessment", slog.Int("businesses", len(businessIDs)))

	metricsRepo := dashboard.NewRepository(j.Pool)
	riskRepo := riskscores.NewRepository(j.Pool)
	assessed := 0
	for _, businessID := range businessIDs {
		if err := j.assess(ctx, metricsRepo, riskRepo, businessID); err != nil {
			logger.Warn("assessment failed",
				slog.Int64("business_id", businessID),
				slog.Any("error", err))
			continue
		}
		assessed++
	}
	if assessed > 0 && j.Invalidator != nil {
		if err := j.Invalidator.Bump(ctx); err != nil {
			logger.Warn("bump metrics cache", slog.Any("error", err))
		}
	}
	logger.Info("completed risk assessment", slog.Int("assessed", assessed))
	return resultErr
}

func (j *RiskAssessJob) targetBusinesses(ctx context.Context, businessID int64) ([]int64, error) {
	if businessID > 0 {
		return []int64{businessID}, nil
	}
	rows, err := j.Pool.Query(ctx, `SELECT id FROM businesses ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (j *RiskAssessJob) assess(ctx context.Context, metricsRepo *dashboard.Repository, riskRepo *riskscores.Repository, businessID int64) error {
	now := j.now()
	windowStart := now.AddDate(0, 0, -30)

	totals, err := metricsRepo.WindowTotals(ctx, businessID, windowStart, now)
	if err != nil {
		return err
	}
	dailyNets, err := metricsRepo.DailyNets(ctx, businessID, windowStart, now)
	if err != nil {
		return err
	}
	currentCash, err := metricsRepo.CurrentCash(ctx, businessID)
	if err != nil {
		return err
	}

	volatility := dashboard.ComputeVolatility(dailyNets)
	score := riskscores.RiskScore{
		BusinessID:        businessID,
		LiquidityScore:    clamp(dashboard.ComputeLiquidity(currentCash, totals.Outflow), 0, 100),
		CashflowRiskScore: cashflowRisk(totals.Net(), volatility),
		VolatilityIndex:   clamp(volatility/100, 0, 1),
		DrawdownProb:      drawdownProbability(dailyNets),
		Details: map[string]any{
			"window_days":  30,
			"net_cashflow": totals.Net(),
			"volatility":   volatility,
		},
	}
	_, err = riskRepo.Create(ctx, score)
	return err
}

// cashflowRisk mirrors the projected risk tiers on a 0-100 scale.
func cashflowRisk(netCashflow, volatility float64) float64 {
	switch {
	case netCashflow < 0:
		return 75
	case volatility > 20:
		return 50
	default:
		return 25
	}
}

// drawdownProbability is the fraction of trading days with negative net flow.
func drawdownProbability(dailyNets []float64) float64 {
	if len(dailyNets) == 0 {
		return 0
	}
	negative := 0
	for _, v := range dailyNets {
		if v < 0 {
			negative++
		}
	}
	return float64(negative) / float64(len(dailyNets))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (j *RiskAssessJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskRiskAssess))
	}
	return slog.Default().With(slog.String("job", TaskRiskAssess))
}

func (j *RiskAssessJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *RiskAssessJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
