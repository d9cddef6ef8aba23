package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fincompass/fincompass/internal/shared"
)

// metricsWindow is the trailing window every metric is computed over.
const metricsWindow = 30 * 24 * time.Hour

// RepositoryPort lists the aggregates the service composes.
type RepositoryPort interface {
	WindowTotals(ctx context.Context, businessID int64, from, to time.Time) (WindowTotals, error)
	DailyNets(ctx context.Context, businessID int64, from, to time.Time) ([]float64, error)
	LatestRisk(ctx context.Context, businessID int64) (*RiskInputs, error)
	CurrentCash(ctx context.Context, businessID int64) (float64, error)
}

// Service computes dashboard metric snapshots. Each input is loaded
// independently and degrades to its zero value on failure, so the dashboard
// renders something even when one aggregate is unavailable.
type Service struct {
	repo   RepositoryPort
	cache  *Cache
	logger *slog.Logger
	now    func() time.Time
}

// NewService wires a RepositoryPort with the cache helper.
func NewService(repo RepositoryPort, cache *Cache, logger *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, logger: logger, now: time.Now}
}

// Metrics returns the cached snapshot for the business, computing and
// storing it on a miss.
func (s *Service) Metrics(ctx context.Context, businessID int64) (*MetricsSnapshot, error) {
	key, err := s.cache.BuildKey(ctx, metricsKey(businessID))
	if err != nil {
		s.logger.Warn("metrics cache key", slog.Any("error", err))
		return s.compute(ctx, businessID)
	}
	var snapshot MetricsSnapshot
	err = s.cache.FetchJSON(ctx, key, &snapshot, func(ctx context.Context) (any, error) {
		return s.compute(ctx, businessID)
	})
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// Invalidate drops every cached snapshot. Transaction writes call this.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Bump(ctx)
}

func (s *Service) compute(ctx context.Context, businessID int64) (*MetricsSnapshot, error) {
	now := s.now().UTC()
	windowStart := now.Add(-metricsWindow)
	priorStart := now.Add(-2 * metricsWindow)

	var (
		current, previous WindowTotals
		dailyNets         []float64
		currentCash       float64
		latestRisk        *RiskInputs
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		totals, err := s.repo.WindowTotals(gctx, businessID, windowStart, now)
		if err != nil {
			s.degrade("window totals", businessID, err)
			return nil
		}
		current = totals
		return nil
	})
	g.Go(func() error {
		totals, err := s.repo.WindowTotals(gctx, businessID, priorStart, windowStart)
		if err != nil {
			s.degrade("prior window totals", businessID, err)
			return nil
		}
		previous = totals
		return nil
	})
	g.Go(func() error {
		nets, err := s.repo.DailyNets(gctx, businessID, windowStart, now)
		if err != nil {
			s.degrade("daily nets", businessID, err)
			return nil
		}
		dailyNets = nets
		return nil
	})
	g.Go(func() error {
		cash, err := s.repo.CurrentCash(gctx, businessID)
		if err != nil {
			if !errors.Is(err, shared.ErrNotFound) {
				s.degrade("current cash", businessID, err)
			}
			return nil
		}
		currentCash = cash
		return nil
	})
	g.Go(func() error {
		risk, err := s.repo.LatestRisk(gctx, businessID)
		if err != nil {
			if !errors.Is(err, shared.ErrNotFound) {
				s.degrade("latest risk score", businessID, err)
			}
			return nil
		}
		latestRisk = risk
		return nil
	})
	// Loaders swallow their own errors, so Wait only propagates a cancelled
	// context.
	if err := g.Wait(); err != nil {
		return nil, err
	}

	cashflow := ComputeCashflow(current, previous)
	volatility := ComputeVolatility(dailyNets)
	return &MetricsSnapshot{
		BusinessID:    businessID,
		GeneratedAt:   now,
		Cashflow:      cashflow,
		Liquidity:     ComputeLiquidity(currentCash, current.Outflow),
		Volatility:    volatility,
		RiskBreakdown: BuildRiskBreakdown(latestRisk),
		ProjectedRisk: ProjectRisk(cashflow.Net, volatility),
	}, nil
}

func (s *Service) degrade(what string, businessID int64, err error) {
	s.logger.Warn("dashboard metric degraded",
		slog.String("metric", what),
		slog.Int64("business_id", businessID),
		slog.Any("error", err))
}
