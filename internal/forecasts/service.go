package forecasts

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fincompass/fincompass/internal/platform/httpx"
	"github.com/fincompass/fincompass/internal/transactions"
)

// RepositoryPort defines data access methods for forecasts.
type RepositoryPort interface {
	Create(ctx context.Context, f Forecast) (*Forecast, error)
	Get(ctx context.Context, id int64) (*Forecast, error)
	ListByBusiness(ctx context.Context, businessID int64) ([]Forecast, error)
	Update(ctx context.Context, f Forecast) (*Forecast, error)
	Delete(ctx context.Context, id int64) error
}

// TransactionSource supplies the period's transactions for prompt context.
type TransactionSource interface {
	List(ctx context.Context, filter transactions.ListFilter) ([]transactions.Transaction, error)
}

// Insighter is the narrow LLM contract the service depends on.
type Insighter interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

const insightSystemPrompt = "You are a financial analyst assistant. Provide concise, actionable cashflow analysis."

// Service manages forecasts and enriches them with LLM insight. Insight
// generation is strictly best-effort: any failure is recorded in the
// forecast metadata and never surfaces to the caller.
type Service struct {
	repo     RepositoryPort
	txSource TransactionSource
	insights Insighter
	logger   *slog.Logger
}

// NewService builds a Service instance. insights may be a disabled client.
func NewService(repo RepositoryPort, txSource TransactionSource, insights Insighter, logger *slog.Logger) *Service {
	return &Service{repo: repo, txSource: txSource, insights: insights, logger: logger}
}

func validGranularity(g string) bool {
	switch g {
	case GranularityDaily, GranularityWeekly, GranularityMonthly:
		return true
	}
	return false
}

// Create validates and persists a forecast, attaching AI analysis of the
// covered period when the LLM is reachable.
func (s *Service) Create(ctx context.Context, f Forecast) (*Forecast, error) {
	if !validGranularity(f.Granularity) {
		return nil, fmt.Errorf("%w: granularity must be daily, weekly or monthly", httpx.ErrValidation)
	}
	if !f.PeriodEnd.After(f.PeriodStart) {
		return nil, fmt.Errorf("%w: period_end must be after period_start", httpx.ErrValidation)
	}
	if f.Metadata == nil {
		f.Metadata = map[string]any{}
	}
	s.attachInsight(ctx, &f)
	return s.repo.Create(ctx, f)
}

// attachInsight asks the LLM for an analysis of the forecast period and
// records the outcome in metadata either way.
func (s *Service) attachInsight(ctx context.Context, f *Forecast) {
	txs, err := s.txSource.List(ctx, transactions.ListFilter{
		BusinessID: f.BusinessID,
		From:       f.PeriodStart,
		To:         f.PeriodEnd,
	})
	if err != nil {
		s.logger.Warn("forecast transaction context", slog.Any("error", err))
		txs = nil
	}
	f.Metadata["transaction_count"] = len(txs)

	insight, err := s.insights.Generate(ctx, insightSystemPrompt, buildInsightPrompt(*f, txs))
	if err != nil {
		s.logger.Warn("forecast insight generation", slog.Int64("business_id", f.BusinessID), slog.Any("error", err))
		f.Metadata["ai_error"] = err.Error()
		f.Metadata["ai_analysis"] = "AI analysis unavailable."
		return
	}
	f.Metadata["ai_analysis"] = insight
}

func buildInsightPrompt(f Forecast, txs []transactions.Transaction) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyze this cashflow forecast and provide a strategic insight.\n")
	fmt.Fprintf(&b, "Period: %s to %s (%s)\n",
		f.PeriodStart.Format("2006-01-02"), f.PeriodEnd.Format("2006-01-02"), f.Granularity)
	if f.PredictedValue != nil {
		fmt.Fprintf(&b, "Predicted cashflow: %.2f\n", *f.PredictedValue)
	}
	if f.LowerBound != nil && f.UpperBound != nil {
		fmt.Fprintf(&b, "Confidence band: %.2f to %.2f\n", *f.LowerBound, *f.UpperBound)
	}
	fmt.Fprintf(&b, "Transactions in period: %d\n", len(txs))
	// Keep the prompt bounded regardless of transaction volume.
	for i, tx := range txs {
		if i == 50 {
			fmt.Fprintf(&b, "... and %d more\n", len(txs)-i)
			break
		}
		fmt.Fprintf(&b, "- %s %s %.2f %s\n", tx.Date.Format("2006-01-02"), tx.Direction, tx.Amount, tx.Description)
	}
	b.WriteString("Provide: a summary of the outlook, key risks or opportunities, and one actionable recommendation.")
	return b.String()
}

// Get fetches a forecast.
func (s *Service) Get(ctx context.Context, id int64) (*Forecast, error) {
	return s.repo.Get(ctx, id)
}

// List returns a business's forecasts.
func (s *Service) List(ctx context.Context, businessID int64) ([]Forecast, error) {
	return s.repo.ListByBusiness(ctx, businessID)
}

// Update applies a forecast patch.
func (s *Service) Update(ctx context.Context, id int64, patch Forecast) (*Forecast, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Granularity != "" {
		if !validGranularity(patch.Granularity) {
			return nil, fmt.Errorf("%w: granularity must be daily, weekly or monthly", httpx.ErrValidation)
		}
		current.Granularity = patch.Granularity
	}
	if !patch.PeriodStart.IsZero() {
		current.PeriodStart = patch.PeriodStart
	}
	if !patch.PeriodEnd.IsZero() {
		current.PeriodEnd = patch.PeriodEnd
	}
	if !current.PeriodEnd.After(current.PeriodStart) {
		return nil, fmt.Errorf("%w: period_end must be after period_start", httpx.ErrValidation)
	}
	if patch.PredictedValue != nil {
		current.PredictedValue = patch.PredictedValue
	}
	if patch.LowerBound != nil {
		current.LowerBound = patch.LowerBound
	}
	if patch.UpperBound != nil {
		current.UpperBound = patch.UpperBound
	}
	if patch.Metadata != nil {
		current.Metadata = patch.Metadata
	}
	return s.repo.Update(ctx, *current)
}

// Delete removes a forecast.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
