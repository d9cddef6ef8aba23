package transactions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// RepositoryPort defines data access methods for transactions.
type RepositoryPort interface {
	Create(ctx context.Context, t Transaction) (*Transaction, error)
	Get(ctx context.Context, id int64) (*Transaction, error)
	List(ctx context.Context, f ListFilter) ([]Transaction, error)
	Update(ctx context.Context, t Transaction) (*Transaction, error)
	Delete(ctx context.Context, id int64) error
}

// MetricsInvalidator bumps the dashboard metrics cache after writes.
type MetricsInvalidator interface {
	Bump(ctx context.Context) error
}

// Service enforces transaction rules and keeps the metrics cache honest.
type Service struct {
	repo    RepositoryPort
	metrics MetricsInvalidator
	logger  *slog.Logger
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, metrics MetricsInvalidator, logger *slog.Logger) *Service {
	return &Service{repo: repo, metrics: metrics, logger: logger}
}

func validate(t Transaction) error {
	if t.BusinessID <= 0 {
		return errors.New("business_id required")
	}
	if t.Date.IsZero() {
		return errors.New("date required")
	}
	if t.Amount < 0 {
		return errors.New("amount must be non-negative")
	}
	if t.Direction != DirectionInflow && t.Direction != DirectionOutflow {
		return fmt.Errorf("direction must be %q or %q", DirectionInflow, DirectionOutflow)
	}
	return nil
}

// Create validates and stores a transaction.
func (s *Service) Create(ctx context.Context, t Transaction) (*Transaction, error) {
	if err := validate(t); err != nil {
		return nil, err
	}
	created, err := s.repo.Create(ctx, t)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return created, nil
}

// Get fetches a transaction.
func (s *Service) Get(ctx context.Context, id int64) (*Transaction, error) {
	return s.repo.Get(ctx, id)
}

// List returns business transactions for the filter.
func (s *Service) List(ctx context.Context, f ListFilter) ([]Transaction, error) {
	return s.repo.List(ctx, f)
}

// UpdatePatch carries the fields a transaction update may change. Nil fields
// are left untouched, so an unrelated update cannot clear the anomaly flag or
// zero out an amount by omission.
type UpdatePatch struct {
	Date        *time.Time
	Description *string
	Amount      *float64
	Direction   *string
	CategoryID  *int64
	IsAnomalous *bool
	AITag       *string
}

// Update applies the patch to the stored transaction.
func (s *Service) Update(ctx context.Context, id int64, patch UpdatePatch) (*Transaction, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Date != nil {
		existing.Date = *patch.Date
	}
	if patch.Description != nil {
		existing.Description = *patch.Description
	}
	if patch.Amount != nil {
		existing.Amount = *patch.Amount
	}
	if patch.Direction != nil {
		existing.Direction = *patch.Direction
	}
	if patch.CategoryID != nil {
		existing.CategoryID = patch.CategoryID
	}
	if patch.IsAnomalous != nil {
		existing.IsAnomalous = *patch.IsAnomalous
	}
	if patch.AITag != nil {
		existing.AITag = *patch.AITag
	}
	if err := validate(*existing); err != nil {
		return nil, err
	}
	updated, err := s.repo.Update(ctx, *existing)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return updated, nil
}

// Delete removes a transaction.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *Service) invalidate(ctx context.Context) {
	if s.metrics == nil {
		return
	}
	if err := s.metrics.Bump(ctx); err != nil && s.logger != nil {
		s.logger.Warn("bump metrics cache", slog.Any("error", err))
	}
}
