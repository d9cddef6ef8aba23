package categories

import (
	"context"
	"errors"
)

// RepositoryPort defines data access methods for categories.
type RepositoryPort interface {
	Create(ctx context.Context, c Category) (*Category, error)
	Get(ctx context.Context, id int64) (*Category, error)
	ListByBusiness(ctx context.Context, businessID int64) ([]Category, error)
	Update(ctx context.Context, c Category) (*Category, error)
	Delete(ctx context.Context, id int64) error
}

// Service handles category rules.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

func validate(c Category) error {
	if c.BusinessID <= 0 {
		return errors.New("business_id required")
	}
	if c.Name == "" {
		return errors.New("category name required")
	}
	if c.Type != TypeIncome && c.Type != TypeExpense {
		return errors.New("category type must be income or expense")
	}
	return nil
}

// Create validates and stores a category.
func (s *Service) Create(ctx context.Context, c Category) (*Category, error) {
	if err := validate(c); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, c)
}

// Get fetches a category.
func (s *Service) Get(ctx context.Context, id int64) (*Category, error) {
	return s.repo.Get(ctx, id)
}

// ListByBusiness returns a business's categories.
func (s *Service) ListByBusiness(ctx context.Context, businessID int64) ([]Category, error) {
	return s.repo.ListByBusiness(ctx, businessID)
}

// Update applies changes on top of the stored record.
func (s *Service) Update(ctx context.Context, id int64, patch Category) (*Category, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Name != "" {
		existing.Name = patch.Name
	}
	if patch.Type != "" {
		existing.Type = patch.Type
	}
	if patch.ParentID != nil {
		existing.ParentID = patch.ParentID
	}
	if err := validate(*existing); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, *existing)
}

// Delete removes a category.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
