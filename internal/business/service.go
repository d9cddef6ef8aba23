package business

import (
	"context"
	"errors"
)

// RepositoryPort defines data access methods for businesses.
type RepositoryPort interface {
	Create(ctx context.Context, b Business) (*Business, error)
	Get(ctx context.Context, id int64) (*Business, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]Business, error)
	List(ctx context.Context) ([]Business, error)
	Update(ctx context.Context, b Business) (*Business, error)
	Delete(ctx context.Context, id int64) error
}

// Service handles business-entity rules.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Create registers a business owned by ownerID.
func (s *Service) Create(ctx context.Context, ownerID int64, b Business) (*Business, error) {
	if b.Name == "" {
		return nil, errors.New("business name required")
	}
	if b.Currency == "" {
		b.Currency = "USD"
	}
	if b.Timezone == "" {
		b.Timezone = "UTC"
	}
	b.OwnerID = ownerID
	return s.repo.Create(ctx, b)
}

// Get fetches a business.
func (s *Service) Get(ctx context.Context, id int64) (*Business, error) {
	return s.repo.Get(ctx, id)
}

// ListForOwner returns businesses owned by a user.
func (s *Service) ListForOwner(ctx context.Context, ownerID int64) ([]Business, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

// ListAll returns every business.
func (s *Service) ListAll(ctx context.Context) ([]Business, error) {
	return s.repo.List(ctx)
}

// Update applies field changes on top of the stored record.
func (s *Service) Update(ctx context.Context, id int64, patch Business) (*Business, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Name != "" {
		existing.Name = patch.Name
	}
	if patch.Country != "" {
		existing.Country = patch.Country
	}
	if patch.City != "" {
		existing.City = patch.City
	}
	if patch.Currency != "" {
		existing.Currency = patch.Currency
	}
	if patch.Timezone != "" {
		existing.Timezone = patch.Timezone
	}
	if patch.Settings != nil {
		existing.Settings = patch.Settings
	}
	return s.repo.Update(ctx, *existing)
}

// Delete removes a business and everything it owns.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
