package users

import (
	"context"

	"github.com/fincompass/fincompass/internal/platform/httpx"
	"github.com/fincompass/fincompass/internal/shared"
)

// RepositoryPort defines data access methods for user profiles.
type RepositoryPort interface {
	Get(ctx context.Context, id int64) (*User, error)
	List(ctx context.Context) ([]User, error)
	Update(ctx context.Context, u User) (*User, error)
	Delete(ctx context.Context, id int64) error
}

// Service wraps profile operations with role-change protection.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Get fetches a user profile.
func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	return s.repo.Get(ctx, id)
}

// List returns all profiles.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

// Update applies a profile patch. Only admins may change roles; anyone
// else submitting a role different from their current one is rejected.
func (s *Service) Update(ctx context.Context, principal *shared.Principal, id int64, name, role string) (*User, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if name != "" {
		current.Name = name
	}
	if role != "" && role != current.Role {
		if principal == nil || !principal.IsAdmin() {
			return nil, httpx.ErrForbidden
		}
		current.Role = role
	}
	return s.repo.Update(ctx, *current)
}

// Delete removes an account.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
