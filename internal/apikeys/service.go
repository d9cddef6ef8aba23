package apikeys

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/fincompass/fincompass/internal/auth"
	"github.com/fincompass/fincompass/internal/authz"
)

// RepositoryPort defines data access methods for API keys.
type RepositoryPort interface {
	Insert(ctx context.Context, businessID int64, name, keyHash string, scopes []string) (*APIKey, error)
	Get(ctx context.Context, id int64) (*APIKey, error)
	ListByBusiness(ctx context.Context, businessID int64) ([]APIKey, error)
	Revoke(ctx context.Context, id int64) (*APIKey, error)
	Delete(ctx context.Context, id int64) error
}

// Service manages API key lifecycle.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

var validScopes = map[string]struct{}{
	authz.ScopeRead:   {},
	authz.ScopeWrite:  {},
	authz.ScopeDelete: {},
	authz.ScopeAdmin:  {},
}

// Create generates key material, stores its hash and returns the plaintext
// exactly once.
func (s *Service) Create(ctx context.Context, businessID int64, name string, scopes []string) (*CreatedKey, error) {
	if len(scopes) == 0 {
		scopes = []string{authz.ScopeRead}
	}
	for _, scope := range scopes {
		if _, ok := validScopes[scope]; !ok {
			return nil, fmt.Errorf("unknown scope %q", scope)
		}
	}
	material := "fc_" + uuid.NewString()
	stored, err := s.repo.Insert(ctx, businessID, name, auth.HashAPIKey(material), scopes)
	if err != nil {
		return nil, err
	}
	return &CreatedKey{APIKey: *stored, Key: material}, nil
}

// List returns a business's keys.
func (s *Service) List(ctx context.Context, businessID int64) ([]APIKey, error) {
	return s.repo.ListByBusiness(ctx, businessID)
}

// Get fetches a key.
func (s *Service) Get(ctx context.Context, id int64) (*APIKey, error) {
	return s.repo.Get(ctx, id)
}

// Revoke disables a key.
func (s *Service) Revoke(ctx context.Context, id int64) (*APIKey, error) {
	return s.repo.Revoke(ctx, id)
}

// Delete removes a key record.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
