package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/fincompass/fincompass/internal/auth"
	"github.com/fincompass/fincompass/internal/shared"
	_ "github.com/fincompass/fincompass/testing"
)

type stubRepo struct {
	user       *auth.User
	key        *auth.APIKey
	owner      *auth.User
	lastLogins int
}

func (s *stubRepo) FindUserByID(ctx context.Context, id int64) (*auth.User, error) {
	if s.user == nil || s.user.ID != id {
		return nil, shared.ErrNotFound
	}
	return s.user, nil
}

func (s *stubRepo) FindUserByEmail(ctx context.Context, email string) (*auth.User, error) {
	if s.user == nil || s.user.Email != email {
		return nil, shared.ErrNotFound
	}
	return s.user, nil
}

func (s *stubRepo) CreateUser(ctx context.Context, email, name, passwordHash, role string) (*auth.User, error) {
	return &auth.User{ID: 99, Email: email, Name: name, PasswordHash: passwordHash, Role: role}, nil
}

func (s *stubRepo) TouchLastLogin(ctx context.Context, id int64) error {
	s.lastLogins++
	return nil
}

func (s *stubRepo) FindAPIKeyByHash(ctx context.Context, hash string) (*auth.APIKey, *auth.User, error) {
	if s.key == nil || s.key.KeyHash != hash {
		return nil, nil, shared.ErrNotFound
	}
	return s.key, s.owner, nil
}

func newService(repo auth.Repository) *auth.Service {
	return auth.NewService(repo, auth.NewTokenManager("test-secret", time.Hour))
}

func TestAuthenticate(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.DefaultCost)
	require.NoError(t, err)
	repo := &stubRepo{user: &auth.User{ID: 1, Email: "owner@test.local", PasswordHash: string(hashed), Role: "owner"}}
	svc := newService(repo)

	user, err := svc.Authenticate(context.Background(), "owner@test.local", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.ID)
	assert.Equal(t, 1, repo.lastLogins)

	_, err = svc.Authenticate(context.Background(), "owner@test.local", "wrong")
	assert.True(t, errors.Is(err, shared.ErrInvalidCredentials))

	_, err = svc.Authenticate(context.Background(), "nobody@test.local", "correct horse")
	assert.True(t, errors.Is(err, shared.ErrInvalidCredentials))
}

func TestResolveToken(t *testing.T) {
	repo := &stubRepo{user: &auth.User{ID: 5, Email: "owner@test.local", Role: "owner"}}
	svc := newService(repo)

	token, err := svc.Tokens().Generate(5)
	require.NoError(t, err)

	principal, err := svc.ResolveToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, int64(5), principal.UserID)
	assert.Equal(t, shared.AuthMethodToken, principal.Method)
	assert.Zero(t, principal.BusinessID)
}

func TestResolveTokenDeletedUser(t *testing.T) {
	svc := newService(&stubRepo{})

	token, err := svc.Tokens().Generate(5)
	require.NoError(t, err)

	_, err = svc.ResolveToken(context.Background(), token)
	assert.True(t, errors.Is(err, shared.ErrPrincipalNotFound))
}

func TestResolveAPIKey(t *testing.T) {
	const raw = "fc_5c02d2b4-1111-2222-3333-444455556666"
	repo := &stubRepo{
		key: &auth.APIKey{
			ID:         10,
			BusinessID: 3,
			KeyHash:    auth.HashAPIKey(raw),
			Scopes:     []string{"read", "write"},
		},
		owner: &auth.User{ID: 7, Email: "owner@test.local", Role: "owner"},
	}
	svc := newService(repo)

	principal, err := svc.ResolveAPIKey(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, int64(7), principal.UserID)
	assert.Equal(t, shared.AuthMethodAPIKey, principal.Method)
	assert.Equal(t, int64(3), principal.BusinessID)
	assert.Equal(t, []string{"read", "write"}, principal.Scopes)

	_, err = svc.ResolveAPIKey(context.Background(), "fc_not-a-key")
	assert.True(t, errors.Is(err, shared.ErrUnauthenticated))
}

func TestResolveAPIKeyRevoked(t *testing.T) {
	const raw = "fc_5c02d2b4-1111-2222-3333-444455556666"
	repo := &stubRepo{
		key: &auth.APIKey{
			ID:         10,
			BusinessID: 3,
			KeyHash:    auth.HashAPIKey(raw),
			Revoked:    true,
		},
		owner: &auth.User{ID: 7, Email: "owner@test.local", Role: "owner"},
	}
	svc := newService(repo)

	_, err := svc.ResolveAPIKey(context.Background(), raw)
	assert.True(t, errors.Is(err, shared.ErrUnauthenticated))
}

func TestHashAPIKeyTrimsWhitespace(t *testing.T) {
	assert.Equal(t, auth.HashAPIKey("fc_key"), auth.HashAPIKey("  fc_key \n"))
}
