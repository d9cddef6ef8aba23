package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/fincompass/fincompass/internal/shared"
)

// ErrEmailTaken indicates a registration against an existing email.
var ErrEmailTaken = errors.New("email already registered")

// HashAPIKey returns a stable SHA-256 hex digest for the provided key.
func HashAPIKey(key string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(key)))
	return hex.EncodeToString(sum[:])
}

// Service wraps authentication business rules.
type Service struct {
	repo   Repository
	tokens *TokenManager
}

// NewService constructs a new Service.
func NewService(repo Repository, tokens *TokenManager) *Service {
	return &Service{repo: repo, tokens: tokens}
}

// Tokens exposes the token manager for handlers issuing tokens.
func (s *Service) Tokens() *TokenManager {
	return s.tokens
}

// Authenticate validates email/password credentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if err := s.repo.TouchLastLogin(ctx, user.ID); err != nil {
		return nil, err
	}
	return user, nil
}

// Register creates a business-owner account with a bcrypt password hash.
func (s *Service) Register(ctx context.Context, email, name, password string) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return s.repo.CreateUser(ctx, email, name, string(hash), "owner")
}

// ResolveToken verifies a bearer token and loads the principal it names.
func (s *Service) ResolveToken(ctx context.Context, raw string) (*shared.Principal, error) {
	userID, err := s.tokens.Verify(raw)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrPrincipalNotFound
		}
		return nil, err
	}
	return &shared.Principal{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		Method: shared.AuthMethodToken,
	}, nil
}

// ResolveAPIKey resolves a presented API key to the owning business's owner.
// Revoked keys never resolve. The stored hash is compared in constant time
// even though the lookup itself is keyed on the digest.
func (s *Service) ResolveAPIKey(ctx context.Context, rawKey string) (*shared.Principal, error) {
	digest := HashAPIKey(rawKey)
	key, owner, err := s.repo.FindAPIKeyByHash(ctx, digest)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrUnauthenticated
		}
		return nil, err
	}
	if key.Revoked || !hmac.Equal([]byte(key.KeyHash), []byte(digest)) {
		return nil, shared.ErrUnauthenticated
	}
	return &shared.Principal{
		UserID:     owner.ID,
		Email:      owner.Email,
		Role:       owner.Role,
		Method:     shared.AuthMethodAPIKey,
		BusinessID: key.BusinessID,
		Scopes:     key.Scopes,
	}, nil
}
