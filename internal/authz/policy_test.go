package authz_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fincompass/fincompass/internal/authz"
	"github.com/fincompass/fincompass/internal/shared"
	_ "github.com/fincompass/fincompass/testing"
)

type stubOwners struct {
	owners map[int64]int64
}

func (s stubOwners) BusinessOwner(ctx context.Context, businessID int64) (int64, error) {
	if owner, ok := s.owners[businessID]; ok {
		return owner, nil
	}
	return 0, shared.ErrNotFound
}

func newPolicy() *authz.Policy {
	return authz.NewPolicy(stubOwners{owners: map[int64]int64{1: 10, 2: 20}})
}

func tokenPrincipal(userID int64, role string) *shared.Principal {
	return &shared.Principal{UserID: userID, Role: role, Method: shared.AuthMethodToken}
}

func keyPrincipal(businessID int64, scopes ...string) *shared.Principal {
	return &shared.Principal{
		UserID:     10,
		Role:       authz.RoleOwner,
		Method:     shared.AuthMethodAPIKey,
		BusinessID: businessID,
		Scopes:     scopes,
	}
}

func TestRolePermissions(t *testing.T) {
	policy := newPolicy()
	ctx := context.Background()

	cases := []struct {
		name       string
		role       string
		capability string
		want       bool
	}{
		{"viewer cannot write transactions", authz.RoleViewer, authz.CapTransactionsWrite, false},
		{"viewer reads transactions", authz.RoleViewer, authz.CapTransactionsRead, true},
		{"analyst cannot write forecasts", authz.RoleAnalyst, authz.CapForecastsWrite, false},
		{"manager writes transactions", authz.RoleManager, authz.CapTransactionsWrite, true},
		{"manager cannot delete transactions", authz.RoleManager, authz.CapTransactionsDelete, false},
		{"manager cannot manage api keys", authz.RoleManager, authz.CapAPIKeysRead, false},
		{"owner manages api keys", authz.RoleOwner, authz.CapAPIKeysWrite, true},
		{"owner cannot delete businesses", authz.RoleOwner, authz.CapBusinessesDelete, false},
		{"owner cannot administer users", authz.RoleOwner, authz.CapUsersRead, false},
		{"legacy business_owner maps to owner", "business_owner", authz.CapTransactionsWrite, true},
		{"blank role falls back to viewer", "", authz.CapTransactionsRead, true},
		{"unknown role denied", "intern", authz.CapTransactionsRead, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := policy.HasPermission(ctx, tokenPrincipal(10, tc.role), tc.capability, 0)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestAdminHasEveryCapability(t *testing.T) {
	policy := newPolicy()
	ctx := context.Background()
	admin := tokenPrincipal(99, authz.RoleAdmin)

	for _, capability := range []string{
		authz.CapUsersDelete, authz.CapBusinessesDelete,
		authz.CapTransactionsWrite, authz.CapAPIKeysDelete,
	} {
		assert.True(t, policy.HasPermission(ctx, admin, capability, 0), capability)
		// Admins bypass the ownership check entirely.
		assert.True(t, policy.HasPermission(ctx, admin, capability, 2), capability)
	}
}

func TestBusinessOwnershipGatesNonAdmins(t *testing.T) {
	policy := newPolicy()
	ctx := context.Background()

	owner := tokenPrincipal(10, authz.RoleOwner)
	assert.True(t, policy.HasPermission(ctx, owner, authz.CapTransactionsWrite, 1))
	assert.False(t, policy.HasPermission(ctx, owner, authz.CapTransactionsWrite, 2))
	assert.False(t, policy.HasPermission(ctx, owner, authz.CapTransactionsWrite, 404))
}

func TestAPIKeyScopes(t *testing.T) {
	policy := newPolicy()
	ctx := context.Background()

	readKey := keyPrincipal(1, authz.ScopeRead)
	assert.True(t, policy.HasPermission(ctx, readKey, authz.CapTransactionsRead, 1))
	assert.False(t, policy.HasPermission(ctx, readKey, authz.CapTransactionsWrite, 1))

	// The owner's role would allow api_keys:write but the key's scopes do
	// not extend that far.
	writeKey := keyPrincipal(1, authz.ScopeRead, authz.ScopeWrite)
	assert.True(t, policy.HasPermission(ctx, writeKey, authz.CapTransactionsWrite, 1))
	assert.False(t, policy.HasPermission(ctx, writeKey, authz.CapAPIKeysWrite, 1))
	assert.False(t, policy.HasPermission(ctx, writeKey, authz.CapBusinessesRead, 1))

	adminKey := keyPrincipal(1, authz.ScopeAdmin)
	assert.True(t, policy.HasPermission(ctx, adminKey, authz.CapBusinessesRead, 1))
	assert.True(t, policy.HasPermission(ctx, adminKey, authz.CapAPIKeysDelete, 1))
	assert.False(t, policy.HasPermission(ctx, adminKey, authz.CapTransactionsRead, 1))
}

func TestNilPrincipalDenied(t *testing.T) {
	policy := newPolicy()
	assert.False(t, policy.HasPermission(context.Background(), nil, authz.CapTransactionsRead, 0))
}
