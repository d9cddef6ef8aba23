package authz_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/fincompass/fincompass/internal/authz"
	"github.com/fincompass/fincompass/internal/shared"
	_ "github.com/fincompass/fincompass/testing"
)

type stubResolver struct {
	businesses   map[int64]authz.Business
	transactions map[int64]authz.Transaction
}

func (s stubResolver) BusinessOwner(ctx context.Context, businessID int64) (int64, error) {
	b, ok := s.businesses[businessID]
	if !ok {
		return 0, shared.ErrNotFound
	}
	return b.OwnerID, nil
}

func (s stubResolver) FindBusiness(ctx context.Context, id int64) (authz.Business, error) {
	b, ok := s.businesses[id]
	if !ok {
		return authz.Business{}, shared.ErrNotFound
	}
	return b, nil
}

func (s stubResolver) BusinessesOwnedBy(ctx context.Context, ownerID int64) ([]authz.Business, error) {
	var owned []authz.Business
	for _, b := range s.businesses {
		if b.OwnerID == ownerID {
			owned = append(owned, b)
		}
	}
	return owned, nil
}

func (s stubResolver) FindTransaction(ctx context.Context, id int64) (authz.Transaction, error) {
	tx, ok := s.transactions[id]
	if !ok {
		return authz.Transaction{}, shared.ErrNotFound
	}
	return tx, nil
}

func newGuards(resolver stubResolver) authz.Guards {
	return authz.Guards{Policy: authz.NewPolicy(resolver), Resolver: resolver}
}

func serve(t *testing.T, mw func(http.Handler) http.Handler, principal *shared.Principal, pattern, path string) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	r.With(mw).MethodFunc(http.MethodGet, pattern, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if principal != nil {
		req = req.WithContext(shared.ContextWithPrincipal(req.Context(), principal))
	}
	res := httptest.NewRecorder()
	r.ServeHTTP(res, req)
	return res
}

func TestSelfOrAdmin(t *testing.T) {
	guards := newGuards(stubResolver{})

	cases := []struct {
		name      string
		principal *shared.Principal
		path      string
		want      int
	}{
		{"unauthenticated", nil, "/users/10", http.StatusUnauthorized},
		{"self", tokenPrincipal(10, authz.RoleViewer), "/users/10", http.StatusOK},
		{"other user", tokenPrincipal(10, authz.RoleViewer), "/users/11", http.StatusForbidden},
		{"admin reaches anyone", tokenPrincipal(1, authz.RoleAdmin), "/users/11", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := serve(t, guards.SelfOrAdmin, tc.principal, "/users/{user_id}", tc.path)
			assert.Equal(t, tc.want, res.Code)
		})
	}
}

func TestBusinessOwnerOrAdmin(t *testing.T) {
	resolver := stubResolver{businesses: map[int64]authz.Business{
		1: {ID: 1, OwnerID: 10},
		2: {ID: 2, OwnerID: 20},
	}}
	guards := newGuards(resolver)

	cases := []struct {
		name      string
		principal *shared.Principal
		path      string
		want      int
	}{
		{"owner", tokenPrincipal(10, authz.RoleOwner), "/b/1", http.StatusOK},
		{"non-owner", tokenPrincipal(10, authz.RoleOwner), "/b/2", http.StatusForbidden},
		{"admin", tokenPrincipal(99, authz.RoleAdmin), "/b/2", http.StatusOK},
		{"missing business is 404", tokenPrincipal(10, authz.RoleOwner), "/b/404", http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := serve(t, guards.BusinessOwnerOrAdmin, tc.principal, "/b/{business_id}", tc.path)
			assert.Equal(t, tc.want, res.Code)
		})
	}
}

func TestBusinessInference(t *testing.T) {
	// Exactly one owned business: the guard infers the target.
	oneOwned := newGuards(stubResolver{businesses: map[int64]authz.Business{
		1: {ID: 1, OwnerID: 10},
	}})
	res := serve(t, oneOwned.BusinessOwnerOrAdmin, tokenPrincipal(10, authz.RoleOwner), "/b", "/b")
	assert.Equal(t, http.StatusOK, res.Code)

	// Zero or several owned businesses: ambiguous, explicit 400.
	twoOwned := newGuards(stubResolver{businesses: map[int64]authz.Business{
		1: {ID: 1, OwnerID: 10},
		2: {ID: 2, OwnerID: 10},
	}})
	res = serve(t, twoOwned.BusinessOwnerOrAdmin, tokenPrincipal(10, authz.RoleOwner), "/b", "/b")
	assert.Equal(t, http.StatusBadRequest, res.Code)

	none := newGuards(stubResolver{})
	res = serve(t, none.BusinessOwnerOrAdmin, tokenPrincipal(10, authz.RoleOwner), "/b", "/b")
	assert.Equal(t, http.StatusBadRequest, res.Code)

	// Admins without a target pass through.
	res = serve(t, none.BusinessOwnerOrAdmin, tokenPrincipal(1, authz.RoleAdmin), "/b", "/b")
	assert.Equal(t, http.StatusOK, res.Code)
}

func TestTransactionAccess(t *testing.T) {
	resolver := stubResolver{
		businesses: map[int64]authz.Business{
			1: {ID: 1, OwnerID: 10},
		},
		transactions: map[int64]authz.Transaction{
			100: {ID: 100, BusinessID: 1},
		},
	}
	guards := newGuards(resolver)

	cases := []struct {
		name      string
		principal *shared.Principal
		path      string
		want      int
	}{
		{"owner reaches own transaction", tokenPrincipal(10, authz.RoleOwner), "/tx/100", http.StatusOK},
		{"missing transaction is 404 before permission", tokenPrincipal(20, authz.RoleViewer), "/tx/999", http.StatusNotFound},
		{"existing transaction out of reach is 403", tokenPrincipal(20, authz.RoleOwner), "/tx/100", http.StatusForbidden},
		{"admin reaches any transaction", tokenPrincipal(99, authz.RoleAdmin), "/tx/100", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := serve(t, guards.TransactionAccess, tc.principal, "/tx/{transaction_id}", tc.path)
			assert.Equal(t, tc.want, res.Code)
		})
	}
}

func TestRequirePermission(t *testing.T) {
	resolver := stubResolver{businesses: map[int64]authz.Business{
		1: {ID: 1, OwnerID: 10},
	}}
	guards := newGuards(resolver)
	mw := guards.RequirePermission(authz.CapTransactionsWrite)

	res := serve(t, mw, tokenPrincipal(10, authz.RoleOwner), "/b/{business_id}", "/b/1")
	assert.Equal(t, http.StatusOK, res.Code)

	res = serve(t, mw, tokenPrincipal(10, authz.RoleViewer), "/b/{business_id}", "/b/1")
	assert.Equal(t, http.StatusForbidden, res.Code)

	res = serve(t, mw, keyPrincipal(1, authz.ScopeRead), "/b/{business_id}", "/b/1")
	assert.Equal(t, http.StatusForbidden, res.Code)

	res = serve(t, mw, keyPrincipal(1, authz.ScopeWrite), "/b/{business_id}", "/b/1")
	assert.Equal(t, http.StatusOK, res.Code)
}
