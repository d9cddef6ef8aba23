package riskscores_test

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fincompass/fincompass/internal/authz"
	"github.com/fincompass/fincompass/internal/riskscores"
	"github.com/fincompass/fincompass/internal/shared"
	_ "github.com/fincompass/fincompass/testing"
)

type stubRiskRepo struct {
	nextID int64
	store  map[int64]riskscores.RiskScore
}

func newStubRiskRepo() *stubRiskRepo {
	return &stubRiskRepo{nextID: 1, store: map[int64]riskscores.RiskScore{}}
}

func (r *stubRiskRepo) Create(ctx context.Context, rs riskscores.RiskScore) (*riskscores.RiskScore, error) {
	rs.ID = r.nextID
	r.nextID++
	rs.AssessedAt = time.Now().UTC()
	r.store[rs.ID] = rs
	return &rs, nil
}

func (r *stubRiskRepo) Get(ctx context.Context, id int64) (*riskscores.RiskScore, error) {
	rs, ok := r.store[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &rs, nil
}

func (r *stubRiskRepo) ListByBusiness(ctx context.Context, businessID int64) ([]riskscores.RiskScore, error) {
	var out []riskscores.RiskScore
	for _, rs := range r.store {
		if rs.BusinessID == businessID {
			out = append(out, rs)
		}
	}
	return out, nil
}

func (r *stubRiskRepo) Latest(ctx context.Context, businessID int64) (*riskscores.RiskScore, error) {
	var latest *riskscores.RiskScore
	for id := range r.store {
		rs := r.store[id]
		if rs.BusinessID != businessID {
			continue
		}
		if latest == nil || rs.AssessedAt.After(latest.AssessedAt) {
			latest = &rs
		}
	}
	if latest == nil {
		return nil, shared.ErrNotFound
	}
	return latest, nil
}

func (r *stubRiskRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.store[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.store, id)
	return nil
}

type stubResolver struct {
	businesses map[int64]authz.Business
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
	return authz.Transaction{}, shared.ErrNotFound
}

type stubInvalidator struct {
	bumps int
}

func (s *stubInvalidator) Bump(ctx context.Context) error {
	s.bumps++
	return nil
}

func newRiskRouter(repo *stubRiskRepo, inv *stubInvalidator) chi.Router {
	resolver := stubResolver{businesses: map[int64]authz.Business{
		1: {ID: 1, OwnerID: 10},
	}}
	guards := authz.Guards{Policy: authz.NewPolicy(resolver), Resolver: resolver}
	h := riskscores.NewHandler(slog.Default(), repo, guards, inv)

	owner := &shared.Principal{UserID: 10, Role: authz.RoleOwner, Method: shared.AuthMethodToken}
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(shared.ContextWithPrincipal(req.Context(), owner)))
		})
	})
	r.Route("/risk-scores", h.MountRoutes)
	return r
}

func TestCreateBumpsMetricsCache(t *testing.T) {
	repo := newStubRiskRepo()
	inv := &stubInvalidator{}
	router := newRiskRouter(repo, inv)

	body := strings.NewReader(`{"liquidity_score": 80, "cashflow_risk_score": 30, "volatility_index": 0.2, "drawdown_prob": 0.1}`)
	req := httptest.NewRequest(http.MethodPost, "/risk-scores/business/1", body)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusCreated, res.Code, res.Body.String())
	assert.Equal(t, 1, inv.bumps, "a new score must invalidate the dashboard cache")
}

func TestDeleteBumpsMetricsCache(t *testing.T) {
	repo := newStubRiskRepo()
	inv := &stubInvalidator{}
	router := newRiskRouter(repo, inv)

	created, err := repo.Create(context.Background(), riskscores.RiskScore{BusinessID: 1, LiquidityScore: 70})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/risk-scores/%d", created.ID), nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	assert.Equal(t, 1, inv.bumps)
}

func TestReadsDoNotBump(t *testing.T) {
	repo := newStubRiskRepo()
	inv := &stubInvalidator{}
	router := newRiskRouter(repo, inv)

	_, err := repo.Create(context.Background(), riskscores.RiskScore{BusinessID: 1, LiquidityScore: 70})
	require.NoError(t, err)

	for _, path := range []string{"/risk-scores/business/1", "/risk-scores/business/1/latest", "/risk-scores/1"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		res := httptest.NewRecorder()
		router.ServeHTTP(res, req)
		require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	}
	assert.Zero(t, inv.bumps)
}
