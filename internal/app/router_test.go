package app_test

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fincompass/fincompass/internal/alerts"
	"github.com/fincompass/fincompass/internal/apikeys"
	"github.com/fincompass/fincompass/internal/app"
	"github.com/fincompass/fincompass/internal/auth"
	"github.com/fincompass/fincompass/internal/authz"
	"github.com/fincompass/fincompass/internal/business"
	"github.com/fincompass/fincompass/internal/categories"
	"github.com/fincompass/fincompass/internal/dashboard"
	"github.com/fincompass/fincompass/internal/forecasts"
	"github.com/fincompass/fincompass/internal/riskscores"
	"github.com/fincompass/fincompass/internal/transactions"
	"github.com/fincompass/fincompass/internal/users"
	"github.com/fincompass/fincompass/jobs"
	_ "github.com/fincompass/fincompass/testing"
)

// newTestRouter wires the router with empty handlers. Route registration never
// touches the inner services, which only run when a request reaches them.
func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := slog.Default()
	guards := authz.Guards{}
	return app.NewRouter(app.RouterParams{
		Logger:              logger,
		AuthHandler:         auth.NewHandler(logger, nil),
		UsersHandler:        users.NewHandler(logger, nil, guards),
		BusinessHandler:     business.NewHandler(logger, nil, guards),
		TransactionsHandler: transactions.NewHandler(logger, nil, guards),
		CategoriesHandler:   categories.NewHandler(logger, nil, guards),
		ForecastsHandler:    forecasts.NewHandler(logger, nil, guards),
		RiskScoresHandler:   riskscores.NewHandler(logger, nil, guards, nil),
		AlertsHandler:       alerts.NewHandler(logger, nil, guards),
		APIKeysHandler:      apikeys.NewHandler(logger, nil, guards),
		DashboardHandler:    dashboard.NewHandler(logger, nil, guards),
		JobHandler:          jobs.NewHandler(nil, logger),
	})
}

func TestHealthzOpen(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestJobsHealthRequiresAuth(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/jobs/health", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code,
		"queue health is an operator surface and must sit behind authentication")
}
