package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/fincompass/fincompass/internal/alerts"
	"github.com/fincompass/fincompass/internal/apikeys"
	"github.com/fincompass/fincompass/internal/auth"
	"github.com/fincompass/fincompass/internal/business"
	"github.com/fincompass/fincompass/internal/categories"
	"github.com/fincompass/fincompass/internal/dashboard"
	"github.com/fincompass/fincompass/internal/forecasts"
	"github.com/fincompass/fincompass/internal/observability"
	"github.com/fincompass/fincompass/internal/riskscores"
	"github.com/fincompass/fincompass/internal/transactions"
	"github.com/fincompass/fincompass/internal/users"
	"github.com/fincompass/fincompass/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger              *slog.Logger
	Config              *Config
	AuthHandler         *auth.Handler
	UsersHandler        *users.Handler
	BusinessHandler     *business.Handler
	TransactionsHandler *transactions.Handler
	CategoriesHandler   *categories.Handler
	ForecastsHandler    *forecasts.Handler
	RiskScoresHandler   *riskscores.Handler
	AlertsHandler       *alerts.Handler
	APIKeysHandler      *apikeys.Handler
	DashboardHandler    *dashboard.Handler
	JobHandler          *jobs.Handler
	Metrics             *observability.Metrics
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	authMW := params.AuthHandler.Middleware()

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			params.AuthHandler.MountRoutes(r)
			r.With(authMW.Authenticate).Post("/business/register", params.BusinessHandler.ServeCreate)
		})

		r.Group(func(r chi.Router) {
			r.Use(authMW.Authenticate)
			r.Route("/users", params.UsersHandler.MountRoutes)
			r.Route("/businesses", params.BusinessHandler.MountRoutes)
			r.Route("/transactions", params.TransactionsHandler.MountRoutes)
			r.Route("/categories", params.CategoriesHandler.MountRoutes)
			r.Route("/forecasts", params.ForecastsHandler.MountRoutes)
			r.Route("/risk-scores", params.RiskScoresHandler.MountRoutes)
			r.Route("/alerts", params.AlertsHandler.MountRoutes)
			r.Route("/api-keys", params.APIKeysHandler.MountRoutes)
			r.Route("/dashboard", params.DashboardHandler.MountRoutes)
			if params.JobHandler != nil {
				r.Route("/jobs", params.JobHandler.MountRoutes)
			}
		})
	})

	return r
}
