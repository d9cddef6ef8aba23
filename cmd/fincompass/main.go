package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/fincompass/fincompass/internal/ai"
	"github.com/fincompass/fincompass/internal/alerts"
	"github.com/fincompass/fincompass/internal/apikeys"
	"github.com/fincompass/fincompass/internal/app"
	"github.com/fincompass/fincompass/internal/auth"
	"github.com/fincompass/fincompass/internal/authz"
	"github.com/fincompass/fincompass/internal/business"
	"github.com/fincompass/fincompass/internal/categories"
	"github.com/fincompass/fincompass/internal/dashboard"
	"github.com/fincompass/fincompass/internal/forecasts"
	"github.com/fincompass/fincompass/internal/observability"
	"github.com/fincompass/fincompass/internal/platform/cache"
	"github.com/fincompass/fincompass/internal/platform/db"
	"github.com/fincompass/fincompass/internal/riskscores"
	"github.com/fincompass/fincompass/internal/transactions"
	"github.com/fincompass/fincompass/internal/users"
	"github.com/fincompass/fincompass/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	// Redis being down disables caching but never blocks startup.
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, caching disabled", slog.Any("error", err))
	}
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	resolver := authz.NewResolver(pool)
	policy := authz.NewPolicy(resolver)
	guards := authz.Guards{Policy: policy, Resolver: resolver, Logger: logger}

	tokens := auth.NewTokenManager(cfg.TokenSecret, cfg.TokenTTL)
	authService := auth.NewService(auth.NewRepository(pool), tokens)
	authHandler := auth.NewHandler(logger, authService)

	llm := ai.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMTimeout)

	metricsCache := dashboard.NewCache(redisClient, cfg.MetricsCacheTTL)
	dashboardService := dashboard.NewService(dashboard.NewRepository(pool), metricsCache, logger)
	dashboardHandler := dashboard.NewHandler(logger, dashboardService, guards)

	usersHandler := users.NewHandler(logger, users.NewService(users.NewRepository(pool)), guards)
	businessHandler := business.NewHandler(logger, business.NewService(business.NewRepository(pool)), guards)

	txRepo := transactions.NewRepository(pool)
	txService := transactions.NewService(txRepo, metricsCache, logger)
	txHandler := transactions.NewHandler(logger, txService, guards)

	categoriesHandler := categories.NewHandler(logger, categories.NewService(categories.NewRepository(pool)), guards)
	forecastsService := forecasts.NewService(forecasts.NewRepository(pool), txService, llm, logger)
	forecastsHandler := forecasts.NewHandler(logger, forecastsService, guards)
	riskScoresHandler := riskscores.NewHandler(logger, riskscores.NewRepository(pool), guards, metricsCache)
	alertsHandler := alerts.NewHandler(logger, alerts.NewRepository(pool), guards)
	apiKeysHandler := apikeys.NewHandler(logger, apikeys.NewService(apikeys.NewRepository(pool)), guards)

	metrics := observability.NewMetrics()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:              logger,
		Config:              cfg,
		AuthHandler:         authHandler,
		UsersHandler:        usersHandler,
		BusinessHandler:     businessHandler,
		TransactionsHandler: txHandler,
		CategoriesHandler:   categoriesHandler,
		ForecastsHandler:    forecastsHandler,
		RiskScoresHandler:   riskScoresHandler,
		AlertsHandler:       alertsHandler,
		APIKeysHandler:      apiKeysHandler,
		DashboardHandler:    dashboardHandler,
		JobHandler:          jobHandler,
		Metrics:             metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
