package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/fincompass/fincompass/internal/ai"
	"github.com/fincompass/fincompass/internal/app"
	"github.com/fincompass/fincompass/internal/dashboard"
	"github.com/fincompass/fincompass/internal/platform/cache"
	"github.com/fincompass/fincompass/internal/platform/db"
	"github.com/fincompass/fincompass/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	llm := ai.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMTimeout)

	// Redis being down disables cache invalidation but never blocks startup.
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, cache invalidation disabled", slog.Any("error", err))
	}
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}
	metricsCache := dashboard.NewCache(redisClient, cfg.MetricsCacheTTL)

	riskJob := jobs.NewRiskAssessJob(pool, logger, nil, metricsCache)
	anomalyJob := jobs.NewAnomalyScanJob(pool, logger, nil, llm)

	riskTask, err := jobs.NewRiskAssessTask(jobs.RiskAssessPayload{})
	if err != nil {
		logger.Error("build risk task", slog.Any("error", err))
		os.Exit(1)
	}
	anomalyTask, err := jobs.NewAnomalyScanTask(jobs.AnomalyScanPayload{WindowDays: 90, Z: 2.5})
	if err != nil {
		logger.Error("build anomaly task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskRiskAssess, Handler: riskJob.Handle},
			{Type: jobs.TaskAnomalyScan, Handler: anomalyJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "15 1 * * *", Task: riskTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "30 1 * * *", Task: anomalyTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
