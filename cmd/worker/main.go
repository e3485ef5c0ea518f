package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/ArielSanroj/cfobot/internal/analysis"
	analysisdb "github.com/ArielSanroj/cfobot/internal/analysis/db"
	"github.com/ArielSanroj/cfobot/internal/app"
	"github.com/ArielSanroj/cfobot/internal/budget"
	"github.com/ArielSanroj/cfobot/internal/insights"
	jobmetrics "github.com/ArielSanroj/cfobot/internal/jobs"
	"github.com/ArielSanroj/cfobot/internal/mailer"
	"github.com/ArielSanroj/cfobot/internal/observability"
	"github.com/ArielSanroj/cfobot/internal/platform/cache"
	"github.com/ArielSanroj/cfobot/internal/platform/db"
	"github.com/ArielSanroj/cfobot/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	_ = godotenv.Load()

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

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	repo := analysisdb.NewRepository(pool)
	runCache := analysis.NewCache(redisClient, cfg.CacheTTL)
	if err := runCache.ListenForInvalidation(ctx, ""); err != nil {
		logger.Warn("cache invalidation listener", slog.Any("error", err))
	}
	analysisService := analysis.NewService(repo, runCache, analysis.Config{
		ReportsDir: cfg.ReportsDir,
		Pattern:    cfg.ReportPattern,
		OutputDir:  cfg.OutputDir,
		Budget: budget.Config{
			MonthlyIncome:   cfg.BudgetMonthlyIncome,
			MonthlyExpenses: cfg.BudgetMonthlyExpenses,
		},
	}, logger)

	insightsClient := insights.NewClient(insights.Config{
		BaseURL:     cfg.OllamaURL,
		Model:       cfg.OllamaModel,
		Temperature: cfg.OllamaTemperature,
		MaxTokens:   cfg.OllamaMaxTokens,
	}, logger)

	composer, err := mailer.NewComposer()
	if err != nil {
		logger.Error("parse email templates", slog.Any("error", err))
		os.Exit(1)
	}
	sender := mailer.New(mailer.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		From:     cfg.SMTPFrom,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
	})

	queue := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := queue.Close(); err != nil {
			logger.Warn("queue close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	taskMetrics := jobmetrics.NewMetrics(metrics.Registerer())

	processor := jobs.NewProcessor(
		analysisService,
		sender,
		composer,
		insightsClient,
		queue,
		metrics,
		taskMetrics,
		logger,
		jobs.ProcessorConfig{
			ReportsDir: cfg.ReportsDir,
			Pattern:    cfg.ReportPattern,
			Recipients: cfg.Recipients(),
		},
	)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers:  processor.Handlers(),
		Cron: []jobs.CronRegistration{
			{Spec: "0 7 * * *", Task: jobs.NewScanTask(), Options: []asynq.Option{asynq.MaxRetry(2)}},
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
