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
	"github.com/joho/godotenv"

	"github.com/ArielSanroj/cfobot/internal/analysis"
	analysisdb "github.com/ArielSanroj/cfobot/internal/analysis/db"
	analysishttp "github.com/ArielSanroj/cfobot/internal/analysis/http"
	"github.com/ArielSanroj/cfobot/internal/app"
	"github.com/ArielSanroj/cfobot/internal/boardreport"
	"github.com/ArielSanroj/cfobot/internal/budget"
	"github.com/ArielSanroj/cfobot/internal/insights"
	"github.com/ArielSanroj/cfobot/internal/observability"
	"github.com/ArielSanroj/cfobot/internal/platform/cache"
	"github.com/ArielSanroj/cfobot/internal/platform/db"
	"github.com/ArielSanroj/cfobot/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	queue := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := queue.Close(); err != nil {
			logger.Warn("queue close", slog.Any("error", err))
		}
	}()

	pdfClient := boardreport.NewGotenbergClient(cfg.GotenbergURL, cfg.GotenbergTimeout)
	if err := pdfClient.Ping(ctx); err != nil {
		logger.Warn("gotenberg ping", slog.Any("error", err))
	}
	renderer, err := boardreport.NewRenderer(pdfClient)
	if err != nil {
		logger.Error("init board renderer", slog.Any("error", err))
		os.Exit(1)
	}
	boardService := boardreport.NewService(
		boardreport.NewBuilder(boardreport.NewWorkbookFigures()),
		renderer,
		insightsClient,
	)

	metrics := observability.NewMetrics()

	analysisHandler := analysishttp.NewHandler(logger, analysisService, insightsClient, queue).
		WithBoard(boardService)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		AnalysisHandler: analysisHandler,
		Metrics:         metrics,
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
