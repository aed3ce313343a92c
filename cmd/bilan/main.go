package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"bilan/internal/cache"
	"bilan/internal/cli"
	apphttp "bilan/internal/http"
	"bilan/internal/log"
	"bilan/internal/middleware/ratelimit"
	"bilan/internal/services"
)

func main() {
	cli.LoadEnvFile()

	cfg := cli.LoadAndValidateConfig(cli.SetupLogger("info"))
	logger := cli.SetupLogger(cfg.LogLevel)

	result := cli.InitBackend(context.Background(), logger, cfg)

	reports := cache.NewReportCache(cfg.ReportCacheSize, cfg.ReportCacheTTL)
	caches := cache.NewManager(logger)
	caches.Register(reports)
	caches.StartCleanup(cfg.ReportCacheTTL)

	store := result.Store
	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Ledger:     services.NewLedgerService(store, result.Publisher, reports, logger),
		Totals:     services.NewTotalsService(store, logger),
		History:    services.NewHistoryService(store, cfg.HistoryDays),
		Store:      store,
		Statements: store,
		Reports:    reports,
		Ping:       result.Ping,
		Logger:     logger,
		Currency:   cfg.Currency,
		Title:      cfg.ReportTitle,
		RateLimit:  ratelimit.DefaultConfig(),
	})
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		caches.Stop()
		if result.Cleanup != nil {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup error", log.FieldError, err)
			}
		}
	})

	logger.Info("Starting bilan server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"amqp_enabled", result.Publisher != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
