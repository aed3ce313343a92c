package main

import (
	"context"
	"errors"
	"os"
	"time"

	"bilan/internal/amqp"
	"bilan/internal/cli"
	"bilan/internal/log"
	"bilan/internal/services"
	"bilan/internal/sheets"
	gsheet "bilan/internal/sheets/google"
	"bilan/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	cfg := cli.LoadAndValidateConfig(cli.SetupLogger("info"))
	logger := cli.SetupLogger(cfg.LogLevel).WithComponent(log.ComponentWorker)
	logger.Info("Starting bilan-worker", "backend", cfg.DataBackend)

	if cfg.DataBackend == "memory" {
		logger.Warn("Memory backend is private to this process; snapshots will not reflect the server's data")
	}

	result := cli.InitBackend(context.Background(), logger, cfg)

	// Optional Google Sheets export
	var exporter sheets.StatementExporter
	if cfg.SheetsEnabled() {
		exp, err := gsheet.New(context.Background(), gsheet.Options{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsJSON: cfg.GoogleCredentialsJSON,
			CredentialsFile: cfg.GoogleCredentialsFile,
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets exporter", log.FieldError, err)
			os.Exit(1)
		}
		exporter = exp
		logger.Info("Google Sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Google Sheets export disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	totals := services.NewTotalsService(result.Store, logger)
	statements := worker.NewStatementWorker(totals, result.Store, exporter, logger)
	scheduler := worker.NewScheduler(statements, worker.SchedulerConfig{
		Interval: cfg.SnapshotInterval,
		Months:   cfg.SnapshotMonths,
	})

	var consumer *amqp.Client
	if cfg.AMQPEnabled() {
		c, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		consumer = c
	} else {
		logger.Info("AMQP disabled - relying on periodic snapshots only")
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		logger.Info("Shutting down worker...")
		if err := scheduler.Stop(ctx); err != nil {
			logger.Warn("Scheduler stop error", log.FieldError, err)
		}
		if consumer != nil {
			if err := consumer.Close(); err != nil {
				logger.Warn("AMQP close error", log.FieldError, err)
			}
		}
		if result.Cleanup != nil {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup error", log.FieldError, err)
			}
		}
	})

	if err := scheduler.Start(ctx); err != nil {
		logger.Error("Failed to start scheduler", log.FieldError, err)
		os.Exit(1)
	}

	if consumer != nil {
		go func() {
			err := consumer.ConsumePeriodChanged(ctx, statements.HandlePeriodChanged)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", log.FieldError, err)
			}
		}()
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped")
}
