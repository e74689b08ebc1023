package main

import (
	"context"
	"errors"
	"os"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/backend"
	"fintrack/internal/cli"
	applog "fintrack/internal/log"
	gsheet "fintrack/internal/sheets/google"
	"fintrack/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	appLogger := cli.AppLogger(logger, applog.ComponentWorker)

	appLogger.Info("Starting fintrack-worker", applog.FieldOperation, applog.OpStartup)

	cfg := cli.LoadAndValidateConfig(logger)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		appLogger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}
	if backendCfg.Type == backend.MemoryBackend {
		appLogger.Warn("Memory backend is private to this process; backups will only reflect the seed file")
	}
	result, err := backend.NewFactory(logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		appLogger.Error("Failed to initialize backend", applog.FieldError, err)
		os.Exit(1)
	}

	var mirror worker.Mirror
	if cfg.MirrorEnabled() {
		m, err := gsheet.New(context.Background(), gsheet.Config{
			SpreadsheetID: cfg.GoogleSpreadsheetID,
			SheetName:     cfg.GoogleSheetName,
			Locale:        cfg.ExportLocale,
		})
		if err != nil {
			appLogger.Error("Failed to initialize Google Sheets mirror", applog.FieldError, err)
			os.Exit(1)
		}
		mirror = m
		appLogger.Info("Google Sheets mirror initialized", "sheet", m.SheetName())
	} else {
		appLogger.Info("Google Sheets mirror disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	backups := worker.NewBackupWorker(result.Store, cfg.ExportDir, cfg.ExportLocale, mirror, appLogger)
	scheduler := worker.NewScheduler(backups, worker.SchedulerConfig{Interval: cfg.BackupInterval})

	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			appLogger.Error("Failed to initialize AMQP client", applog.FieldError, err)
			os.Exit(1)
		}
	} else {
		appLogger.Info("AMQP disabled - relying on periodic backups only")
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := scheduler.Stop(ctx); err != nil {
			appLogger.Error("Scheduler shutdown error", applog.FieldError, err)
		}
		if amqpClient != nil {
			_ = amqpClient.Close()
		}
		if result.Cleanup != nil {
			if err := result.Cleanup(); err != nil {
				appLogger.Error("Backend cleanup error", applog.FieldError, err)
			}
		}
	})

	// Catch up on anything that changed while the worker was down.
	if err := backups.StartupBackup(ctx); err != nil {
		appLogger.Error("Startup backup failed", applog.FieldError, err)
	}

	if err := scheduler.Start(ctx); err != nil {
		appLogger.Error("Failed to start backup scheduler", applog.FieldError, err)
		os.Exit(1)
	}

	if amqpClient != nil {
		go func() {
			err := amqpClient.ConsumeWithRetry(ctx, backups.HandleChange)
			if err != nil && !errors.Is(err, context.Canceled) {
				appLogger.Error("Message consumption failed", applog.FieldError, err)
			}
		}()
	}

	cli.WaitForShutdown(ctx, done)
	appLogger.Info("Worker stopped")
}
