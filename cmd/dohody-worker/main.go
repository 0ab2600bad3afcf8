package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"dohody/internal/amqp"
	"dohody/internal/config"
	applog "dohody/internal/log"
	"dohody/internal/sheets"
	gsheet "dohody/internal/sheets/google"
	"dohody/internal/storage"
	"dohody/internal/worker"
)

func main() {
	restore := flag.Bool("restore", false, "restore the store from the latest backup file and exit")
	flag.Parse()

	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentWorker)
	applog.SetDefault(logger)

	logger.Info("Starting dohody-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	// The worker reads the same database the app writes.
	store, err := storage.NewSQLiteStore(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite store", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer store.Close()

	if *restore {
		path, err := worker.RestoreLatest(context.Background(), store, cfg.BackupDir)
		if err != nil {
			logger.Error("Restore failed", "error", err, "backup_dir", cfg.BackupDir)
			os.Exit(1)
		}
		logger.Info("Restore completed", "path", path)
		return
	}

	var exporter sheets.SnapshotExporter
	if cfg.SheetsConfigured() {
		cli, err := gsheet.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		exporter = cli
		logger.Info("Google Sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Google Sheets export disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	backupWorker := worker.NewBackupWorker(store, exporter, cfg.BackupDir)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Write one backup on startup so a fresh deployment has a file
	// before any change arrives.
	if err := backupWorker.Run(ctx); err != nil {
		logger.Error("Startup backup failed", "error", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()

		g.Go(func() error {
			return amqpClient.ConsumeChanges(ctx, func(msg *amqp.ChangeMessage) error {
				return backupWorker.HandleChange(ctx, msg)
			})
		})
	} else {
		logger.Info("AMQP disabled - running on the periodic schedule only")
	}

	g.Go(func() error {
		return backupWorker.RunPeriodic(ctx, cfg.SyncInterval)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
