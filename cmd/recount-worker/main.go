package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"recount/internal/amqp"
	"recount/internal/cli"
	"recount/internal/config"
	"recount/internal/log"
	"recount/internal/services"
	"recount/internal/store/google"
	"recount/internal/worker"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadWorkerConfig()
	if err != nil {
		log.New(log.DefaultConfig()).Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg.LogLevel, nil).WithComponent(log.ComponentWorker)
	logger.Info("Starting recount-worker")

	ctx, stop := cli.GracefulShutdown(context.Background(), logger)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Worker stopped with error", log.FieldError, err)
		stop()
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}

// run mirrors the SQLite total into Google Sheets, driven by AMQP sync
// messages and backed by a periodic reconcile for anything missed.
func run(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	repo, err := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	if err != nil {
		return err
	}
	defer repo.Close()

	sheets, err := google.New(ctx, google.Config{
		SpreadsheetID:      cfg.GoogleSpreadsheetID,
		CounterSheet:       cfg.GoogleCounterSheet,
		EventsSheet:        cfg.GoogleEventsSheet,
		ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		ServiceAccountFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		return fmt.Errorf("initialize Google Sheets client: %w", err)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return fmt.Errorf("initialize AMQP client: %w", err)
	}
	defer amqpClient.Close()

	syncWorker := worker.NewSyncWorker(repo, sheets)

	logger.Info("Performing startup sync check...")
	if err := syncWorker.StartupSyncCheck(ctx); err != nil {
		logger.Error("Failed startup sync check", log.FieldError, err)
	}

	processor := services.NewSyncProcessor(syncWorker, services.SyncProcessorConfig{
		PollInterval: cfg.SyncInterval,
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := amqpClient.ConsumeTotalSync(gctx, syncWorker.HandleSyncMessage)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("consume sync messages: %w", err)
	})

	g.Go(func() error {
		if err := processor.Start(gctx); err != nil {
			return err
		}
		<-gctx.Done()

		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return processor.Stop(stopCtx)
	})

	return g.Wait()
}
