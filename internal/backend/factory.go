package backend

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"recount/internal/adapters"
	"recount/internal/amqp"
	"recount/internal/cache"
	"recount/internal/services"
	"recount/internal/storage"
	"recount/internal/store"
	"recount/internal/store/google"
	"recount/internal/store/memory"
)

// Sheets reads are rate limited, so event listings are cached briefly.
const sheetsEventsCacheTTL = 30 * time.Second

// sheetsBackend pairs the Sheets total with a cached view of its event log.
type sheetsBackend struct {
	store.TotalStore
	*cache.Events
}

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case SheetsBackend:
		return f.createSheetsBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	sqliteRepo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	// AMQP is optional: without it the worker's periodic reconcile still
	// mirrors the total.
	var publisher services.SyncPublisher
	if config.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without sync", "error", err)
		} else {
			publisher = amqpClient
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	counterService := services.NewCounterService(sqliteRepo, publisher)
	adapter := adapters.NewSQLiteAdapter(sqliteRepo, counterService)

	f.logger.Info("Initialized SQLite backend",
		"db_path", config.SQLiteDBPath,
		"amqp_enabled", publisher != nil)

	return &BackendResult{
		Backend: adapter,
		Cleanup: func() error {
			svcErr := counterService.Close()
			repoErr := sqliteRepo.Close()
			if svcErr != nil {
				return svcErr
			}
			return repoErr
		},
	}, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) (*BackendResult, error) {
	cli, err := google.New(ctx, google.Config{
		SpreadsheetID:      config.GoogleSpreadsheetID,
		CounterSheet:       config.GoogleCounterSheet,
		EventsSheet:        config.GoogleEventsSheet,
		ServiceAccountJSON: config.GoogleServiceAccountJSON,
		ServiceAccountFile: config.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	f.logger.Info("Initialized Google Sheets backend", "spreadsheet_id", config.GoogleSpreadsheetID)

	return &BackendResult{
		Backend: sheetsBackend{
			TotalStore: cli,
			Events:     cache.NewEvents(cli, sheetsEventsCacheTTL),
		},
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	dataDir := config.DataDirectory
	if dataDir == "" {
		dataDir = "data"
	}

	mem := memory.NewFromFiles(dataDir)

	f.logger.Info("Initialized memory backend", "data_directory", dataDir)

	return &BackendResult{Backend: mem}, nil
}
