package services

import (
	"context"
	"fmt"
	"log/slog"
)

// CounterRepository is the local durable copy of the running total.
type CounterRepository interface {
	ReadTotal(ctx context.Context) (int64, error)
	WriteTotal(ctx context.Context, total int64) (int64, error)
}

// SyncPublisher announces a new counter version to the sync worker.
type SyncPublisher interface {
	PublishTotalSync(ctx context.Context, version, total int64) error
	Close() error
}

// CounterService orchestrates total writes across SQLite and AMQP
type CounterService struct {
	storage   CounterRepository
	publisher SyncPublisher
}

func NewCounterService(storage CounterRepository, publisher SyncPublisher) *CounterService {
	return &CounterService{
		storage:   storage,
		publisher: publisher,
	}
}

// ReadTotal returns the locally persisted total.
func (s *CounterService) ReadTotal(ctx context.Context) (int64, error) {
	total, err := s.storage.ReadTotal(ctx)
	if err != nil {
		return 0, fmt.Errorf("read total: %w", err)
	}
	return total, nil
}

// WriteTotal saves the total locally and publishes a sync message. A publish
// failure is logged only: the worker's periodic reconcile picks the row up.
func (s *CounterService) WriteTotal(ctx context.Context, total int64) error {
	version, err := s.storage.WriteTotal(ctx, total)
	if err != nil {
		return fmt.Errorf("save total: %w", err)
	}

	if err := s.publishSyncMessage(ctx, version, total); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"version", version, "total", total, "error", err)
	}

	return nil
}

func (s *CounterService) publishSyncMessage(ctx context.Context, version, total int64) error {
	if s.publisher == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping sync message")
		return nil
	}

	return s.publisher.PublishTotalSync(ctx, version, total)
}

// Close closes the publisher. The repository is owned by the caller.
func (s *CounterService) Close() error {
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			return fmt.Errorf("close counter service: amqp: %w", err)
		}
	}
	return nil
}
