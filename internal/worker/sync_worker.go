package worker

import (
	"context"
	"fmt"
	"log/slog"

	"recount/internal/amqp"
	"recount/internal/storage"
	"recount/internal/store"
)

// CounterStateStore is the local side of the sync: the counter row and its
// sync bookkeeping.
type CounterStateStore interface {
	CounterState(ctx context.Context) (storage.CounterState, error)
	MarkSynced(ctx context.Context, version int64) error
	MarkSyncError(ctx context.Context) error
}

// SyncWorker mirrors the SQLite running total to the remote counter store
type SyncWorker struct {
	storage CounterStateStore
	remote  store.TotalWriter
}

func NewSyncWorker(storage CounterStateStore, remote store.TotalWriter) *SyncWorker {
	return &SyncWorker{
		storage: storage,
		remote:  remote,
	}
}

// HandleSyncMessage processes a single total sync message from AMQP. A
// message whose version is already mirrored is acknowledged and skipped.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.TotalSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message", "version", msg.Version)

	state, err := w.storage.CounterState(ctx)
	if err != nil {
		return fmt.Errorf("get counter state: %w", err)
	}

	if msg.Version <= state.SyncedVersion {
		slog.InfoContext(ctx, "Skipping stale sync message",
			"version", msg.Version,
			"synced_version", state.SyncedVersion)
		return nil
	}

	if err := w.syncTotal(ctx, state); err != nil {
		return fmt.Errorf("sync total: %w", err)
	}
	return nil
}

// ProcessPending mirrors the current total if the remote copy lags. This is
// a backup mechanism in case AMQP messages are lost.
func (w *SyncWorker) ProcessPending(ctx context.Context) error {
	state, err := w.storage.CounterState(ctx)
	if err != nil {
		return fmt.Errorf("get counter state: %w", err)
	}
	if !state.NeedsSync() {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending total",
		"version", state.Version,
		"synced_version", state.SyncedVersion)

	return w.syncTotal(ctx, state)
}

// StartupSyncCheck reconciles once at worker startup to recover from missed
// AMQP messages or worker downtime.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	state, err := w.storage.CounterState(ctx)
	if err != nil {
		return fmt.Errorf("get counter state for startup check: %w", err)
	}

	if !state.NeedsSync() {
		slog.InfoContext(ctx, "No pending total found on startup", "version", state.Version)
		return nil
	}

	slog.InfoContext(ctx, "Found pending total on startup, processing...",
		"version", state.Version,
		"synced_version", state.SyncedVersion,
		"status", state.SyncStatus)

	if err := w.syncTotal(ctx, state); err != nil {
		return fmt.Errorf("startup sync: %w", err)
	}

	slog.InfoContext(ctx, "Startup sync completed", "version", state.Version)
	return nil
}

func (w *SyncWorker) syncTotal(ctx context.Context, state storage.CounterState) error {
	if err := w.remote.WriteTotal(ctx, state.Total); err != nil {
		if markErr := w.storage.MarkSyncError(ctx); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "version", state.Version, "error", markErr)
		}
		return fmt.Errorf("write remote total: %w", err)
	}

	if err := w.storage.MarkSynced(ctx, state.Version); err != nil {
		// The remote write succeeded; the next reconcile rewrites the same total.
		slog.ErrorContext(ctx, "Failed to mark as synced", "version", state.Version, "error", err)
	}

	slog.InfoContext(ctx, "Successfully synced total",
		"total", state.Total,
		"version", state.Version)

	return nil
}
