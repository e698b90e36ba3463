package adapters

import (
	"context"

	"recount/internal/core"
	"recount/internal/services"
	"recount/internal/storage"
	"recount/internal/store"
)

var (
	_ store.TotalStore  = (*SQLiteAdapter)(nil)
	_ store.EventWriter = (*SQLiteAdapter)(nil)
	_ store.EventLister = (*SQLiteAdapter)(nil)
	_ store.AliasStore  = (*SQLiteAdapter)(nil)
)

// SQLiteAdapter exposes SQLiteRepository and CounterService through the
// store ports, so the session writes locally and the worker mirrors the
// total to Google Sheets.
type SQLiteAdapter struct {
	storage *storage.SQLiteRepository
	service *services.CounterService
}

func NewSQLiteAdapter(storage *storage.SQLiteRepository, service *services.CounterService) *SQLiteAdapter {
	return &SQLiteAdapter{
		storage: storage,
		service: service,
	}
}

// ReadTotal implements store.TotalReader
func (a *SQLiteAdapter) ReadTotal(ctx context.Context) (int64, error) {
	return a.service.ReadTotal(ctx)
}

// WriteTotal implements store.TotalWriter
func (a *SQLiteAdapter) WriteTotal(ctx context.Context, total int64) error {
	return a.service.WriteTotal(ctx, total)
}

// RecordEvent implements store.EventWriter
func (a *SQLiteAdapter) RecordEvent(ctx context.Context, e core.Event) error {
	return a.storage.RecordEvent(ctx, e)
}

// ListEvents implements store.EventLister
func (a *SQLiteAdapter) ListEvents(ctx context.Context, limit int) ([]core.Event, error) {
	return a.storage.ListEvents(ctx, limit)
}

// ListAliases implements store.AliasStore
func (a *SQLiteAdapter) ListAliases(ctx context.Context) ([]core.AliasEntry, error) {
	return a.storage.ListAliases(ctx)
}

// SaveAlias implements store.AliasStore
func (a *SQLiteAdapter) SaveAlias(ctx context.Context, e core.AliasEntry) error {
	return a.storage.SaveAlias(ctx, e)
}

// DeleteAlias implements store.AliasStore
func (a *SQLiteAdapter) DeleteAlias(ctx context.Context, phrase string) error {
	return a.storage.DeleteAlias(ctx, phrase)
}
