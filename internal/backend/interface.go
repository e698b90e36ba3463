package backend

import (
	"context"

	"recount/internal/store"
)

// Backend is the persistent side of a session: the running total and the
// audit event log. A backend may also implement store.AliasStore.
type Backend interface {
	store.TotalStore
	store.EventWriter
	store.EventLister
}

// CleanupFunc releases whatever a backend holds open.
type CleanupFunc func() error

// BackendResult is a created backend and its cleanup.
type BackendResult struct {
	Backend Backend
	Cleanup CleanupFunc
}

// AliasStore returns the backend's alias persistence, if it has one.
func (r *BackendResult) AliasStore() store.AliasStore {
	if as, ok := r.Backend.(store.AliasStore); ok {
		return as
	}
	return nil
}

// Close runs the cleanup function, if any.
func (r *BackendResult) Close() error {
	if r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}
