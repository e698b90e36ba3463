package store

import (
	"context"

	"recount/internal/core"
)

// Ports for outbound adapters.
type (
	// TotalReader reads the externally persisted running total. It is called
	// once per session start.
	TotalReader interface {
		ReadTotal(ctx context.Context) (int64, error)
	}

	// TotalWriter overwrites the persisted running total. Calls are
	// best-effort mirrors of local state with no transactional guarantee.
	TotalWriter interface {
		WriteTotal(ctx context.Context, total int64) error
	}

	TotalStore interface {
		TotalReader
		TotalWriter
	}

	// EventWriter appends an audit event.
	EventWriter interface {
		RecordEvent(ctx context.Context, e core.Event) error
	}

	// EventLister returns the most recent events, newest first.
	EventLister interface {
		ListEvents(ctx context.Context, limit int) ([]core.Event, error)
	}

	// AliasStore persists user-defined aliases across sessions. Built-in
	// synonyms are never stored.
	AliasStore interface {
		ListAliases(ctx context.Context) ([]core.AliasEntry, error)
		SaveAlias(ctx context.Context, a core.AliasEntry) error
		DeleteAlias(ctx context.Context, phrase string) error
	}
)
