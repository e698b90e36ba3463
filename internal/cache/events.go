package cache

import (
	"context"
	"strconv"
	"time"

	"recount/internal/core"
	"recount/internal/store"
)

// EventStore is the pair of event ports a remote backend exposes.
type EventStore interface {
	store.EventWriter
	store.EventLister
}

// Events caches ListEvents results of a slow event store, keyed by limit.
// Any successful RecordEvent invalidates the cache.
type Events struct {
	next    EventStore
	entries *LRU[[]core.Event]
}

var _ EventStore = (*Events)(nil)

func NewEvents(next EventStore, ttl time.Duration) *Events {
	return &Events{next: next, entries: NewLRU[[]core.Event](16, ttl)}
}

func (e *Events) RecordEvent(ctx context.Context, ev core.Event) error {
	if err := e.next.RecordEvent(ctx, ev); err != nil {
		return err
	}
	e.entries.Purge()
	return nil
}

func (e *Events) ListEvents(ctx context.Context, limit int) ([]core.Event, error) {
	key := strconv.Itoa(limit)
	if cached, ok := e.entries.Get(key); ok {
		return clone(cached), nil
	}

	events, err := e.next.ListEvents(ctx, limit)
	if err != nil {
		return nil, err
	}
	e.entries.Set(key, clone(events))
	return events, nil
}

func clone(events []core.Event) []core.Event {
	out := make([]core.Event, len(events))
	copy(out, events)
	return out
}
