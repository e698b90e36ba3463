package session

import (
	"context"
	"sync"
	"time"

	"recount/internal/core"
	"recount/internal/log"
	"recount/internal/store"
)

type queuedEvent struct {
	ctx   context.Context
	event core.Event
}

type pendingTotal struct {
	ctx   context.Context
	total int64
}

// writer mirrors session state to the stores from at most one goroutine at
// a time. Events are written in the order they were queued. Totals coalesce:
// only the newest pending total is written, so the last write always
// carries the latest value.
type writer struct {
	totals  store.TotalWriter
	events  store.EventWriter
	logger  *log.Logger
	timeout time.Duration

	mu      sync.Mutex
	idle    *sync.Cond
	queue   []queuedEvent
	total   *pendingTotal
	running bool
}

func newWriter(totals store.TotalWriter, events store.EventWriter, logger *log.Logger, timeout time.Duration) *writer {
	w := &writer{totals: totals, events: events, logger: logger, timeout: timeout}
	w.idle = sync.NewCond(&w.mu)
	return w
}

// enqueueTotal replaces any total not yet written.
func (w *writer) enqueueTotal(ctx context.Context, total int64) {
	if w.totals == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.total = &pendingTotal{ctx: context.WithoutCancel(ctx), total: total}
	w.kickLocked()
}

func (w *writer) enqueueEvent(ctx context.Context, e core.Event) {
	if w.events == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.queue = append(w.queue, queuedEvent{ctx: context.WithoutCancel(ctx), event: e})
	w.kickLocked()
}

func (w *writer) kickLocked() {
	if w.running {
		return
	}
	w.running = true
	go w.drain()
}

func (w *writer) drain() {
	for {
		w.mu.Lock()
		events, total := w.queue, w.total
		w.queue, w.total = nil, nil
		if len(events) == 0 && total == nil {
			w.running = false
			w.idle.Broadcast()
			w.mu.Unlock()
			return
		}
		w.mu.Unlock()

		for _, q := range events {
			w.writeEvent(q)
		}
		if total != nil {
			w.writeTotal(*total)
		}
	}
}

func (w *writer) writeEvent(q queuedEvent) {
	ctx, cancel := context.WithTimeout(q.ctx, w.timeout)
	defer cancel()
	if err := w.events.RecordEvent(ctx, q.event); err != nil {
		w.logger.ErrorContext(ctx, "Failed to record event",
			log.FieldOperation, log.OpRecord, log.FieldEventName, q.event.Name, log.FieldError, err)
	}
}

func (w *writer) writeTotal(p pendingTotal) {
	ctx, cancel := context.WithTimeout(p.ctx, w.timeout)
	defer cancel()
	if err := w.totals.WriteTotal(ctx, p.total); err != nil {
		w.logger.ErrorContext(ctx, "Failed to write persistent total",
			log.FieldOperation, log.OpWriteTotal, log.FieldTotal, p.total, log.FieldError, err)
		return
	}
	w.logger.DebugContext(ctx, "Persistent total written", log.FieldTotal, p.total)
}

// wait blocks until everything queued so far has been written.
func (w *writer) wait() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for w.running {
		w.idle.Wait()
	}
}
