package session

import (
	"context"
	"errors"
	"sync"

	"recount/internal/log"
)

var ErrListenerRunning = errors.New("listener is already running")

// UtteranceHandler consumes recognized utterances. *Session implements it.
type UtteranceHandler interface {
	HandleUtterance(ctx context.Context, text string) Outcome
}

// OutcomeHook observes each handled utterance, e.g. to echo it to a terminal.
type OutcomeHook func(text string, out Outcome)

// Listener feeds a speech source into a handler in arrival order. Stopping
// the listener only stops consumption; session state is untouched.
type Listener struct {
	handler UtteranceHandler
	logger  *log.Logger
	hook    OutcomeHook

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewListener(handler UtteranceHandler, logger *log.Logger, hook OutcomeHook) *Listener {
	if logger == nil {
		logger = log.Discard()
	}
	return &Listener{
		handler: handler,
		logger:  logger.WithComponent(log.ComponentListener),
		hook:    hook,
	}
}

// Start begins consuming src. Returns ErrListenerRunning if already running.
// The listener stops by itself when src is closed or ctx ends.
func (l *Listener) Start(ctx context.Context, src <-chan string) error {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return ErrListenerRunning
	}
	l.running = true
	l.stopCh = make(chan struct{})
	l.doneCh = make(chan struct{})
	stopCh, doneCh := l.stopCh, l.doneCh
	l.mu.Unlock()

	go l.run(ctx, src, stopCh, doneCh)

	l.logger.InfoContext(ctx, "Listener started")
	return nil
}

// Stop halts consumption and waits for the in-progress utterance.
func (l *Listener) Stop(ctx context.Context) error {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return nil
	}
	select {
	case <-l.stopCh:
	default:
		close(l.stopCh)
	}
	doneCh := l.doneCh
	l.mu.Unlock()

	select {
	case <-doneCh:
		l.logger.InfoContext(ctx, "Listener stopped")
		return nil
	case <-ctx.Done():
		l.logger.WarnContext(ctx, "Listener stop timed out")
		return ctx.Err()
	}
}

// Done is closed when the current run ends. It is nil before the first Start.
func (l *Listener) Done() <-chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.doneCh
}

// IsRunning returns whether the listener is consuming.
func (l *Listener) IsRunning() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

func (l *Listener) run(ctx context.Context, src <-chan string, stopCh, doneCh chan struct{}) {
	defer func() {
		l.mu.Lock()
		l.running = false
		l.mu.Unlock()
		close(doneCh)
	}()

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case text, ok := <-src:
			if !ok {
				l.logger.InfoContext(ctx, "Speech source closed")
				return
			}
			out := l.handler.HandleUtterance(ctx, text)
			if l.hook != nil {
				l.hook(text, out)
			}
		}
	}
}
