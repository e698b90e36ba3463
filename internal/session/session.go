// Package session owns the live counting state: tallies, lockout, screen
// lock and history. Every event is applied under one mutex, and each
// increment is mirrored to the persistent counter store in the background
// by a single writer.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"recount/internal/command"
	"recount/internal/core"
	"recount/internal/log"
	"recount/internal/store"
)

const defaultWriteTimeout = 10 * time.Second

// Event names recorded to the audit log.
const (
	EventSessionStarted = "Session started"
	EventSessionEnded   = "Session ended"
	eventKeywordAdded   = "Added keyword: "
	eventKeywordRemoved = "Removed keyword: "
)

var ErrAlreadyStarted = errors.New("session already started")

type (
	// View is what the display shows. While the screen is locked the live
	// counts and totals are withheld.
	View struct {
		Counts          map[core.Category]int64 `json:"counts,omitempty"`
		SessionTotal    *int64                  `json:"session_total,omitempty"`
		PersistentTotal *int64                  `json:"persistent_total,omitempty"`
		Lockout         *core.Category          `json:"lockout,omitempty"`
		ScreenLocked    bool                    `json:"screen_locked"`
	}

	// Snapshot is the full state regardless of the screen lock.
	Snapshot struct {
		ID              string                  `json:"id,omitempty"`
		Counts          map[core.Category]int64 `json:"counts"`
		SessionTotal    int64                   `json:"session_total"`
		PersistentTotal int64                   `json:"persistent_total"`
		Lockout         *core.Category          `json:"lockout,omitempty"`
		ScreenLocked    bool                    `json:"screen_locked"`
		HistoryLen      int                     `json:"history_len"`
		Active          bool                    `json:"active"`
	}

	// Outcome reports what one utterance or button press did.
	Outcome struct {
		Mutation core.Mutation
		// Changed is false for None and for mutations that were no-ops in
		// the current state.
		Changed bool
		// Inactive is set when the input arrived outside a running session
		// and was ignored.
		Inactive bool
		Entry   *core.HistoryEntry
		View    View
	}
)

// Option configures a Session.
type Option func(*Session)

func WithLogger(l *log.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l.WithComponent(log.ComponentSession)
		}
	}
}

// WithClock replaces time.Now for history timestamps and events.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

func WithEventWriter(w store.EventWriter) Option {
	return func(s *Session) { s.events = w }
}

// WithAliasStore loads user-defined aliases on Start and persists alias
// changes.
func WithAliasStore(a store.AliasStore) Option {
	return func(s *Session) { s.aliasStore = a }
}

// WithWriteTimeout bounds each background store write.
func WithWriteTimeout(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.writeTimeout = d
		}
	}
}

type Session struct {
	interp       *command.Interpreter
	totals       store.TotalStore
	events       store.EventWriter
	aliasStore   store.AliasStore
	logger       *log.Logger
	now          func() time.Time
	writeTimeout time.Duration

	mu           sync.Mutex
	id           string
	tally        *core.Tally
	lockout      core.Lockout
	screenLocked bool
	active       bool

	writer *writer
}

// New builds a session over interp and the persistent counter store. Until
// Start is called the persistent total reads as zero.
func New(interp *command.Interpreter, totals store.TotalStore, opts ...Option) *Session {
	if interp == nil {
		interp = command.New(nil)
	}
	s := &Session{
		interp:       interp,
		totals:       totals,
		logger:       log.Discard().WithComponent(log.ComponentSession),
		now:          time.Now,
		writeTimeout: defaultWriteTimeout,
		tally:        core.NewTally(0),
	}
	for _, o := range opts {
		o(s)
	}
	var totals store.TotalWriter
	if s.totals != nil {
		totals = s.totals
	}
	s.writer = newWriter(totals, s.events, s.logger, s.writeTimeout)
	return s
}

// Start reads the persistent total once and begins a fresh session. A read
// failure degrades to a zero total.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	active := s.active
	s.mu.Unlock()
	if active {
		return ErrAlreadyStarted
	}

	// Backend reads can block for their whole timeout, so they run unlocked.
	var total int64
	if s.totals != nil {
		t, err := s.totals.ReadTotal(ctx)
		if err != nil {
			s.logger.WarnContext(ctx, "Persistent total unavailable, starting from zero",
				log.FieldOperation, log.OpReadTotal, log.FieldError, err)
		} else {
			total = t
		}
	}
	s.loadAliases(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		return ErrAlreadyStarted
	}
	s.id = newSessionID()
	s.tally = core.NewTally(total)
	s.lockout.Reset()
	s.screenLocked = false
	s.active = true

	s.recordEvent(ctx, EventSessionStarted)

	s.logger.InfoContext(ctx, "Session started", log.FieldSessionID, s.id, log.FieldTotal, total)
	return nil
}

func (s *Session) loadAliases(ctx context.Context) {
	if s.aliasStore == nil {
		return
	}
	entries, err := s.aliasStore.ListAliases(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to load stored aliases", log.FieldError, err)
		return
	}
	table := s.interp.Aliases()
	for _, a := range entries {
		if err := table.Add(a.Phrase, a.Category); err != nil {
			s.logger.WarnContext(ctx, "Skipping stored alias",
				log.FieldPhrase, a.Phrase, log.FieldCategory, a.Category.String(), log.FieldError, err)
		}
	}
}

// HandleUtterance interprets one recognized utterance and applies it.
func (s *Session) HandleUtterance(ctx context.Context, text string) Outcome {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		s.logger.DebugContext(ctx, "Utterance ignored, no active session", log.FieldUtterance, text)
		return s.inactiveOutcome()
	}
	m := s.interp.Interpret(text, s.lockout)
	out := s.applyLocked(ctx, m)
	s.mu.Unlock()

	s.logger.DebugContext(ctx, "Utterance interpreted",
		mutationFields(m, out).With(log.FieldUtterance, text).ToSlice()...)
	return out
}

// Press applies one manual control.
func (s *Session) Press(ctx context.Context, b command.Button) Outcome {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		s.logger.DebugContext(ctx, "Control ignored, no active session", "action", string(b.Action))
		return s.inactiveOutcome()
	}
	m := s.interp.Press(b, s.lockout)
	out := s.applyLocked(ctx, m)
	s.mu.Unlock()

	s.logger.DebugContext(ctx, "Control pressed",
		mutationFields(m, out).With("action", string(b.Action)).ToSlice()...)
	return out
}

func (s *Session) inactiveOutcome() Outcome {
	return Outcome{Mutation: core.NoMutation(), Inactive: true, View: s.View()}
}

func mutationFields(m core.Mutation, out Outcome) log.LogFields {
	var category string
	if m.Kind != core.MutationNone && m.Kind != core.MutationLockScreen && m.Kind != core.MutationUnlockScreen {
		category = m.Category.String()
	}
	f := log.NewFields().WithMutation(m.Kind.String(), category, m.Amount)
	f["changed"] = out.Changed
	if out.View.SessionTotal != nil && out.View.PersistentTotal != nil {
		f.WithTotals(*out.View.SessionTotal, *out.View.PersistentTotal)
	}
	return f
}

// applyLocked must be called with s.mu held.
func (s *Session) applyLocked(ctx context.Context, m core.Mutation) Outcome {
	out := Outcome{Mutation: m}

	switch m.Kind {
	case core.MutationIncrement, core.MutationReset:
		entry, ok := s.tally.Apply(m, s.now())
		if ok {
			out.Changed = true
			out.Entry = &entry
			if m.Kind == core.MutationIncrement {
				s.writeThrough(ctx, s.tally.PersistentTotal())
			}
		}
	case core.MutationSetLockout:
		prev := s.lockout
		s.lockout.Set(m.Category)
		out.Changed = prev != s.lockout
	case core.MutationClearLockout:
		out.Changed = s.lockout.Clear(m.Category)
	case core.MutationLockScreen:
		out.Changed = !s.screenLocked
		s.screenLocked = true
	case core.MutationUnlockScreen:
		out.Changed = s.screenLocked
		s.screenLocked = false
	}

	out.View = s.viewLocked()
	return out
}

// writeThrough hands total to the writer without blocking the caller. The
// write is detached from the caller's cancellation and bounded by the write
// timeout; a failure is logged and local state is kept.
func (s *Session) writeThrough(ctx context.Context, total int64) {
	s.writer.enqueueTotal(ctx, total)
}

func (s *Session) recordEvent(ctx context.Context, name string) {
	s.writer.enqueueEvent(ctx, core.Event{Name: name, Date: s.now()})
}

// Wait blocks until every background write queued so far has finished.
func (s *Session) Wait() {
	s.writer.wait()
}

// View returns the display state.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Session) viewLocked() View {
	v := View{ScreenLocked: s.screenLocked}
	if c, ok := s.lockout.Active(); ok {
		v.Lockout = &c
	}
	if s.screenLocked {
		return v
	}
	sessionTotal, persistentTotal := s.tally.SessionTotal(), s.tally.PersistentTotal()
	v.Counts = s.tally.Counts()
	v.SessionTotal = &sessionTotal
	v.PersistentTotal = &persistentTotal
	return v
}

// Snapshot returns the full state, ignoring the screen lock.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		ID:              s.id,
		Counts:          s.tally.Counts(),
		SessionTotal:    s.tally.SessionTotal(),
		PersistentTotal: s.tally.PersistentTotal(),
		ScreenLocked:    s.screenLocked,
		HistoryLen:      s.tally.History().Len(),
		Active:          s.active,
	}
	if c, ok := s.lockout.Active(); ok {
		snap.Lockout = &c
	}
	return snap
}

// History returns the log in chronological order, optionally filtered to
// one category.
func (s *Session) History(filter *core.Category) []core.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if filter != nil {
		return s.tally.History().Filter(*filter)
	}
	return s.tally.History().Entries()
}

// ClearHistory empties the log. Counts and totals are untouched.
func (s *Session) ClearHistory() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tally.ClearHistory()
}

// Aliases returns every phrase the interpreter currently understands.
func (s *Session) Aliases() []core.AliasEntry {
	return s.interp.Aliases().Entries()
}

// AddAlias binds a new phrase, persists it when an alias store is set and
// records a keyword event.
func (s *Session) AddAlias(ctx context.Context, phrase string, c core.Category) error {
	if err := s.interp.Aliases().Add(phrase, c); err != nil {
		return fmt.Errorf("add alias %q: %w", phrase, err)
	}
	normalized := core.NormalizePhrase(phrase)
	if s.aliasStore != nil {
		if err := s.aliasStore.SaveAlias(ctx, core.AliasEntry{Phrase: normalized, Category: c}); err != nil {
			s.logger.ErrorContext(ctx, "Failed to persist alias",
				log.FieldPhrase, normalized, log.FieldCategory, c.String(), log.FieldError, err)
		}
	}
	s.recordEvent(ctx, eventKeywordAdded+normalized)
	s.logger.InfoContext(ctx, "Alias added", log.FieldPhrase, normalized, log.FieldCategory, c.String())
	return nil
}

// RemoveAlias unbinds a phrase and reports whether it was bound.
func (s *Session) RemoveAlias(ctx context.Context, phrase string) (bool, error) {
	removed, err := s.interp.Aliases().Remove(phrase)
	if err != nil {
		return false, fmt.Errorf("remove alias %q: %w", phrase, err)
	}
	if !removed {
		return false, nil
	}
	normalized := core.NormalizePhrase(phrase)
	if s.aliasStore != nil {
		if err := s.aliasStore.DeleteAlias(ctx, normalized); err != nil {
			s.logger.ErrorContext(ctx, "Failed to delete stored alias",
				log.FieldPhrase, normalized, log.FieldError, err)
		}
	}
	s.recordEvent(ctx, eventKeywordRemoved+normalized)
	s.logger.InfoContext(ctx, "Alias removed", log.FieldPhrase, normalized)
	return true, nil
}

// End clears the lockout and the screen lock, records the end event and
// waits for every background write.
func (s *Session) End(ctx context.Context) {
	s.mu.Lock()
	s.lockout.Reset()
	s.screenLocked = false
	wasActive := s.active
	s.active = false
	sessionTotal := s.tally.SessionTotal()
	id := s.id
	s.mu.Unlock()

	if wasActive {
		s.recordEvent(ctx, EventSessionEnded)
	}
	s.Wait()

	s.logger.InfoContext(ctx, "Session ended", log.FieldSessionID, id, log.FieldSession, sessionTotal)
}

// newSessionID returns a time-ordered UUID so session IDs sort by start.
func newSessionID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
