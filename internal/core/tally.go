package core

import "time"

// Tally holds per-category counts, the session total and the mirrored
// persistent total, plus the history log fed by every applied mutation.
//
// Resets zero a category without subtracting from either total.
type Tally struct {
	counts          [NumCategories]int64
	sessionTotal    int64
	persistentTotal int64
	history         History
}

// NewTally starts a tally whose persistent total mirrors the external store.
func NewTally(persistentTotal int64) *Tally {
	if persistentTotal < 0 {
		persistentTotal = 0
	}
	return &Tally{persistentTotal: persistentTotal}
}

// Apply applies an Increment or ResetToZero and returns the history entry
// it appended. Any other mutation, an invalid category or a non-positive
// increment leaves the tally untouched.
func (t *Tally) Apply(m Mutation, at time.Time) (HistoryEntry, bool) {
	if !m.Category.Valid() {
		return HistoryEntry{}, false
	}

	switch m.Kind {
	case MutationIncrement:
		if m.Amount < 1 {
			return HistoryEntry{}, false
		}
		t.counts[m.Category] += m.Amount
		t.sessionTotal += m.Amount
		t.persistentTotal += m.Amount
	case MutationReset:
		t.counts[m.Category] = 0
	default:
		return HistoryEntry{}, false
	}

	entry := HistoryEntry{Category: m.Category, Count: t.counts[m.Category], Timestamp: at}
	t.history.Append(entry)
	return entry, true
}

// Count returns the current count for c.
func (t *Tally) Count(c Category) int64 {
	if !c.Valid() {
		return 0
	}
	return t.counts[c]
}

// Counts returns a snapshot keyed by category.
func (t *Tally) Counts() map[Category]int64 {
	out := make(map[Category]int64, NumCategories)
	for _, c := range Categories() {
		out[c] = t.counts[c]
	}
	return out
}

func (t *Tally) SessionTotal() int64    { return t.sessionTotal }
func (t *Tally) PersistentTotal() int64 { return t.persistentTotal }

// History exposes the log for reads and filtering.
func (t *Tally) History() *History { return &t.history }

// ClearHistory empties the log only.
func (t *Tally) ClearHistory() {
	t.history.Clear()
}
