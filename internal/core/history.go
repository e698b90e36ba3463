package core

// History is the append-only mutation log. Entries are kept in insertion
// order, which is also chronological order.
type History struct {
	entries []HistoryEntry
}

func (h *History) Append(e HistoryEntry) {
	h.entries = append(h.entries, e)
}

// Entries returns a copy of the log.
func (h *History) Entries() []HistoryEntry {
	return append([]HistoryEntry(nil), h.entries...)
}

// Filter returns the entries recorded for c, in order.
func (h *History) Filter(c Category) []HistoryEntry {
	var out []HistoryEntry
	for _, e := range h.entries {
		if e.Category == c {
			out = append(out, e)
		}
	}
	return out
}

func (h *History) Len() int { return len(h.entries) }

// Clear drops every entry.
func (h *History) Clear() {
	h.entries = nil
}
