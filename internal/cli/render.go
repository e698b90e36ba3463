package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"recount/internal/core"
	"recount/internal/session"
)

// FormatView renders the display line, e.g.
// "PET 3 | HDPE 0 | GLASS 4 | CARTON 0 | CAN 1 | session 8 | total 120".
func FormatView(v session.View) string {
	var b strings.Builder
	if v.ScreenLocked {
		b.WriteString("screen locked")
	} else {
		for i, c := range core.Categories() {
			if i > 0 {
				b.WriteString(" | ")
			}
			fmt.Fprintf(&b, "%s %d", c, v.Counts[c])
		}
		if v.SessionTotal != nil && v.PersistentTotal != nil {
			fmt.Fprintf(&b, " | session %d | total %d", *v.SessionTotal, *v.PersistentTotal)
		}
	}
	if v.Lockout != nil {
		fmt.Fprintf(&b, " [locked to %s]", *v.Lockout)
	}
	return b.String()
}

// FormatOutcome renders one handled utterance for the terminal.
func FormatOutcome(text string, out session.Outcome) string {
	if out.Inactive {
		return WarningStyle.Render(fmt.Sprintf("%q: ignored, no active session", text))
	}
	if out.Mutation.IsNone() {
		return SubtleStyle.Render(fmt.Sprintf("%q: not understood", text))
	}
	if !out.Changed {
		return WarningStyle.Render(fmt.Sprintf("%q: %s (no change)", text, out.Mutation))
	}
	return ChangedStyle.Render(fmt.Sprintf("%q: %s", text, out.Mutation)) + "\n  " + FormatView(out.View)
}

// WriteAliases prints the alias table grouped by category.
func WriteAliases(w io.Writer, entries []core.AliasEntry) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t%s\n", HeaderStyle.Render("CATEGORY"), HeaderStyle.Render("PHRASE"))
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\n", e.Category, e.Phrase)
	}
	return tw.Flush()
}
