package export

import (
	"bufio"
	"fmt"
	"io"
	"time"

	"recount/internal/core"
)

// WriteLog writes one "<timestamp> <CATEGORY> -> <count>" line per entry.
func WriteLog(w io.Writer, entries []core.HistoryEntry) error {
	bw := bufio.NewWriter(w)
	for _, e := range entries {
		if _, err := fmt.Fprintf(bw, "%s %s -> %d\n",
			e.Timestamp.UTC().Format(time.RFC3339), e.Category, e.Count); err != nil {
			return fmt.Errorf("write log line: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush log: %w", err)
	}
	return nil
}

// WriteEvents writes one "<timestamp> <name>" line per audit event.
func WriteEvents(w io.Writer, events []core.Event) error {
	bw := bufio.NewWriter(w)
	for _, e := range events {
		if _, err := fmt.Fprintf(bw, "%s %s\n", e.Date.UTC().Format(time.RFC3339), e.Name); err != nil {
			return fmt.Errorf("write event line: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush events: %w", err)
	}
	return nil
}
