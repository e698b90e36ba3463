// Package export renders the history log as downloadable snapshots.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"recount/internal/core"
)

// CSVHeader is the first row of every CSV export.
var CSVHeader = []string{"timestamp", "category", "count"}

// WriteCSV writes entries in order under CSVHeader. Timestamps are RFC 3339
// in UTC.
func WriteCSV(w io.Writer, entries []core.HistoryEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, e := range entries {
		row := []string{
			e.Timestamp.UTC().Format(time.RFC3339),
			e.Category.String(),
			strconv.FormatInt(e.Count, 10),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// FileName builds a timestamped download name such as
// recount-history-20260102-150405.csv.
func FileName(prefix, ext string, now time.Time) string {
	return fmt.Sprintf("%s-%s.%s", prefix, now.UTC().Format("20060102-150405"), ext)
}
