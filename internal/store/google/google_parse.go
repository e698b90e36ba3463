package google

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"recount/internal/core"
)

// parseTotal reads the total from a counter row shaped as [label, total].
// An empty sheet is a zero total.
func parseTotal(values [][]interface{}) (int64, error) {
	if len(values) == 0 {
		return 0, nil
	}
	row := toStrings(values[0])
	raw := safeGet(row, 1)
	if raw == "" {
		return 0, nil
	}
	raw = strings.ReplaceAll(raw, ",", "")
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("negative total %d", n)
		}
		return n, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f < 0 {
		return 0, fmt.Errorf("unexpected total cell %q", raw)
	}
	return int64(f), nil
}

// parseEvents converts (name, date) rows into events in sheet order. A
// header row and rows without a parseable date are skipped.
func parseEvents(values [][]interface{}) []core.Event {
	var out []core.Event
	for _, v := range values {
		row := toStrings(v)
		name := safeGet(row, 0)
		if name == "" {
			continue
		}
		date, err := time.Parse(time.RFC3339, safeGet(row, 1))
		if err != nil {
			continue
		}
		out = append(out, core.Event{Name: name, Date: date})
	}
	return out
}

func newestFirst(events []core.Event, limit int) []core.Event {
	n := len(events)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]core.Event, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, events[i])
	}
	return out
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func safeGet(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}
