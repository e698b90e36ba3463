package google

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTotal(t *testing.T) {
	cases := []struct {
		name    string
		values  [][]interface{}
		want    int64
		wantErr bool
	}{
		{"empty sheet", nil, 0, false},
		{"label only", [][]interface{}{{"Total"}}, 0, false},
		{"integer string", [][]interface{}{{"Total", "1234"}}, 1234, false},
		{"formatted thousands", [][]interface{}{{"Total", "12,345"}}, 12345, false},
		{"unformatted float", [][]interface{}{{"Total", 42.0}}, 42, false},
		{"negative", [][]interface{}{{"Total", "-3"}}, 0, true},
		{"garbage", [][]interface{}{{"Total", "lots"}}, 0, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseTotal(tc.values)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseEventsSkipsHeaderAndBadRows(t *testing.T) {
	values := [][]interface{}{
		{"Name", "Date"},
		{"Session started", "2026-05-01T10:00:00Z"},
		{"", "2026-05-01T10:01:00Z"},
		{"Added keyword: crate", "yesterday"},
		{"Session ended", "2026-05-01T11:00:00Z"},
	}
	events := parseEvents(values)
	require.Len(t, events, 2)
	assert.Equal(t, "Session started", events[0].Name)
	assert.Equal(t, time.Date(2026, 5, 1, 11, 0, 0, 0, time.UTC), events[1].Date)

	newest := newestFirst(events, 1)
	require.Len(t, newest, 1)
	assert.Equal(t, "Session ended", newest[0].Name)
	assert.Len(t, newestFirst(events, 10), 2)
}
