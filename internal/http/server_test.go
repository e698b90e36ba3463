package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"recount/internal/command"
	"recount/internal/core"
	"recount/internal/session"
	"recount/internal/store/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var exportTime = time.Date(2026, 5, 4, 18, 30, 0, 0, time.UTC)

func newTestServer(t *testing.T) (*Server, *memory.Store, *session.Session) {
	t.Helper()
	st := memory.New(10)
	clock := exportTime
	sess := session.New(command.New(nil), st,
		session.WithClock(func() time.Time { clock = clock.Add(time.Second); return clock }),
		session.WithEventWriter(st),
		session.WithAliasStore(st),
	)
	require.NoError(t, sess.Start(context.Background()))
	sess.Wait()
	t.Cleanup(sess.Wait)

	srv := NewServer(":0", sess, st, nil)
	srv.now = func() time.Time { return exportTime }
	return srv, st, sess
}

func do(t *testing.T, srv *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthAndReady(t *testing.T) {
	srv, _, sess := newTestServer(t)

	rec := do(t, srv, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/readyz", "").Code)
	sess.End(context.Background())
	assert.Equal(t, http.StatusServiceUnavailable, do(t, srv, http.MethodGet, "/readyz", "").Code)
}

func TestUnknownRouteIs404(t *testing.T) {
	srv, _, _ := newTestServer(t)
	rec := do(t, srv, http.MethodGet, "/expenses", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not found", decode[errorResponse](t, rec).Error)
}

func TestUtteranceCountsAndWritesThrough(t *testing.T) {
	srv, st, sess := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/utterances", `{"text":"count 3 PET"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	out := decode[outcomeResponse](t, rec)
	assert.Equal(t, core.MutationIncrement, out.Mutation)
	require.NotNil(t, out.Category)
	assert.Equal(t, core.PET, *out.Category)
	assert.Equal(t, int64(3), out.Amount)
	assert.True(t, out.Changed)
	require.NotNil(t, out.Entry)
	assert.Equal(t, int64(3), out.Entry.Count)
	require.NotNil(t, out.View.PersistentTotal)
	assert.Equal(t, int64(13), *out.View.PersistentTotal)

	sess.Wait()
	total, err := st.ReadTotal(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(13), total)
}

func TestUtteranceUnrecognizedIsNotAnError(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/utterances", `{"text":"hello there"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode[outcomeResponse](t, rec)
	assert.Equal(t, core.MutationNone, out.Mutation)
	assert.False(t, out.Changed)
}

func TestUtteranceValidation(t *testing.T) {
	srv, _, _ := newTestServer(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"blank text", `{"text":"   "}`, http.StatusUnprocessableEntity},
		{"malformed json", `{"text":`, http.StatusBadRequest},
		{"unknown field", `{"txt":"count 1 pet"}`, http.StatusBadRequest},
		{"trailing object", `{"text":"a"}{"text":"b"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, do(t, srv, http.MethodPost, "/utterances", tt.body).Code)
		})
	}
}

func TestControls(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/controls", `{"action":"lockout","category":"glass"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode[outcomeResponse](t, rec)
	assert.Equal(t, core.MutationSetLockout, out.Mutation)
	require.NotNil(t, out.View.Lockout)
	assert.Equal(t, core.Glass, *out.View.Lockout)

	rec = do(t, srv, http.MethodPost, "/utterances", `{"text":"4"}`)
	out = decode[outcomeResponse](t, rec)
	assert.Equal(t, int64(4), out.View.Counts[core.Glass])

	rec = do(t, srv, http.MethodPost, "/controls", `{"action":"unlock","category":"PET"}`)
	out = decode[outcomeResponse](t, rec)
	assert.Equal(t, core.MutationNone, out.Mutation, "mismatched unlock is a no-op")

	rec = do(t, srv, http.MethodPost, "/controls", `{"action":"increment","category":"can","amount":101}`)
	out = decode[outcomeResponse](t, rec)
	assert.False(t, out.Changed, "amount out of range is ignored")

	rec = do(t, srv, http.MethodPost, "/controls", `{"action":"reset","category":"GLASS"}`)
	out = decode[outcomeResponse](t, rec)
	assert.Equal(t, core.MutationReset, out.Mutation)
	assert.Equal(t, int64(0), out.View.Counts[core.Glass])
	assert.Equal(t, int64(14), *out.View.PersistentTotal, "reset leaves totals")
}

func TestControlValidation(t *testing.T) {
	srv, _, _ := newTestServer(t)

	for _, body := range []string{
		`{"action":"explode"}`,
		`{"action":"increment","amount":2}`,
		`{"action":"reset","category":"paper"}`,
	} {
		assert.Equal(t, http.StatusUnprocessableEntity, do(t, srv, http.MethodPost, "/controls", body).Code, body)
	}
}

func TestScreenLockHidesTally(t *testing.T) {
	srv, _, _ := newTestServer(t)
	do(t, srv, http.MethodPost, "/utterances", `{"text":"count 2 cans"}`)
	do(t, srv, http.MethodPost, "/controls", `{"action":"lock_screen"}`)

	view := decode[session.View](t, do(t, srv, http.MethodGet, "/tally", ""))
	assert.True(t, view.ScreenLocked)
	assert.Nil(t, view.Counts)
	assert.Nil(t, view.SessionTotal)

	snap := decode[session.Snapshot](t, do(t, srv, http.MethodGet, "/snapshot", ""))
	assert.Equal(t, int64(2), snap.SessionTotal)

	do(t, srv, http.MethodPost, "/utterances", `{"text":"unlock screen"}`)
	view = decode[session.View](t, do(t, srv, http.MethodGet, "/tally", ""))
	require.NotNil(t, view.SessionTotal)
	assert.Equal(t, int64(2), *view.SessionTotal)
}

func TestHistoryFilterAndClear(t *testing.T) {
	srv, _, _ := newTestServer(t)
	do(t, srv, http.MethodPost, "/utterances", `{"text":"count 2 cans"}`)
	do(t, srv, http.MethodPost, "/utterances", `{"text":"count 1 pet"}`)
	do(t, srv, http.MethodPost, "/utterances", `{"text":"count 5 cans"}`)

	all := decode[historyResponse](t, do(t, srv, http.MethodGet, "/history", ""))
	assert.Len(t, all.Entries, 3)

	cans := decode[historyResponse](t, do(t, srv, http.MethodGet, "/history?category=can", ""))
	require.Len(t, cans.Entries, 2)
	assert.Equal(t, int64(7), cans.Entries[1].Count)

	assert.Equal(t, http.StatusUnprocessableEntity, do(t, srv, http.MethodGet, "/history?category=paper", "").Code)

	assert.Equal(t, http.StatusNoContent, do(t, srv, http.MethodDelete, "/history", "").Code)
	empty := decode[historyResponse](t, do(t, srv, http.MethodGet, "/history", ""))
	assert.NotNil(t, empty.Entries)
	assert.Empty(t, empty.Entries)

	view := decode[session.View](t, do(t, srv, http.MethodGet, "/tally", ""))
	assert.Equal(t, int64(7), view.Counts[core.Can], "clearing history keeps counts")
}

func TestExports(t *testing.T) {
	srv, _, _ := newTestServer(t)
	do(t, srv, http.MethodPost, "/utterances", `{"text":"count 2 cans"}`)

	rec := do(t, srv, http.MethodGet, "/export/history.csv", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="recount-history-20260504-183000.csv"`, rec.Header().Get("Content-Disposition"))
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "timestamp,category,count", lines[0])
	assert.True(t, strings.HasSuffix(lines[1], ",CAN,2"), lines[1])

	rec = do(t, srv, http.MethodGet, "/export/history.log", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "CAN -> 2")

	rec = do(t, srv, http.MethodGet, "/export/events.log", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), session.EventSessionStarted)
}

func TestAliasesLifecycle(t *testing.T) {
	srv, st, sess := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/aliases", `{"phrase":"  Soda Can ","category":"can"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[core.AliasEntry](t, rec)
	assert.Equal(t, "soda can", created.Phrase)

	out := decode[outcomeResponse](t, do(t, srv, http.MethodPost, "/utterances", `{"text":"count 2 soda can"}`))
	assert.Equal(t, core.MutationIncrement, out.Mutation)

	list := decode[aliasesResponse](t, do(t, srv, http.MethodGet, "/aliases", ""))
	assert.Contains(t, list.Aliases, core.AliasEntry{Phrase: "soda can", Category: core.Can})

	assert.Equal(t, http.StatusConflict, do(t, srv, http.MethodPost, "/aliases", `{"phrase":"soda can","category":"pet"}`).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, do(t, srv, http.MethodPost, "/aliases", `{"phrase":"x","category":"paper"}`).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, do(t, srv, http.MethodPost, "/aliases", `{"phrase":"  ","category":"pet"}`).Code)

	assert.Equal(t, http.StatusNoContent, do(t, srv, http.MethodDelete, "/aliases?phrase=soda+can", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodDelete, "/aliases?phrase=soda+can", "").Code)
	assert.Equal(t, http.StatusUnprocessableEntity, do(t, srv, http.MethodDelete, "/aliases?phrase=glass", "").Code)

	sess.Wait()
	stored, err := st.ListAliases(context.Background())
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestListEvents(t *testing.T) {
	srv, _, sess := newTestServer(t)
	do(t, srv, http.MethodPost, "/aliases", `{"phrase":"soda can","category":"can"}`)
	sess.Wait()

	rec := do(t, srv, http.MethodGet, "/events?limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	events := decode[eventsResponse](t, rec)
	require.Len(t, events.Events, 1)
	assert.Equal(t, "Added keyword: soda can", events.Events[0].Name)

	assert.Equal(t, http.StatusUnprocessableEntity, do(t, srv, http.MethodGet, "/events?limit=0", "").Code)
	assert.Equal(t, http.StatusUnprocessableEntity, do(t, srv, http.MethodGet, "/events?limit=abc", "").Code)
}

type failingEvents struct{}

func (failingEvents) ListEvents(context.Context, int) ([]core.Event, error) {
	return nil, errors.New("sheets quota exceeded")
}

func TestListEventsBackendFailure(t *testing.T) {
	srv, _, _ := newTestServer(t)
	srv.events = failingEvents{}

	assert.Equal(t, http.StatusBadGateway, do(t, srv, http.MethodGet, "/events", "").Code)
	assert.Equal(t, http.StatusInternalServerError, do(t, srv, http.MethodGet, "/export/events.log", "").Code)
}

func TestEndSession(t *testing.T) {
	srv, st, _ := newTestServer(t)
	do(t, srv, http.MethodPost, "/controls", `{"action":"lockout","category":"pet"}`)

	rec := do(t, srv, http.MethodPost, "/session/end", "")
	require.Equal(t, http.StatusOK, rec.Code)
	snap := decode[session.Snapshot](t, rec)
	assert.False(t, snap.Active)
	assert.Nil(t, snap.Lockout)

	events, err := st.ListEvents(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, session.EventSessionEnded, events[0].Name)
}

func TestInputAfterSessionEndIsRejected(t *testing.T) {
	srv, st, _ := newTestServer(t)
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodPost, "/session/end", "").Code)

	rec := do(t, srv, http.MethodPost, "/utterances", `{"text":"count 5 pet"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "no active session")

	rec = do(t, srv, http.MethodPost, "/controls", `{"action":"lockout","category":"glass"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	snap := decode[session.Snapshot](t, do(t, srv, http.MethodGet, "/snapshot", ""))
	assert.Zero(t, snap.Counts[core.PET])
	assert.Nil(t, snap.Lockout)
	total, err := st.ReadTotal(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(10), total)
}

func TestMetricsCountsRequests(t *testing.T) {
	srv, _, _ := newTestServer(t)
	do(t, srv, http.MethodGet, "/healthz", "")
	do(t, srv, http.MethodGet, "/tally", "")

	rec := do(t, srv, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var m struct {
		TotalRequests int64 `json:"total_requests"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	assert.Equal(t, int64(2), m.TotalRequests)
}
