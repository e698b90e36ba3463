package log

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel(" error "))
	assert.Equal(t, slog.LevelInfo, ParseLevel("chatty"))
}

func TestLoggerTagsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelDebug, Component: ComponentSession, Output: &buf})

	logger.Info("applied", FieldCategory, "PET")
	assert.Contains(t, buf.String(), "component=session")
	assert.Contains(t, buf.String(), "category=PET")

	buf.Reset()
	logger.WithComponent(ComponentWorker).Warn("stale")
	assert.Contains(t, buf.String(), "component=worker")
	assert.NotContains(t, buf.String(), "component=session")
}

func TestFieldsBuilder(t *testing.T) {
	f := NewFields().WithMutation("increment", "PET", 3).WithTotals(3, 10).WithError(nil)
	assert.Equal(t, "increment", f[FieldMutation])
	assert.Equal(t, int64(3), f[FieldAmount])
	assert.Equal(t, int64(10), f[FieldTotal])
	_, hasErr := f[FieldError]
	assert.False(t, hasErr)
	assert.Len(t, f.ToSlice(), len(f)*2)

	f = NewFields().WithMutation("clear_lockout", "", 0)
	_, hasAmount := f[FieldAmount]
	assert.False(t, hasAmount)
}

func TestMiddlewareInjectsLogger(t *testing.T) {
	logger := Discard().WithComponent(ComponentHTTP)
	var seen *Logger
	h := Middleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if assert.NotNil(t, seen) {
		assert.Equal(t, ComponentHTTP, seen.Component())
	}

	assert.Equal(t, ComponentApp, FromContext(context.Background()).Component())
}
