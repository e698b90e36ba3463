package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"recount/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	mu    sync.Mutex
	texts []string
	block chan struct{}
}

func (h *recordingHandler) HandleUtterance(_ context.Context, text string) Outcome {
	if h.block != nil {
		<-h.block
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.texts = append(h.texts, text)
	return Outcome{}
}

func (h *recordingHandler) seen() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.texts...)
}

func TestListenerConsumesInArrivalOrder(t *testing.T) {
	h := &recordingHandler{}
	l := NewListener(h, nil, nil)
	src := make(chan string, 3)
	src <- "count 1 can"
	src <- "lock out glass"
	src <- "4"
	close(src)

	require.NoError(t, l.Start(context.Background(), src))
	select {
	case <-l.Done():
	case <-time.After(time.Second):
		t.Fatal("listener did not finish after source closed")
	}

	assert.Equal(t, []string{"count 1 can", "lock out glass", "4"}, h.seen())
	assert.False(t, l.IsRunning())
}

func TestListenerStartTwice(t *testing.T) {
	l := NewListener(&recordingHandler{}, nil, nil)
	src := make(chan string)
	ctx := context.Background()

	require.NoError(t, l.Start(ctx, src))
	assert.True(t, l.IsRunning())
	assert.ErrorIs(t, l.Start(ctx, src), ErrListenerRunning)

	require.NoError(t, l.Stop(ctx))
	assert.False(t, l.IsRunning())
	assert.NoError(t, l.Stop(ctx), "stopping twice is harmless")

	require.NoError(t, l.Start(ctx, src), "restart after stop")
	require.NoError(t, l.Stop(ctx))
}

func TestListenerStopTimesOut(t *testing.T) {
	h := &recordingHandler{block: make(chan struct{})}
	l := NewListener(h, nil, nil)
	src := make(chan string, 1)
	src <- "count 1 can"

	require.NoError(t, l.Start(context.Background(), src))
	assert.Eventually(t, func() bool { return len(src) == 0 }, time.Second, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, l.Stop(ctx), context.DeadlineExceeded)

	close(h.block)
	<-l.Done()
}

func TestListenerDrivesSession(t *testing.T) {
	st := newFlakyStore(0)
	s := newSession(t, st)

	var mu sync.Mutex
	var outcomes []Outcome
	l := NewListener(s, nil, func(_ string, out Outcome) {
		mu.Lock()
		outcomes = append(outcomes, out)
		mu.Unlock()
	})

	src := make(chan string)
	require.NoError(t, l.Start(context.Background(), src))
	src <- "lock out cans"
	src <- "three"
	close(src)
	<-l.Done()
	s.Wait()

	assert.Equal(t, int64(3), s.Snapshot().Counts[core.Can])
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, outcomes, 2)
	assert.Equal(t, core.Increment(core.Can, 3), outcomes[1].Mutation)
}
