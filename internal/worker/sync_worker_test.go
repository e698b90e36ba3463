package worker

import (
	"context"
	"errors"
	"testing"

	"recount/internal/amqp"
	"recount/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeState struct {
	state    storage.CounterState
	markErrs int
	stateErr error
}

func (f *fakeState) CounterState(context.Context) (storage.CounterState, error) {
	return f.state, f.stateErr
}

func (f *fakeState) MarkSynced(_ context.Context, version int64) error {
	if version > f.state.SyncedVersion {
		f.state.SyncedVersion = version
	}
	f.state.SyncStatus = storage.SyncStatusSynced
	return nil
}

func (f *fakeState) MarkSyncError(context.Context) error {
	f.markErrs++
	f.state.SyncStatus = storage.SyncStatusError
	return nil
}

type fakeRemote struct {
	writes []int64
	err    error
}

func (r *fakeRemote) WriteTotal(_ context.Context, total int64) error {
	if r.err != nil {
		return r.err
	}
	r.writes = append(r.writes, total)
	return nil
}

func TestHandleSyncMessageWritesCurrentTotal(t *testing.T) {
	st := &fakeState{state: storage.CounterState{Total: 12, Version: 3, SyncedVersion: 1}}
	remote := &fakeRemote{}
	w := NewSyncWorker(st, remote)

	// An older message still carries the latest total forward.
	require.NoError(t, w.HandleSyncMessage(context.Background(), &amqp.TotalSyncMessage{Version: 2, Total: 7}))

	assert.Equal(t, []int64{12}, remote.writes)
	assert.Equal(t, int64(3), st.state.SyncedVersion)
}

func TestHandleSyncMessageSkipsStaleVersion(t *testing.T) {
	st := &fakeState{state: storage.CounterState{Total: 12, Version: 3, SyncedVersion: 3}}
	remote := &fakeRemote{}
	w := NewSyncWorker(st, remote)

	require.NoError(t, w.HandleSyncMessage(context.Background(), &amqp.TotalSyncMessage{Version: 2}))
	require.NoError(t, w.HandleSyncMessage(context.Background(), &amqp.TotalSyncMessage{Version: 3}))
	assert.Empty(t, remote.writes)
}

func TestHandleSyncMessageRemoteFailure(t *testing.T) {
	st := &fakeState{state: storage.CounterState{Total: 5, Version: 2}}
	w := NewSyncWorker(st, &fakeRemote{err: errors.New("quota exceeded")})

	err := w.HandleSyncMessage(context.Background(), &amqp.TotalSyncMessage{Version: 2})
	require.Error(t, err)
	assert.Equal(t, 1, st.markErrs)
	assert.Equal(t, storage.SyncStatusError, st.state.SyncStatus)
	assert.True(t, st.state.NeedsSync())
}

func TestHandleSyncMessageStateFailure(t *testing.T) {
	w := NewSyncWorker(&fakeState{stateErr: errors.New("locked")}, &fakeRemote{})
	assert.Error(t, w.HandleSyncMessage(context.Background(), &amqp.TotalSyncMessage{Version: 1}))
}

func TestProcessPending(t *testing.T) {
	ctx := context.Background()
	st := &fakeState{state: storage.CounterState{Total: 40, Version: 5, SyncedVersion: 5}}
	remote := &fakeRemote{}
	w := NewSyncWorker(st, remote)

	require.NoError(t, w.ProcessPending(ctx))
	assert.Empty(t, remote.writes, "nothing pending")

	st.state.Version = 6
	st.state.Total = 41
	require.NoError(t, w.ProcessPending(ctx))
	require.NoError(t, w.StartupSyncCheck(ctx))
	assert.Equal(t, []int64{41}, remote.writes)
}

func TestStartupSyncCheckAgainstSQLite(t *testing.T) {
	ctx := context.Background()
	repo, err := storage.NewSQLiteRepository(t.TempDir() + "/recount.db")
	require.NoError(t, err)
	defer repo.Close()

	_, err = repo.WriteTotal(ctx, 9)
	require.NoError(t, err)

	remote := &fakeRemote{}
	w := NewSyncWorker(repo, remote)
	require.NoError(t, w.StartupSyncCheck(ctx))
	assert.Equal(t, []int64{9}, remote.writes)

	state, err := repo.CounterState(ctx)
	require.NoError(t, err)
	assert.False(t, state.NeedsSync())
}
