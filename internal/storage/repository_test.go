package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"recount/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "recount.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestNewRepositoryStartsAtZero(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	total, err := repo.ReadTotal(ctx)
	require.NoError(t, err)
	assert.Zero(t, total)

	state, err := repo.CounterState(ctx)
	require.NoError(t, err)
	assert.False(t, state.NeedsSync())
	assert.Equal(t, SyncStatusSynced, state.SyncStatus)
}

func TestWriteTotalBumpsVersion(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	v1, err := repo.WriteTotal(ctx, 5)
	require.NoError(t, err)
	v2, err := repo.WriteTotal(ctx, 8)
	require.NoError(t, err)
	assert.Equal(t, v1+1, v2)

	total, err := repo.ReadTotal(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(8), total)

	state, err := repo.CounterState(ctx)
	require.NoError(t, err)
	assert.Equal(t, v2, state.Version)
	assert.True(t, state.NeedsSync())
	assert.Equal(t, SyncStatusPending, state.SyncStatus)
	assert.False(t, state.UpdatedAt.IsZero())

	_, err = repo.WriteTotal(ctx, -1)
	assert.Error(t, err)
}

func TestMarkSyncedNeverMovesBackwards(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.WriteTotal(ctx, 1)
	require.NoError(t, err)
	v2, err := repo.WriteTotal(ctx, 2)
	require.NoError(t, err)

	require.NoError(t, repo.MarkSynced(ctx, v2))
	require.NoError(t, repo.MarkSynced(ctx, v2-1))

	state, err := repo.CounterState(ctx)
	require.NoError(t, err)
	assert.Equal(t, v2, state.SyncedVersion)
	assert.False(t, state.NeedsSync())
	assert.Equal(t, SyncStatusSynced, state.SyncStatus)

	v3, err := repo.WriteTotal(ctx, 3)
	require.NoError(t, err)
	require.NoError(t, repo.MarkSyncError(ctx))
	state, err = repo.CounterState(ctx)
	require.NoError(t, err)
	assert.Equal(t, SyncStatusError, state.SyncStatus)
	assert.Equal(t, v3, state.Version)
	assert.True(t, state.NeedsSync())
}

func TestEventsNewestFirst(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, repo.RecordEvent(ctx, core.Event{Name: "Session started", Date: base}))
	require.NoError(t, repo.RecordEvent(ctx, core.Event{Name: "Added keyword: crate", Date: base.Add(500 * time.Millisecond)}))
	require.NoError(t, repo.RecordEvent(ctx, core.Event{Name: "Session ended", Date: base.Add(time.Hour)}))

	err := repo.RecordEvent(ctx, core.Event{Name: " ", Date: base})
	assert.ErrorIs(t, err, core.ErrEmptyEventName)

	all, err := repo.ListEvents(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Session ended", all[0].Name)
	assert.Equal(t, "Added keyword: crate", all[1].Name)
	assert.True(t, all[1].Date.Equal(base.Add(500*time.Millisecond)))

	two, err := repo.ListEvents(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, two, 2)
}

func TestAliasPersistence(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveAlias(ctx, core.AliasEntry{Phrase: "  Beer   Bottle ", Category: core.Glass}))
	require.NoError(t, repo.SaveAlias(ctx, core.AliasEntry{Phrase: "crate", Category: core.Carton}))
	assert.ErrorIs(t, repo.SaveAlias(ctx, core.AliasEntry{Phrase: "", Category: core.PET}), core.ErrEmptyPhrase)

	aliases, err := repo.ListAliases(ctx)
	require.NoError(t, err)
	assert.Equal(t, []core.AliasEntry{
		{Phrase: "beer bottle", Category: core.Glass},
		{Phrase: "crate", Category: core.Carton},
	}, aliases)

	require.NoError(t, repo.DeleteAlias(ctx, "Beer Bottle"))
	require.NoError(t, repo.DeleteAlias(ctx, "never added"))
	aliases, err = repo.ListAliases(ctx)
	require.NoError(t, err)
	assert.Len(t, aliases, 1)
}

func TestReopenKeepsState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recount.db")
	ctx := context.Background()

	repo, err := NewSQLiteRepository(path)
	require.NoError(t, err)
	_, err = repo.WriteTotal(ctx, 42)
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	repo, err = NewSQLiteRepository(path)
	require.NoError(t, err)
	defer repo.Close()
	total, err := repo.ReadTotal(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(42), total)
}
