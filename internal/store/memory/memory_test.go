package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"recount/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreTotals(t *testing.T) {
	ctx := context.Background()
	s := New(-3)

	total, err := s.ReadTotal(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)

	require.NoError(t, s.WriteTotal(ctx, 42))
	assert.ErrorIs(t, s.WriteTotal(ctx, -1), ErrNegativeTotal)

	total, _ = s.ReadTotal(ctx)
	assert.Equal(t, int64(42), total)
	assert.Equal(t, 1, s.Writes())
}

func TestMemoryStoreEventsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := New(0)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, name := range []string{"a", "b", "c"} {
		require.NoError(t, s.RecordEvent(ctx, core.Event{Name: name, Date: base.Add(time.Duration(i) * time.Minute)}))
	}
	assert.Error(t, s.RecordEvent(ctx, core.Event{Name: "", Date: base}))

	events, err := s.ListEvents(ctx, 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "c", events[0].Name)
	assert.Equal(t, "b", events[1].Name)

	all, _ := s.ListEvents(ctx, 0)
	assert.Len(t, all, 3)
}

func TestNewFromFilesSeedsTotal(t *testing.T) {
	dir := t.TempDir()
	s := NewFromFiles(dir)
	total, _ := s.ReadTotal(context.Background())
	assert.Equal(t, int64(0), total, "missing seed file starts at zero")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "seed_total.txt"), []byte("# running total\n\n1234\n"), 0o644))
	s = NewFromFiles(dir)
	total, _ = s.ReadTotal(context.Background())
	assert.Equal(t, int64(1234), total)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "seed_total.txt"), []byte("lots\n"), 0o644))
	total, _ = NewFromFiles(dir).ReadTotal(context.Background())
	assert.Equal(t, int64(0), total)
}

func TestNewFromFilesSeedsAliases(t *testing.T) {
	dir := t.TempDir()
	seed := "# user keywords\nBeer Bottle = glass\nno separator\ncrate = PALLET\nshoe box = CARTON\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "aliases.txt"), []byte(seed), 0o644))

	aliases, err := NewFromFiles(dir).ListAliases(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []core.AliasEntry{
		{Phrase: "beer bottle", Category: core.Glass},
		{Phrase: "shoe box", Category: core.Carton},
	}, aliases)
}

func TestMemoryAliasStore(t *testing.T) {
	ctx := context.Background()
	s := New(0)

	require.NoError(t, s.SaveAlias(ctx, core.AliasEntry{Phrase: "Crate", Category: core.Carton}))
	assert.ErrorIs(t, s.SaveAlias(ctx, core.AliasEntry{Phrase: "  "}), core.ErrEmptyPhrase)
	assert.ErrorIs(t, s.SaveAlias(ctx, core.AliasEntry{Phrase: "x", Category: core.Category(99)}), core.ErrUnknownCategory)

	aliases, _ := s.ListAliases(ctx)
	assert.Equal(t, []core.AliasEntry{{Phrase: "crate", Category: core.Carton}}, aliases)

	require.NoError(t, s.DeleteAlias(ctx, "CRATE"))
	aliases, _ = s.ListAliases(ctx)
	assert.Empty(t, aliases)
}
