package cli

import (
	"bytes"
	"strings"
	"testing"

	"recount/internal/core"
	"recount/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestFormatView(t *testing.T) {
	v := session.View{
		Counts:          map[core.Category]int64{core.PET: 3, core.Glass: 4, core.Can: 1},
		SessionTotal:    ptr(int64(8)),
		PersistentTotal: ptr(int64(120)),
	}
	assert.Equal(t, "PET 3 | HDPE 0 | GLASS 4 | CARTON 0 | CAN 1 | session 8 | total 120", FormatView(v))

	v.Lockout = ptr(core.Glass)
	assert.True(t, strings.HasSuffix(FormatView(v), "[locked to GLASS]"))

	locked := session.View{ScreenLocked: true, Lockout: ptr(core.PET)}
	assert.Equal(t, "screen locked [locked to PET]", FormatView(locked))
}

func TestFormatOutcome(t *testing.T) {
	none := FormatOutcome("hello", session.Outcome{Mutation: core.NoMutation()})
	assert.Contains(t, none, `"hello": not understood`)

	ignored := FormatOutcome("count 2 cans", session.Outcome{Mutation: core.NoMutation(), Inactive: true})
	assert.Contains(t, ignored, "no active session")

	noop := FormatOutcome("unlock pet", session.Outcome{Mutation: core.ClearLockout(core.PET)})
	assert.Contains(t, noop, "no change")

	changed := FormatOutcome("count 2 cans", session.Outcome{
		Mutation: core.Increment(core.Can, 2),
		Changed:  true,
		View:     session.View{ScreenLocked: true},
	})
	assert.Contains(t, changed, "increment(CAN, 2)")
	assert.Contains(t, changed, "screen locked")
}

func TestWriteAliases(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteAliases(&buf, []core.AliasEntry{
		{Phrase: "milk jugs", Category: core.HDPE},
		{Phrase: "soda can", Category: core.Can},
	}))
	out := buf.String()
	assert.Contains(t, out, "CATEGORY")
	assert.Contains(t, out, "milk jugs")
	assert.Contains(t, out, "CAN")
}
