package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thiagokokada/gitk-review/internal/diff"
)

func mustParse(t *testing.T, raw string) *diff.Snapshot {
	t.Helper()
	snap, err := diff.Parse(raw, "f.txt", diff.Unstaged, "tok")
	require.NoError(t, err)
	return snap
}

const twoChunks = "@@ -1,2 +1,3 @@\n context\n-old\n+new1\n+new2\n" +
	"@@ -10,2 +11,2 @@\n keep\n-x\n+y\n"

func TestToggleLine(t *testing.T) {
	t.Parallel()

	sel := New(mustParse(t, twoChunks))
	assert.Equal(t, "tok", sel.Token())
	assert.True(t, sel.Empty())

	sel.ToggleLine(0, 2)
	assert.True(t, sel.IsSelected(0, 2))
	assert.False(t, sel.IsSelected(0, 1), "pairing is off by default")
	assert.Equal(t, 1, sel.Count())

	sel.ToggleLine(0, 2)
	assert.False(t, sel.IsSelected(0, 2))
	assert.True(t, sel.Empty())
}

func TestPairedLines(t *testing.T) {
	t.Parallel()

	sel := New(mustParse(t, twoChunks), WithPairing(true))

	sel.ToggleLine(0, 2) // +new1
	assert.True(t, sel.IsSelected(0, 1), "-old follows +new1")
	assert.False(t, sel.IsSelected(0, 3), "+new2 has no partner")
	assert.Equal(t, 2, sel.Count())

	sel.ToggleLine(0, 1) // -old
	assert.False(t, sel.IsSelected(0, 2))
	assert.True(t, sel.Empty())

	sel.ToggleLine(0, 3)
	assert.Equal(t, []Key{{Chunk: 0, Line: 3}}, sel.Keys())
}

func TestToggleChunk(t *testing.T) {
	t.Parallel()

	sel := New(mustParse(t, twoChunks))

	sel.ToggleChunk(1)
	for i := range 3 {
		assert.True(t, sel.IsSelected(1, i), "line %d", i)
	}
	assert.Equal(t, 2, sel.Count(), "context lines are not counted")

	sel.ToggleChunk(1)
	assert.Empty(t, sel.Keys(), "second toggle restores the original state")
}

func TestToggleChunkCompletesPartialSelection(t *testing.T) {
	t.Parallel()

	sel := New(mustParse(t, twoChunks))
	sel.ToggleLine(0, 1)

	sel.ToggleChunk(0)
	assert.Equal(t, 3, sel.Count())

	sel.ToggleChunk(0)
	assert.True(t, sel.Empty())
}

func TestToggleChunkWithSelectedContextOnly(t *testing.T) {
	t.Parallel()

	sel := New(mustParse(t, twoChunks))
	sel.ToggleLine(0, 0)
	require.True(t, sel.IsSelected(0, 0))

	sel.ToggleChunk(0)
	assert.Equal(t, 3, sel.Count())
	assert.True(t, sel.IsSelected(0, 0))
}

func TestSelectAllAndClear(t *testing.T) {
	t.Parallel()

	snap := mustParse(t, twoChunks)
	sel := New(snap)

	sel.SelectAll()
	assert.Len(t, sel.Keys(), snap.LineCount())
	assert.Equal(t, 5, sel.Count())

	sel.Clear()
	assert.True(t, sel.Empty())
	assert.Empty(t, sel.Keys())
}

func TestOutOfRangeIsIgnored(t *testing.T) {
	t.Parallel()

	sel := New(mustParse(t, twoChunks))
	sel.ToggleLine(5, 0)
	sel.ToggleLine(0, 99)
	sel.ToggleLine(-1, -1)
	sel.ToggleChunk(7)
	sel.ToggleChunk(-1)

	assert.True(t, sel.Empty())
	assert.False(t, sel.IsSelected(5, 0))
}

func TestNilSnapshot(t *testing.T) {
	t.Parallel()

	sel := New(nil, WithPairing(true))
	sel.SelectAll()
	sel.ToggleChunk(0)
	sel.ToggleLine(0, 0)

	assert.Equal(t, "", sel.Token())
	assert.True(t, sel.Empty())
	assert.Nil(t, sel.Snapshot())
}

func TestKeysAreSorted(t *testing.T) {
	t.Parallel()

	sel := New(mustParse(t, twoChunks))
	sel.ToggleLine(1, 2)
	sel.ToggleLine(0, 3)
	sel.ToggleLine(0, 1)

	assert.Equal(t, []Key{{0, 1}, {0, 3}, {1, 2}}, sel.Keys())
}
