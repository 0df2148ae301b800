package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/clientsync/internal/ir"
)

func numbered(n int) []ir.ClientCommand {
	out := make([]ir.ClientCommand, n)
	for i := range out {
		out[i] = ir.ClientCommand{Name: "displayURI", Args: []string{fmt.Sprintf("https://example.com/%03d", i)}}
	}
	return out
}

func arraySize(t *testing.T, cmds []ir.ClientCommand) int {
	t.Helper()
	if cmds == nil {
		cmds = []ir.ClientCommand{}
	}
	data, err := ir.MarshalWire(cmds)
	require.NoError(t, err)
	return len(data)
}

func TestShrinkToFit_NoChangeWhenItFits(t *testing.T) {
	cmds := numbered(5)
	out, err := ShrinkToFit(cmds, arraySize(t, cmds))
	require.NoError(t, err)
	assert.Equal(t, cmds, out)
}

func TestShrinkToFit_Empty(t *testing.T) {
	out, err := ShrinkToFit(nil, 0)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestShrinkToFit_DropsOldestFirst(t *testing.T) {
	cmds := numbered(10)
	limit := arraySize(t, cmds[6:])

	out, err := ShrinkToFit(cmds, limit)
	require.NoError(t, err)
	assert.Equal(t, cmds[6:], out)
	assert.LessOrEqual(t, arraySize(t, out), limit)
}

func TestShrinkToFit_ExactBoundary(t *testing.T) {
	cmds := numbered(10)

	for n := 0; n <= len(cmds); n++ {
		limit := arraySize(t, cmds[len(cmds)-n:])
		out, err := ShrinkToFit(cmds, limit)
		require.NoError(t, err)
		assert.Len(t, out, n, "limit %d", limit)

		// One byte less always loses another entry.
		if n > 0 {
			out, err = ShrinkToFit(cmds, limit-1)
			require.NoError(t, err)
			assert.Len(t, out, n-1)
		}
	}
}

func TestShrinkToFit_NothingFits(t *testing.T) {
	out, err := ShrinkToFit(numbered(3), 1)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestShrinkToFit_DoesNotModifyInput(t *testing.T) {
	cmds := numbered(4)
	before := append([]ir.ClientCommand(nil), cmds...)

	_, err := ShrinkToFit(cmds, arraySize(t, cmds[2:]))
	require.NoError(t, err)
	assert.Equal(t, before, cmds)
}

func TestShrinkRecordToFit(t *testing.T) {
	c := ir.Client{ID: "peer", Name: "Other", Commands: numbered(20)}
	full, err := SerializedSize(c)
	require.NoError(t, err)

	limit := full / 2
	dropped, err := shrinkRecordToFit(&c, limit)
	require.NoError(t, err)

	size, err := SerializedSize(c)
	require.NoError(t, err)
	assert.LessOrEqual(t, size, limit)
	assert.Equal(t, 20-len(c.Commands), dropped)
	assert.Equal(t, numbered(20)[dropped:], c.Commands)

	// The bound is tight: one more command would not fit.
	c.Commands = numbered(20)[dropped-1:]
	size, err = SerializedSize(c)
	require.NoError(t, err)
	assert.Greater(t, size, limit)
}

func TestShrinkRecordToFit_TinyLimit(t *testing.T) {
	c := ir.Client{ID: "peer", Name: "Other", Commands: numbered(2)}

	dropped, err := shrinkRecordToFit(&c, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, dropped)
	assert.Nil(t, c.Commands)
}

func TestShrinkRecordToFit_NoCommands(t *testing.T) {
	c := ir.Client{ID: "peer", Name: "Other"}

	dropped, err := shrinkRecordToFit(&c, 10)
	require.NoError(t, err)
	assert.Zero(t, dropped)
}

func TestSerializedSize_CountsLiteralBytes(t *testing.T) {
	cc := ir.ClientCommand{Name: "displayURI", Args: []string{"https://x.example/?a=1&b=2", "<peer>"}}

	size, err := SerializedSize(cc)
	require.NoError(t, err)
	assert.Equal(t, len(`{"command":"displayURI","args":["https://x.example/?a=1&b=2","<peer>"]}`), size)

	out, err := ShrinkToFit([]ir.ClientCommand{cc}, size+len("[]"))
	require.NoError(t, err)
	assert.Equal(t, []ir.ClientCommand{cc}, out)
}
