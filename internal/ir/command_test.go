package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandWireEncoding(t *testing.T) {
	tests := []struct {
		cmd  Command
		name string
		args []string
	}{
		{WipeLogins, "wipeEngine", []string{"passwords"}},
		{WipeHistory, "wipeEngine", []string{"history"}},
		{WipeBookmarks, "wipeEngine", []string{"bookmarks"}},
		{WipeAll, "wipeAll", []string{}},
		{ResetLogins, "resetEngine", []string{"passwords"}},
		{ResetHistory, "resetEngine", []string{"history"}},
		{ResetBookmarks, "resetEngine", []string{"bookmarks"}},
		{ResetAll, "resetAll", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.cmd.String(), func(t *testing.T) {
			cc := NewClientCommand(tt.cmd)
			assert.Equal(t, tt.name, cc.Name)
			assert.Equal(t, tt.args, cc.Args)
			assert.Empty(t, cc.FlowID)
		})
	}
}

func TestCommandRoundTrip(t *testing.T) {
	for _, cmd := range AllCommands {
		t.Run(cmd.String(), func(t *testing.T) {
			got, ok := NewClientCommand(cmd).AsCommand()
			require.True(t, ok)
			assert.Equal(t, cmd, got)

			got, ok = NewClientCommandWithFlowID(cmd, "flow-1").AsCommand()
			require.True(t, ok, "flow id must not affect classification")
			assert.Equal(t, cmd, got)
		})
	}
}

func TestAsCommandUnclassifiable(t *testing.T) {
	tests := []struct {
		name string
		cc   ClientCommand
	}{
		{"unknown name", ClientCommand{Name: "displayURI", Args: []string{"https://example.com"}}},
		{"repair", ClientCommand{Name: "repairRequest", Args: []string{}}},
		{"wipeEngine without args", ClientCommand{Name: "wipeEngine"}},
		{"wipeEngine unknown engine", ClientCommand{Name: "wipeEngine", Args: []string{"tabs"}}},
		{"resetEngine legacy logins name", ClientCommand{Name: "resetEngine", Args: []string{"logins"}}},
		{"case sensitive", ClientCommand{Name: "WipeAll"}},
		{"empty", ClientCommand{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := tt.cc.AsCommand()
			assert.False(t, ok)
		})
	}
}

func TestAsCommandAllIgnoresArgs(t *testing.T) {
	cmd, ok := ClientCommand{Name: "wipeAll", Args: []string{"extra"}}.AsCommand()
	require.True(t, ok)
	assert.Equal(t, WipeAll, cmd)
}

func TestClientCommandJSON(t *testing.T) {
	data, err := json.Marshal(ClientCommand{Name: "resetAll"})
	require.NoError(t, err)
	assert.Equal(t, `{"command":"resetAll","args":[]}`, string(data))

	data, err = json.Marshal(NewClientCommandWithFlowID(WipeHistory, "abc"))
	require.NoError(t, err)
	assert.Equal(t, `{"command":"wipeEngine","args":["history"],"flowID":"abc"}`, string(data))

	var cc ClientCommand
	require.NoError(t, json.Unmarshal([]byte(`{"command":"x","args":["a","b"],"flowID":"f"}`), &cc))
	assert.Equal(t, ClientCommand{Name: "x", Args: []string{"a", "b"}, FlowID: "f"}, cc)
}

func TestParseCommand(t *testing.T) {
	for _, cmd := range AllCommands {
		parsed, err := ParseCommand(cmd.String())
		require.NoError(t, err)
		assert.Equal(t, cmd, parsed)
	}

	_, err := ParseCommand("wipe-tabs")
	assert.Error(t, err)
}

func TestCommandEngine(t *testing.T) {
	assert.Equal(t, EnginePasswords, WipeLogins.Engine())
	assert.Equal(t, EngineHistory, ResetHistory.Engine())
	assert.Equal(t, EngineBookmarks, WipeBookmarks.Engine())
	assert.Equal(t, "", WipeAll.Engine())
	assert.True(t, WipeAll.IsWipe())
	assert.False(t, ResetAll.IsWipe())
}

func TestCommandSet(t *testing.T) {
	s := NewCommandSet(WipeAll, ResetHistory, WipeAll)
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []Command{WipeAll, ResetHistory}, s.Commands())
	assert.False(t, s.Add(ResetHistory))
	assert.True(t, s.Add(WipeLogins))

	other := NewCommandSet(ResetHistory)
	assert.Equal(t, []Command{WipeAll, WipeLogins}, s.Difference(other))
	assert.Equal(t, []Command{WipeAll, ResetHistory, WipeLogins}, s.Difference(nil))
	assert.Empty(t, other.Difference(s))
}
