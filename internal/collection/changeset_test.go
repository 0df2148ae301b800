package collection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRecord struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

func TestPayloadRoundTrip(t *testing.T) {
	p, err := FromRecord("a", sampleRecord{ID: "a", Name: "n"})
	require.NoError(t, err)
	assert.Equal(t, "a", p.ID)
	assert.JSONEq(t, `{"id":"a","name":"n"}`, string(p.Data))

	var out sampleRecord
	require.NoError(t, p.IntoRecord(&out))
	assert.Equal(t, sampleRecord{ID: "a", Name: "n"}, out)
}

func TestPayloadIntoRecordMalformed(t *testing.T) {
	p := Payload{ID: "bad", Data: []byte(`{"id":`)}
	var out sampleRecord
	err := p.IntoRecord(&out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"bad"`)
}

func TestFromRecordKeepsHTMLCharacters(t *testing.T) {
	p, err := FromRecord("a", sampleRecord{ID: "a", Name: "Tom & Jerry <Tab>"})
	require.NoError(t, err)
	assert.Equal(t, `{"id":"a","name":"Tom & Jerry <Tab>"}`, string(p.Data))
}

func TestPayloadIntoRecordInvalidUTF8(t *testing.T) {
	p := Payload{ID: "bad", Data: []byte("{\"id\":\"bad\",\"name\":\"\xff\"}")}
	var out sampleRecord
	err := p.IntoRecord(&out)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidUTF8)
	assert.Contains(t, err.Error(), `"bad"`)
}

func TestRequestFull(t *testing.T) {
	req := NewRequest("clients")
	assert.False(t, req.IsFull)
	full := req.Full()
	assert.True(t, full.IsFull)
	assert.False(t, req.IsFull, "Full must not modify the receiver")
}

func TestOutgoingChangesetIDs(t *testing.T) {
	out := NewOutgoingChangeset("clients", 7)
	out.Changes = append(out.Changes, Payload{ID: "b"}, Payload{ID: "a"})
	assert.Equal(t, []string{"b", "a"}, out.IDs())
	assert.Equal(t, ServerTimestamp(7), out.Timestamp)
}

func TestNewCollState(t *testing.T) {
	global := &GlobalState{
		Config:      ServerConfig{MaxPostBytes: 10},
		Collections: map[string]ServerTimestamp{"clients": 42},
		Keys:        StaticKeys{ID: "k1"},
	}

	st, err := NewCollState(global, "clients")
	require.NoError(t, err)
	assert.Equal(t, ServerTimestamp(42), st.LastModified)
	assert.Equal(t, "k1", st.Key.ID)
	assert.Equal(t, 10, st.Config.MaxPostBytes)

	st, err = NewCollState(global, "tabs")
	require.NoError(t, err)
	assert.Equal(t, ServerTimestamp(0), st.LastModified)

	_, err = NewCollState(&GlobalState{}, "clients")
	assert.ErrorIs(t, err, ErrNoKeys)
}
