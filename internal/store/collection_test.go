package store

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/clientsync/internal/collection"
	"github.com/roach88/clientsync/internal/ir"
)

func collState(t *testing.T, s *Store, name string) *collection.CollState {
	t.Helper()
	global, err := s.GlobalState(context.Background())
	require.NoError(t, err)
	state, err := collection.NewCollState(global, name)
	require.NoError(t, err)
	return state
}

func upload(t *testing.T, s *Store, state *collection.CollState, atomic bool, payloads ...collection.Payload) collection.UploadInfo {
	t.Helper()
	out := collection.NewOutgoingChangeset(ir.CollectionClients, state.LastModified)
	out.Changes = payloads
	info, err := s.Upload(context.Background(), state, out, atomic)
	require.NoError(t, err)
	return info
}

func payload(id, data string) collection.Payload {
	return collection.Payload{ID: id, Data: []byte(data)}
}

func TestFetch_EmptyCollection(t *testing.T) {
	s := createTestStore(t)
	state := collState(t, s, ir.CollectionClients)

	inbound, err := s.Fetch(context.Background(), state, collection.NewRequest(ir.CollectionClients).Full())
	require.NoError(t, err)
	assert.Empty(t, inbound.Changes)
	assert.Equal(t, collection.ServerTimestamp(0), inbound.Timestamp)
}

func TestUpload_AdvancesCursorByOne(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	state := collState(t, s, ir.CollectionClients)
	info := upload(t, s, state, false,
		payload("b", `{"id":"b","name":"B"}`),
		payload("a", `{"id":"a","name":"A"}`),
	)
	assert.Equal(t, []string{"b", "a"}, info.SuccessfulIDs)
	assert.Equal(t, collection.ServerTimestamp(1), info.Modified)

	state = collState(t, s, ir.CollectionClients)
	assert.Equal(t, collection.ServerTimestamp(1), state.LastModified)

	inbound, err := s.Fetch(ctx, state, collection.NewRequest(ir.CollectionClients).Full())
	require.NoError(t, err)
	require.Len(t, inbound.Changes, 2)
	assert.Equal(t, "a", inbound.Changes[0].ID, "fetch orders by id")
	assert.JSONEq(t, `{"id":"b","name":"B"}`, string(inbound.Changes[1].Data))
	assert.Equal(t, collection.ServerTimestamp(1), inbound.Timestamp)
}

func TestFetch_Incremental(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	upload(t, s, collState(t, s, ir.CollectionClients), false, payload("a", `{"id":"a"}`))
	after := collState(t, s, ir.CollectionClients)
	upload(t, s, after, false, payload("b", `{"id":"b"}`))

	inbound, err := s.Fetch(ctx, after, collection.NewRequest(ir.CollectionClients))
	require.NoError(t, err)
	require.Len(t, inbound.Changes, 1)
	assert.Equal(t, "b", inbound.Changes[0].ID)

	inbound, err = s.Fetch(ctx, after, collection.NewRequest(ir.CollectionClients).Full())
	require.NoError(t, err)
	assert.Len(t, inbound.Changes, 2)
}

func TestUpload_PreconditionFailed(t *testing.T) {
	s := createTestStore(t)
	stale := collState(t, s, ir.CollectionClients)

	upload(t, s, collState(t, s, ir.CollectionClients), false, payload("a", `{"id":"a"}`))

	out := collection.NewOutgoingChangeset(ir.CollectionClients, stale.LastModified)
	out.Changes = []collection.Payload{payload("b", `{"id":"b"}`)}
	_, err := s.Upload(context.Background(), stale, out, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, collection.ErrPreconditionFailed)

	records, err := s.Records(context.Background(), ir.CollectionClients)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestUpload_KeyMismatch(t *testing.T) {
	s := createTestStore(t)
	state := collState(t, s, ir.CollectionClients)
	state.Key = collection.KeyBundle{ID: "someone-elses-key"}

	_, err := s.Upload(context.Background(), state, collection.NewOutgoingChangeset(ir.CollectionClients, 0), false)
	assert.ErrorIs(t, err, collection.ErrKeyMismatch)

	_, err = s.Fetch(context.Background(), state, collection.NewRequest(ir.CollectionClients).Full())
	assert.ErrorIs(t, err, collection.ErrKeyMismatch)
}

func TestUpload_OversizedRecordFailsAlone(t *testing.T) {
	s := createTestStore(t)
	require.NoError(t, s.SetServerConfig(context.Background(),
		collection.ServerConfig{MaxRecordPayloadBytes: 64, MaxPostBytes: 1 << 20}))

	big := `{"id":"big","name":"` + strings.Repeat("x", 100) + `"}`
	state := collState(t, s, ir.CollectionClients)

	info := upload(t, s, state, false, payload("big", big), payload("ok", `{"id":"ok"}`))
	assert.Equal(t, []string{"ok"}, info.SuccessfulIDs)
	assert.Equal(t, []string{"big"}, info.FailedIDs)
	assert.Equal(t, collection.ServerTimestamp(1), info.Modified)
}

func TestUpload_AtomicRejectsWholeBatch(t *testing.T) {
	s := createTestStore(t)
	state := collState(t, s, ir.CollectionClients)

	info := upload(t, s, state, true, payload("ok", `{"id":"ok"}`), payload("bad", `{not json`))
	assert.Empty(t, info.SuccessfulIDs)
	assert.Equal(t, []string{"ok", "bad"}, info.FailedIDs)
	assert.Equal(t, collection.ServerTimestamp(0), info.Modified)

	records, err := s.Records(context.Background(), ir.CollectionClients)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestUpload_ReplacesExistingRecord(t *testing.T) {
	s := createTestStore(t)

	upload(t, s, collState(t, s, ir.CollectionClients), false, payload("a", `{"id":"a","name":"old"}`))
	upload(t, s, collState(t, s, ir.CollectionClients), false, payload("a", `{"id":"a","name":"new"}`))

	records, err := s.Records(context.Background(), ir.CollectionClients)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.JSONEq(t, `{"id":"a","name":"new"}`, string(records[0].Data))
}

func TestGlobalState(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	global, err := s.GlobalState(ctx)
	require.NoError(t, err)
	assert.Equal(t, collection.DefaultServerConfig(), global.Config)
	assert.Empty(t, global.Collections)

	key1, err := global.Keys.KeyForCollection(ir.CollectionClients)
	require.NoError(t, err)
	key2, err := s.KeyForCollection(ir.CollectionClients)
	require.NoError(t, err)
	assert.NotEmpty(t, key1.ID)
	assert.Equal(t, key1, key2, "keys are stable")

	upload(t, s, collState(t, s, ir.CollectionClients), false, payload("a", `{"id":"a"}`))
	global, err = s.GlobalState(ctx)
	require.NoError(t, err)
	assert.Equal(t, collection.ServerTimestamp(1), global.Collections[ir.CollectionClients])
}

func TestServerConfig_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	want := collection.ServerConfig{MaxRecordPayloadBytes: 1000, MaxPostBytes: 5000}
	require.NoError(t, s.SetServerConfig(ctx, want))
	got, err := s.ServerConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	want.MaxPostBytes = 9000
	require.NoError(t, s.SetServerConfig(ctx, want))
	got, err = s.ServerConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
