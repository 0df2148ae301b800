package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/roach88/clientsync/internal/collection"
	"github.com/roach88/clientsync/internal/ir"
)

// FakeServer is an in-memory collection.Client holding one collection.
//
// It follows the same rules as the SQLite store: full fetches return every
// record in insertion order, uploads are conditional on the cursor, records
// over the record limit fail individually and an atomic upload commits all
// or nothing. Errors can be injected with FetchErr and UploadErr.
type FakeServer struct {
	mu sync.Mutex

	clock    *TimestampClock
	order    []string
	records  map[string]json.RawMessage
	modified map[string]collection.ServerTimestamp
	cursor   collection.ServerTimestamp

	// FetchErr and UploadErr, when set, are returned by the next calls.
	FetchErr  error
	UploadErr error

	// Reject fails the listed ids on upload, as a server would for a
	// record it refuses.
	Reject map[string]bool

	// OnFetch runs after a successful fetch, before it returns. Tests use
	// it to cancel contexts or write concurrently.
	OnFetch func()

	Fetches []collection.Request
	Uploads []UploadCall
}

// UploadCall is one recorded Upload.
type UploadCall struct {
	State   collection.CollState
	Changes collection.OutgoingChangeset
	Atomic  bool
}

// NewFakeServer creates an empty server whose cursor starts at clock's
// current value.
func NewFakeServer(clock *TimestampClock) *FakeServer {
	if clock == nil {
		clock = NewTimestampClock(0)
	}
	return &FakeServer{
		clock:    clock,
		records:  make(map[string]json.RawMessage),
		modified: make(map[string]collection.ServerTimestamp),
		cursor:   clock.Current(),
		Reject:   make(map[string]bool),
	}
}

// Put stores v under id as if another client had uploaded it.
func (s *FakeServer) Put(id string, v any) error {
	data, err := ir.MarshalWire(v)
	if err != nil {
		return fmt.Errorf("encode %q: %w", id, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.write(id, data, s.clock.Next())
	return nil
}

// PutRaw stores raw JSON under id.
func (s *FakeServer) PutRaw(id string, data string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.write(id, json.RawMessage(data), s.clock.Next())
}

// Get decodes the record stored under id into v. It reports false if there
// is no such record.
func (s *FakeServer) Get(id string, v any) (bool, error) {
	s.mu.Lock()
	data, ok := s.records[id]
	s.mu.Unlock()
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(data, v)
}

// Raw returns the payload stored under id as written.
func (s *FakeServer) Raw(id string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.records[id]
	return string(data), ok
}

// IDs returns record ids in insertion order.
func (s *FakeServer) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.order...)
}

// LastModified returns the collection cursor.
func (s *FakeServer) LastModified() collection.ServerTimestamp {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// Fetch implements collection.Client.
func (s *FakeServer) Fetch(ctx context.Context, state *collection.CollState, req collection.Request) (*collection.IncomingChangeset, error) {
	s.mu.Lock()
	s.Fetches = append(s.Fetches, req)
	if err := s.FetchErr; err != nil {
		s.mu.Unlock()
		return nil, err
	}

	inbound := &collection.IncomingChangeset{Collection: req.Collection, Timestamp: s.cursor}
	for _, id := range s.order {
		if !req.IsFull && s.modified[id] <= state.LastModified {
			continue
		}
		data := append(json.RawMessage(nil), s.records[id]...)
		inbound.Changes = append(inbound.Changes, collection.Payload{ID: id, Data: data})
	}
	hook := s.OnFetch
	s.mu.Unlock()

	if hook != nil {
		hook()
	}
	return inbound, nil
}

// Upload implements collection.Client.
func (s *FakeServer) Upload(ctx context.Context, state *collection.CollState, changes *collection.OutgoingChangeset, atomic bool) (collection.UploadInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	call := UploadCall{State: *state, Changes: *changes, Atomic: atomic}
	call.Changes.Changes = append([]collection.Payload(nil), changes.Changes...)
	s.Uploads = append(s.Uploads, call)

	if err := s.UploadErr; err != nil {
		return collection.UploadInfo{}, err
	}
	if s.cursor > state.LastModified {
		return collection.UploadInfo{}, collection.ErrPreconditionFailed
	}

	limit := state.Config.MaxRecordPayloadBytes
	var info collection.UploadInfo
	var accepted []collection.Payload
	for _, p := range changes.Changes {
		if s.Reject[p.ID] || (limit > 0 && len(p.Data) > limit) {
			info.FailedIDs = append(info.FailedIDs, p.ID)
			continue
		}
		accepted = append(accepted, p)
		info.SuccessfulIDs = append(info.SuccessfulIDs, p.ID)
	}

	if atomic && len(info.FailedIDs) > 0 {
		return collection.UploadInfo{FailedIDs: changes.IDs(), Modified: s.cursor}, nil
	}
	if len(accepted) == 0 {
		info.Modified = s.cursor
		return info, nil
	}

	ts := s.clock.Next()
	for _, p := range accepted {
		s.write(p.ID, p.Data, ts)
	}
	info.Modified = ts
	return info, nil
}

func (s *FakeServer) write(id string, data json.RawMessage, ts collection.ServerTimestamp) {
	if _, ok := s.records[id]; !ok {
		s.order = append(s.order, id)
	}
	s.records[id] = data
	s.modified[id] = ts
	s.cursor = ts
}
