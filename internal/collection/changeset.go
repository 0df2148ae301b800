package collection

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/roach88/clientsync/internal/ir"
)

// Request describes what to fetch from a collection.
type Request struct {
	Collection string
	// IsFull asks for every record regardless of the cursor.
	IsFull bool
}

// NewRequest creates an incremental request for collection name.
func NewRequest(name string) Request {
	return Request{Collection: name}
}

// Full returns a copy of r that fetches the whole collection.
func (r Request) Full() Request {
	r.IsFull = true
	return r
}

// Payload is one decrypted record: its id and JSON body.
type Payload struct {
	ID   string          `json:"id"`
	Data json.RawMessage `json:"data"`
}

// IntoRecord decodes the payload body into v. Bodies that are not valid
// UTF-8 are rejected rather than decoded with replacement characters.
func (p Payload) IntoRecord(v any) error {
	if !utf8.Valid(p.Data) {
		return fmt.Errorf("decode payload %q: %w", p.ID, ErrInvalidUTF8)
	}
	if err := json.Unmarshal(p.Data, v); err != nil {
		return fmt.Errorf("decode payload %q: %w", p.ID, err)
	}
	return nil
}

// FromRecord encodes v as the body of a payload with the given id.
func FromRecord(id string, v any) (Payload, error) {
	data, err := ir.MarshalWire(v)
	if err != nil {
		return Payload{}, fmt.Errorf("encode payload %q: %w", id, err)
	}
	return Payload{ID: id, Data: data}, nil
}

// IncomingChangeset is the result of a fetch: payloads in server order and
// the collection timestamp observed while reading them.
type IncomingChangeset struct {
	Collection string
	Timestamp  ServerTimestamp
	Changes    []Payload
}

// OutgoingChangeset is a batch to upload. Timestamp is the read-time cursor
// the server checks for concurrent writes.
type OutgoingChangeset struct {
	Collection string
	Timestamp  ServerTimestamp
	Changes    []Payload
}

// NewOutgoingChangeset creates an empty batch for collection name.
func NewOutgoingChangeset(name string, ts ServerTimestamp) *OutgoingChangeset {
	return &OutgoingChangeset{Collection: name, Timestamp: ts}
}

// IDs returns the payload ids in batch order.
func (o *OutgoingChangeset) IDs() []string {
	ids := make([]string, len(o.Changes))
	for i, p := range o.Changes {
		ids[i] = p.ID
	}
	return ids
}

// UploadInfo reports per-record upload results.
type UploadInfo struct {
	SuccessfulIDs []string
	FailedIDs     []string
	// Modified is the collection timestamp after the upload.
	Modified ServerTimestamp
}
