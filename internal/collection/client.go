package collection

import (
	"context"
	"errors"
)

//go:generate mockgen -destination=mock_client.go -package=collection github.com/roach88/clientsync/internal/collection Client

// Client is the sync protocol client: authenticated fetch and upload of a
// collection's records.
//
// Fetch returns payloads already decrypted with state.Key. Upload encrypts,
// batches within the server limits in state.Config and sends the changeset
// conditional on state.LastModified. With atomic set, the server must
// commit all records or none.
type Client interface {
	Fetch(ctx context.Context, state *CollState, req Request) (*IncomingChangeset, error)
	Upload(ctx context.Context, state *CollState, changes *OutgoingChangeset, atomic bool) (UploadInfo, error)
}

var (
	// ErrPreconditionFailed is returned by Upload when the collection was
	// written after state.LastModified.
	ErrPreconditionFailed = errors.New("collection modified since last read")

	// ErrKeyMismatch is returned when state.Key is not the collection's key.
	ErrKeyMismatch = errors.New("collection key mismatch")

	// ErrInvalidUTF8 is returned when a payload body is not valid UTF-8.
	ErrInvalidUTF8 = errors.New("payload is not valid UTF-8")
)
