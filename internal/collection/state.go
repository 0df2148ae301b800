package collection

import (
	"errors"
	"fmt"
)

// ServerTimestamp is a collection's last-modified cursor. Servers hand it
// out and compare it; clients never derive it from the wall clock.
type ServerTimestamp int64

// KeyBundle identifies the key a collection's payloads are encrypted with.
// Key material itself stays inside the protocol client.
type KeyBundle struct {
	ID string `json:"id"`
}

// CollectionKeys resolves the key bundle for a collection.
type CollectionKeys interface {
	KeyForCollection(name string) (KeyBundle, error)
}

// ErrNoKeys is returned by NewCollState when the global state carries no keys.
var ErrNoKeys = errors.New("collection keys unavailable")

// GlobalState is the account-wide state fetched once per sync: limits,
// per-collection cursors and keys.
type GlobalState struct {
	Config      ServerConfig
	Collections map[string]ServerTimestamp
	Keys        CollectionKeys
}

// CollState is the state of one collection for one cycle.
type CollState struct {
	Config       ServerConfig
	LastModified ServerTimestamp
	Key          KeyBundle
}

// NewCollState derives the state of collection name from the global state.
// A collection the server has never seen starts at cursor zero.
func NewCollState(global *GlobalState, name string) (*CollState, error) {
	if global == nil || global.Keys == nil {
		return nil, ErrNoKeys
	}
	key, err := global.Keys.KeyForCollection(name)
	if err != nil {
		return nil, fmt.Errorf("key for %s: %w", name, err)
	}
	return &CollState{
		Config:       global.Config,
		LastModified: global.Collections[name],
		Key:          key,
	}, nil
}

// StaticKeys hands out the same bundle for every collection.
type StaticKeys KeyBundle

// KeyForCollection implements CollectionKeys.
func (k StaticKeys) KeyForCollection(string) (KeyBundle, error) {
	return KeyBundle(k), nil
}
