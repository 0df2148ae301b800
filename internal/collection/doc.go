// Package collection defines the port between the clients engine and the
// sync protocol client.
//
// The engine never talks to the network or touches crypto itself. It works
// with changesets of opaque payloads, a per-collection cursor and the
// limits the server advertises, and hands them to a Client. The local
// SQLite server in internal/store is one implementation; a production
// transport would be another.
package collection
