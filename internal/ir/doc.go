// Package ir provides the record and command types of the clients collection.
//
// This package contains type definitions and pure helpers only. All other
// internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Wire field names are lowerCamelCase, matching other sync clients
//   - Optional fields are omitted when empty, never written as null
//   - Unknown commands are data: they are kept verbatim and never rejected
//   - Canonical JSON (RFC 8785) is used for hashing and snapshots only,
//     never for what goes on the wire
package ir
