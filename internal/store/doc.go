// Package store provides SQLite-backed storage for clientsync.
//
// One database plays two roles:
//   - A local collection server: records per collection, a logical cursor
//     per collection and the advertised size limits. *Store implements
//     collection.Client and collection.CollectionKeys, so several devices
//     (each with its own configuration) can sync against the same file.
//   - Per-device command queues: the commands a device wants to send and
//     the log of commands it applied. See Store.Queue.
//
// # Logical time
//
// Cursors are integers advanced by one on every accepted upload, never
// wall-clock timestamps. Uploads are conditional on the cursor the writer
// read, so two devices racing on the same collection cannot silently
// overwrite each other.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
