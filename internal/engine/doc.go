// Package engine syncs the clients collection: the per-account list of
// devices and the remote commands queued for each of them.
//
// One cycle runs four phases in order:
//
//  1. Prepare: derive the collection state (limits, cursor, key) from the
//     global state.
//  2. Fetch: read every record, always a full fetch.
//  3. Merge: rebuild our own record and apply the commands on it; add our
//     outgoing commands to every peer record.
//  4. Upload: write all merged records back, conditional on the timestamp
//     observed by the fetch.
//
// The engine keeps no state between cycles. Commands that fail to apply, or
// that this device does not understand, are put back on our own record so
// nothing is lost; they are retried next cycle.
//
// Every uploaded record is trimmed to the server's record size limit by
// dropping its oldest commands. See ShrinkToFit.
//
// Cancellation is cooperative. Sync checks its context between steps and
// returns an INTERRUPTED SyncError without uploading anything.
package engine
