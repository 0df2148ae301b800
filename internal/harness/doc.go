// Package harness provides conformance testing for the clients sync engine.
//
// The harness seeds an in-memory server with client records, runs one sync
// cycle for one device through the real engine and command manager, and
// checks what was applied and uploaded.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	device: { client_id: laptop, name: Laptop, type: desktop }
//	limits: { max_record_payload_bytes: 2048, max_post_bytes: 65536 }
//	engines: [bookmarks, history]
//	failing_engines: [history]
//	flow_ids: true
//	records:
//	  - id: phone
//	    record: { id: phone, name: Phone, type: mobile, commands: [] }
//	  - id: broken
//	    raw: "{not json"
//	reject: [phone]
//	outgoing: [wipe-all]
//	assertions:
//	  - type: applied
//	    commands: [wipe-history]
//	  - type: stats
//	    stats: { applied: 1, requeued: 0 }
//	  - type: record_commands
//	    id: phone
//	    commands: [wipe-all]
//	  - type: uploaded_ids
//	    ids: [phone, laptop]
//
// # Assertion Types
//
// The following assertion types are supported:
//
//   - applied: Commands the manager applied locally, in order
//   - stats: Subset match on the cycle's counters, by JSON name
//   - record_commands: The command list of a record on the server after the cycle
//   - uploaded_ids: Record ids in the upload, in order
//   - error_kind: The cycle failed with this error kind
//
// Unless a scenario has an error_kind assertion, a failed cycle fails the
// scenario.
//
// # Deterministic Testing
//
// Server timestamps come from a logical clock starting at zero, and flow
// ids are "flow-0001", "flow-0002", ... in the order commands are first
// sent. Identical scenarios therefore produce identical snapshots, which
// RunWithGolden compares against testdata/golden/{name}.golden in
// canonical JSON.
package harness
