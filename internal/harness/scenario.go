package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/clientsync/internal/collection"
	"github.com/roach88/clientsync/internal/engine"
	"github.com/roach88/clientsync/internal/ir"
	"github.com/roach88/clientsync/internal/manager"
)

// Scenario defines a conformance test scenario.
// A scenario seeds a server with client records, runs one sync cycle for
// one device and asserts on what the device applied and uploaded.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Device is the local device running the sync.
	Device ir.Settings `yaml:"device"`

	// Limits are the server's advertised size limits.
	// If nil, collection.DefaultServerConfig is used.
	Limits *collection.ServerConfig `yaml:"limits,omitempty"`

	// Engines lists the local engines registered with the command manager.
	// If empty, every known engine is registered.
	Engines []string `yaml:"engines,omitempty"`

	// FailingEngines lists registered engines whose wipe and reset fail.
	FailingEngines []string `yaml:"failing_engines,omitempty"`

	// FullyAtomic asks the server to commit the upload all or nothing.
	FullyAtomic bool `yaml:"fully_atomic,omitempty"`

	// FlowIDs attaches deterministic flow ids ("flow-0001", ...) to
	// commands sent to peers.
	FlowIDs bool `yaml:"flow_ids,omitempty"`

	// Records seed the server, in order, before the sync.
	Records []SeedRecord `yaml:"records,omitempty"`

	// Reject lists record ids the server refuses on upload.
	Reject []string `yaml:"reject,omitempty"`

	// Outgoing lists the commands this device has queued for its peers,
	// by CLI name ("wipe-history").
	Outgoing []string `yaml:"outgoing,omitempty"`

	// Assertions validate the outcome of the cycle.
	// Supported types: applied, stats, record_commands, uploaded_ids, error_kind
	Assertions []Assertion `yaml:"assertions"`
}

// SeedRecord is a record stored on the server before the sync.
// Exactly one of Record and Raw is set.
type SeedRecord struct {
	// ID is the server-side record id.
	ID string `yaml:"id"`

	// Record is the record's JSON object, written as YAML.
	Record map[string]any `yaml:"record,omitempty"`

	// Raw is stored verbatim, for malformed payloads.
	Raw string `yaml:"raw,omitempty"`
}

// Assertion validates the outcome of a cycle.
type Assertion struct {
	// Type specifies the assertion type:
	// - "applied": Commands applied locally, in order
	// - "stats": Subset match on the cycle's Stats, by JSON name
	// - "record_commands": Commands on a record after the cycle
	// - "uploaded_ids": Record ids in the upload, in order
	// - "error_kind": The cycle failed with this SyncError kind
	Type string `yaml:"type"`

	// ID is the record id (used by record_commands).
	ID string `yaml:"id,omitempty"`

	// Commands are command names (used by applied and record_commands).
	// Canonical commands use their CLI name; anything else its wire name.
	Commands []string `yaml:"commands,omitempty"`

	// Stats are the expected counters (used by stats).
	Stats map[string]int `yaml:"stats,omitempty"`

	// IDs are the expected record ids (used by uploaded_ids).
	IDs []string `yaml:"ids,omitempty"`

	// Kind is the expected error kind (used by error_kind).
	Kind string `yaml:"kind,omitempty"`
}

// Assertion type constants.
const (
	AssertApplied        = "applied"
	AssertStats          = "stats"
	AssertRecordCommands = "record_commands"
	AssertUploadedIDs    = "uploaded_ids"
	AssertErrorKind      = "error_kind"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	// Read file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Validate required fields
	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if err := s.Device.Validate(); err != nil {
		return fmt.Errorf("device: %w", err)
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	known := make(map[string]bool, len(manager.KnownEngines))
	for _, name := range manager.KnownEngines {
		known[name] = true
	}
	for i, name := range s.Engines {
		if !known[name] {
			return fmt.Errorf("engines[%d]: unknown engine %q", i, name)
		}
	}
	for i, name := range s.FailingEngines {
		if !known[name] {
			return fmt.Errorf("failing_engines[%d]: unknown engine %q", i, name)
		}
	}

	// Validate seed records
	seen := make(map[string]bool, len(s.Records))
	for i, r := range s.Records {
		if r.ID == "" {
			return fmt.Errorf("records[%d]: id is required", i)
		}
		if seen[r.ID] {
			return fmt.Errorf("records[%d]: duplicate id %q", i, r.ID)
		}
		seen[r.ID] = true
		if (r.Record == nil) == (r.Raw == "") {
			return fmt.Errorf("records[%d]: exactly one of record and raw is required", i)
		}
	}

	for i, name := range s.Outgoing {
		if _, err := ir.ParseCommand(name); err != nil {
			return fmt.Errorf("outgoing[%d]: %w", i, err)
		}
	}

	// Validate assertions
	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

var errorKinds = map[string]bool{
	string(engine.ErrKindUnknownEngine):      true,
	string(engine.ErrKindUnsupportedFeature): true,
	string(engine.ErrKindUnsupportedCommand): true,
	string(engine.ErrKindConnectionClosed):   true,
	string(engine.ErrKindInvalidHandle):      true,
	string(engine.ErrKindDecode):             true,
	string(engine.ErrKindSyncAdapter):        true,
	string(engine.ErrKindInterrupted):        true,
	string(engine.ErrKindSerialization):      true,
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertApplied:
		// An empty list asserts nothing was applied.
	case AssertStats:
		if len(a.Stats) == 0 {
			return fmt.Errorf("assertions[%d]: stats is required for stats", index)
		}
	case AssertRecordCommands:
		if a.ID == "" {
			return fmt.Errorf("assertions[%d]: id is required for record_commands", index)
		}
	case AssertUploadedIDs:
		// An empty list asserts nothing was uploaded.
	case AssertErrorKind:
		if !errorKinds[a.Kind] {
			return fmt.Errorf("assertions[%d]: unknown error kind %q for error_kind", index, a.Kind)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
