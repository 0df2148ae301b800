package harness

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/clientsync/internal/engine"
	"github.com/roach88/clientsync/internal/ir"
)

// Snapshot captures what a scenario did: the trace of the cycle, its stats
// or error, and the server's collection afterwards.
// All fields use canonical JSON serialization for deterministic comparison.
type Snapshot struct {
	ScenarioName string
	Trace        []TraceEvent
	Stats        *engine.Stats
	ErrorKind    string
	Records      []StoredRecord
}

// NewSnapshot builds the snapshot of result.
func NewSnapshot(scenarioName string, result *Result) *Snapshot {
	s := &Snapshot{
		ScenarioName: scenarioName,
		Trace:        result.Trace,
		Stats:        result.Stats,
		Records:      result.Records,
	}
	if result.Err != nil {
		s.ErrorKind = string(engine.KindOf(result.Err))
	}
	return s
}

// toCanonicalMap converts a Snapshot to a map[string]any for canonical JSON serialization.
// This is required because ir.MarshalCanonical only handles generic JSON values.
func (s *Snapshot) toCanonicalMap() (map[string]any, error) {
	// Convert trace events to slice of maps
	traceList := make([]any, len(s.Trace))
	for i, event := range s.Trace {
		eventMap := map[string]any{
			"type": event.Type,
			"seq":  event.Seq,
		}
		switch event.Type {
		case EventFetch:
			eventMap["records"] = event.Records
		case EventUpload:
			ids := make([]any, len(event.IDs))
			for j, id := range event.IDs {
				ids[j] = id
			}
			eventMap["ids"] = ids
			eventMap["atomic"] = event.Atomic
		default:
			eventMap["engine"] = event.Engine
			eventMap["failed"] = event.Failed
		}
		traceList[i] = eventMap
	}

	records := make([]any, len(s.Records))
	for i, r := range s.Records {
		entry := map[string]any{"id": r.ID}
		if r.Client != nil {
			payload, err := toGeneric(r.Client)
			if err != nil {
				return nil, err
			}
			entry["payload"] = payload
		} else {
			entry["raw"] = r.Raw
		}
		records[i] = entry
	}

	result := map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         traceList,
		"records":       records,
	}
	if s.Stats != nil {
		stats, err := toGeneric(s.Stats)
		if err != nil {
			return nil, err
		}
		result["stats"] = stats
	}
	if s.ErrorKind != "" {
		result["error"] = s.ErrorKind
	}
	return result, nil
}

// MarshalCanonical returns the snapshot's canonical JSON.
func (s *Snapshot) MarshalCanonical() ([]byte, error) {
	m, err := s.toCanonicalMap()
	if err != nil {
		return nil, err
	}
	return ir.MarshalCanonical(m)
}

// toGeneric round-trips v through JSON into maps, slices and json.Number.
func toGeneric(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// RunWithGolden executes a scenario and compares its snapshot against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if the scenario cannot be set up or snapshotted.
// Test failure (via goldie) occurs if the snapshot doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	// Run the scenario
	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares the given result's snapshot against a golden file.
// This is useful when you've already run a scenario and want to compare
// the result against a golden file without re-running.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshotJSON, err := NewSnapshot(scenarioName, result).MarshalCanonical()
	if err != nil {
		return err
	}

	// Compare with golden file using goldie
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, snapshotJSON)

	return nil
}
