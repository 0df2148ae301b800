package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/clientsync/internal/ir"
)

const validScenario = `
name: test_scenario
description: "Test scenario for validation"
device:
  client_id: laptop
  name: Laptop
  type: desktop
limits:
  max_record_payload_bytes: 1000
  max_post_bytes: 5000
records:
  - id: phone
    record: {id: phone, name: Phone, type: mobile}
  - id: broken
    raw: "{"
outgoing: [wipe-history]
assertions:
  - type: applied
    commands: []
`

func TestLoadScenario_ValidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validScenario), 0644))

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "test_scenario", scenario.Name)
	assert.Equal(t, "Test scenario for validation", scenario.Description)
	assert.Equal(t, ir.Settings{ClientID: "laptop", Name: "Laptop", Type: ir.DeviceDesktop}, scenario.Device)
	require.NotNil(t, scenario.Limits)
	assert.Equal(t, 1000, scenario.Limits.MaxRecordPayloadBytes)
	require.Len(t, scenario.Records, 2)
	assert.Equal(t, "Phone", scenario.Records[0].Record["name"])
	assert.Equal(t, "{", scenario.Records[1].Raw)
	assert.Equal(t, []string{"wipe-history"}, scenario.Outgoing)
	assert.Len(t, scenario.Assertions, 1)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestParseScenario_UnknownField(t *testing.T) {
	_, err := ParseScenario([]byte(validScenario + "assertion: []\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_Invalid(t *testing.T) {
	const device = "device: {client_id: laptop, name: Laptop, type: desktop}\n"
	const applied = "assertions: [{type: applied}]\n"

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"missing name", "description: d\n" + device + applied, "name is required"},
		{"missing description", "name: n\n" + device + applied, "description is required"},
		{"missing device", "name: n\ndescription: d\n" + applied, "device"},
		{"bad device type", "name: n\ndescription: d\ndevice: {client_id: a, name: A, type: watch}\n" + applied, "invalid device type"},
		{"no assertions", "name: n\ndescription: d\n" + device, "assertions list is required"},
		{"unknown engine", "name: n\ndescription: d\n" + device + "engines: [tabs]\n" + applied, `unknown engine "tabs"`},
		{"unknown failing engine", "name: n\ndescription: d\n" + device + "failing_engines: [forms]\n" + applied, `unknown engine "forms"`},
		{"record without id", "name: n\ndescription: d\n" + device + "records: [{raw: x}]\n" + applied, "id is required"},
		{"record with both", "name: n\ndescription: d\n" + device + "records: [{id: a, raw: x, record: {id: a}}]\n" + applied, "exactly one"},
		{"record with neither", "name: n\ndescription: d\n" + device + "records: [{id: a}]\n" + applied, "exactly one"},
		{"duplicate record", "name: n\ndescription: d\n" + device + "records: [{id: a, raw: x}, {id: a, raw: y}]\n" + applied, "duplicate id"},
		{"bad outgoing", "name: n\ndescription: d\n" + device + "outgoing: [wipe-tabs]\n" + applied, "unknown command"},
		{"untyped assertion", "name: n\ndescription: d\n" + device + "assertions: [{id: a}]\n", "type is required"},
		{"unknown assertion", "name: n\ndescription: d\n" + device + "assertions: [{type: trace_contains}]\n", "unknown assertion type"},
		{"stats without stats", "name: n\ndescription: d\n" + device + "assertions: [{type: stats}]\n", "stats is required"},
		{"record_commands without id", "name: n\ndescription: d\n" + device + "assertions: [{type: record_commands}]\n", "id is required"},
		{"bad error kind", "name: n\ndescription: d\n" + device + "assertions: [{type: error_kind, kind: OOPS}]\n", "unknown error kind"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid scenario")
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenario_RepositoryScenarios(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join(scenarioDir(), "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			_, err := LoadScenario(path)
			require.NoError(t, err)
		})
	}
}
