package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/clientsync/internal/collection"
	"github.com/roach88/clientsync/internal/ir"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_YAMLWithDefaults(t *testing.T) {
	path := writeFile(t, "laptop.yaml", `
device:
  client_id: laptop-1
  name: Laptop
  type: desktop
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ir.Settings{ClientID: "laptop-1", Name: "Laptop", Type: ir.DeviceDesktop}, cfg.Device)
	assert.Equal(t, DefaultDatabase, cfg.Database)
	assert.Equal(t, collection.DefaultServerConfig(), cfg.Limits)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "stderr", cfg.Log.Output)
	assert.False(t, cfg.FullyAtomic)
	assert.True(t, cfg.FlowIDs)
}

func TestLoad_YAMLFull(t *testing.T) {
	path := writeFile(t, "phone.yml", `
device:
  client_id: phone-1
  name: Phone
  type: mobile
  fxa_device_id: fxa-123
database: /tmp/shared.db
limits:
  max_record_payload_bytes: 1000
  max_post_bytes: 5000
log:
  level: debug
  console: true
fully_atomic: true
flow_ids: false
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "fxa-123", cfg.Device.FxaDeviceID)
	assert.Equal(t, "/tmp/shared.db", cfg.Database)
	assert.Equal(t, collection.ServerConfig{MaxRecordPayloadBytes: 1000, MaxPostBytes: 5000}, cfg.Limits)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.Console)
	assert.True(t, cfg.FullyAtomic)
	assert.False(t, cfg.FlowIDs)
}

func TestLoad_CUE(t *testing.T) {
	path := writeFile(t, "tablet.cue", `
device: {
	client_id: "tablet-1"
	name:      "Tablet"
	type:      "tablet"
}
limits: max_post_bytes: 1000000
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ir.DeviceTablet, cfg.Device.Type)
	assert.Equal(t, 1000000, cfg.Limits.MaxPostBytes)
	assert.Equal(t, 262144, cfg.Limits.MaxRecordPayloadBytes)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing device", "database: x.db\n"},
		{"empty client id", "device: {client_id: '', name: A, type: desktop}\n"},
		{"bad device type", "device: {client_id: a, name: A, type: watch}\n"},
		{"negative limit", "device: {client_id: a, name: A, type: desktop}\nlimits: {max_post_bytes: -1}\n"},
		{"unknown field", "device: {client_id: a, name: A, type: desktop}\ncolour: blue\n"},
		{"bad log level", "device: {client_id: a, name: A, type: desktop}\nlog: {level: loud}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, "c.yaml", tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoad_UnsupportedExtension(t *testing.T) {
	_, err := Load(writeFile(t, "c.toml", "x = 1"))
	assert.ErrorContains(t, err, "unsupported config format")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(EnvClientID, "from-env")
	t.Setenv(EnvName, "Env Name")
	t.Setenv(EnvDatabase, "env.db")
	t.Setenv(EnvLogLevel, "warn")

	// The file alone would be invalid: no client id.
	path := writeFile(t, "c.yaml", "device:\n  type: mobile\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Device.ClientID)
	assert.Equal(t, "Env Name", cfg.Device.Name)
	assert.Equal(t, "env.db", cfg.Database)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestGenerateAndWrite(t *testing.T) {
	cfg := Generate("Laptop", ir.DeviceDesktop)

	id, err := uuid.Parse(cfg.Device.ClientID)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())
	require.NoError(t, cfg.Device.Validate())

	path := filepath.Join(t.TempDir(), "laptop.yaml")
	require.NoError(t, Write(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, *loaded)

	assert.Error(t, Write(path, cfg), "refuses to overwrite")
}

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte("device: {client_id: a, name: A, type: desktop}\n"))
	require.NoError(t, err)
	assert.Equal(t, "a", cfg.Device.ClientID)
}
