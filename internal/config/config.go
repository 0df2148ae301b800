// Package config loads a device's configuration.
//
// A configuration file is YAML (.yaml, .yml) or CUE (.cue). Either way it
// is checked against the embedded schema.cue, which also supplies defaults.
// CLIENTSYNC_* environment variables, optionally from a .env file, override
// file values before validation.
package config

import (
	_ "embed"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/roach88/clientsync/internal/collection"
	"github.com/roach88/clientsync/internal/ir"
	"github.com/roach88/clientsync/internal/logger"
)

//go:embed schema.cue
var schemaCUE string

// DefaultDatabase is the store path used when none is configured.
const DefaultDatabase = "clientsync.db"

// Config is one device's configuration.
type Config struct {
	Device   ir.Settings             `json:"device" yaml:"device"`
	Database string                  `json:"database" yaml:"database"`
	Limits   collection.ServerConfig `json:"limits" yaml:"limits"`
	Log      logger.Config           `json:"log" yaml:"log"`
	// FullyAtomic asks the server to commit uploads all or nothing.
	FullyAtomic bool `json:"fully_atomic" yaml:"fully_atomic"`
	// FlowIDs attaches a UUIDv7 flow id to every command sent to a peer.
	FlowIDs bool `json:"flow_ids" yaml:"flow_ids"`
}

// Environment variables that override file values.
const (
	EnvDatabase = "CLIENTSYNC_DB"
	EnvClientID = "CLIENTSYNC_CLIENT_ID"
	EnvName     = "CLIENTSYNC_NAME"
	EnvLogLevel = "CLIENTSYNC_LOG_LEVEL"
)

var envOverrides = []struct {
	env  string
	path []string
}{
	{EnvDatabase, []string{"database"}},
	{EnvClientID, []string{"device", "client_id"}},
	{EnvName, []string{"device", "name"}},
	{EnvLogLevel, []string{"log", "level"}},
}

// Load reads, overrides and validates the configuration at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}

	raw, err := decodeFile(path, data)
	if err != nil {
		return nil, err
	}
	applyEnv(raw)

	return fromMap(raw, path)
}

// Parse validates raw YAML without reading a file or the environment.
func Parse(data []byte) (*Config, error) {
	raw, err := decodeFile("config.yaml", data)
	if err != nil {
		return nil, err
	}
	return fromMap(raw, "config.yaml")
}

func decodeFile(path string, data []byte) (map[string]any, error) {
	raw := make(map[string]any)

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, errors.Wrapf(err, "%s: parse yaml", path)
		}
	case ".cue":
		v := cuecontext.New().CompileBytes(data, cue.Filename(path))
		if err := v.Err(); err != nil {
			return nil, errors.Wrapf(err, "%s: compile cue", path)
		}
		if err := v.Decode(&raw); err != nil {
			return nil, errors.Wrapf(err, "%s: decode cue", path)
		}
	default:
		return nil, errors.Errorf("%s: unsupported config format %q", path, ext)
	}

	if raw == nil {
		raw = make(map[string]any)
	}
	return raw, nil
}

func applyEnv(raw map[string]any) {
	for _, o := range envOverrides {
		if v := os.Getenv(o.env); v != "" {
			setPath(raw, o.path, v)
		}
	}
}

func setPath(m map[string]any, path []string, v any) {
	for _, key := range path[:len(path)-1] {
		next, ok := m[key].(map[string]any)
		if !ok {
			next = make(map[string]any)
			m[key] = next
		}
		m = next
	}
	m[path[len(path)-1]] = v
}

// fromMap unifies raw with the schema, applying defaults, and decodes it.
func fromMap(raw map[string]any, source string) (*Config, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, errors.Wrap(err, "compile schema")
	}

	v := schema.LookupPath(cue.ParsePath("#Config")).Unify(ctx.Encode(raw))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, errors.Wrapf(err, "%s: invalid configuration", source)
	}

	var cfg Config
	if err := v.Decode(&cfg); err != nil {
		return nil, errors.Wrapf(err, "%s: decode configuration", source)
	}
	return &cfg, nil
}

// Generate returns a configuration for a new device with a fresh UUIDv7
// client id and default settings.
func Generate(name string, deviceType ir.DeviceType) Config {
	return Config{
		Device: ir.Settings{
			ClientID: uuid.Must(uuid.NewV7()).String(),
			Name:     name,
			Type:     deviceType,
		},
		Database: DefaultDatabase,
		Limits:   collection.DefaultServerConfig(),
		Log:      logger.DefaultConfig(),
		FlowIDs:  true,
	}
}

// Write saves cfg as YAML. It refuses to overwrite an existing file.
func Write(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "encode config")
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return errors.Wrap(err, "create config")
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return errors.Wrap(err, "write config")
	}
	return errors.Wrap(f.Close(), "close config")
}
