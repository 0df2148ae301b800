package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/clientsync/internal/config"
	"github.com/roach88/clientsync/internal/ir"
)

// InitOptions holds flags for the init command.
type InitOptions struct {
	*RootOptions
	Name     string
	Type     string
	Database string
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "init <path>",
		Short: "Write a config file for a new device",
		Long: `Write a config file for a new device.

The device gets a fresh client id. The file is YAML and can be edited
afterwards; init refuses to overwrite an existing file.

Example:
  clientsync init laptop.yaml --name "Work Laptop" --type desktop
  clientsync init phone.yaml --name Phone --type mobile --db ./shared.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return initDevice(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "device name (required)")
	cmd.Flags().StringVar(&opts.Type, "type", string(ir.DeviceDesktop), "device type (desktop|mobile|tablet)")
	cmd.Flags().StringVar(&opts.Database, "db", config.DefaultDatabase, "path to SQLite database")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

// InitResult describes a newly written config.
type InitResult struct {
	Path     string        `json:"path"`
	ClientID string        `json:"client_id"`
	Name     string        `json:"name"`
	Type     ir.DeviceType `json:"type"`
	Database string        `json:"database"`
}

func (r InitResult) String() string {
	return fmt.Sprintf("Wrote %s\n  client id: %s\n  name:      %s (%s)\n  database:  %s",
		r.Path, r.ClientID, r.Name, r.Type, r.Database)
}

func initDevice(opts *InitOptions, path string, cmd *cobra.Command) error {
	out := opts.formatter(cmd)

	deviceType := ir.DeviceType(opts.Type)
	if !ir.ValidDeviceTypes[deviceType] {
		msg := fmt.Sprintf("invalid device type %q", opts.Type)
		_ = out.Error(ErrCodeConfig, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}

	cfg := config.Generate(opts.Name, deviceType)
	cfg.Database = opts.Database
	if err := cfg.Device.Validate(); err != nil {
		_ = out.Error(ErrCodeConfig, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid device", err)
	}

	if err := config.Write(path, cfg); err != nil {
		_ = out.Error(ErrCodeWriteFailed, "failed to write config", err.Error())
		return WrapExitError(ExitCommandError, "failed to write config", err)
	}

	return out.Success(InitResult{
		Path:     path,
		ClientID: cfg.Device.ClientID,
		Name:     cfg.Device.Name,
		Type:     cfg.Device.Type,
		Database: cfg.Database,
	})
}
