package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/clientsync/internal/config"
	"github.com/roach88/clientsync/internal/ir"
	"github.com/roach88/clientsync/internal/logger"
)

// EnvConfig names the config file used when --config is not given.
const EnvConfig = "CLIENTSYNC_CONFIG"

// DefaultConfigPath is used when neither --config nor CLIENTSYNC_CONFIG is set.
const DefaultConfigPath = "clientsync.yaml"

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Config  string // path to the device config file
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the clientsync CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "clientsync",
		Short: "clientsync - sync the clients collection",
		Long: `Keep this device's record in the clients collection current and
deliver wipe and reset commands between devices.`,
		Version: ir.EngineVersion,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Validate format flag
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			// The global logger only serves messages emitted before a
			// config is loaded.
			bootstrap := logger.Config{Level: "warn", Debug: opts.Verbose}
			if err := logger.Init(bootstrap); err != nil {
				return err
			}
			if err := config.EnsureDotEnv(); err != nil {
				return WrapExitError(ExitCommandError, "failed to load .env", err)
			}
			if opts.Config == "" {
				opts.Config = os.Getenv(EnvConfig)
			}
			if opts.Config == "" {
				opts.Config = DefaultConfigPath
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.Config, "config", "c", "", "device config file (default $"+EnvConfig+" or "+DefaultConfigPath+")")

	// Add subcommands
	cmd.AddCommand(NewInitCommand(opts))
	cmd.AddCommand(NewSyncCommand(opts))
	cmd.AddCommand(NewSendCommand(opts))
	cmd.AddCommand(NewClientsCommand(opts))
	cmd.AddCommand(NewLimitsCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}
