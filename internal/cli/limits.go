package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewLimitsCommand creates the limits command.
func NewLimitsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "limits",
		Short: "Show the payload size limits",
		Long: `Show the server limits from the config and the record sizes derived
from them.

The clients collection lives in the in-memory tier, so its records are
held to the smaller memcache limit.

Example:
  clientsync limits --config laptop.yaml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showLimits(rootOpts, cmd)
		},
	}

	return cmd
}

// LimitsResult lists advertised and derived limits in bytes.
type LimitsResult struct {
	MaxRecordPayloadBytes int `json:"max_record_payload_bytes"`
	MaxPostBytes          int `json:"max_post_bytes"`
	MaxRecordPayloadSize  int `json:"max_record_payload_size"`
	MemcacheMaxRecordSize int `json:"memcache_max_record_payload_size"`
}

func (r LimitsResult) String() string {
	return fmt.Sprintf(`Server limits
  max record payload: %d
  max post:           %d
Record size limits
  standard:           %d
  memcache (clients): %d`,
		r.MaxRecordPayloadBytes, r.MaxPostBytes, r.MaxRecordPayloadSize, r.MemcacheMaxRecordSize)
}

func showLimits(opts *RootOptions, cmd *cobra.Command) error {
	out := opts.formatter(cmd)

	cfg, err := loadConfig(opts)
	if err != nil {
		_ = out.Error(ErrCodeConfig, err.Error(), nil)
		return err
	}

	limits := cfg.Limits
	return out.Success(LimitsResult{
		MaxRecordPayloadBytes: limits.MaxRecordPayloadBytes,
		MaxPostBytes:          limits.MaxPostBytes,
		MaxRecordPayloadSize:  limits.MaxRecordPayloadSize(),
		MemcacheMaxRecordSize: limits.MemcacheMaxRecordPayloadSize(),
	})
}
