package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/clientsync/internal/ir"
)

// NewSendCommand creates the send command.
func NewSendCommand(rootOpts *RootOptions) *cobra.Command {
	var names []string
	for _, c := range ir.AllCommands {
		names = append(names, c.String())
	}

	cmd := &cobra.Command{
		Use:   "send <command>",
		Short: "Queue a command for every other device",
		Long: `Queue a command for every other device.

The command is added to each peer's record on the next sync. Sending a
command that is already queued does nothing.

Commands: ` + strings.Join(names, ", ") + `

Example:
  clientsync send wipe-history --config laptop.yaml`,
		Args:          cobra.ExactArgs(1),
		ValidArgs:     names,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return sendCommand(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

// SendResult lists the outgoing queue after a send.
type SendResult struct {
	Command string   `json:"command"`
	Queued  []string `json:"queued"`
}

func (r SendResult) String() string {
	return fmt.Sprintf("Queued %s\n  outgoing: %s", r.Command, strings.Join(r.Queued, ", "))
}

func sendCommand(opts *RootOptions, name string, cmd *cobra.Command) error {
	out := opts.formatter(cmd)

	c, err := ir.ParseCommand(name)
	if err != nil {
		_ = out.Error(ErrCodeBadCommand, err.Error(), nil)
		return WrapExitError(ExitCommandError, "bad command", err)
	}

	ctx := cmd.Context()
	a, err := openApp(ctx, opts, cmd.ErrOrStderr())
	if err != nil {
		_ = out.Error(ErrCodeConfig, err.Error(), nil)
		return err
	}
	defer a.close()

	if err := a.manager.SendCommand(ctx, c); err != nil {
		_ = out.Error(ErrCodeStore, "failed to queue command", err.Error())
		return WrapExitError(ExitFailure, "failed to queue command", err)
	}

	queued, err := a.manager.FetchOutgoingCommands(ctx)
	if err != nil {
		_ = out.Error(ErrCodeStore, "failed to read outgoing commands", err.Error())
		return WrapExitError(ExitFailure, "failed to read outgoing commands", err)
	}

	result := SendResult{Command: c.String(), Queued: []string{}}
	for _, q := range queued {
		result.Queued = append(result.Queued, q.String())
	}
	return out.Success(result)
}
