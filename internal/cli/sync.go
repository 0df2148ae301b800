package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/clientsync/internal/engine"
)

// SyncOptions holds flags for the sync command.
type SyncOptions struct {
	*RootOptions

	// FlowGenerator allows overriding the flow id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	FlowGenerator engine.FlowIDGenerator
}

// NewSyncCommand creates the sync command.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SyncOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one sync of the clients collection",
		Long: `Run one sync of the clients collection.

Fetches every client record, applies commands addressed to this device,
adds queued outgoing commands to every other device's record and uploads
the result. Outgoing commands are removed from the queue once every record
has been uploaded.

Example:
  clientsync sync --config laptop.yaml
  clientsync sync --config phone.yaml --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(opts, cmd)
		},
	}

	return cmd
}

// SyncResult is the outcome of one sync.
type SyncResult struct {
	*engine.Stats
	// Acked is the number of outgoing commands removed from the queue.
	Acked int `json:"acked"`
}

func (r SyncResult) String() string {
	return fmt.Sprintf(
		"Synced %d records at %d\n  applied: %d, requeued: %d\n  peers updated: %d, commands sent: %d\n  uploaded: %d, failed: %d, truncated: %d",
		r.Fetched, r.Timestamp, r.Applied, r.Requeued, r.PeersUpdated, r.Acked, r.Uploaded, r.Failed, r.Truncated)
}

func runSync(opts *SyncOptions, cmd *cobra.Command) error {
	out := opts.formatter(cmd)

	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx, opts.RootOptions, cmd.ErrOrStderr())
	if err != nil {
		_ = out.Error(ErrCodeConfig, err.Error(), nil)
		return err
	}
	defer a.close()

	global, err := a.store.GlobalState(ctx)
	if err != nil {
		_ = out.Error(ErrCodeStore, "failed to read collection state", err.Error())
		return WrapExitError(ExitFailure, "failed to read collection state", err)
	}

	// The queue can grow during the cycle; only what the engine saw is acked.
	pending, err := a.manager.FetchOutgoingCommands(ctx)
	if err != nil {
		_ = out.Error(ErrCodeStore, "failed to read outgoing commands", err.Error())
		return WrapExitError(ExitFailure, "failed to read outgoing commands", err)
	}

	engineOpts := []engine.Option{
		engine.WithFullyAtomic(a.cfg.FullyAtomic),
		engine.WithLogger(a.logger),
	}
	if a.cfg.FlowIDs {
		gen := opts.FlowGenerator
		if gen == nil {
			gen = engine.UUIDv7Generator{}
		}
		engineOpts = append(engineOpts, engine.WithFlowIDs(gen))
	}
	eng := engine.New(a.store, a.manager, global, a.cfg.Device, engineOpts...)

	out.VerboseLog("syncing %s as %s (%s)", a.cfg.Database, a.cfg.Device.Name, a.cfg.Device.ClientID)
	stats, err := eng.Sync(ctx)
	if err != nil {
		_ = out.Failure(errorCode(err), "sync failed", err)
		return WrapExitError(ExitFailure, "sync failed", err)
	}

	result := SyncResult{Stats: stats}
	if stats.Failed == 0 && len(pending) > 0 {
		if err := a.manager.AckOutgoing(ctx, pending); err != nil {
			_ = out.Error(ErrCodeStore, "failed to ack outgoing commands", err.Error())
			return WrapExitError(ExitFailure, "failed to ack outgoing commands", err)
		}
		result.Acked = len(pending)
	} else if stats.Failed > 0 {
		a.logger.Warn().Int("failed", stats.Failed).Int("pending", len(pending)).
			Msg("records failed to upload; keeping outgoing commands queued")
	}

	return out.Success(result)
}
