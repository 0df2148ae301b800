package engine

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/roach88/clientsync/internal/collection"
	"github.com/roach88/clientsync/internal/ir"
)

//go:generate mockgen -destination=mock_manager.go -package=engine github.com/roach88/clientsync/internal/engine CommandManager

// CommandManager is the local side of command delivery.
//
// FetchOutgoingCommands returns the commands this device wants every peer
// to run, in the order they should be appended. ApplyIncomingCommand runs
// a command addressed to this device; an error leaves the command queued
// on our record for the next cycle.
//
// The engine calls each method from a single goroutine and never
// concurrently.
type CommandManager interface {
	FetchOutgoingCommands(ctx context.Context) ([]ir.Command, error)
	ApplyIncomingCommand(ctx context.Context, cmd ir.Command) error
}

// Engine syncs the clients collection. It works differently from other
// collections:
//
//  1. It can't be disabled or declined.
//  2. The cursor is not used to limit the fetch; every record is fetched
//     on every sync so that commands reach every device.
//  3. It does not persist anything. Identity comes from Settings and the
//     command queue from the CommandManager.
//  4. Failing to sync it is fatal to the surrounding sync.
//
// An Engine holds no state between calls to Sync; the scheduler must not
// run two cycles for the same collection at once.
type Engine struct {
	client      collection.Client
	manager     CommandManager
	global      *collection.GlobalState
	settings    ir.Settings
	fullyAtomic bool
	flowIDs     FlowIDGenerator
	logger      zerolog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithFullyAtomic asks the server to commit the whole upload or nothing.
func WithFullyAtomic(atomic bool) Option {
	return func(e *Engine) {
		e.fullyAtomic = atomic
	}
}

// WithFlowIDs attaches a flow id from gen to every command this device adds
// to a peer's record. One id is generated per command per cycle, shared by
// all peers that receive it.
func WithFlowIDs(gen FlowIDGenerator) Option {
	return func(e *Engine) {
		e.flowIDs = gen
	}
}

// WithLogger sets the logger. Default: the global zerolog logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New creates an Engine for one device. settings are copied and never
// modified.
func New(
	client collection.Client,
	manager CommandManager,
	global *collection.GlobalState,
	settings ir.Settings,
	opts ...Option,
) *Engine {
	e := &Engine{
		client:   client,
		manager:  manager,
		global:   global,
		settings: settings,
		logger:   log.Logger,
	}

	for _, opt := range opts {
		opt(e)
	}

	e.logger = e.logger.With().Str("collection", ir.CollectionClients).Logger()
	return e
}

// Stats summarizes one cycle.
type Stats struct {
	// Fetched is the number of records read from the server.
	Fetched int `json:"fetched"`
	// Applied counts incoming commands that ran successfully.
	Applied int `json:"applied"`
	// Requeued counts incoming commands put back on our record.
	Requeued int `json:"requeued"`
	// PeersUpdated counts peer records that received new commands.
	PeersUpdated int `json:"peers_updated"`
	// Truncated counts commands dropped to fit the record size limit.
	Truncated int `json:"truncated"`
	// Uploaded and Failed are the per-record upload results.
	Uploaded int `json:"uploaded"`
	Failed   int `json:"failed"`
	// Timestamp is the collection cursor after the upload.
	Timestamp collection.ServerTimestamp `json:"timestamp"`
}

// Sync runs one cycle: prepare, fetch, merge, upload.
//
// ctx is checked before the fetch, before each record, before each incoming
// command and before the upload. Cancellation returns an INTERRUPTED
// SyncError and nothing is uploaded. Any other failure aborts the cycle;
// nothing needs undoing because the merge is recomputed from a fresh fetch
// next time.
func (e *Engine) Sync(ctx context.Context) (*Stats, error) {
	if e.settings.ClientID == "" {
		return nil, errors.New("engine: settings have no client id")
	}

	e.logger.Info().Msg("syncing collection")

	collState, err := collection.NewCollState(e.global, ir.CollectionClients)
	if err != nil {
		return nil, NewSyncAdapterError("prepare", err)
	}

	stats := &Stats{}

	inbound, err := e.fetchIncoming(ctx, collState)
	if err != nil {
		return nil, err
	}
	stats.Fetched = len(inbound.Changes)
	e.logger.Debug().
		Int("records", stats.Fetched).
		Int64("timestamp", int64(inbound.Timestamp)).
		Msg("fetched records")

	outgoing, err := e.applyIncoming(ctx, inbound, collState.Config, stats)
	if err != nil {
		return nil, err
	}

	// Upload conditional on what we read, not on the stale global cursor.
	collState.LastModified = outgoing.Timestamp

	if err := checkInterrupted(ctx); err != nil {
		return nil, err
	}
	info, err := e.client.Upload(ctx, collState, outgoing, e.fullyAtomic)
	if err != nil {
		if cerr := checkInterrupted(ctx); cerr != nil {
			return nil, cerr
		}
		return nil, NewSyncAdapterError("upload", err)
	}

	stats.Uploaded = len(info.SuccessfulIDs)
	stats.Failed = len(info.FailedIDs)
	stats.Timestamp = info.Modified

	e.logger.Info().
		Int("succeeded", stats.Uploaded).
		Int("failed", stats.Failed).
		Msg("upload finished")
	e.logger.Info().Msg("finished syncing collection")

	return stats, nil
}

// fetchIncoming fetches every record in the collection.
func (e *Engine) fetchIncoming(ctx context.Context, collState *collection.CollState) (*collection.IncomingChangeset, error) {
	req := collection.NewRequest(ir.CollectionClients).Full()

	if err := checkInterrupted(ctx); err != nil {
		return nil, err
	}
	inbound, err := e.client.Fetch(ctx, collState, req)
	if err != nil {
		if cerr := checkInterrupted(ctx); cerr != nil {
			return nil, cerr
		}
		return nil, NewSyncAdapterError("fetch", err)
	}
	if inbound == nil {
		inbound = &collection.IncomingChangeset{Collection: ir.CollectionClients, Timestamp: collState.LastModified}
	}
	return inbound, nil
}

// applyIncoming merges the fetched records into the batch to upload.
//
// Our own record is rebuilt from settings, with every command that failed
// to apply put back. Peer records get our outgoing commands that they do
// not already carry. Both are then trimmed to the record size limit.
func (e *Engine) applyIncoming(
	ctx context.Context,
	inbound *collection.IncomingChangeset,
	config collection.ServerConfig,
	stats *Stats,
) (*collection.OutgoingChangeset, error) {
	outgoing := collection.NewOutgoingChangeset(ir.CollectionClients, inbound.Timestamp)

	if err := checkInterrupted(ctx); err != nil {
		return nil, err
	}
	outgoingCommands, err := e.manager.FetchOutgoingCommands(ctx)
	if err != nil {
		return nil, err
	}
	toSend := ir.NewCommandSet(outgoingCommands...)

	maxSize := config.MemcacheMaxRecordPayloadSize()
	flowIDs := make(map[ir.Command]string)
	emitted := make(map[string]bool, len(inbound.Changes)+1)

	for _, payload := range inbound.Changes {
		if err := checkInterrupted(ctx); err != nil {
			return nil, err
		}

		// Tombstones never appear in this collection, so there is no
		// deletion check.
		var client ir.Client
		if err := payload.IntoRecord(&client); err != nil {
			return nil, NewDecodeError(payload.ID, err)
		}
		if client.ID == "" {
			client.ID = payload.ID
		}
		if emitted[client.ID] {
			e.logger.Warn().Str("id", client.ID).Msg("skipping duplicate client record")
			continue
		}

		var record ir.Client
		if client.ID == e.settings.ClientID {
			record, err = e.mergeOwnRecord(ctx, client, maxSize, stats)
		} else {
			record, err = e.mergePeerRecord(client, toSend, flowIDs, maxSize, stats)
		}
		if err != nil {
			return nil, err
		}

		if err := appendRecord(outgoing, record); err != nil {
			return nil, err
		}
		emitted[record.ID] = true
	}

	// A device that has never synced has no record yet. It is uploaded
	// anyway so peers can discover it.
	if !emitted[e.settings.ClientID] {
		if err := appendRecord(outgoing, e.settings.Record()); err != nil {
			return nil, err
		}
	}

	return outgoing, nil
}

// mergeOwnRecord applies the commands on our fetched record and returns the
// record to upload. We always upload our own record, even if nothing
// changed, to keep it fresh.
func (e *Engine) mergeOwnRecord(ctx context.Context, fetched ir.Client, maxSize int, stats *Stats) (ir.Client, error) {
	current := e.settings.Record()

	for _, cc := range fetched.Commands {
		if err := checkInterrupted(ctx); err != nil {
			return ir.Client{}, err
		}

		var err error
		if cmd, ok := cc.AsCommand(); ok {
			err = e.manager.ApplyIncomingCommand(ctx, cmd)
		} else {
			err = NewUnsupportedCommandError(cc.Name)
		}
		if err == nil {
			stats.Applied++
			continue
		}
		if IsInterrupted(err) {
			return ir.Client{}, err
		}

		// Put it back; we try again next sync, or once this device
		// understands it.
		// TODO: a failed wipe should probably abort the sync instead of
		// requeueing; only "don't understand this command" is harmless.
		e.logger.Warn().Err(err).
			Str("command", cc.Name).
			Strs("args", cc.Args).
			Msg("failed to apply incoming command")
		current.Commands = append(current.Commands, cc)
		stats.Requeued++
	}

	dropped, err := shrinkRecordToFit(&current, maxSize)
	if err != nil {
		return ir.Client{}, err
	}
	e.logTruncation(current.ID, dropped, stats)

	return current, nil
}

// mergePeerRecord appends the commands in toSend that peer does not already
// have. Existing commands, recognized or not, are never removed or reordered
// and every other field is left as fetched.
func (e *Engine) mergePeerRecord(
	peer ir.Client,
	toSend *ir.CommandSet,
	flowIDs map[ir.Command]string,
	maxSize int,
	stats *Stats,
) (ir.Client, error) {
	existing := peer.CommandSet()

	added := toSend.Difference(existing)
	for _, cmd := range added {
		peer.Commands = append(peer.Commands, e.encodeOutgoing(cmd, flowIDs))
	}
	if len(added) > 0 {
		stats.PeersUpdated++
		e.logger.Debug().Str("id", peer.ID).Int("commands", len(added)).Msg("sending commands to peer")
	}

	dropped, err := shrinkRecordToFit(&peer, maxSize)
	if err != nil {
		return ir.Client{}, err
	}
	e.logTruncation(peer.ID, dropped, stats)

	return peer, nil
}

func (e *Engine) encodeOutgoing(cmd ir.Command, flowIDs map[ir.Command]string) ir.ClientCommand {
	if e.flowIDs == nil {
		return ir.NewClientCommand(cmd)
	}
	id, ok := flowIDs[cmd]
	if !ok {
		id = e.flowIDs.Generate()
		flowIDs[cmd] = id
	}
	return ir.NewClientCommandWithFlowID(cmd, id)
}

func (e *Engine) logTruncation(id string, dropped int, stats *Stats) {
	if dropped == 0 {
		return
	}
	stats.Truncated += dropped
	e.logger.Warn().Str("id", id).Int("dropped", dropped).Msg("truncated command list to fit record size limit")
}

func appendRecord(outgoing *collection.OutgoingChangeset, record ir.Client) error {
	payload, err := collection.FromRecord(record.ID, record)
	if err != nil {
		return NewSerializationError(record.ID, err)
	}
	outgoing.Changes = append(outgoing.Changes, payload)
	return nil
}

// checkInterrupted converts a done context into an INTERRUPTED error.
func checkInterrupted(ctx context.Context) error {
	if ctx.Err() == nil {
		return nil
	}
	return NewInterruptedError(context.Cause(ctx))
}
