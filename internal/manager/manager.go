// Package manager applies the commands other devices send us and keeps the
// queue of commands we send them.
//
// A Manager is the engine.CommandManager of a device. Local data stores
// register with it as LocalEngines under the engine names used on the wire
// ("passwords", "history", "bookmarks"); a per-engine command is routed to
// the engine with that name, WipeAll and ResetAll to every registered one.
package manager

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/roach88/clientsync/internal/engine"
	"github.com/roach88/clientsync/internal/ir"
)

// KnownEngines lists the engine names commands can target.
var KnownEngines = []string{ir.EngineBookmarks, ir.EngineHistory, ir.EnginePasswords}

// LocalEngine is a local data store that can be wiped or reset.
//
// Wipe deletes the engine's data locally without syncing the deletion.
// Reset forgets sync state so the next sync starts from scratch.
type LocalEngine interface {
	Name() string
	Wipe(ctx context.Context) error
	Reset(ctx context.Context) error
}

// Queue persists outgoing commands and records applied ones.
// *store.Queue and testutil.MemoryQueue implement it.
type Queue interface {
	EnqueueOutgoing(ctx context.Context, cmd ir.Command) error
	OutgoingCommands(ctx context.Context) ([]ir.Command, error)
	AckOutgoing(ctx context.Context, cmds []ir.Command) error
	RecordApplied(ctx context.Context, cmd ir.Command) error
}

// Handle identifies a registered engine.
type Handle uint64

// Manager implements engine.CommandManager.
//
// Thread-safety: all methods are safe for concurrent use.
type Manager struct {
	mu      sync.Mutex
	queue   Queue
	engines map[Handle]LocalEngine
	next    Handle
	closed  bool
	logger  zerolog.Logger
}

var _ engine.CommandManager = (*Manager)(nil)

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger. Default: the global zerolog logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// New creates a Manager backed by queue.
func New(queue Queue, opts ...Option) *Manager {
	m := &Manager{
		queue:   queue,
		engines: make(map[Handle]LocalEngine),
		next:    1,
		logger:  log.Logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Register adds e and returns its handle. The name must be one of
// KnownEngines and not already registered.
func (m *Manager) Register(e LocalEngine) (Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, engine.NewConnectionClosedError(e.Name())
	}
	if !slices.Contains(KnownEngines, e.Name()) {
		return 0, engine.NewUnknownEngineError(e.Name())
	}
	for _, existing := range m.engines {
		if existing.Name() == e.Name() {
			return 0, errors.Errorf("engine %q already registered", e.Name())
		}
	}

	h := m.next
	m.next++
	m.engines[h] = e
	return h, nil
}

// Unregister removes the engine behind h.
func (m *Manager) Unregister(h Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.engines[h]; !ok {
		return engine.NewInvalidHandleError(uint64(h))
	}
	delete(m.engines, h)
	return nil
}

// Close releases every engine. Afterwards every operation fails with
// CONNECTION_CLOSED.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	clear(m.engines)
	return nil
}

// ApplyIncomingCommand runs cmd against the local engines and records it in
// the applied log.
func (m *Manager) ApplyIncomingCommand(ctx context.Context, cmd ir.Command) error {
	if err := ctx.Err(); err != nil {
		return engine.NewInterruptedError(context.Cause(ctx))
	}

	targets, err := m.targets(cmd)
	if err != nil {
		return err
	}

	for _, e := range targets {
		if cmd.IsWipe() {
			err = e.Wipe(ctx)
		} else {
			err = e.Reset(ctx)
		}
		if err != nil {
			if ctx.Err() != nil {
				return engine.NewInterruptedError(context.Cause(ctx))
			}
			return errors.Wrapf(err, "%s: engine %s", cmd, e.Name())
		}
	}

	m.logger.Info().Str("command", cmd.String()).Int("engines", len(targets)).Msg("applied incoming command")
	return errors.Wrapf(m.queue.RecordApplied(ctx, cmd), "record %s", cmd)
}

// targets resolves the engines cmd applies to, sorted by name.
func (m *Manager) targets(cmd ir.Command) ([]LocalEngine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, engine.NewConnectionClosedError(cmd.Engine())
	}

	name := cmd.Engine()
	var out []LocalEngine
	for _, e := range m.engines {
		if name == "" || e.Name() == name {
			out = append(out, e)
		}
	}
	// A command that reaches no engine has not been applied.
	if len(out) == 0 {
		feature := name
		if feature == "" {
			feature = cmd.String()
		}
		return nil, engine.NewUnsupportedFeatureError(feature)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out, nil
}

// FetchOutgoingCommands returns the queued commands.
func (m *Manager) FetchOutgoingCommands(ctx context.Context) ([]ir.Command, error) {
	if err := m.checkOpen("queue"); err != nil {
		return nil, err
	}
	return m.queue.OutgoingCommands(ctx)
}

// SendCommand queues cmd for every peer on the next sync.
func (m *Manager) SendCommand(ctx context.Context, cmd ir.Command) error {
	if err := m.checkOpen("queue"); err != nil {
		return err
	}
	return m.queue.EnqueueOutgoing(ctx, cmd)
}

// AckOutgoing drops cmds from the queue after they were uploaded.
func (m *Manager) AckOutgoing(ctx context.Context, cmds []ir.Command) error {
	if err := m.checkOpen("queue"); err != nil {
		return err
	}
	return m.queue.AckOutgoing(ctx, cmds)
}

func (m *Manager) checkOpen(what string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return engine.NewConnectionClosedError(what)
	}
	return nil
}
