package harness

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/roach88/clientsync/internal/collection"
	"github.com/roach88/clientsync/internal/engine"
	"github.com/roach88/clientsync/internal/ir"
	"github.com/roach88/clientsync/internal/manager"
	"github.com/roach88/clientsync/internal/testutil"
)

// FlowIDPrefix prefixes the deterministic flow ids of scenarios that
// enable flow_ids.
const FlowIDPrefix = "flow"

// Harness is the test execution engine.
// It runs one scenario against the real sync engine and command manager,
// with an in-memory server, a logical clock and sequential flow ids.
type Harness struct {
	server  *testutil.FakeServer
	queue   *testutil.MemoryQueue
	manager *manager.Manager
	result  *Result
	logger  zerolog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs against a fresh server and queue for isolation.
// Deterministic helpers ensure reproducible results.
//
// Execution flow:
// 1. Seed the server with the scenario's records
// 2. Queue outgoing commands and register local engines
// 3. Run one sync cycle
// 4. Collect applied commands, the upload and the server contents
// 5. Evaluate assertions
//
// A cycle that fails is not an error here; it is reported in Result.Err
// for error_kind assertions. The error return is for scenarios that cannot
// be set up.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	h := &Harness{
		server: testutil.NewFakeServer(testutil.NewTimestampClock(0)),
		queue:  testutil.NewMemoryQueue(),
		result: NewResult(),
		logger: zerolog.Nop(), // Suppress logs in tests
	}
	h.manager = manager.New(h.queue, manager.WithLogger(h.logger))
	defer h.manager.Close()

	if err := h.setup(ctx, scenario); err != nil {
		return nil, fmt.Errorf("failed to execute setup: %w", err)
	}

	limits := collection.DefaultServerConfig()
	if scenario.Limits != nil {
		limits = *scenario.Limits
	}
	global := &collection.GlobalState{
		Config:      limits,
		Collections: map[string]collection.ServerTimestamp{ir.CollectionClients: h.server.LastModified()},
		Keys:        collection.StaticKeys{ID: "harness-key"},
	}

	opts := []engine.Option{
		engine.WithFullyAtomic(scenario.FullyAtomic),
		engine.WithLogger(h.logger),
	}
	if scenario.FlowIDs {
		opts = append(opts, engine.WithFlowIDs(testutil.NewSequenceFlowGenerator(FlowIDPrefix)))
	}
	eng := engine.New(h.server, h.manager, global, scenario.Device, opts...)

	h.server.OnFetch = func() {
		h.result.addTrace(TraceEvent{Type: EventFetch, Records: len(h.server.IDs())})
	}

	stats, err := eng.Sync(ctx)
	h.result.Stats = stats
	h.result.Err = err

	if err := h.collect(ctx); err != nil {
		return nil, fmt.Errorf("failed to collect results: %w", err)
	}

	// Evaluate assertions against the result
	for _, errMsg := range EvaluateAssertions(h.result, scenario.Assertions) {
		h.result.AddError(errMsg)
	}

	return h.result, nil
}

// setup seeds the server, queues outgoing commands and registers engines.
func (h *Harness) setup(ctx context.Context, scenario *Scenario) error {
	for _, r := range scenario.Records {
		if r.Raw != "" {
			h.server.PutRaw(r.ID, r.Raw)
			continue
		}
		if err := h.server.Put(r.ID, r.Record); err != nil {
			return fmt.Errorf("seed record %s: %w", r.ID, err)
		}
	}
	for _, id := range scenario.Reject {
		h.server.Reject[id] = true
	}

	for _, name := range scenario.Outgoing {
		cmd, err := ir.ParseCommand(name)
		if err != nil {
			return err
		}
		if err := h.queue.EnqueueOutgoing(ctx, cmd); err != nil {
			return err
		}
	}

	failing := make(map[string]bool, len(scenario.FailingEngines))
	for _, name := range scenario.FailingEngines {
		failing[name] = true
	}
	engines := scenario.Engines
	if len(engines) == 0 {
		engines = manager.KnownEngines
	}
	for _, name := range engines {
		e := &tracingEngine{name: name, fail: failing[name], result: h.result}
		if _, err := h.manager.Register(e); err != nil {
			return fmt.Errorf("register engine %s: %w", name, err)
		}
	}
	return nil
}

// collect fills the result from the queue and the server.
func (h *Harness) collect(ctx context.Context) error {
	applied, err := h.queue.AppliedCommands(ctx)
	if err != nil {
		return err
	}
	h.result.Applied = applied

	if n := len(h.server.Uploads); n > 0 {
		call := h.server.Uploads[n-1]
		ids := call.Changes.IDs()
		h.result.addTrace(TraceEvent{Type: EventUpload, IDs: ids, Atomic: call.Atomic})

		h.result.Uploaded = make([]ir.Client, 0, len(call.Changes.Changes))
		for _, p := range call.Changes.Changes {
			var c ir.Client
			if err := p.IntoRecord(&c); err != nil {
				return fmt.Errorf("decode uploaded %s: %w", p.ID, err)
			}
			h.result.Uploaded = append(h.result.Uploaded, c)
		}
	}

	for _, id := range h.server.IDs() {
		raw, _ := h.server.Raw(id)
		rec := StoredRecord{ID: id, Raw: raw}
		var c ir.Client
		if err := json.Unmarshal([]byte(raw), &c); err == nil {
			rec.Client = &c
		}
		h.result.Records = append(h.result.Records, rec)
	}
	return nil
}

// errEngineFailed is returned by engines listed in failing_engines.
var errEngineFailed = errors.New("engine failed")

// tracingEngine is a local engine that records every wipe and reset in the
// result trace.
type tracingEngine struct {
	name   string
	fail   bool
	result *Result
}

func (e *tracingEngine) Name() string { return e.name }

func (e *tracingEngine) Wipe(ctx context.Context) error {
	return e.record(EventWipe)
}

func (e *tracingEngine) Reset(ctx context.Context) error {
	return e.record(EventReset)
}

func (e *tracingEngine) record(op string) error {
	e.result.addTrace(TraceEvent{Type: op, Engine: e.name, Failed: e.fail})
	if e.fail {
		return fmt.Errorf("%s %s: %w", op, e.name, errEngineFailed)
	}
	return nil
}

// commandName names a record command for assertions and snapshots.
// Canonical commands use their CLI name; anything else its wire name with
// arguments.
func commandName(cc ir.ClientCommand) string {
	if c, ok := cc.AsCommand(); ok {
		return c.String()
	}
	if len(cc.Args) == 0 {
		return cc.Name
	}
	return cc.Name + "(" + strings.Join(cc.Args, ",") + ")"
}
