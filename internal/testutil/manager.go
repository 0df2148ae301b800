package testutil

import (
	"context"
	"slices"
	"sync"

	"github.com/roach88/clientsync/internal/ir"
)

// FakeManager is a scripted command manager. Outgoing is returned by
// FetchOutgoingCommands; ApplyIncomingCommand records every call and fails
// the commands listed in Fail.
type FakeManager struct {
	mu sync.Mutex

	Outgoing    []ir.Command
	OutgoingErr error
	Fail        map[ir.Command]error

	// Calls lists every command passed to ApplyIncomingCommand, Applied
	// only the ones that succeeded.
	Calls   []ir.Command
	Applied []ir.Command

	OutgoingFetches int
}

// NewFakeManager creates a manager that will send outgoing.
func NewFakeManager(outgoing ...ir.Command) *FakeManager {
	return &FakeManager{Outgoing: outgoing, Fail: make(map[ir.Command]error)}
}

// FetchOutgoingCommands implements engine.CommandManager.
func (m *FakeManager) FetchOutgoingCommands(ctx context.Context) ([]ir.Command, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OutgoingFetches++
	if m.OutgoingErr != nil {
		return nil, m.OutgoingErr
	}
	return slices.Clone(m.Outgoing), nil
}

// ApplyIncomingCommand implements engine.CommandManager.
func (m *FakeManager) ApplyIncomingCommand(ctx context.Context, cmd ir.Command) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, cmd)
	if err := m.Fail[cmd]; err != nil {
		return err
	}
	m.Applied = append(m.Applied, cmd)
	return nil
}

// MemoryQueue is an in-memory outgoing command queue and applied-command
// log with the same semantics as the SQLite store.
type MemoryQueue struct {
	mu       sync.Mutex
	outgoing []ir.Command
	applied  []ir.Command
}

// NewMemoryQueue creates an empty queue.
func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{}
}

// EnqueueOutgoing adds cmd unless it is already queued.
func (q *MemoryQueue) EnqueueOutgoing(ctx context.Context, cmd ir.Command) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !slices.Contains(q.outgoing, cmd) {
		q.outgoing = append(q.outgoing, cmd)
	}
	return nil
}

// OutgoingCommands returns queued commands in insertion order.
func (q *MemoryQueue) OutgoingCommands(ctx context.Context) ([]ir.Command, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return slices.Clone(q.outgoing), nil
}

// AckOutgoing removes cmds from the queue.
func (q *MemoryQueue) AckOutgoing(ctx context.Context, cmds []ir.Command) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.outgoing = slices.DeleteFunc(q.outgoing, func(c ir.Command) bool {
		return slices.Contains(cmds, c)
	})
	return nil
}

// RecordApplied appends cmd to the applied log.
func (q *MemoryQueue) RecordApplied(ctx context.Context, cmd ir.Command) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.applied = append(q.applied, cmd)
	return nil
}

// AppliedCommands returns the applied log in order.
func (q *MemoryQueue) AppliedCommands(ctx context.Context) ([]ir.Command, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return slices.Clone(q.applied), nil
}
