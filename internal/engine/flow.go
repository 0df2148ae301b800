package engine

import (
	"sync"

	"github.com/google/uuid"
)

// FlowIDGenerator produces the correlation ids attached to commands this
// device sends. Other clients record them in telemetry; nothing here reads
// them back.
type FlowIDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 flow ids, which makes the
// commands of one send easy to group when reading telemetry.
//
// Thread-safety: stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate returns a hyphenated UUIDv7, e.g.
// "018f3c2a-7b1e-7c3d-9a2b-1c2d3e4f5a6b".
//
// Panics if the random source fails.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator returns predetermined flow ids in order, for tests that
// compare uploaded records byte for byte.
type FixedGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedGenerator creates a generator that returns ids in order.
//
//	gen := NewFixedGenerator("flow-1", "flow-2")
//	gen.Generate() // "flow-1"
//	gen.Generate() // "flow-2"
//	gen.Generate() // panic: all flow ids exhausted
func NewFixedGenerator(ids ...string) *FixedGenerator {
	return &FixedGenerator{ids: ids}
}

// Generate returns the next predetermined id.
//
// Panics when all ids have been used, so a test that sends more commands
// than it expected fails loudly.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.ids) {
		panic("FixedGenerator: all flow ids exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}
