package manager

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// JournalEngine is a LocalEngine with no data of its own. It logs and
// counts wipes and resets, which is all the CLI needs to show a command
// arrived.
type JournalEngine struct {
	name   string
	logger zerolog.Logger

	mu     sync.Mutex
	wipes  int
	resets int
}

// NewJournalEngine creates a JournalEngine registered under name.
func NewJournalEngine(name string, logger zerolog.Logger) *JournalEngine {
	return &JournalEngine{name: name, logger: logger.With().Str("engine", name).Logger()}
}

// Name implements LocalEngine.
func (j *JournalEngine) Name() string { return j.name }

// Wipe implements LocalEngine.
func (j *JournalEngine) Wipe(ctx context.Context) error {
	j.mu.Lock()
	j.wipes++
	j.mu.Unlock()
	j.logger.Warn().Msg("wipe requested by remote device")
	return nil
}

// Reset implements LocalEngine.
func (j *JournalEngine) Reset(ctx context.Context) error {
	j.mu.Lock()
	j.resets++
	j.mu.Unlock()
	j.logger.Info().Msg("reset requested by remote device")
	return nil
}

// Counts returns how many wipes and resets were applied.
func (j *JournalEngine) Counts() (wipes, resets int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.wipes, j.resets
}
