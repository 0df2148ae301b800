package cli

import (
	"context"
	"io"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/roach88/clientsync/internal/config"
	"github.com/roach88/clientsync/internal/logger"
	"github.com/roach88/clientsync/internal/manager"
	"github.com/roach88/clientsync/internal/store"
)

// app is everything a command needs for one device: its config, the
// store holding the collection and its queues, and a command manager with
// a journal engine registered for every known engine.
type app struct {
	cfg     *config.Config
	store   *store.Store
	manager *manager.Manager
	logger  zerolog.Logger
}

// loadConfig loads opts.Config. Errors carry ExitCommandError.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config "+opts.Config, err)
	}
	if opts.Verbose {
		cfg.Log.Debug = true
	}
	return cfg, nil
}

// openApp loads the config and opens the store. Logs go to logOut.
// Callers must call close.
func openApp(ctx context.Context, opts *RootOptions, logOut io.Writer) (*app, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Log, logOut)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid log config", err)
	}
	log = log.With().Str("client_id", cfg.Device.ClientID).Logger()
	if path := config.LoadedDotEnv(); path != "" {
		log.Debug().Str("dotenv", path).Msg("environment loaded from .env")
	}

	log.Debug().Str("path", cfg.Database).Msg("opening database")
	st, err := store.Open(cfg.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	if err := st.SetServerConfig(ctx, cfg.Limits); err != nil {
		_ = st.Close()
		return nil, WrapExitError(ExitCommandError, "failed to store limits", err)
	}

	mgr := manager.New(st.Queue(cfg.Device.ClientID), manager.WithLogger(log))
	for _, name := range manager.KnownEngines {
		if _, err := mgr.Register(manager.NewJournalEngine(name, log)); err != nil {
			_ = st.Close()
			return nil, errors.Wrapf(err, "register %s", name)
		}
	}

	return &app{cfg: cfg, store: st, manager: mgr, logger: log}, nil
}

func (a *app) close() {
	if err := a.manager.Close(); err != nil {
		a.logger.Error().Err(err).Msg("error closing manager")
	}
	if err := a.store.Close(); err != nil {
		a.logger.Error().Err(err).Msg("error closing database")
	}
}
