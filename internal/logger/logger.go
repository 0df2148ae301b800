// Package logger configures structured logging with zerolog.
//
// Logs go to stderr by default so that command output on stdout stays
// machine-readable.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config controls the global logger.
type Config struct {
	Level      string `json:"level" yaml:"level"`
	Debug      bool   `json:"debug" yaml:"debug"`
	Output     string `json:"output" yaml:"output"`
	TimeFormat string `json:"time_format" yaml:"time_format"`
	// Console switches from JSON lines to zerolog's human-readable writer.
	Console bool `json:"console" yaml:"console"`
}

// DefaultConfig logs info and above as JSON to stderr.
func DefaultConfig() Config {
	return Config{Level: "info", Output: "stderr"}
}

// New builds a logger from config without touching the global one.
// A nil w selects the writer named by config.Output.
func New(config Config, w io.Writer) (zerolog.Logger, error) {
	if w == nil {
		w = os.Stderr
		if config.Output == "stdout" {
			w = os.Stdout
		}
	}
	if config.Console {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}

	level := zerolog.InfoLevel
	if config.Debug {
		level = zerolog.DebugLevel
	} else if config.Level != "" {
		var err error
		level, err = zerolog.ParseLevel(config.Level)
		if err != nil {
			return zerolog.Logger{}, err
		}
	}

	return zerolog.New(w).Level(level).With().Timestamp().Logger(), nil
}

// Init replaces the global logger.
func Init(config Config) error {
	logger, err := New(config, nil)
	if err != nil {
		return err
	}
	if config.TimeFormat != "" {
		zerolog.TimeFieldFormat = config.TimeFormat
	}
	log.Logger = logger
	return nil
}

// WithComponent returns the global logger tagged with a component name.
func WithComponent(component string) zerolog.Logger {
	return log.Logger.With().Str("component", component).Logger()
}
