package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/joho/godotenv"

	"github.com/roach88/clientsync/internal/logger"
)

var (
	loadOnce   sync.Once
	loadedPath string
	loadErr    error
)

// EnsureDotEnv loads the first .env file found from the current working
// directory up to the filesystem root. Variables already set in the
// environment win. Subsequent calls are no-ops.
func EnsureDotEnv() error {
	// Keep unit tests hermetic unless GOTEST_LOAD_DOTENV=1.
	if runningUnderGoTest() && os.Getenv("GOTEST_LOAD_DOTENV") != "1" {
		return nil
	}
	loadOnce.Do(func() {
		log := logger.WithComponent("config")
		path, err := findDotEnv()
		if err != nil {
			loadErr = err
			log.Debug().Err(err).Msg("clientsync: search .env failed")
			return
		}
		if path == "" {
			return
		}
		if err := godotenv.Load(path); err != nil {
			loadErr = err
			log.Warn().Err(err).Str("dotenv", path).Msg("clientsync: load .env failed")
			return
		}
		loadedPath = path
		log.Debug().Str("dotenv", path).Msg("clientsync: loaded .env")
	})
	return loadErr
}

// LoadedDotEnv returns the .env path that was loaded, or "".
func LoadedDotEnv() string {
	return loadedPath
}

func runningUnderGoTest() bool {
	return strings.HasSuffix(os.Args[0], ".test")
}

func findDotEnv() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(wd, ".env")
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		} else if err != nil && !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(wd)
		if parent == wd {
			return "", nil
		}
		wd = parent
	}
}
