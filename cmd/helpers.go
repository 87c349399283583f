package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/ziadkadry99/sitegrep/internal/audit"
	"github.com/ziadkadry99/sitegrep/internal/config"
	"github.com/ziadkadry99/sitegrep/internal/db"
	"github.com/ziadkadry99/sitegrep/internal/injector"
	"github.com/ziadkadry99/sitegrep/internal/search"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `sitegrep init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// newLogger builds the process logger. Logs always go to w so that stdout
// stays free for command output.
func newLogger(cfg *config.Config, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil || cfg.Log.Level == "" {
		level = zerolog.InfoLevel
	}
	if verbose {
		level = zerolog.DebugLevel
	}

	out := w
	if cfg.Log.Format != config.LogFormatJSON {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

func searcherFromConfig(cfg *config.Config, logger zerolog.Logger) *search.Searcher {
	return search.New(search.Config{
		Root:         cfg.Root,
		BaseURL:      cfg.BaseURL,
		Include:      cfg.Include,
		Exclude:      cfg.Exclude,
		Timeout:      cfg.Search.Timeout,
		MaxResults:   cfg.Search.MaxResults,
		MaxLineBytes: cfg.Search.MaxLineBytes,
		Concurrency:  cfg.MaxConcurrency,
	}, logger)
}

func retentionFromConfig(cfg *config.Config) injector.Retention {
	return injector.Retention{Keep: cfg.Backup.Keep, MaxAge: cfg.Backup.MaxAge}
}

// openJournal opens the operations journal under the data directory.
// The returned close function is safe to call when the journal is nil.
func openJournal(cfg *config.Config) (*audit.Store, func() error, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, func() error { return nil }, fmt.Errorf("creating data dir: %w", err)
	}
	database, err := db.Open(cfg.DatabasePath())
	if err != nil {
		return nil, func() error { return nil }, fmt.Errorf("opening journal: %w", err)
	}
	return audit.NewStore(database), database.Close, nil
}
