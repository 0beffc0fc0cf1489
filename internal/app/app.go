// Package app builds the objects a tasklist process works with: config,
// logger, storage backend, task store, backup manager and theme notifier.
// Both the TUI and the CLI subcommands start from a Context.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tasklist/internal/backup"
	"tasklist/internal/config"
	"tasklist/internal/storage"
	"tasklist/internal/ui"
)

// Options select where configuration and data come from.
type Options struct {
	// ConfigPath overrides the default config file location.
	ConfigPath string

	// DataDir overrides the configured data directory.
	DataDir string

	// LogOutput replaces the log file. Tests pass io.Discard.
	LogOutput io.Writer

	// SkipMigration leaves a legacy tasks.json alone.
	SkipMigration bool
}

// Context holds everything built at process start. Close releases the
// backend and the log file.
type Context struct {
	Config  *config.Config
	Logger  *slog.Logger
	Backend storage.Backend
	Store   *storage.Store
	Backups *backup.Manager
	Theme   *ui.ThemeNotifier

	// DB is the SQLite backend, nil when the JSON backend is configured.
	DB *storage.SQLite

	// Migration reports what the legacy import did at startup.
	Migration storage.MigrationResult

	// LoadErr is set when the stored data could not be read and the
	// defaults were seeded instead.
	LoadErr error

	logFile *os.File
}

// New loads configuration, opens the configured backend and loads the store.
func New(ctx context.Context, opts Options) (*Context, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.ConfigPath != "" {
		cfg, err = config.LoadFile(opts.ConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if opts.DataDir != "" {
		cfg.DataDir = opts.DataDir
	}

	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	c := &Context{Config: cfg}
	if err := c.openLogger(opts.LogOutput); err != nil {
		return nil, err
	}

	if err := c.openBackend(ctx, dataDir, opts.SkipMigration); err != nil {
		_ = c.Close()
		return nil, err
	}

	c.Store = storage.NewStore(c.Backend, c.Logger)
	if err := c.Store.Load(ctx); err != nil {
		// Defaults are seeded; keep going so the user can still work.
		c.LoadErr = err
		c.Logger.Error("using default categories", "error", err)
	}

	if mode := storage.Theme(cfg.Theme.Mode); mode != "" && mode != c.Store.Theme() {
		if err := c.Store.SetTheme(ctx, mode); err != nil {
			c.Logger.Warn("failed to apply configured theme", "mode", mode, "error", err)
		}
	}

	c.Backups = backup.NewManager(dataDir)
	c.Theme = ui.NewThemeNotifier(c.Store.Theme(), cfg.Theme.Accent)

	c.Logger.Info("started",
		"data_dir", dataDir,
		"backend", cfg.Storage.Backend,
		"config", cfg.Path(),
		"categories", len(c.Store.CategoryNames()),
	)
	return c, nil
}

func (c *Context) openLogger(out io.Writer) error {
	if out == nil {
		path := c.Config.LogPath()
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("create log directory: %w", err)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		c.logFile = f
		out = f
	}
	c.Logger = slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{
		Level: ParseLevel(c.Config.Log.Level),
	}))
	return nil
}

func (c *Context) openBackend(ctx context.Context, dataDir string, skipMigration bool) error {
	if c.Config.Storage.Backend == config.BackendJSON {
		f, err := storage.NewJSONFile(dataDir)
		if err != nil {
			return err
		}
		c.Backend = f
		return nil
	}

	db, err := storage.OpenSQLite(filepath.Join(dataDir, storage.DatabaseFile))
	if err != nil {
		return err
	}
	c.DB = db
	c.Backend = db

	if skipMigration {
		return nil
	}
	res, err := storage.MigrateLegacy(ctx, db, dataDir)
	if err != nil {
		// The legacy file stays in place and is retried on the next start.
		c.Logger.Error("legacy migration failed", "source", res.Source, "error", err)
		return nil
	}
	c.Migration = res
	if !res.Skipped {
		c.Logger.Info("migrated legacy data",
			"source", res.Source,
			"categories", res.Categories,
			"tasks", res.Tasks,
		)
	}
	return nil
}

// UIOptions returns the options the TUI runs with.
func (c *Context) UIOptions() ui.Options {
	ux := c.Config.UX
	return ui.Options{
		Store:   c.Store,
		Backups: c.Backups,
		Theme:   c.Theme,
		Logger:  c.Logger,
		Config: &ui.AppConfig{
			Keys:                  &c.Config.Keys,
			ConfirmDeletions:      ux.ConfirmDeletions,
			NarrowLayoutThreshold: ux.NarrowLayoutThreshold,
			ExportDir:             exportDir(),
		},
	}
}

// exportDir is where the TUI export prompt starts: the working directory,
// or the home directory when that is unknown.
func exportDir() string {
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "."
}

// Close releases the backend and the log file.
func (c *Context) Close() error {
	var errs []error
	if c.Backend != nil {
		if err := c.Backend.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close storage: %w", err))
		}
		c.Backend = nil
	}
	if c.logFile != nil {
		if c.Logger != nil {
			c.Logger.Info("stopped", "at", time.Now().Format(time.DateTime))
		}
		if err := c.logFile.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close log: %w", err))
		}
		c.logFile = nil
	}
	return errors.Join(errs...)
}

// ParseLevel maps a config level name to a slog level. Unknown names mean
// info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
