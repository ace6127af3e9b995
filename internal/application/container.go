// Package application provides application-level services and dependency injection.
package application

import (
	"context"
	"fmt"

	"github.com/sadhanaworks/sadhana/internal/application/backup"
	"github.com/sadhanaworks/sadhana/internal/application/runner"
	"github.com/sadhanaworks/sadhana/internal/application/stores"
	appSync "github.com/sadhanaworks/sadhana/internal/application/sync"
	"github.com/sadhanaworks/sadhana/internal/infrastructure/config"
	"github.com/sadhanaworks/sadhana/internal/infrastructure/library"
	"github.com/sadhanaworks/sadhana/internal/infrastructure/logging"
	"github.com/sadhanaworks/sadhana/internal/infrastructure/storage"
	"github.com/sadhanaworks/sadhana/internal/infrastructure/tracing"
)

// Container holds all application dependencies and provides a central point
// for dependency injection. Every service receives its collaborators here;
// nothing reaches for package-level state.
type Container struct {
	config     *config.Config
	appVersion string
	verbose    bool

	logger *logging.Logger
	tracer *tracing.Tracer

	backend storage.Backend

	progressStore    *stores.ProgressStore
	preferencesStore *stores.PreferencesStore

	backupManager  *backup.Manager
	backupReminder *backup.Reminder

	hub *appSync.Hub

	library        *library.Library
	libraryWatcher *library.Watcher

	runner *runner.Runner
}

// NewContainer creates a container with all services initialized from the
// provided configuration.
func NewContainer(cfg *config.Config, appVersion string, verbose bool) (*Container, error) {
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	c := &Container{
		config:     cfg,
		appVersion: appVersion,
		verbose:    verbose,
	}

	c.initObservability()

	if err := c.initBackend(); err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	if err := c.initServices(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	return c, nil
}

// initObservability sets up the logger and tracer.
func (c *Container) initObservability() {
	level := logging.Level(c.config.Logging.Level)
	if c.verbose {
		level = logging.LevelDebug
	}

	format := logging.FormatText
	if c.config.Logging.Format == "json" {
		format = logging.FormatJSON
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = level
	logCfg.Format = format
	c.logger = logging.New(logCfg)

	if c.config.Tracing.Enabled {
		tracer, err := tracing.New(context.Background(), tracing.Config{
			Enabled:      true,
			ExporterType: tracing.ExporterType(c.config.Tracing.ExporterType),
			OTLPEndpoint: c.config.Tracing.OTLPEndpoint,
			ServiceName:  c.config.Tracing.ServiceName,
			SampleRate:   c.config.Tracing.SampleRate,
		})
		if err != nil {
			c.logger.Warn("tracing disabled", "error", err)
		} else {
			c.tracer = tracer
		}
	}
	if c.tracer == nil {
		c.tracer = tracing.Default()
	}
}

// initBackend opens the configured storage backend.
func (c *Container) initBackend() error {
	switch c.config.Storage.Driver {
	case "sqlite":
		cfg := storage.DefaultSQLiteBackendConfig(c.config.Storage.DatabasePath)
		cfg.BudgetBytes = c.config.Storage.QuotaBytes
		cfg.PollInterval = c.config.Storage.PollInterval
		backend, err := storage.OpenSQLiteBackend(cfg)
		if err != nil {
			return err
		}
		c.backend = backend

	default:
		cfg := storage.DefaultFileBackendConfig(c.config.Storage.Dir)
		cfg.BudgetBytes = c.config.Storage.QuotaBytes
		backend, err := storage.NewFileBackend(cfg)
		if err != nil {
			return err
		}
		c.backend = backend
	}
	return nil
}

// initServices wires the stores, backup, sync, library, and runner.
func (c *Container) initServices() error {
	c.progressStore = stores.NewProgressStore(c.backend, c.logger)
	c.preferencesStore = stores.NewPreferencesStore(c.backend, c.logger)

	c.backupManager = backup.NewManager(c.backend, c.logger, c.tracer, c.appVersion)
	c.backupReminder = backup.NewReminder(c.backupManager, c.config.Backup.ReminderDays)

	c.hub = appSync.NewHub(c.backend, c.logger)

	c.library = library.NewLibrary(c.config.Library.Directory, c.logger)
	if err := c.library.Reload(); err != nil {
		c.logger.Warn("some library files failed to load", "error", err)
	}

	if c.config.Library.HotReload {
		watcher, err := library.NewWatcher(c.library, library.DefaultWatcherConfig(), c.logger)
		if err != nil {
			c.logger.Warn("library hot reload unavailable", "error", err)
		} else {
			c.libraryWatcher = watcher
		}
	}

	c.runner = runner.NewRunner(c.logger, c.tracer)
	return nil
}

// StartLibraryWatching starts the library hot-reload watcher, if enabled.
func (c *Container) StartLibraryWatching(ctx context.Context) error {
	if c.libraryWatcher == nil {
		return nil
	}
	return c.libraryWatcher.Start(ctx)
}

// Close releases all resources held by the container.
func (c *Container) Close() error {
	ctx := context.Background()

	if c.libraryWatcher != nil {
		_ = c.libraryWatcher.Stop()
	}
	if c.tracer != nil {
		_ = c.tracer.Shutdown(ctx)
	}
	if c.backend != nil {
		return c.backend.Close()
	}
	return nil
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the structured logger.
func (c *Container) Logger() *logging.Logger {
	return c.logger
}

// Tracer returns the tracer.
func (c *Container) Tracer() *tracing.Tracer {
	return c.tracer
}

// Backend returns the storage backend.
func (c *Container) Backend() storage.Backend {
	return c.backend
}

// ProgressStore returns the practice history store.
func (c *Container) ProgressStore() *stores.ProgressStore {
	return c.progressStore
}

// PreferencesStore returns the user settings store.
func (c *Container) PreferencesStore() *stores.PreferencesStore {
	return c.preferencesStore
}

// BackupManager returns the backup manager.
func (c *Container) BackupManager() *backup.Manager {
	return c.backupManager
}

// BackupReminder returns the backup reminder.
func (c *Container) BackupReminder() *backup.Reminder {
	return c.backupReminder
}

// Hub returns the cross-process change hub.
func (c *Container) Hub() *appSync.Hub {
	return c.hub
}

// Library returns the session definition library.
func (c *Container) Library() *library.Library {
	return c.library
}

// Runner returns the practice runner.
func (c *Container) Runner() *runner.Runner {
	return c.runner
}
