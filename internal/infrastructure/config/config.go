// Package config provides configuration structs and utilities for the sadhana application.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config represents the root configuration for the sadhana application.
type Config struct {
	Storage  StorageConfig  `yaml:"storage"`
	Practice PracticeConfig `yaml:"practice"`
	Library  LibraryConfig  `yaml:"library"`
	Backup   BackupConfig   `yaml:"backup"`
	Logging  LoggingConfig  `yaml:"logging"`
	Tracing  TracingConfig  `yaml:"tracing"`
}

// StorageConfig selects and tunes the document storage backend.
type StorageConfig struct {
	Driver       string        `yaml:"driver"`        // file, sqlite
	Dir          string        `yaml:"dir"`           // file driver: document directory
	DatabasePath string        `yaml:"database_path"` // sqlite driver: database file
	QuotaBytes   int64         `yaml:"quota_bytes"`   // usage budget; <= 0 disables estimation
	WarnPercent  float64       `yaml:"warn_percent"`  // usage percentage that triggers a warning
	PollInterval time.Duration `yaml:"poll_interval"` // sqlite driver: change-log poll interval
}

// PracticeConfig tunes the practice timer.
type PracticeConfig struct {
	DefaultRestSeconds int           `yaml:"default_rest_seconds"` // rest between poses, 0-60
	MinPoseSeconds     int           `yaml:"min_pose_seconds"`     // floor for duration overrides
	TickInterval       time.Duration `yaml:"tick_interval"`        // countdown granularity
}

// LibraryConfig holds configuration for the session definition library.
type LibraryConfig struct {
	Directory string `yaml:"directory"`
	HotReload bool   `yaml:"hot_reload"`
}

// BackupConfig holds configuration for backup reminders.
type BackupConfig struct {
	ReminderDays int `yaml:"reminder_days"` // days since last backup before nagging
}

// LoggingConfig holds configuration for application logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// TracingConfig holds configuration for operation tracing.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	ExporterType string  `yaml:"exporter_type"` // none, stdout, otlp
	OTLPEndpoint string  `yaml:"otlp_endpoint"`
	SampleRate   float64 `yaml:"sample_rate"` // 0.0 to 1.0
	ServiceName  string  `yaml:"service_name"`
}

// Default configuration values.
const (
	DefaultStorageDriver = "file"
	DefaultQuotaBytes    = 5 * 1024 * 1024
	DefaultWarnPercent   = 80.0
	DefaultPollInterval  = 500 * time.Millisecond

	DefaultRestSeconds    = 10
	DefaultMinPoseSeconds = 15
	DefaultTickInterval   = time.Second

	DefaultBackupReminderDays = 30

	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"

	DefaultTracingExporterType = "none"
	DefaultTracingSampleRate   = 1.0
	DefaultTracingServiceName  = "sadhana"
)

// Valid log levels.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Valid log formats.
var validLogFormats = map[string]bool{
	"json": true,
	"text": true,
}

// Valid storage drivers.
var validStorageDrivers = map[string]bool{
	"file":   true,
	"sqlite": true,
}

// Valid tracing exporter types.
var validTracingExporterTypes = map[string]bool{
	"none":   true,
	"stdout": true,
	"otlp":   true,
}

// NewDefaultConfig creates a new Config with sensible default values.
// Paths left empty are resolved against the config directory by the loader.
func NewDefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Driver:       DefaultStorageDriver,
			QuotaBytes:   DefaultQuotaBytes,
			WarnPercent:  DefaultWarnPercent,
			PollInterval: DefaultPollInterval,
		},
		Practice: PracticeConfig{
			DefaultRestSeconds: DefaultRestSeconds,
			MinPoseSeconds:     DefaultMinPoseSeconds,
			TickInterval:       DefaultTickInterval,
		},
		Library: LibraryConfig{
			HotReload: true,
		},
		Backup: BackupConfig{
			ReminderDays: DefaultBackupReminderDays,
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Tracing: TracingConfig{
			Enabled:      false,
			ExporterType: DefaultTracingExporterType,
			SampleRate:   DefaultTracingSampleRate,
			ServiceName:  DefaultTracingServiceName,
		},
	}
}

// Validate checks if the configuration is valid and returns an error if not.
func (c *Config) Validate() error {
	var errs []error

	if err := c.Storage.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("storage: %w", err))
	}
	if err := c.Practice.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("practice: %w", err))
	}
	if err := c.Backup.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("backup: %w", err))
	}
	if err := c.Logging.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("logging: %w", err))
	}
	if err := c.Tracing.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("tracing: %w", err))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Validate checks if the StorageConfig is valid.
func (s *StorageConfig) Validate() error {
	var errs []error

	if s.Driver != "" && !validStorageDrivers[s.Driver] {
		errs = append(errs, fmt.Errorf("invalid driver %q: must be one of file, sqlite", s.Driver))
	}
	if s.WarnPercent < 0 || s.WarnPercent > 100 {
		errs = append(errs, errors.New("warn_percent must be between 0 and 100"))
	}
	if s.PollInterval < 0 {
		errs = append(errs, errors.New("poll_interval must be non-negative"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Validate checks if the PracticeConfig is valid.
func (p *PracticeConfig) Validate() error {
	var errs []error

	if p.DefaultRestSeconds < 0 || p.DefaultRestSeconds > 60 {
		errs = append(errs, errors.New("default_rest_seconds must be between 0 and 60"))
	}
	if p.MinPoseSeconds <= 0 {
		errs = append(errs, errors.New("min_pose_seconds must be positive"))
	}
	if p.TickInterval <= 0 {
		errs = append(errs, errors.New("tick_interval must be positive"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Validate checks if the BackupConfig is valid.
func (b *BackupConfig) Validate() error {
	if b.ReminderDays <= 0 {
		return errors.New("reminder_days must be positive")
	}
	return nil
}

// Validate checks if the LoggingConfig is valid.
func (l *LoggingConfig) Validate() error {
	var errs []error

	if l.Level != "" && !validLogLevels[l.Level] {
		errs = append(errs, fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", l.Level))
	}
	if l.Format != "" && !validLogFormats[l.Format] {
		errs = append(errs, fmt.Errorf("invalid log format %q: must be one of json, text", l.Format))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Validate checks if the TracingConfig is valid.
func (t *TracingConfig) Validate() error {
	var errs []error

	if t.Enabled {
		if t.ExporterType != "" && !validTracingExporterTypes[t.ExporterType] {
			errs = append(errs, fmt.Errorf("invalid exporter_type %q: must be one of none, stdout, otlp", t.ExporterType))
		}
		if t.ExporterType == "otlp" && t.OTLPEndpoint == "" {
			errs = append(errs, errors.New("otlp_endpoint is required when exporter_type is 'otlp'"))
		}
		if t.SampleRate < 0 || t.SampleRate > 1 {
			errs = append(errs, errors.New("sample_rate must be between 0.0 and 1.0"))
		}
		if t.ServiceName == "" {
			errs = append(errs, errors.New("service_name is required when tracing is enabled"))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
