// Package storage provides the key-value document backends that hold all
// persisted application state. Two implementations exist: a file backend
// (one JSON file per key, watched with fsnotify) and a SQLite backend
// (documents table plus a change log polled for foreign writes).
package storage

import (
	"context"
	"time"
)

// Well-known document keys forming the persistence namespace.
const (
	KeyProgress          = "progress-history"
	KeyProgramProgress   = "program-progress"
	KeyPreferences       = "preferences"
	KeyCustomSessions    = "custom-sessions"
	KeyFavorites         = "favorites"
	KeyDurationOverrides = "session-duration-customizations"

	// Timestamp records maintained by the backup manager.
	KeyLastBackupDate  = "last-backup-date"
	KeyLastRestoreDate = "last-restore-date"
)

// EmergencyBackupPrefix prefixes the safety snapshots taken before every
// restore. Each import leaves a distinct slot; they are never overwritten.
const EmergencyBackupPrefix = "emergency-backup-"

// DocumentKeys lists the keys bundled into a backup snapshot, in the order
// they appear in the backup file.
var DocumentKeys = []string{
	KeyProgress,
	KeyProgramProgress,
	KeyPreferences,
	KeyCustomSessions,
	KeyFavorites,
}

// ChangeEvent notifies that another process wrote the given key.
// The writing process does not observe its own writes.
type ChangeEvent struct {
	Key string
	At  time.Time
}

// Usage reports estimated storage consumption against the configured budget.
type Usage struct {
	UsedBytes   int64
	BudgetBytes int64
	Percent     float64
}

// Backend is the storage abstraction every document store is built on.
// All values are raw serialized strings; interpretation is the caller's.
type Backend interface {
	// Get returns the raw value for key, or errors.ErrKeyNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set durably writes the raw value under key. Write failures (including
	// quota exhaustion) surface synchronously; there is no retry.
	Set(ctx context.Context, key, value string) error

	// Delete removes the key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys returns every key currently present.
	Keys(ctx context.Context) ([]string, error)

	// Usage estimates storage consumption. Backends that cannot estimate
	// return errors.ErrUsageUnavailable; callers treat that as "no warning".
	Usage(ctx context.Context) (Usage, error)

	// Watch delivers change events for writes made by other processes
	// sharing this backend. The channel closes when ctx is cancelled or the
	// backend is closed.
	Watch(ctx context.Context) (<-chan ChangeEvent, error)

	// Close releases watcher and connection resources.
	Close() error
}
