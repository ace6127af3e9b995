package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver

	domainErrors "github.com/sadhanaworks/sadhana/internal/domain/errors"
)

// Compile-time check that SQLiteBackend implements Backend.
var _ Backend = (*SQLiteBackend)(nil)

// SQLiteBackendConfig holds configuration for the SQLite backend.
type SQLiteBackendConfig struct {
	// Path is the database file; ":memory:" is allowed in tests.
	Path string
	// BudgetBytes caps the usage estimate; <= 0 disables estimation.
	BudgetBytes int64
	// PollInterval is how often the change log is polled for foreign writes.
	PollInterval time.Duration
	// BufferSize is the watch channel capacity.
	BufferSize int
}

// DefaultSQLiteBackendConfig returns sensible defaults for the SQLite backend.
func DefaultSQLiteBackendConfig(path string) SQLiteBackendConfig {
	return SQLiteBackendConfig{
		Path:         path,
		BudgetBytes:  5 * 1024 * 1024,
		PollInterval: 500 * time.Millisecond,
		BufferSize:   64,
	}
}

// SQLiteBackend stores documents in a key-value table. Every write also
// appends to a change log tagged with this process's instance ID; the watcher
// polls the log and reports rows written by other instances.
type SQLiteBackend struct {
	cfg      SQLiteBackendConfig
	db       *sql.DB
	instance string

	watchOnce sync.Once
	watchErr  error
	events    chan ChangeEvent

	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed bool
	mu     sync.Mutex
}

// OpenSQLiteBackend opens (creating if needed) the database and applies migrations.
func OpenSQLiteBackend(cfg SQLiteBackendConfig) (*SQLiteBackend, error) {
	if cfg.Path == "" {
		return nil, domainErrors.NewError(domainErrors.CodeConfiguration, "database path is required", nil)
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 500 * time.Millisecond
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 64
	}

	if cfg.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0750); err != nil {
			return nil, fmt.Errorf("could not create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not ping database: %w", err)
	}

	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not run migrations: %w", err)
	}

	return &SQLiteBackend{
		cfg:      cfg,
		db:       db,
		instance: uuid.NewString(),
	}, nil
}

// Get returns the raw value stored under key.
func (b *SQLiteBackend) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := b.db.QueryRowContext(ctx, `SELECT value FROM documents WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("%w: %s", domainErrors.ErrKeyNotFound, key)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, nil
}

// Set upserts the value and records the write in the change log.
func (b *SQLiteBackend) Set(ctx context.Context, key, value string) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin write for %s: %w", key, err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}

	if err := b.logChange(ctx, tx, key); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s: %w", key, err)
	}
	return nil
}

// Delete removes the key and records the change.
func (b *SQLiteBackend) Delete(ctx context.Context, key string) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin delete for %s: %w", key, err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}

	// A delete of an absent key is a no-op and leaves no change-log entry.
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return nil
	}

	if err := b.logChange(ctx, tx, key); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete of %s: %w", key, err)
	}
	return nil
}

// Keys lists every stored document key.
func (b *SQLiteBackend) Keys(ctx context.Context) ([]string, error) {
	rows, err := b.db.QueryContext(ctx, `SELECT key FROM documents ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating keys: %w", err)
	}
	return keys, nil
}

// Usage estimates database size from the page count.
func (b *SQLiteBackend) Usage(ctx context.Context) (Usage, error) {
	if b.cfg.BudgetBytes <= 0 {
		return Usage{}, domainErrors.ErrUsageUnavailable
	}

	var pageCount, pageSize int64
	if err := b.db.QueryRowContext(ctx, `PRAGMA page_count`).Scan(&pageCount); err != nil {
		return Usage{}, domainErrors.ErrUsageUnavailable
	}
	if err := b.db.QueryRowContext(ctx, `PRAGMA page_size`).Scan(&pageSize); err != nil {
		return Usage{}, domainErrors.ErrUsageUnavailable
	}

	used := pageCount * pageSize
	return Usage{
		UsedBytes:   used,
		BudgetBytes: b.cfg.BudgetBytes,
		Percent:     float64(used) / float64(b.cfg.BudgetBytes) * 100,
	}, nil
}

// Watch starts the change-log poller on first use and returns the event channel.
func (b *SQLiteBackend) Watch(ctx context.Context) (<-chan ChangeEvent, error) {
	b.watchOnce.Do(func() {
		b.watchErr = b.startWatch(ctx)
	})
	if b.watchErr != nil {
		return nil, b.watchErr
	}
	return b.events, nil
}

// Close stops the poller and closes the database.
func (b *SQLiteBackend) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	cancel := b.cancel
	b.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	b.wg.Wait()

	if b.events != nil {
		close(b.events)
	}

	if err := b.db.Close(); err != nil {
		return fmt.Errorf("could not close database: %w", err)
	}
	return nil
}

// InstanceID returns the identifier this process tags its writes with.
func (b *SQLiteBackend) InstanceID() string {
	return b.instance
}

func (b *SQLiteBackend) logChange(ctx context.Context, tx *sql.Tx, key string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO change_log (key, origin, changed_at) VALUES (?, ?, ?)
	`, key, b.instance, time.Now().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to log change for %s: %w", key, err)
	}
	return nil
}

func (b *SQLiteBackend) startWatch(parent context.Context) error {
	// Start from the current head so only future writes are reported.
	var lastSeq sql.NullInt64
	if err := b.db.QueryRowContext(parent, `SELECT MAX(seq) FROM change_log`).Scan(&lastSeq); err != nil {
		return fmt.Errorf("failed to read change log head: %w", err)
	}

	ctx, cancel := context.WithCancel(parent)

	b.mu.Lock()
	b.cancel = cancel
	b.events = make(chan ChangeEvent, b.cfg.BufferSize)
	b.mu.Unlock()

	b.wg.Add(1)
	go b.pollLoop(ctx, lastSeq.Int64)

	return nil
}

// pollLoop reports change-log rows written by other instances.
func (b *SQLiteBackend) pollLoop(ctx context.Context, lastSeq int64) {
	defer b.wg.Done()

	ticker := time.NewTicker(b.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			lastSeq = b.drainChanges(ctx, lastSeq)
		}
	}
}

func (b *SQLiteBackend) drainChanges(ctx context.Context, lastSeq int64) int64 {
	rows, err := b.db.QueryContext(ctx, `
		SELECT seq, key, origin, changed_at FROM change_log
		WHERE seq > ?
		ORDER BY seq
	`, lastSeq)
	if err != nil {
		return lastSeq
	}
	defer rows.Close()

	for rows.Next() {
		var (
			seq       int64
			key       string
			origin    string
			changedAt string
		)
		if err := rows.Scan(&seq, &key, &origin, &changedAt); err != nil {
			break
		}
		lastSeq = seq

		if origin == b.instance {
			continue
		}

		at, err := time.Parse(time.RFC3339Nano, changedAt)
		if err != nil {
			at = time.Now()
		}

		select {
		case b.events <- ChangeEvent{Key: key, At: at}:
		default:
		}
	}
	return lastSeq
}
