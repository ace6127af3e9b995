package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	domainErrors "github.com/sadhanaworks/sadhana/internal/domain/errors"
)

// Compile-time check that FileBackend implements Backend.
var _ Backend = (*FileBackend)(nil)

// suppressWindow is how long after a local write events for the same key are
// treated as echoes of that write rather than foreign changes.
const suppressWindow = 2 * time.Second

// FileBackendConfig holds configuration for the file backend.
type FileBackendConfig struct {
	// Dir is the directory holding one <key>.json file per document.
	Dir string
	// BudgetBytes caps the usage estimate; <= 0 disables estimation.
	BudgetBytes int64
	// DebounceDuration coalesces rapid rewrites of the same key.
	DebounceDuration time.Duration
	// BufferSize is the watch channel capacity.
	BufferSize int
}

// DefaultFileBackendConfig returns sensible defaults for the file backend.
func DefaultFileBackendConfig(dir string) FileBackendConfig {
	return FileBackendConfig{
		Dir:              dir,
		BudgetBytes:      5 * 1024 * 1024,
		DebounceDuration: 100 * time.Millisecond,
		BufferSize:       64,
	}
}

// FileBackend stores each document as a JSON file in a single directory and
// watches that directory for writes made by other processes.
type FileBackend struct {
	cfg FileBackendConfig

	// Local-write journal used to suppress our own fsnotify echoes.
	recent   map[string]time.Time
	recentMu sync.Mutex

	watchOnce sync.Once
	watchErr  error
	events    chan ChangeEvent

	fsWatcher *fsnotify.Watcher
	pending   map[string]time.Time
	pendingMu sync.Mutex

	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed bool
	mu     sync.Mutex
}

// NewFileBackend creates the backend directory if needed and returns a backend
// rooted there.
func NewFileBackend(cfg FileBackendConfig) (*FileBackend, error) {
	if cfg.Dir == "" {
		return nil, domainErrors.NewError(domainErrors.CodeConfiguration, "storage directory is required", nil)
	}
	if cfg.DebounceDuration <= 0 {
		cfg.DebounceDuration = 100 * time.Millisecond
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 64
	}

	if err := os.MkdirAll(cfg.Dir, 0750); err != nil {
		return nil, fmt.Errorf("could not create storage directory: %w", err)
	}

	return &FileBackend{
		cfg:     cfg,
		recent:  make(map[string]time.Time),
		pending: make(map[string]time.Time),
	}, nil
}

// Get returns the raw value stored under key.
func (b *FileBackend) Get(ctx context.Context, key string) (string, error) {
	path, err := b.path(key)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", fmt.Errorf("%w: %s", domainErrors.ErrKeyNotFound, key)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}
	return string(data), nil
}

// Set writes the value atomically: temp file in the same directory, then rename.
func (b *FileBackend) Set(ctx context.Context, key, value string) error {
	path, err := b.path(key)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(b.cfg.Dir, "."+key+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to stage write for %s: %w", key, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", key, err)
	}

	b.markLocalWrite(key)
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to commit %s: %w", key, err)
	}
	return nil
}

// Delete removes the key's file. Missing files are ignored.
func (b *FileBackend) Delete(ctx context.Context, key string) error {
	path, err := b.path(key)
	if err != nil {
		return err
	}

	b.markLocalWrite(key)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// Keys lists every stored document key.
func (b *FileBackend) Keys(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(b.cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list storage directory: %w", err)
	}

	var keys []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".json") {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, ".json"))
	}
	return keys, nil
}

// Usage sums the stored file sizes against the configured budget.
func (b *FileBackend) Usage(ctx context.Context) (Usage, error) {
	if b.cfg.BudgetBytes <= 0 {
		return Usage{}, domainErrors.ErrUsageUnavailable
	}

	entries, err := os.ReadDir(b.cfg.Dir)
	if err != nil {
		return Usage{}, fmt.Errorf("failed to list storage directory: %w", err)
	}

	var used int64
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		used += info.Size()
	}

	return Usage{
		UsedBytes:   used,
		BudgetBytes: b.cfg.BudgetBytes,
		Percent:     float64(used) / float64(b.cfg.BudgetBytes) * 100,
	}, nil
}

// Watch starts the fsnotify watcher on first use and returns the event channel.
// Events caused by this process's own writes are filtered out.
func (b *FileBackend) Watch(ctx context.Context) (<-chan ChangeEvent, error) {
	b.watchOnce.Do(func() {
		b.watchErr = b.startWatch(ctx)
	})
	if b.watchErr != nil {
		return nil, b.watchErr
	}
	return b.events, nil
}

// Close stops the watcher. Safe to call without a prior Watch.
func (b *FileBackend) Close() error {
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

	var err error
	if b.fsWatcher != nil {
		err = b.fsWatcher.Close()
	}
	b.wg.Wait()

	if b.events != nil {
		close(b.events)
	}
	return err
}

func (b *FileBackend) startWatch(parent context.Context) error {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create storage watcher: %w", err)
	}
	if err := fsWatcher.Add(b.cfg.Dir); err != nil {
		fsWatcher.Close()
		return fmt.Errorf("failed to watch storage directory: %w", err)
	}

	ctx, cancel := context.WithCancel(parent)

	b.mu.Lock()
	b.fsWatcher = fsWatcher
	b.cancel = cancel
	b.events = make(chan ChangeEvent, b.cfg.BufferSize)
	b.mu.Unlock()

	b.wg.Add(1)
	go b.processEvents(ctx)

	b.wg.Add(1)
	go b.debounceLoop(ctx)

	return nil
}

// processEvents reads raw fsnotify events and queues document keys for debouncing.
func (b *FileBackend) processEvents(ctx context.Context) {
	defer b.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-b.fsWatcher.Events:
			if !ok {
				return
			}

			key, ok := keyFromPath(event.Name)
			if !ok {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if b.isLocalWrite(key) {
				continue
			}

			b.pendingMu.Lock()
			b.pending[key] = time.Now()
			b.pendingMu.Unlock()

		case _, ok := <-b.fsWatcher.Errors:
			if !ok {
				return
			}
		}
	}
}

// debounceLoop periodically flushes keys that have been quiet long enough.
func (b *FileBackend) debounceLoop(ctx context.Context) {
	defer b.wg.Done()

	ticker := time.NewTicker(b.cfg.DebounceDuration / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.emitStable()
		}
	}
}

func (b *FileBackend) emitStable() {
	b.pendingMu.Lock()
	defer b.pendingMu.Unlock()

	now := time.Now()
	for key, at := range b.pending {
		if now.Sub(at) < b.cfg.DebounceDuration {
			continue
		}
		delete(b.pending, key)

		select {
		case b.events <- ChangeEvent{Key: key, At: at}:
		default:
		}
	}
}

func (b *FileBackend) markLocalWrite(key string) {
	b.recentMu.Lock()
	defer b.recentMu.Unlock()

	now := time.Now()
	b.recent[key] = now

	// Opportunistic cleanup of expired entries.
	for k, at := range b.recent {
		if now.Sub(at) > suppressWindow {
			delete(b.recent, k)
		}
	}
}

func (b *FileBackend) isLocalWrite(key string) bool {
	b.recentMu.Lock()
	defer b.recentMu.Unlock()

	at, ok := b.recent[key]
	return ok && time.Since(at) <= suppressWindow
}

// path maps a key to its file, rejecting keys that would escape the directory.
func (b *FileBackend) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, "/\\") || strings.Contains(key, "..") {
		return "", domainErrors.NewError(domainErrors.CodeValidation, fmt.Sprintf("invalid storage key %q", key), nil)
	}
	return filepath.Join(b.cfg.Dir, key+".json"), nil
}

// keyFromPath recovers a document key from a watched file path.
func keyFromPath(path string) (string, bool) {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".json") {
		return "", false
	}
	return strings.TrimSuffix(name, ".json"), true
}
