package library

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/sadhanaworks/sadhana/internal/infrastructure/logging"
)

// WatcherConfig tunes the library hot-reload watcher.
type WatcherConfig struct {
	DebounceDuration time.Duration
}

// DefaultWatcherConfig returns sensible default configuration.
func DefaultWatcherConfig() WatcherConfig {
	return WatcherConfig{
		DebounceDuration: 100 * time.Millisecond,
	}
}

// Watcher reloads the library when files in its directory change. Rapid
// bursts of filesystem events coalesce into a single reload.
type Watcher struct {
	library   *Library
	fsWatcher *fsnotify.Watcher
	config    WatcherConfig
	log       *logging.Logger

	mu      sync.Mutex
	pending bool

	wg     sync.WaitGroup
	cancel context.CancelFunc
	closed bool
}

// NewWatcher creates a watcher for the library's directory.
func NewWatcher(lib *Library, cfg WatcherConfig, log *logging.Logger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if cfg.DebounceDuration <= 0 {
		cfg.DebounceDuration = 100 * time.Millisecond
	}

	return &Watcher{
		library:   lib,
		fsWatcher: fsWatcher,
		config:    cfg,
		log:       log,
	}, nil
}

// Start begins watching. A missing library directory is skipped without
// error.
func (w *Watcher) Start(ctx context.Context) error {
	if w.library.dir == "" {
		return nil
	}
	if _, err := os.Stat(w.library.dir); os.IsNotExist(err) {
		return nil
	}
	if err := w.fsWatcher.Add(w.library.dir); err != nil {
		return err
	}

	ctx, w.cancel = context.WithCancel(ctx)

	w.wg.Add(2)
	go w.processEvents(ctx)
	go w.debounceLoop(ctx)
	return nil
}

// Stop ends watching and waits for the goroutines to finish.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	if w.cancel != nil {
		w.cancel()
	}
	err := w.fsWatcher.Close()
	w.wg.Wait()
	return err
}

// processEvents marks a reload pending for each relevant filesystem event.
func (w *Watcher) processEvents(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if !isYAMLPath(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.mu.Lock()
			w.pending = true
			w.mu.Unlock()
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("library watcher error", "error", err)
		}
	}
}

// debounceLoop performs the pending reload once the burst settles.
func (w *Watcher) debounceLoop(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.DebounceDuration)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.mu.Lock()
			pending := w.pending
			w.pending = false
			w.mu.Unlock()
			if !pending {
				continue
			}
			if err := w.library.Reload(); err != nil {
				w.log.Warn("library reload failed", "error", err)
			} else {
				w.log.Info("library reloaded after file change")
			}
		}
	}
}
