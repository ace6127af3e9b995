package storage

import (
	"context"
	"testing"
	"time"

	domainErrors "github.com/sadhanaworks/sadhana/internal/domain/errors"
)

func newTestFileBackend(t *testing.T, dir string) *FileBackend {
	t.Helper()
	cfg := DefaultFileBackendConfig(dir)
	cfg.DebounceDuration = 20 * time.Millisecond
	b, err := NewFileBackend(cfg)
	if err != nil {
		t.Fatalf("NewFileBackend: %v", err)
	}
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestFileBackendRoundTrip(t *testing.T) {
	ctx := context.Background()
	b := newTestFileBackend(t, t.TempDir())

	if err := b.Set(ctx, "preferences", `{"version":1}`); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := b.Get(ctx, "preferences")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != `{"version":1}` {
		t.Fatalf("unexpected value %q", got)
	}

	if err := b.Delete(ctx, "preferences"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := b.Get(ctx, "preferences"); !domainErrors.Is(err, domainErrors.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound after delete, got %v", err)
	}

	// Deleting an absent key is not an error.
	if err := b.Delete(ctx, "preferences"); err != nil {
		t.Fatalf("Delete absent: %v", err)
	}
}

func TestFileBackendGetMissingKey(t *testing.T) {
	ctx := context.Background()
	b := newTestFileBackend(t, t.TempDir())

	if _, err := b.Get(ctx, "nothing-here"); !domainErrors.Is(err, domainErrors.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestFileBackendRejectsUnsafeKeys(t *testing.T) {
	ctx := context.Background()
	b := newTestFileBackend(t, t.TempDir())

	for _, key := range []string{"", "../escape", "a/b", `a\b`} {
		if err := b.Set(ctx, key, "x"); err == nil {
			t.Errorf("expected rejection of key %q", key)
		}
	}
}

func TestFileBackendKeys(t *testing.T) {
	ctx := context.Background()
	b := newTestFileBackend(t, t.TempDir())

	for _, key := range []string{"progress-history", "favorites"} {
		if err := b.Set(ctx, key, "{}"); err != nil {
			t.Fatalf("Set %s: %v", key, err)
		}
	}

	keys, err := b.Keys(ctx)
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("expected 2 keys, got %v", keys)
	}
}

func TestFileBackendUsage(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	cfg := DefaultFileBackendConfig(dir)
	cfg.BudgetBytes = 1000
	b, err := NewFileBackend(cfg)
	if err != nil {
		t.Fatalf("NewFileBackend: %v", err)
	}
	defer b.Close()

	if err := b.Set(ctx, "progress-history", "0123456789"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	usage, err := b.Usage(ctx)
	if err != nil {
		t.Fatalf("Usage: %v", err)
	}
	if usage.UsedBytes != 10 {
		t.Fatalf("expected 10 used bytes, got %d", usage.UsedBytes)
	}
	if usage.Percent != 1.0 {
		t.Fatalf("expected 1%%, got %f", usage.Percent)
	}
}

func TestFileBackendUsageUnavailableWithoutBudget(t *testing.T) {
	cfg := DefaultFileBackendConfig(t.TempDir())
	cfg.BudgetBytes = 0
	b, err := NewFileBackend(cfg)
	if err != nil {
		t.Fatalf("NewFileBackend: %v", err)
	}
	defer b.Close()

	if _, err := b.Usage(context.Background()); !domainErrors.Is(err, domainErrors.ErrUsageUnavailable) {
		t.Fatalf("expected ErrUsageUnavailable, got %v", err)
	}
}

func TestFileBackendWatchSeesForeignWrites(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	watcher := newTestFileBackend(t, dir)
	writer := newTestFileBackend(t, dir)

	events, err := watcher.Watch(ctx)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}

	if err := writer.Set(ctx, "preferences", `{"version":1}`); err != nil {
		t.Fatalf("Set: %v", err)
	}

	select {
	case event := <-events:
		if event.Key != "preferences" {
			t.Fatalf("unexpected event key %q", event.Key)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for foreign write event")
	}
}

func TestFileBackendWatchSuppressesOwnWrites(t *testing.T) {
	ctx := context.Background()
	b := newTestFileBackend(t, t.TempDir())

	events, err := b.Watch(ctx)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}

	if err := b.Set(ctx, "preferences", `{"version":1}`); err != nil {
		t.Fatalf("Set: %v", err)
	}

	select {
	case event := <-events:
		t.Fatalf("observed own write: %+v", event)
	case <-time.After(300 * time.Millisecond):
	}
}
