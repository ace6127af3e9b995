package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	domainErrors "github.com/sadhanaworks/sadhana/internal/domain/errors"
)

func newTestSQLiteBackend(t *testing.T, path string) *SQLiteBackend {
	t.Helper()
	cfg := DefaultSQLiteBackendConfig(path)
	cfg.PollInterval = 20 * time.Millisecond
	b, err := OpenSQLiteBackend(cfg)
	if err != nil {
		t.Fatalf("OpenSQLiteBackend: %v", err)
	}
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestSQLiteBackendRoundTrip(t *testing.T) {
	ctx := context.Background()
	b := newTestSQLiteBackend(t, filepath.Join(t.TempDir(), "sadhana.db"))

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

	// Overwrite.
	if err := b.Set(ctx, "preferences", `{"version":2}`); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	got, err = b.Get(ctx, "preferences")
	if err != nil {
		t.Fatalf("Get after overwrite: %v", err)
	}
	if got != `{"version":2}` {
		t.Fatalf("unexpected value %q after overwrite", got)
	}

	if err := b.Delete(ctx, "preferences"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := b.Get(ctx, "preferences"); !domainErrors.Is(err, domainErrors.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound after delete, got %v", err)
	}
	if err := b.Delete(ctx, "preferences"); err != nil {
		t.Fatalf("Delete absent: %v", err)
	}
}

func TestSQLiteBackendKeys(t *testing.T) {
	ctx := context.Background()
	b := newTestSQLiteBackend(t, filepath.Join(t.TempDir(), "sadhana.db"))

	for _, key := range []string{"progress-history", "favorites", "preferences"} {
		if err := b.Set(ctx, key, "{}"); err != nil {
			t.Fatalf("Set %s: %v", key, err)
		}
	}

	keys, err := b.Keys(ctx)
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if len(keys) != 3 {
		t.Fatalf("expected 3 keys, got %v", keys)
	}
	// Keys come back sorted.
	if keys[0] != "favorites" {
		t.Fatalf("expected sorted keys, got %v", keys)
	}
}

func TestSQLiteBackendUsage(t *testing.T) {
	ctx := context.Background()
	b := newTestSQLiteBackend(t, filepath.Join(t.TempDir(), "sadhana.db"))

	usage, err := b.Usage(ctx)
	if err != nil {
		t.Fatalf("Usage: %v", err)
	}
	if usage.UsedBytes <= 0 {
		t.Fatalf("expected positive used bytes, got %d", usage.UsedBytes)
	}
	if usage.BudgetBytes != b.cfg.BudgetBytes {
		t.Fatalf("unexpected budget %d", usage.BudgetBytes)
	}
}

func TestSQLiteBackendUsageUnavailableWithoutBudget(t *testing.T) {
	cfg := DefaultSQLiteBackendConfig(filepath.Join(t.TempDir(), "sadhana.db"))
	cfg.BudgetBytes = 0
	b, err := OpenSQLiteBackend(cfg)
	if err != nil {
		t.Fatalf("OpenSQLiteBackend: %v", err)
	}
	defer b.Close()

	if _, err := b.Usage(context.Background()); !domainErrors.Is(err, domainErrors.ErrUsageUnavailable) {
		t.Fatalf("expected ErrUsageUnavailable, got %v", err)
	}
}

func TestSQLiteBackendWatchSeesForeignWrites(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sadhana.db")

	watcher := newTestSQLiteBackend(t, path)
	writer := newTestSQLiteBackend(t, path)

	if watcher.InstanceID() == writer.InstanceID() {
		t.Fatal("backends share an instance ID")
	}

	events, err := watcher.Watch(ctx)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}

	if err := writer.Set(ctx, "favorites", `{"sessions":[]}`); err != nil {
		t.Fatalf("Set: %v", err)
	}

	select {
	case event := <-events:
		if event.Key != "favorites" {
			t.Fatalf("unexpected event key %q", event.Key)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for foreign write event")
	}
}

func TestSQLiteBackendWatchSuppressesOwnWrites(t *testing.T) {
	ctx := context.Background()
	b := newTestSQLiteBackend(t, filepath.Join(t.TempDir(), "sadhana.db"))

	events, err := b.Watch(ctx)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}

	if err := b.Set(ctx, "favorites", `{"sessions":[]}`); err != nil {
		t.Fatalf("Set: %v", err)
	}

	select {
	case event := <-events:
		t.Fatalf("observed own write: %+v", event)
	case <-time.After(200 * time.Millisecond):
	}
}
