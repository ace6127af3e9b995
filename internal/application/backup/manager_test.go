package backup

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	domainErrors "github.com/sadhanaworks/sadhana/internal/domain/errors"
	"github.com/sadhanaworks/sadhana/internal/infrastructure/logging"
	"github.com/sadhanaworks/sadhana/internal/infrastructure/storage"
	"github.com/sadhanaworks/sadhana/internal/infrastructure/tracing"
)

func newTestBackend(t *testing.T) storage.Backend {
	t.Helper()
	b, err := storage.NewFileBackend(storage.DefaultFileBackendConfig(t.TempDir()))
	if err != nil {
		t.Fatalf("NewFileBackend: %v", err)
	}
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func newTestManager(t *testing.T, backend storage.Backend) *Manager {
	t.Helper()
	return NewManager(backend, logging.Default(), tracing.Default(), "test")
}

func seedDocuments(t *testing.T, backend storage.Backend, keys ...string) {
	t.Helper()
	ctx := context.Background()
	for _, key := range keys {
		if err := backend.Set(ctx, key, `{"version":1,"state":{}}`); err != nil {
			t.Fatalf("seed %s: %v", key, err)
		}
	}
}

func TestExportBundlesPresentDocuments(t *testing.T) {
	ctx := context.Background()
	backend := newTestBackend(t)
	seedDocuments(t, backend, storage.KeyProgress, storage.KeyPreferences)

	m := newTestManager(t, backend)
	snap, err := m.Export(ctx)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	if snap.Version != FormatVersion {
		t.Errorf("unexpected format version %q", snap.Version)
	}
	if snap.ExportDate == "" {
		t.Error("export date not set")
	}
	if snap.Progress == nil || snap.Preferences == nil {
		t.Error("present documents missing from snapshot")
	}
	if snap.Favorites != nil || snap.CustomSessions != nil || snap.ProgramProgress != nil {
		t.Error("absent documents should be omitted")
	}

	// Export records the backup time.
	last, ok, err := m.LastBackupDate(ctx)
	if err != nil {
		t.Fatalf("LastBackupDate: %v", err)
	}
	if !ok || last.IsZero() {
		t.Error("last backup date not recorded")
	}
}

func TestExportToFileAndImportFromFile(t *testing.T) {
	ctx := context.Background()
	backend := newTestBackend(t)
	seedDocuments(t, backend, storage.KeyProgress)

	m := newTestManager(t, backend)
	path := filepath.Join(t.TempDir(), DefaultFilename(time.Now()))
	if err := m.ExportToFile(ctx, path); err != nil {
		t.Fatalf("ExportToFile: %v", err)
	}

	// Wipe the document, then restore it from the file.
	if err := backend.Delete(ctx, storage.KeyProgress); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	result, err := m.ImportFromFile(ctx, path)
	if err != nil {
		t.Fatalf("ImportFromFile: %v", err)
	}
	if len(result.Restored) != 1 || result.Restored[0] != storage.KeyProgress {
		t.Fatalf("unexpected restored set %v", result.Restored)
	}
	if _, err := backend.Get(ctx, storage.KeyProgress); err != nil {
		t.Fatalf("document not restored: %v", err)
	}
}

func TestImportSkipsAbsentDocuments(t *testing.T) {
	ctx := context.Background()
	backend := newTestBackend(t)
	seedDocuments(t, backend, storage.KeyFavorites)

	m := newTestManager(t, backend)
	data := []byte(`{"version":"1.0","progress":"{\"version\":1,\"state\":{}}"}`)

	result, err := m.Import(ctx, data)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if len(result.Restored) != 1 {
		t.Fatalf("expected 1 restored, got %v", result.Restored)
	}
	if len(result.Skipped) != 4 {
		t.Fatalf("expected 4 skipped, got %v", result.Skipped)
	}

	// The existing favorites document is untouched.
	if _, err := backend.Get(ctx, storage.KeyFavorites); err != nil {
		t.Fatalf("favorites lost during partial import: %v", err)
	}
}

func TestImportTakesEmergencySnapshot(t *testing.T) {
	ctx := context.Background()
	backend := newTestBackend(t)
	seedDocuments(t, backend, storage.KeyProgress)

	m := newTestManager(t, backend)
	result, err := m.Import(ctx, []byte(`{"version":"1.0","progress":"{}"}`))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}

	if !strings.HasPrefix(result.EmergencyKey, storage.EmergencyBackupPrefix) {
		t.Fatalf("unexpected emergency key %q", result.EmergencyKey)
	}
	value, err := backend.Get(ctx, result.EmergencyKey)
	if err != nil {
		t.Fatalf("emergency snapshot not stored: %v", err)
	}
	if !strings.Contains(value, "progress") {
		t.Errorf("emergency snapshot missing prior state: %s", value)
	}

	// Import records the restore time.
	last, ok, err := m.LastRestoreDate(ctx)
	if err != nil {
		t.Fatalf("LastRestoreDate: %v", err)
	}
	if !ok || last.IsZero() {
		t.Error("last restore date not recorded")
	}
}

func TestRapidImportsKeepDistinctEmergencySlots(t *testing.T) {
	ctx := context.Background()
	backend := newTestBackend(t)

	original := `{"version":2,"state":{"totalSessions":5}}`
	if err := backend.Set(ctx, storage.KeyProgress, original); err != nil {
		t.Fatalf("Set: %v", err)
	}

	m := newTestManager(t, backend)
	m.now = func() time.Time { return time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC) }

	first, err := m.Import(ctx, []byte(`{"version":"1.0","progress":"{\"a\":1}"}`))
	if err != nil {
		t.Fatalf("first Import: %v", err)
	}
	second, err := m.Import(ctx, []byte(`{"version":"1.0","progress":"{\"b\":2}"}`))
	if err != nil {
		t.Fatalf("second Import: %v", err)
	}

	if first.EmergencyKey == second.EmergencyKey {
		t.Fatalf("same-second imports shared slot %q", first.EmergencyKey)
	}

	// The first slot still holds the state from before the first import.
	value, err := backend.Get(ctx, first.EmergencyKey)
	if err != nil {
		t.Fatalf("first slot lost: %v", err)
	}
	var snap Snapshot
	if err := json.Unmarshal([]byte(value), &snap); err != nil {
		t.Fatalf("first slot unreadable: %v", err)
	}
	if snap.Progress == nil || *snap.Progress != original {
		t.Fatalf("pre-import state not preserved: %+v", snap.Progress)
	}
}

func TestImportRejectsInvalidBackups(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, newTestBackend(t))

	tests := []struct {
		name string
		data string
	}{
		{"not json", `{broken`},
		{"no version or date", `{"progress":"{}"}`},
		{"no documents", `{"version":"1.0","exportDate":"2026-08-01T10:00:00Z"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Import(ctx, []byte(tt.data))
			if !domainErrors.Is(err, domainErrors.ErrInvalidBackup) {
				t.Fatalf("expected ErrInvalidBackup, got %v", err)
			}
		})
	}
}

func TestImportAcceptsExportDateOnly(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, newTestBackend(t))

	data := []byte(`{"exportDate":"2026-08-01T10:00:00Z","favorites":"{\"sessions\":[]}"}`)
	result, err := m.Import(ctx, data)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if len(result.Restored) != 1 {
		t.Fatalf("expected 1 restored, got %v", result.Restored)
	}
}

func TestImportFromMissingFile(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, newTestBackend(t))

	_, err := m.ImportFromFile(ctx, filepath.Join(t.TempDir(), "no-such-backup.json"))
	if !domainErrors.Is(err, domainErrors.ErrBackupRead) {
		t.Fatalf("expected ErrBackupRead, got %v", err)
	}
}

func TestLastBackupDateUnparseableValueTreatedAsAbsent(t *testing.T) {
	ctx := context.Background()
	backend := newTestBackend(t)
	if err := backend.Set(ctx, storage.KeyLastBackupDate, "yesterday-ish"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	m := newTestManager(t, backend)
	_, ok, err := m.LastBackupDate(ctx)
	if err != nil {
		t.Fatalf("LastBackupDate: %v", err)
	}
	if ok {
		t.Error("unparseable timestamp should read as absent")
	}
}

func TestDefaultFilename(t *testing.T) {
	at := time.Date(2026, 8, 31, 14, 30, 0, 0, time.UTC)
	got := DefaultFilename(at)
	if got != "sadhana-backup-2026-08-31.json" {
		t.Fatalf("unexpected filename %q", got)
	}
}

func TestBackupRoundTripRestoresState(t *testing.T) {
	ctx := context.Background()
	backend := newTestBackend(t)
	original := `{"version":2,"state":{"totalSessions":5}}`
	if err := backend.Set(ctx, storage.KeyProgress, original); err != nil {
		t.Fatalf("Set: %v", err)
	}

	m := newTestManager(t, backend)
	path := filepath.Join(t.TempDir(), "backup.json")
	if err := m.ExportToFile(ctx, path); err != nil {
		t.Fatalf("ExportToFile: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("backup file missing: %v", err)
	}

	if err := backend.Set(ctx, storage.KeyProgress, `{"version":2,"state":{"totalSessions":0}}`); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if _, err := m.ImportFromFile(ctx, path); err != nil {
		t.Fatalf("ImportFromFile: %v", err)
	}

	restored, err := backend.Get(ctx, storage.KeyProgress)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if restored != original {
		t.Fatalf("restore mismatch: got %s want %s", restored, original)
	}
}
