package e2e

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/sadhanaworks/sadhana/internal/application"
	"github.com/sadhanaworks/sadhana/internal/domain/practice"
	"github.com/sadhanaworks/sadhana/internal/domain/progress"
	"github.com/sadhanaworks/sadhana/internal/infrastructure/config"
	"github.com/sadhanaworks/sadhana/internal/infrastructure/storage"
)

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	cfg := config.NewDefaultConfig()
	cfg.Storage.Dir = filepath.Join(root, "data")
	cfg.Storage.DatabasePath = filepath.Join(root, "sadhana.db")
	cfg.Library.Directory = filepath.Join(root, "library")
	cfg.Library.HotReload = false
	return cfg
}

func newTestContainer(t *testing.T, cfg *config.Config) *application.Container {
	t.Helper()
	c, err := application.NewContainer(cfg, "test", false)
	if err != nil {
		t.Fatalf("NewContainer: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestPracticeRecordedAndVisibleInStats(t *testing.T) {
	ctx := context.Background()
	c := newTestContainer(t, newTestConfig(t))

	session, err := c.Library().Session("morning-flow")
	if err != nil {
		t.Fatalf("built-in session missing: %v", err)
	}

	doc, err := c.ProgressStore().RecordSession(ctx, progress.CompletedSession{
		SessionID:       session.ID,
		Name:            session.Name,
		DurationMinutes: 12,
	})
	if err != nil {
		t.Fatalf("RecordSession: %v", err)
	}
	if doc.CurrentStreak != 1 {
		t.Errorf("expected streak 1, got %d", doc.CurrentStreak)
	}

	stats, err := c.ProgressStore().Stats(ctx, time.Now())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalSessions != 1 || stats.MinutesThisWeek != 12 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestBackupRestoreAfterReset(t *testing.T) {
	ctx := context.Background()
	c := newTestContainer(t, newTestConfig(t))

	if _, err := c.ProgressStore().RecordSession(ctx, progress.CompletedSession{
		SessionID:       "morning-flow",
		Name:            "Morning Flow",
		DurationMinutes: 20,
	}); err != nil {
		t.Fatalf("RecordSession: %v", err)
	}

	path := filepath.Join(t.TempDir(), "backup.json")
	if err := c.BackupManager().ExportToFile(ctx, path); err != nil {
		t.Fatalf("ExportToFile: %v", err)
	}

	if err := c.ProgressStore().Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	doc, err := c.ProgressStore().History(ctx)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if doc.TotalSessions != 0 {
		t.Fatalf("reset did not clear history: %+v", doc)
	}

	result, err := c.BackupManager().ImportFromFile(ctx, path)
	if err != nil {
		t.Fatalf("ImportFromFile: %v", err)
	}
	if len(result.Restored) == 0 {
		t.Fatal("import restored nothing")
	}

	doc, err = c.ProgressStore().History(ctx)
	if err != nil {
		t.Fatalf("History after import: %v", err)
	}
	if doc.TotalSessions != 1 || doc.TotalMinutes != 20 {
		t.Fatalf("history not restored: %+v", doc)
	}
}

func TestSettingsSurviveContainerRestart(t *testing.T) {
	ctx := context.Background()
	cfg := newTestConfig(t)

	first := newTestContainer(t, cfg)
	if _, err := first.PreferencesStore().SetRestSeconds(ctx, 25); err != nil {
		t.Fatalf("SetRestSeconds: %v", err)
	}
	if err := first.PreferencesStore().SaveCustomSession(ctx, practice.Session{
		ID:    "my-flow",
		Name:  "My Flow",
		Poses: []practice.Pose{{Name: "Mountain", Seconds: 30}},
	}); err != nil {
		t.Fatalf("SaveCustomSession: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	second := newTestContainer(t, cfg)
	prefs, err := second.PreferencesStore().Preferences(ctx)
	if err != nil {
		t.Fatalf("Preferences: %v", err)
	}
	if prefs.RestSeconds != 25 {
		t.Errorf("rest setting lost across restart: %d", prefs.RestSeconds)
	}
	_, ok, err := second.PreferencesStore().FindCustomSession(ctx, "my-flow")
	if err != nil {
		t.Fatalf("FindCustomSession: %v", err)
	}
	if !ok {
		t.Error("custom session lost across restart")
	}
}

func TestSQLiteDriverEndToEnd(t *testing.T) {
	ctx := context.Background()
	cfg := newTestConfig(t)
	cfg.Storage.Driver = "sqlite"

	c := newTestContainer(t, cfg)
	if _, err := c.ProgressStore().RecordSession(ctx, progress.CompletedSession{
		SessionID:       "morning-flow",
		DurationMinutes: 10,
	}); err != nil {
		t.Fatalf("RecordSession: %v", err)
	}

	doc, err := c.ProgressStore().History(ctx)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if doc.TotalSessions != 1 {
		t.Fatalf("sqlite history wrong: %+v", doc)
	}

	usage, err := c.Backend().Usage(ctx)
	if err != nil {
		t.Fatalf("Usage: %v", err)
	}
	if usage.UsedBytes <= 0 {
		t.Errorf("expected positive usage, got %d", usage.UsedBytes)
	}
}

func TestForeignWriteObservedAcrossContainers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := newTestConfig(t)
	watcher := newTestContainer(t, cfg)
	writer := newTestContainer(t, cfg)

	got := make(chan storage.ChangeEvent, 1)
	watcher.Hub().Subscribe(storage.KeyPreferences, func(event storage.ChangeEvent) {
		select {
		case got <- event:
		default:
		}
	})
	go func() { _ = watcher.Hub().Run(ctx) }()

	// Give the file watcher a moment to come up before writing.
	time.Sleep(200 * time.Millisecond)

	if _, err := writer.PreferencesStore().SetRestSeconds(ctx, 30); err != nil {
		t.Fatalf("SetRestSeconds: %v", err)
	}

	select {
	case event := <-got:
		if event.Key != storage.KeyPreferences {
			t.Fatalf("unexpected key %q", event.Key)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for cross-process change")
	}
}
