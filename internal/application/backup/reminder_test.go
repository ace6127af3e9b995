package backup

import (
	"context"
	"testing"
	"time"

	"github.com/sadhanaworks/sadhana/internal/infrastructure/storage"
)

func TestReminderDueWhenNeverBackedUp(t *testing.T) {
	ctx := context.Background()
	backend := newTestBackend(t)

	// Due even before any data exists; the absence of a backup timestamp
	// alone triggers the reminder.
	r := NewReminder(newTestManager(t, backend), 7)
	due, err := r.ShouldRemind(ctx, time.Now())
	if err != nil {
		t.Fatalf("ShouldRemind: %v", err)
	}
	if !due {
		t.Error("missing backup timestamp should trigger a reminder")
	}

	seedDocuments(t, backend, storage.KeyProgress)
	due, err = r.ShouldRemind(ctx, time.Now())
	if err != nil {
		t.Fatalf("ShouldRemind: %v", err)
	}
	if !due {
		t.Error("unbacked-up data should trigger a reminder")
	}
}

func TestReminderHonorsInterval(t *testing.T) {
	ctx := context.Background()
	backend := newTestBackend(t)
	seedDocuments(t, backend, storage.KeyProgress)

	m := newTestManager(t, backend)
	exportedAt := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return exportedAt }
	if _, err := m.Export(ctx); err != nil {
		t.Fatalf("Export: %v", err)
	}

	r := NewReminder(m, 7)

	due, err := r.ShouldRemind(ctx, exportedAt.Add(3*24*time.Hour))
	if err != nil {
		t.Fatalf("ShouldRemind: %v", err)
	}
	if due {
		t.Error("fresh backup should not remind")
	}

	due, err = r.ShouldRemind(ctx, exportedAt.Add(8*24*time.Hour))
	if err != nil {
		t.Fatalf("ShouldRemind: %v", err)
	}
	if !due {
		t.Error("stale backup should remind")
	}
}

func TestReminderDismissLastsForProcess(t *testing.T) {
	ctx := context.Background()
	backend := newTestBackend(t)
	seedDocuments(t, backend, storage.KeyProgress)

	m := newTestManager(t, backend)
	r := NewReminder(m, 7)

	due, err := r.ShouldRemind(ctx, time.Now())
	if err != nil {
		t.Fatalf("ShouldRemind: %v", err)
	}
	if !due {
		t.Fatal("expected reminder before dismissal")
	}

	r.Dismiss()
	due, err = r.ShouldRemind(ctx, time.Now())
	if err != nil {
		t.Fatalf("ShouldRemind: %v", err)
	}
	if due {
		t.Error("dismissed reminder should stay quiet")
	}

	// A fresh reminder, as on next process start, nags again.
	fresh := NewReminder(m, 7)
	due, err = fresh.ShouldRemind(ctx, time.Now())
	if err != nil {
		t.Fatalf("ShouldRemind: %v", err)
	}
	if !due {
		t.Error("dismissal should not survive a restart")
	}
}
