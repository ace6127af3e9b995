package stores

import (
	"context"
	"testing"

	"github.com/sadhanaworks/sadhana/internal/domain/practice"
	"github.com/sadhanaworks/sadhana/internal/domain/preferences"
	"github.com/sadhanaworks/sadhana/internal/infrastructure/logging"
)

func TestPreferencesStoreDefaults(t *testing.T) {
	ctx := context.Background()
	store := NewPreferencesStore(newTestBackend(t), logging.Default())

	doc, err := store.Preferences(ctx)
	if err != nil {
		t.Fatalf("Preferences: %v", err)
	}
	if doc.Theme != preferences.ThemeSystem {
		t.Errorf("expected system theme, got %s", doc.Theme)
	}
	if doc.RestSeconds != 10 {
		t.Errorf("expected default rest of 10s, got %d", doc.RestSeconds)
	}
}

func TestPreferencesStoreSetRestSecondsClamped(t *testing.T) {
	ctx := context.Background()
	store := NewPreferencesStore(newTestBackend(t), logging.Default())

	doc, err := store.SetRestSeconds(ctx, 90)
	if err != nil {
		t.Fatalf("SetRestSeconds: %v", err)
	}
	if doc.RestSeconds != preferences.MaxRestSeconds {
		t.Errorf("expected clamp to %d, got %d", preferences.MaxRestSeconds, doc.RestSeconds)
	}

	reloaded, err := store.Preferences(ctx)
	if err != nil {
		t.Fatalf("Preferences: %v", err)
	}
	if reloaded.RestSeconds != preferences.MaxRestSeconds {
		t.Errorf("clamped value not persisted, got %d", reloaded.RestSeconds)
	}
}

func TestPreferencesStoreToggleFavorite(t *testing.T) {
	ctx := context.Background()
	store := NewPreferencesStore(newTestBackend(t), logging.Default())

	on, err := store.ToggleFavorite(ctx, "morning-flow", preferences.KindSession)
	if err != nil {
		t.Fatalf("ToggleFavorite: %v", err)
	}
	if !on {
		t.Fatal("expected first toggle to favorite")
	}

	fav, err := store.IsFavorite(ctx, "morning-flow", preferences.KindSession)
	if err != nil {
		t.Fatalf("IsFavorite: %v", err)
	}
	if !fav {
		t.Error("favorite not persisted")
	}

	// Same ID under the other kind is independent.
	fav, err = store.IsFavorite(ctx, "morning-flow", preferences.KindBreathing)
	if err != nil {
		t.Fatalf("IsFavorite: %v", err)
	}
	if fav {
		t.Error("favorite leaked across kinds")
	}

	on, err = store.ToggleFavorite(ctx, "morning-flow", preferences.KindSession)
	if err != nil {
		t.Fatalf("ToggleFavorite: %v", err)
	}
	if on {
		t.Error("expected second toggle to unfavorite")
	}
}

func TestPreferencesStoreOverrides(t *testing.T) {
	ctx := context.Background()
	store := NewPreferencesStore(newTestBackend(t), logging.Default())

	if err := store.SetOverride(ctx, "morning-flow", 0, 5); err != nil {
		t.Fatalf("SetOverride: %v", err)
	}
	if err := store.SetOverride(ctx, "morning-flow", 2, 45); err != nil {
		t.Fatalf("SetOverride: %v", err)
	}

	overrides, err := store.OverridesFor(ctx, "morning-flow")
	if err != nil {
		t.Fatalf("OverridesFor: %v", err)
	}
	if overrides[0] != practice.MinPoseSeconds {
		t.Errorf("expected floor of %d, got %d", practice.MinPoseSeconds, overrides[0])
	}
	if overrides[2] != 45 {
		t.Errorf("expected 45, got %d", overrides[2])
	}

	if err := store.ClearOverrides(ctx, "morning-flow"); err != nil {
		t.Fatalf("ClearOverrides: %v", err)
	}
	overrides, err = store.OverridesFor(ctx, "morning-flow")
	if err != nil {
		t.Fatalf("OverridesFor: %v", err)
	}
	if overrides != nil {
		t.Errorf("expected no overrides after clear, got %v", overrides)
	}
}

func TestPreferencesStoreCustomSessions(t *testing.T) {
	ctx := context.Background()
	store := NewPreferencesStore(newTestBackend(t), logging.Default())

	session := practice.Session{
		ID:   "my-flow",
		Name: "My Flow",
		Poses: []practice.Pose{
			{Name: "Mountain", Seconds: 30},
			{Name: "Forward Fold", Seconds: 30},
		},
	}
	if err := store.SaveCustomSession(ctx, session); err != nil {
		t.Fatalf("SaveCustomSession: %v", err)
	}

	got, ok, err := store.FindCustomSession(ctx, "my-flow")
	if err != nil {
		t.Fatalf("FindCustomSession: %v", err)
	}
	if !ok || got.Name != "My Flow" {
		t.Fatalf("custom session not found: ok=%v got=%+v", ok, got)
	}

	// Saving again with the same ID replaces, not duplicates.
	session.Name = "My Flow v2"
	if err := store.SaveCustomSession(ctx, session); err != nil {
		t.Fatalf("SaveCustomSession replace: %v", err)
	}
	all, err := store.CustomSessions(ctx)
	if err != nil {
		t.Fatalf("CustomSessions: %v", err)
	}
	if len(all) != 1 || all[0].Name != "My Flow v2" {
		t.Fatalf("replace failed: %+v", all)
	}

	removed, err := store.DeleteCustomSession(ctx, "my-flow")
	if err != nil {
		t.Fatalf("DeleteCustomSession: %v", err)
	}
	if !removed {
		t.Error("expected deletion to report true")
	}
	removed, err = store.DeleteCustomSession(ctx, "my-flow")
	if err != nil {
		t.Fatalf("DeleteCustomSession absent: %v", err)
	}
	if removed {
		t.Error("expected deletion of absent session to report false")
	}
}

func TestPreferencesStoreRejectsInvalidCustomSession(t *testing.T) {
	ctx := context.Background()
	store := NewPreferencesStore(newTestBackend(t), logging.Default())

	err := store.SaveCustomSession(ctx, practice.Session{ID: "empty", Name: "Empty"})
	if err == nil {
		t.Fatal("expected validation error for session without poses")
	}

	all, err := store.CustomSessions(ctx)
	if err != nil {
		t.Fatalf("CustomSessions: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("invalid session was persisted: %+v", all)
	}
}
