package stores

import (
	"context"

	"github.com/sadhanaworks/sadhana/internal/domain/practice"
	"github.com/sadhanaworks/sadhana/internal/domain/preferences"
	"github.com/sadhanaworks/sadhana/internal/infrastructure/logging"
	"github.com/sadhanaworks/sadhana/internal/infrastructure/storage"
	"github.com/sadhanaworks/sadhana/internal/infrastructure/storage/docstore"
)

// Schema versions for the settings documents.
const (
	preferencesSchemaVersion    = 1
	favoritesSchemaVersion      = 1
	overridesSchemaVersion      = 1
	customSessionsSchemaVersion = 1
)

// PreferencesStore manages the user settings documents: preferences,
// favorites, duration overrides, and custom sessions.
type PreferencesStore struct {
	prefs     *docstore.Store[preferences.Document]
	favorites *docstore.Store[preferences.Favorites]
	overrides *docstore.Store[preferences.Overrides]
	custom    *docstore.Store[preferences.CustomSessions]
	log       *logging.Logger
}

// NewPreferencesStore creates the settings store over the given backend.
func NewPreferencesStore(backend storage.Backend, log *logging.Logger) *PreferencesStore {
	return &PreferencesStore{
		prefs: docstore.New(backend, storage.KeyPreferences, preferencesSchemaVersion, preferences.NewDocument,
			docstore.WithLogger[preferences.Document](log)),
		favorites: docstore.New(backend, storage.KeyFavorites, favoritesSchemaVersion, preferences.NewFavorites,
			docstore.WithLogger[preferences.Favorites](log)),
		overrides: docstore.New(backend, storage.KeyDurationOverrides, overridesSchemaVersion, preferences.NewOverrides,
			docstore.WithLogger[preferences.Overrides](log)),
		custom: docstore.New(backend, storage.KeyCustomSessions, customSessionsSchemaVersion, preferences.NewCustomSessions,
			docstore.WithLogger[preferences.CustomSessions](log)),
		log: log,
	}
}

// Preferences returns the current user preferences.
func (s *PreferencesStore) Preferences(ctx context.Context) (preferences.Document, error) {
	return s.prefs.Load(ctx)
}

// UpdatePreferences loads the preferences, applies mutate, and persists the
// result.
func (s *PreferencesStore) UpdatePreferences(ctx context.Context, mutate func(*preferences.Document)) (preferences.Document, error) {
	doc, err := s.prefs.Load(ctx)
	if err != nil {
		return doc, err
	}
	mutate(&doc)
	if err := s.prefs.Save(ctx, doc); err != nil {
		return doc, err
	}
	return doc, nil
}

// SetRestSeconds updates the rest duration, clamped to the allowed range.
func (s *PreferencesStore) SetRestSeconds(ctx context.Context, seconds int) (preferences.Document, error) {
	return s.UpdatePreferences(ctx, func(d *preferences.Document) {
		d.SetRestSeconds(seconds)
	})
}

// SetTheme updates the display theme.
func (s *PreferencesStore) SetTheme(ctx context.Context, theme preferences.Theme) (preferences.Document, error) {
	return s.UpdatePreferences(ctx, func(d *preferences.Document) {
		d.Theme = theme
	})
}

// Favorites returns the current favorite-ID sets.
func (s *PreferencesStore) Favorites(ctx context.Context) (preferences.Favorites, error) {
	return s.favorites.Load(ctx)
}

// ToggleFavorite flips the favorite state of the given item and reports the
// new state.
func (s *PreferencesStore) ToggleFavorite(ctx context.Context, id string, kind preferences.Kind) (bool, error) {
	fav, err := s.favorites.Load(ctx)
	if err != nil {
		return false, err
	}
	favorited := fav.Toggle(id, kind)
	if err := s.favorites.Save(ctx, fav); err != nil {
		return false, err
	}
	s.log.InfoContext(ctx, "favorite toggled", "item_id", id, "kind", kind, "favorited", favorited)
	return favorited, nil
}

// IsFavorite reports whether the item is currently favorited.
func (s *PreferencesStore) IsFavorite(ctx context.Context, id string, kind preferences.Kind) (bool, error) {
	fav, err := s.favorites.Load(ctx)
	if err != nil {
		return false, err
	}
	return fav.Contains(id, kind), nil
}

// SetOverride records a per-pose duration override for a session.
func (s *PreferencesStore) SetOverride(ctx context.Context, sessionID string, pos, seconds int) error {
	doc, err := s.overrides.Load(ctx)
	if err != nil {
		return err
	}
	doc.Set(sessionID, pos, seconds)
	return s.overrides.Save(ctx, doc)
}

// OverridesFor returns the duration overrides for one session; may be nil.
func (s *PreferencesStore) OverridesFor(ctx context.Context, sessionID string) (map[int]int, error) {
	doc, err := s.overrides.Load(ctx)
	if err != nil {
		return nil, err
	}
	return doc.For(sessionID), nil
}

// ClearOverrides drops all overrides for one session.
func (s *PreferencesStore) ClearOverrides(ctx context.Context, sessionID string) error {
	doc, err := s.overrides.Load(ctx)
	if err != nil {
		return err
	}
	doc.Remove(sessionID)
	return s.overrides.Save(ctx, doc)
}

// CustomSessions returns all user-authored sessions.
func (s *PreferencesStore) CustomSessions(ctx context.Context) ([]practice.Session, error) {
	doc, err := s.custom.Load(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Sessions, nil
}

// FindCustomSession returns the user-authored session with the given ID.
func (s *PreferencesStore) FindCustomSession(ctx context.Context, id string) (practice.Session, bool, error) {
	doc, err := s.custom.Load(ctx)
	if err != nil {
		return practice.Session{}, false, err
	}
	session, ok := doc.Find(id)
	return session, ok, nil
}

// SaveCustomSession validates and persists a user-authored session,
// replacing any existing session with the same ID.
func (s *PreferencesStore) SaveCustomSession(ctx context.Context, session practice.Session) error {
	if err := session.Validate(); err != nil {
		return err
	}
	doc, err := s.custom.Load(ctx)
	if err != nil {
		return err
	}
	doc.Add(session)
	if err := s.custom.Save(ctx, doc); err != nil {
		return err
	}
	s.log.InfoContext(ctx, "custom session saved", "session_id", session.ID)
	return nil
}

// DeleteCustomSession removes a user-authored session and reports whether it
// existed.
func (s *PreferencesStore) DeleteCustomSession(ctx context.Context, id string) (bool, error) {
	doc, err := s.custom.Load(ctx)
	if err != nil {
		return false, err
	}
	removed := doc.Remove(id)
	if !removed {
		return false, nil
	}
	if err := s.custom.Save(ctx, doc); err != nil {
		return false, err
	}
	return true, nil
}
