// Package backup implements full-state export and import of the persisted
// documents, plus the periodic backup reminder.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	domainErrors "github.com/sadhanaworks/sadhana/internal/domain/errors"
	"github.com/sadhanaworks/sadhana/internal/infrastructure/logging"
	"github.com/sadhanaworks/sadhana/internal/infrastructure/storage"
	"github.com/sadhanaworks/sadhana/internal/infrastructure/tracing"
)

// FormatVersion identifies the backup file layout.
const FormatVersion = "1.0"

// Timestamp layouts used in backup files and emergency slot keys.
const (
	exportDateLayout = time.RFC3339
	slotKeyLayout    = "20060102-150405"
	filenameLayout   = "2006-01-02"
	filenameTemplate = "sadhana-backup-%s.json"
)

// Snapshot is the backup file format. Document fields hold the raw serialized
// value of each key; nil means the key was absent when the backup was taken.
type Snapshot struct {
	Version    string `json:"version,omitempty"`
	ExportDate string `json:"exportDate,omitempty"`
	AppVersion string `json:"appVersion,omitempty"`

	Progress        *string `json:"progress,omitempty"`
	ProgramProgress *string `json:"programProgress,omitempty"`
	Preferences     *string `json:"preferences,omitempty"`
	CustomSessions  *string `json:"customSessions,omitempty"`
	Favorites       *string `json:"favorites,omitempty"`
}

// documents maps snapshot fields to their storage keys, in file order.
func (s *Snapshot) documents() map[string]*string {
	return map[string]*string{
		storage.KeyProgress:        s.Progress,
		storage.KeyProgramProgress: s.ProgramProgress,
		storage.KeyPreferences:     s.Preferences,
		storage.KeyCustomSessions:  s.CustomSessions,
		storage.KeyFavorites:       s.Favorites,
	}
}

// setDocument assigns the raw value for the given storage key.
func (s *Snapshot) setDocument(key, value string) {
	switch key {
	case storage.KeyProgress:
		s.Progress = &value
	case storage.KeyProgramProgress:
		s.ProgramProgress = &value
	case storage.KeyPreferences:
		s.Preferences = &value
	case storage.KeyCustomSessions:
		s.CustomSessions = &value
	case storage.KeyFavorites:
		s.Favorites = &value
	}
}

// validate applies the acceptance rules for imported files: the file must
// carry at least one of version and export date, and at least one document.
func (s *Snapshot) validate() error {
	if s.Version == "" && s.ExportDate == "" {
		return domainErrors.NewError(domainErrors.CodeBackup,
			"backup carries neither version nor export date", domainErrors.ErrInvalidBackup)
	}
	for _, value := range s.documents() {
		if value != nil {
			return nil
		}
	}
	return domainErrors.NewError(domainErrors.CodeBackup,
		"backup contains no documents", domainErrors.ErrInvalidBackup)
}

// ImportResult reports what a restore touched.
type ImportResult struct {
	Restored     []string
	Skipped      []string
	EmergencyKey string
}

// Manager exports and imports the full document set.
type Manager struct {
	backend    storage.Backend
	log        *logging.Logger
	tracer     *tracing.Tracer
	appVersion string
	now        func() time.Time
}

// NewManager creates a backup manager over the given backend.
func NewManager(backend storage.Backend, log *logging.Logger, tracer *tracing.Tracer, appVersion string) *Manager {
	return &Manager{
		backend:    backend,
		log:        log,
		tracer:     tracer,
		appVersion: appVersion,
		now:        time.Now,
	}
}

// DefaultFilename returns the conventional backup filename for the given day.
func DefaultFilename(now time.Time) string {
	return fmt.Sprintf(filenameTemplate, now.Format(filenameLayout))
}

// Export bundles the current document values into a snapshot and records the
// backup time. Absent documents are omitted from the snapshot.
func (m *Manager) Export(ctx context.Context) (Snapshot, error) {
	ctx, span := m.tracer.StartBackupSpan(ctx, "export")

	now := m.now()
	snap := Snapshot{
		Version:    FormatVersion,
		ExportDate: now.Format(exportDateLayout),
		AppVersion: m.appVersion,
	}

	count := 0
	for _, key := range storage.DocumentKeys {
		value, err := m.backend.Get(ctx, key)
		if err != nil {
			if domainErrors.Is(err, domainErrors.ErrKeyNotFound) {
				continue
			}
			span.EndWithError(err)
			return Snapshot{}, err
		}
		snap.setDocument(key, value)
		count++
	}

	if err := m.backend.Set(ctx, storage.KeyLastBackupDate, now.Format(exportDateLayout)); err != nil {
		span.EndWithError(err)
		return Snapshot{}, err
	}

	span.SetDocumentCount(count)
	span.End()
	m.log.InfoContext(ctx, "backup exported", "documents", count)
	return snap, nil
}

// ExportToFile writes the snapshot as indented JSON to the given path.
func (m *Manager) ExportToFile(ctx context.Context, path string) error {
	snap, err := m.Export(ctx)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal backup: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write backup file: %w", err)
	}
	return nil
}

// Import validates the backup data, takes an emergency snapshot of the
// current state, and restores every document the backup carries. Documents
// missing from the backup are left untouched.
func (m *Manager) Import(ctx context.Context, data []byte) (ImportResult, error) {
	ctx, span := m.tracer.StartBackupSpan(ctx, "import")

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		wrapped := domainErrors.NewError(domainErrors.CodeBackup, "backup is not valid JSON", domainErrors.ErrInvalidBackup)
		span.EndWithError(wrapped)
		return ImportResult{}, wrapped
	}
	if err := snap.validate(); err != nil {
		span.EndWithError(err)
		return ImportResult{}, err
	}

	emergencyKey, err := m.takeEmergencySnapshot(ctx)
	if err != nil {
		span.EndWithError(err)
		return ImportResult{}, err
	}

	result := ImportResult{EmergencyKey: emergencyKey}
	for _, key := range storage.DocumentKeys {
		value := snap.documents()[key]
		if value == nil {
			result.Skipped = append(result.Skipped, key)
			continue
		}
		if err := m.backend.Set(ctx, key, *value); err != nil {
			span.EndWithError(err)
			return result, err
		}
		result.Restored = append(result.Restored, key)
	}

	if err := m.backend.Set(ctx, storage.KeyLastRestoreDate, m.now().Format(exportDateLayout)); err != nil {
		span.EndWithError(err)
		return result, err
	}

	span.SetDocumentCount(len(result.Restored))
	span.End()
	m.log.InfoContext(ctx, "backup imported",
		"restored", len(result.Restored),
		"skipped", len(result.Skipped),
		"emergency_key", emergencyKey,
	)
	return result, nil
}

// ImportFromFile reads and imports a backup file.
func (m *Manager) ImportFromFile(ctx context.Context, path string) (ImportResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ImportResult{}, domainErrors.NewError(domainErrors.CodeBackup,
			fmt.Sprintf("cannot read %s", path), domainErrors.ErrBackupRead)
	}
	return m.Import(ctx, data)
}

// takeEmergencySnapshot saves the current document values under a fresh
// timestamped slot so a bad restore can be undone by hand.
func (m *Manager) takeEmergencySnapshot(ctx context.Context) (string, error) {
	snap := Snapshot{
		Version:    FormatVersion,
		ExportDate: m.now().Format(exportDateLayout),
		AppVersion: m.appVersion,
	}
	for _, key := range storage.DocumentKeys {
		value, err := m.backend.Get(ctx, key)
		if err != nil {
			if domainErrors.Is(err, domainErrors.ErrKeyNotFound) {
				continue
			}
			return "", err
		}
		snap.setDocument(key, value)
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("failed to marshal emergency snapshot: %w", err)
	}

	key, err := m.freeSlotKey(ctx)
	if err != nil {
		return "", err
	}
	if err := m.backend.Set(ctx, key, string(data)); err != nil {
		return "", err
	}
	return key, nil
}

// freeSlotKey returns an unused emergency slot key. Slots are never
// overwritten, so rapid successive imports each keep their own safety copy;
// same-second collisions get a numeric suffix.
func (m *Manager) freeSlotKey(ctx context.Context) (string, error) {
	base := storage.EmergencyBackupPrefix + m.now().Format(slotKeyLayout)

	key := base
	for n := 2; ; n++ {
		_, err := m.backend.Get(ctx, key)
		if domainErrors.Is(err, domainErrors.ErrKeyNotFound) {
			return key, nil
		}
		if err != nil {
			return "", err
		}
		key = fmt.Sprintf("%s-%d", base, n)
	}
}

// LastBackupDate returns the time of the most recent export, if any.
func (m *Manager) LastBackupDate(ctx context.Context) (time.Time, bool, error) {
	return m.timestampAt(ctx, storage.KeyLastBackupDate)
}

// LastRestoreDate returns the time of the most recent import, if any.
func (m *Manager) LastRestoreDate(ctx context.Context) (time.Time, bool, error) {
	return m.timestampAt(ctx, storage.KeyLastRestoreDate)
}

func (m *Manager) timestampAt(ctx context.Context, key string) (time.Time, bool, error) {
	value, err := m.backend.Get(ctx, key)
	if err != nil {
		if domainErrors.Is(err, domainErrors.ErrKeyNotFound) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, err
	}
	at, err := time.Parse(exportDateLayout, value)
	if err != nil {
		m.log.WarnContext(ctx, "discarding unparseable timestamp", "key", key, "value", value)
		return time.Time{}, false, nil
	}
	return at, true, nil
}
