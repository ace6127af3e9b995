// Package stores provides the application services that mediate between the
// CLI and the persisted documents.
package stores

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/sadhanaworks/sadhana/internal/domain/progress"
	"github.com/sadhanaworks/sadhana/internal/infrastructure/logging"
	"github.com/sadhanaworks/sadhana/internal/infrastructure/storage"
	"github.com/sadhanaworks/sadhana/internal/infrastructure/storage/docstore"
)

// Schema versions for the progress documents.
const (
	progressSchemaVersion = 2
	programSchemaVersion  = 1
)

// ProgressStore manages the practice history and program progress documents.
type ProgressStore struct {
	history  *docstore.Store[progress.Document]
	programs *docstore.Store[progress.ProgramDocument]
	log      *logging.Logger
}

// NewProgressStore creates the progress store over the given backend.
func NewProgressStore(backend storage.Backend, log *logging.Logger) *ProgressStore {
	return &ProgressStore{
		history: docstore.New(backend, storage.KeyProgress, progressSchemaVersion, progress.NewDocument,
			docstore.WithMigration[progress.Document](1, migrateProgressV1),
			docstore.WithLogger[progress.Document](log),
		),
		programs: docstore.New(backend, storage.KeyProgramProgress, programSchemaVersion, progress.NewProgramDocument,
			docstore.WithLogger[progress.ProgramDocument](log),
		),
		log: log,
	}
}

// migrateProgressV1 upgrades version 1 documents, which stored the favorite
// toggle log under "favoriteHistory".
func migrateProgressV1(raw json.RawMessage) (json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	if old, ok := fields["favoriteHistory"]; ok {
		fields["favoriteEvents"] = old
		delete(fields, "favoriteHistory")
	}
	return json.Marshal(fields)
}

// History returns the current practice history.
func (s *ProgressStore) History(ctx context.Context) (progress.Document, error) {
	return s.history.Load(ctx)
}

// RecordSession appends a completed session and persists the updated history.
// A missing record ID and completion time are filled in.
func (s *ProgressStore) RecordSession(ctx context.Context, rec progress.CompletedSession) (progress.Document, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CompletedAt.IsZero() {
		rec.CompletedAt = time.Now()
	}

	doc, err := s.history.Load(ctx)
	if err != nil {
		return doc, err
	}
	doc.RecordSession(rec)
	if err := s.history.Save(ctx, doc); err != nil {
		return doc, err
	}

	s.log.InfoContext(ctx, "session recorded",
		"session_id", rec.SessionID,
		"minutes", rec.DurationMinutes,
		"streak", doc.CurrentStreak,
	)

	if rec.ProgramID != "" {
		if err := s.MarkProgramDay(ctx, rec.ProgramID, rec.ProgramWeek, rec.ProgramDay); err != nil {
			return doc, err
		}
	}
	return doc, nil
}

// RecordBreathing appends a completed breathing exercise.
func (s *ProgressStore) RecordBreathing(ctx context.Context, rec progress.CompletedBreathing) (progress.Document, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CompletedAt.IsZero() {
		rec.CompletedAt = time.Now()
	}

	doc, err := s.history.Load(ctx)
	if err != nil {
		return doc, err
	}
	doc.RecordBreathing(rec)
	if err := s.history.Save(ctx, doc); err != nil {
		return doc, err
	}

	s.log.InfoContext(ctx, "breathing recorded",
		"exercise_id", rec.ExerciseID,
		"minutes", rec.DurationMinutes,
	)
	return doc, nil
}

// LogFavoriteToggle records a favorite toggle in the bounded activity log.
func (s *ProgressStore) LogFavoriteToggle(ctx context.Context, event progress.FavoriteEvent) error {
	if event.At.IsZero() {
		event.At = time.Now()
	}
	doc, err := s.history.Load(ctx)
	if err != nil {
		return err
	}
	doc.LogFavoriteToggle(event)
	return s.history.Save(ctx, doc)
}

// LogRecommendation records a recommendation outcome in the bounded activity log.
func (s *ProgressStore) LogRecommendation(ctx context.Context, event progress.RecommendationEvent) error {
	if event.At.IsZero() {
		event.At = time.Now()
	}
	doc, err := s.history.Load(ctx)
	if err != nil {
		return err
	}
	doc.LogRecommendation(event)
	return s.history.Save(ctx, doc)
}

// Stats derives display statistics relative to now.
func (s *ProgressStore) Stats(ctx context.Context, now time.Time) (progress.Stats, error) {
	doc, err := s.history.Load(ctx)
	if err != nil {
		return progress.Stats{}, err
	}
	return doc.ComputeStats(now), nil
}

// MarkProgramDay records a program day as completed.
func (s *ProgressStore) MarkProgramDay(ctx context.Context, programID string, week, day int) error {
	doc, err := s.programs.Load(ctx)
	if err != nil {
		return err
	}
	doc.MarkCompleted(programID, week, day)
	return s.programs.Save(ctx, doc)
}

// Programs returns the current program progress.
func (s *ProgressStore) Programs(ctx context.Context) (progress.ProgramDocument, error) {
	return s.programs.Load(ctx)
}

// Reset clears the practice history and program progress.
func (s *ProgressStore) Reset(ctx context.Context) error {
	if err := s.history.Clear(ctx); err != nil {
		return err
	}
	if err := s.programs.Clear(ctx); err != nil {
		return err
	}
	s.log.InfoContext(ctx, "progress reset")
	return nil
}
