// Package docstore layers versioned JSON documents over a storage backend.
// Each store owns one key and guarantees that Load always yields a usable
// state: absent or corrupt documents fall back to the default rather than
// failing the caller.
package docstore

import (
	"context"
	"encoding/json"
	"fmt"

	domainErrors "github.com/sadhanaworks/sadhana/internal/domain/errors"
	"github.com/sadhanaworks/sadhana/internal/infrastructure/logging"
	"github.com/sadhanaworks/sadhana/internal/infrastructure/storage"
)

// envelope is the persisted wire form: the schema version plus the raw state.
type envelope struct {
	Version int             `json:"version"`
	State   json.RawMessage `json:"state"`
}

// Migration upgrades a raw state payload from schema version N to N+1.
type Migration func(raw json.RawMessage) (json.RawMessage, error)

// Store manages one versioned document under a fixed key.
type Store[T any] struct {
	backend    storage.Backend
	key        string
	version    int
	defaults   func() T
	migrations map[int]Migration
	log        *logging.Logger
}

// Option configures a Store.
type Option[T any] func(*Store[T])

// WithMigration registers an upgrade from schema version `from` to `from+1`,
// applied during Load when a stored document is behind the current version.
func WithMigration[T any](from int, m Migration) Option[T] {
	return func(s *Store[T]) {
		s.migrations[from] = m
	}
}

// WithLogger sets the logger used for corruption diagnostics.
func WithLogger[T any](log *logging.Logger) Option[T] {
	return func(s *Store[T]) {
		s.log = log
	}
}

// New creates a store for the given key at the given schema version.
// defaults produces the state returned when the key is absent or unreadable.
func New[T any](backend storage.Backend, key string, version int, defaults func() T, opts ...Option[T]) *Store[T] {
	s := &Store[T]{
		backend:    backend,
		key:        key,
		version:    version,
		defaults:   defaults,
		migrations: make(map[int]Migration),
		log:        logging.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key returns the storage key this store manages.
func (s *Store[T]) Key() string {
	return s.key
}

// Load reads the document. An absent key yields the default state; a document
// that cannot be parsed is logged and replaced by the default state. Only
// backend I/O failures propagate as errors.
func (s *Store[T]) Load(ctx context.Context) (T, error) {
	raw, err := s.backend.Get(ctx, s.key)
	if err != nil {
		if domainErrors.Is(err, domainErrors.ErrKeyNotFound) {
			return s.defaults(), nil
		}
		return s.defaults(), err
	}

	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		s.log.Warn("discarding corrupt document", "key", s.key, "error", err)
		return s.defaults(), nil
	}

	state := env.State
	if env.Version < s.version {
		state, err = s.migrate(env.Version, state)
		if err != nil {
			s.log.Warn("discarding unmigratable document", "key", s.key, "stored_version", env.Version, "error", err)
			return s.defaults(), nil
		}
	}

	out := s.defaults()
	if err := json.Unmarshal(state, &out); err != nil {
		s.log.Warn("discarding corrupt document state", "key", s.key, "error", err)
		return s.defaults(), nil
	}
	return out, nil
}

// Save serializes the state under the current schema version and writes it.
// Backend write failures surface to the caller; there is no retry.
func (s *Store[T]) Save(ctx context.Context, state T) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", s.key, err)
	}

	data, err := json.Marshal(envelope{Version: s.version, State: raw})
	if err != nil {
		return fmt.Errorf("failed to marshal %s envelope: %w", s.key, err)
	}

	return s.backend.Set(ctx, s.key, string(data))
}

// Clear removes the document; subsequent Loads return the default state.
func (s *Store[T]) Clear(ctx context.Context) error {
	return s.backend.Delete(ctx, s.key)
}

// migrate runs the migration chain from the stored version up to the current one.
func (s *Store[T]) migrate(from int, raw json.RawMessage) (json.RawMessage, error) {
	for v := from; v < s.version; v++ {
		m, ok := s.migrations[v]
		if !ok {
			return nil, fmt.Errorf("no migration from version %d", v)
		}
		next, err := m(raw)
		if err != nil {
			return nil, fmt.Errorf("migration from version %d failed: %w", v, err)
		}
		raw = next
	}
	return raw, nil
}
