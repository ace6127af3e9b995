// Package sync fans change notifications from the storage backend out to
// in-process subscribers. Only writes made by other processes arrive here;
// a process never observes its own writes.
package sync

import (
	"context"
	"sync"

	"github.com/sadhanaworks/sadhana/internal/infrastructure/logging"
	"github.com/sadhanaworks/sadhana/internal/infrastructure/storage"
)

// Handler receives a change event for a subscribed key.
type Handler func(event storage.ChangeEvent)

// Hub dispatches foreign-write events to key subscribers. Subscribers reload
// their documents on notification; the last write to a key wins.
type Hub struct {
	backend storage.Backend
	log     *logging.Logger

	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]Handler
}

// NewHub creates a hub over the given backend. Run must be called to start
// dispatching.
func NewHub(backend storage.Backend, log *logging.Logger) *Hub {
	return &Hub{
		backend: backend,
		log:     log,
		subs:    make(map[string]map[int]Handler),
	}
}

// Subscribe registers a handler for changes to one key. An empty key
// subscribes to every change. The returned function removes the
// subscription.
func (h *Hub) Subscribe(key string, fn Handler) func() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subs[key] == nil {
		h.subs[key] = make(map[int]Handler)
	}
	id := h.nextID
	h.nextID++
	h.subs[key][id] = fn

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.subs[key], id)
	}
}

// Run consumes change events until ctx is cancelled or the backend closes
// its watch channel.
func (h *Hub) Run(ctx context.Context) error {
	events, err := h.backend.Watch(ctx)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-events:
			if !ok {
				return nil
			}
			h.dispatch(ctx, event)
		}
	}
}

// dispatch fans one event out to the key's subscribers and the wildcard
// subscribers.
func (h *Hub) dispatch(ctx context.Context, event storage.ChangeEvent) {
	h.mu.Lock()
	handlers := make([]Handler, 0, len(h.subs[event.Key])+len(h.subs[""]))
	for _, fn := range h.subs[event.Key] {
		handlers = append(handlers, fn)
	}
	for _, fn := range h.subs[""] {
		handlers = append(handlers, fn)
	}
	h.mu.Unlock()

	h.log.DebugContext(ctx, "document changed externally", "key", event.Key, "handlers", len(handlers))
	for _, fn := range handlers {
		fn(event)
	}
}
