// Package stream fans freshly ingested location samples out to
// connected observers with best-effort, per-observer delivery.
package stream

import (
	"sync"

	nuts "github.com/vaudience/go-nuts"

	"github.com/itsatony/trackhub/internal/models"
)

// Observer is one connected realtime client. Send must be safe to
// call from the broadcast goroutine and must return promptly; an
// error marks the observer dead.
type Observer interface {
	ID() string
	Send(update models.LocationUpdate) error
	Close() error
}

// Hub maintains the set of connected observers. Registration,
// removal and broadcast may all run concurrently.
type Hub struct {
	mu        sync.RWMutex
	observers map[string]Observer
	events    *nuts.EventEmitter
}

// New creates an empty hub.
func New() *Hub {
	return &Hub{
		observers: make(map[string]Observer),
		events:    nuts.NewEventEmitter(),
	}
}

// Register adds an observer to the active set.
func (h *Hub) Register(obs Observer) {
	h.mu.Lock()
	h.observers[obs.ID()] = obs
	h.mu.Unlock()

	nuts.L.Infof("[Stream] Observer %s connected", obs.ID())
	h.events.Emit("observer.connected", obs.ID())
}

// Unregister removes an observer; removing an absent observer is a
// no-op.
func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	_, present := h.observers[id]
	delete(h.observers, id)
	h.mu.Unlock()

	if present {
		nuts.L.Infof("[Stream] Observer %s disconnected", id)
		h.events.Emit("observer.disconnected", id)
	}
}

// Broadcast delivers the update to every currently registered
// observer. Delivery is independent per observer: a failing observer
// is unregistered and closed without affecting the others, and no
// error ever reaches the caller.
func (h *Hub) Broadcast(update models.LocationUpdate) {
	h.mu.RLock()
	snapshot := make([]Observer, 0, len(h.observers))
	for _, obs := range h.observers {
		snapshot = append(snapshot, obs)
	}
	h.mu.RUnlock()

	for _, obs := range snapshot {
		if err := obs.Send(update); err != nil {
			nuts.L.Warnf("[Stream] Dropping observer %s: %v", obs.ID(), err)
			h.Unregister(obs.ID())
			if closeErr := obs.Close(); closeErr != nil {
				nuts.L.Debugf("[Stream] Close of observer %s: %v", obs.ID(), closeErr)
			}
		}
	}
}

// Count returns the number of connected observers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.observers)
}

// OnObserverEvent registers a callback for observer lifecycle events
// ("observer.connected", "observer.disconnected").
func (h *Hub) OnObserverEvent(event string, handler func(id string)) {
	h.events.On(event, "stream_handler", func(args ...interface{}) {
		if len(args) > 0 {
			if id, ok := args[0].(string); ok {
				handler(id)
			}
		}
	})
}
