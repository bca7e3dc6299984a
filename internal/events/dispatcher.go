package events

import (
	"context"
	"log/slog"
	"sync"
)

// Event is a domain event delivered to observers.
type Event struct {
	// Type is the event type (e.g., "browse:changed", "card:quantity").
	Type string

	// TypedData carries the event payload. Observers recover the
	// concrete type with GetTypedData.
	TypedData any

	// Context provides execution context for the event.
	Context context.Context
}

// Observer is notified of dispatched events. Implementations filter
// the event types they care about via ShouldHandle.
type Observer interface {
	// OnEvent is called for each dispatched event the observer
	// accepts. Errors are logged by the dispatcher; they do not stop
	// delivery to other observers.
	OnEvent(event Event) error

	// Name identifies the observer in logs.
	Name() string

	// ShouldHandle reports whether this observer wants the given
	// event type.
	ShouldHandle(eventType string) bool
}

// Dispatcher distributes events to registered observers. Safe for
// concurrent use.
type Dispatcher struct {
	mu        sync.RWMutex
	observers []Observer
	logger    *slog.Logger
}

// NewDispatcher creates a dispatcher. A nil logger falls back to
// slog.Default().
func NewDispatcher(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		observers: make([]Observer, 0),
		logger:    logger,
	}
}

// Register adds an observer. It will receive all future events that
// pass its ShouldHandle filter.
func (d *Dispatcher) Register(observer Observer) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.observers = append(d.observers, observer)
	d.logger.Debug("observer registered", "observer", observer.Name())
}

// Unregister removes an observer.
func (d *Dispatcher) Unregister(observer Observer) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i, obs := range d.observers {
		if obs == observer {
			d.observers[i] = d.observers[len(d.observers)-1]
			d.observers = d.observers[:len(d.observers)-1]
			d.logger.Debug("observer unregistered", "observer", observer.Name())
			return
		}
	}
}

// Dispatch delivers an event to all observers sequentially, in
// registration order. Observer errors are logged and delivery
// continues.
func (d *Dispatcher) Dispatch(event Event) {
	for _, observer := range d.snapshot() {
		if !observer.ShouldHandle(event.Type) {
			continue
		}
		if err := observer.OnEvent(event); err != nil {
			d.logger.Warn("observer failed to handle event",
				"observer", observer.Name(), "event", event.Type, "error", err)
		}
	}
}

// DispatchAsync delivers an event with one goroutine per observer.
// Used for slow handlers that must not block the caller.
func (d *Dispatcher) DispatchAsync(event Event) {
	for _, observer := range d.snapshot() {
		if !observer.ShouldHandle(event.Type) {
			continue
		}
		go func(obs Observer) {
			if err := obs.OnEvent(event); err != nil {
				d.logger.Warn("observer failed to handle event",
					"observer", obs.Name(), "event", event.Type, "error", err)
			}
		}(observer)
	}
}

// ObserverCount returns the number of registered observers.
func (d *Dispatcher) ObserverCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.observers)
}

// Clear removes all observers.
func (d *Dispatcher) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.observers = make([]Observer, 0)
}

func (d *Dispatcher) snapshot() []Observer {
	d.mu.RLock()
	defer d.mu.RUnlock()
	observers := make([]Observer, len(d.observers))
	copy(observers, d.observers)
	return observers
}

// NewTypedEvent creates an Event carrying a typed payload.
func NewTypedEvent[T any](eventType string, data T, ctx context.Context) Event {
	return Event{
		Type:      eventType,
		TypedData: data,
		Context:   ctx,
	}
}

// GetTypedData extracts the typed payload from an event. Returns the
// zero value and false when the payload is absent or of another type.
func GetTypedData[T any](event Event) (T, bool) {
	var zero T
	if event.TypedData == nil {
		return zero, false
	}
	typed, ok := event.TypedData.(T)
	return typed, ok
}
