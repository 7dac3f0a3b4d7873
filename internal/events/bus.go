package events

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Handler processes a single event. Handlers run outside the emitter's
// goroutine and must not block for long periods; slow consumers should
// hand the event off to a buffered channel and drop when full.
type Handler func(*Event)

// Bus is an in-process publish/subscribe hub. Emission is asynchronous:
// emitters never wait on handlers, and a panicking handler cannot take
// down the emitter or its sibling handlers.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	byType map[EventType]map[int]Handler
	log    zerolog.Logger
}

// NewBus creates a new event bus
func NewBus(log zerolog.Logger) *Bus {
	return &Bus{
		byType: make(map[EventType]map[int]Handler),
		log:    log.With().Str("service", "event_bus").Logger(),
	}
}

// Subscribe registers a handler for the given event type and returns a
// subscription ID that can be passed to Unsubscribe.
func (b *Bus) Subscribe(eventType EventType, handler Handler) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID

	if b.byType[eventType] == nil {
		b.byType[eventType] = make(map[int]Handler)
	}
	b.byType[eventType][id] = handler

	return id
}

// Unsubscribe removes a handler previously registered with Subscribe.
// Unknown IDs are ignored.
func (b *Bus) Unsubscribe(eventType EventType, id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if handlers, ok := b.byType[eventType]; ok {
		delete(handlers, id)
	}
}

// Emit publishes an event to every handler subscribed to its type.
// Handlers for one event run sequentially on a single goroutine, so a
// handler observes events it subscribed to in emission order only when
// the emitter is single-threaded.
func (b *Bus) Emit(eventType EventType, module string, data map[string]interface{}) {
	event := &Event{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
		Module:    module,
	}

	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.byType[eventType]))
	for _, handler := range b.byType[eventType] {
		handlers = append(handlers, handler)
	}
	b.mu.RUnlock()

	if len(handlers) == 0 {
		return
	}

	go func() {
		for _, handler := range handlers {
			b.dispatch(handler, event)
		}
	}()
}

func (b *Bus) dispatch(handler Handler, event *Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error().
				Str("event_type", string(event.Type)).
				Str("module", event.Module).
				Interface("panic", r).
				Msg("Event handler panicked")
		}
	}()

	handler(event)
}
