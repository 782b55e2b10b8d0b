package events

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Handler receives events. Handlers run synchronously on the emitting
// goroutine and must not block.
type Handler func(event *Event)

type subscription struct {
	id      uint64
	handler Handler
}

// Bus fans events out to subscribers and logs every emission.
type Bus struct {
	mu       sync.RWMutex
	nextID   uint64
	handlers map[EventType][]subscription
	log      zerolog.Logger
}

// NewBus creates a new event bus
func NewBus(log zerolog.Logger) *Bus {
	return &Bus{
		handlers: make(map[EventType][]subscription),
		log:      log.With().Str("service", "events").Logger(),
	}
}

// Subscribe registers handler for one event type. The returned function
// removes the subscription.
func (b *Bus) Subscribe(eventType EventType, handler Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.handlers[eventType] = append(b.handlers[eventType], subscription{id: id, handler: handler})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.handlers[eventType]
		for i, s := range subs {
			if s.id == id {
				b.handlers[eventType] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

// SubscribeAll registers handler for every known event type.
func (b *Bus) SubscribeAll(handler Handler) func() {
	unsubs := make([]func(), 0, len(AllTypes))
	for _, t := range AllTypes {
		unsubs = append(unsubs, b.Subscribe(t, handler))
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

// Emit delivers data to the subscribers of its event type.
func (b *Bus) Emit(module string, data EventData) {
	event := &Event{
		Type:      data.EventType(),
		Timestamp: time.Now(),
		Module:    module,
		Data:      data,
	}

	b.log.Debug().
		Str("event_type", string(event.Type)).
		Str("module", module).
		Msg("Event emitted")

	b.mu.RLock()
	subs := append([]subscription(nil), b.handlers[event.Type]...)
	b.mu.RUnlock()

	for _, s := range subs {
		s.handler(event)
	}
}

// EmitError emits an ErrorOccurred event
func (b *Bus) EmitError(module string, err error, context map[string]interface{}) {
	b.Emit(module, &ErrorEventData{Error: err.Error(), Context: context})
}
