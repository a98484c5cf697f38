package events

import (
	"sync"
	"time"
)

// Handler receives published events. Handlers run on the publisher's
// goroutine and must not block.
type Handler func(*Event)

// Bus fans events out to subscribers by type
type Bus struct {
	mu       sync.RWMutex
	nextID   uint64
	handlers map[EventType]map[uint64]Handler
}

// NewBus creates an empty bus
func NewBus() *Bus {
	return &Bus{handlers: make(map[EventType]map[uint64]Handler)}
}

// Subscribe registers h for one event type and returns a function that removes it
func (b *Bus) Subscribe(eventType EventType, h Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	if b.handlers[eventType] == nil {
		b.handlers[eventType] = make(map[uint64]Handler)
	}
	b.handlers[eventType][id] = h

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.handlers[eventType], id)
		})
	}
}

// Emit publishes data to every subscriber of its type
func (b *Bus) Emit(module string, data EventData) {
	if data == nil {
		return
	}
	event := &Event{
		Type:      data.EventType(),
		Timestamp: time.Now(),
		Module:    module,
		Data:      data,
	}

	b.mu.RLock()
	hs := make([]Handler, 0, len(b.handlers[event.Type]))
	for _, h := range b.handlers[event.Type] {
		hs = append(hs, h)
	}
	b.mu.RUnlock()

	for _, h := range hs {
		h(event)
	}
}

// Subscribers returns the number of handlers registered for eventType
func (b *Bus) Subscribers(eventType EventType) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[eventType])
}
