package events

import (
	"sync"
	"time"

	"github.com/shroudkeep/shroudkeep/pkg/logger"
)

// Type identifies an event family
type Type string

const (
	JobStarted    Type = "job.started"
	JobFinished   Type = "job.finished"
	BackupCreated Type = "backup.created"
	BackupFailed  Type = "backup.failed"
)

// Event carries a typed notification with a free-form payload
type Event struct {
	Type      Type
	Payload   map[string]interface{}
	Timestamp time.Time
}

// Handler processes events. Handlers run synchronously on the publisher's
// goroutine; slow observers should hand off to their own channel.
type Handler func(Event)

// Bus is a minimal in-process publish/subscribe hub
type Bus struct {
	mu       sync.RWMutex
	handlers map[Type][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{handlers: make(map[Type][]Handler)}
}

// Subscribe registers a handler for the given event type
func (b *Bus) Subscribe(eventType Type, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Publish delivers the event to every subscriber of its type. A panicking
// handler is logged and does not affect the other subscribers.
func (b *Bus) Publish(eventType Type, payload map[string]interface{}) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[eventType]))
	copy(handlers, b.handlers[eventType])
	b.mu.RUnlock()

	event := Event{Type: eventType, Payload: payload, Timestamp: time.Now()}
	for _, handler := range handlers {
		b.deliver(handler, event)
	}
}

func (b *Bus) deliver(handler Handler, event Event) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("EVENTS: Handler panicked", nil, map[string]interface{}{
				"event_type": string(event.Type),
				"panic":      r,
			})
		}
	}()
	handler(event)
}
