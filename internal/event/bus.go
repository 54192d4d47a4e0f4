package event

import (
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/aniruddha-adhikary/CodeWiki/internal/logging"
)

// Handler is a function that handles an event.
type Handler func(Event)

// wildcard is the subscription key of SubscribeAll handlers.
const wildcard = "*"

// Bus is a synchronous pub-sub event bus. Handlers run on the publishing
// goroutine, so a slow handler slows generation down.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler // eventType -> handlers
	logger   *logging.Logger
}

// NewBus creates a new event bus. Handler panics are reported to logger; a
// nil logger discards them.
func NewBus(logger *logging.Logger) *Bus {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Bus{
		handlers: make(map[string][]Handler),
		logger:   logger,
	}
}

// Subscribe registers a handler for one event type.
func (b *Bus) Subscribe(eventType string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// SubscribeAll registers a handler for every event type.
func (b *Bus) SubscribeAll(handler Handler) {
	b.Subscribe(wildcard, handler)
}

// Publish dispatches an event. Handlers subscribed to the event's type run
// first, then wildcard handlers, each group in registration order. A
// panicking handler is logged and skipped. Publishing on a nil Bus is a no-op.
func (b *Bus) Publish(event Event) {
	if b == nil {
		return
	}

	b.mu.RLock()
	specific := b.handlers[event.EventType()]
	all := b.handlers[wildcard]
	b.mu.RUnlock()

	// Subscribe only appends, so the slices read above stay valid.
	for _, h := range specific {
		b.safeCall(h, event)
	}
	for _, h := range all {
		b.safeCall(h, event)
	}
}

func (b *Bus) safeCall(handler Handler, event Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				"event_type", event.EventType(),
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()),
			)
		}
	}()
	handler(event)
}

// LogTo returns a handler that writes every event to logger at DEBUG level,
// scoped to the event's module when it has one.
func LogTo(logger *logging.Logger) Handler {
	return func(e Event) {
		log := logger
		if m, ok := e.(interface{ ModulePath() []string }); ok {
			log = logger.WithModule(m.ModulePath())
		}
		log.Debug("event", "event_type", e.EventType())
	}
}
