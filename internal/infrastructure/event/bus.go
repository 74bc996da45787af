// Package event provides the in-process domain event bus and the
// transports carrying render requests and responses between this
// service and the external renderer.
package event

import (
	"context"
	"reflect"
	"sync"

	"github.com/restorecommerce/invoicing-srv-sub000/internal/domain/shared"
	"go.uber.org/zap"
)

// InMemoryEventBus implements shared.EventBus with synchronous
// in-process dispatch. Subscriptions are keyed by event type; a
// handler subscribed with no types receives every event.
type InMemoryEventBus struct {
	mu       sync.RWMutex
	byType   map[string][]shared.EventHandler
	catchAll []shared.EventHandler
	stopped  bool
	logger   *zap.Logger
}

// NewInMemoryEventBus creates a new in-memory event bus
func NewInMemoryEventBus(logger *zap.Logger) *InMemoryEventBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InMemoryEventBus{
		byType: make(map[string][]shared.EventHandler),
		logger: logger,
	}
}

// Publish dispatches events to all matching handlers synchronously.
// A failing or panicking handler is logged and does not block the
// others. Events published after Stop are dropped with a warning.
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	for _, ev := range events {
		b.mu.RLock()
		if b.stopped {
			b.mu.RUnlock()
			b.logger.Warn("event dropped, bus stopped",
				zap.String("event_type", ev.EventType()))
			continue
		}
		handlers := make([]shared.EventHandler, 0, len(b.byType[ev.EventType()])+len(b.catchAll))
		handlers = append(handlers, b.byType[ev.EventType()]...)
		handlers = append(handlers, b.catchAll...)
		b.mu.RUnlock()

		for _, h := range handlers {
			if err := b.dispatch(ctx, h, ev); err != nil {
				b.logger.Error("handler failed to process event",
					zap.String("event_type", ev.EventType()),
					zap.String("event_id", ev.EventID().String()),
					zap.Error(err),
				)
			}
		}
	}
	return nil
}

// Subscribe registers a handler. With no explicit types the handler's
// own EventTypes() applies; an empty result subscribes it to all
// events.
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if len(eventTypes) == 0 {
		b.catchAll = append(b.catchAll, handler)
	}
	for _, t := range eventTypes {
		b.byType[t] = append(b.byType[t], handler)
	}
	b.logger.Debug("handler subscribed", zap.Strings("event_types", eventTypes))
}

// Unsubscribe removes a handler from every subscription
func (b *InMemoryEventBus) Unsubscribe(handler shared.EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.catchAll = without(b.catchAll, handler)
	for t, handlers := range b.byType {
		if remaining := without(handlers, handler); len(remaining) == 0 {
			delete(b.byType, t)
		} else {
			b.byType[t] = remaining
		}
	}
}

// Start marks the bus ready to dispatch
func (b *InMemoryEventBus) Start(ctx context.Context) error {
	b.mu.Lock()
	b.stopped = false
	b.mu.Unlock()
	b.logger.Info("event bus started")
	return nil
}

// Stop stops dispatching. In-flight Publish calls finish; later ones
// drop their events.
func (b *InMemoryEventBus) Stop(ctx context.Context) error {
	b.mu.Lock()
	b.stopped = true
	b.mu.Unlock()
	b.logger.Info("event bus stopped")
	return nil
}

func (b *InMemoryEventBus) dispatch(ctx context.Context, handler shared.EventHandler, ev shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("handler panicked",
				zap.String("event_type", ev.EventType()),
				zap.Any("panic", r),
			)
		}
	}()
	return handler.Handle(ctx, ev)
}

func without(handlers []shared.EventHandler, target shared.EventHandler) []shared.EventHandler {
	kept := handlers[:0]
	for _, h := range handlers {
		if !sameHandler(h, target) {
			kept = append(kept, h)
		}
	}
	return kept
}

// sameHandler reports handler identity. Handlers of uncomparable
// dynamic types (func values, handlers embedding slices) never match,
// so comparing them cannot panic; such handlers stay subscribed for
// the process lifetime.
func sameHandler(a, b shared.EventHandler) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta == nil || tb == nil || ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}

var _ shared.EventBus = (*InMemoryEventBus)(nil)
