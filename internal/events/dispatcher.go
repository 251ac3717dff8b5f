package events

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// EventHandler handles a published event.
type EventHandler func(context.Context, Event) error

// Dispatcher fans domain events out to subscribers.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType EventType, handler EventHandler)
}

// inMemoryDispatcher runs subscribers on the publishing goroutine, in
// subscription order.
type inMemoryDispatcher struct {
	mu       sync.RWMutex
	logger   *zap.Logger
	handlers map[EventType][]EventHandler
}

// NewInMemoryDispatcher creates a dispatcher instance.
func NewInMemoryDispatcher(logger *zap.Logger) Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &inMemoryDispatcher{
		logger:   logger,
		handlers: make(map[EventType][]EventHandler),
	}
}

// Publish runs every handler for event.Type. A failing or panicking handler
// is logged and skipped; the publisher never sees the error.
func (d *inMemoryDispatcher) Publish(ctx context.Context, event Event) error {
	d.mu.RLock()
	subscribers := d.handlers[event.Type]
	d.mu.RUnlock()

	failed := 0
	for i, handler := range subscribers {
		if err := d.run(ctx, handler, event); err != nil {
			failed++
			d.logger.Warn("event handler failed",
				zap.String("event", string(event.Type)),
				zap.String("event_id", event.ID),
				zap.String("organization_id", event.OrganizationID),
				zap.Int("handler", i),
				zap.Error(err),
			)
		}
	}
	d.logger.Debug("event published",
		zap.String("event", string(event.Type)),
		zap.Int("handlers", len(subscribers)),
		zap.Int("failed", failed),
	)
	return nil
}

func (d *inMemoryDispatcher) run(ctx context.Context, handler EventHandler, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return handler(ctx, event)
}

// Subscribe registers a handler for the given event type.
func (d *inMemoryDispatcher) Subscribe(eventType EventType, handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	// Copy on write so Publish can iterate a snapshot without holding the lock.
	next := make([]EventHandler, len(d.handlers[eventType]), len(d.handlers[eventType])+1)
	copy(next, d.handlers[eventType])
	d.handlers[eventType] = append(next, handler)
}
