// Package bus carries "collection changed" signals between the ledger core
// and its observers. The core publishes after every write and reacts to
// events by re-reading the store; the transport behind the Notifier port is
// interchangeable (this in-process bus, AMQP, or both).
package bus

import (
	"context"
	"sync"
	"time"
)

// Event says that a persisted collection changed. It carries no payload:
// observers reload the full snapshot.
type Event struct {
	Collection string    `json:"collection"`
	At         time.Time `json:"at"`
}

// Notifier is the outbound port for change signals. Delivery is
// at-least-once; duplicate events are harmless because handlers recompute
// from a fresh snapshot.
type Notifier interface {
	Publish(ctx context.Context, ev Event) error
}

// Bus is a synchronous in-process fan-out of change events.
type Bus struct {
	mu   sync.Mutex
	next int
	subs map[int]func(Event)
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{subs: make(map[int]func(Event))}
}

// Publish delivers the event to every subscriber in the calling goroutine.
func (b *Bus) Publish(_ context.Context, ev Event) error {
	b.mu.Lock()
	handlers := make([]func(Event), 0, len(b.subs))
	for _, h := range b.subs {
		handlers = append(handlers, h)
	}
	b.mu.Unlock()

	for _, h := range handlers {
		h(ev)
	}
	return nil
}

// Subscribe registers a handler and returns its cancel function.
func (b *Bus) Subscribe(handler func(Event)) (cancel func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	b.subs[id] = handler
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}
}

// Fanout is a Notifier that forwards every event to all of its targets,
// typically the in-process bus plus an external transport.
type Fanout []Notifier

func (f Fanout) Publish(ctx context.Context, ev Event) error {
	var firstErr error
	for _, n := range f {
		if err := n.Publish(ctx, ev); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
