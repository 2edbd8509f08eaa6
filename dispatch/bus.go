// Package dispatch delivers touch events from input sources to their
// listeners. Sources publish began/ended notifications; consumers such as
// the input controller attach listeners during initialization and detach
// them on disposal.
package dispatch

import (
	"errors"
	"sync"
	"time"

	"github.com/veldra/helmsman/geom"
)

// ErrClosed is returned when attaching a listener to a bus that has been
// shut down.
var ErrClosed = errors.New("dispatch: bus closed")

// TouchEvent describes a single touch notification. ID identifies the finger
// for the lifetime of one touch; Time is a monotonic timestamp supplied by
// the source.
type TouchEvent struct {
	ID   int64
	Pos  geom.Vec2
	Time time.Time
}

// TouchHandler receives a touch notification together with whether the
// application owned input focus when the event was produced.
type TouchHandler func(ev TouchEvent, focus bool)

// Handle identifies one subscription so it can be removed later.
type Handle uint64

// Bus fans touch notifications out to subscribed handlers. Delivery is
// synchronous in the caller's goroutine; handlers must not block.
// Safe for concurrent use.
type Bus struct {
	mu     sync.RWMutex
	closed bool
	nextID Handle
	began  map[Handle]TouchHandler
	ended  map[Handle]TouchHandler
}

func NewBus() *Bus {
	return &Bus{
		began: make(map[Handle]TouchHandler),
		ended: make(map[Handle]TouchHandler),
	}
}

// SubscribeBegan registers a handler for touch-began notifications.
func (b *Bus) SubscribeBegan(h TouchHandler) (Handle, error) {
	return b.subscribe(h, func(b *Bus) map[Handle]TouchHandler { return b.began })
}

// SubscribeEnded registers a handler for touch-ended notifications.
func (b *Bus) SubscribeEnded(h TouchHandler) (Handle, error) {
	return b.subscribe(h, func(b *Bus) map[Handle]TouchHandler { return b.ended })
}

func (b *Bus) subscribe(h TouchHandler, pick func(*Bus) map[Handle]TouchHandler) (Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return 0, ErrClosed
	}
	b.nextID++
	pick(b)[b.nextID] = h
	return b.nextID, nil
}

// Unsubscribe removes a subscription. Unknown handles are ignored, so
// detaching twice is safe.
func (b *Bus) Unsubscribe(h Handle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.began, h)
	delete(b.ended, h)
}

// PublishBegan delivers a touch-began notification to all listeners.
func (b *Bus) PublishBegan(ev TouchEvent, focus bool) {
	b.publish(ev, focus, func(b *Bus) map[Handle]TouchHandler { return b.began })
}

// PublishEnded delivers a touch-ended notification to all listeners.
func (b *Bus) PublishEnded(ev TouchEvent, focus bool) {
	b.publish(ev, focus, func(b *Bus) map[Handle]TouchHandler { return b.ended })
}

func (b *Bus) publish(ev TouchEvent, focus bool, pick func(*Bus) map[Handle]TouchHandler) {
	b.mu.RLock()
	handlers := make([]TouchHandler, 0, len(pick(b)))
	for _, h := range pick(b) {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	// Handlers run outside the lock so they may unsubscribe themselves.
	for _, h := range handlers {
		h(ev, focus)
	}
}

// Close drops all subscriptions and refuses new ones. Publishing to a closed
// bus is a no-op. Idempotent.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	clear(b.began)
	clear(b.ended)
}
