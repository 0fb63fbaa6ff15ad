package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	goerrors "github.com/go-errors/errors"
)

// DefaultEventBufferSize is the default buffer size for the event channel.
const DefaultEventBufferSize = 256

// Handler receives events of a subscribed kind.
type Handler func(ctx context.Context, event Event)

// Interceptor inspects an event before subscribers and reports whether it consumed it.
type Interceptor func(event Event) bool

// Waiter blocks until an event matching a predicate arrives.
type Waiter interface {
	WaitFor(ctx context.Context, kind Kind, timeout time.Duration, match func(Event) bool) (Event, error)
}

// Compile-time check that Bus implements Waiter.
var _ Waiter = (*Bus)(nil)

type subscription struct {
	id      uint64
	handler Handler
}

// Bus delivers gateway events to waiters, interceptors and subscribers.
// A single dispatcher goroutine handles events one at a time, in publish order.
type Bus struct {
	events chan Event

	waiters      []*waiter
	interceptors []Interceptor
	handlers     map[Kind][]subscription
	nextID       uint64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed bool
	mu     sync.RWMutex
}

// NewBus creates a Bus with the given buffer size and starts its dispatcher.
func NewBus(bufferSize int) *Bus {
	if bufferSize <= 0 {
		bufferSize = DefaultEventBufferSize
	}

	ctx, cancel := context.WithCancel(context.Background())

	bus := &Bus{
		events:   make(chan Event, bufferSize),
		handlers: make(map[Kind][]subscription),
		ctx:      ctx,
		cancel:   cancel,
	}

	bus.wg.Add(1)
	go bus.dispatch()

	return bus
}

func (b *Bus) dispatch() {
	defer b.wg.Done()
	for {
		select {
		case <-b.ctx.Done():
			return
		case event, ok := <-b.events:
			if !ok {
				return
			}
			b.deliver(event)
		}
	}
}

func (b *Bus) deliver(event Event) {
	if b.offerToWaiters(event) {
		return
	}

	b.mu.RLock()
	interceptors := b.interceptors
	subs := b.handlers[event.Kind()]
	b.mu.RUnlock()

	for _, intercept := range interceptors {
		if b.safeIntercept(intercept, event) {
			return
		}
	}

	for _, sub := range subs {
		b.safeHandle(sub.handler, event)
	}
}

func (b *Bus) safeIntercept(intercept Interceptor, event Event) (consumed bool) {
	defer func() {
		if r := recover(); r != nil {
			err := goerrors.Wrap(r, 2)
			slog.Error("recovered panic in event interceptor",
				"kind", event.Kind().String(),
				"error", err.Error(),
				"stack", err.ErrorStack(),
			)
			consumed = true
		}
	}()
	return intercept(event)
}

func (b *Bus) safeHandle(handler Handler, event Event) {
	defer func() {
		if r := recover(); r != nil {
			err := goerrors.Wrap(r, 2)
			slog.Error("recovered panic in event handler",
				"kind", event.Kind().String(),
				"error", err.Error(),
				"stack", err.ErrorStack(),
			)
		}
	}()
	handler(b.ctx, event)
}

// offerToWaiters hands the event to the oldest matching waiter, if any.
func (b *Bus) offerToWaiters(event Event) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, w := range b.waiters {
		if w.kind != event.Kind() || !w.matches(event) {
			continue
		}
		if !w.deliver(event) {
			// Lost the race against the waiter's own timeout.
			continue
		}
		b.waiters = append(b.waiters[:i:i], b.waiters[i+1:]...)
		return true
	}
	return false
}

// Publish queues an event for dispatch.
// Non-blocking: if the buffer is full, the event is dropped with a warning.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		slog.Warn("attempted to publish to closed event bus", "kind", event.Kind().String())
		return
	}

	select {
	case b.events <- event:
	default:
		slog.Warn("event buffer full, dropping event", "kind", event.Kind().String())
	}
}

// Subscribe registers a handler for events of the given kind.
// Handlers run on the dispatcher goroutine and must not block.
func (b *Bus) Subscribe(kind Kind, handler Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.handlers[kind] = append(b.handlers[kind], subscription{id: id, handler: handler})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.handlers[kind]
		for i, sub := range subs {
			if sub.id == id {
				b.handlers[kind] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

// Intercept registers a hook that runs after waiters and before subscribers.
func (b *Bus) Intercept(interceptor Interceptor) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.interceptors = append(b.interceptors, interceptor)
}

// WaitFor blocks until an event of the given kind satisfies match, the timeout
// elapses, or ctx is done. Exactly one of those outcomes is reported.
func (b *Bus) WaitFor(
	ctx context.Context,
	kind Kind,
	timeout time.Duration,
	match func(Event) bool,
) (Event, error) {
	w := newWaiter(kind, match)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, ErrBusClosed
	}
	b.waiters = append(b.waiters, w)
	b.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case event := <-w.events:
		return event, nil
	case <-timer.C:
		return b.abandon(w, ErrWaitTimeout)
	case <-ctx.Done():
		return b.abandon(w, fmt.Errorf("wait for %s: %w", kind, ctx.Err()))
	case <-b.ctx.Done():
		return b.abandon(w, ErrBusClosed)
	}
}

// abandon resolves a waiter that is giving up. If an event won the race the
// event is returned instead of err.
func (b *Bus) abandon(w *waiter, err error) (Event, error) {
	b.removeWaiter(w)
	if w.expire() {
		return nil, err
	}
	return <-w.events, nil
}

func (b *Bus) removeWaiter(target *waiter) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, w := range b.waiters {
		if w == target {
			b.waiters = append(b.waiters[:i:i], b.waiters[i+1:]...)
			return
		}
	}
}

// Close stops the dispatcher. Publishing after Close drops events.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.mu.Unlock()

	b.cancel()
	close(b.events)
	b.wg.Wait()

	slog.Debug("event bus closed")
}
