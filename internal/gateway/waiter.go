package gateway

import (
	"log/slog"
	"sync/atomic"
)

// waiter is a one-shot registration for the next matching event.
// Exactly one of deliver or expire succeeds.
type waiter struct {
	kind    Kind
	match   func(Event) bool
	events  chan Event
	settled atomic.Bool
}

func newWaiter(kind Kind, match func(Event) bool) *waiter {
	return &waiter{
		kind:   kind,
		match:  match,
		events: make(chan Event, 1),
	}
}

func (w *waiter) matches(event Event) (ok bool) {
	if w.match == nil {
		return true
	}
	defer func() {
		if r := recover(); r != nil {
			slog.Error("recovered panic in wait predicate", "kind", w.kind.String(), "panic", r)
			ok = false
		}
	}()
	return w.match(event)
}

// deliver settles the waiter with an event. It never blocks.
func (w *waiter) deliver(event Event) bool {
	if !w.settled.CompareAndSwap(false, true) {
		return false
	}
	w.events <- event
	return true
}

// expire settles the waiter without an event.
func (w *waiter) expire() bool {
	return w.settled.CompareAndSwap(false, true)
}
