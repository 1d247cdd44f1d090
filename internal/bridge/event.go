// Package bridge carries a notification outcome from wherever it is observed
// to wherever it is awaited: named events that other processes can signal,
// the caller's delivery channel, and the activation callback tying the two
// together.
package bridge

import (
	"context"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/cristianoliveira/ntfytoast/internal/action"
)

// WaitResult is how a wait on an event ended.
type WaitResult int

const (
	Signaled WaitResult = iota
	TimedOut
)

func (w WaitResult) String() string {
	if w == Signaled {
		return "signaled"
	}
	return "timed out"
}

// EventName is the event correlating one notification id.
func EventName(notificationID string) string {
	return "ToastEvent" + notificationID
}

// ActivationEventName is the per-process event signaled after every
// activation callback.
func ActivationEventName(pid int) string {
	return "ToastActivationEvent" + strconv.Itoa(pid)
}

// Signaler wakes a named event, local or owned by another process.
type Signaler interface {
	Signal() error
	SignalWith(kind action.Kind) error
}

// Event is a manual-reset event with a write-once outcome slot. Once
// signaled it stays signaled. The first SignalWith stores its outcome before
// the event is released, so a waiter that observes the signal always sees
// the winning outcome.
type Event struct {
	name string

	once       sync.Once
	done       chan struct{}
	outcome    action.Kind
	hasOutcome bool

	closeOnce sync.Once
	ln        net.Listener
	path      string
	onClose   func()
}

func newEvent(name string) *Event {
	return &Event{name: name, done: make(chan struct{}), outcome: action.Error}
}

// Name returns the event name.
func (e *Event) Name() string {
	return e.name
}

// Signal releases all waiters without recording an outcome. It is a no-op
// once the event is signaled.
func (e *Event) Signal() error {
	e.fire(nil)
	return nil
}

// SignalWith records kind and releases all waiters. Only the first signal
// counts; later calls leave the recorded outcome alone.
func (e *Event) SignalWith(kind action.Kind) error {
	e.fire(&kind)
	return nil
}

// fire reports whether this call was the one that signaled the event.
func (e *Event) fire(kind *action.Kind) bool {
	won := false
	e.once.Do(func() {
		if kind != nil {
			e.outcome = *kind
			e.hasOutcome = true
		}
		close(e.done)
		won = true
	})
	return won
}

// Done is closed when the event is signaled.
func (e *Event) Done() <-chan struct{} {
	return e.done
}

// IsSignaled reports whether the event has been signaled.
func (e *Event) IsSignaled() bool {
	select {
	case <-e.done:
		return true
	default:
		return false
	}
}

// Outcome returns the recorded outcome. ok is false until the event is
// signaled, or when it was signaled without one.
func (e *Event) Outcome() (kind action.Kind, ok bool) {
	if !e.IsSignaled() {
		return action.Error, false
	}
	return e.outcome, e.hasOutcome
}

// Wait blocks until the event is signaled, timeout elapses or ctx ends.
// A timeout of zero or less waits on ctx alone.
func (e *Event) Wait(ctx context.Context, timeout time.Duration) WaitResult {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	select {
	case <-e.done:
		return Signaled
	case <-ctx.Done():
		// a signal racing the deadline still wins
		if e.IsSignaled() {
			return Signaled
		}
		return TimedOut
	}
}

// Close stops accepting remote signals and forgets the event. Local
// references stay usable.
func (e *Event) Close() error {
	var err error
	e.closeOnce.Do(func() {
		if e.onClose != nil {
			e.onClose()
		}
		if e.ln != nil {
			err = e.ln.Close()
		}
	})
	return err
}
