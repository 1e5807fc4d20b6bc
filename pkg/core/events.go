package core

import (
	"time"

	"github.com/go-drift/arbor/pkg/errors"
)

// EventType names a kind of event. Listeners are registered per type.
type EventType string

const (
	EventKey     EventType = "key"
	EventPointer EventType = "pointer"
	EventResize  EventType = "resize"
	EventFocus   EventType = "focus"
)

// Event is delivered to listeners on its target and then on each ancestor
// until a listener stops propagation.
type Event struct {
	Type   EventType
	Target Handle
	Data   any
	Time   time.Time

	// Current is the element whose listeners are running.
	Current *Element

	stopped bool
}

// StopPropagation prevents delivery to further ancestors. Remaining
// listeners on the current element still run.
func (ev *Event) StopPropagation() {
	ev.stopped = true
}

// Stopped reports whether StopPropagation was called.
func (ev *Event) Stopped() bool {
	return ev.stopped
}

// Listener handles an event.
type Listener func(ev *Event)

// ListenerID identifies a registered listener for removal.
type ListenerID uint64

type listenerEntry struct {
	id ListenerID
	fn Listener
}

// AddListener registers fn for events of type t on e.
func (e *Element) AddListener(t EventType, fn Listener) ListenerID {
	if e.arena == nil || fn == nil {
		return 0
	}
	e.arena.listenSeq++
	id := ListenerID(e.arena.listenSeq)
	if e.listeners == nil {
		e.listeners = make(map[EventType][]listenerEntry)
	}
	e.listeners[t] = append(e.listeners[t], listenerEntry{id: id, fn: fn})
	return id
}

// RemoveListener unregisters the listener with id, reporting whether it was found.
func (e *Element) RemoveListener(id ListenerID) bool {
	for t, entries := range e.listeners {
		for i, entry := range entries {
			if entry.id == id {
				e.listeners[t] = append(entries[:i:i], entries[i+1:]...)
				return true
			}
		}
	}
	return false
}

// Listeners returns the number of listeners registered for t on e.
func (e *Element) Listeners(t EventType) int {
	return len(e.listeners[t])
}

// Dispatch delivers ev to its target, then bubbles it to each ancestor.
// Listeners run in registration order; a panicking listener is reported and
// skipped. Dispatch returns the number of listeners invoked.
func (a *Arena) Dispatch(ev *Event) (int, error) {
	const op = "core.Dispatch"
	if ev == nil {
		return 0, errors.New(op, errors.KindPrecondition, "nil event")
	}
	target, err := a.Resolve(ev.Target)
	if err != nil {
		return 0, err
	}
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}

	invoked := 0
	for current := target; current != nil && !ev.stopped; current = current.Parent() {
		entries := current.listeners[ev.Type]
		if len(entries) == 0 {
			continue
		}
		ev.Current = current
		// Listeners may add or remove listeners; iterate over a snapshot.
		snapshot := append([]listenerEntry(nil), entries...)
		for _, entry := range snapshot {
			invokeListener(entry.fn, ev)
			invoked++
		}
	}
	ev.Current = nil
	return invoked, nil
}

func invokeListener(fn Listener, ev *Event) {
	defer errors.Recover("core.Dispatch")
	fn(ev)
}
