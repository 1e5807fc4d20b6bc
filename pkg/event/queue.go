// Package event carries events from host goroutines to the goroutine that
// owns an arena.
//
// The arena is not safe for concurrent use. Hosts push events into a
// bounded Queue from their own goroutine; a single Pump drains the queue
// on the engine goroutine and dispatches each event through the tree
// before taking the next one.
package event

import (
	"context"
	"strings"
	"sync"

	"github.com/go-drift/arbor/pkg/core"
	"github.com/go-drift/arbor/pkg/errors"
	"github.com/go-drift/arbor/pkg/metrics"
)

// Overflow selects what Push does when the queue is full.
type Overflow uint8

const (
	// DropOldest discards the oldest queued event to make room. Push never
	// blocks.
	DropOldest Overflow = iota
	// Block makes Push wait until the consumer frees a slot or the
	// context ends.
	Block
)

func (o Overflow) String() string {
	if o == Block {
		return "block"
	}
	return "drop-oldest"
}

// ParseOverflow reads "drop-oldest" or "block".
func ParseOverflow(s string) (Overflow, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "drop-oldest":
		return DropOldest, nil
	case "block":
		return Block, nil
	}
	return DropOldest, errors.New("event.ParseOverflow", errors.KindConfig, "unknown overflow policy %q", s)
}

// DefaultCapacity is the queue size used when none is configured.
const DefaultCapacity = 256

// Queue is a bounded FIFO of events for one producer and one consumer.
type Queue struct {
	mu     sync.Mutex
	buf    []core.Event
	head   int
	size   int
	policy Overflow

	dropped uint64
	closed  bool

	ready chan struct{} // signalled after a push
	space chan struct{} // signalled after a pop
	done  chan struct{} // closed by Close
}

// NewQueue creates a queue holding up to capacity events. A capacity below
// one uses DefaultCapacity.
func NewQueue(capacity int, policy Overflow) *Queue {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Queue{
		buf:    make([]core.Event, capacity),
		policy: policy,
		ready:  make(chan struct{}, 1),
		space:  make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// Push enqueues ev. With DropOldest a full queue discards its oldest event;
// with Block Push waits for space, returning ctx.Err() if the context ends
// first. Pushing to a closed queue fails with ErrClosed.
func (q *Queue) Push(ctx context.Context, ev core.Event) error {
	for {
		q.mu.Lock()
		if q.closed {
			q.mu.Unlock()
			return errors.New("event.Queue.Push", errors.KindClosed, "queue is closed")
		}
		if q.size < len(q.buf) || q.policy == DropOldest {
			q.enqueueLocked(ev)
			q.mu.Unlock()
			signal(q.ready)
			return nil
		}
		q.mu.Unlock()

		select {
		case <-q.space:
		case <-q.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// TryPush enqueues ev without waiting. It reports false when the queue is
// closed, or full under the Block policy.
func (q *Queue) TryPush(ev core.Event) bool {
	q.mu.Lock()
	if q.closed || (q.size == len(q.buf) && q.policy == Block) {
		q.mu.Unlock()
		return false
	}
	q.enqueueLocked(ev)
	q.mu.Unlock()
	signal(q.ready)
	return true
}

func (q *Queue) enqueueLocked(ev core.Event) {
	if q.size == len(q.buf) {
		q.buf[q.head] = core.Event{}
		q.head = (q.head + 1) % len(q.buf)
		q.size--
		q.dropped++
		metrics.EventsDropped.Inc()
	}
	q.buf[(q.head+q.size)%len(q.buf)] = ev
	q.size++
	metrics.EventsEnqueued.Inc()
}

// Pop removes and returns the oldest event, waiting until one is available.
// After Close, queued events are still returned; once the queue is empty
// Pop fails with ErrClosed.
func (q *Queue) Pop(ctx context.Context) (core.Event, error) {
	for {
		if ev, ok := q.TryPop(); ok {
			return ev, nil
		}
		q.mu.Lock()
		closed := q.closed && q.size == 0
		q.mu.Unlock()
		if closed {
			return core.Event{}, errors.New("event.Queue.Pop", errors.KindClosed, "queue is closed")
		}

		select {
		case <-q.ready:
		case <-q.done:
		case <-ctx.Done():
			return core.Event{}, ctx.Err()
		}
	}
}

// TryPop removes and returns the oldest event without waiting.
func (q *Queue) TryPop() (core.Event, bool) {
	q.mu.Lock()
	if q.size == 0 {
		q.mu.Unlock()
		return core.Event{}, false
	}
	ev := q.buf[q.head]
	q.buf[q.head] = core.Event{}
	q.head = (q.head + 1) % len(q.buf)
	q.size--
	q.mu.Unlock()
	signal(q.space)
	return ev, true
}

// Close stops the queue accepting events and wakes any waiting caller.
// Closing twice is a no-op.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.done)
}

// Len returns the number of queued events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}

// Cap returns the queue capacity.
func (q *Queue) Cap() int {
	return len(q.buf)
}

// Policy returns the overflow policy.
func (q *Queue) Policy() Overflow {
	return q.policy
}

// Dropped returns how many events DropOldest has discarded.
func (q *Queue) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}
