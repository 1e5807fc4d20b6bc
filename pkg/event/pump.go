package event

import (
	"context"
	"log/slog"

	"github.com/go-drift/arbor/pkg/core"
	"github.com/go-drift/arbor/pkg/errors"
	"github.com/go-drift/arbor/pkg/metrics"
)

// Pump drains a Queue into an arena. Run it on the goroutine that owns the
// arena; nothing else may touch the arena while it runs.
type Pump struct {
	arena  *core.Arena
	queue  *Queue
	logger *slog.Logger
	after  func(ev *core.Event, invoked int)
}

// PumpOption configures a Pump.
type PumpOption func(*Pump)

// WithAfter sets a callback run on the pump goroutine after each event has
// been dispatched, typically to re-render.
func WithAfter(fn func(ev *core.Event, invoked int)) PumpOption {
	return func(p *Pump) { p.after = fn }
}

// NewPump creates a pump delivering events from q to arena.
func NewPump(arena *core.Arena, q *Queue, opts ...PumpOption) *Pump {
	p := &Pump{arena: arena, queue: q, logger: arena.Logger()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run dispatches events in FIFO order, each fully before the next, until
// ctx ends or the queue is closed and drained. It returns ctx.Err() on
// cancellation and nil after a close.
func (p *Pump) Run(ctx context.Context) error {
	p.logger.Debug("event pump started", slog.Int("capacity", p.queue.Cap()), slog.String("overflow", p.queue.Policy().String()))
	for {
		ev, err := p.queue.Pop(ctx)
		if err != nil {
			if errors.Is(err, errors.ErrClosed) {
				p.logger.Debug("event pump stopped: queue closed")
				return nil
			}
			return err
		}
		p.deliver(&ev)
	}
}

// Drain dispatches every event queued right now without waiting and
// returns how many were delivered.
func (p *Pump) Drain() int {
	n := 0
	for {
		ev, ok := p.queue.TryPop()
		if !ok {
			return n
		}
		p.deliver(&ev)
		n++
	}
}

func (p *Pump) deliver(ev *core.Event) {
	invoked, err := p.arena.Dispatch(ev)
	switch {
	case err != nil:
		metrics.EventsDispatched.WithLabelValues("failed").Inc()
		p.logger.Debug("event dropped", slog.String("type", string(ev.Type)), slog.String("target", ev.Target.String()), slog.Any("error", err))
		errors.ReportErr("event.Pump", err)
		return
	case invoked == 0:
		metrics.EventsDispatched.WithLabelValues("unhandled").Inc()
	default:
		metrics.EventsDispatched.WithLabelValues("delivered").Inc()
	}
	if p.after != nil {
		p.after(ev, invoked)
	}
}
