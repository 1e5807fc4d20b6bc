package core

import (
	"log/slog"

	"github.com/go-drift/arbor/pkg/errors"
	"github.com/go-drift/arbor/pkg/metrics"
)

type slot struct {
	element    *Element
	generation uint32
}

// Arena owns every element it creates. Elements stay allocated until
// Dispose releases them; released slots are reused with a new generation so
// stale handles are detected rather than aliased.
type Arena struct {
	slots []slot
	free  []uint32

	// order lists live elements in creation order; disposed entries are
	// nil until the next compaction.
	order []*Element
	holes int

	index     map[string]Handle
	styles    *StyleRegistry
	factories *Factories
	logger    *slog.Logger
	window    int
	listenSeq uint64
}

// Option configures an Arena.
type Option func(*Arena)

// WithLogger sets the logger used for engine diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Arena) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithStyles shares a style registry with the arena. StyleRef attributes
// resolve against it.
func WithStyles(styles *StyleRegistry) Option {
	return func(a *Arena) {
		if styles != nil {
			a.styles = styles
		}
	}
}

// WithFactories sets the factory registry used by Build.
func WithFactories(factories *Factories) Option {
	return func(a *Arena) {
		if factories != nil {
			a.factories = factories
		}
	}
}

// WithWindow sets the default number of records each data adaptor
// materializes. Zero materializes every record.
func WithWindow(n int) Option {
	return func(a *Arena) {
		if n >= 0 {
			a.window = n
		}
	}
}

// NewArena creates an empty arena. Without options it uses a fresh style
// registry, an empty factory registry, and a logger that discards output.
func NewArena(opts ...Option) *Arena {
	a := &Arena{
		index:     make(map[string]Handle),
		styles:    NewStyleRegistry(),
		factories: NewFactories(),
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Logger returns the arena's logger.
func (a *Arena) Logger() *slog.Logger {
	return a.logger
}

// Styles returns the style registry StyleRef attributes resolve against.
func (a *Arena) Styles() *StyleRegistry {
	return a.styles
}

// Factories returns the factory registry used by Build.
func (a *Arena) Factories() *Factories {
	return a.factories
}

// Create allocates a new unattached element with the given tag and applies
// attrs in order. The element is always created: a failing attribute is
// skipped and its error returned alongside the element, so callers can
// treat a partially configured element as recoverable.
func (a *Arena) Create(tag string, attrs ...any) (*Element, error) {
	e := a.alloc(tag)
	if len(attrs) == 0 {
		return e, nil
	}
	return e, e.SetAttribute(attrs...)
}

// Text creates a text leaf holding s as its single default record.
func (a *Arena) Text(s string) (*Element, error) {
	return a.Create(TextTag, Text(s))
}

func (a *Arena) alloc(tag string) *Element {
	var idx uint32
	if n := len(a.free); n > 0 {
		idx = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		idx = uint32(len(a.slots))
		a.slots = append(a.slots, slot{generation: 1})
	}
	e := &Element{
		arena:  a,
		tag:    tag,
		handle: Handle{index: idx, generation: a.slots[idx].generation},
		order:  len(a.order),
	}
	a.slots[idx].element = e
	a.order = append(a.order, e)

	metrics.ElementsCreated.Inc()
	metrics.ElementsLive.Inc()
	return e
}

// Resolve returns the live element for h.
func (a *Arena) Resolve(h Handle) (*Element, error) {
	const op = "core.Resolve"
	if h.IsZero() {
		return nil, errors.New(op, errors.KindNotFound, "zero handle")
	}
	if int(h.index) >= len(a.slots) {
		return nil, errors.New(op, errors.KindNotFound, "handle %s out of range", h)
	}
	s := a.slots[h.index]
	if s.generation != h.generation || s.element == nil {
		return nil, errors.New(op, errors.KindStale, "handle %s refers to a disposed element", h)
	}
	return s.element, nil
}

// get resolves h without error reporting; nil for zero or stale handles.
func (a *Arena) get(h Handle) *Element {
	if h.IsZero() || int(h.index) >= len(a.slots) {
		return nil
	}
	s := a.slots[h.index]
	if s.generation != h.generation {
		return nil
	}
	return s.element
}

// Len returns the number of live elements.
func (a *Arena) Len() int {
	return len(a.order) - a.holes
}

// Elements returns every live element in creation order.
func (a *Arena) Elements() []*Element {
	out := make([]*Element, 0, a.Len())
	for _, e := range a.order {
		if e != nil {
			out = append(out, e)
		}
	}
	return out
}

// Roots returns every live unattached element in creation order.
func (a *Arena) Roots() []*Element {
	var out []*Element
	for _, e := range a.order {
		if e != nil && e.parent.IsZero() {
			out = append(out, e)
		}
	}
	return out
}

// Dispose releases e and its whole subtree. Only unattached elements may be
// disposed; detach first with RemoveChild or Detach. Keys held by the
// disposed elements are released and every outstanding handle to them
// becomes stale.
func (a *Arena) Dispose(e *Element) error {
	const op = "core.Dispose"
	if err := a.check(op, e); err != nil {
		return err
	}
	if !e.parent.IsZero() {
		return errors.New(op, errors.KindPrecondition, "element %s is still attached", e)
	}

	var subtree []*Element
	e.walk(func(n *Element) bool {
		subtree = append(subtree, n)
		return true
	})
	for i := len(subtree) - 1; i >= 0; i-- {
		a.release(subtree[i])
	}
	a.logger.Debug("disposed subtree", slog.String("root", e.String()), slog.Int("count", len(subtree)))
	return nil
}

func (a *Arena) release(e *Element) {
	if e.key != "" {
		if h, ok := a.index[e.key]; ok && h == e.handle {
			delete(a.index, e.key)
		}
	}
	idx := e.handle.index
	a.slots[idx].element = nil
	a.slots[idx].generation++
	if a.slots[idx].generation == 0 {
		a.slots[idx].generation = 1
	}
	a.free = append(a.free, idx)

	a.order[e.order] = nil
	a.holes++
	if a.holes > 32 && a.holes*2 > len(a.order) {
		a.compact()
	}

	*e = Element{tag: e.tag, handle: e.handle, disposed: true}

	metrics.ElementsDisposed.Inc()
	metrics.ElementsLive.Dec()
}

func (a *Arena) compact() {
	live := a.order[:0]
	for _, e := range a.order {
		if e != nil {
			e.order = len(live)
			live = append(live, e)
		}
	}
	clear(a.order[len(live):])
	a.order = live
	a.holes = 0
}

// check validates that e is a live element of this arena.
func (a *Arena) check(op string, e *Element) error {
	if e == nil {
		return errors.New(op, errors.KindPrecondition, "nil element")
	}
	if e.disposed {
		return errors.New(op, errors.KindStale, "element %s has been disposed", e)
	}
	if e.arena != a {
		return errors.New(op, errors.KindPrecondition, "element %s belongs to another arena", e)
	}
	return nil
}
