package testing

import (
	"sync"
	"testing"

	"github.com/go-drift/arbor/pkg/core"
	"github.com/go-drift/arbor/pkg/errors"
)

// Tester wraps an arena with fatal-on-error helpers and records every
// error and panic reported to the global error handler while it is alive.
type Tester struct {
	t     testing.TB
	arena *core.Arena
	rec   *Recorder
}

// NewTester creates a tester with a fresh arena and the default factories
// registered. The global error handler is restored on cleanup.
func NewTester(t testing.TB, opts ...core.Option) *Tester {
	t.Helper()
	arena := core.NewArena(opts...)
	if len(arena.Factories().Tags()) == 0 {
		if err := core.RegisterDefaults(arena.Factories()); err != nil {
			t.Fatalf("RegisterDefaults: %v", err)
		}
	}
	rec := &Recorder{}
	prev := errors.Handler()
	errors.SetHandler(rec)
	t.Cleanup(func() { errors.SetHandler(prev) })
	return &Tester{t: t, arena: arena, rec: rec}
}

// Arena returns the tester's arena.
func (t *Tester) Arena() *core.Arena {
	return t.arena
}

// Reported returns the errors and panics reported so far.
func (t *Tester) Reported() *Recorder {
	return t.rec
}

// Build creates an element through the factory registry, failing the test
// on any attribute error.
func (t *Tester) Build(tag string, attrs ...any) *core.Element {
	t.t.Helper()
	e, err := t.arena.Build(tag, attrs...)
	if err != nil {
		t.t.Fatalf("Build(%q): %v", tag, err)
	}
	return e
}

// Text creates a text leaf.
func (t *Tester) Text(s string) *core.Element {
	t.t.Helper()
	e, err := t.arena.Text(s)
	if err != nil {
		t.t.Fatalf("Text(%q): %v", s, err)
	}
	return e
}

// Append links children under parent in order.
func (t *Tester) Append(parent *core.Element, children ...*core.Element) {
	t.t.Helper()
	for _, c := range children {
		if err := parent.AppendChild(c); err != nil {
			t.t.Fatalf("AppendChild(%s, %s): %v", parent, c, err)
		}
	}
}

// Render runs a render pass over root.
func (t *Tester) Render(root *core.Element) {
	t.t.Helper()
	if err := t.arena.Render(root); err != nil {
		t.t.Fatalf("Render(%s): %v", root, err)
	}
}

// Get returns the element holding key.
func (t *Tester) Get(key string) *core.Element {
	t.t.Helper()
	e, err := t.arena.GetElement(key)
	if err != nil {
		t.t.Fatalf("GetElement(%q): %v", key, err)
	}
	return e
}

// Find evaluates f under every root of the arena.
func (t *Tester) Find(f Finder) FinderResult {
	var all []*core.Element
	for _, root := range t.arena.Roots() {
		all = append(all, f.Evaluate(root)...)
	}
	return FinderResult{elements: all, finder: f}
}

// CheckLinks fails the test if root's subtree violates a link invariant.
func (t *Tester) CheckLinks(root *core.Element) {
	t.t.Helper()
	if err := CheckLinks(root); err != nil {
		t.t.Errorf("link invariants violated:\n%v", err)
	}
}

// CheckArena fails the test if any tree or the index registry is
// inconsistent.
func (t *Tester) CheckArena() {
	t.t.Helper()
	if err := CheckArena(t.arena); err != nil {
		t.t.Errorf("arena invariants violated:\n%v", err)
	}
}

// Recorder is an errors.ErrorHandler that keeps what it receives.
type Recorder struct {
	mu     sync.Mutex
	errs   []*errors.Error
	panics []*errors.PanicError
}

func (r *Recorder) HandleError(err *errors.Error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *Recorder) HandlePanic(err *errors.PanicError) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.panics = append(r.panics, err)
}

// Errors returns the recorded errors.
func (r *Recorder) Errors() []*errors.Error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*errors.Error(nil), r.errs...)
}

// Panics returns the recorded panics.
func (r *Recorder) Panics() []*errors.PanicError {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*errors.PanicError(nil), r.panics...)
}
