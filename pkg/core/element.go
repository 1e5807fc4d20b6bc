package core

import (
	"iter"
	"reflect"
	"strings"
)

// TextTag is the tag of text leaves produced by Arena.Text and the default
// record formatter. Text leaves hold their content as default data and are
// never materialized further.
const TextTag = "text"

// Element is a node in the retained tree. Elements are created and owned by
// an Arena; a *Element whose element has been disposed reports ErrStale
// from every fallible method and nil from every navigation method.
type Element struct {
	arena    *Arena
	handle   Handle
	tag      string
	key      string
	order    int
	disposed bool

	parent     Handle
	firstChild Handle
	lastChild  Handle
	next       Handle
	prev       Handle
	childCount int

	attrs     map[reflect.Type]any
	adaptors  map[reflect.Type]adaptor
	bindings  []adaptor
	styles    []*Style
	listeners map[EventType][]listenerEntry
}

// Handle returns the element's stable handle.
func (e *Element) Handle() Handle {
	return e.handle
}

// Tag returns the element's tag.
func (e *Element) Tag() string {
	return e.tag
}

// Key returns the element's index key, or "" when it is not indexed.
func (e *Element) Key() string {
	return e.key
}

// Arena returns the owning arena, or nil once disposed.
func (e *Element) Arena() *Arena {
	return e.arena
}

// Disposed reports whether the element has been released.
func (e *Element) Disposed() bool {
	return e.disposed
}

func (e *Element) String() string {
	if e == nil {
		return "<nil>"
	}
	var sb strings.Builder
	sb.WriteString(e.tag)
	sb.WriteString(e.handle.String())
	if e.key != "" {
		sb.WriteString("[")
		sb.WriteString(e.key)
		sb.WriteString("]")
	}
	return sb.String()
}

func (e *Element) resolve(h Handle) *Element {
	if e.arena == nil {
		return nil
	}
	return e.arena.get(h)
}

// Parent returns the parent element, or nil for an unattached element.
func (e *Element) Parent() *Element {
	return e.resolve(e.parent)
}

// FirstChild returns the first child, or nil.
func (e *Element) FirstChild() *Element {
	return e.resolve(e.firstChild)
}

// LastChild returns the last child, or nil.
func (e *Element) LastChild() *Element {
	return e.resolve(e.lastChild)
}

// NextSibling returns the following sibling, or nil.
func (e *Element) NextSibling() *Element {
	return e.resolve(e.next)
}

// PreviousSibling returns the preceding sibling, or nil.
func (e *Element) PreviousSibling() *Element {
	return e.resolve(e.prev)
}

// ChildCount returns the number of direct children.
func (e *Element) ChildCount() int {
	return e.childCount
}

// Attached reports whether the element has a parent.
func (e *Element) Attached() bool {
	return !e.parent.IsZero()
}

// Children returns the direct children in sibling order.
func (e *Element) Children() []*Element {
	out := make([]*Element, 0, e.childCount)
	for c := e.FirstChild(); c != nil; c = c.NextSibling() {
		out = append(out, c)
	}
	return out
}

// All iterates over the direct children in sibling order. The next sibling
// is read before yielding, so the yielded child may be detached safely.
func (e *Element) All() iter.Seq[*Element] {
	return func(yield func(*Element) bool) {
		for c := e.FirstChild(); c != nil; {
			next := c.NextSibling()
			if !yield(c) {
				return
			}
			c = next
		}
	}
}

// Depth returns the number of ancestors.
func (e *Element) Depth() int {
	depth := 0
	for p := e.Parent(); p != nil; p = p.Parent() {
		depth++
	}
	return depth
}

// Root returns the topmost ancestor, or e itself when unattached.
func (e *Element) Root() *Element {
	root := e
	for p := e.Parent(); p != nil; p = p.Parent() {
		root = p
	}
	return root
}

// Contains reports whether other is e or one of its descendants.
func (e *Element) Contains(other *Element) bool {
	for n := other; n != nil; n = n.Parent() {
		if n == e {
			return true
		}
	}
	return false
}

// Walk visits e and its descendants in document (pre-) order. Returning
// false from visit skips the visited element's subtree.
func (e *Element) Walk(visit func(*Element) bool) {
	if e.disposed {
		return
	}
	e.walk(visit)
}

func (e *Element) walk(visit func(*Element) bool) {
	if !visit(e) {
		return
	}
	for c := e.FirstChild(); c != nil; c = c.NextSibling() {
		c.walk(visit)
	}
}
