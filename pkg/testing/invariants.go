package testing

import (
	"fmt"

	"github.com/go-drift/arbor/pkg/core"
	"github.com/go-drift/arbor/pkg/errors"
)

// CheckLinks verifies the link invariants of root's subtree: every child
// names its parent, sibling links are symmetric, the first and last child
// are the ends of the chain, and the child count equals the chain length.
// An unattached root must have no siblings. All violations are returned.
func CheckLinks(root *core.Element) error {
	if root == nil {
		return fmt.Errorf("nil root")
	}
	if root.Disposed() {
		return fmt.Errorf("%s is disposed", root)
	}
	var errs []error
	if !root.Attached() && (root.PreviousSibling() != nil || root.NextSibling() != nil) {
		errs = append(errs, fmt.Errorf("%s is unattached but has sibling links", root))
	}
	root.Walk(func(e *core.Element) bool {
		errs = append(errs, checkChildren(e)...)
		return true
	})
	return errors.Join(errs...)
}

func checkChildren(e *core.Element) []error {
	var errs []error
	var prev *core.Element
	count := 0
	for c := e.FirstChild(); c != nil; c = c.NextSibling() {
		count++
		if count > e.ChildCount()+1 {
			return append(errs, fmt.Errorf("%s: sibling chain longer than child count %d", e, e.ChildCount()))
		}
		if c.Parent() != e {
			errs = append(errs, fmt.Errorf("%s: child %s names parent %v", e, c, c.Parent()))
		}
		if c.PreviousSibling() != prev {
			errs = append(errs, fmt.Errorf("%s: child %s has previous %v, want %v", e, c, c.PreviousSibling(), prev))
		}
		prev = c
	}
	if e.LastChild() != prev {
		errs = append(errs, fmt.Errorf("%s: last child %v, chain ends at %v", e, e.LastChild(), prev))
	}
	if count != e.ChildCount() {
		errs = append(errs, fmt.Errorf("%s: child count %d, chain length %d", e, e.ChildCount(), count))
	}
	return errs
}

// CheckArena verifies the link invariants of every tree in a and the
// consistency of its index registry: each registered key resolves to an
// element holding that key, and each keyed element is registered.
func CheckArena(a *core.Arena) error {
	var errs []error
	for _, root := range a.Roots() {
		if err := CheckLinks(root); err != nil {
			errs = append(errs, err)
		}
	}
	for _, key := range a.Keys() {
		e, err := a.GetElement(key)
		if err != nil {
			errs = append(errs, fmt.Errorf("key %q: %w", key, err))
			continue
		}
		if e.Key() != key {
			errs = append(errs, fmt.Errorf("key %q maps to %s", key, e))
		}
	}
	for _, e := range a.Elements() {
		if e.Key() == "" {
			continue
		}
		if got, err := a.GetElement(e.Key()); err != nil || got != e {
			errs = append(errs, fmt.Errorf("%s holds key %q but is not registered", e, e.Key()))
		}
	}
	return errors.Join(errs...)
}
