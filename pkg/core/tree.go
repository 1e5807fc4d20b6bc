package core

import (
	"github.com/go-drift/arbor/pkg/errors"
)

// checkInsert validates that child can be linked under e. An already
// attached child is accepted; it is detached before relinking.
func (e *Element) checkInsert(op string, child *Element) error {
	if e.arena == nil {
		return errors.New(op, errors.KindStale, "element %s has been disposed", e)
	}
	if err := e.arena.check(op, e); err != nil {
		return err
	}
	if err := e.arena.check(op, child); err != nil {
		return err
	}
	if child.Contains(e) {
		return errors.New(op, errors.KindPrecondition, "%s cannot be inserted under itself or its descendant %s", child, e)
	}
	return nil
}

// checkChild validates that existing is a direct child of e.
func (e *Element) checkChild(op string, existing *Element) error {
	if err := e.arena.check(op, existing); err != nil {
		return err
	}
	if existing.parent != e.handle {
		return errors.New(op, errors.KindPrecondition, "%s is not a child of %s", existing, e)
	}
	return nil
}

// AppendChild links child as the last child of e. A child attached
// elsewhere is detached first.
func (e *Element) AppendChild(child *Element) error {
	const op = "core.AppendChild"
	if err := e.checkInsert(op, child); err != nil {
		return err
	}
	child.detach()
	e.linkLast(child)
	return nil
}

// InsertBefore links newChild immediately before existing, which must be a
// child of e. If existing was the first child, newChild becomes the first.
func (e *Element) InsertBefore(newChild, existing *Element) error {
	const op = "core.InsertBefore"
	if err := e.checkInsert(op, newChild); err != nil {
		return err
	}
	if err := e.checkChild(op, existing); err != nil {
		return err
	}
	if newChild == existing {
		return nil
	}
	newChild.detach()
	e.linkBefore(newChild, existing)
	return nil
}

// InsertAfter links newChild immediately after existing, which must be a
// child of e. If existing was the last child, newChild becomes the last.
func (e *Element) InsertAfter(newChild, existing *Element) error {
	const op = "core.InsertAfter"
	if err := e.checkInsert(op, newChild); err != nil {
		return err
	}
	if err := e.checkChild(op, existing); err != nil {
		return err
	}
	if newChild == existing {
		return nil
	}
	newChild.detach()
	e.linkAfter(newChild, existing)
	return nil
}

// RemoveChild unlinks child from e. The removed child becomes unattached;
// its own subtree is untouched.
func (e *Element) RemoveChild(child *Element) error {
	const op = "core.RemoveChild"
	if err := e.arena.check(op, e); err != nil {
		return err
	}
	if err := e.checkChild(op, child); err != nil {
		return err
	}
	e.unlink(child)
	return nil
}

// ReplaceChild puts newChild in oldChild's position and unlinks oldChild in
// a single step.
func (e *Element) ReplaceChild(newChild, oldChild *Element) error {
	const op = "core.ReplaceChild"
	if err := e.checkInsert(op, newChild); err != nil {
		return err
	}
	if err := e.checkChild(op, oldChild); err != nil {
		return err
	}
	if newChild == oldChild {
		return nil
	}
	newChild.detach()
	e.linkBefore(newChild, oldChild)
	e.unlink(oldChild)
	return nil
}

// Append links newSibling immediately after e under e's parent. Calling
// Append on a root or unattached element is a precondition violation.
func (e *Element) Append(newSibling *Element) error {
	const op = "core.Append"
	if e.arena == nil {
		return errors.New(op, errors.KindStale, "element %s has been disposed", e)
	}
	if err := e.arena.check(op, e); err != nil {
		return err
	}
	parent := e.Parent()
	if parent == nil {
		return errors.New(op, errors.KindPrecondition, "%s has no parent", e)
	}
	if err := parent.checkInsert(op, newSibling); err != nil {
		return err
	}
	if newSibling == e {
		return nil
	}
	newSibling.detach()
	parent.linkAfter(newSibling, e)
	return nil
}

// Detach unlinks e from its parent, if any.
func (e *Element) Detach() error {
	if e.arena == nil {
		return errors.New("core.Detach", errors.KindStale, "element %s has been disposed", e)
	}
	e.detach()
	return nil
}

func (e *Element) detach() {
	if parent := e.Parent(); parent != nil {
		parent.unlink(e)
	}
}

func (e *Element) linkLast(child *Element) {
	child.parent = e.handle
	child.prev = e.lastChild
	child.next = Handle{}
	if last := e.LastChild(); last != nil {
		last.next = child.handle
	} else {
		e.firstChild = child.handle
	}
	e.lastChild = child.handle
	e.childCount++
}

func (e *Element) linkBefore(child, existing *Element) {
	child.parent = e.handle
	child.next = existing.handle
	child.prev = existing.prev
	if prev := existing.PreviousSibling(); prev != nil {
		prev.next = child.handle
	} else {
		e.firstChild = child.handle
	}
	existing.prev = child.handle
	e.childCount++
}

func (e *Element) linkAfter(child, existing *Element) {
	child.parent = e.handle
	child.prev = existing.handle
	child.next = existing.next
	if next := existing.NextSibling(); next != nil {
		next.prev = child.handle
	} else {
		e.lastChild = child.handle
	}
	existing.next = child.handle
	e.childCount++
}

func (e *Element) unlink(child *Element) {
	prev, next := child.PreviousSibling(), child.NextSibling()
	if prev != nil {
		prev.next = child.next
	} else {
		e.firstChild = child.next
	}
	if next != nil {
		next.prev = child.prev
	} else {
		e.lastChild = child.prev
	}
	child.parent, child.prev, child.next = Handle{}, Handle{}, Handle{}
	e.childCount--
}
