// Package core provides the element arena, tree mutation, attribute and data
// binding engine.
//
// Every element is owned by an Arena. Callers never allocate elements
// directly; they ask the arena for one and receive a *Element whose Handle
// stays valid until the element is disposed:
//
//	arena := core.NewArena()
//	root, _ := arena.Create("div", core.Key("root"))
//	p, _ := arena.Create("paragraph", core.Key("p1"), core.Text("hello"))
//	_ = root.AppendChild(p)
//
// # Tree
//
// Tree links (parent, first/last child, next/previous sibling) are stored
// as handles into the arena, so navigation and mutation are O(1) and a
// disposed element can never be reached through a dangling link. All
// preconditions of a mutation are checked before any link changes; a failed
// mutation leaves the tree exactly as it was.
//
// # Attributes
//
// SetAttribute stores one value per concrete type. A fixed set of well-known
// shapes is routed elsewhere: Key updates the index registry, text and
// numbers become records of the default string data adaptor, StyleRef
// references a shared Style, and Listen registers an event listener.
// Typed retrieval goes through Attr, which never coerces between types:
//
//	width, err := core.Attr[attr.Width](el)
//
// # Data adaptors
//
// Data returns the live record sequence of a given type for an element.
// SetTransform installs the function that turns one record into a rendered
// sub-element. Render materializes records as children of their element,
// using hints (Appended, Changed, Rebuild) to avoid rebuilding the whole
// sub-tree:
//
//	items := core.Data[int](list)
//	items.Set([]int{1, 2, 3})
//	core.SetTransform(list, func(a *core.Arena, v int) (*core.Element, error) {
//	    return a.Text(strconv.Itoa(v * 2))
//	})
//	err := arena.Render(list)
//
// # Concurrency
//
// An Arena and its elements are not safe for concurrent use. Mutations,
// attribute access, rendering and queries must run on one goroutine; the
// event package funnels events from other goroutines onto it. Styles are
// immutable once defined and may be shared freely.
package core
