package testing

import (
	"fmt"
	"strings"

	"github.com/go-drift/arbor/pkg/core"
)

// Finder locates elements in an element tree.
type Finder interface {
	// Evaluate returns all matching elements under root (depth-first pre-order).
	Evaluate(root *core.Element) []*core.Element
	// Description returns a human-readable description for error messages.
	Description() string
}

// FinderResult wraps finder results with convenient accessors.
type FinderResult struct {
	elements []*core.Element
	finder   Finder
}

// First returns the first match. Panics if no matches.
func (r FinderResult) First() *core.Element {
	if len(r.elements) == 0 {
		panic(fmt.Sprintf("Finder found no elements: %s", r.description()))
	}
	return r.elements[0]
}

// FirstOrNil returns the first match, or nil if none.
func (r FinderResult) FirstOrNil() *core.Element {
	if len(r.elements) == 0 {
		return nil
	}
	return r.elements[0]
}

// At returns the match at index. Panics if out of range.
func (r FinderResult) At(index int) *core.Element {
	if index < 0 || index >= len(r.elements) {
		panic(fmt.Sprintf("Finder index %d out of range (found %d): %s", index, len(r.elements), r.description()))
	}
	return r.elements[index]
}

// All returns all matches in traversal order.
func (r FinderResult) All() []*core.Element {
	return r.elements
}

// Count returns the number of matches.
func (r FinderResult) Count() int {
	return len(r.elements)
}

// Exists returns true if at least one match was found.
func (r FinderResult) Exists() bool {
	return len(r.elements) > 0
}

// Texts returns the text of every match.
func (r FinderResult) Texts() []string {
	out := make([]string, len(r.elements))
	for i, e := range r.elements {
		out[i] = e.Text()
	}
	return out
}

func (r FinderResult) description() string {
	if r.finder == nil {
		return "unknown"
	}
	return r.finder.Description()
}

// Find evaluates f under root.
func Find(root *core.Element, f Finder) FinderResult {
	return FinderResult{elements: f.Evaluate(root), finder: f}
}

// --- Concrete finders ---

type tagFinder struct {
	tag string
}

func (f *tagFinder) Evaluate(root *core.Element) []*core.Element {
	return collectMatches(root, func(e *core.Element) bool { return e.Tag() == f.tag })
}

func (f *tagFinder) Description() string {
	return fmt.Sprintf("ByTag(%q)", f.tag)
}

// ByTag returns a finder that matches elements with the given tag.
func ByTag(tag string) Finder {
	return &tagFinder{tag: tag}
}

type keyFinder struct {
	key string
}

func (f *keyFinder) Evaluate(root *core.Element) []*core.Element {
	return collectMatches(root, func(e *core.Element) bool { return e.Key() == f.key })
}

func (f *keyFinder) Description() string {
	return fmt.Sprintf("ByKey(%q)", f.key)
}

// ByKey returns a finder that matches the element holding key.
func ByKey(key string) Finder {
	return &keyFinder{key: key}
}

// textFinder matches text leaves by exact content.
type textFinder struct {
	text string
}

func (f *textFinder) Evaluate(root *core.Element) []*core.Element {
	return collectMatches(root, func(e *core.Element) bool {
		return e.Tag() == core.TextTag && e.Text() == f.text
	})
}

func (f *textFinder) Description() string {
	return fmt.Sprintf("ByText(%q)", f.text)
}

// ByText returns a finder that matches text leaves with exact content.
func ByText(text string) Finder {
	return &textFinder{text: text}
}

type textContainingFinder struct {
	substring string
}

func (f *textContainingFinder) Evaluate(root *core.Element) []*core.Element {
	return collectMatches(root, func(e *core.Element) bool {
		return e.Tag() == core.TextTag && strings.Contains(e.Text(), f.substring)
	})
}

func (f *textContainingFinder) Description() string {
	return fmt.Sprintf("ByTextContaining(%q)", f.substring)
}

// ByTextContaining returns a finder that matches text leaves containing
// substring.
func ByTextContaining(substring string) Finder {
	return &textContainingFinder{substring: substring}
}

type predicateFinder struct {
	fn   core.Predicate
	desc string
}

func (f *predicateFinder) Evaluate(root *core.Element) []*core.Element {
	return collectMatches(root, f.fn)
}

func (f *predicateFinder) Description() string {
	return f.desc
}

// ByPredicate returns a finder that matches elements satisfying fn.
func ByPredicate(fn core.Predicate) Finder {
	return &predicateFinder{fn: fn, desc: "ByPredicate(...)"}
}

// descendantFinder finds elements matching 'matching' that are descendants
// of elements matching 'of'.
type descendantFinder struct {
	of       Finder
	matching Finder
}

func (f *descendantFinder) Evaluate(root *core.Element) []*core.Element {
	var results []*core.Element
	seen := make(map[*core.Element]bool)
	for _, ancestor := range f.of.Evaluate(root) {
		for child := range ancestor.All() {
			for _, match := range f.matching.Evaluate(child) {
				if !seen[match] {
					seen[match] = true
					results = append(results, match)
				}
			}
		}
	}
	return results
}

func (f *descendantFinder) Description() string {
	return fmt.Sprintf("Descendant(of: %s, matching: %s)", f.of.Description(), f.matching.Description())
}

// Descendant returns a finder that matches elements satisfying 'matching'
// that are descendants of elements matching 'of'.
func Descendant(of, matching Finder) Finder {
	return &descendantFinder{of: of, matching: matching}
}

// ancestorFinder finds elements matching 'matching' that are ancestors
// of elements matching 'of'.
type ancestorFinder struct {
	of       Finder
	matching Finder
}

func (f *ancestorFinder) Evaluate(root *core.Element) []*core.Element {
	descendants := f.of.Evaluate(root)
	if len(descendants) == 0 {
		return nil
	}
	var results []*core.Element
	for _, candidate := range f.matching.Evaluate(root) {
		for _, desc := range descendants {
			if candidate != desc && candidate.Contains(desc) {
				results = append(results, candidate)
				break
			}
		}
	}
	return results
}

func (f *ancestorFinder) Description() string {
	return fmt.Sprintf("Ancestor(of: %s, matching: %s)", f.of.Description(), f.matching.Description())
}

// Ancestor returns a finder that matches elements satisfying 'matching'
// that are ancestors of elements matching 'of'.
func Ancestor(of, matching Finder) Finder {
	return &ancestorFinder{of: of, matching: matching}
}

// collectMatches performs depth-first pre-order traversal, collecting
// elements that satisfy the predicate.
func collectMatches(root *core.Element, predicate core.Predicate) []*core.Element {
	var results []*core.Element
	root.Walk(func(e *core.Element) bool {
		if predicate(e) {
			results = append(results, e)
		}
		return true
	})
	return results
}
