package core

import (
	"slices"
	"sync"

	"github.com/go-drift/arbor/pkg/errors"
)

// Display is the flow role a factory assigns to the elements it builds.
type Display uint8

const (
	DisplayBlock Display = iota
	DisplayInline
	DisplayNone
)

func (d Display) String() string {
	switch d {
	case DisplayInline:
		return "inline"
	case DisplayNone:
		return "none"
	default:
		return "block"
	}
}

// FactoryFunc builds a default-configured element of one tag, then applies
// attrs.
type FactoryFunc func(a *Arena, attrs ...any) (*Element, error)

// Factories maps tag names to construction functions. Markup and document
// loaders resolve tags through it. Register entries at startup; lookups are
// safe for concurrent use.
type Factories struct {
	mu    sync.RWMutex
	funcs map[string]FactoryFunc
}

// NewFactories creates an empty registry.
func NewFactories() *Factories {
	return &Factories{funcs: make(map[string]FactoryFunc)}
}

// Register adds fn under tag. Registering a tag twice fails with
// ErrKeyCollision.
func (f *Factories) Register(tag string, fn FactoryFunc) error {
	const op = "core.Factories.Register"
	if tag == "" || fn == nil {
		return errors.New(op, errors.KindPrecondition, "factory needs a tag and a function")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.funcs[tag]; exists {
		return &errors.Error{Op: op, Kind: errors.KindKeyCollision, Key: tag}
	}
	f.funcs[tag] = fn
	return nil
}

// Lookup returns the factory for tag.
func (f *Factories) Lookup(tag string) (FactoryFunc, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	fn, ok := f.funcs[tag]
	if !ok {
		return nil, &errors.Error{Op: "core.Factories.Lookup", Kind: errors.KindNotFound, Key: tag}
	}
	return fn, nil
}

// Tags returns the registered tags in sorted order.
func (f *Factories) Tags() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	tags := make([]string, 0, len(f.funcs))
	for t := range f.funcs {
		tags = append(tags, t)
	}
	slices.Sort(tags)
	return tags
}

// Simple returns a factory creating tag elements preconfigured with
// defaults; attrs passed at build time are applied after the defaults.
func Simple(tag string, defaults ...any) FactoryFunc {
	return func(a *Arena, attrs ...any) (*Element, error) {
		all := make([]any, 0, len(defaults)+len(attrs))
		all = append(all, defaults...)
		all = append(all, attrs...)
		return a.Create(tag, all...)
	}
}

// RegisterDefaults registers the built-in tags.
func RegisterDefaults(f *Factories) error {
	defaults := []struct {
		tag     string
		display Display
	}{
		{"div", DisplayBlock},
		{"paragraph", DisplayBlock},
		{"list", DisplayBlock},
		{"item", DisplayBlock},
		{"span", DisplayInline},
		{"image", DisplayInline},
		{TextTag, DisplayInline},
	}
	var errs []error
	for _, d := range defaults {
		if err := f.Register(d.tag, Simple(d.tag, d.display)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Build creates an element through the factory registered for tag, falling
// back to Create when no factory is registered.
func (a *Arena) Build(tag string, attrs ...any) (*Element, error) {
	fn, err := a.factories.Lookup(tag)
	if err != nil {
		return a.Create(tag, attrs...)
	}
	return fn(a, attrs...)
}
