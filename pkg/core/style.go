package core

import (
	"reflect"
	"slices"
	"sync"

	"github.com/go-drift/arbor/pkg/errors"
)

// Style is an immutable, named bag of attributes. Elements reference
// styles; they never copy them.
type Style struct {
	name   string
	attrs  map[reflect.Type]any
	values []any
}

// Name returns the style's registered name.
func (s *Style) Name() string {
	return s.name
}

// Attrs returns the style's attribute values in definition order.
func (s *Style) Attrs() []any {
	return slices.Clone(s.values)
}

// Len returns the number of attribute values.
func (s *Style) Len() int {
	return len(s.values)
}

// StyleAttr returns the value of type T stored in s.
func StyleAttr[T any](s *Style) (T, bool) {
	v, ok := s.attrs[reflect.TypeFor[T]()]
	if !ok {
		var zero T
		return zero, false
	}
	return v.(T), true
}

// StyleRegistry owns named styles. It is safe for concurrent use; styles
// are published once and never modified or removed.
type StyleRegistry struct {
	mu     sync.RWMutex
	styles map[string]*Style
	names  []string
}

// NewStyleRegistry creates an empty registry.
func NewStyleRegistry() *StyleRegistry {
	return &StyleRegistry{styles: make(map[string]*Style)}
}

// Define publishes a style. A later value of the same type overrides an
// earlier one. Defining a name twice fails with ErrKeyCollision.
func (r *StyleRegistry) Define(name string, attrs ...any) (*Style, error) {
	const op = "core.StyleRegistry.Define"
	if name == "" {
		return nil, errors.New(op, errors.KindPrecondition, "style name is empty")
	}
	s := &Style{name: name, attrs: make(map[reflect.Type]any, len(attrs))}
	for _, v := range attrs {
		if v == nil {
			return nil, errors.New(op, errors.KindPrecondition, "style %q has a nil attribute", name)
		}
		t := reflect.TypeOf(v)
		if _, dup := s.attrs[t]; dup {
			i := slices.IndexFunc(s.values, func(x any) bool { return reflect.TypeOf(x) == t })
			s.values = slices.Delete(s.values, i, i+1)
		}
		s.attrs[t] = v
		s.values = append(s.values, v)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.styles[name]; exists {
		return nil, &errors.Error{Op: op, Kind: errors.KindKeyCollision, Key: name}
	}
	r.styles[name] = s
	r.names = append(r.names, name)
	return s, nil
}

// Lookup returns the style registered under name.
func (r *StyleRegistry) Lookup(name string) (*Style, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.styles[name]
	if !ok {
		return nil, &errors.Error{Op: "core.StyleRegistry.Lookup", Kind: errors.KindNotFound, Key: name}
	}
	return s, nil
}

// Names returns the registered names in definition order.
func (r *StyleRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.names)
}

// Len returns the number of registered styles.
func (r *StyleRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.styles)
}

// AddStyle references s from e. Referencing the same style twice is a no-op.
func (e *Element) AddStyle(s *Style) error {
	const op = "core.AddStyle"
	if e.arena == nil {
		return errors.New(op, errors.KindStale, "element %s has been disposed", e)
	}
	if s == nil {
		return errors.New(op, errors.KindPrecondition, "nil style")
	}
	if slices.Contains(e.styles, s) {
		return nil
	}
	e.styles = append(e.styles, s)
	return nil
}

// RemoveStyle drops e's reference to s, reporting whether it was present.
func (e *Element) RemoveStyle(s *Style) bool {
	i := slices.Index(e.styles, s)
	if i < 0 {
		return false
	}
	e.styles = slices.Delete(e.styles, i, i+1)
	return true
}

// Styles returns the styles e references, in the order they were added.
func (e *Element) Styles() []*Style {
	return slices.Clone(e.styles)
}
