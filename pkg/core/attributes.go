package core

import (
	"cmp"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/go-drift/arbor/pkg/errors"
)

// Key is the index attribute. Setting it claims the key in the arena's
// index registry; the empty key means "not indexed".
type Key string

// Text is a scalar text attribute. It becomes the element's single default
// (string) record.
type Text string

// Number is a scalar numeric attribute. It becomes the element's single
// default record, formatted as text.
type Number float64

// Pair is a labelled numeric record. A []Pair attribute replaces the
// default records with "label: value" strings.
type Pair struct {
	Label string
	Value float64
}

// StyleRef references a named style in the arena's style registry.
type StyleRef string

// Listen registers an event listener through SetAttribute.
type Listen struct {
	Type     EventType
	Listener Listener
}

// On returns a Listen attribute.
func On(t EventType, fn Listener) Listen {
	return Listen{Type: t, Listener: fn}
}

// SetAttribute applies values in order. Well-known shapes are routed to
// the index registry, the default data adaptor, the style list or the
// listener table; every other value is stored by its concrete type,
// replacing any previous value of that type. A failing value is skipped and
// the remaining values are still applied; the joined errors are returned.
func (e *Element) SetAttribute(values ...any) error {
	const op = "core.SetAttribute"
	if e.arena == nil {
		return errors.New(op, errors.KindStale, "element %s has been disposed", e)
	}
	var errs []error
	for _, v := range values {
		if err := e.classify(op, v); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (e *Element) classify(op string, value any) error {
	switch v := value.(type) {
	case nil:
		return errors.New(op, errors.KindPrecondition, "nil attribute")
	case Key:
		return e.SetKey(string(v))
	case Text:
		e.setDefault([]string{string(v)})
	case string:
		e.setDefault([]string{v})
	case Number:
		e.setDefault([]string{formatFloat(float64(v))})
	case int:
		e.setDefault([]string{strconv.Itoa(v)})
	case int64:
		e.setDefault([]string{strconv.FormatInt(v, 10)})
	case float64:
		e.setDefault([]string{formatFloat(v)})
	case []string:
		e.setDefault(slices.Clone(v))
	case []int:
		e.setDefault(formatAll(v, strconv.Itoa))
	case []float64:
		e.setDefault(formatAll(v, formatFloat))
	case []Number:
		e.setDefault(formatAll(v, func(n Number) string { return formatFloat(float64(n)) }))
	case []Pair:
		e.setDefault(formatAll(v, func(p Pair) string { return p.Label + ": " + formatFloat(p.Value) }))
	case StyleRef:
		s, err := e.arena.styles.Lookup(string(v))
		if err != nil {
			return err
		}
		return e.AddStyle(s)
	case *Style:
		return e.AddStyle(v)
	case Listen:
		if v.Listener == nil {
			return errors.New(op, errors.KindPrecondition, "nil listener for %q", v.Type)
		}
		e.AddListener(v.Type, v.Listener)
	default:
		if e.attrs == nil {
			e.attrs = make(map[reflect.Type]any)
		}
		e.attrs[reflect.TypeOf(value)] = value
	}
	return nil
}

func (e *Element) setDefault(records []string) {
	Data[string](e).Set(records)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatAll[T any](in []T, format func(T) string) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = format(v)
	}
	return out
}

// Attr returns the attribute of exact type T stored on e. It fails with
// ErrNotFound when absent; values of other types are never converted.
func Attr[T any](e *Element) (T, error) {
	const op = "core.Attr"
	var zero T
	if e.disposed {
		return zero, errors.New(op, errors.KindStale, "element %s has been disposed", e)
	}
	t := reflect.TypeFor[T]()
	v, ok := e.attrs[t]
	if !ok {
		return zero, errors.New(op, errors.KindNotFound, "%s has no %s attribute", e, t)
	}
	return v.(T), nil
}

// HasAttr reports whether e stores an attribute of type T.
func HasAttr[T any](e *Element) bool {
	_, ok := e.attrs[reflect.TypeFor[T]()]
	return ok
}

// RemoveAttr deletes the attribute of type T, reporting whether one existed.
func RemoveAttr[T any](e *Element) bool {
	t := reflect.TypeFor[T]()
	if _, ok := e.attrs[t]; !ok {
		return false
	}
	delete(e.attrs, t)
	return true
}

// ResolveAttr returns e's own attribute of type T or, failing that, the
// value from the most recently referenced style that defines one.
func ResolveAttr[T any](e *Element) (T, error) {
	if v, err := Attr[T](e); err == nil || errors.KindOf(err) != errors.KindNotFound {
		return v, err
	}
	for i := len(e.styles) - 1; i >= 0; i-- {
		if v, ok := StyleAttr[T](e.styles[i]); ok {
			return v, nil
		}
	}
	var zero T
	return zero, errors.New("core.ResolveAttr", errors.KindNotFound, "%s has no %s attribute or style value", e, reflect.TypeFor[T]())
}

// Attrs returns the stored attribute values ordered by type name.
func (e *Element) Attrs() []any {
	types := make([]reflect.Type, 0, len(e.attrs))
	for t := range e.attrs {
		types = append(types, t)
	}
	slices.SortFunc(types, func(a, b reflect.Type) int {
		return cmp.Compare(a.String(), b.String())
	})
	out := make([]any, len(types))
	for i, t := range types {
		out[i] = e.attrs[t]
	}
	return out
}

// SetKey re-keys e in the arena's index registry. Assigning the current key
// is a no-op, the empty key clears the mapping, and a key already held by
// another element fails with ErrKeyCollision leaving both mappings intact.
func (e *Element) SetKey(key string) error {
	const op = "core.SetKey"
	if e.arena == nil {
		return errors.New(op, errors.KindStale, "element %s has been disposed", e)
	}
	return e.arena.rekey(op, e, key)
}

// Text returns the element's default (string) records concatenated.
func (e *Element) Text() string {
	ad, ok := Lookup[string](e)
	if !ok {
		return ""
	}
	return strings.Join(ad.records, "")
}
