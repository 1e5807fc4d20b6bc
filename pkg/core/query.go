package core

import (
	"context"
	"regexp"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/go-drift/arbor/pkg/errors"
	"github.com/go-drift/arbor/pkg/metrics"
)

// MatchAll is the pattern matching every element without compiling a
// matcher.
const MatchAll = "*"

// Predicate selects elements in QueryFunc.
type Predicate func(*Element) bool

// compilePattern returns a predicate over keys. MatchAll selects every
// element, keyed or not; any other pattern is a regular expression that
// must match the whole key.
func compilePattern(op, pattern string) (Predicate, error) {
	if pattern == MatchAll {
		return func(*Element) bool { return true }, nil
	}
	re, err := regexp.Compile(`^(?:` + pattern + `)$`)
	if err != nil {
		return nil, errors.Wrap(op, errors.KindPrecondition, err)
	}
	return func(e *Element) bool {
		return e.key != "" && re.MatchString(e.key)
	}, nil
}

func observeQuery(form string, start time.Time, span trace.Span, matches int) {
	metrics.QueryTotal.WithLabelValues(form).Inc()
	metrics.QueryDuration.WithLabelValues(form).Observe(time.Since(start).Seconds())
	span.SetAttributes(attribute.Int("matches", matches))
	span.End()
}

// Query returns every live element, in creation order, whose key fully
// matches pattern. See MatchAll. No match yields an empty slice, not an
// error; an invalid pattern fails with ErrPrecondition.
func (a *Arena) Query(pattern string) ([]*Element, error) {
	const op = "core.Query"
	_, span := tracer.Start(context.Background(), "arbor.Query", trace.WithAttributes(attribute.String("pattern", pattern)))
	start := time.Now()
	match, err := compilePattern(op, pattern)
	if err != nil {
		span.RecordError(err)
		observeQuery("pattern", start, span, 0)
		return nil, err
	}
	out := a.collect(match)
	observeQuery("pattern", start, span, len(out))
	return out, nil
}

// QueryFunc returns every live element, in creation order, satisfying pred.
func (a *Arena) QueryFunc(pred Predicate) []*Element {
	_, span := tracer.Start(context.Background(), "arbor.QueryFunc")
	start := time.Now()
	out := a.collect(pred)
	observeQuery("predicate", start, span, len(out))
	return out
}

func (a *Arena) collect(pred Predicate) []*Element {
	out := []*Element{}
	if pred == nil {
		return out
	}
	for _, e := range a.order {
		if e != nil && pred(e) {
			out = append(out, e)
		}
	}
	return out
}

// Query returns e's descendants, in document order, whose key fully matches
// pattern. e itself is not considered.
func (e *Element) Query(pattern string) ([]*Element, error) {
	const op = "core.Element.Query"
	if e.disposed {
		return nil, errors.New(op, errors.KindStale, "element %s has been disposed", e)
	}
	_, span := tracer.Start(context.Background(), "arbor.Element.Query", trace.WithAttributes(attribute.String("pattern", pattern)))
	start := time.Now()
	match, err := compilePattern(op, pattern)
	if err != nil {
		span.RecordError(err)
		observeQuery("descendants", start, span, 0)
		return nil, err
	}
	out := e.descendants(match)
	observeQuery("descendants", start, span, len(out))
	return out, nil
}

// QueryFunc returns e's descendants, in document order, satisfying pred.
func (e *Element) QueryFunc(pred Predicate) []*Element {
	if e.disposed {
		return []*Element{}
	}
	_, span := tracer.Start(context.Background(), "arbor.Element.QueryFunc")
	start := time.Now()
	out := e.descendants(pred)
	observeQuery("descendants", start, span, len(out))
	return out
}

func (e *Element) descendants(pred Predicate) []*Element {
	out := []*Element{}
	if pred == nil {
		return out
	}
	e.walk(func(n *Element) bool {
		if n != e && pred(n) {
			out = append(out, n)
		}
		return true
	})
	return out
}

// ByTag returns a predicate matching elements with the given tag.
func ByTag(tag string) Predicate {
	return func(e *Element) bool { return e.tag == tag }
}

// HasAttrType returns a predicate matching elements storing an attribute of type T.
func HasAttrType[T any]() Predicate {
	return func(e *Element) bool { return HasAttr[T](e) }
}

// HasStyle returns a predicate matching elements referencing the named style.
func HasStyle(name string) Predicate {
	return func(e *Element) bool {
		for _, s := range e.styles {
			if s.name == name {
				return true
			}
		}
		return false
	}
}
