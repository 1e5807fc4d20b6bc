package core

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"slices"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/go-drift/arbor/pkg/errors"
	"github.com/go-drift/arbor/pkg/metrics"
)

var tracer = otel.Tracer("github.com/go-drift/arbor/pkg/core")

// renderStats counts records materialized by one adaptor render.
type renderStats struct {
	full        int
	incremental int
	changed     int
}

func (s *renderStats) add(o renderStats) {
	s.full += o.full
	s.incremental += o.incremental
	s.changed += o.changed
}

// Render materializes bound data for root and its descendants. See
// RenderContext.
func (a *Arena) Render(root *Element) error {
	return a.RenderContext(context.Background(), root)
}

// RenderContext materializes the data adaptors of root and every
// descendant, in document order, as children of their elements. Children
// produced by a render are themselves rendered; text leaves are not.
//
// An adaptor that has never rendered, whose transform or window changed,
// that received a Rebuild hint, that shrank, that grew without an Appended
// hint, or whose children were moved away by the caller is rebuilt in full.
// Otherwise only the appended tail and the records named by Changed hints
// are materialized. A failing adaptor does not stop the pass; its errors
// are joined into the result and it rebuilds in full next time.
func (a *Arena) RenderContext(ctx context.Context, root *Element) error {
	const op = "core.Render"
	if err := a.check(op, root); err != nil {
		return err
	}
	_, span := tracer.Start(ctx, "arbor.Render", trace.WithAttributes(attribute.String("root", root.String())))
	defer span.End()

	start := time.Now()
	var stats renderStats
	var errs []error
	a.renderElement(root, &stats, &errs)
	elapsed := time.Since(start)

	metrics.RenderDuration.Observe(elapsed.Seconds())
	metrics.RecordsMaterialized.WithLabelValues("full").Add(float64(stats.full))
	metrics.RecordsMaterialized.WithLabelValues("incremental").Add(float64(stats.incremental))
	metrics.RecordsMaterialized.WithLabelValues("changed").Add(float64(stats.changed))
	span.SetAttributes(
		attribute.Int("records.full", stats.full),
		attribute.Int("records.incremental", stats.incremental),
		attribute.Int("records.changed", stats.changed),
	)

	err := errors.Join(errs...)
	if err != nil {
		for _, e := range errs {
			metrics.RenderErrors.WithLabelValues(errors.KindOf(e).String()).Inc()
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "render failed")
	}
	a.logger.Debug("render pass",
		slog.String("root", root.String()),
		slog.Duration("elapsed", elapsed),
		slog.Int("full", stats.full),
		slog.Int("incremental", stats.incremental),
		slog.Int("changed", stats.changed),
		slog.Int("errors", len(errs)),
	)
	return err
}

func (a *Arena) renderElement(e *Element, stats *renderStats, errs *[]error) {
	if e.tag == TextTag {
		return
	}
	for _, b := range e.bindings {
		s, err := b.render(a)
		stats.add(s)
		if err != nil {
			*errs = append(*errs, err)
		}
	}
	for c := e.FirstChild(); c != nil; c = c.NextSibling() {
		a.renderElement(c, stats, errs)
	}
}

func (a *Adaptor[T]) render(ar *Arena) (renderStats, error) {
	var stats renderStats
	n := len(a.records)
	ws, we := a.visible(n)
	win := [2]int{a.winStart, a.winCount}

	full := !a.rendered ||
		a.rebuild ||
		a.transformGen != a.renderedGen ||
		win != a.renderedWin ||
		ws != a.start ||
		n < a.lastSize ||
		(n > a.lastSize && !a.appended) ||
		!a.intact()

	if full {
		if err := a.rebuildAll(ar, ws, we); err != nil {
			a.rebuild = true
			return stats, err
		}
		stats.full = we - ws
	} else {
		changed, err := a.rematerializeChanged(ar)
		stats.changed = changed
		if err != nil {
			a.rebuild = true
			return stats, err
		}
		appended, err := a.materializeTail(ar, we)
		stats.incremental = appended
		if err != nil {
			a.rebuild = true
			return stats, err
		}
	}

	a.rendered = true
	a.renderedGen = a.transformGen
	a.renderedWin = win
	a.lastSize = n
	a.appended, a.rebuild = false, false
	clear(a.changed)
	return stats, nil
}

// intact reports whether every materialized child is still a child of the
// owner.
func (a *Adaptor[T]) intact() bool {
	for _, h := range a.materialized {
		el := a.owner.resolve(h)
		if el == nil || el.parent != a.owner.handle {
			return false
		}
	}
	return true
}

// anchor returns the first non-materialized sibling following the last
// materialized child, so a rebuild keeps the records in place relative to
// the owner's other children.
func (a *Adaptor[T]) anchor() *Element {
	ours := make(map[Handle]struct{}, len(a.materialized))
	for _, h := range a.materialized {
		ours[h] = struct{}{}
	}
	for i := len(a.materialized) - 1; i >= 0; i-- {
		el := a.owner.resolve(a.materialized[i])
		if el == nil || el.parent != a.owner.handle {
			continue
		}
		next := el.NextSibling()
		for next != nil {
			if _, mine := ours[next.handle]; !mine {
				break
			}
			next = next.NextSibling()
		}
		return next
	}
	return nil
}

func (a *Adaptor[T]) place(el, anchor *Element) {
	if anchor != nil && anchor.parent == a.owner.handle {
		a.owner.linkBefore(el, anchor)
		return
	}
	a.owner.linkLast(el)
}

func (a *Adaptor[T]) rebuildAll(ar *Arena, ws, we int) error {
	owner := a.owner
	anchor := a.anchor()
	for _, h := range a.materialized {
		if el := owner.resolve(h); el != nil && el.parent == owner.handle {
			owner.unlink(el)
			_ = ar.Dispose(el)
		}
	}
	a.materialized = a.materialized[:0]
	a.start, a.end = ws, ws
	for i := ws; i < we; i++ {
		el, err := a.materialize(ar, a.records[i])
		if err != nil {
			return err
		}
		a.place(el, anchor)
		a.materialized = append(a.materialized, el.handle)
		a.end = i + 1
	}
	return nil
}

func (a *Adaptor[T]) rematerializeChanged(ar *Arena) (int, error) {
	if len(a.changed) == 0 {
		return 0, nil
	}
	indices := make([]int, 0, len(a.changed))
	for i := range a.changed {
		if i >= a.start && i < a.end && i < len(a.records) {
			indices = append(indices, i)
		}
	}
	slices.Sort(indices)

	owner := a.owner
	count := 0
	for _, i := range indices {
		slotIdx := i - a.start
		old := owner.resolve(a.materialized[slotIdx])
		next := old.NextSibling()
		owner.unlink(old)
		_ = ar.Dispose(old)

		el, err := a.materialize(ar, a.records[i])
		if err != nil {
			return count, err
		}
		a.place(el, next)
		a.materialized[slotIdx] = el.handle
		count++
	}
	return count, nil
}

func (a *Adaptor[T]) materializeTail(ar *Arena, we int) (int, error) {
	count := 0
	for i := a.end; i < we; i++ {
		el, err := a.materialize(ar, a.records[i])
		if err != nil {
			return count, err
		}
		if n := len(a.materialized); n > 0 {
			a.owner.linkAfter(el, a.owner.resolve(a.materialized[n-1]))
		} else {
			a.owner.linkLast(el)
		}
		a.materialized = append(a.materialized, el.handle)
		a.end = i + 1
		count++
	}
	return count, nil
}

// materialize renders one record with the installed transform, or with the
// default formatter when none is installed.
func (a *Adaptor[T]) materialize(ar *Arena, record T) (el *Element, err error) {
	const op = "core.Render"
	if a.transform == nil {
		s, ok := formatRecord(record)
		if !ok {
			return nil, &errors.Error{
				Op:   op,
				Kind: errors.KindUnrenderable,
				Err:  fmt.Errorf("no transform installed for %s records on %s", reflect.TypeFor[T](), a.owner),
			}
		}
		return ar.Text(s)
	}

	defer func() {
		if r := recover(); r != nil {
			pe := &errors.PanicError{
				Op:         op,
				Value:      r,
				StackTrace: errors.CaptureStack(),
				Timestamp:  time.Now(),
			}
			errors.ReportPanic(pe)
			el, err = nil, &errors.Error{Op: op, Kind: errors.KindPanic, Err: pe}
		}
	}()

	el, err = a.transform(ar, record)
	if err != nil {
		return nil, err
	}
	if el == nil {
		return nil, &errors.Error{
			Op:   op,
			Kind: errors.KindUnrenderable,
			Err:  fmt.Errorf("transform for %s records on %s returned no element", reflect.TypeFor[T](), a.owner),
		}
	}
	if err := ar.check(op, el); err != nil {
		return nil, err
	}
	if el.Attached() || el.Contains(a.owner) {
		return nil, errors.New(op, errors.KindPrecondition, "transform must return a new unattached element, got %s", el)
	}
	return el, nil
}

// formatRecord renders scalar records (strings, booleans, integers, floats
// and their named variants) and fmt.Stringer values as text.
func formatRecord(v any) (string, bool) {
	if s, ok := v.(fmt.Stringer); ok {
		return s.String(), true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.String(), true
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10), true
	case reflect.Float32:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 32), true
	case reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64), true
	default:
		return "", false
	}
}
