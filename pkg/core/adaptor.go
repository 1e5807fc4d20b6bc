package core

import (
	"reflect"
	"slices"

	"github.com/go-drift/arbor/pkg/errors"
)

// HintKind identifies the change a Hint describes.
type HintKind uint8

const (
	// HintNone means no change has been signalled.
	HintNone HintKind = iota
	// HintAppended means records were appended at the end of the sequence.
	HintAppended
	// HintChanged means the displayed fields of one record changed.
	HintChanged
	// HintRebuild means the sequence changed in a way that needs a full
	// re-materialization (mid-sequence insertion, removal, reordering).
	HintRebuild
)

func (k HintKind) String() string {
	switch k {
	case HintAppended:
		return "appended"
	case HintChanged:
		return "changed"
	case HintRebuild:
		return "rebuild"
	default:
		return "none"
	}
}

// Hint tells an adaptor what changed since the last render.
type Hint struct {
	Kind HintKind
	// Count is the number of records appended, for HintAppended. The
	// render pass trusts the size delta, so Count is informational.
	Count int
	// Index is the changed record position, for HintChanged.
	Index int
}

// Appended returns a hint for n records appended at the end.
func Appended(n int) Hint { return Hint{Kind: HintAppended, Count: n} }

// Changed returns a hint for the record at index.
func Changed(index int) Hint { return Hint{Kind: HintChanged, Index: index} }

// Rebuild returns a hint requesting a full re-materialization.
func Rebuild() Hint { return Hint{Kind: HintRebuild} }

// AdaptorState is the lifecycle state of a data adaptor.
type AdaptorState uint8

const (
	// StateEmpty means no adaptor exists for the record type.
	StateEmpty AdaptorState = iota
	// StateBound means records are bound but no transform is installed.
	StateBound
	// StateTransformed means a transform is installed and nothing is pending.
	StateTransformed
	// StateHinted means a transform is installed and hints await the next render.
	StateHinted
)

func (s AdaptorState) String() string {
	switch s {
	case StateBound:
		return "bound"
	case StateTransformed:
		return "transformed"
	case StateHinted:
		return "transformed+hinted"
	default:
		return "empty"
	}
}

// Transform materializes one record as a rendered sub-element. It should
// create and return a new unattached element.
type Transform[T any] func(a *Arena, record T) (*Element, error)

// Adaptor owns the ordered record sequence of one type for one element,
// the transform rendering each record, and the bookkeeping the render pass
// uses to materialize incrementally.
type Adaptor[T any] struct {
	owner   *Element
	records []T

	transform    Transform[T]
	transformGen uint64

	// pending hints, consumed by the next render
	appended bool
	changed  map[int]struct{}
	rebuild  bool
	lastHint Hint

	// window is the virtualized range [start, start+count); count 0 means
	// unbounded.
	winStart, winCount int

	// render state
	rendered     bool
	renderedGen  uint64
	renderedWin  [2]int
	lastSize     int
	start, end   int
	materialized []Handle
}

type adaptor interface {
	recordType() reflect.Type
	render(a *Arena) (renderStats, error)
	handles() []Handle
}

// Data returns the adaptor for records of type T on e, creating it on first
// access. The adaptor lives as long as the element.
func Data[T any](e *Element) *Adaptor[T] {
	t := reflect.TypeFor[T]()
	if ad, ok := e.adaptors[t]; ok {
		return ad.(*Adaptor[T])
	}
	ad := &Adaptor[T]{owner: e}
	if e.arena != nil {
		ad.winCount = e.arena.window
	}
	if e.adaptors == nil {
		e.adaptors = make(map[reflect.Type]adaptor)
	}
	e.adaptors[t] = ad
	e.bindings = append(e.bindings, ad)
	return ad
}

// Lookup returns the adaptor for T on e without creating one.
func Lookup[T any](e *Element) (*Adaptor[T], bool) {
	ad, ok := e.adaptors[reflect.TypeFor[T]()]
	if !ok {
		return nil, false
	}
	return ad.(*Adaptor[T]), true
}

// StateOf returns the state of e's adaptor for T; StateEmpty when none exists.
func StateOf[T any](e *Element) AdaptorState {
	ad, ok := Lookup[T](e)
	if !ok {
		return StateEmpty
	}
	return ad.State()
}

// SetTransform installs fn as the transform for records of type T on e.
// Already materialized children are rebuilt on the next render.
func SetTransform[T any](e *Element, fn Transform[T]) {
	Data[T](e).SetTransform(fn)
}

// SendHint queues h on e's adaptor for T.
func SendHint[T any](e *Element, h Hint) {
	Data[T](e).Hint(h)
}

// Records returns the live backing slice. Elements may be mutated in place;
// follow such mutations with a Changed hint so the next render picks them up.
func (a *Adaptor[T]) Records() []T {
	return a.records
}

// Len returns the number of records.
func (a *Adaptor[T]) Len() int {
	return len(a.records)
}

// At returns the record at index i.
func (a *Adaptor[T]) At(i int) (T, error) {
	if i < 0 || i >= len(a.records) {
		var zero T
		return zero, errors.New("core.Adaptor.At", errors.KindPrecondition, "index %d out of range [0,%d)", i, len(a.records))
	}
	return a.records[i], nil
}

// Set replaces the whole sequence with records, adopting the slice without
// copying it, and queues a rebuild.
func (a *Adaptor[T]) Set(records []T) {
	a.records = records
	a.Hint(Rebuild())
}

// Append adds records at the end and queues an Appended hint.
func (a *Adaptor[T]) Append(records ...T) {
	if len(records) == 0 {
		return
	}
	a.records = append(a.records, records...)
	a.Hint(Appended(len(records)))
}

// Update replaces the record at index i and queues a Changed hint.
func (a *Adaptor[T]) Update(i int, record T) error {
	if i < 0 || i >= len(a.records) {
		return errors.New("core.Adaptor.Update", errors.KindPrecondition, "index %d out of range [0,%d)", i, len(a.records))
	}
	a.records[i] = record
	a.Hint(Changed(i))
	return nil
}

// Insert adds records before index i and queues a rebuild.
func (a *Adaptor[T]) Insert(i int, records ...T) error {
	if i < 0 || i > len(a.records) {
		return errors.New("core.Adaptor.Insert", errors.KindPrecondition, "index %d out of range [0,%d]", i, len(a.records))
	}
	if i == len(a.records) {
		a.Append(records...)
		return nil
	}
	a.records = slices.Insert(a.records, i, records...)
	a.Hint(Rebuild())
	return nil
}

// RemoveAt deletes the record at index i and queues a rebuild.
func (a *Adaptor[T]) RemoveAt(i int) error {
	if i < 0 || i >= len(a.records) {
		return errors.New("core.Adaptor.RemoveAt", errors.KindPrecondition, "index %d out of range [0,%d)", i, len(a.records))
	}
	a.records = slices.Delete(a.records, i, i+1)
	a.Hint(Rebuild())
	return nil
}

// Clear removes every record.
func (a *Adaptor[T]) Clear() {
	a.Set(nil)
}

// MarkChanged queues a Changed hint for the first record equal to record.
func (a *Adaptor[T]) MarkChanged(record T) error {
	for i, r := range a.records {
		if reflect.DeepEqual(r, record) {
			a.Hint(Changed(i))
			return nil
		}
	}
	return errors.New("core.Adaptor.MarkChanged", errors.KindNotFound, "record %v is not bound", record)
}

// SetTransform installs fn. A nil fn restores the default formatter.
func (a *Adaptor[T]) SetTransform(fn Transform[T]) {
	a.transform = fn
	a.transformGen++
}

// HasTransform reports whether a transform is installed.
func (a *Adaptor[T]) HasTransform() bool {
	return a.transform != nil
}

// Hint queues h for the next render. Hints never fail: a hint describing a
// change that did not happen is reduced to bookkeeping when rendered.
func (a *Adaptor[T]) Hint(h Hint) {
	switch h.Kind {
	case HintAppended:
		a.appended = true
	case HintChanged:
		if a.changed == nil {
			a.changed = make(map[int]struct{})
		}
		a.changed[h.Index] = struct{}{}
	case HintRebuild:
		a.rebuild = true
	default:
		return
	}
	a.lastHint = h
}

// LastHint returns the most recently queued or processed hint.
func (a *Adaptor[T]) LastHint() Hint {
	return a.lastHint
}

// Pending reports whether hints await the next render.
func (a *Adaptor[T]) Pending() bool {
	return a.appended || a.rebuild || len(a.changed) > 0
}

// SetWindow restricts materialization to records [start, start+count).
// A count of zero materializes every record from start.
func (a *Adaptor[T]) SetWindow(start, count int) {
	a.winStart = max(start, 0)
	a.winCount = max(count, 0)
}

// Window returns the configured window.
func (a *Adaptor[T]) Window() (start, count int) {
	return a.winStart, a.winCount
}

// Materialized returns the currently materialized record range [start, end).
func (a *Adaptor[T]) Materialized() (start, end int) {
	return a.start, a.end
}

// LastSize returns the record count observed by the last render.
func (a *Adaptor[T]) LastSize() int {
	return a.lastSize
}

// State returns the adaptor's lifecycle state.
func (a *Adaptor[T]) State() AdaptorState {
	switch {
	case a.transform == nil:
		return StateBound
	case a.Pending():
		return StateHinted
	default:
		return StateTransformed
	}
}

// Element returns the element on which the rendered child for record i is
// materialized, or nil when i is outside the materialized range.
func (a *Adaptor[T]) Element(i int) *Element {
	if i < a.start || i >= a.end {
		return nil
	}
	return a.owner.resolve(a.materialized[i-a.start])
}

func (a *Adaptor[T]) recordType() reflect.Type {
	return reflect.TypeFor[T]()
}

func (a *Adaptor[T]) handles() []Handle {
	return a.materialized
}

// visible returns the range of records the window selects for n records.
func (a *Adaptor[T]) visible(n int) (start, end int) {
	start = min(a.winStart, n)
	end = n
	if a.winCount > 0 {
		end = min(start+a.winCount, n)
	}
	return start, end
}
