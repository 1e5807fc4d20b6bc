// Package errors provides structured error handling for the arbor engine.
//
// Every failure raised by the engine is an *Error carrying the operation
// that failed, a Kind, and the underlying cause. Callers match on the
// sentinel values with the standard library:
//
//	if errors.Is(err, arborerrors.ErrNotFound) { ... }
//
// A *Error also matches the sentinel of its Kind even when Err wraps
// something else, so classification never depends on message text.
package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorKind identifies the category of an error.
type ErrorKind int

const (
	// KindUnknown indicates an error of unknown type.
	KindUnknown ErrorKind = iota
	// KindNotFound indicates a missing attribute, key, style or factory.
	KindNotFound
	// KindKeyCollision indicates an attempt to claim a key owned by another element.
	KindKeyCollision
	// KindPrecondition indicates a structural operation referencing a node
	// that is not where the caller claims.
	KindPrecondition
	// KindUnrenderable indicates a bound record type with no transform and
	// no default formatter.
	KindUnrenderable
	// KindStale indicates use of a disposed element or handle.
	KindStale
	// KindConfig indicates an invalid configuration, style sheet or document.
	KindConfig
	// KindPanic indicates a recovered panic.
	KindPanic
	// KindClosed indicates use of a closed event queue.
	KindClosed
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindKeyCollision:
		return "key collision"
	case KindPrecondition:
		return "precondition"
	case KindUnrenderable:
		return "unrenderable"
	case KindStale:
		return "stale"
	case KindConfig:
		return "config"
	case KindPanic:
		return "panic"
	case KindClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Sentinel errors, one per kind.
var (
	ErrNotFound     = stderrors.New("not found")
	ErrKeyCollision = stderrors.New("key collision")
	ErrPrecondition = stderrors.New("precondition violation")
	ErrUnrenderable = stderrors.New("unrenderable record")
	ErrStale        = stderrors.New("stale element")
	ErrConfig       = stderrors.New("invalid configuration")
	ErrClosed       = stderrors.New("closed")
)

// Sentinel returns the sentinel error associated with a kind, or nil.
func (k ErrorKind) Sentinel() error {
	switch k {
	case KindNotFound:
		return ErrNotFound
	case KindKeyCollision:
		return ErrKeyCollision
	case KindPrecondition:
		return ErrPrecondition
	case KindUnrenderable:
		return ErrUnrenderable
	case KindStale:
		return ErrStale
	case KindConfig:
		return ErrConfig
	case KindClosed:
		return ErrClosed
	default:
		return nil
	}
}

// Error represents a structured error raised by the engine.
type Error struct {
	// Op is the operation that failed (e.g., "core.InsertBefore").
	Op string
	// Kind categorizes the error.
	Kind ErrorKind
	// Key is the index key involved, if any.
	Key string
	// Err is the underlying error.
	Err error
	// StackTrace contains the call stack at the time of the error, when captured.
	StackTrace string
	// Timestamp is when the error was reported.
	Timestamp time.Time
}

func (e *Error) Error() string {
	cause := e.Err
	if cause == nil {
		cause = e.Kind.Sentinel()
	}
	if e.Key != "" {
		return fmt.Sprintf("%s [%s] key=%q: %v", e.Op, e.Kind, e.Key, cause)
	}
	return fmt.Sprintf("%s [%s]: %v", e.Op, e.Kind, cause)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	s := e.Kind.Sentinel()
	return s != nil && target == s
}

// New creates an *Error of the given kind with a formatted cause.
func New(op string, kind ErrorKind, format string, args ...any) *Error {
	return &Error{Op: op, Kind: kind, Err: fmt.Errorf(format, args...)}
}

// Wrap wraps err as an *Error of the given kind. A nil err yields nil.
func Wrap(op string, kind ErrorKind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Kind: kind, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) ErrorKind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is forwards to the standard library so callers need a single import.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As forwards to the standard library so callers need a single import.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// Join forwards to the standard library.
func Join(errs ...error) error {
	return stderrors.Join(errs...)
}

// PanicError represents a recovered panic.
type PanicError struct {
	// Op is the operation that panicked (e.g., "core.Render").
	Op string
	// Value is the value passed to panic().
	Value any
	// StackTrace contains the call stack at the time of the panic.
	StackTrace string
	// Timestamp is when the panic occurred.
	Timestamp time.Time
}

func (e *PanicError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("panic in %s: %v", e.Op, e.Value)
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

// ErrorHandler receives errors reported by the engine.
type ErrorHandler interface {
	// HandleError is called when an error is reported.
	HandleError(err *Error)
	// HandlePanic is called when a panic is recovered.
	HandlePanic(err *PanicError)
}
