package errors

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestErrorString(t *testing.T) {
	err := &Error{
		Op:   "core.InsertBefore",
		Kind: KindPrecondition,
		Err:  stderrors.New("existing is not a child of parent"),
	}
	want := "core.InsertBefore [precondition]: existing is not a child of parent"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestErrorStringWithKey(t *testing.T) {
	err := &Error{Op: "core.SetKey", Kind: KindKeyCollision, Key: "b"}
	got := err.Error()
	if !strings.Contains(got, `key="b"`) {
		t.Errorf("error string %q should contain key", got)
	}
	if !strings.Contains(got, "key collision") {
		t.Errorf("error string %q should fall back to the sentinel message", got)
	}
}

func TestErrorKindString(t *testing.T) {
	tests := []struct {
		kind ErrorKind
		want string
	}{
		{KindUnknown, "unknown"},
		{KindNotFound, "not found"},
		{KindKeyCollision, "key collision"},
		{KindPrecondition, "precondition"},
		{KindUnrenderable, "unrenderable"},
		{KindStale, "stale"},
		{KindConfig, "config"},
		{KindPanic, "panic"},
		{KindClosed, "closed"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("ErrorKind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestErrorMatchesSentinelByKind(t *testing.T) {
	tests := []struct {
		kind     ErrorKind
		sentinel error
	}{
		{KindNotFound, ErrNotFound},
		{KindKeyCollision, ErrKeyCollision},
		{KindPrecondition, ErrPrecondition},
		{KindUnrenderable, ErrUnrenderable},
		{KindStale, ErrStale},
		{KindConfig, ErrConfig},
		{KindClosed, ErrClosed},
	}
	for _, tt := range tests {
		err := fmt.Errorf("outer: %w", New("op", tt.kind, "detail %d", 1))
		if !Is(err, tt.sentinel) {
			t.Errorf("kind %s: errors.Is(err, %v) = false", tt.kind, tt.sentinel)
		}
		if KindOf(err) != tt.kind {
			t.Errorf("KindOf = %s, want %s", KindOf(err), tt.kind)
		}
	}
	if Is(New("op", KindNotFound, "x"), ErrStale) {
		t.Error("NotFound error should not match ErrStale")
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap("op", KindConfig, nil) != nil {
		t.Error("Wrap(nil) should return nil")
	}
}

func TestKindOfPlainError(t *testing.T) {
	if got := KindOf(stderrors.New("plain")); got != KindUnknown {
		t.Errorf("KindOf(plain) = %s, want unknown", got)
	}
}

func TestPanicErrorString(t *testing.T) {
	err := &PanicError{Value: "test panic", Timestamp: time.Now()}
	if got, want := err.Error(), "panic: test panic"; got != want {
		t.Errorf("PanicError.Error() = %q, want %q", got, want)
	}
	err.Op = "core.Render"
	if got, want := err.Error(), "panic in core.Render: test panic"; got != want {
		t.Errorf("PanicError.Error() = %q, want %q", got, want)
	}
}

func TestReport(t *testing.T) {
	var captured *Error
	handler := &testHandler{onError: func(err *Error) { captured = err }}

	oldHandler := DefaultHandler
	SetHandler(handler)
	defer SetHandler(oldHandler)

	Report(&Error{Op: "test.op", Kind: KindNotFound})

	if captured == nil {
		t.Fatal("expected error to be captured")
	}
	if captured.Op != "test.op" {
		t.Errorf("Op = %q, want %q", captured.Op, "test.op")
	}
	if captured.Timestamp.IsZero() {
		t.Error("expected Timestamp to be set")
	}
}

func TestReportErrWrapsForeignErrors(t *testing.T) {
	var captured *Error
	handler := &testHandler{onError: func(err *Error) { captured = err }}
	SetHandler(handler)
	defer SetHandler(nil)

	ReportErr("loader.Load", stderrors.New("boom"))
	if captured == nil || captured.Op != "loader.Load" || captured.Kind != KindUnknown {
		t.Fatalf("captured = %+v", captured)
	}

	ReportErr("ignored", New("core.Attr", KindNotFound, "missing"))
	if captured.Op != "core.Attr" {
		t.Errorf("Op = %q, want core.Attr", captured.Op)
	}
}

func TestRecover(t *testing.T) {
	var captured *PanicError
	handler := &testHandler{onPanic: func(err *PanicError) { captured = err }}
	SetHandler(handler)
	defer SetHandler(nil)

	func() {
		defer Recover("test.recover")
		panic("intentional test panic")
	}()

	if captured == nil {
		t.Fatal("expected panic to be recovered and captured")
	}
	if captured.Value != "intentional test panic" {
		t.Errorf("Value = %v", captured.Value)
	}
	if captured.Op != "test.recover" {
		t.Errorf("Op = %q, want %q", captured.Op, "test.recover")
	}
}

func TestRecoverWithCallback(t *testing.T) {
	SetHandler(&testHandler{})
	defer SetHandler(nil)

	var got any
	func() {
		defer RecoverWithCallback("test.cb", func(r any) { got = r })
		panic(42)
	}()
	if got != 42 {
		t.Errorf("callback got %v, want 42", got)
	}
}

func TestCaptureStack(t *testing.T) {
	stack := CaptureStack()
	if stack == "" {
		t.Fatal("expected non-empty stack trace")
	}
	if !strings.Contains(stack, "testing") && !strings.Contains(stack, "runtime") {
		t.Errorf("stack trace should contain testing or runtime frames, got: %s", stack)
	}
}

func TestSetHandlerNil(t *testing.T) {
	SetHandler(nil)
	if _, ok := DefaultHandler.(*LogHandler); !ok {
		t.Errorf("SetHandler(nil) should set LogHandler, got %T", DefaultHandler)
	}
}

func TestLogHandlerWritesStructuredRecord(t *testing.T) {
	var buf bytes.Buffer
	h := &LogHandler{Logger: slog.New(slog.NewTextHandler(&buf, nil)), Verbose: true}
	h.HandleError(&Error{Op: "core.GetElement", Kind: KindNotFound, Key: "root", StackTrace: "frame"})
	out := buf.String()
	for _, want := range []string{"op=core.GetElement", `kind="not found"`, "key=root", "stack=frame"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %q missing %q", out, want)
		}
	}

	buf.Reset()
	h.HandlePanic(&PanicError{Op: "core.Render", Value: "bad"})
	if !strings.Contains(buf.String(), "op=core.Render") {
		t.Errorf("panic output %q missing op", buf.String())
	}
}

type testHandler struct {
	onError func(*Error)
	onPanic func(*PanicError)
}

func (h *testHandler) HandleError(err *Error) {
	if h.onError != nil {
		h.onError(err)
	}
}

func (h *testHandler) HandlePanic(err *PanicError) {
	if h.onPanic != nil {
		h.onPanic(err)
	}
}
