package core_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/go-drift/arbor/pkg/core"
	"github.com/go-drift/arbor/pkg/errors"
	"github.com/go-drift/arbor/pkg/metrics"
)

func TestSetKey_Collision(t *testing.T) {
	a := core.NewArena()
	x := mustCreate(t, a, "div", core.Key("a"))
	y := mustCreate(t, a, "div", core.Key("b"))
	collisions := testutil.ToFloat64(metrics.KeyCollisions)

	err := x.SetAttribute(core.Key("b"))
	if !errors.Is(err, errors.ErrKeyCollision) {
		t.Fatalf("SetAttribute(Key(b)) = %v, want ErrKeyCollision", err)
	}
	if got, err := a.GetElement("a"); err != nil || got != x {
		t.Errorf("GetElement(a) = %v, %v; want %v", got, err, x)
	}
	if got, err := a.GetElement("b"); err != nil || got != y {
		t.Errorf("GetElement(b) = %v, %v; want %v", got, err, y)
	}
	if x.Key() != "a" {
		t.Errorf("x.Key() = %q, want a", x.Key())
	}
	if delta := testutil.ToFloat64(metrics.KeyCollisions) - collisions; delta != 1 {
		t.Errorf("collision counter moved by %v, want 1", delta)
	}
}

func TestSetKey_Transitions(t *testing.T) {
	a := core.NewArena()
	e := mustCreate(t, a, "div")

	steps := []struct {
		key      string
		wantKeys []string
	}{
		{"first", []string{"first"}},
		{"first", []string{"first"}},
		{"renamed", []string{"renamed"}},
		{"", []string{}},
	}
	for _, s := range steps {
		if err := e.SetKey(s.key); err != nil {
			t.Fatalf("SetKey(%q): %v", s.key, err)
		}
		got := a.Keys()
		if len(got) != len(s.wantKeys) {
			t.Fatalf("after SetKey(%q): keys %v, want %v", s.key, got, s.wantKeys)
		}
		for i := range got {
			if got[i] != s.wantKeys[i] {
				t.Errorf("after SetKey(%q): keys %v, want %v", s.key, got, s.wantKeys)
			}
		}
	}
	if _, err := a.GetElement("first"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("old key still resolves: %v", err)
	}
}

func TestGetElement_NotFound(t *testing.T) {
	a := core.NewArena()
	for _, key := range []string{"", "missing"} {
		_, err := a.GetElement(key)
		if !errors.Is(err, errors.ErrNotFound) {
			t.Errorf("GetElement(%q) = %v, want ErrNotFound", key, err)
		}
	}
}

func TestKeyReleasedOnDispose(t *testing.T) {
	a := core.NewArena()
	parent := mustCreate(t, a, "div", core.Key("parent"))
	child := mustCreate(t, a, "span", core.Key("child"))
	if err := parent.AppendChild(child); err != nil {
		t.Fatal(err)
	}
	if err := a.Dispose(parent); err != nil {
		t.Fatalf("Dispose: %v", err)
	}
	for _, key := range []string{"parent", "child"} {
		if _, err := a.GetElement(key); !errors.Is(err, errors.ErrNotFound) {
			t.Errorf("GetElement(%q) after dispose = %v, want ErrNotFound", key, err)
		}
	}
	if _, err := a.Create("div", core.Key("child")); err != nil {
		t.Errorf("released key should be reusable: %v", err)
	}
}
