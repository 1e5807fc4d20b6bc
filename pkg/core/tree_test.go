package core_test

import (
	"math/rand/v2"
	"testing"

	"github.com/go-drift/arbor/pkg/core"
	"github.com/go-drift/arbor/pkg/errors"
	arbortest "github.com/go-drift/arbor/pkg/testing"
)

func mustCreate(t *testing.T, a *core.Arena, tag string, attrs ...any) *core.Element {
	t.Helper()
	e, err := a.Create(tag, attrs...)
	if err != nil {
		t.Fatalf("Create(%q): %v", tag, err)
	}
	return e
}

func children(e *core.Element) []*core.Element {
	return e.Children()
}

func sameOrder(t *testing.T, got []*core.Element, want ...*core.Element) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d children %v, want %d %v", len(got), got, len(want), want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("child %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestAppendChild_KeyedLookup(t *testing.T) {
	a := core.NewArena()
	root := mustCreate(t, a, "div", core.Key("root"))
	para := mustCreate(t, a, "paragraph", core.Key("p1"))
	if err := root.AppendChild(para); err != nil {
		t.Fatalf("AppendChild: %v", err)
	}

	got, err := a.GetElement("root")
	if err != nil {
		t.Fatalf("GetElement(root): %v", err)
	}
	if got.FirstChild() != para {
		t.Errorf("root.FirstChild() = %v, want %v", got.FirstChild(), para)
	}
	p, err := a.GetElement("p1")
	if err != nil {
		t.Fatalf("GetElement(p1): %v", err)
	}
	if p.Parent() != root {
		t.Errorf("p1.Parent() = %v, want %v", p.Parent(), root)
	}
	if err := arbortest.CheckLinks(root); err != nil {
		t.Error(err)
	}
}

func TestRemoveChild_OnlyChild(t *testing.T) {
	a := core.NewArena()
	parent := mustCreate(t, a, "div")
	only := mustCreate(t, a, "span")
	if err := parent.AppendChild(only); err != nil {
		t.Fatal(err)
	}
	if err := parent.RemoveChild(only); err != nil {
		t.Fatalf("RemoveChild: %v", err)
	}

	if parent.FirstChild() != nil || parent.LastChild() != nil {
		t.Errorf("expected no children, got first=%v last=%v", parent.FirstChild(), parent.LastChild())
	}
	if parent.ChildCount() != 0 {
		t.Errorf("ChildCount = %d, want 0", parent.ChildCount())
	}
	if only.Attached() || only.NextSibling() != nil || only.PreviousSibling() != nil {
		t.Error("removed child should be unattached with no sibling links")
	}
}

func TestReplaceChild_TakesPosition(t *testing.T) {
	a := core.NewArena()
	parent := mustCreate(t, a, "div")
	first, old, last := mustCreate(t, a, "span"), mustCreate(t, a, "span"), mustCreate(t, a, "span")
	for _, c := range []*core.Element{first, old, last} {
		if err := parent.AppendChild(c); err != nil {
			t.Fatal(err)
		}
	}
	repl := mustCreate(t, a, "image")

	if err := parent.ReplaceChild(repl, old); err != nil {
		t.Fatalf("ReplaceChild: %v", err)
	}
	if old.Parent() != nil {
		t.Errorf("old.Parent() = %v, want nil", old.Parent())
	}
	if repl.Parent() != parent {
		t.Errorf("repl.Parent() = %v, want %v", repl.Parent(), parent)
	}
	sameOrder(t, children(parent), first, repl, last)
	if err := arbortest.CheckLinks(parent); err != nil {
		t.Error(err)
	}
}

func TestInsertBeforeAndAfter(t *testing.T) {
	a := core.NewArena()
	parent := mustCreate(t, a, "list")
	x, y, z := mustCreate(t, a, "item"), mustCreate(t, a, "item"), mustCreate(t, a, "item")

	if err := parent.AppendChild(y); err != nil {
		t.Fatal(err)
	}
	if err := parent.InsertBefore(x, y); err != nil {
		t.Fatalf("InsertBefore: %v", err)
	}
	if err := parent.InsertAfter(z, y); err != nil {
		t.Fatalf("InsertAfter: %v", err)
	}
	sameOrder(t, children(parent), x, y, z)
	if parent.FirstChild() != x || parent.LastChild() != z {
		t.Errorf("ends = %v..%v, want %v..%v", parent.FirstChild(), parent.LastChild(), x, z)
	}
	if err := arbortest.CheckLinks(parent); err != nil {
		t.Error(err)
	}
}

func TestAppendSibling(t *testing.T) {
	a := core.NewArena()
	parent := mustCreate(t, a, "div")
	first, second := mustCreate(t, a, "span"), mustCreate(t, a, "span")
	if err := parent.AppendChild(first); err != nil {
		t.Fatal(err)
	}
	if err := parent.AppendChild(second); err != nil {
		t.Fatal(err)
	}
	mid := mustCreate(t, a, "span")

	if err := first.Append(mid); err != nil {
		t.Fatalf("Append: %v", err)
	}
	sameOrder(t, children(parent), first, mid, second)

	tail := mustCreate(t, a, "span")
	if err := second.Append(tail); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if parent.LastChild() != tail {
		t.Errorf("LastChild = %v, want %v", parent.LastChild(), tail)
	}
}

func TestAppendSibling_OnRoot(t *testing.T) {
	a := core.NewArena()
	root := mustCreate(t, a, "div")
	other := mustCreate(t, a, "div")

	err := root.Append(other)
	if !errors.Is(err, errors.ErrPrecondition) {
		t.Fatalf("Append on root = %v, want ErrPrecondition", err)
	}
	if other.Attached() || root.NextSibling() != nil {
		t.Error("failed Append must not link anything")
	}
}

func TestAppendChild_MovesAttachedChild(t *testing.T) {
	a := core.NewArena()
	p1, p2 := mustCreate(t, a, "div"), mustCreate(t, a, "div")
	c := mustCreate(t, a, "span")
	if err := p1.AppendChild(c); err != nil {
		t.Fatal(err)
	}
	if err := p2.AppendChild(c); err != nil {
		t.Fatalf("AppendChild: %v", err)
	}
	if p1.ChildCount() != 0 || p2.ChildCount() != 1 || c.Parent() != p2 {
		t.Errorf("child not moved: p1=%d p2=%d parent=%v", p1.ChildCount(), p2.ChildCount(), c.Parent())
	}
}

func TestMutation_Preconditions(t *testing.T) {
	a := core.NewArena()
	other := core.NewArena()

	tests := []struct {
		name string
		run  func(root, child, stranger *core.Element) error
	}{
		{"append self", func(root, _, _ *core.Element) error { return root.AppendChild(root) }},
		{"append ancestor", func(root, child, _ *core.Element) error { return child.AppendChild(root) }},
		{"insert before non-child", func(root, _, stranger *core.Element) error {
			x, _ := a.Create("span")
			return root.InsertBefore(x, stranger)
		}},
		{"insert after non-child", func(root, _, stranger *core.Element) error {
			x, _ := a.Create("span")
			return root.InsertAfter(x, stranger)
		}},
		{"remove non-child", func(root, _, stranger *core.Element) error { return root.RemoveChild(stranger) }},
		{"replace non-child", func(root, _, stranger *core.Element) error {
			x, _ := a.Create("span")
			return root.ReplaceChild(x, stranger)
		}},
		{"foreign arena", func(root, _, _ *core.Element) error {
			x, _ := other.Create("span")
			return root.AppendChild(x)
		}},
		{"nil child", func(root, _, _ *core.Element) error { return root.AppendChild(nil) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := mustCreate(t, a, "div")
			child := mustCreate(t, a, "span")
			stranger := mustCreate(t, a, "span")
			if err := root.AppendChild(child); err != nil {
				t.Fatal(err)
			}
			before := arbortest.Dump(root)

			err := tt.run(root, child, stranger)
			if !errors.Is(err, errors.ErrPrecondition) {
				t.Fatalf("got %v, want ErrPrecondition", err)
			}
			if after := arbortest.Dump(root); after != before {
				t.Errorf("tree changed by failed mutation:\nbefore:\n%s\nafter:\n%s", before, after)
			}
			if err := arbortest.CheckLinks(root); err != nil {
				t.Error(err)
			}
		})
	}
}

func TestWalk_DocumentOrderAndSkip(t *testing.T) {
	a := core.NewArena()
	root := mustCreate(t, a, "div", core.Key("root"))
	left := mustCreate(t, a, "div", core.Key("left"))
	leftLeaf := mustCreate(t, a, "span", core.Key("left-leaf"))
	right := mustCreate(t, a, "div", core.Key("right"))
	for _, link := range [][2]*core.Element{{root, left}, {left, leftLeaf}, {root, right}} {
		if err := link[0].AppendChild(link[1]); err != nil {
			t.Fatal(err)
		}
	}

	var visited []string
	root.Walk(func(e *core.Element) bool {
		visited = append(visited, e.Key())
		return e != left
	})
	want := []string{"root", "left", "right"}
	if len(visited) != len(want) {
		t.Fatalf("visited %v, want %v", visited, want)
	}
	for i := range want {
		if visited[i] != want[i] {
			t.Errorf("visited %v, want %v", visited, want)
			break
		}
	}
	if leftLeaf.Depth() != 2 || leftLeaf.Root() != root {
		t.Errorf("Depth=%d Root=%v", leftLeaf.Depth(), leftLeaf.Root())
	}
}

func TestRandomMutations_KeepInvariants(t *testing.T) {
	a := core.NewArena()
	rng := rand.New(rand.NewPCG(1, 2))
	var pool []*core.Element
	for range 24 {
		pool = append(pool, mustCreate(t, a, "div"))
	}
	pick := func() *core.Element { return pool[rng.IntN(len(pool))] }

	for step := range 2000 {
		p, c, ref := pick(), pick(), pick()
		switch rng.IntN(7) {
		case 0, 1:
			_ = p.AppendChild(c)
		case 2:
			_ = p.InsertBefore(c, ref)
		case 3:
			_ = p.InsertAfter(c, ref)
		case 4:
			_ = p.RemoveChild(c)
		case 5:
			_ = p.ReplaceChild(c, ref)
		case 6:
			_ = ref.Append(c)
		}
		if err := arbortest.CheckArena(a); err != nil {
			t.Fatalf("step %d: %v", step, err)
		}
	}
}
