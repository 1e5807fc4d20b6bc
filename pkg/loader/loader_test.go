package loader_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/go-drift/arbor/pkg/attr"
	"github.com/go-drift/arbor/pkg/core"
	"github.com/go-drift/arbor/pkg/errors"
	"github.com/go-drift/arbor/pkg/loader"
	arbortest "github.com/go-drift/arbor/pkg/testing"
)

const page = `version: v1
root:
  tag: div
  key: root
  children:
    - tag: paragraph
      style: title
      text: Hello
    - tag: list
      key: scores
      attrs:
        color: "#336699"
        class: wide tall
      data: [3, 5, 8]
    - tag: list
      data:
        - {label: cpu, value: 0.5}
        - {label: mem, value: 2}
`

func newArena(t *testing.T) *core.Arena {
	t.Helper()
	f := core.NewFactories()
	if err := core.RegisterDefaults(f); err != nil {
		t.Fatalf("RegisterDefaults: %v", err)
	}
	styles := core.NewStyleRegistry()
	if _, err := styles.Define("title", attr.FontWeight(700)); err != nil {
		t.Fatalf("Define: %v", err)
	}
	return core.NewArena(core.WithFactories(f), core.WithStyles(styles))
}

func TestParseBuildsTree(t *testing.T) {
	a := newArena(t)
	root, err := loader.Parse(a, []byte(page))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if root.Attached() {
		t.Error("root should be unattached")
	}

	want := "div [root]\n" +
		"  paragraph {title}\n" +
		"  list [scores]\n" +
		"  list\n"
	if diff := cmp.Diff(want, arbortest.Dump(root)); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}

	if err := a.Render(root); err != nil {
		t.Fatalf("Render: %v", err)
	}
	want = "div [root]\n" +
		"  paragraph {title}\n" +
		"    text \"Hello\"\n" +
		"  list [scores]\n" +
		"    text \"3\"\n" +
		"    text \"5\"\n" +
		"    text \"8\"\n" +
		"  list\n" +
		"    text \"cpu: 0.5\"\n" +
		"    text \"mem: 2\"\n"
	if diff := cmp.Diff(want, arbortest.Dump(root)); diff != "" {
		t.Errorf("rendered tree mismatch (-want +got):\n%s", diff)
	}
	if err := arbortest.CheckArena(a); err != nil {
		t.Error(err)
	}
}

func TestParseAttributes(t *testing.T) {
	a := newArena(t)
	if _, err := loader.Parse(a, []byte(page)); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	scores, err := a.GetElement("scores")
	if err != nil {
		t.Fatalf("GetElement: %v", err)
	}
	c, _ := attr.ParseColor("#336699")
	fg, err := core.Attr[attr.Foreground](scores)
	if err != nil {
		t.Fatalf("Attr[Foreground]: %v", err)
	}
	if attr.Color(fg) != c {
		t.Errorf("foreground = %v, want %v", attr.Color(fg), c)
	}
	class, err := core.Attr[attr.Class](scores)
	if err != nil {
		t.Fatalf("Attr[Class]: %v", err)
	}
	if !class.Has("tall") || !class.Has("wide") {
		t.Errorf("class = %v", class)
	}
	if d, err := core.Attr[core.Display](scores); err != nil || d != core.DisplayBlock {
		t.Errorf("display = %v, %v; want block from the list factory", d, err)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		opts    []loader.Option
		wantErr string
	}{
		{"empty", "", nil, "empty document"},
		{"no root", "version: v1\n", nil, "no root"},
		{"unknown document field", "root: {tag: div}\nextra: 1\n", nil, "extra"},
		{"unknown node field", "root:\n  tag: div\n  colour: red\n", nil, `line 3: unknown node field "colour"`},
		{"newer version", "version: v1.4.0\nroot: {tag: div}\n", nil, "unsupported document version"},
		{"other major", "version: v2\nroot: {tag: div}\n", nil, "unsupported document version"},
		{"missing tag", "root:\n  children:\n    - key: x\n", nil, "no tag"},
		{"unknown attribute", "root:\n  tag: div\n  attrs: {sparkle: yes}\n", nil, "sparkle"},
		{"bad attribute value", "root:\n  tag: div\n  attrs: {color: mauve-ish}\n", nil, "mauve-ish"},
		{"unknown style", "root:\n  tag: div\n  children:\n    - tag: span\n      style: loud\n", nil, "line 4: <span>"},
		{"text and data", "root:\n  tag: list\n  text: hi\n  data: [1]\n", nil, "mutually exclusive"},
		{"mixed data", "root:\n  tag: list\n  data: [1, {label: a, value: 2}]\n", nil, "mixes scalars and records"},
		{"non-numeric pair", "root:\n  tag: list\n  data: [{label: a, value: lots}]\n", nil, `"lots" is not a number`},
		{"strict unknown tag", "root: {tag: widget}\n", []loader.Option{loader.Strict()}, "widget"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newArena(t)
			root, err := loader.Parse(a, []byte(tt.doc), tt.opts...)
			if err == nil {
				t.Fatalf("Parse succeeded with root %v", root)
			}
			if got := errors.KindOf(err); got != errors.KindConfig {
				t.Errorf("kind = %v, want config (%v)", got, err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
			if a.Len() != 0 {
				t.Errorf("arena holds %d elements after a failed load", a.Len())
			}
		})
	}
}

func TestParseReleasesKeysOnFailure(t *testing.T) {
	a := newArena(t)
	doc := "root:\n  tag: div\n  key: top\n  children:\n    - tag: span\n      style: loud\n"
	if _, err := loader.Parse(a, []byte(doc)); err == nil {
		t.Fatal("expected error")
	}
	if _, err := a.GetElement("top"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("GetElement(top) = %v, want ErrNotFound", err)
	}
	// The key is free for the next document.
	if _, err := loader.Parse(a, []byte("root: {tag: div, key: top}\n")); err != nil {
		t.Fatalf("Parse: %v", err)
	}
}

func TestUnregisteredTagFallsBack(t *testing.T) {
	a := newArena(t)
	root, err := loader.Parse(a, []byte("root: {tag: widget, key: w}\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if root.Tag() != "widget" {
		t.Errorf("tag = %q", root.Tag())
	}
}

func TestStyleList(t *testing.T) {
	a := newArena(t)
	if _, err := a.Styles().Define("muted"); err != nil {
		t.Fatalf("Define: %v", err)
	}
	root, err := loader.Parse(a, []byte("root:\n  tag: div\n  style: [title, muted]\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	var names []string
	for _, s := range root.Styles() {
		names = append(names, s.Name())
	}
	if diff := cmp.Diff([]string{"title", "muted"}, names); diff != "" {
		t.Errorf("styles (-want +got):\n%s", diff)
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	a := newArena(t)
	root, err := loader.Parse(a, []byte(page))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if err := a.Render(root); err != nil {
		t.Fatalf("Render: %v", err)
	}
	before := arbortest.Dump(root)

	data, err := loader.Marshal(root)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	b := newArena(t)
	copied, err := loader.Parse(b, data)
	if err != nil {
		t.Fatalf("Parse(marshalled): %v\n%s", err, data)
	}
	if diff := cmp.Diff(before, arbortest.Dump(copied)); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, err := loader.LoadFile(newArena(t), t.TempDir()+"/missing.yaml")
	if err == nil {
		t.Fatal("expected error")
	}
}
