package attr

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/go-drift/arbor/pkg/core"
	"github.com/go-drift/arbor/pkg/errors"
	"github.com/go-drift/arbor/pkg/unit"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want Color
	}{
		{"red", ColorRed},
		{"#fff", ColorWhite},
		{"#336699", RGB(0x33, 0x66, 0x99)},
		{"#80336699", RGBA8(0x33, 0x66, 0x99, 0x80)},
		{" Black ", ColorBlack},
	}
	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseColor(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
	for _, bad := range []string{"", "#12", "336699", "#zzzzzz"} {
		if _, err := ParseColor(bad); !errors.Is(err, errors.ErrPrecondition) {
			t.Errorf("ParseColor(%q) = %v, want ErrPrecondition", bad, err)
		}
	}
}

func TestColorString(t *testing.T) {
	if got := RGB(1, 2, 3).String(); got != "#010203" {
		t.Errorf("opaque = %q", got)
	}
	if got := RGB(1, 2, 3).WithAlpha8(0x10).String(); got != "#10010203" {
		t.Errorf("translucent = %q", got)
	}
}

func TestParsePadding(t *testing.T) {
	px := unit.Px
	tests := []struct {
		in   string
		want Padding
	}{
		{"4", Uniform(px(4))},
		{"1px 2px", Padding{px(1), px(2), px(1), px(2)}},
		{"1 2 3", Padding{px(1), px(2), px(3), px(2)}},
		{"1 2 3 1em", Padding{px(1), px(2), px(3), unit.Em(1)}},
	}
	for _, tt := range tests {
		got, err := ParsePadding(tt.in)
		if err != nil {
			t.Fatalf("ParsePadding(%q): %v", tt.in, err)
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("ParsePadding(%q) (-want +got):\n%s", tt.in, diff)
		}
	}
	if _, err := ParsePadding("1 2 3 4 5"); err == nil {
		t.Error("expected error for five lengths")
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name, value string
		want        any
	}{
		{"key", "root", core.Key("root")},
		{"text", "hi", core.Text("hi")},
		{"style", "title", core.StyleRef("title")},
		{"color", "blue", Foreground(ColorBlue)},
		{"background", "#000", Background(ColorBlack)},
		{"width", "50%", Width(unit.Percent(50))},
		{"height", "12pt", Height(unit.Pt(12))},
		{"font-size", "2em", FontSize(unit.Em(2))},
		{"font-family", "Mono", FontFamily("Mono")},
		{"font-weight", "bold", FontWeightBold},
		{"font-weight", "350", FontWeight(350)},
		{"visibility", "hidden", Hidden},
		{"display", "inline", core.DisplayInline},
		{"class", "a  b", Class{"a", "b"}},
	}
	for _, tt := range tests {
		got, err := Parse(tt.name, tt.value)
		if err != nil {
			t.Errorf("Parse(%q, %q): %v", tt.name, tt.value, err)
			continue
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("Parse(%q, %q) (-want +got):\n%s", tt.name, tt.value, diff)
		}
	}
}

func TestParse_Errors(t *testing.T) {
	if _, err := Parse("nope", "x"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("unknown name = %v, want ErrNotFound", err)
	}
	for _, tc := range [][2]string{{"width", "wide"}, {"font-weight", "heavy"}, {"visibility", "maybe"}, {"display", "grid"}} {
		if _, err := Parse(tc[0], tc[1]); !errors.Is(err, errors.ErrPrecondition) {
			t.Errorf("Parse(%q, %q) = %v, want ErrPrecondition", tc[0], tc[1], err)
		}
	}
}

func TestParsedValuesAreStoredByType(t *testing.T) {
	a := core.NewArena()
	fg, _ := Parse("color", "red")
	bg, _ := Parse("background", "white")
	e, err := a.Create("div", fg, bg)
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := core.Attr[Foreground](e); Color(got) != ColorRed {
		t.Errorf("Foreground = %v", Color(got))
	}
	if got, _ := core.Attr[Background](e); Color(got) != ColorWhite {
		t.Errorf("Background = %v", Color(got))
	}
}

func TestClassHas(t *testing.T) {
	c := Class{"card", "wide"}
	if !c.Has("wide") || c.Has("narrow") {
		t.Errorf("Has misbehaves for %v", c)
	}
}
