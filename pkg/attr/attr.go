// Package attr defines well-known attribute types shared by style sheets,
// documents and hosts. The core engine stores them like any other value,
// keyed by their concrete type.
package attr

import (
	"fmt"
	"strings"

	"github.com/go-drift/arbor/pkg/errors"
	"github.com/go-drift/arbor/pkg/unit"
)

// Foreground is the text color.
type Foreground Color

// Background is the fill color.
type Background Color

// Width is the requested element width.
type Width unit.Length

// Height is the requested element height.
type Height unit.Length

// FontSize is the font size.
type FontSize unit.Length

// FontFamily names a font family.
type FontFamily string

// FontWeight represents a numeric font weight.
type FontWeight int

const (
	FontWeightThin       FontWeight = 100
	FontWeightExtraLight FontWeight = 200
	FontWeightLight      FontWeight = 300
	FontWeightNormal     FontWeight = 400
	FontWeightMedium     FontWeight = 500
	FontWeightSemibold   FontWeight = 600
	FontWeightBold       FontWeight = 700
	FontWeightExtraBold  FontWeight = 800
	FontWeightBlack      FontWeight = 900
)

// Padding is the inner spacing on each edge.
type Padding struct {
	Top, Right, Bottom, Left unit.Length
}

// Uniform returns padding with the same length on every edge.
func Uniform(l unit.Length) Padding {
	return Padding{Top: l, Right: l, Bottom: l, Left: l}
}

// ParsePadding accepts one to four lengths, in top, right, bottom, left
// order with the usual shorthand expansion.
func ParsePadding(s string) (Padding, error) {
	fields := strings.Fields(s)
	ls := make([]unit.Length, len(fields))
	for i, f := range fields {
		l, err := unit.Parse(f)
		if err != nil {
			return Padding{}, err
		}
		ls[i] = l
	}
	switch len(ls) {
	case 1:
		return Uniform(ls[0]), nil
	case 2:
		return Padding{Top: ls[0], Right: ls[1], Bottom: ls[0], Left: ls[1]}, nil
	case 3:
		return Padding{Top: ls[0], Right: ls[1], Bottom: ls[2], Left: ls[1]}, nil
	case 4:
		return Padding{Top: ls[0], Right: ls[1], Bottom: ls[2], Left: ls[3]}, nil
	default:
		return Padding{}, errors.New("attr.ParsePadding", errors.KindPrecondition, "padding needs 1 to 4 lengths, got %q", s)
	}
}

func (p Padding) String() string {
	return fmt.Sprintf("%s %s %s %s", p.Top, p.Right, p.Bottom, p.Left)
}

// Visibility controls whether an element is shown.
type Visibility uint8

const (
	Visible Visibility = iota
	Hidden
	Collapsed
)

func (v Visibility) String() string {
	switch v {
	case Hidden:
		return "hidden"
	case Collapsed:
		return "collapsed"
	default:
		return "visible"
	}
}

// Class is the set of class names an element carries.
type Class []string

// Has reports whether name is one of the classes.
func (c Class) Has(name string) bool {
	for _, n := range c {
		if n == name {
			return true
		}
	}
	return false
}
