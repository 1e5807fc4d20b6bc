// Package unit provides unit-suffixed numeric literals for length attributes.
//
// A Length pairs a value with its unit:
//
//	unit.Px(12)       // 12px
//	unit.Percent(50)  // 50%
//	unit.Em(1.5)      // 1.5em
//
// Lengths are plain values; store them on an element like any other
// attribute. Resolve converts to device pixels in 26.6 fixed point given
// the font size, resolution and reference extent of the consumer.
package unit

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/image/math/fixed"
)

// Unit is the format tag of a Length.
type Unit uint8

const (
	// Pixel is a device-independent pixel.
	Pixel Unit = iota
	// Point is 1/72 of an inch.
	Point
	// EmUnit is relative to the current font size.
	EmUnit
	// Percentage is relative to a reference extent.
	Percentage
)

var suffixes = [...]string{Pixel: "px", Point: "pt", EmUnit: "em", Percentage: "%"}

func (u Unit) String() string {
	if int(u) < len(suffixes) {
		return suffixes[u]
	}
	return "unit(" + strconv.Itoa(int(u)) + ")"
}

// Length is a (value, unit) pair consumed by numeric attributes.
type Length struct {
	Value float64
	Unit  Unit
}

// Px returns a pixel length.
func Px(v float64) Length { return Length{Value: v, Unit: Pixel} }

// Pt returns a point length.
func Pt(v float64) Length { return Length{Value: v, Unit: Point} }

// Em returns a font-relative length.
func Em(v float64) Length { return Length{Value: v, Unit: EmUnit} }

// Percent returns a percentage length.
func Percent(v float64) Length { return Length{Value: v, Unit: Percentage} }

func (l Length) String() string {
	return strconv.FormatFloat(l.Value, 'f', -1, 64) + l.Unit.String()
}

// IsZero reports whether the length has a zero value, regardless of unit.
func (l Length) IsZero() bool {
	return l.Value == 0
}

// Parse reads a literal such as "12px", "10.5pt", "2em" or "50%".
// A bare number is read as pixels.
func Parse(s string) (Length, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Length{}, fmt.Errorf("unit: empty length")
	}
	u := Pixel
	num := s
	for i, suffix := range suffixes {
		if strings.HasSuffix(s, suffix) {
			u = Unit(i)
			num = strings.TrimSpace(strings.TrimSuffix(s, suffix))
			break
		}
	}
	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return Length{}, fmt.Errorf("unit: invalid length %q: %w", s, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Length{}, fmt.Errorf("unit: invalid length %q", s)
	}
	return Length{Value: v, Unit: u}, nil
}

// MustParse is like Parse but panics on error. Intended for literals.
func MustParse(s string) Length {
	l, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return l
}

// Context supplies the quantities relative units resolve against.
type Context struct {
	// FontSize is the current font size in pixels; used by em.
	FontSize float64
	// DPI is the device resolution; used by pt. Zero means 72.
	DPI float64
	// Reference is the extent percentages are taken of, in pixels.
	Reference float64
}

// Pixels returns the length in device pixels as a floating point value.
func (l Length) Pixels(ctx Context) float64 {
	switch l.Unit {
	case Point:
		dpi := ctx.DPI
		if dpi == 0 {
			dpi = 72
		}
		return l.Value * dpi / 72
	case EmUnit:
		return l.Value * ctx.FontSize
	case Percentage:
		return l.Value * ctx.Reference / 100
	default:
		return l.Value
	}
}

// Resolve returns the length in device pixels as 26.6 fixed point,
// rounded to the nearest 1/64 pixel.
func (l Length) Resolve(ctx Context) fixed.Int26_6 {
	return fixed.Int26_6(math.Round(l.Pixels(ctx) * 64))
}
