package attr

import (
	"slices"
	"strconv"
	"strings"

	"github.com/go-drift/arbor/pkg/core"
	"github.com/go-drift/arbor/pkg/errors"
	"github.com/go-drift/arbor/pkg/unit"
)

// ParseFunc converts a textual attribute value into its typed form.
type ParseFunc func(value string) (any, error)

var parsers = map[string]ParseFunc{
	"key":   func(v string) (any, error) { return core.Key(v), nil },
	"text":  func(v string) (any, error) { return core.Text(v), nil },
	"style": func(v string) (any, error) { return core.StyleRef(v), nil },
	"color": func(v string) (any, error) {
		c, err := ParseColor(v)
		return Foreground(c), err
	},
	"background": func(v string) (any, error) {
		c, err := ParseColor(v)
		return Background(c), err
	},
	"width":       length(func(l unit.Length) any { return Width(l) }),
	"height":      length(func(l unit.Length) any { return Height(l) }),
	"font-size":   length(func(l unit.Length) any { return FontSize(l) }),
	"font-family": func(v string) (any, error) { return FontFamily(v), nil },
	"font-weight": parseWeight,
	"padding": func(v string) (any, error) {
		return ParsePadding(v)
	},
	"visibility": parseVisibility,
	"display":    parseDisplay,
	"class":      func(v string) (any, error) { return Class(strings.Fields(v)), nil },
}

func length(wrap func(unit.Length) any) ParseFunc {
	return func(v string) (any, error) {
		l, err := unit.Parse(v)
		if err != nil {
			return nil, err
		}
		return wrap(l), nil
	}
}

var weightNames = map[string]FontWeight{
	"thin":      FontWeightThin,
	"light":     FontWeightLight,
	"normal":    FontWeightNormal,
	"medium":    FontWeightMedium,
	"semibold":  FontWeightSemibold,
	"bold":      FontWeightBold,
	"extrabold": FontWeightExtraBold,
	"black":     FontWeightBlack,
}

func parseWeight(v string) (any, error) {
	if w, ok := weightNames[strings.ToLower(v)]; ok {
		return w, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 || n > 1000 {
		return nil, errors.New("attr.Parse", errors.KindPrecondition, "invalid font weight %q", v)
	}
	return FontWeight(n), nil
}

func parseVisibility(v string) (any, error) {
	switch strings.ToLower(v) {
	case "visible":
		return Visible, nil
	case "hidden":
		return Hidden, nil
	case "collapsed":
		return Collapsed, nil
	}
	return nil, errors.New("attr.Parse", errors.KindPrecondition, "invalid visibility %q", v)
}

func parseDisplay(v string) (any, error) {
	switch strings.ToLower(v) {
	case "block":
		return core.DisplayBlock, nil
	case "inline":
		return core.DisplayInline, nil
	case "none":
		return core.DisplayNone, nil
	}
	return nil, errors.New("attr.Parse", errors.KindPrecondition, "invalid display %q", v)
}

// Parse converts the named textual attribute into the value SetAttribute
// expects. Unknown names fail with ErrNotFound.
func Parse(name, value string) (any, error) {
	fn, ok := parsers[name]
	if !ok {
		return nil, &errors.Error{Op: "attr.Parse", Kind: errors.KindNotFound, Key: name}
	}
	v, err := fn(strings.TrimSpace(value))
	if err != nil {
		if errors.KindOf(err) == errors.KindUnknown {
			err = errors.Wrap("attr.Parse", errors.KindPrecondition, err)
		}
		return nil, err
	}
	return v, nil
}

// Names returns the attribute names Parse understands, sorted.
func Names() []string {
	names := make([]string, 0, len(parsers))
	for n := range parsers {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}
