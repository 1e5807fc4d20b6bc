package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/go-drift/arbor/pkg/core"
	"github.com/go-drift/arbor/pkg/loader"
)

func init() {
	RegisterCommand(&Command{
		Name:  "dump",
		Short: "Render a document and print its tree",
		Long: `Load an element document, render its bound data and print the
resulting tree, one element per line.

Flags:
  --style FILE      Load an additional style sheet (repeatable)
  --format FORMAT   Output format: tree (default) or yaml
  --color MODE      Colorize tree output: auto (default), always or never

Usage:
  arbor dump page.yaml
  arbor dump --format yaml page.yaml > rendered.yaml`,
		Usage: "arbor dump <document> [--style FILE] [--format tree|yaml] [--color auto|always|never]",
		Run:   runDump,
	})
}

func runDump(args []string) error {
	flags, err := parseDocFlags(args)
	if err != nil {
		return err
	}
	format, color := "tree", "auto"
	var paths []string
	for i := 0; i < len(flags.rest); i++ {
		switch arg := flags.rest[i]; arg {
		case "--format", "--color":
			if i+1 >= len(flags.rest) {
				return fmt.Errorf("%s requires a value", arg)
			}
			if arg == "--format" {
				format = flags.rest[i+1]
			} else {
				color = flags.rest[i+1]
			}
			i++
		default:
			paths = append(paths, arg)
		}
	}
	if len(paths) != 1 {
		return fmt.Errorf("exactly one document is required\n\nUsage: arbor dump <document>")
	}

	s, err := openSession(flags.styles)
	if err != nil {
		return err
	}
	defer s.Close()

	root, loadErr := s.load(paths[0])
	if root == nil {
		return loadErr
	}

	switch format {
	case "tree":
		useColor, err := colorMode(color, stdout)
		if err != nil {
			return err
		}
		printTree(stdout, root, useColor)
	case "yaml":
		data, err := loader.Marshal(root)
		if err != nil {
			return err
		}
		if _, err := stdout.Write(data); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown format %q (use tree or yaml)", format)
	}
	return loadErr
}

// colorMode decides whether to emit ANSI colors. auto colors only when w
// is a terminal.
func colorMode(mode string, w io.Writer) (bool, error) {
	switch mode {
	case "always":
		return true, nil
	case "never":
		return false, nil
	case "auto":
		f, ok := w.(*os.File)
		if !ok {
			return false, nil
		}
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()), nil
	}
	return false, fmt.Errorf("unknown color mode %q (use auto, always or never)", mode)
}

const (
	ansiReset  = "\x1b[0m"
	ansiTag    = "\x1b[36m"
	ansiKey    = "\x1b[33m"
	ansiText   = "\x1b[32m"
	ansiStyle  = "\x1b[35m"
	ansiHandle = "\x1b[2m"
)

func printTree(w io.Writer, root *core.Element, color bool) {
	paint := func(code, s string) string {
		if !color {
			return s
		}
		return code + s + ansiReset
	}
	base := root.Depth()
	root.Walk(func(e *core.Element) bool {
		var sb strings.Builder
		sb.WriteString(strings.Repeat("  ", e.Depth()-base))
		if e.Tag() == core.TextTag {
			sb.WriteString(paint(ansiText, fmt.Sprintf("%q", e.Text())))
		} else {
			sb.WriteString(paint(ansiTag, e.Tag()))
			if e.Key() != "" {
				sb.WriteString(" " + paint(ansiKey, "["+e.Key()+"]"))
			}
			for _, st := range e.Styles() {
				sb.WriteString(" " + paint(ansiStyle, "."+st.Name()))
			}
		}
		sb.WriteString(" " + paint(ansiHandle, e.Handle().String()))
		fmt.Fprintln(w, sb.String())
		return true
	})
}
