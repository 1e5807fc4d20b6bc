package cmd

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/go-drift/arbor/pkg/core"
)

func init() {
	RegisterCommand(&Command{
		Name:  "query",
		Short: "List elements whose key matches a pattern",
		Long: `Load and render an element document, then list every element whose
key fully matches PATTERN, in creation order. The pattern is a regular
expression; "*" matches every element, keyed or not.

Flags:
  --style FILE    Load an additional style sheet (repeatable)
  --tag TAG       Only list elements with this tag
  --class NAME    Only list elements referencing this style

Usage:
  arbor query page.yaml 'row-[0-9]+'
  arbor query page.yaml '*' --tag list`,
		Usage: "arbor query <document> <pattern> [--style FILE] [--tag TAG] [--class NAME]",
		Run:   runQuery,
	})
}

func runQuery(args []string) error {
	flags, err := parseDocFlags(args)
	if err != nil {
		return err
	}
	var filters []core.Predicate
	var positional []string
	for i := 0; i < len(flags.rest); i++ {
		switch arg := flags.rest[i]; arg {
		case "--tag", "--class":
			if i+1 >= len(flags.rest) {
				return fmt.Errorf("%s requires a value", arg)
			}
			if arg == "--tag" {
				filters = append(filters, core.ByTag(flags.rest[i+1]))
			} else {
				filters = append(filters, core.HasStyle(flags.rest[i+1]))
			}
			i++
		default:
			positional = append(positional, arg)
		}
	}
	if len(positional) != 2 {
		return fmt.Errorf("a document and a pattern are required\n\nUsage: arbor query <document> <pattern>")
	}

	s, err := openSession(flags.styles)
	if err != nil {
		return err
	}
	defer s.Close()

	if _, err := s.load(positional[0]); err != nil {
		return err
	}
	matches, err := s.arena.Query(positional[1])
	if err != nil {
		return err
	}
	n := 0
	for _, e := range matches {
		if !matchesAll(e, filters) {
			continue
		}
		fmt.Fprintf(stdout, "%s\t%s\n", e, path(e))
		n++
	}
	s.logger.Debug("query finished", slog.String("pattern", positional[1]), slog.Int("matches", n))
	return nil
}

func matchesAll(e *core.Element, filters []core.Predicate) bool {
	for _, f := range filters {
		if !f(e) {
			return false
		}
	}
	return true
}

// path describes e's position as slash-separated tags from its root.
func path(e *core.Element) string {
	var parts []string
	for n := e; n != nil; n = n.Parent() {
		parts = append(parts, n.Tag())
	}
	slices.Reverse(parts)
	return "/" + strings.Join(parts, "/")
}
