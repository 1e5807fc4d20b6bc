package testing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/google/go-cmp/cmp"

	"github.com/go-drift/arbor/pkg/core"
)

// TestingT is the subset of *testing.T used by MatchesFile, allowing
// test doubles to intercept failures.
type TestingT interface {
	Helper()
	Fatalf(format string, args ...any)
	Errorf(format string, args ...any)
	Name() string
}

// Snapshot captures the structure of an element tree.
type Snapshot struct {
	Root *Node `json:"root"`
}

// Node represents an element in a serialized tree.
type Node struct {
	Tag      string   `json:"tag"`
	Key      string   `json:"key,omitempty"`
	Text     string   `json:"text,omitempty"`
	Styles   []string `json:"styles,omitempty"`
	Attrs    []string `json:"attrs,omitempty"`
	Children []*Node  `json:"children,omitempty"`
}

// Capture serializes root's subtree.
func Capture(root *core.Element) *Snapshot {
	return &Snapshot{Root: captureNode(root)}
}

// Dump returns an indented one-line-per-element rendering of root's subtree.
func Dump(root *core.Element) string {
	var sb strings.Builder
	writeNode(&sb, captureNode(root), 0)
	return sb.String()
}

// MatchesFile compares this snapshot against a golden file. On mismatch it
// reports a diff and instructions for updating. When ARBOR_UPDATE_SNAPSHOTS=1
// is set, the file is silently updated instead.
func (s *Snapshot) MatchesFile(t TestingT, path string) {
	t.Helper()

	if os.Getenv("ARBOR_UPDATE_SNAPSHOTS") == "1" {
		if err := s.UpdateFile(path); err != nil {
			t.Fatalf("failed to update snapshot: %v", err)
		}
		return
	}

	expected, err := loadSnapshot(path)
	if err != nil {
		if os.IsNotExist(err) {
			t.Fatalf("snapshot file missing: %s\n\nTo create: ARBOR_UPDATE_SNAPSHOTS=1 go test -run %s", path, t.Name())
			return
		}
		t.Fatalf("failed to load snapshot: %v", err)
		return
	}

	if diff := s.Diff(expected); diff != "" {
		t.Errorf("snapshot mismatch: %s\n%s\n\nTo update: ARBOR_UPDATE_SNAPSHOTS=1 go test -run %s", path, diff, t.Name())
	}
}

// UpdateFile writes this snapshot to the given path, creating directories
// as needed.
func (s *Snapshot) UpdateFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := marshalSnapshot(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Diff returns a (-expected +actual) diff between other and this snapshot.
// Returns empty string if equal.
func (s *Snapshot) Diff(other *Snapshot) string {
	return cmp.Diff(other, s)
}

// --- Internal ---

func captureNode(e *core.Element) *Node {
	n := &Node{Tag: e.Tag(), Key: e.Key()}
	if e.Tag() == core.TextTag {
		n.Text = e.Text()
	}
	for _, s := range e.Styles() {
		n.Styles = append(n.Styles, s.Name())
	}
	for _, v := range e.Attrs() {
		n.Attrs = append(n.Attrs, formatAttr(v))
	}
	for c := range e.All() {
		n.Children = append(n.Children, captureNode(c))
	}
	return n
}

// formatAttr renders an attribute as "type=value". Function values have no
// stable rendering and are reduced to their type.
func formatAttr(v any) string {
	if reflect.ValueOf(v).Kind() == reflect.Func {
		return fmt.Sprintf("%T", v)
	}
	return fmt.Sprintf("%T=%v", v, v)
}

func writeNode(sb *strings.Builder, n *Node, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))
	sb.WriteString(n.Tag)
	if n.Key != "" {
		fmt.Fprintf(sb, " [%s]", n.Key)
	}
	if n.Text != "" {
		fmt.Fprintf(sb, " %q", n.Text)
	}
	if len(n.Styles) > 0 {
		fmt.Fprintf(sb, " {%s}", strings.Join(n.Styles, " "))
	}
	sb.WriteByte('\n')
	for _, c := range n.Children {
		writeNode(sb, c, depth+1)
	}
}

func loadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("invalid snapshot JSON: %w", err)
	}
	return &snap, nil
}

func marshalSnapshot(s *Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
