package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/go-drift/arbor/pkg/loader"
)

const testDoc = `version: v1
root:
  tag: div
  key: page
  children:
    - tag: paragraph
      style: title
      text: Scores
    - tag: list
      key: row-a
      data: [1, 2]
    - tag: list
      key: row-b
      data: [{label: x, value: 3}]
    - tag: span
      key: footer
`

const testStyles = `version: v1
styles:
  title:
    font-weight: "700"
    color: "#000080"
`

// setup writes a project with arbor.yaml, a style sheet and a document and
// captures command output.
func setup(t *testing.T, cfg string) (dir string, out *bytes.Buffer) {
	t.Helper()
	dir = t.TempDir()
	write := func(name, content string) {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("arbor.yaml", cfg)
	write("styles.yaml", testStyles)
	write("page.yaml", testDoc)

	out = &bytes.Buffer{}
	prevOut, prevGlobals := stdout, globals
	stdout = out
	globals.configPath = filepath.Join(dir, "arbor.yaml")
	globals.logLevel = "error"
	globals.metricsAddr = ""
	t.Cleanup(func() {
		stdout, globals = prevOut, prevGlobals
	})
	return dir, out
}

// stripHandles drops the trailing handle from each tree line.
func stripHandles(s string) []string {
	var lines []string
	for _, line := range strings.Split(strings.TrimRight(s, "\n"), "\n") {
		if i := strings.LastIndex(line, " #"); i >= 0 {
			line = line[:i]
		}
		lines = append(lines, line)
	}
	return lines
}

func TestExecuteVersion(t *testing.T) {
	_, out := setup(t, "")
	if err := execute([]string{"--version"}); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.HasPrefix(out.String(), "arbor version 0.1.0-dev (engine v1.0.0") {
		t.Errorf("version output = %q", out)
	}
}

func TestExecuteHelp(t *testing.T) {
	_, out := setup(t, "")
	if err := execute(nil); err != nil {
		t.Fatalf("execute: %v", err)
	}
	for _, name := range []string{"dump", "query", "view"} {
		if !strings.Contains(out.String(), "  "+name) {
			t.Errorf("help does not list %s:\n%s", name, out)
		}
	}

	out.Reset()
	if err := execute([]string{"dump", "--help"}); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out.String(), "arbor dump <document>") {
		t.Errorf("command help = %q", out)
	}
}

func TestExecuteUnknownCommand(t *testing.T) {
	setup(t, "")
	if err := execute([]string{"plant"}); err == nil || !strings.Contains(err.Error(), "unknown command: plant") {
		t.Errorf("execute = %v", err)
	}
}

func TestExecuteGlobalFlagNeedsValue(t *testing.T) {
	setup(t, "")
	if err := execute([]string{"--config"}); err == nil {
		t.Error("expected error for --config without a value")
	}
}

func TestDumpTree(t *testing.T) {
	dir, out := setup(t, "styles: [styles.yaml]\n")
	if err := execute([]string{"dump", filepath.Join(dir, "page.yaml")}); err != nil {
		t.Fatalf("dump: %v", err)
	}
	want := []string{
		"div [page]",
		"  paragraph .title",
		`    "Scores"`,
		"  list [row-a]",
		`    "1"`,
		`    "2"`,
		"  list [row-b]",
		`    "x: 3"`,
		"  span [footer]",
	}
	if diff := cmp.Diff(want, stripHandles(out.String())); diff != "" {
		t.Errorf("dump mismatch (-want +got):\n%s", diff)
	}
	if strings.Contains(out.String(), "\x1b[") {
		t.Error("output to a buffer should not be colored")
	}
}

func TestDumpColorAlways(t *testing.T) {
	dir, out := setup(t, "styles: [styles.yaml]\n")
	if err := execute([]string{"dump", "--color", "always", filepath.Join(dir, "page.yaml")}); err != nil {
		t.Fatalf("dump: %v", err)
	}
	if !strings.Contains(out.String(), ansiKey+"[page]"+ansiReset) {
		t.Errorf("expected colored key in %q", out)
	}
}

func TestDumpYAML(t *testing.T) {
	dir, out := setup(t, "styles: [styles.yaml]\n")
	if err := execute([]string{"dump", "--format", "yaml", filepath.Join(dir, "page.yaml")}); err != nil {
		t.Fatalf("dump: %v", err)
	}
	doc, err := loader.Decode(out.Bytes())
	if err != nil {
		t.Fatalf("Decode: %v\n%s", err, out)
	}
	if doc.Root.Tag != "div" || doc.Root.Key != "page" || len(doc.Root.Children) != 4 {
		t.Errorf("decoded root = %+v", doc.Root)
	}
}

func TestDumpErrors(t *testing.T) {
	tests := []struct {
		name    string
		cfg     string
		args    func(dir string) []string
		wantErr string
	}{
		{"no document", "", func(string) []string { return []string{"dump"} }, "exactly one document"},
		{"bad format", "styles: [styles.yaml]\n", func(dir string) []string {
			return []string{"dump", "--format", "xml", filepath.Join(dir, "page.yaml")}
		}, "unknown format"},
		{"missing style", "", func(dir string) []string {
			return []string{"dump", filepath.Join(dir, "page.yaml")}
		}, "title"},
		{"bad config", "queue: {overflow: sideways}\n", func(dir string) []string {
			return []string{"dump", filepath.Join(dir, "page.yaml")}
		}, "failed to load config"},
		{"style flag needs value", "", func(string) []string { return []string{"dump", "--style"} }, "--style requires"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir, _ := setup(t, tt.cfg)
			err := execute(tt.args(dir))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("execute = %v, want error mentioning %q", err, tt.wantErr)
			}
		})
	}
}

func TestDumpStyleFlag(t *testing.T) {
	dir, out := setup(t, "")
	args := []string{"dump", "--style", filepath.Join(dir, "styles.yaml"), filepath.Join(dir, "page.yaml")}
	if err := execute(args); err != nil {
		t.Fatalf("dump: %v", err)
	}
	if !strings.Contains(out.String(), "paragraph .title") {
		t.Errorf("output = %q", out)
	}
}

func TestQuery(t *testing.T) {
	dir, out := setup(t, "styles: [styles.yaml]\n")
	if err := execute([]string{"query", filepath.Join(dir, "page.yaml"), "row-.*"}); err != nil {
		t.Fatalf("query: %v", err)
	}
	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines:\n%s", len(lines), out)
	}
	for i, key := range []string{"row-a", "row-b"} {
		if !strings.Contains(lines[i], "["+key+"]") || !strings.HasSuffix(lines[i], "\t/div/list") {
			t.Errorf("line %d = %q", i, lines[i])
		}
	}
}

func TestQueryFilters(t *testing.T) {
	dir, out := setup(t, "styles: [styles.yaml]\n")
	if err := execute([]string{"query", filepath.Join(dir, "page.yaml"), "*", "--tag", "text"}); err != nil {
		t.Fatalf("query: %v", err)
	}
	if n := strings.Count(out.String(), "\n"); n != 4 {
		t.Errorf("got %d text elements, want 4:\n%s", n, out)
	}

	out.Reset()
	if err := execute([]string{"query", filepath.Join(dir, "page.yaml"), "*", "--class", "title"}); err != nil {
		t.Fatalf("query: %v", err)
	}
	if !strings.HasSuffix(strings.TrimSpace(out.String()), "/div/paragraph") {
		t.Errorf("output = %q", out)
	}
}

func TestQueryInvalidPattern(t *testing.T) {
	dir, _ := setup(t, "styles: [styles.yaml]\n")
	if err := execute([]string{"query", filepath.Join(dir, "page.yaml"), "row-("}); err == nil {
		t.Error("expected error for an invalid pattern")
	}
}

func TestColorMode(t *testing.T) {
	var buf bytes.Buffer
	tests := []struct {
		mode    string
		want    bool
		wantErr bool
	}{
		{"auto", false, false},
		{"always", true, false},
		{"never", false, false},
		{"rainbow", false, true},
	}
	for _, tt := range tests {
		got, err := colorMode(tt.mode, &buf)
		if got != tt.want || (err != nil) != tt.wantErr {
			t.Errorf("colorMode(%q) = %v, %v", tt.mode, got, err)
		}
	}
}
