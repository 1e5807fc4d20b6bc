package loader

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strconv"

	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"

	"github.com/go-drift/arbor/pkg/attr"
	"github.com/go-drift/arbor/pkg/core"
	"github.com/go-drift/arbor/pkg/errors"
)

// SchemaVersion is the newest document schema this package reads.
const SchemaVersion = "v1.0.0"

// Option configures loading.
type Option func(*options)

type options struct {
	strict bool
}

// Strict makes tags without a registered factory an error instead of
// falling back to plain elements.
func Strict() Option {
	return func(o *options) { o.strict = true }
}

// Decode parses a document without building it.
func Decode(data []byte) (*Document, error) {
	const op = "loader.Decode"
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if stderrors.Is(err, io.EOF) {
			return nil, errors.New(op, errors.KindConfig, "empty document")
		}
		return nil, errors.Wrap(op, errors.KindConfig, err)
	}
	if err := checkVersion(doc.Version); err != nil {
		return nil, err
	}
	if doc.Root == nil {
		return nil, errors.New(op, errors.KindConfig, "document has no root")
	}
	return &doc, nil
}

func checkVersion(v string) error {
	if v == "" {
		return nil
	}
	if v[0] != 'v' {
		v = "v" + v
	}
	if !semver.IsValid(v) || semver.Major(v) != semver.Major(SchemaVersion) || semver.Compare(v, SchemaVersion) > 0 {
		return errors.New("loader.Decode", errors.KindConfig, "unsupported document version %q (reader is %s)", v, SchemaVersion)
	}
	return nil
}

// Parse decodes data and builds its tree in a.
func Parse(a *core.Arena, data []byte, opts ...Option) (*core.Element, error) {
	doc, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return doc.Build(a, opts...)
}

// Load reads a document from r and builds its tree in a.
func Load(a *core.Arena, r io.Reader, opts ...Option) (*core.Element, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Parse(a, data, opts...)
}

// LoadFile reads the document at path and builds its tree in a.
func LoadFile(a *core.Arena, path string, opts ...Option) (*core.Element, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	root, err := Parse(a, data, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return root, nil
}

// Build creates the document's tree in a and returns its root, which is
// left unattached. On failure every element built so far is disposed.
func (d *Document) Build(a *core.Arena, opts ...Option) (*core.Element, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	b := &builder{arena: a, opts: o}
	root, err := b.build(d.Root)
	if err != nil {
		if root != nil {
			_ = a.Dispose(root)
		}
		return nil, err
	}
	a.Logger().Debug("document loaded", slog.String("root", root.String()), slog.Int("elements", b.count))
	return root, nil
}

type builder struct {
	arena *core.Arena
	opts  options
	count int
}

// build creates n and its subtree. On error the partially built element is
// returned alongside the error so the caller can dispose it.
func (b *builder) build(n *Node) (*core.Element, error) {
	const op = "loader.Build"
	if n == nil || n.Tag == "" {
		line := 0
		if n != nil {
			line = n.Line
		}
		return nil, errors.New(op, errors.KindConfig, "line %d: node has no tag", line)
	}
	if b.opts.strict {
		if _, err := b.arena.Factories().Lookup(n.Tag); err != nil {
			return nil, b.wrap(n, err)
		}
	}

	attrs, err := b.attrs(n)
	if err != nil {
		return nil, b.wrap(n, err)
	}
	e, err := b.arena.Build(n.Tag, attrs...)
	if e != nil {
		b.count++
	}
	if err != nil {
		return e, b.wrap(n, err)
	}

	for _, c := range n.Children {
		child, err := b.build(c)
		if child != nil {
			if linkErr := e.AppendChild(child); linkErr != nil {
				_ = b.arena.Dispose(child)
				return e, b.wrap(c, linkErr)
			}
		}
		if err != nil {
			return e, err
		}
	}
	return e, nil
}

func (b *builder) wrap(n *Node, err error) error {
	return &errors.Error{Op: "loader.Build", Kind: errors.KindConfig, Key: n.Key, Err: fmt.Errorf("line %d: <%s>: %w", n.Line, n.Tag, err)}
}

// attrs turns a node's fields into SetAttribute values.
func (b *builder) attrs(n *Node) ([]any, error) {
	var out []any
	if n.Key != "" {
		out = append(out, core.Key(n.Key))
	}
	for _, s := range n.Style {
		out = append(out, core.StyleRef(s))
	}
	names := make([]string, 0, len(n.Attrs))
	for name := range n.Attrs {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		v, err := attr.Parse(name, n.Attrs[name])
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if n.Text != "" && len(n.Data) > 0 {
		return nil, fmt.Errorf("text and data are mutually exclusive")
	}
	if n.Text != "" {
		out = append(out, core.Text(n.Text))
	}
	if len(n.Data) > 0 {
		records, err := decodeRecords(n.Data)
		if err != nil {
			return nil, err
		}
		out = append(out, records)
	}
	return out, nil
}

// decodeRecords returns []string for scalar records or []core.Pair for
// label/value mappings. Mixing the two is an error.
func decodeRecords(nodes []yaml.Node) (any, error) {
	switch nodes[0].Kind {
	case yaml.ScalarNode:
		out := make([]string, len(nodes))
		for i, n := range nodes {
			if n.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: data mixes scalars and records", n.Line)
			}
			out[i] = n.Value
		}
		return out, nil
	case yaml.MappingNode:
		out := make([]core.Pair, len(nodes))
		for i, n := range nodes {
			if n.Kind != yaml.MappingNode {
				return nil, fmt.Errorf("line %d: data mixes scalars and records", n.Line)
			}
			var rec struct {
				Label string `yaml:"label"`
				Value string `yaml:"value"`
			}
			if err := n.Decode(&rec); err != nil {
				return nil, err
			}
			v, err := strconv.ParseFloat(rec.Value, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: record value %q is not a number", n.Line, rec.Value)
			}
			out[i] = core.Pair{Label: rec.Label, Value: v}
		}
		return out, nil
	}
	return nil, fmt.Errorf("line %d: data records must be scalars or label/value mappings", nodes[0].Line)
}
