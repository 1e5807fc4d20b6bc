// Package stylesheet loads named styles from YAML into a style registry.
//
// A style sheet names a schema version and maps style names to attribute
// maps; attribute names are those understood by attr.Parse:
//
//	version: v1
//	styles:
//	  title:
//	    color: "#222"
//	    font-size: 18pt
//	    font-weight: bold
//	  muted:
//	    color: "#888"
//
// Styles are defined in document order.
package stylesheet

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"

	"github.com/go-drift/arbor/pkg/attr"
	"github.com/go-drift/arbor/pkg/core"
	"github.com/go-drift/arbor/pkg/errors"
)

// SchemaVersion is the newest style sheet schema this package reads.
const SchemaVersion = "v1.0.0"

// LoadFile reads the style sheet at path into reg.
func LoadFile(path string, reg *core.StyleRegistry) ([]*core.Style, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	styles, err := Parse(data, reg)
	if err != nil {
		return styles, fmt.Errorf("%s: %w", path, err)
	}
	return styles, nil
}

// Load reads a style sheet from r into reg.
func Load(r io.Reader, reg *core.StyleRegistry) ([]*core.Style, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Parse(data, reg)
}

// Parse defines every style in data on reg and returns them in document
// order. Parsing stops at the first style that fails; styles defined
// before it stay registered.
func Parse(data []byte, reg *core.StyleRegistry) ([]*core.Style, error) {
	const op = "stylesheet.Parse"
	var doc yaml.Node
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil {
		if stderrors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, errors.Wrap(op, errors.KindConfig, err)
	}
	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return nil, configError(op, root, "", "style sheet must be a mapping")
	}

	var stylesNode *yaml.Node
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i], root.Content[i+1]
		switch key.Value {
		case "version":
			if err := checkVersion(val); err != nil {
				return nil, err
			}
		case "styles":
			stylesNode = val
		default:
			return nil, configError(op, key, key.Value, "unknown field")
		}
	}
	if stylesNode == nil {
		return nil, nil
	}
	if stylesNode.Kind != yaml.MappingNode {
		return nil, configError(op, stylesNode, "", "styles must be a mapping")
	}

	var out []*core.Style
	for i := 0; i+1 < len(stylesNode.Content); i += 2 {
		name, body := stylesNode.Content[i], stylesNode.Content[i+1]
		attrs, err := parseAttrs(body, name.Value)
		if err != nil {
			return out, err
		}
		s, err := reg.Define(name.Value, attrs...)
		if err != nil {
			return out, err
		}
		out = append(out, s)
	}
	return out, nil
}

func parseAttrs(body *yaml.Node, style string) ([]any, error) {
	const op = "stylesheet.Parse"
	if body.Kind != yaml.MappingNode {
		return nil, configError(op, body, style, "style body must be a mapping")
	}
	attrs := make([]any, 0, len(body.Content)/2)
	for i := 0; i+1 < len(body.Content); i += 2 {
		key, val := body.Content[i], body.Content[i+1]
		if val.Kind != yaml.ScalarNode {
			return nil, configError(op, val, style, fmt.Sprintf("attribute %q must be a scalar", key.Value))
		}
		v, err := attr.Parse(key.Value, val.Value)
		if err != nil {
			return nil, configError(op, key, style, err.Error())
		}
		attrs = append(attrs, v)
	}
	return attrs, nil
}

func checkVersion(n *yaml.Node) error {
	const op = "stylesheet.Parse"
	v := n.Value
	if v != "" && v[0] != 'v' {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return configError(op, n, "", fmt.Sprintf("version %q is not a semantic version", n.Value))
	}
	if semver.Major(v) != semver.Major(SchemaVersion) || semver.Compare(v, SchemaVersion) > 0 {
		return configError(op, n, "", fmt.Sprintf("unsupported style sheet version %s (reader is %s)", v, SchemaVersion))
	}
	return nil
}

func configError(op string, n *yaml.Node, key, msg string) error {
	return &errors.Error{Op: op, Kind: errors.KindConfig, Key: key, Err: fmt.Errorf("line %d: %s", n.Line, msg)}
}
