// Package loader builds element trees from YAML documents.
//
// A document names a schema version and a root node. Each node has a tag
// resolved through the arena's factory registry, optional key, text,
// style references, attributes, data records and children:
//
//	version: v1
//	root:
//	  tag: div
//	  key: root
//	  children:
//	    - tag: paragraph
//	      style: title
//	      text: Hello
//	    - tag: list
//	      key: scores
//	      attrs:
//	        color: "#336699"
//	      data: [3, 5, 8]
//	    - tag: list
//	      data:
//	        - {label: cpu, value: 0.5}
//
// Scalar data records bind as strings; label/value records bind as
// core.Pair and render as "label: value".
package loader

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Document is a decoded YAML document.
type Document struct {
	Version string `yaml:"version,omitempty"`
	Root    *Node  `yaml:"root"`
}

// Node describes one element.
type Node struct {
	Tag      string            `yaml:"tag"`
	Key      string            `yaml:"key,omitempty"`
	Text     string            `yaml:"text,omitempty"`
	Style    Names             `yaml:"style,omitempty"`
	Attrs    map[string]string `yaml:"attrs,omitempty"`
	Data     []yaml.Node       `yaml:"data,omitempty"`
	Children []*Node           `yaml:"children,omitempty"`

	// Line is the source line of the node, when decoded.
	Line int `yaml:"-"`
}

var nodeFields = map[string]bool{
	"tag": true, "key": true, "text": true, "style": true,
	"attrs": true, "data": true, "children": true,
}

// UnmarshalYAML rejects unknown fields and records the node's source line.
func (n *Node) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: node must be a mapping", value.Line)
	}
	for i := 0; i < len(value.Content); i += 2 {
		k := value.Content[i]
		if !nodeFields[k.Value] {
			return fmt.Errorf("line %d: unknown node field %q", k.Line, k.Value)
		}
	}
	type plain Node
	if err := value.Decode((*plain)(n)); err != nil {
		return err
	}
	n.Line = value.Line
	return nil
}

// Names is a list of style names written either as a single scalar or as
// a sequence.
type Names []string

// UnmarshalYAML accepts a scalar or a sequence of scalars.
func (s *Names) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*s = Names{value.Value}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := value.Decode(&list); err != nil {
			return err
		}
		*s = list
		return nil
	}
	return fmt.Errorf("line %d: style must be a name or a list of names", value.Line)
}

// MarshalYAML writes a single name as a scalar.
func (s Names) MarshalYAML() (any, error) {
	if len(s) == 1 {
		return s[0], nil
	}
	return []string(s), nil
}
