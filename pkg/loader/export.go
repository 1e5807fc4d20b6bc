package loader

import (
	"gopkg.in/yaml.v3"

	"github.com/go-drift/arbor/pkg/core"
)

// FromElement describes e's subtree as a document node. Text leaves keep
// their text; bound data and non-textual attributes are not exported.
func FromElement(e *core.Element) *Node {
	n := &Node{Tag: e.Tag(), Key: e.Key()}
	if e.Tag() == core.TextTag {
		n.Text = e.Text()
	}
	for _, s := range e.Styles() {
		n.Style = append(n.Style, s.Name())
	}
	for c := range e.All() {
		n.Children = append(n.Children, FromElement(c))
	}
	return n
}

// Marshal encodes e's subtree as a YAML document.
func Marshal(e *core.Element) ([]byte, error) {
	return yaml.Marshal(&Document{Version: "v1", Root: FromElement(e)})
}
