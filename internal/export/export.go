// Package export dumps a panel subtree as YAML.
package export

import (
	"context"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/jask/panels/internal/paneltype"
	"github.com/jask/panels/internal/view"
)

// Node is one occurrence in an exported tree.
type Node struct {
	ID    string         `yaml:"id"`
	Type  string         `yaml:"type"`
	Attrs map[string]any `yaml:"attrs,omitempty"`
	// Truncated marks a repeated ancestor or the depth cap; its children are omitted.
	Truncated bool    `yaml:"truncated,omitempty"`
	Children  []Child `yaml:"children,omitempty"`
}

// Child places a node in a slot position of its parent.
type Child struct {
	Slot  string `yaml:"slot"`
	Index int    `yaml:"index"`
	Node  Node   `yaml:"node"`
}

// Tree materializes root the same way a view does and converts it.
func Tree(ctx context.Context, l view.Loader, types *paneltype.Registry, root string, maxDepth int) (Node, error) {
	inst, err := view.NewBuilder(l, types, maxDepth).Build(ctx, root)
	if err != nil {
		return Node{}, err
	}
	return fromInstance(inst), nil
}

func fromInstance(i *view.Instance) Node {
	n := Node{ID: i.ID, Type: i.Type, Truncated: i.Truncated}
	if len(i.Attrs) > 0 {
		n.Attrs = make(map[string]any, len(i.Attrs))
		for k, v := range i.Attrs {
			n.Attrs[k] = v
		}
	}
	for _, c := range i.Children() {
		k := c.Key()
		n.Children = append(n.Children, Child{Slot: k.Name, Index: k.Index, Node: fromInstance(c)})
	}
	return n
}

// YAML writes n to w.
func YAML(w io.Writer, n Node) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(n); err != nil {
		return err
	}
	return enc.Close()
}
