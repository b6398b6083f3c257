package component

import (
	"slices"
	"strings"

	"github.com/lixenwraith/dockbridge/network"
)

// NodeContainerComponent holds the network nodes an entity owns, sorted by name
type NodeContainerComponent struct {
	Nodes []*network.Node
}

// NewNodeContainer builds a container, nodes are sorted by name
func NewNodeContainer(nodes ...*network.Node) NodeContainerComponent {
	sorted := slices.Clone(nodes)
	slices.SortFunc(sorted, func(a, b *network.Node) int {
		return strings.Compare(a.Ref.Name, b.Ref.Name)
	})
	return NodeContainerComponent{Nodes: sorted}
}

// Node returns the node with the given name
func (c NodeContainerComponent) Node(name string) (*network.Node, bool) {
	i, found := slices.BinarySearchFunc(c.Nodes, name, func(n *network.Node, name string) int {
		return strings.Compare(n.Ref.Name, name)
	})
	if !found {
		return nil, false
	}
	return c.Nodes[i], true
}
