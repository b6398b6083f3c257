package network

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/lixenwraith/dockbridge/core"
)

// Kind is the closed set of resource network kinds that can be bridged
type Kind uint8

const (
	KindInvalid Kind = iota
	KindPipe
	KindCable
)

func (k Kind) String() string {
	switch k {
	case KindPipe:
		return "pipe"
	case KindCable:
		return "cable"
	}
	return "invalid"
}

// ParseKind resolves a kind by its lowercase name
func ParseKind(s string) (Kind, bool) {
	switch strings.ToLower(s) {
	case "pipe":
		return KindPipe, true
	case "cable":
		return KindCable, true
	}
	return KindInvalid, false
}

// GroupID is the static compatibility tag of a node, e.g. "atmos-A" or "hv"
type GroupID string

// NetID identifies the connected component a node currently belongs to
// Assigned by the external graph engine, zero means unassigned
type NetID uint64

// NodeRef addresses a node by owning entity and its name inside the owner's container
type NodeRef struct {
	Owner core.Entity
	Name  string
}

func (r NodeRef) String() string {
	return fmt.Sprintf("%d/%s", r.Owner, r.Name)
}

// CompareRefs orders refs by owner then name
func CompareRefs(a, b NodeRef) int {
	if c := cmp.Compare(a.Owner, b.Owner); c != 0 {
		return c
	}
	return cmp.Compare(a.Name, b.Name)
}

// Node is a vertex of a resource network attached to an entity
// The always-reachable edge set lives on the node and is written only by Ledger
type Node struct {
	Ref        NodeRef
	Kind       Kind
	Group      GroupID
	Net        NetID
	Layer      int
	Directions core.DirectionMask
	Deleting   bool

	reachable map[NodeRef]struct{}
}

// NewNode creates a node with an empty edge set
func NewNode(ref NodeRef, kind Kind, group GroupID, layer int, dirs core.DirectionMask) *Node {
	return &Node{
		Ref:        ref,
		Kind:       kind,
		Group:      group,
		Layer:      layer,
		Directions: dirs,
	}
}

// ReachableCount returns the number of recorded partners, including dangling ones
func (n *Node) ReachableCount() int {
	return len(n.reachable)
}

// Partners returns the raw recorded partner refs in ref order
func (n *Node) Partners() []NodeRef {
	refs := make([]NodeRef, 0, len(n.reachable))
	for ref := range n.reachable {
		refs = append(refs, ref)
	}
	slices.SortFunc(refs, CompareRefs)
	return refs
}

func (n *Node) String() string {
	return fmt.Sprintf("%s %s group=%s layer=%d dir=%s", n.Ref, n.Kind, n.Group, n.Layer, n.Directions)
}

func (n *Node) has(ref NodeRef) bool {
	_, ok := n.reachable[ref]
	return ok
}

func (n *Node) add(ref NodeRef) {
	if n.reachable == nil {
		n.reachable = make(map[NodeRef]struct{}, 2)
	}
	n.reachable[ref] = struct{}{}
}

func (n *Node) remove(ref NodeRef) bool {
	if _, ok := n.reachable[ref]; !ok {
		return false
	}
	delete(n.reachable, ref)
	return true
}
