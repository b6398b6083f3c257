package bridge

import (
	"github.com/lixenwraith/dockbridge/core"
	"github.com/lixenwraith/dockbridge/engine"
	"github.com/lixenwraith/dockbridge/network"
)

// Candidate is a node found on a tile together with its owner's grid-local position
type Candidate struct {
	Node  *network.Node
	Owner core.Entity
	Pos   core.Vec2
}

// NodeIndex enumerates network nodes anchored on grid tiles
type NodeIndex struct {
	world *engine.World
}

// NewNodeIndex creates an index over the world's anchored entities
func NewNodeIndex(world *engine.World) *NodeIndex {
	return &NodeIndex{world: world}
}

// NodesAtTile returns the nodes of entities anchored at (grid, tile), ordered by owner then name
// Unknown grids, unanchored owners and owners without nodes yield nothing
func (x *NodeIndex) NodesAtTile(grid core.Entity, tile core.Tile) []Candidate {
	if grid.IsNull() || !x.world.Components.Grid.HasEntity(grid) {
		return nil
	}

	var out []Candidate
	for _, e := range x.world.AnchoredEntitiesAtTile(grid, tile) {
		tr, ok := x.world.Components.Transform.GetComponent(e)
		if !ok || !tr.Anchored || tr.Grid != grid {
			continue
		}
		for _, n := range x.world.NodesOf(e) {
			out = append(out, Candidate{Node: n, Owner: e, Pos: tr.Local})
		}
	}
	return out
}
