package component

import "github.com/lixenwraith/dockbridge/core"

// TransformComponent places an entity on a grid in grid-local space
type TransformComponent struct {
	// Grid is the parent grid entity, zero when free floating
	Grid core.Entity

	// Local is the grid-local position, tile (x, y) spans [x, x+1) x [y, y+1)
	Local core.Vec2

	// Rotation is the local rotation relative to the grid
	// For docks this determines the facing
	Rotation core.Angle

	// Anchored marks the entity as fixed to its tile
	Anchored bool
}
