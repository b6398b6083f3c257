package component

import "github.com/lixenwraith/dockbridge/core"

// GridComponent marks an entity as a movable tile grid
type GridComponent struct {
	Name string

	// Rotation is the grid's world rotation, quarter turns drive visual layers
	Rotation core.Angle
}
