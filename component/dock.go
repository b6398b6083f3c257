package component

import "github.com/lixenwraith/dockbridge/core"

// DockComponent is a docking port anchored on a grid tile
// Facing derives from the owner's TransformComponent rotation
type DockComponent struct {
	// DockedWith is the partner dock, zero when undocked
	DockedWith core.Entity
}

// Docked reports whether the dock has a partner
func (d DockComponent) Docked() bool {
	return !d.DockedWith.IsNull()
}
