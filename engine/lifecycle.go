package engine

import (
	"github.com/lixenwraith/dockbridge/component"
	"github.com/lixenwraith/dockbridge/core"
	"github.com/lixenwraith/dockbridge/event"
	"github.com/lixenwraith/dockbridge/network"
)

// Stand-ins for the construction and docking subsystems
// They mutate components and emit the lifecycle events those subsystems would

// CreateGrid spawns a grid entity
func (w *World) CreateGrid(name string, rotation core.Angle) core.Entity {
	e := w.CreateEntity()
	w.Components.Grid.SetComponent(e, component.GridComponent{Name: name, Rotation: rotation})
	return e
}

// SetGridRotation turns a grid, returns false for unknown grids
func (w *World) SetGridRotation(grid core.Entity, rotation core.Angle) bool {
	return w.Components.Grid.UpdateComponent(grid, func(g *component.GridComponent) {
		g.Rotation = rotation
	})
}

// Place sets the transform of e, an anchored entity is re-indexed at its new tile
func (w *World) Place(e, grid core.Entity, pos core.Vec2, rotation core.Angle) {
	tr, _ := w.Components.Transform.GetComponent(e)
	tr.Grid = grid
	tr.Local = pos
	tr.Rotation = rotation
	w.Components.Transform.SetComponent(e, tr)

	if tr.Anchored {
		w.Tiles.Add(e, grid, w.TileIndexFor(grid, pos))
	}
}

// AttachNodes gives e its network nodes, refs are rewritten to point at e
func (w *World) AttachNodes(e core.Entity, nodes ...*network.Node) {
	for _, n := range nodes {
		n.Ref.Owner = e
	}
	w.Components.Nodes.SetComponent(e, component.NewNodeContainer(nodes...))
}

// Anchor fixes e to its current tile and announces it if e carries nodes
// Returns false if e is not placed on a known grid
func (w *World) Anchor(e core.Entity) bool {
	tr, ok := w.Components.Transform.GetComponent(e)
	if !ok || !w.Components.Grid.HasEntity(tr.Grid) {
		return false
	}
	tr.Anchored = true
	w.Components.Transform.SetComponent(e, tr)
	w.Tiles.Add(e, tr.Grid, w.TileIndexFor(tr.Grid, tr.Local))

	if w.Components.Nodes.HasEntity(e) {
		w.emitEntity(event.EventNodeAnchored, e)
	}
	return true
}

// Unanchor frees e from its tile and announces it if e carries nodes
func (w *World) Unanchor(e core.Entity) bool {
	ok := w.Components.Transform.UpdateComponent(e, func(tr *component.TransformComponent) {
		tr.Anchored = false
	})
	if !ok {
		return false
	}
	w.Tiles.Remove(e)

	if w.Components.Nodes.HasEntity(e) {
		w.emitEntity(event.EventNodeUnanchored, e)
	}
	return true
}

// AddDock turns e into an undocked dock port
func (w *World) AddDock(e core.Entity) {
	w.Components.Dock.SetComponent(e, component.DockComponent{})
}

// DockPair joins two free docks and announces the pair
func (w *World) DockPair(a, b core.Entity) bool {
	if a == b {
		return false
	}
	da, okA := w.Components.Dock.GetComponent(a)
	db, okB := w.Components.Dock.GetComponent(b)
	if !okA || !okB || da.Docked() || db.Docked() {
		return false
	}
	w.Components.Dock.SetComponent(a, component.DockComponent{DockedWith: b})
	w.Components.Dock.SetComponent(b, component.DockComponent{DockedWith: a})
	w.emitDock(event.EventDockFormed, a, b)
	return true
}

// UndockPair separates a from its partner and announces the pair
// Both docks keep their transform so the event still sees the last tile and facing
func (w *World) UndockPair(a core.Entity) bool {
	da, ok := w.Components.Dock.GetComponent(a)
	if !ok || !da.Docked() {
		return false
	}
	b := da.DockedWith
	w.Components.Dock.SetComponent(a, component.DockComponent{})
	w.Components.Dock.UpdateComponent(b, func(d *component.DockComponent) {
		if d.DockedWith == a {
			d.DockedWith = 0
		}
	})
	w.emitDock(event.EventDockBroken, a, b)
	return true
}

// DockPartner returns the entity a dock is joined with
func (w *World) DockPartner(dock core.Entity) (core.Entity, bool) {
	d, ok := w.Components.Dock.GetComponent(dock)
	if !ok || !d.Docked() {
		return 0, false
	}
	return d.DockedWith, true
}

// MutuallyDocked reports whether a and b point at each other
func (w *World) MutuallyDocked(a, b core.Entity) bool {
	pa, okA := w.DockPartner(a)
	pb, okB := w.DockPartner(b)
	return okA && okB && pa == b && pb == a
}
