package main

import (
	"github.com/lixenwraith/dockbridge/core"
	"github.com/lixenwraith/dockbridge/network"
	"github.com/lixenwraith/dockbridge/scenario"
)

const panelGap = 3

// panel is one grid's bounding box placed left to right in a shared cell space
type panel struct {
	grid     core.Entity
	name     string
	min, max core.Tile
	offset   int
}

func (p panel) width() int  { return p.max.X - p.min.X + 1 }
func (p panel) height() int { return p.max.Y - p.min.Y + 1 }

// layout maps every placed entity to a cell, north up
type layout struct {
	panels []panel
	rows   int
	cols   int
}

// mark is a drawable entity at a cell
type mark struct {
	entity core.Entity
	col    int
	row    int
	dock   bool
	facing core.Direction
	docked bool
	kind   network.Kind
	linked bool
}

// link is one live edge between two cells
type link struct {
	from, to [2]int
	kind     network.Kind
}

func newLayout(r *scenario.Runner) *layout {
	l := &layout{}
	for i, g := range r.Grids() {
		p := panel{grid: g, name: r.Scenario.Grids[i].Name, min: core.Tile{X: 0, Y: 0}, max: core.Tile{X: 0, Y: 0}}
		first := true
		for _, e := range placed(r) {
			grid, tile, ok := r.World.TileOf(e)
			if !ok || grid != g {
				continue
			}
			if first {
				p.min, p.max = tile, tile
				first = false
			}
			p.min = core.Tile{X: min(p.min.X, tile.X-1), Y: min(p.min.Y, tile.Y-1)}
			p.max = core.Tile{X: max(p.max.X, tile.X+1), Y: max(p.max.Y, tile.Y+1)}
		}
		p.offset = l.cols
		l.cols += p.width() + panelGap
		l.rows = max(l.rows, p.height())
		l.panels = append(l.panels, p)
	}
	return l
}

// placed returns live docks and node owners
func placed(r *scenario.Runner) []core.Entity {
	entities := r.World.Components.Dock.GetAllEntities()
	return append(entities, r.World.Components.Nodes.GetAllEntities()...)
}

// cell returns the column and row of e
func (l *layout) cell(r *scenario.Runner, e core.Entity) (int, int, bool) {
	grid, tile, ok := r.World.TileOf(e)
	if !ok {
		return 0, 0, false
	}
	for _, p := range l.panels {
		if p.grid == grid {
			return p.offset + tile.X - p.min.X, p.max.Y - tile.Y, true
		}
	}
	return 0, 0, false
}

// marks collects docks and node owners with their display state
func (l *layout) marks(r *scenario.Runner) []mark {
	w := r.World
	var out []mark
	for _, e := range w.Components.Dock.GetAllEntities() {
		col, row, ok := l.cell(r, e)
		if !ok {
			continue
		}
		site, _ := r.System.Matcher().Site(e)
		_, docked := w.DockPartner(e)
		out = append(out, mark{entity: e, col: col, row: row, dock: true, facing: site.Facing, docked: docked})
	}
	for _, e := range w.Components.Nodes.GetAllEntities() {
		col, row, ok := l.cell(r, e)
		if !ok {
			continue
		}
		m := mark{entity: e, col: col, row: row}
		for _, n := range w.NodesOf(e) {
			m.kind = n.Kind
			if len(r.System.Ledger().EdgesOf(n)) > 0 {
				m.linked = true
			}
		}
		out = append(out, m)
	}
	return out
}

// links collects every live edge once
func (l *layout) links(r *scenario.Runner) []link {
	var out []link
	ledger := r.System.Ledger()
	for _, n := range r.World.AllNodes() {
		for _, p := range ledger.EdgesOf(n) {
			if network.CompareRefs(n.Ref, p.Ref) > 0 {
				continue
			}
			c1, r1, ok1 := l.cell(r, n.Ref.Owner)
			c2, r2, ok2 := l.cell(r, p.Ref.Owner)
			if !ok1 || !ok2 {
				continue
			}
			out = append(out, link{from: [2]int{c1, r1}, to: [2]int{c2, r2}, kind: n.Kind})
		}
	}
	return out
}

func facingGlyph(d core.Direction) rune {
	switch d {
	case core.DirNorth:
		return '^'
	case core.DirEast:
		return '>'
	case core.DirSouth:
		return 'v'
	case core.DirWest:
		return '<'
	}
	return '*'
}
