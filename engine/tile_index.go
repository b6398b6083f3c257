package engine

import (
	"slices"
	"sync"

	"github.com/lixenwraith/dockbridge/core"
)

type tileSlot struct {
	grid core.Entity
	tile core.Tile
}

// TileIndex maps anchored entities to grid tiles
// Sparse per grid, tiles may be negative; multiple entities per tile
type TileIndex struct {
	mu     sync.RWMutex
	grids  map[core.Entity]map[core.Tile][]core.Entity
	placed map[core.Entity]tileSlot // Reverse lookup for removal
}

// NewTileIndex creates an empty index
func NewTileIndex() *TileIndex {
	return &TileIndex{
		grids:  make(map[core.Entity]map[core.Tile][]core.Entity),
		placed: make(map[core.Entity]tileSlot),
	}
}

// Add anchors e at (grid, tile), moving it if already indexed
func (ti *TileIndex) Add(e core.Entity, grid core.Entity, tile core.Tile) {
	ti.mu.Lock()
	defer ti.mu.Unlock()

	ti.removeLocked(e)

	cells, ok := ti.grids[grid]
	if !ok {
		cells = make(map[core.Tile][]core.Entity)
		ti.grids[grid] = cells
	}
	cells[tile] = append(cells[tile], e)
	ti.placed[e] = tileSlot{grid: grid, tile: tile}
}

// Remove drops e from the index, no-op if absent
func (ti *TileIndex) Remove(e core.Entity) {
	ti.mu.Lock()
	defer ti.mu.Unlock()
	ti.removeLocked(e)
}

func (ti *TileIndex) removeLocked(e core.Entity) {
	slot, ok := ti.placed[e]
	if !ok {
		return
	}
	delete(ti.placed, e)

	cells := ti.grids[slot.grid]
	list := cells[slot.tile]
	for i, entity := range list {
		if entity == e {
			list[i] = list[len(list)-1]
			list = list[:len(list)-1]
			break
		}
	}
	if len(list) == 0 {
		delete(cells, slot.tile)
		if len(cells) == 0 {
			delete(ti.grids, slot.grid)
		}
		return
	}
	cells[slot.tile] = list
}

// At returns a sorted copy of entities anchored at (grid, tile)
func (ti *TileIndex) At(grid core.Entity, tile core.Tile) []core.Entity {
	ti.mu.RLock()
	list := slices.Clone(ti.grids[grid][tile])
	ti.mu.RUnlock()

	slices.Sort(list)
	return list
}
