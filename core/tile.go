package core

import "fmt"

// Tile is an integer tile coordinate local to one grid
// Grids are unbounded so coordinates may be negative
type Tile struct {
	X, Y int
}

// Offset returns the neighboring tile one step along d
func (t Tile) Offset(d Direction) Tile {
	dx, dy := d.Offset()
	return Tile{X: t.X + dx, Y: t.Y + dy}
}

func (t Tile) String() string {
	return fmt.Sprintf("(%d,%d)", t.X, t.Y)
}
