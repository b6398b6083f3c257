package core

import "strings"

// Direction is a cardinal direction on a grid
type Direction uint8

const (
	DirNone Direction = iota
	DirNorth
	DirEast
	DirSouth
	DirWest
)

// Cardinals lists the four cardinal directions in clockwise order starting north
var Cardinals = [4]Direction{DirNorth, DirEast, DirSouth, DirWest}

// Opposite returns the direction rotated by a half turn
func (d Direction) Opposite() Direction {
	switch d {
	case DirNorth:
		return DirSouth
	case DirEast:
		return DirWest
	case DirSouth:
		return DirNorth
	case DirWest:
		return DirEast
	}
	return DirNone
}

// Mask returns the single-bit mask for d, zero for DirNone
func (d Direction) Mask() DirectionMask {
	switch d {
	case DirNorth:
		return MaskNorth
	case DirEast:
		return MaskEast
	case DirSouth:
		return MaskSouth
	case DirWest:
		return MaskWest
	}
	return MaskNone
}

// Offset returns the tile delta of one step along d
// North is +Y, east is +X
func (d Direction) Offset() (dx, dy int) {
	switch d {
	case DirNorth:
		return 0, 1
	case DirEast:
		return 1, 0
	case DirSouth:
		return 0, -1
	case DirWest:
		return -1, 0
	}
	return 0, 0
}

func (d Direction) String() string {
	switch d {
	case DirNorth:
		return "North"
	case DirEast:
		return "East"
	case DirSouth:
		return "South"
	case DirWest:
		return "West"
	}
	return "None"
}

// DirectionMask is a set of cardinal directions a node can connect toward
type DirectionMask uint8

const (
	MaskNone  DirectionMask = 0
	MaskNorth DirectionMask = 1 << 0
	MaskEast  DirectionMask = 1 << 1
	MaskSouth DirectionMask = 1 << 2
	MaskWest  DirectionMask = 1 << 3
	MaskAll   DirectionMask = MaskNorth | MaskEast | MaskSouth | MaskWest
)

// Has checks if the mask includes direction d
func (m DirectionMask) Has(d Direction) bool {
	bit := d.Mask()
	return bit != 0 && m&bit == bit
}

// String renders the mask as a compact letter set, e.g. "NS" or "-"
func (m DirectionMask) String() string {
	if m == MaskNone {
		return "-"
	}
	var b strings.Builder
	for _, d := range Cardinals {
		if m.Has(d) {
			b.WriteByte(d.String()[0])
		}
	}
	return b.String()
}

// ParseDirectionMask parses a letter set such as "NE" or "all"
// Unknown letters are ignored
func ParseDirectionMask(s string) DirectionMask {
	if strings.EqualFold(s, "all") {
		return MaskAll
	}
	var m DirectionMask
	for _, r := range strings.ToUpper(s) {
		switch r {
		case 'N':
			m |= MaskNorth
		case 'E':
			m |= MaskEast
		case 'S':
			m |= MaskSouth
		case 'W':
			m |= MaskWest
		}
	}
	return m
}
