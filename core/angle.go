package core

import "math"

// Angle is a rotation in radians, positive is clockwise
// Zero faces north
type Angle float64

// Degrees converts a value in degrees to an Angle
func Degrees(deg float64) Angle {
	return Angle(deg * math.Pi / 180)
}

// QuarterTurns returns the rotation rounded to the nearest quarter turn, normalized to [0,3]
func (a Angle) QuarterTurns() int {
	k := int(math.Round(float64(a) / (math.Pi / 2)))
	return ((k % 4) + 4) % 4
}

// CardinalDir returns the cardinal direction the rotation faces
func (a Angle) CardinalDir() Direction {
	return Cardinals[a.QuarterTurns()]
}

// Facing returns the rotation that faces d, zero for DirNone
func Facing(d Direction) Angle {
	if d == DirNone {
		return 0
	}
	return Degrees(90 * float64(d-DirNorth))
}
