package geo

import (
	"math"

	"github.com/cellbots/replay/pkg/core"
)

// AXES
// The simulation log is Y-up: x is east, y is height, z is depth.
// The renderer is Z-up: x is east, y is depth, z is height.
// Positions, directions and orbit centers all cross over through ToTarget.

// ToTarget swaps the log's vertical and depth axes: (x, y, z) -> (x, z, y).
func ToTarget(v core.SourceVector) core.TargetVector {
	return core.TargetVector{X: v.X, Y: v.Z, Z: v.Y}
}

// Heading returns the yaw of a direction vector in radians, measured in the
// log's horizontal plane as atan2(z, x).
//
// A zero vector yields atan2(0, 0) = 0. That case is not special-cased.
func Heading(direction core.SourceVector) float64 {
	return math.Atan2(direction.Z, direction.X)
}
