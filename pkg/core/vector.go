// pkg/core/vector.go
package core

// Convention names the axis layout a vector is expressed in.
type Convention string

const (
	// ConventionSource is the simulation log layout: Y is up, Z is depth.
	ConventionSource Convention = "source-y-up"
	// ConventionTarget is the renderer layout: Z is up, Y is depth.
	ConventionTarget Convention = "target-z-up"
)

// SourceVector is a point or direction as written by the simulation log.
// Directions are serialized with vx/vy/vz keys, points with x/y/z.
type SourceVector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// TargetVector is a point or direction in the renderer's Z-up convention.
// The only way to obtain one from log data is geo.ToTarget.
type TargetVector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Array returns the components as a fixed-size array, in X, Y, Z order.
func (v TargetVector) Array() [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}

// Sub returns v - o.
func (v TargetVector) Sub(o TargetVector) TargetVector {
	return TargetVector{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

// Add returns v + o.
func (v TargetVector) Add(o TargetVector) TargetVector {
	return TargetVector{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}
