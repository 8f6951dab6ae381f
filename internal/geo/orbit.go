package geo

import (
	"github.com/cellbots/replay/pkg/core"
	"gonum.org/v1/gonum/spatial/r3"
)

var up = r3.Vec{Z: 1}

// Orbit describes uniform circular motion about a fixed center, in target
// convention. The radius is |From - Center| and stays constant.
type Orbit struct {
	Center    core.TargetVector
	From      core.TargetVector
	AngleFrom float64
	AngleTo   float64
}

// Sample is one pre-computed point on an orbit.
type Sample struct {
	T        float64
	Position core.TargetVector
	Heading  float64
}

// At returns the orbit sample at parameter t in [0,1]. The position is From
// rotated about the up axis through Center by the swept angle; the heading
// interpolates linearly and does not depend on the sweep.
func (o Orbit) At(t float64) Sample {
	current := o.AngleFrom + t*(o.AngleTo-o.AngleFrom)

	rel := toVec(o.From.Sub(o.Center))
	rot := r3.NewRotation(current-o.AngleFrom, up)
	pos := o.Center.Add(fromVec(rot.Rotate(rel)))

	return Sample{
		T:        t,
		Position: pos,
		Heading:  o.AngleFrom*(1-t) + o.AngleTo*t,
	}
}

// Samples returns steps+1 evenly spaced samples including both endpoints.
// steps below 1 is treated as 1.
func (o Orbit) Samples(steps int) []Sample {
	if steps < 1 {
		steps = 1
	}
	out := make([]Sample, 0, steps+1)
	for i := 0; i <= steps; i++ {
		out = append(out, o.At(float64(i)/float64(steps)))
	}
	return out
}

func toVec(v core.TargetVector) r3.Vec {
	return r3.Vec{X: v.X, Y: v.Y, Z: v.Z}
}

func fromVec(v r3.Vec) core.TargetVector {
	return core.TargetVector{X: v.X, Y: v.Y, Z: v.Z}
}
