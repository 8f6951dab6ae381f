package geo

import (
	"fmt"

	"github.com/cellbots/replay/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
)

// PathFromKeyframes builds a LineString (XYZ) through the values of a
// position curve, in frame order. Fewer than two distinct points yield an
// empty LineString. Non-finite coordinates are rejected.
func PathFromKeyframes(curve []core.Keyframe) (geom.LineString, error) {
	flat := make([]float64, 0, len(curve)*3)
	var last [3]float64
	for i, k := range curve {
		if i > 0 && k.Value == last {
			continue
		}
		flat = append(flat, k.Value[0], k.Value[1], k.Value[2])
		last = k.Value
	}
	if len(flat) < 6 {
		return geom.LineString{}, nil
	}
	ls, err := geom.NewLineString(geom.NewSequence(flat, geom.DimXYZ))
	if err != nil {
		return geom.LineString{}, fmt.Errorf("build path: %w", err)
	}
	return ls, nil
}

// GroundDistance returns the length of a path projected onto the ground
// plane (target X/Y).
func GroundDistance(path geom.LineString) float64 {
	if path.IsEmpty() {
		return 0
	}
	return path.Length()
}
