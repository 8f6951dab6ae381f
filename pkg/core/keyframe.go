// pkg/core/keyframe.go
package core

// Channel is an animated property of a scene instance. The values mirror the
// renderer's data paths.
type Channel string

const (
	// ChannelPosition carries target-convention locations.
	ChannelPosition Channel = "location"
	// ChannelOrientation carries Euler rotations; only the Z (yaw) slot is used.
	ChannelOrientation Channel = "rotation_euler"
)

// Channels lists every channel in export order.
var Channels = []Channel{ChannelPosition, ChannelOrientation}

// Keyframe is one (frame, value) pair on one channel of one entity.
type Keyframe struct {
	Entity  AgentID    `json:"entity"`
	Channel Channel    `json:"channel"`
	Frame   int        `json:"frame"`
	Value   [3]float64 `json:"value"`
}

// Heading returns the yaw stored in an orientation keyframe.
func (k Keyframe) Heading() float64 {
	return k.Value[2]
}

// Position returns the location stored in a position keyframe.
func (k Keyframe) Position() TargetVector {
	return TargetVector{X: k.Value[0], Y: k.Value[1], Z: k.Value[2]}
}

// YawEuler builds an orientation value rotating only around the up axis.
func YawEuler(heading float64) [3]float64 {
	return [3]float64{0, 0, heading}
}
