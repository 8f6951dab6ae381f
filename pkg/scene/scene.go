// Package scene defines the contract between the keyframe builder and the
// renderer that owns the actual objects. Adapters for a live 3D host
// implement Scene; the in-process timeline.Timeline is the default one.
package scene

import "github.com/cellbots/replay/pkg/core"

// Handle refers to one renderable instance created by a Scene.
type Handle string

// Scene is the capability the router consumes.
type Scene interface {
	// CreateInstance spawns a renderable clone of the agent template. An id
	// may be created once.
	CreateInstance(id core.AgentID) (Handle, error)
	// SetInstanceColor applies a per-instance material override.
	SetInstanceColor(h Handle, rgb core.RGB) error
	// SetChannel inserts or replaces the keyframe at frame.
	SetChannel(h Handle, ch core.Channel, frame int, value [3]float64) error
}

// Placer is implemented by scenes that track an instance's rest pose, the
// transform it has before the first keyframe.
type Placer interface {
	PlaceInstance(h Handle, pos core.TargetVector, heading float64) error
}
