// Package timeline is the in-process keyframe store. It implements
// scene.Scene so the router can write into it directly, and produces the
// core.Run snapshot that storage backends persist.
package timeline

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/cellbots/replay/pkg/core"
	"github.com/cellbots/replay/pkg/scene"
)

// ErrDuplicateInstance is returned when an agent is created twice.
var ErrDuplicateInstance = errors.New("instance already exists")

// instance groups one agent's rest pose, color and keyframe curves.
// Curves are keyed by frame so repeated writes replace earlier ones.
type instance struct {
	id           core.AgentID
	order        int
	color        *core.RGB
	restPosition core.TargetVector
	restHeading  float64
	curves       map[core.Channel]map[int][3]float64
}

// Timeline records keyframes per (entity, channel, frame).
type Timeline struct {
	mu        sync.RWMutex
	instances map[scene.Handle]*instance
	removed   map[core.AgentID]bool
	colorHex  map[core.AgentID]string
}

// New creates an empty timeline.
func New() *Timeline {
	return &Timeline{
		instances: make(map[scene.Handle]*instance),
		removed:   make(map[core.AgentID]bool),
		colorHex:  make(map[core.AgentID]string),
	}
}

// CreateInstance registers an agent and returns its handle. Creating the
// same agent twice fails with ErrDuplicateInstance.
func (t *Timeline) CreateInstance(id core.AgentID) (scene.Handle, error) {
	if id == "" {
		return "", fmt.Errorf("create instance: empty agent id")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	h := scene.Handle(id)
	if _, ok := t.instances[h]; ok {
		return "", fmt.Errorf("create instance %q: %w", id, ErrDuplicateInstance)
	}
	t.instances[h] = &instance{
		id:     id,
		order:  len(t.instances),
		curves: make(map[core.Channel]map[int][3]float64, len(core.Channels)),
	}
	return h, nil
}

// SetInstanceColor stores a per-instance color override.
func (t *Timeline) SetInstanceColor(h scene.Handle, rgb core.RGB) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	inst, ok := t.instances[h]
	if !ok {
		return fmt.Errorf("set color: unknown instance %q", h)
	}
	c := rgb
	inst.color = &c
	return nil
}

// PlaceInstance sets the transform an instance has before its first keyframe.
func (t *Timeline) PlaceInstance(h scene.Handle, pos core.TargetVector, heading float64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	inst, ok := t.instances[h]
	if !ok {
		return fmt.Errorf("place instance: unknown instance %q", h)
	}
	inst.restPosition = pos
	inst.restHeading = heading
	return nil
}

// SetChannel upserts one keyframe. The last write for a frame wins.
func (t *Timeline) SetChannel(h scene.Handle, ch core.Channel, frame int, value [3]float64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	inst, ok := t.instances[h]
	if !ok {
		return fmt.Errorf("set channel %s: unknown instance %q", ch, h)
	}
	curve, ok := inst.curves[ch]
	if !ok {
		curve = make(map[int][3]float64)
		inst.curves[ch] = curve
	}
	curve[frame] = value
	return nil
}

// MarkRemoved flags an agent as removed from the simulation.
func (t *Timeline) MarkRemoved(id core.AgentID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.removed[id] = true
}

// SetColorHex keeps the original hex string of an agent's color for export.
func (t *Timeline) SetColorHex(id core.AgentID, hex string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.colorHex[id] = hex
}

// Lookup returns the value stored at (entity, channel, frame).
func (t *Timeline) Lookup(id core.AgentID, ch core.Channel, frame int) ([3]float64, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	inst, ok := t.instances[scene.Handle(id)]
	if !ok {
		return [3]float64{}, false
	}
	v, ok := inst.curves[ch][frame]
	return v, ok
}

// Curve returns one channel of one entity, ordered by frame.
func (t *Timeline) Curve(id core.AgentID, ch core.Channel) []core.Keyframe {
	t.mu.RLock()
	defer t.mu.RUnlock()

	inst, ok := t.instances[scene.Handle(id)]
	if !ok {
		return nil
	}
	return sortedCurve(id, ch, inst.curves[ch])
}

// Agents returns the registered agent IDs in creation order.
func (t *Timeline) Agents() []core.AgentID {
	t.mu.RLock()
	defer t.mu.RUnlock()

	ordered := t.orderedInstances()
	ids := make([]core.AgentID, len(ordered))
	for i, inst := range ordered {
		ids[i] = inst.id
	}
	return ids
}

// KeyframeCount returns the total number of stored keyframes.
func (t *Timeline) KeyframeCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n := 0
	for _, inst := range t.instances {
		for _, curve := range inst.curves {
			n += len(curve)
		}
	}
	return n
}

// Snapshot copies the timeline into an immutable core.Run. StartFrame and
// EndFrame span every stored keyframe; both are zero when nothing was keyed.
func (t *Timeline) Snapshot(info core.RunInfo) *core.Run {
	t.mu.RLock()
	defer t.mu.RUnlock()

	run := &core.Run{Info: info}
	first := true

	for _, inst := range t.orderedInstances() {
		track := core.AgentTrack{
			ID:           inst.id,
			ColorHex:     t.colorHex[inst.id],
			RestPosition: inst.restPosition,
			RestHeading:  inst.restHeading,
			Removed:      t.removed[inst.id],
			Position:     sortedCurve(inst.id, core.ChannelPosition, inst.curves[core.ChannelPosition]),
			Orientation:  sortedCurve(inst.id, core.ChannelOrientation, inst.curves[core.ChannelOrientation]),
		}
		if inst.color != nil {
			c := *inst.color
			track.Color = &c
		}

		for _, ch := range core.Channels {
			for _, k := range track.Curve(ch) {
				if first || k.Frame < run.Info.StartFrame {
					run.Info.StartFrame = k.Frame
				}
				if first || k.Frame > run.Info.EndFrame {
					run.Info.EndFrame = k.Frame
				}
				first = false
				run.Info.KeyframeCount++
			}
		}

		run.Agents = append(run.Agents, track)
	}

	run.Info.AgentCount = len(run.Agents)
	return run
}

func (t *Timeline) orderedInstances() []*instance {
	out := make([]*instance, 0, len(t.instances))
	for _, inst := range t.instances {
		out = append(out, inst)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].order < out[j].order })
	return out
}

func sortedCurve(id core.AgentID, ch core.Channel, curve map[int][3]float64) []core.Keyframe {
	out := make([]core.Keyframe, 0, len(curve))
	for frame, v := range curve {
		out = append(out, core.Keyframe{Entity: id, Channel: ch, Frame: frame, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Frame < out[j].Frame })
	return out
}

var (
	_ scene.Scene  = (*Timeline)(nil)
	_ scene.Placer = (*Timeline)(nil)
)
