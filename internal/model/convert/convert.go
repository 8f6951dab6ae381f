package convert

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/cellbots/replay/internal/model"
	"github.com/cellbots/replay/pkg/core"
)

// RunToCore rebuilds a core.Run from stored rows. Keyframes may arrive in any
// order; each curve is sorted by frame.
func RunToCore(r model.Run, agents []model.Agent, keyframes []model.Keyframe) (*core.Run, error) {
	run := &core.Run{
		Info: core.RunInfo{
			Name:          r.Name,
			SourceFile:    r.SourceFile,
			StartedAt:     r.StartedAt,
			FrameRate:     r.FrameRate,
			FrameOrigin:   r.FrameOrigin,
			StartFrame:    r.StartFrame,
			EndFrame:      r.EndFrame,
			AgentCount:    r.AgentCount,
			KeyframeCount: r.KeyframeCount,
			EventCount:    r.EventCount,
			DroppedEvents: r.DroppedEvents,
			Convention:    core.Convention(r.Convention),
			Version:       r.Version,
		},
	}

	index := make(map[uint]int, len(agents))
	for _, a := range agents {
		track, err := AgentToCore(a)
		if err != nil {
			return nil, err
		}
		index[a.ID] = len(run.Agents)
		run.Agents = append(run.Agents, track)
	}

	for _, k := range keyframes {
		i, ok := index[k.AgentID]
		if !ok {
			return nil, fmt.Errorf("keyframe %d references unknown agent %d", k.ID, k.AgentID)
		}
		track := &run.Agents[i]
		kf := core.Keyframe{
			Entity:  track.ID,
			Channel: core.Channel(k.Channel),
			Frame:   k.Frame,
			Value:   [3]float64{k.X, k.Y, k.Z},
		}
		switch kf.Channel {
		case core.ChannelPosition:
			track.Position = append(track.Position, kf)
		case core.ChannelOrientation:
			track.Orientation = append(track.Orientation, kf)
		default:
			return nil, fmt.Errorf("keyframe %d: unknown channel %q", k.ID, k.Channel)
		}
	}

	for i := range run.Agents {
		sortByFrame(run.Agents[i].Position)
		sortByFrame(run.Agents[i].Orientation)
	}
	return run, nil
}

// AgentToCore converts an agent row without its keyframes.
func AgentToCore(a model.Agent) (core.AgentTrack, error) {
	track := core.AgentTrack{
		ID:       core.AgentID(a.BotID),
		ColorHex: a.ColorHex,
		Removed:  a.Removed,
	}
	if len(a.RestPose) > 0 {
		var pose restPose
		if err := json.Unmarshal(a.RestPose, &pose); err != nil {
			return core.AgentTrack{}, fmt.Errorf("agent %s: rest pose: %w", a.BotID, err)
		}
		track.RestPosition = pose.Position
		track.RestHeading = pose.Heading
	}
	if len(a.Color) > 0 && string(a.Color) != "null" {
		var c core.RGB
		if err := json.Unmarshal(a.Color, &c); err != nil {
			return core.AgentTrack{}, fmt.Errorf("agent %s: color: %w", a.BotID, err)
		}
		track.Color = &c
	}
	return track, nil
}

func sortByFrame(curve []core.Keyframe) {
	sort.Slice(curve, func(i, j int) bool { return curve[i].Frame < curve[j].Frame })
}
