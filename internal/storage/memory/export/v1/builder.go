package v1

import (
	"fmt"

	"github.com/cellbots/replay/pkg/core"
)

// Build creates an Export from a finished run. Empty curves are omitted.
func Build(run *core.Run) Export {
	info := run.Info
	export := Export{
		Version:     Version,
		Generator:   info.Version,
		Name:        info.Name,
		SourceFile:  info.SourceFile,
		StartedAt:   info.StartedAt,
		FrameRate:   info.FrameRate,
		FrameOrigin: info.FrameOrigin,
		StartFrame:  info.StartFrame,
		EndFrame:    info.EndFrame,
		Convention:  string(info.Convention),
		Stats: Stats{
			Agents:    info.AgentCount,
			Keyframes: info.KeyframeCount,
			Events:    info.EventCount,
			Dropped:   info.DroppedEvents,
		},
		Agents: make([]Agent, 0, len(run.Agents)),
	}

	for _, track := range run.Agents {
		agent := Agent{
			ID:       string(track.ID),
			ColorHex: track.ColorHex,
			Location: track.RestPosition.Array(),
			Heading:  track.RestHeading,
			Removed:  track.Removed,
			Curves:   make([]Curve, 0, len(core.Channels)),
		}
		if track.Color != nil {
			agent.Color = &[3]float64{track.Color.R, track.Color.G, track.Color.B}
		}
		for _, ch := range core.Channels {
			keys := track.Curve(ch)
			if len(keys) == 0 {
				continue
			}
			curve := Curve{DataPath: string(ch), Keyframes: make([][4]float64, 0, len(keys))}
			for _, k := range keys {
				curve.Keyframes = append(curve.Keyframes, [4]float64{float64(k.Frame), k.Value[0], k.Value[1], k.Value[2]})
			}
			agent.Curves = append(agent.Curves, curve)
		}
		export.Agents = append(export.Agents, agent)
	}

	return export
}

// Restore converts an export back into a run.
func Restore(export Export) (*core.Run, error) {
	if export.Version != Version {
		return nil, fmt.Errorf("unsupported export version %q", export.Version)
	}

	run := &core.Run{
		Info: core.RunInfo{
			Name:          export.Name,
			SourceFile:    export.SourceFile,
			StartedAt:     export.StartedAt,
			FrameRate:     export.FrameRate,
			FrameOrigin:   export.FrameOrigin,
			StartFrame:    export.StartFrame,
			EndFrame:      export.EndFrame,
			AgentCount:    export.Stats.Agents,
			KeyframeCount: export.Stats.Keyframes,
			EventCount:    export.Stats.Events,
			DroppedEvents: export.Stats.Dropped,
			Convention:    core.Convention(export.Convention),
			Version:       export.Generator,
		},
	}

	for _, a := range export.Agents {
		id := core.AgentID(a.ID)
		track := core.AgentTrack{
			ID:           id,
			ColorHex:     a.ColorHex,
			RestPosition: core.TargetVector{X: a.Location[0], Y: a.Location[1], Z: a.Location[2]},
			RestHeading:  a.Heading,
			Removed:      a.Removed,
		}
		if a.Color != nil {
			track.Color = &core.RGB{R: a.Color[0], G: a.Color[1], B: a.Color[2]}
		}
		for _, c := range a.Curves {
			ch := core.Channel(c.DataPath)
			keys := make([]core.Keyframe, 0, len(c.Keyframes))
			for _, k := range c.Keyframes {
				keys = append(keys, core.Keyframe{
					Entity:  id,
					Channel: ch,
					Frame:   int(k[0]),
					Value:   [3]float64{k[1], k[2], k[3]},
				})
			}
			switch ch {
			case core.ChannelPosition:
				track.Position = keys
			case core.ChannelOrientation:
				track.Orientation = keys
			default:
				return nil, fmt.Errorf("agent %s: unknown data path %q", a.ID, c.DataPath)
			}
		}
		run.Agents = append(run.Agents, track)
	}

	return run, nil
}
