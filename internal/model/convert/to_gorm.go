// Package convert provides functions to convert between GORM models and core models
package convert

import (
	"encoding/json"
	"fmt"

	"github.com/cellbots/replay/internal/geo"
	"github.com/cellbots/replay/internal/model"
	"github.com/cellbots/replay/pkg/core"
	"gorm.io/datatypes"
)

// restPose is the JSON layout of model.Agent.RestPose.
type restPose struct {
	Position core.TargetVector `json:"position"`
	Heading  float64           `json:"heading"`
}

// colorToJSON converts an optional color to datatypes.JSON; nil stays SQL NULL.
func colorToJSON(c *core.RGB) datatypes.JSON {
	if c == nil {
		return nil
	}
	data, _ := json.Marshal(c)
	return datatypes.JSON(data)
}

// CoreToRun converts the run header. The ID is assigned on insert.
func CoreToRun(info core.RunInfo) model.Run {
	return model.Run{
		Name:          info.Name,
		SourceFile:    info.SourceFile,
		StartedAt:     info.StartedAt,
		FrameRate:     info.FrameRate,
		FrameOrigin:   info.FrameOrigin,
		StartFrame:    info.StartFrame,
		EndFrame:      info.EndFrame,
		AgentCount:    info.AgentCount,
		KeyframeCount: info.KeyframeCount,
		EventCount:    info.EventCount,
		DroppedEvents: info.DroppedEvents,
		Convention:    string(info.Convention),
		Version:       info.Version,
	}
}

// CoreToAgent converts an agent track, computing its path from the position
// curve.
func CoreToAgent(runID uint, a core.AgentTrack) (model.Agent, error) {
	pose, _ := json.Marshal(restPose{Position: a.RestPosition, Heading: a.RestHeading})
	path, err := geo.PathFromKeyframes(a.Position)
	if err != nil {
		return model.Agent{}, fmt.Errorf("agent %s: %w", a.ID, err)
	}
	return model.Agent{
		RunID:         runID,
		BotID:         string(a.ID),
		ColorHex:      a.ColorHex,
		Color:         colorToJSON(a.Color),
		RestPose:      datatypes.JSON(pose),
		Removed:       a.Removed,
		Path:          path,
		PathLength:    geo.GroundDistance(path),
		KeyframeCount: len(a.Position) + len(a.Orientation),
	}, nil
}

// CoreToKeyframes flattens both curves of a track, position first.
func CoreToKeyframes(runID, agentID uint, a core.AgentTrack) []model.Keyframe {
	out := make([]model.Keyframe, 0, len(a.Position)+len(a.Orientation))
	for _, ch := range core.Channels {
		for _, k := range a.Curve(ch) {
			out = append(out, model.Keyframe{
				RunID:   runID,
				AgentID: agentID,
				Channel: string(k.Channel),
				Frame:   k.Frame,
				X:       k.Value[0],
				Y:       k.Value[1],
				Z:       k.Value[2],
			})
		}
	}
	return out
}
