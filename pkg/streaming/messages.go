package streaming

import (
	"encoding/json"
	"time"

	"github.com/cellbots/replay/pkg/core"
)

// Message type constants matching the streaming protocol.
const (
	TypeStartRun  = "start_run"
	TypeAddAgent  = "add_agent"
	TypeKeyframes = "keyframes"
	TypeEndRun    = "end_run"
	TypeAck       = "ack"
)

// Envelope wraps all messages sent over the WebSocket.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// AckMessage is the server's acknowledgement response.
type AckMessage struct {
	Type string `json:"type"` // always "ack"
	For  string `json:"for"`  // the message type being acknowledged
}

// StartRunPayload opens a run on the server.
type StartRunPayload struct {
	Name        string    `json:"name"`
	SourceFile  string    `json:"sourceFile"`
	StartedAt   time.Time `json:"startedAt"`
	FrameRate   float64   `json:"frameRate"`
	FrameOrigin int       `json:"frameOrigin"`
	Convention  string    `json:"convention"`
	AgentCount  int       `json:"agentCount"`
}

// AddAgentPayload announces one agent with its rest pose.
type AddAgentPayload struct {
	ID       string            `json:"id"`
	ColorHex string            `json:"colorHex,omitempty"`
	Color    *core.RGB         `json:"color,omitempty"`
	Location core.TargetVector `json:"location"`
	Heading  float64           `json:"heading"`
	Removed  bool              `json:"removed,omitempty"`
}

// KeyframesPayload carries one curve of one agent.
// Keyframes are [frame, x, y, z] ordered by frame.
type KeyframesPayload struct {
	Agent     string       `json:"agent"`
	Channel   string       `json:"channel"`
	Keyframes [][4]float64 `json:"keyframes"`
}

// EndRunPayload closes the run with its totals.
type EndRunPayload struct {
	StartFrame    int `json:"startFrame"`
	EndFrame      int `json:"endFrame"`
	KeyframeCount int `json:"keyframeCount"`
	EventCount    int `json:"eventCount"`
	DroppedEvents int `json:"droppedEvents"`
}

// NewStartRun builds the start_run payload from a run header.
func NewStartRun(info core.RunInfo) StartRunPayload {
	return StartRunPayload{
		Name:        info.Name,
		SourceFile:  info.SourceFile,
		StartedAt:   info.StartedAt,
		FrameRate:   info.FrameRate,
		FrameOrigin: info.FrameOrigin,
		Convention:  string(info.Convention),
		AgentCount:  info.AgentCount,
	}
}

// NewAddAgent builds the add_agent payload for a track.
func NewAddAgent(track core.AgentTrack) AddAgentPayload {
	return AddAgentPayload{
		ID:       string(track.ID),
		ColorHex: track.ColorHex,
		Color:    track.Color,
		Location: track.RestPosition,
		Heading:  track.RestHeading,
		Removed:  track.Removed,
	}
}

// NewKeyframes packs one curve. It returns false for an empty curve.
func NewKeyframes(id core.AgentID, ch core.Channel, curve []core.Keyframe) (KeyframesPayload, bool) {
	if len(curve) == 0 {
		return KeyframesPayload{}, false
	}
	p := KeyframesPayload{
		Agent:     string(id),
		Channel:   string(ch),
		Keyframes: make([][4]float64, 0, len(curve)),
	}
	for _, k := range curve {
		p.Keyframes = append(p.Keyframes, [4]float64{float64(k.Frame), k.Value[0], k.Value[1], k.Value[2]})
	}
	return p, true
}

// NewEndRun builds the end_run payload from a run header.
func NewEndRun(info core.RunInfo) EndRunPayload {
	return EndRunPayload{
		StartFrame:    info.StartFrame,
		EndFrame:      info.EndFrame,
		KeyframeCount: info.KeyframeCount,
		EventCount:    info.EventCount,
		DroppedEvents: info.DroppedEvents,
	}
}
