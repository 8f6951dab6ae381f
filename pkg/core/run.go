// pkg/core/run.go
package core

import "time"

// RunInfo describes one conversion of an event log into keyframes.
type RunInfo struct {
	Name          string
	SourceFile    string
	StartedAt     time.Time
	FrameRate     float64
	FrameOrigin   int
	StartFrame    int
	EndFrame      int
	AgentCount    int
	KeyframeCount int
	EventCount    int
	DroppedEvents int
	Convention    Convention
	Version       string
}

// AgentTrack holds everything recorded for one agent: its rest pose, its
// optional color override, and both keyframe curves ordered by frame.
type AgentTrack struct {
	ID           AgentID
	ColorHex     string
	Color        *RGB
	RestPosition TargetVector
	RestHeading  float64
	Removed      bool
	Position     []Keyframe
	Orientation  []Keyframe
}

// Curve returns the keyframes of one channel.
func (a AgentTrack) Curve(ch Channel) []Keyframe {
	switch ch {
	case ChannelPosition:
		return a.Position
	case ChannelOrientation:
		return a.Orientation
	}
	return nil
}

// Run is the immutable snapshot handed to storage backends.
type Run struct {
	Info   RunInfo
	Agents []AgentTrack
}

// UploadMetadata contains metadata for uploading an exported run.
type UploadMetadata struct {
	RunName     string
	SourceFile  string
	DurationSec float64
	Agents      int
}
