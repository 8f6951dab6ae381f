// Package v1 contains the v1 export format for replay runs.
// Curves are keyed by the renderer's data path so an importer can apply them
// without knowing the event log.
package v1

import "time"

// Version is written into every export.
const Version = "1.0"

// Export is the root JSON structure for v1 format
type Export struct {
	Version     string    `json:"version"`
	Generator   string    `json:"generator,omitempty"`
	Name        string    `json:"name"`
	SourceFile  string    `json:"sourceFile"`
	StartedAt   time.Time `json:"startedAt"`
	FrameRate   float64   `json:"frameRate"`
	FrameOrigin int       `json:"frameOrigin"`
	StartFrame  int       `json:"startFrame"`
	EndFrame    int       `json:"endFrame"`
	Convention  string    `json:"convention"`
	Stats       Stats     `json:"stats"`
	Agents      []Agent   `json:"agents"`
}

// Stats summarizes the conversion.
type Stats struct {
	Agents    int `json:"agents"`
	Keyframes int `json:"keyframes"`
	Events    int `json:"events"`
	Dropped   int `json:"dropped"`
}

// Agent is one bot with its rest pose and animation curves.
type Agent struct {
	ID       string      `json:"id"`
	ColorHex string      `json:"colorHex,omitempty"`
	Color    *[3]float64 `json:"color,omitempty"`
	Location [3]float64  `json:"location"`
	Heading  float64     `json:"heading"`
	Removed  bool        `json:"removed,omitempty"`
	Curves   []Curve     `json:"curves"`
}

// Curve holds the keyframes of one data path.
// Format: [[frame, x, y, z], ...] ordered by frame.
type Curve struct {
	DataPath  string       `json:"dataPath"`
	Keyframes [][4]float64 `json:"keyframes"`
}
