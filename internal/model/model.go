package model

import (
	"time"

	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels lists every table, parents first, for AutoMigrate.
var DatabaseModels = []interface{}{
	&Run{},
	&Agent{},
	&Keyframe{},
}

// Run is one conversion of a simulation log.
type Run struct {
	ID            uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	CreatedAt     time.Time `json:"createdAt"`
	Name          string    `json:"name" gorm:"size:128;index:idx_run_name"`
	SourceFile    string    `json:"sourceFile" gorm:"size:255"`
	StartedAt     time.Time `json:"startedAt"`
	FrameRate     float64   `json:"frameRate"`
	FrameOrigin   int       `json:"frameOrigin"`
	StartFrame    int       `json:"startFrame"`
	EndFrame      int       `json:"endFrame"`
	AgentCount    int       `json:"agentCount"`
	KeyframeCount int       `json:"keyframeCount"`
	EventCount    int       `json:"eventCount"`
	DroppedEvents int       `json:"droppedEvents"`
	Convention    string    `json:"convention" gorm:"size:16"`
	Version       string    `json:"version" gorm:"size:32"`
}

func (*Run) TableName() string {
	return "runs"
}

// Agent is one bot of a run with its rest pose and traveled path.
type Agent struct {
	ID            uint            `json:"id" gorm:"primarykey;autoIncrement;"`
	RunID         uint            `json:"runId" gorm:"index:idx_agent_run_id;uniqueIndex:idx_agent_run_bot"`
	Run           Run             `json:"-" gorm:"foreignkey:RunID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	BotID         string          `json:"botId" gorm:"size:64;uniqueIndex:idx_agent_run_bot"`
	ColorHex      string          `json:"colorHex" gorm:"size:6"`
	Color         datatypes.JSON  `json:"color"`    // {"r":..,"g":..,"b":..} or null
	RestPose      datatypes.JSON  `json:"restPose"` // {"position":{..},"heading":..}
	Removed       bool            `json:"removed" gorm:"default:false"`
	Path          geom.LineString `json:"path"`       // position keyframes as XYZ polyline
	PathLength    float64         `json:"pathLength"` // ground distance of Path
	KeyframeCount int             `json:"keyframeCount"`
}

func (*Agent) TableName() string {
	return "agents"
}

// Keyframe is one channel value at one frame.
type Keyframe struct {
	ID      uint    `json:"id" gorm:"primarykey;autoIncrement;"`
	RunID   uint    `json:"runId" gorm:"index:idx_keyframe_run_id"`
	Run     Run     `json:"-" gorm:"foreignkey:RunID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	AgentID uint    `json:"agentId" gorm:"index:idx_keyframe_agent_channel_frame"`
	Agent   Agent   `json:"-" gorm:"foreignkey:AgentID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Channel string  `json:"channel" gorm:"size:32;index:idx_keyframe_agent_channel_frame"`
	Frame   int     `json:"frame" gorm:"index:idx_keyframe_agent_channel_frame"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Z       float64 `json:"z"`
}

func (*Keyframe) TableName() string {
	return "keyframes"
}
