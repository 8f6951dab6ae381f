// pkg/core/agent.go
package core

// AgentID identifies one simulated bot. IDs are unique among live agents and
// never reused within a run.
type AgentID string

// AgentState is the router's view of an agent between events.
// Position is in target convention, Heading is a yaw angle in radians.
type AgentState struct {
	Position TargetVector
	Heading  float64
	Removed  bool
}
