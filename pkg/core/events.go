// pkg/core/events.go
package core

// EventKind is the wire name of an event in the simulation log.
type EventKind string

const (
	KindAddBot     EventKind = "addbot"
	KindMove       EventKind = "move"
	KindSpin       EventKind = "spin"
	KindSpinAround EventKind = "spin2"
	KindRemoveBot  EventKind = "removebot"
)

// Event is one record of the simulation log. The set of implementations is
// closed; the router switches on Kind.
type Event interface {
	Kind() EventKind
	Agent() AgentID
}

// Timed is implemented by events that span an interval on the timeline.
type Timed interface {
	Event
	Start() float64
	// Duration returns the event duration in milliseconds, substituting
	// defaultMs when the log omitted it or recorded zero.
	Duration(defaultMs float64) float64
}

// AddBot registers a new agent at a position facing a direction.
// ColorHex is empty when the log carries no color override.
type AddBot struct {
	ID        AgentID
	Position  SourceVector
	Direction SourceVector
	ColorHex  string
	Color     *RGB
}

func (e AddBot) Kind() EventKind { return KindAddBot }
func (e AddBot) Agent() AgentID  { return e.ID }

// Move is a straight-line translation.
type Move struct {
	ID          AgentID
	From        SourceVector
	To          SourceVector
	TimestampMs float64
	DurationMs  *float64
}

func (e Move) Kind() EventKind { return KindMove }
func (e Move) Agent() AgentID  { return e.ID }
func (e Move) Start() float64  { return e.TimestampMs }

func (e Move) Duration(defaultMs float64) float64 {
	return durationOr(e.DurationMs, defaultMs)
}

// Spin is an in-place rotation between two facing directions.
type Spin struct {
	ID            AgentID
	FromDirection SourceVector
	ToDirection   SourceVector
	TimestampMs   float64
	DurationMs    *float64
}

func (e Spin) Kind() EventKind { return KindSpin }
func (e Spin) Agent() AgentID  { return e.ID }
func (e Spin) Start() float64  { return e.TimestampMs }

func (e Spin) Duration(defaultMs float64) float64 {
	return durationOr(e.DurationMs, defaultMs)
}

// SpinAround is orbital motion: the agent travels on a circle about Center
// while its own facing turns from FromDirection to ToDirection.
type SpinAround struct {
	ID            AgentID
	FromPoint     SourceVector
	ToPoint       SourceVector
	FromDirection SourceVector
	ToDirection   SourceVector
	Center        SourceVector
	TimestampMs   float64
	DurationMs    *float64
}

func (e SpinAround) Kind() EventKind { return KindSpinAround }
func (e SpinAround) Agent() AgentID  { return e.ID }
func (e SpinAround) Start() float64  { return e.TimestampMs }

func (e SpinAround) Duration(defaultMs float64) float64 {
	return durationOr(e.DurationMs, defaultMs)
}

// RemoveBot ends an agent's life. Later events for the same ID are dropped.
type RemoveBot struct {
	ID          AgentID
	TimestampMs float64
}

func (e RemoveBot) Kind() EventKind { return KindRemoveBot }
func (e RemoveBot) Agent() AgentID  { return e.ID }

func durationOr(d *float64, defaultMs float64) float64 {
	if d == nil || *d == 0 {
		return defaultMs
	}
	return *d
}

// Ms is a convenience for building optional durations.
func Ms(v float64) *float64 {
	return &v
}
