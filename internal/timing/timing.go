// Package timing maps millisecond timestamps from the simulation log onto
// integer frames of the renderer's timeline.
package timing

import "math"

// Reference values used when the configuration does not override them.
const (
	DefaultFrameRate       = 24.0
	DefaultFrameOrigin     = 1
	DefaultEventDurationMs = 400.0
)

// Mapper converts log time to frames at a fixed sample rate.
type Mapper struct {
	FrameRate         float64 // frames per second
	FrameOrigin       int     // frame number of t=0; renderer timelines are 1-indexed
	DefaultDurationMs float64 // substituted for a missing or zero event duration
}

// NewMapper returns a Mapper with the reference configuration.
func NewMapper() Mapper {
	return Mapper{
		FrameRate:         DefaultFrameRate,
		FrameOrigin:       DefaultFrameOrigin,
		DefaultDurationMs: DefaultEventDurationMs,
	}
}

// Frame returns floor(ms/1000 * rate) + origin.
func (m Mapper) Frame(ms float64) int {
	return int(math.Floor(ms/1000*m.FrameRate)) + m.FrameOrigin
}

// Range returns the start and end frames of an event beginning at ts and
// lasting durationMs. A zero duration is replaced by DefaultDurationMs.
// The end frame may equal the start frame for very short events.
func (m Mapper) Range(ts, durationMs float64) (start, end int) {
	if durationMs == 0 {
		durationMs = m.DefaultDurationMs
	}
	return m.Frame(ts), m.Frame(ts + durationMs)
}

// Seconds converts a frame back to seconds after the origin.
func (m Mapper) Seconds(frame int) float64 {
	if m.FrameRate == 0 {
		return 0
	}
	return float64(frame-m.FrameOrigin) / m.FrameRate
}

// Blend returns the frame at parameter t between start and end, rounded to
// the nearest integer.
func Blend(start, end int, t float64) int {
	return int(math.Round(float64(start)*(1-t) + float64(end)*t))
}
