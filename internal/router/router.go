// Package router turns an ordered stream of simulation events into keyframes
// on a scene. Events are handled strictly in input order on one goroutine.
package router

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cellbots/replay/internal/timing"
	"github.com/cellbots/replay/pkg/core"
	"github.com/cellbots/replay/pkg/scene"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// DefaultOrbitSteps is the number of intervals a spin2 orbit is cut into.
const DefaultOrbitSteps = 8

var (
	// ErrUnknownAgent is returned by handlers for events whose agent was
	// never added or has been removed. Run drops such events.
	ErrUnknownAgent = errors.New("unknown agent")
	// ErrDuplicateAgent is returned when a live agent is added again.
	ErrDuplicateAgent = errors.New("agent already exists")
	// ErrUnknownKind is returned by Dispatch when no handler is registered.
	ErrUnknownKind = errors.New("unknown event kind")
)

// HandlerFunc processes one event.
type HandlerFunc func(context.Context, core.Event) error

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Config carries the run-wide constants the handlers need.
type Config struct {
	Mapper     timing.Mapper
	OrbitSteps int
}

// DefaultConfig returns 24 fps, frame origin 1, 400 ms default duration and
// 8 orbit steps.
func DefaultConfig() Config {
	return Config{Mapper: timing.NewMapper(), OrbitSteps: DefaultOrbitSteps}
}

// Stats summarizes one Run.
type Stats struct {
	Events    int
	Processed int
	Dropped   int
	Keyframes int
}

type agent struct {
	handle scene.Handle
	state  core.AgentState
}

// Router routes events to registered handlers and owns per-agent state.
type Router struct {
	handlers map[core.EventKind]HandlerFunc
	scene    scene.Scene
	cfg      Config
	logger   Logger

	agents map[core.AgentID]*agent
	stats  Stats

	// OTEL metrics
	processed metric.Int64Counter
	dropped   metric.Int64Counter
	emitted   metric.Int64Counter
}

// New creates a Router writing into sc with the built-in handlers registered.
// Uses the global OTel meter for metrics (no-op if not configured).
func New(sc scene.Scene, cfg Config, logger Logger) (*Router, error) {
	if sc == nil {
		return nil, errors.New("router: nil scene")
	}
	if cfg.Mapper.FrameRate <= 0 {
		return nil, fmt.Errorf("router: frame rate must be positive, got %v", cfg.Mapper.FrameRate)
	}
	if cfg.OrbitSteps < 1 {
		cfg.OrbitSteps = DefaultOrbitSteps
	}

	r := &Router{
		handlers: make(map[core.EventKind]HandlerFunc),
		scene:    sc,
		cfg:      cfg,
		logger:   logger,
		agents:   make(map[core.AgentID]*agent),
	}

	m := meter()

	var err error

	r.processed, err = m.Int64Counter(
		"router.events.processed",
		metric.WithDescription("Total events turned into keyframes"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating processed counter: %w", err)
	}

	r.dropped, err = m.Int64Counter(
		"router.events.dropped",
		metric.WithDescription("Total events skipped for unknown agents or kinds"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating dropped counter: %w", err)
	}

	r.emitted, err = m.Int64Counter(
		"router.keyframes.emitted",
		metric.WithDescription("Total keyframes written to the scene"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating emitted counter: %w", err)
	}

	r.registerBuiltins()
	return r, nil
}

// Register adds or replaces the handler for an event kind.
func (r *Router) Register(kind core.EventKind, h HandlerFunc) {
	r.handlers[kind] = h
}

// HasHandler returns true if a handler is registered for the kind.
func (r *Router) HasHandler(kind core.EventKind) bool {
	_, ok := r.handlers[kind]
	return ok
}

// Dispatch routes one event to its handler.
func (r *Router) Dispatch(ctx context.Context, e core.Event) error {
	h, ok := r.handlers[e.Kind()]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKind, e.Kind())
	}
	return h(ctx, e)
}

// Run dispatches events in order. Events for unknown agents, duplicate
// additions and unknown kinds are dropped and counted; any other handler
// error aborts the run. Cancellation is checked between events.
func (r *Router) Run(ctx context.Context, events []core.Event) (Stats, error) {
	start := time.Now()

	for i, e := range events {
		if err := ctx.Err(); err != nil {
			return r.stats, err
		}
		r.stats.Events++

		kindAttr := metric.WithAttributes(attribute.String("kind", string(e.Kind())))

		err := r.Dispatch(ctx, e)
		switch {
		case err == nil:
			r.stats.Processed++
			r.processed.Add(ctx, 1, kindAttr)
		case errors.Is(err, ErrUnknownAgent), errors.Is(err, ErrUnknownKind):
			r.stats.Dropped++
			r.dropped.Add(ctx, 1, kindAttr)
			r.debug("event dropped", "index", i, "kind", e.Kind(), "agent", e.Agent(), "reason", err)
		case errors.Is(err, ErrDuplicateAgent):
			r.stats.Dropped++
			r.dropped.Add(ctx, 1, kindAttr)
			r.warn("duplicate addbot ignored", "index", i, "agent", e.Agent())
		default:
			r.fail("event failed", "index", i, "kind", e.Kind(), "agent", e.Agent(), "error", err)
			return r.stats, fmt.Errorf("event %d (%s %s): %w", i, e.Kind(), e.Agent(), err)
		}
	}

	r.info("events routed",
		"events", r.stats.Events,
		"processed", r.stats.Processed,
		"dropped", r.stats.Dropped,
		"keyframes", r.stats.Keyframes,
		"duration", time.Since(start))
	return r.stats, nil
}

// State returns the current state of an agent.
func (r *Router) State(id core.AgentID) (core.AgentState, bool) {
	a, ok := r.agents[id]
	if !ok {
		return core.AgentState{}, false
	}
	return a.state, true
}

// Stats returns the counters accumulated so far.
func (r *Router) Stats() Stats {
	return r.stats
}

// live returns the agent for id if it was added and not removed.
func (r *Router) live(id core.AgentID) (*agent, error) {
	a, ok := r.agents[id]
	if !ok || a.state.Removed {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAgent, id)
	}
	return a, nil
}

func (r *Router) emit(ctx context.Context, a *agent, ch core.Channel, frame int, value [3]float64) error {
	if err := r.scene.SetChannel(a.handle, ch, frame, value); err != nil {
		return fmt.Errorf("set %s at frame %d: %w", ch, frame, err)
	}
	r.stats.Keyframes++
	r.emitted.Add(ctx, 1, metric.WithAttributes(attribute.String("channel", string(ch))))
	return nil
}

func (r *Router) debug(msg string, kv ...any) {
	if r.logger != nil {
		r.logger.Debug(msg, kv...)
	}
}

func (r *Router) info(msg string, kv ...any) {
	if r.logger != nil {
		r.logger.Info(msg, kv...)
	}
}

func (r *Router) warn(msg string, kv ...any) {
	if r.logger != nil {
		r.logger.Warn(msg, kv...)
	}
}

func (r *Router) fail(msg string, kv ...any) {
	if r.logger != nil {
		r.logger.Error(msg, kv...)
	}
}
