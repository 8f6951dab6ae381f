package router

import (
	"context"
	"fmt"

	"github.com/cellbots/replay/internal/geo"
	"github.com/cellbots/replay/internal/timing"
	"github.com/cellbots/replay/pkg/core"
	"github.com/cellbots/replay/pkg/scene"
)

func (r *Router) registerBuiltins() {
	r.Register(core.KindAddBot, r.handleAddBot)
	r.Register(core.KindMove, r.handleMove)
	r.Register(core.KindSpin, r.handleSpin)
	r.Register(core.KindSpinAround, r.handleSpinAround)
	r.Register(core.KindRemoveBot, r.handleRemoveBot)
}

func (r *Router) handleAddBot(ctx context.Context, e core.Event) error {
	ev, ok := e.(core.AddBot)
	if !ok {
		return fmt.Errorf("addbot handler got %T", e)
	}
	if _, exists := r.agents[ev.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateAgent, ev.ID)
	}

	state := core.AgentState{
		Position: geo.ToTarget(ev.Position),
		Heading:  geo.Heading(ev.Direction),
	}

	h, err := r.scene.CreateInstance(ev.ID)
	if err != nil {
		return fmt.Errorf("create instance: %w", err)
	}
	if p, ok := r.scene.(scene.Placer); ok {
		if err := p.PlaceInstance(h, state.Position, state.Heading); err != nil {
			return fmt.Errorf("place instance: %w", err)
		}
	}
	if ev.Color != nil {
		if err := r.scene.SetInstanceColor(h, *ev.Color); err != nil {
			return fmt.Errorf("set color: %w", err)
		}
		if c, ok := r.scene.(colorTagger); ok {
			c.SetColorHex(ev.ID, ev.ColorHex)
		}
	}

	r.agents[ev.ID] = &agent{handle: h, state: state}
	r.debug("agent added", "agent", ev.ID, "position", state.Position, "heading", state.Heading)
	return nil
}

// handleMove keys the two endpoints only; the renderer draws the straight line.
func (r *Router) handleMove(ctx context.Context, e core.Event) error {
	ev, ok := e.(core.Move)
	if !ok {
		return fmt.Errorf("move handler got %T", e)
	}
	a, err := r.live(ev.ID)
	if err != nil {
		return err
	}

	fs, fe := r.cfg.Mapper.Range(ev.Start(), ev.Duration(r.cfg.Mapper.DefaultDurationMs))
	from, to := geo.ToTarget(ev.From), geo.ToTarget(ev.To)

	if err := r.emit(ctx, a, core.ChannelPosition, fs, from.Array()); err != nil {
		return err
	}
	if err := r.emit(ctx, a, core.ChannelPosition, fe, to.Array()); err != nil {
		return err
	}

	a.state.Position = to
	return nil
}

// handleSpin keys the two endpoint headings. A turn crossing ±π takes the
// long way round because angles are not unwrapped.
func (r *Router) handleSpin(ctx context.Context, e core.Event) error {
	ev, ok := e.(core.Spin)
	if !ok {
		return fmt.Errorf("spin handler got %T", e)
	}
	a, err := r.live(ev.ID)
	if err != nil {
		return err
	}

	fs, fe := r.cfg.Mapper.Range(ev.Start(), ev.Duration(r.cfg.Mapper.DefaultDurationMs))
	from, to := geo.Heading(ev.FromDirection), geo.Heading(ev.ToDirection)

	if err := r.emit(ctx, a, core.ChannelOrientation, fs, core.YawEuler(from)); err != nil {
		return err
	}
	if err := r.emit(ctx, a, core.ChannelOrientation, fe, core.YawEuler(to)); err != nil {
		return err
	}

	a.state.Heading = to
	return nil
}

// handleSpinAround pre-samples the orbit so the renderer interpolates along a
// polyline close to the arc instead of the chord.
func (r *Router) handleSpinAround(ctx context.Context, e core.Event) error {
	ev, ok := e.(core.SpinAround)
	if !ok {
		return fmt.Errorf("spin2 handler got %T", e)
	}
	a, err := r.live(ev.ID)
	if err != nil {
		return err
	}

	fs, fe := r.cfg.Mapper.Range(ev.Start(), ev.Duration(r.cfg.Mapper.DefaultDurationMs))
	orbit := geo.Orbit{
		Center:    geo.ToTarget(ev.Center),
		From:      geo.ToTarget(ev.FromPoint),
		AngleFrom: geo.Heading(ev.FromDirection),
		AngleTo:   geo.Heading(ev.ToDirection),
	}

	var last geo.Sample
	for _, s := range orbit.Samples(r.cfg.OrbitSteps) {
		frame := timing.Blend(fs, fe, s.T)
		if err := r.emit(ctx, a, core.ChannelPosition, frame, s.Position.Array()); err != nil {
			return err
		}
		if err := r.emit(ctx, a, core.ChannelOrientation, frame, core.YawEuler(s.Heading)); err != nil {
			return err
		}
		last = s
	}

	a.state.Position = last.Position
	a.state.Heading = last.Heading
	return nil
}

func (r *Router) handleRemoveBot(ctx context.Context, e core.Event) error {
	ev, ok := e.(core.RemoveBot)
	if !ok {
		return fmt.Errorf("removebot handler got %T", e)
	}
	a, err := r.live(ev.ID)
	if err != nil {
		return err
	}
	a.state.Removed = true

	if m, ok := r.scene.(remover); ok {
		m.MarkRemoved(ev.ID)
	}
	r.debug("agent removed", "agent", ev.ID)
	return nil
}

// remover is implemented by scenes that record agent removal.
type remover interface {
	MarkRemoved(id core.AgentID)
}

// colorTagger is implemented by scenes that keep the source hex color.
type colorTagger interface {
	SetColorHex(id core.AgentID, hex string)
}
