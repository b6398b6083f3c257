package scenario

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/lixenwraith/dockbridge/core"
	"github.com/lixenwraith/dockbridge/engine"
	"github.com/lixenwraith/dockbridge/event"
	"github.com/lixenwraith/dockbridge/network"
	"github.com/lixenwraith/dockbridge/parameter"
	"github.com/lixenwraith/dockbridge/system"
)

var (
	// ErrStepRefused reports a step the world declined, e.g. docking an already docked port
	ErrStepRefused = errors.New("step refused")
	// ErrExpectation reports a failed expect step
	ErrExpectation = errors.New("expectation failed")
)

// Runner owns a world built from a scenario and plays its steps
type Runner struct {
	Scenario *Scenario
	World    *engine.World
	System   *system.DockBridgeSystem

	names map[string]core.Entity
	grids []core.Entity
	next  int
	log   *slog.Logger
}

// NewRunner builds the world and settles the initial anchoring
func NewRunner(sc *Scenario, logger *slog.Logger, opts ...system.Option) (*Runner, error) {
	res := engine.NewResources(logger)
	world := engine.NewWorld(res, sc.Config.EventQueueSize)
	r := &Runner{
		Scenario: sc,
		World:    world,
		System:   system.NewDockBridgeSystem(world, sc.Config, opts...),
		names:    make(map[string]core.Entity),
		log:      res.Logger.With("scenario", sc.Name),
	}
	if err := r.build(); err != nil {
		return nil, err
	}
	world.Tick()
	return r, nil
}

func (r *Runner) build() error {
	w := r.World
	for _, g := range r.Scenario.Grids {
		e := w.CreateGrid(g.Name, core.Degrees(g.Rotation))
		r.names[g.Name] = e
		r.grids = append(r.grids, e)
	}

	for _, d := range r.Scenario.Docks {
		e := w.CreateEntity()
		w.AddDock(e)
		w.Place(e, r.names[d.Grid], core.Vec2{X: d.X, Y: d.Y}, core.Facing(parseFacing(d.Facing)))
		if !w.Anchor(e) {
			return fmt.Errorf("%w: anchoring dock %q", ErrStepRefused, d.Name)
		}
		r.names[d.Name] = e
	}

	for _, spec := range r.Scenario.Entities {
		e := w.CreateEntity()
		w.Place(e, r.names[spec.Grid], core.Vec2{X: spec.X, Y: spec.Y}, 0)
		nodes := make([]*network.Node, 0, len(spec.Nodes))
		for _, ns := range spec.Nodes {
			kind, _ := network.ParseKind(ns.Kind)
			dirs := core.MaskAll
			if ns.Dirs != "" {
				dirs = core.ParseDirectionMask(ns.Dirs)
			}
			n := network.NewNode(network.NodeRef{Name: ns.Name}, kind, network.GroupID(ns.Group), ns.Layer, dirs)
			n.Net = network.NetID(ns.Net)
			nodes = append(nodes, n)
		}
		w.AttachNodes(e, nodes...)
		if !spec.Loose && !w.Anchor(e) {
			return fmt.Errorf("%w: anchoring entity %q", ErrStepRefused, spec.Name)
		}
		r.names[spec.Name] = e
	}
	return nil
}

// Entity returns the entity declared under name
func (r *Runner) Entity(name string) (core.Entity, bool) {
	e, ok := r.names[name]
	return e, ok
}

// Grids returns the grid entities in declaration order
func (r *Runner) Grids() []core.Entity {
	return r.grids
}

// NameOf returns the declared name of e, empty for unnamed entities
func (r *Runner) NameOf(e core.Entity) string {
	for name, ent := range r.names {
		if ent == e {
			return name
		}
	}
	return ""
}

// Done reports whether every step has been played
func (r *Runner) Done() bool {
	return r.next >= len(r.Scenario.Steps)
}

// Position returns the index of the next step to play
func (r *Runner) Position() int {
	return r.next
}

// Next plays the next step, returns false once the script is exhausted
func (r *Runner) Next() (bool, error) {
	if r.Done() {
		return false, nil
	}
	i := r.next
	r.next++
	st := r.Scenario.Steps[i]
	if err := r.Step(st); err != nil {
		return true, fmt.Errorf("step %d (%s): %w", i, st.Action, err)
	}
	return true, nil
}

// Run plays all remaining steps, stopping at the first failure
func (r *Runner) Run() error {
	for {
		more, err := r.Next()
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
}

// Step applies one action, mutating steps tick once so their events settle
func (r *Runner) Step(st Step) error {
	w := r.World
	a, b := r.names[st.A], r.names[st.B]
	r.log.Debug("step", slog.String("action", st.Action), slog.String("a", st.A), slog.String("b", st.B))

	switch st.Action {
	case "dock":
		if !w.DockPair(a, b) {
			return fmt.Errorf("%w: dock %s %s", ErrStepRefused, st.A, st.B)
		}
	case "undock":
		if !w.UndockPair(a) {
			return fmt.Errorf("%w: undock %s", ErrStepRefused, st.A)
		}
	case "anchor":
		if !w.Anchor(a) {
			return fmt.Errorf("%w: anchor %s", ErrStepRefused, st.A)
		}
	case "unanchor":
		if !w.Unanchor(a) {
			return fmt.Errorf("%w: unanchor %s", ErrStepRefused, st.A)
		}
	case "destroy":
		w.DestroyEntity(a)
	case "rotate":
		w.SetGridRotation(r.names[st.Grid], core.Degrees(st.Degrees))
	case "refresh":
		w.PushEvent(event.EventRefreshRequest, &event.RefreshPayload{Reason: st.Reason})
	case "emit":
		if err := r.emit(st, a, b); err != nil {
			return err
		}
	case "tick":
		n := st.Count
		if n == 0 {
			n = parameter.DefaultTicks
		}
		for i := 0; i < n; i++ {
			w.Tick()
		}
		return nil
	case "sweep":
		r.System.Sweep()
		return nil
	case "expect":
		return r.expect(st, a, b)
	default:
		return fmt.Errorf("%w: unknown action %q", ErrStepRefused, st.Action)
	}

	w.Tick()
	return nil
}

// emit pushes a registered event by name, filling its payload from the step
func (r *Runner) emit(st Step, a, b core.Entity) error {
	et, ok := event.GetEventType(st.Event)
	if !ok {
		return fmt.Errorf("%w: unknown event %q", ErrStepRefused, st.Event)
	}
	payload := event.NewPayloadStruct(et)
	switch p := payload.(type) {
	case *event.DockPayload:
		p.DockA, p.DockB = a, b
	case *event.EntityPayload:
		p.Entity = a
	case *event.RefreshPayload:
		p.Reason = st.Reason
	}
	if !r.World.PushEvent(et, payload) {
		return fmt.Errorf("%w: event queue full", ErrStepRefused)
	}
	return nil
}

func (r *Runner) expect(st Step, a, b core.Entity) error {
	if st.Connected != nil {
		got := r.System.TestConnected(a, b)
		if got != *st.Connected {
			return fmt.Errorf("%w: connected(%s, %s) = %t, want %t", ErrExpectation, st.A, st.B, got, *st.Connected)
		}
	}
	if st.Edges != nil {
		var got int
		if st.A != "" && st.B != "" {
			got = r.System.PairEdgeCount(a, b)
		} else {
			got = r.System.LiveEdges()
		}
		if got != *st.Edges {
			return fmt.Errorf("%w: edges = %d, want %d", ErrExpectation, got, *st.Edges)
		}
	}
	if err := r.System.VerifyAll(); err != nil {
		return fmt.Errorf("%w: %w", ErrExpectation, err)
	}
	return nil
}
