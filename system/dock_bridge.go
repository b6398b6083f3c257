package system

import (
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/lixenwraith/dockbridge/bridge"
	"github.com/lixenwraith/dockbridge/config"
	"github.com/lixenwraith/dockbridge/core"
	"github.com/lixenwraith/dockbridge/engine"
	"github.com/lixenwraith/dockbridge/event"
	"github.com/lixenwraith/dockbridge/network"
	"github.com/lixenwraith/dockbridge/parameter"
	"github.com/lixenwraith/dockbridge/status"
)

const tracerName = "system.dockbridge"

// DockBridgeSystem joins network nodes across docked grids with always-reachable edges
// All mutation happens on the tick goroutine, inside HandleEvent, Update or RefreshAll
type DockBridgeSystem struct {
	world   *engine.World
	index   *bridge.NodeIndex
	matcher *bridge.Matcher
	rules   *network.Rules
	ledger  *network.Ledger
	cfg     config.Config

	log    *slog.Logger
	stats  *status.Registry
	tracer trace.Tracer

	// checked holds node owners already processed by anchor discovery in this pass
	checked map[core.Entity]struct{}
	passID  uuid.UUID

	ticks   int
	enabled bool
}

// Option configures a DockBridgeSystem
type Option func(*DockBridgeSystem)

// WithTracerProvider overrides the global tracer provider
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *DockBridgeSystem) {
		s.tracer = tp.Tracer(tracerName)
	}
}

// NewDockBridgeSystem creates the system and registers it with the world
func NewDockBridgeSystem(world *engine.World, cfg config.Config, opts ...Option) *DockBridgeSystem {
	rules := cfg.Rules()
	index := bridge.NewNodeIndex(world)
	s := &DockBridgeSystem{
		world:   world,
		index:   index,
		matcher: bridge.NewMatcher(world, index, rules, cfg.MatchTieEpsilon),
		rules:   rules,
		ledger:  network.NewLedger(world),
		cfg:     cfg,
		log:     world.Resources.Logger.With("system", "dockbridge"),
		stats:   world.Resources.Status,
		tracer:  otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.Init()
	world.AddSystem(s)
	return s
}

// Init resets session state
func (s *DockBridgeSystem) Init() {
	s.checked = make(map[core.Entity]struct{})
	s.passID = uuid.New()
	s.ticks = 0
	s.enabled = s.cfg.Enabled
}

// Name returns system's name
func (s *DockBridgeSystem) Name() string {
	return "dockbridge"
}

func (s *DockBridgeSystem) Priority() int {
	return parameter.PriorityDockBridge
}

// SetEnabled toggles edge formation, teardown always runs
func (s *DockBridgeSystem) SetEnabled(enabled bool) {
	s.enabled = enabled
}

// Ledger exposes the edge ledger for inspection
func (s *DockBridgeSystem) Ledger() *network.Ledger {
	return s.ledger
}

// Matcher exposes the dock matcher for inspection
func (s *DockBridgeSystem) Matcher() *bridge.Matcher {
	return s.matcher
}

// PassID identifies the current checked-set pass
func (s *DockBridgeSystem) PassID() uuid.UUID {
	return s.passID
}

func (s *DockBridgeSystem) EventTypes() []event.EventType {
	return []event.EventType{
		event.EventDockFormed,
		event.EventDockBroken,
		event.EventEntityTerminating,
		event.EventNodeAnchored,
		event.EventNodeUnanchored,
		event.EventRefreshRequest,
	}
}

func (s *DockBridgeSystem) HandleEvent(ev event.Event) {
	switch ev.Type {
	case event.EventDockFormed:
		if a, b, ok := event.DocksOf(ev); ok && s.enabled {
			s.handleDockFormed(a, b)
		}

	case event.EventDockBroken:
		if a, b, ok := event.DocksOf(ev); ok {
			s.handleDockBroken(a, b)
		}

	case event.EventEntityTerminating:
		if e, ok := event.EntityOf(ev); ok {
			s.handleTerminating(e)
		}

	case event.EventNodeAnchored:
		if e, ok := event.EntityOf(ev); ok && s.enabled {
			s.handleAnchored(e)
		}

	case event.EventNodeUnanchored:
		if e, ok := event.EntityOf(ev); ok {
			s.handleUnanchored(e)
		}

	case event.EventRefreshRequest:
		if s.enabled {
			s.RefreshAll()
		}
	}
}

// Update runs the dangling-edge sweep on its cadence
func (s *DockBridgeSystem) Update() {
	s.ticks++
	interval := s.cfg.SweepIntervalTicks
	if interval <= 0 || s.ticks%interval != 0 {
		return
	}
	s.Sweep()
}

// Sweep prunes dangling edges across every node and refreshes the gauges
func (s *DockBridgeSystem) Sweep() {
	o := s.begin("Sweep")
	defer s.end(o)

	nodes := s.world.AllNodes()
	for _, n := range nodes {
		if n.ReachableCount() > 0 {
			s.prune(o, n, status.ReasonPrune)
		}
	}
	s.stats.LiveEdges.Set(float64(s.ledger.CountEdges(nodes)))
	s.stats.DockedPairs.Set(float64(len(s.DockedPairs())))
}

// RefreshAll rebuilds every docked pair's edges from scratch and starts a new checked-set pass
// Bounded to currently docked pairs
func (s *DockBridgeSystem) RefreshAll() {
	s.passID = uuid.New()
	clear(s.checked)

	o := s.begin("RefreshAll")
	defer s.end(o)

	pairs := s.DockedPairs()
	for _, p := range pairs {
		s.breakPair(o, p.A, p.B, status.ReasonRefresh)
	}
	for _, p := range pairs {
		s.formPair(o, p.A, p.B, status.ReasonRefresh)
	}
	s.stats.Refreshes.Inc()
}
