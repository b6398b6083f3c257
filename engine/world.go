package engine

import (
	"math"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/lixenwraith/dockbridge/component"
	"github.com/lixenwraith/dockbridge/core"
	"github.com/lixenwraith/dockbridge/event"
	"github.com/lixenwraith/dockbridge/network"
)

// System is a tick participant, lower priority runs first
type System interface {
	Name() string
	Priority() int
	Update()
}

// ComponentStore groups the typed stores of a world
type ComponentStore struct {
	Transform *Store[component.TransformComponent]
	Grid      *Store[component.GridComponent]
	Dock      *Store[component.DockComponent]
	Nodes     *Store[component.NodeContainerComponent]
}

func (c ComponentStore) all() []AnyStore {
	return []AnyStore{c.Transform, c.Grid, c.Dock, c.Nodes}
}

// World contains all entities and their components using typed stores
type World struct {
	mu           sync.RWMutex
	nextEntityID core.Entity

	Components ComponentStore
	Tiles      *TileIndex
	Resources  *Resources

	events *event.EventQueue
	router *EventRouter
	frame  atomic.Int64

	systems []System
}

// NewWorld creates a world with an event queue of the given capacity
func NewWorld(res *Resources, queueSize int) *World {
	if res == nil {
		res = NewResources(nil)
	}
	q := event.NewEventQueue(queueSize)
	return &World{
		nextEntityID: 1,
		Components: ComponentStore{
			Transform: NewStore[component.TransformComponent](),
			Grid:      NewStore[component.GridComponent](),
			Dock:      NewStore[component.DockComponent](),
			Nodes:     NewStore[component.NodeContainerComponent](),
		},
		Tiles:     NewTileIndex(),
		Resources: res,
		events:    q,
		router:    NewEventRouter(q),
	}
}

// CreateEntity reserves a new entity ID
func (w *World) CreateEntity() core.Entity {
	w.mu.Lock()
	defer w.mu.Unlock()

	id := w.nextEntityID
	w.nextEntityID++
	return id
}

// Exists reports whether any store holds a component for e
func (w *World) Exists(e core.Entity) bool {
	for _, s := range w.Components.all() {
		if s.HasEntity(e) {
			return true
		}
	}
	return false
}

// DestroyEntity announces termination synchronously, then removes all components
// Handlers observe the entity intact; a docked partner, or every pair of a destroyed grid's docks, is released afterwards
func (w *World) DestroyEntity(e core.Entity) {
	if e.IsNull() || !w.Exists(e) {
		return
	}

	w.router.Dispatch(event.Event{
		Type:    event.EventEntityTerminating,
		Payload: &event.EntityPayload{Entity: e},
		Frame:   w.frame.Load(),
	})

	w.releaseDock(e)
	if w.Components.Grid.HasEntity(e) {
		for _, d := range w.Components.Dock.GetAllEntities() {
			if tr, ok := w.Components.Transform.GetComponent(d); ok && tr.Grid == e {
				w.releaseDock(d)
			}
		}
	}
	w.PurgeEntity(e)
}

// releaseDock frees a dock and its partner without announcing it
func (w *World) releaseDock(dock core.Entity) {
	d, ok := w.Components.Dock.GetComponent(dock)
	if !ok || !d.Docked() {
		return
	}
	w.Components.Dock.SetComponent(dock, component.DockComponent{})
	w.Components.Dock.UpdateComponent(d.DockedWith, func(p *component.DockComponent) {
		if p.DockedWith == dock {
			p.DockedWith = 0
		}
	})
}

// PurgeEntity removes all components of e without any lifecycle dispatch
// Models an entity that vanished while its termination event was missed
func (w *World) PurgeEntity(e core.Entity) {
	w.Tiles.Remove(e)
	for _, s := range w.Components.all() {
		s.RemoveEntity(e)
	}
}

// AddSystem adds a system sorted by priority, handlers are registered with the router
func (w *World) AddSystem(system System) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.systems = append(w.systems, system)
	slices.SortStableFunc(w.systems, func(a, b System) int {
		return a.Priority() - b.Priority()
	})

	if h, ok := system.(EventHandler); ok {
		w.router.Register(h)
	}
}

// Systems returns a copy of all registered systems
func (w *World) Systems() []System {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return slices.Clone(w.systems)
}

// Tick advances one simulation step: dispatch all pending events, then update systems in priority order
func (w *World) Tick() {
	w.frame.Add(1)
	w.router.DispatchAll()

	for _, s := range w.Systems() {
		s.Update()
	}
}

// FrameNumber returns the current tick index
func (w *World) FrameNumber() int64 {
	return w.frame.Load()
}

// Events exposes the queue for producers on other goroutines
func (w *World) Events() *event.EventQueue {
	return w.events
}

// PushEvent queues an event for the next dispatch, drops are counted
func (w *World) PushEvent(eventType event.EventType, payload any) bool {
	return w.pushed(eventType, w.events.Push(event.Event{
		Type:    eventType,
		Payload: payload,
		Frame:   w.frame.Load(),
	}))
}

// emitDock queues a dock lifecycle event for a pair
func (w *World) emitDock(eventType event.EventType, a, b core.Entity) bool {
	return w.pushed(eventType, event.EmitDock(w.events, eventType, a, b, w.frame.Load()))
}

// emitEntity queues an entity lifecycle event
func (w *World) emitEntity(eventType event.EventType, e core.Entity) bool {
	return w.pushed(eventType, event.EmitEntity(w.events, eventType, e, w.frame.Load()))
}

// pushed counts a rejected push and notes events nobody listens to
func (w *World) pushed(eventType event.EventType, ok bool) bool {
	if !ok {
		w.Resources.Status.EventsDropped.Inc()
		w.Resources.Logger.Warn("event dropped, queue full",
			"type", eventType.String(),
			"capacity", w.events.Cap(),
		)
		return false
	}
	if !w.router.HasHandlers(eventType) {
		w.Resources.Logger.Debug("event queued without handlers", "type", eventType.String())
	}
	return true
}

// --- Spatial queries ---

// AnchoredEntitiesAtTile returns the entities anchored at (grid, tile) in id order
func (w *World) AnchoredEntitiesAtTile(grid core.Entity, tile core.Tile) []core.Entity {
	return w.Tiles.At(grid, tile)
}

// TileIndexFor maps a grid-local position to its tile
func (w *World) TileIndexFor(grid core.Entity, pos core.Vec2) core.Tile {
	return core.Tile{X: int(math.Floor(pos.X)), Y: int(math.Floor(pos.Y))}
}

// WorldRotationOf returns a grid's world rotation, zero for unknown grids
func (w *World) WorldRotationOf(grid core.Entity) core.Angle {
	g, ok := w.Components.Grid.GetComponent(grid)
	if !ok {
		return 0
	}
	return g.Rotation
}

// TileOf returns the grid and tile an entity is placed on
func (w *World) TileOf(e core.Entity) (core.Entity, core.Tile, bool) {
	tr, ok := w.Components.Transform.GetComponent(e)
	if !ok || tr.Grid.IsNull() {
		return 0, core.Tile{}, false
	}
	return tr.Grid, w.TileIndexFor(tr.Grid, tr.Local), true
}

// --- Graph engine ---

// RequestGroupRecompute defers recomputation of net to the graph engine
func (w *World) RequestGroupRecompute(net network.NetID) {
	w.Resources.Recompute.Request(net)
}

// ResolveNode looks up a live node by ref
func (w *World) ResolveNode(ref network.NodeRef) (*network.Node, bool) {
	c, ok := w.Components.Nodes.GetComponent(ref.Owner)
	if !ok {
		return nil, false
	}
	return c.Node(ref.Name)
}

// NodesOf returns the nodes owned by e
func (w *World) NodesOf(e core.Entity) []*network.Node {
	c, ok := w.Components.Nodes.GetComponent(e)
	if !ok {
		return nil
	}
	return c.Nodes
}

// AllNodes returns every node in the world ordered by ref
func (w *World) AllNodes() []*network.Node {
	var nodes []*network.Node
	for _, e := range w.Components.Nodes.GetAllEntities() {
		nodes = append(nodes, w.NodesOf(e)...)
	}
	return nodes
}
