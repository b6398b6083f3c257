package event

// EventType represents the type of lifecycle event
type EventType int

const (
	// EventNone is the zero type, never routed
	EventNone EventType = iota

	// === Dock Lifecycle ===

	// EventDockFormed signals two docks became rigidly joined
	// Trigger: Docking subsystem | Consumer: DockBridgeSystem | Payload: *DockPayload
	EventDockFormed

	// EventDockBroken signals a dock pair separated
	// Docks still report their last tile and facing when this fires
	// Trigger: Docking subsystem | Consumer: DockBridgeSystem | Payload: *DockPayload
	EventDockBroken

	// === Entity Lifecycle ===

	// EventEntityTerminating fires before an entity's components are removed
	// Dispatched synchronously by World.DestroyEntity
	// Consumer: DockBridgeSystem | Payload: *EntityPayload
	EventEntityTerminating

	// EventNodeAnchored fires when a node-bearing entity becomes anchored to a grid
	// Trigger: World.Anchor, construction | Consumer: DockBridgeSystem | Payload: *EntityPayload
	EventNodeAnchored

	// EventNodeUnanchored fires when a node-bearing entity is detached from its tile
	// Trigger: World.Unanchor | Consumer: DockBridgeSystem | Payload: *EntityPayload
	EventNodeUnanchored

	// === Operator ===

	// EventRefreshRequest asks for a full rebuild of dock edges
	// Trigger: Sandbox, operator | Consumer: DockBridgeSystem | Payload: *RefreshPayload or nil
	EventRefreshRequest
)

// Event is a queued lifecycle notification
type Event struct {
	Type    EventType
	Payload any
	Frame   int64
}
