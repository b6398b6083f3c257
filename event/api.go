package event

import "github.com/lixenwraith/dockbridge/core"

// EmitDock queues a dock lifecycle event for a pair
func EmitDock(q *EventQueue, et EventType, a, b core.Entity, frame int64) bool {
	return q.Push(Event{
		Type:    et,
		Payload: &DockPayload{DockA: a, DockB: b},
		Frame:   frame,
	})
}

// EmitEntity queues an entity lifecycle event
func EmitEntity(q *EventQueue, et EventType, e core.Entity, frame int64) bool {
	return q.Push(Event{
		Type:    et,
		Payload: &EntityPayload{Entity: e},
		Frame:   frame,
	})
}

// EntityOf extracts the entity from an entity lifecycle payload
// Accepts a bare core.Entity for callers that skip the payload struct
func EntityOf(ev Event) (core.Entity, bool) {
	switch p := ev.Payload.(type) {
	case *EntityPayload:
		if p == nil {
			return 0, false
		}
		return p.Entity, true
	case core.Entity:
		return p, true
	}
	return 0, false
}

// DocksOf extracts the pair from a dock lifecycle payload
func DocksOf(ev Event) (core.Entity, core.Entity, bool) {
	p, ok := ev.Payload.(*DockPayload)
	if !ok || p == nil {
		return 0, 0, false
	}
	return p.DockA, p.DockB, true
}
