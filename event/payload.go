package event

import "github.com/lixenwraith/dockbridge/core"

// DockPayload carries the two docks of a forming or breaking pair
type DockPayload struct {
	DockA core.Entity `yaml:"dock_a"`
	DockB core.Entity `yaml:"dock_b"`
}

// EntityPayload carries a single entity for lifecycle events
type EntityPayload struct {
	Entity core.Entity `yaml:"entity"`
}

// RefreshPayload carries the operator's reason for a refresh
type RefreshPayload struct {
	Reason string `yaml:"reason"`
}
