package parameter

import "time"

// Simulation Loop
const (
	// TickInterval is the autoplay step interval of the sandbox viewer
	TickInterval = 500 * time.Millisecond

	// DefaultTicks is the tick count of a scenario tick step without an explicit count
	DefaultTicks = 4
)

// ECS & Resources Limits
const (
	// EventQueueSize is the default capacity of the event ring buffer, must be a power of two
	EventQueueSize = 2048

	// MinEventQueueSize and MaxEventQueueSize bound the configurable capacity
	MinEventQueueSize = 64
	MaxEventQueueSize = 1 << 16
)

// DispatchIterations bounds how many queue drains one tick performs so handler-emitted events settle
const DispatchIterations = 16
