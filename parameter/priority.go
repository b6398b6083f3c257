package parameter

// System Execution Priorities (lower runs first)
const (
	PriorityDockBridge = 100 // After lifecycle dispatch, owns the idle sweep
)
