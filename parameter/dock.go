package parameter

// Dock Bridge Matching
const (
	// MatchTieEpsilon is the distance within which same-tile candidates tie as closest
	MatchTieEpsilon = 0.01

	// PipeLayers is the number of parallel pipe layers per tile
	PipeLayers = 3

	// CableTiers is the number of cable voltage tiers (HV, MV, LV)
	CableTiers = 3

	// SweepIntervalTicks is the cadence of the dangling-edge sweep
	SweepIntervalTicks = 10
)

// Dock Bridge Defaults
const (
	DockPipesDefault   = true
	DockCableHVDefault = true
	DockCableMVDefault = false
	DockCableLVDefault = false
)
