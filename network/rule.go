package network

// Cable tiers are cable layers
const (
	CableTierHV = 0
	CableTierMV = 1
	CableTierLV = 2
)

// KindRule holds kind-specific docking policy
type KindRule interface {
	Kind() Kind

	// Docks reports whether n takes part in dock bridging at all
	Docks(n *Node) bool

	// Compatible adds kind-specific conditions on top of the shared ones
	Compatible(a, b *Node) bool

	// UniquePerLayer keeps one candidate per group and layer on a dock tile
	UniquePerLayer() bool
}

// PipeRule bridges gas pipes on every layer
type PipeRule struct {
	Enabled bool
}

func (PipeRule) Kind() Kind { return KindPipe }

func (r PipeRule) Docks(n *Node) bool { return r.Enabled && n.Kind == KindPipe }

func (PipeRule) Compatible(a, b *Node) bool { return true }

func (PipeRule) UniquePerLayer() bool { return false }

// CableRule bridges cables per voltage tier, indexed by layer
type CableRule struct {
	Tiers [3]bool
}

func (CableRule) Kind() Kind { return KindCable }

func (r CableRule) Docks(n *Node) bool {
	return n.Kind == KindCable && r.tierEnabled(n.Layer)
}

func (r CableRule) Compatible(a, b *Node) bool {
	return r.tierEnabled(a.Layer) && r.tierEnabled(b.Layer)
}

func (CableRule) UniquePerLayer() bool { return true }

func (r CableRule) tierEnabled(layer int) bool {
	return layer >= 0 && layer < len(r.Tiers) && r.Tiers[layer]
}

// Rules decides which node pairs may be joined
type Rules struct {
	kinds map[Kind]KindRule
}

// NewRules builds the rule set, kinds without a rule never dock
func NewRules(rules ...KindRule) *Rules {
	r := &Rules{kinds: make(map[Kind]KindRule, len(rules))}
	for _, kr := range rules {
		r.kinds[kr.Kind()] = kr
	}
	return r
}

// CanConnect returns true iff a and b share kind, group and layer, neither is pending deletion,
// and the kind rule agrees
func (r *Rules) CanConnect(a, b *Node) bool {
	if a == nil || b == nil || a.Ref == b.Ref {
		return false
	}
	if a.Deleting || b.Deleting {
		return false
	}
	if a.Kind != b.Kind || a.Group != b.Group || a.Layer != b.Layer {
		return false
	}
	kr, ok := r.kinds[a.Kind]
	if !ok {
		return false
	}
	return kr.Compatible(a, b)
}

// Docks reports whether n participates in dock bridging
func (r *Rules) Docks(n *Node) bool {
	if n == nil {
		return false
	}
	kr, ok := r.kinds[n.Kind]
	return ok && kr.Docks(n)
}

// UniquePerLayer reports the per-tile dedup policy for kind k
func (r *Rules) UniquePerLayer(k Kind) bool {
	kr, ok := r.kinds[k]
	return ok && kr.UniquePerLayer()
}
