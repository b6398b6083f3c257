package system

import (
	"cmp"
	"slices"

	"go.opentelemetry.io/otel/attribute"

	"github.com/lixenwraith/dockbridge/bridge"
	"github.com/lixenwraith/dockbridge/core"
	"github.com/lixenwraith/dockbridge/network"
	"github.com/lixenwraith/dockbridge/status"
)

// DockPair is a mutually docked pair with A < B
type DockPair struct {
	A core.Entity
	B core.Entity
}

// DockedPairs enumerates every mutually docked pair once
func (s *DockBridgeSystem) DockedPairs() []DockPair {
	var pairs []DockPair
	for _, d := range s.world.Components.Dock.GetAllEntities() {
		p, ok := s.world.DockPartner(d)
		if ok && d < p && s.world.MutuallyDocked(d, p) {
			pairs = append(pairs, DockPair{A: d, B: p})
		}
	}
	return pairs
}

// --- Lifecycle handlers ---

func (s *DockBridgeSystem) handleDockFormed(a, b core.Entity) {
	o := s.begin("DockFormed", pairAttrs(a, b)...)
	defer s.end(o)
	s.formPair(o, a, b, status.ReasonDock)
}

func (s *DockBridgeSystem) handleDockBroken(a, b core.Entity) {
	o := s.begin("DockBroken", pairAttrs(a, b)...)
	defer s.end(o)
	s.breakPair(o, a, b, status.ReasonUndock)
}

func (s *DockBridgeSystem) handleTerminating(e core.Entity) {
	o := s.begin("EntityTerminating", attribute.Int64("entity", int64(e)))
	defer s.end(o)

	nodes := s.world.NodesOf(e)
	for _, n := range nodes {
		n.Deleting = true
	}

	if partner, ok := s.world.DockPartner(e); ok && s.world.MutuallyDocked(e, partner) {
		s.breakPair(o, e, partner, status.ReasonTerminate)
	}

	// A vanishing grid takes its docks' tiles with it, tear their pairs down while still resolvable
	if s.world.Components.Grid.HasEntity(e) {
		for _, p := range s.DockedPairs() {
			if s.onGrid(p.A, e) || s.onGrid(p.B, e) {
				s.breakPair(o, p.A, p.B, status.ReasonTerminate)
			}
		}
	}

	for _, n := range nodes {
		partners := s.ledger.PartnersOf(n)
		s.disconnectAll(o, n, status.ReasonTerminate)
		for _, p := range partners {
			s.prune(o, p, status.ReasonPrune)
		}
	}

	delete(s.checked, e)
}

func (s *DockBridgeSystem) handleAnchored(e core.Entity) {
	o := s.begin("NodeAnchored", attribute.Int64("entity", int64(e)))
	defer s.end(o)

	if _, done := s.checked[e]; done {
		s.trace(o, decisionSkipped, attribute.Int64("entity", int64(e)), attribute.String("reason", "checked"))
		return
	}
	tr, ok := s.world.Components.Transform.GetComponent(e)
	if !ok || !tr.Anchored {
		s.trace(o, decisionSkipped, attribute.Int64("entity", int64(e)), attribute.String("reason", "not anchored"))
		return
	}
	nodes := s.world.NodesOf(e)
	if len(nodes) == 0 {
		return
	}
	s.checked[e] = struct{}{}

	tile := s.world.TileIndexFor(tr.Grid, tr.Local)
	for _, n := range nodes {
		if n.Deleting {
			continue
		}
		s.attachNode(o, n, tr.Grid, tile, nil, status.ReasonAnchor)
	}
}

func (s *DockBridgeSystem) handleUnanchored(e core.Entity) {
	o := s.begin("NodeUnanchored", attribute.Int64("entity", int64(e)))
	defer s.end(o)

	for _, n := range s.world.NodesOf(e) {
		s.disconnectAll(o, n, status.ReasonUnanchor)
	}
	delete(s.checked, e)
}

// --- Pair logic ---

// formPair connects every compatible cross pair of the two matching sets,
// then runs the late-attach sweep for each matched node
func (s *DockBridgeSystem) formPair(o *op, a, b core.Entity, reason string) {
	if !s.world.MutuallyDocked(a, b) {
		s.stats.DocksRejected.Inc()
		s.trace(o, decisionDockRefused, append(pairAttrs(a, b), attribute.String("reason", "not mutually docked"))...)
		return
	}
	sa, okA := s.matcher.Site(a)
	sb, okB := s.matcher.Site(b)
	if !okA || !okB {
		s.stats.DocksRejected.Inc()
		s.trace(o, decisionDockRefused, append(pairAttrs(a, b), attribute.String("reason", "dock unresolved"))...)
		return
	}

	ma := s.match(o, sa)
	mb := s.match(o, sb)
	for _, x := range ma {
		for _, y := range mb {
			s.connect(o, x.Node, y.Node, reason)
		}
	}

	exclude := map[core.Entity]bool{a: true, b: true}
	for _, c := range ma {
		s.attachNode(o, c.Node, sa.Grid, s.world.TileIndexFor(sa.Grid, c.Pos), exclude, status.ReasonLateAttach)
	}
	for _, c := range mb {
		s.attachNode(o, c.Node, sb.Grid, s.world.TileIndexFor(sb.Grid, c.Pos), exclude, status.ReasonLateAttach)
	}
}

// breakPair removes every edge between nodes on the two docks' own and edge tiles
// The candidate sets are a superset of any matching set the pair ever produced
func (s *DockBridgeSystem) breakPair(o *op, a, b core.Entity, reason string) int {
	sa, okA := s.matcher.Site(a)
	sb, okB := s.matcher.Site(b)
	if !okA || !okB {
		s.trace(o, decisionDockRefused, append(pairAttrs(a, b), attribute.String("reason", "dock unresolved"))...)
		return 0
	}

	removed := 0
	cb := s.matcher.Candidates(sb)
	for _, x := range s.matcher.Candidates(sa) {
		for _, y := range cb {
			if s.disconnect(o, x.Node, y.Node, reason) {
				removed++
			}
		}
	}
	return removed
}

// attachNode connects n to the far side of every other docked pair whose dock at n's tile matches n
// When n arrives on the edge tile, edges the same tile made to that far side are removed
// The owning pair's undock removes the rest
func (s *DockBridgeSystem) attachNode(o *op, n *network.Node, grid core.Entity, tile core.Tile, exclude map[core.Entity]bool, reason string) int {
	added := 0
	for _, site := range s.docksNear(grid, tile) {
		if exclude[site.Dock] {
			continue
		}
		partner, ok := s.world.DockPartner(site.Dock)
		if !ok || exclude[partner] || !s.world.MutuallyDocked(site.Dock, partner) {
			continue
		}
		src, matched := s.matcher.Matches(site, n)
		if !matched {
			continue
		}
		far, ok := s.matcher.Site(partner)
		if !ok {
			continue
		}
		farNodes := s.match(o, far)
		for _, c := range farNodes {
			if s.connect(o, n, c.Node, reason) {
				added++
			}
		}
		if src == bridge.MatchEdgeTile {
			s.dropSameTile(o, site, farNodes)
		}
	}
	return added
}

// dropSameTile removes edges between the site's own tile and the far matching set
func (s *DockBridgeSystem) dropSameTile(o *op, site bridge.DockSite, far []bridge.Candidate) {
	for _, x := range s.matcher.SameTile(site) {
		for _, y := range far {
			s.disconnect(o, x.Node, y.Node, status.ReasonSupersede)
		}
	}
}

// docksNear returns docks on grid whose own tile or edge tile is tile
func (s *DockBridgeSystem) docksNear(grid core.Entity, tile core.Tile) []bridge.DockSite {
	tiles := []core.Tile{tile}
	for _, d := range core.Cardinals {
		tiles = append(tiles, tile.Offset(d))
	}

	var sites []bridge.DockSite
	seen := make(map[core.Entity]struct{})
	for _, t := range tiles {
		for _, e := range s.world.AnchoredEntitiesAtTile(grid, t) {
			if _, dup := seen[e]; dup {
				continue
			}
			seen[e] = struct{}{}
			site, ok := s.matcher.Site(e)
			if !ok || site.Grid != grid {
				continue
			}
			if site.Tile == tile || site.EdgeTile() == tile {
				sites = append(sites, site)
			}
		}
	}
	slices.SortFunc(sites, func(a, b bridge.DockSite) int {
		return cmp.Compare(a.Dock, b.Dock)
	})
	return sites
}

func (s *DockBridgeSystem) onGrid(dock, grid core.Entity) bool {
	tr, ok := s.world.Components.Transform.GetComponent(dock)
	return ok && tr.Grid == grid
}

// --- Edge primitives, the only callers of the ledger's mutators ---

func (s *DockBridgeSystem) match(o *op, site bridge.DockSite) []bridge.Candidate {
	cands, src := s.matcher.Match(site)
	s.stats.MatchOutcomes.WithLabelValues(src.String()).Inc()
	s.trace(o, decisionMatch,
		attribute.Int64("dock", int64(site.Dock)),
		attribute.String("tile", site.Tile.String()),
		attribute.String("facing", site.Facing.String()),
		attribute.String("source", src.String()),
		attribute.Int("nodes", len(cands)),
	)
	return cands
}

func (s *DockBridgeSystem) connect(o *op, a, b *network.Node, reason string) bool {
	if !s.rules.CanConnect(a, b) {
		s.trace(o, decisionRejected, append(nodeAttrs(a, b), attribute.String("reason", reason))...)
		return false
	}
	if !s.ledger.Connect(a, b) {
		return false
	}
	o.nets.Add(a.Net, b.Net)
	s.stats.EdgesAdded.WithLabelValues(a.Kind.String(), reason).Inc()
	s.trace(o, decisionEdgeAdded, append(nodeAttrs(a, b), attribute.String("reason", reason))...)
	return true
}

func (s *DockBridgeSystem) disconnect(o *op, a, b *network.Node, reason string) bool {
	if !s.ledger.Disconnect(a, b) {
		return false
	}
	o.nets.Add(a.Net, b.Net)
	s.stats.EdgesRemoved.WithLabelValues(a.Kind.String(), reason).Inc()
	s.trace(o, decisionEdgeRemoved, append(nodeAttrs(a, b), attribute.String("reason", reason))...)
	return true
}

// disconnectAll drops every edge of n, resolvable partners first, then anything dangling
func (s *DockBridgeSystem) disconnectAll(o *op, n *network.Node, reason string) {
	for _, p := range s.ledger.PartnersOf(n) {
		s.disconnect(o, n, p, reason)
	}
	s.prune(o, n, reason)
}

func (s *DockBridgeSystem) prune(o *op, n *network.Node, reason string) int {
	before := n.ReachableCount()
	nets := s.ledger.PruneDangling(n)
	removed := before - n.ReachableCount()
	if removed == 0 {
		return 0
	}
	o.nets.Add(nets...)
	s.stats.EdgesRemoved.WithLabelValues(n.Kind.String(), reason).Add(float64(removed))
	s.trace(o, decisionPruned,
		attribute.String("node", n.Ref.String()),
		attribute.Int("removed", removed),
		attribute.String("reason", reason),
	)
	return removed
}

func pairAttrs(a, b core.Entity) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int64("dock_a", int64(a)),
		attribute.Int64("dock_b", int64(b)),
	}
}
