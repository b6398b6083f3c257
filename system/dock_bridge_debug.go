package system

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lixenwraith/dockbridge/core"
	"github.com/lixenwraith/dockbridge/network"
)

// PairEdgeCount returns the live edges between the candidate nodes of a pair
func (s *DockBridgeSystem) PairEdgeCount(a, b core.Entity) int {
	sa, okA := s.matcher.Site(a)
	sb, okB := s.matcher.Site(b)
	if !okA || !okB {
		return 0
	}
	count := 0
	cb := s.matcher.Candidates(sb)
	for _, x := range s.matcher.Candidates(sa) {
		for _, y := range cb {
			if s.ledger.Connected(x.Node, y.Node) && !x.Node.Deleting && !y.Node.Deleting {
				count++
			}
		}
	}
	return count
}

// LiveEdges returns the number of live edges in the world
func (s *DockBridgeSystem) LiveEdges() int {
	return s.ledger.CountEdges(s.world.AllNodes())
}

// DebugSummary lists every docked pair and its live edge count
func (s *DockBridgeSystem) DebugSummary() string {
	var b strings.Builder
	pairs := s.DockedPairs()
	fmt.Fprintf(&b, "Dock bridge: enabled=%t pass=%s checked=%d pairs=%d edges=%d\n",
		s.enabled, s.passID, len(s.checked), len(pairs), s.LiveEdges())
	for _, p := range pairs {
		fmt.Fprintf(&b, "Dock %d <-> %d: %d connections\n", p.A, p.B, s.PairEdgeCount(p.A, p.B))
	}
	return b.String()
}

// DebugNode lists the partners of every node owned by e
func (s *DockBridgeSystem) DebugNode(e core.Entity) string {
	nodes := s.world.NodesOf(e)
	if len(nodes) == 0 {
		return fmt.Sprintf("Entity %d has no network nodes\n", e)
	}

	var b strings.Builder
	_, checked := s.checked[e]
	fmt.Fprintf(&b, "Entity %d dock connections (checked=%t):\n", e, checked)
	for _, n := range nodes {
		fmt.Fprintf(&b, "  %s net=%d deleting=%t\n", s.describe(n), n.Net, n.Deleting)
		partners := n.Partners()
		if len(partners) == 0 {
			b.WriteString("    (none)\n")
			continue
		}
		for _, ref := range partners {
			p, ok := s.world.ResolveNode(ref)
			switch {
			case !ok:
				fmt.Fprintf(&b, "    -> %s (dangling)\n", ref)
			case p.Deleting:
				fmt.Fprintf(&b, "    -> %s (deleting)\n", ref)
			default:
				fmt.Fprintf(&b, "    -> %s\n", s.describe(p))
			}
		}
	}
	return b.String()
}

// DebugTile lists anchored entities at a tile with their node summaries
func (s *DockBridgeSystem) DebugTile(grid core.Entity, tile core.Tile) string {
	var b strings.Builder
	entities := s.world.AnchoredEntitiesAtTile(grid, tile)
	fmt.Fprintf(&b, "Grid %d tile %s: %d anchored\n", grid, tile, len(entities))
	cands := s.index.NodesAtTile(grid, tile)
	for _, e := range entities {
		if site, ok := s.matcher.Site(e); ok {
			partner, docked := s.world.DockPartner(e)
			fmt.Fprintf(&b, "  %d dock facing %s edge %s", e, site.Facing, site.EdgeTile())
			if docked {
				fmt.Fprintf(&b, " docked with %d", partner)
			}
			b.WriteString("\n")
		}
		for _, c := range cands {
			if c.Owner == e {
				fmt.Fprintf(&b, "  %s edges=%d\n", s.describe(c.Node), c.Node.ReachableCount())
			}
		}
	}
	return b.String()
}

// TestConnected reports whether any node pair between the two owners has a live edge
func (s *DockBridgeSystem) TestConnected(a, b core.Entity) bool {
	nb := s.world.NodesOf(b)
	for _, x := range s.world.NodesOf(a) {
		if x.Deleting {
			continue
		}
		for _, y := range nb {
			if !y.Deleting && s.ledger.Connected(x, y) {
				return true
			}
		}
	}
	return false
}

// VerifyAll checks edge symmetry on every node, joining all violations
func (s *DockBridgeSystem) VerifyAll() error {
	var errs []error
	for _, n := range s.world.AllNodes() {
		if err := s.ledger.Verify(n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// VisualLayer returns the layer n appears on given its grid's world rotation
func (s *DockBridgeSystem) VisualLayer(n *network.Node) int {
	grid, _, ok := s.world.TileOf(n.Ref.Owner)
	if !ok {
		return n.Layer
	}
	k := s.world.WorldRotationOf(grid).QuarterTurns()
	return network.VisualLayer(n.Layer, k, s.cfg.LayersFor(n.Kind))
}

func (s *DockBridgeSystem) describe(n *network.Node) string {
	return fmt.Sprintf("%s %s group=%s layer=%d visual=%d dir=%s",
		n.Ref, n.Kind, n.Group, n.Layer, s.VisualLayer(n), n.Directions)
}
