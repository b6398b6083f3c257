package bridge

import (
	"fmt"

	"github.com/lixenwraith/dockbridge/core"
	"github.com/lixenwraith/dockbridge/engine"
	"github.com/lixenwraith/dockbridge/network"
)

// MatchSource tells which tile supplied the matched nodes
type MatchSource uint8

const (
	MatchNone MatchSource = iota
	MatchEdgeTile
	MatchSameTile
)

func (s MatchSource) String() string {
	switch s {
	case MatchEdgeTile:
		return "edge_tile"
	case MatchSameTile:
		return "same_tile"
	}
	return "none"
}

// DockSite is a dock's last known placement
type DockSite struct {
	Dock   core.Entity
	Grid   core.Entity
	Tile   core.Tile
	Facing core.Direction
	Pos    core.Vec2
}

// EdgeTile is the tile one step from the dock along its facing
func (s DockSite) EdgeTile() core.Tile {
	return s.Tile.Offset(s.Facing)
}

func (s DockSite) String() string {
	return fmt.Sprintf("dock %d grid %d tile %s facing %s", s.Dock, s.Grid, s.Tile, s.Facing)
}

// Matcher selects the nodes that face a dock
type Matcher struct {
	world   *engine.World
	index   *NodeIndex
	rules   *network.Rules
	epsilon float64
}

// NewMatcher creates a matcher, epsilon is the same-tile distance tie tolerance
func NewMatcher(world *engine.World, index *NodeIndex, rules *network.Rules, epsilon float64) *Matcher {
	return &Matcher{
		world:   world,
		index:   index,
		rules:   rules,
		epsilon: epsilon,
	}
}

// Site resolves a dock entity to its placement
// Returns false if the entity is not a dock or is not on a grid
func (m *Matcher) Site(dock core.Entity) (DockSite, bool) {
	if !m.world.Components.Dock.HasEntity(dock) {
		return DockSite{}, false
	}
	tr, ok := m.world.Components.Transform.GetComponent(dock)
	if !ok || tr.Grid.IsNull() {
		return DockSite{}, false
	}
	return DockSite{
		Dock:   dock,
		Grid:   tr.Grid,
		Tile:   m.world.TileIndexFor(tr.Grid, tr.Local),
		Facing: tr.Rotation.CardinalDir(),
		Pos:    tr.Local,
	}, true
}

// MatchingNodes returns the nodes facing dock, empty if dock cannot be resolved
func (m *Matcher) MatchingNodes(dock core.Entity) []Candidate {
	site, ok := m.Site(dock)
	if !ok {
		return nil
	}
	nodes, _ := m.Match(site)
	return nodes
}

// Match applies the two-tier rule to a site
// Qualifying nodes on the edge tile win outright; otherwise the qualifying nodes on the
// dock's own tile closest to the dock, ties within epsilon included
func (m *Matcher) Match(site DockSite) ([]Candidate, MatchSource) {
	if edge := m.qualifying(site, site.EdgeTile()); len(edge) > 0 {
		return m.dedup(edge), MatchEdgeTile
	}

	own := m.qualifying(site, site.Tile)
	if len(own) == 0 {
		return nil, MatchNone
	}

	best := own[0].Pos.Distance(site.Pos)
	for _, c := range own[1:] {
		best = min(best, c.Pos.Distance(site.Pos))
	}
	closest := own[:0:0]
	for _, c := range own {
		if c.Pos.Distance(site.Pos)-best <= m.epsilon {
			closest = append(closest, c)
		}
	}
	return m.dedup(closest), MatchSameTile
}

// Candidates returns every node on the site's own and edge tiles, without facing filters
// Undocking uses it so no edge created from any match of this site survives
func (m *Matcher) Candidates(site DockSite) []Candidate {
	out := m.SameTile(site)
	return append(out, m.index.NodesAtTile(site.Grid, site.EdgeTile())...)
}

// SameTile returns every node on the site's own tile, without facing filters
func (m *Matcher) SameTile(site DockSite) []Candidate {
	return m.index.NodesAtTile(site.Grid, site.Tile)
}

// Matches reports whether node n is in the site's matching set and which tile supplied it
func (m *Matcher) Matches(site DockSite, n *network.Node) (MatchSource, bool) {
	nodes, src := m.Match(site)
	for _, c := range nodes {
		if c.Node == n {
			return src, true
		}
	}
	return src, false
}

func (m *Matcher) qualifying(site DockSite, tile core.Tile) []Candidate {
	var out []Candidate
	for _, c := range m.index.NodesAtTile(site.Grid, tile) {
		if c.Owner == site.Dock || c.Node.Deleting {
			continue
		}
		if !c.Node.Directions.Has(site.Facing) || !m.rules.Docks(c.Node) {
			continue
		}
		out = append(out, c)
	}
	return out
}

type layerKey struct {
	kind  network.Kind
	group network.GroupID
	layer int
}

// dedup keeps the first node per (group, layer) for kinds limited to one node per tile
func (m *Matcher) dedup(cands []Candidate) []Candidate {
	seen := make(map[layerKey]struct{}, len(cands))
	out := cands[:0:0]
	for _, c := range cands {
		if m.rules.UniquePerLayer(c.Node.Kind) {
			k := layerKey{kind: c.Node.Kind, group: c.Node.Group, layer: c.Node.Layer}
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
		}
		out = append(out, c)
	}
	return out
}
