package system

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/lixenwraith/dockbridge/config"
	"github.com/lixenwraith/dockbridge/core"
	"github.com/lixenwraith/dockbridge/network"
)

const (
	propGrids       = 4
	propPerGrid     = 3
	propNodeVariety = 12 // group(2) x layer(3) x position(2)
)

// propWorld is two independent dock pairs, grid 0-1 and grid 2-3
type propWorld struct {
	*harness
	grids    [propGrids]core.Entity
	docks    [propGrids]core.Entity
	entities []core.Entity
}

// newPropWorld lays out entities from encoded specs, one pipe node each
// A spec picks the group, the layer and whether the entity sits on the dock tile or its edge tile
func newPropWorld(t *testing.T, specs []int) *propWorld {
	p := &propWorld{harness: newHarness(t, config.Default())}
	for g := range p.grids {
		p.grids[g] = p.grid("g")
		p.docks[g] = p.dock(p.grids[g], 0.5, 0.5, core.DirEast)
	}
	for i, spec := range specs {
		g := p.grids[(i/propPerGrid)%propGrids]
		group := network.GroupID("atmos-A")
		if spec%2 == 1 {
			group = "atmos-B"
		}
		layer := (spec / 2) % 3
		x := 0.5 + float64((spec/6)%2)
		e := p.entity(g, x, 0.5, pipe("pipe", group, layer, network.NetID(i+1)))
		p.entities = append(p.entities, e)
	}
	p.tick()
	return p
}

// apply runs encoded dock operations then settles the event queue
func (p *propWorld) apply(ops []int) {
	for _, op := range ops {
		pair := op / 2 % 2
		a, b := p.docks[pair*2], p.docks[pair*2+1]
		switch {
		case op == 4:
			p.sys.RefreshAll()
		case op%2 == 0:
			p.world.DockPair(a, b)
		default:
			p.world.UndockPair(a)
		}
		p.tick()
	}
}

func (p *propWorld) pairDocked(pair int) bool {
	return p.world.MutuallyDocked(p.docks[pair*2], p.docks[pair*2+1])
}

// edgesWithinDockedPairs checks every edge joins two grids whose docks are joined
func (p *propWorld) edgesWithinDockedPairs() bool {
	gridIndex := make(map[core.Entity]int, propGrids)
	for i, g := range p.grids {
		gridIndex[g] = i
	}
	for _, n := range p.world.AllNodes() {
		ga, _, _ := p.world.TileOf(n.Ref.Owner)
		for _, ref := range n.Partners() {
			gb, _, _ := p.world.TileOf(ref.Owner)
			ia, ib := gridIndex[ga], gridIndex[gb]
			if ia/2 != ib/2 || ia == ib || !p.pairDocked(ia/2) {
				return false
			}
		}
	}
	return true
}

func TestDockBridgeProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 60
	properties := gopter.NewProperties(parameters)

	layoutGen := gen.SliceOfN(propGrids*propPerGrid, gen.IntRange(0, propNodeVariety-1))
	opsGen := gen.SliceOf(gen.IntRange(0, 4))

	properties.Property("edges stay symmetric and inside docked pairs", prop.ForAll(
		func(specs, ops []int) bool {
			p := newPropWorld(t, specs)
			p.apply(ops)
			return p.sys.VerifyAll() == nil && p.edgesWithinDockedPairs()
		},
		layoutGen, opsGen,
	))

	properties.Property("docking then undocking one pair leaves the other untouched", prop.ForAll(
		func(specs, ops []int) bool {
			p := newPropWorld(t, specs)
			p.apply(ops)
			if p.pairDocked(0) {
				p.world.UndockPair(p.docks[0])
				p.tick()
			}
			before := edgeSnapshot(p.world)
			p.world.DockPair(p.docks[0], p.docks[1])
			p.tick()
			p.world.UndockPair(p.docks[0])
			p.tick()
			after := edgeSnapshot(p.world)
			if len(before) != len(after) {
				return false
			}
			for ref, partners := range before {
				if len(partners) != len(after[ref]) {
					return false
				}
				for i := range partners {
					if partners[i] != after[ref][i] {
						return false
					}
				}
			}
			return true
		},
		layoutGen, opsGen,
	))

	properties.Property("refresh is idempotent", prop.ForAll(
		func(specs, ops []int) bool {
			p := newPropWorld(t, specs)
			p.apply(ops)
			p.sys.RefreshAll()
			first := edgeSnapshot(p.world)
			p.sys.RefreshAll()
			second := edgeSnapshot(p.world)
			for ref, partners := range first {
				if len(partners) != len(second[ref]) {
					return false
				}
				for i := range partners {
					if partners[i] != second[ref][i] {
						return false
					}
				}
			}
			return len(first) == len(second)
		},
		layoutGen, opsGen,
	))

	properties.Property("destroyed entities leave no edges behind", prop.ForAll(
		func(specs, ops []int, victim int) bool {
			p := newPropWorld(t, specs)
			p.apply(ops)
			gone := p.entities[victim]
			p.world.DestroyEntity(gone)
			p.tick()
			for _, n := range p.world.AllNodes() {
				for _, ref := range n.Partners() {
					if ref.Owner == gone {
						return false
					}
				}
			}
			return p.sys.VerifyAll() == nil
		},
		layoutGen, opsGen, gen.IntRange(0, propGrids*propPerGrid-1),
	))

	properties.Property("visual layer follows quarter turns", prop.ForAll(
		func(layer, k int) bool {
			h := newHarness(t, config.Default())
			g := h.world.CreateGrid("g", core.Degrees(90*float64(k)))
			e := h.entity(g, 0.5, 0.5, pipe("pipe", "atmos-A", layer, 1))
			return h.sys.VisualLayer(h.node(e, "pipe")) == (layer+k)%3
		},
		gen.IntRange(0, 2), gen.IntRange(0, 3),
	))

	properties.TestingRun(t)
}
