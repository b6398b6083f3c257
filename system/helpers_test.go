package system

import (
	"fmt"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/dockbridge/config"
	"github.com/lixenwraith/dockbridge/core"
	"github.com/lixenwraith/dockbridge/engine"
	"github.com/lixenwraith/dockbridge/network"
)

type harness struct {
	t     *testing.T
	world *engine.World
	sys   *DockBridgeSystem
}

func newHarness(t *testing.T, cfg config.Config, opts ...Option) *harness {
	t.Helper()
	require.NoError(t, cfg.Validate())
	w := engine.NewWorld(nil, cfg.EventQueueSize)
	return &harness{t: t, world: w, sys: NewDockBridgeSystem(w, cfg, opts...)}
}

func (h *harness) grid(name string) core.Entity {
	return h.world.CreateGrid(name, 0)
}

func (h *harness) dock(grid core.Entity, x, y float64, facing core.Direction) core.Entity {
	h.t.Helper()
	e := h.world.CreateEntity()
	h.world.AddDock(e)
	h.world.Place(e, grid, core.Vec2{X: x, Y: y}, core.Facing(facing))
	require.True(h.t, h.world.Anchor(e))
	return e
}

func (h *harness) entity(grid core.Entity, x, y float64, nodes ...*network.Node) core.Entity {
	h.t.Helper()
	e := h.world.CreateEntity()
	h.world.Place(e, grid, core.Vec2{X: x, Y: y}, 0)
	h.world.AttachNodes(e, nodes...)
	require.True(h.t, h.world.Anchor(e))
	return e
}

func (h *harness) tick() {
	h.world.Tick()
}

func (h *harness) node(e core.Entity, name string) *network.Node {
	h.t.Helper()
	n, ok := h.world.ResolveNode(network.NodeRef{Owner: e, Name: name})
	require.True(h.t, ok, "node %d/%s", e, name)
	return n
}

func pipe(name string, group network.GroupID, layer int, net network.NetID) *network.Node {
	n := network.NewNode(network.NodeRef{Name: name}, network.KindPipe, group, layer, core.MaskAll)
	n.Net = net
	return n
}

func cable(name string, tier int, net network.NetID) *network.Node {
	n := network.NewNode(network.NodeRef{Name: name}, network.KindCable, "power", tier, core.MaskAll)
	n.Net = net
	return n
}

// edgeSnapshot renders every node's raw partner list
func edgeSnapshot(w *engine.World) map[string][]string {
	snap := make(map[string][]string)
	for _, n := range w.AllNodes() {
		var partners []string
		for _, ref := range n.Partners() {
			partners = append(partners, ref.String())
		}
		slices.Sort(partners)
		snap[n.Ref.String()] = partners
	}
	return snap
}

func netsOf(ids []network.NetID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = fmt.Sprint(uint64(id))
	}
	return out
}
