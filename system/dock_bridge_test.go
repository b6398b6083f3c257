package system

import (
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/lixenwraith/dockbridge/config"
	"github.com/lixenwraith/dockbridge/core"
	"github.com/lixenwraith/dockbridge/event"
	"github.com/lixenwraith/dockbridge/network"
)

// pairLayout is two grids docked east-west with one pipe entity on each dock tile
type pairLayout struct {
	*harness
	gridA, gridB core.Entity
	dockA, dockB core.Entity
	nodeA, nodeB core.Entity
}

func newPairLayout(t *testing.T, groupA, groupB network.GroupID, opts ...Option) *pairLayout {
	h := newHarness(t, config.Default(), opts...)
	l := &pairLayout{harness: h}
	l.gridA = h.grid("alpha")
	l.gridB = h.grid("beta")
	l.dockA = h.dock(l.gridA, 0.5, 0.5, core.DirEast)
	l.dockB = h.dock(l.gridB, 0.5, 0.5, core.DirWest)
	l.nodeA = h.entity(l.gridA, 0.5, 0.5, pipe("pipe", groupA, 0, 1))
	l.nodeB = h.entity(l.gridB, 0.5, 0.5, pipe("pipe", groupB, 0, 2))
	h.tick()
	return l
}

func (l *pairLayout) dockUp() {
	require.True(l.t, l.world.DockPair(l.dockA, l.dockB))
	l.tick()
}

func TestDockUndockSingleEdge(t *testing.T) {
	l := newPairLayout(t, "atmos-A", "atmos-A")
	l.dockUp()

	assert.Equal(t, 1, l.sys.LiveEdges())
	assert.True(t, l.sys.TestConnected(l.nodeA, l.nodeB))
	assert.Equal(t, []string{"1", "2"}, netsOf(l.world.Resources.Recompute.Drain()))
	assert.Contains(t, l.sys.DebugSummary(), fmt.Sprintf("Dock %d <-> %d: 1 connections", l.dockA, l.dockB))
	assert.NoError(t, l.sys.VerifyAll())

	require.True(t, l.world.UndockPair(l.dockA))
	l.tick()

	assert.Zero(t, l.sys.LiveEdges())
	assert.False(t, l.sys.TestConnected(l.nodeA, l.nodeB))
	assert.Equal(t, []string{"1", "2"}, netsOf(l.world.Resources.Recompute.Drain()))
	assert.Empty(t, l.sys.DockedPairs())
}

func TestIncompatibleGroupsStayApart(t *testing.T) {
	l := newPairLayout(t, "atmos-A", "atmos-B")
	l.dockUp()

	assert.Zero(t, l.sys.LiveEdges())
	assert.False(t, l.sys.TestConnected(l.nodeA, l.nodeB))
	assert.Empty(t, l.world.Resources.Recompute.Pending())
}

func TestEdgeTileNodesWinPerLayer(t *testing.T) {
	h := newHarness(t, config.Default())
	gA, gB := h.grid("alpha"), h.grid("beta")
	dA := h.dock(gA, 0.5, 0.5, core.DirEast)
	dB := h.dock(gB, 0.5, 0.5, core.DirWest)

	edgeA := h.entity(gA, 1.5, 0.5, pipe("l0", "atmos-A", 0, 1), pipe("l1", "atmos-A", 1, 1))
	sameA := h.entity(gA, 0.5, 0.5, pipe("l0", "atmos-A", 0, 1), pipe("l1", "atmos-A", 1, 1))
	edgeB := h.entity(gB, -0.5, 0.5, pipe("l0", "atmos-A", 0, 2), pipe("l1", "atmos-A", 1, 2))
	sameB := h.entity(gB, 0.5, 0.5, pipe("l0", "atmos-A", 0, 2), pipe("l1", "atmos-A", 1, 2))
	h.tick()

	before := h.world.Resources.Recompute.Requests()
	require.True(t, h.world.DockPair(dA, dB))
	h.tick()

	ledger := h.sys.Ledger()
	assert.Equal(t, 2, h.sys.LiveEdges())
	assert.True(t, ledger.Connected(h.node(edgeA, "l0"), h.node(edgeB, "l0")))
	assert.True(t, ledger.Connected(h.node(edgeA, "l1"), h.node(edgeB, "l1")))
	assert.False(t, ledger.Connected(h.node(edgeA, "l0"), h.node(edgeB, "l1")))
	assert.False(t, h.sys.TestConnected(sameA, sameB))
	assert.False(t, h.sys.TestConnected(sameA, edgeB))

	// One request per distinct net, not per edge
	assert.Equal(t, uint64(2), h.world.Resources.Recompute.Requests()-before)
}

func TestDeletedPartnerLeavesNothingBehind(t *testing.T) {
	t.Run("missed termination", func(t *testing.T) {
		l := newPairLayout(t, "atmos-A", "atmos-A")
		l.dockUp()
		partner := l.node(l.nodeB, "pipe")

		l.world.PurgeEntity(l.nodeA)
		assert.Empty(t, l.sys.Ledger().EdgesOf(partner))
		assert.Equal(t, 1, partner.ReachableCount(), "dangling until pruned")

		assert.Equal(t, []network.NetID{2}, l.sys.Ledger().PruneDangling(partner))
		assert.Zero(t, partner.ReachableCount())
	})

	t.Run("terminating event", func(t *testing.T) {
		l := newPairLayout(t, "atmos-A", "atmos-A")
		l.dockUp()
		l.world.Resources.Recompute.Drain()
		partner := l.node(l.nodeB, "pipe")

		l.world.DestroyEntity(l.nodeA)
		assert.Zero(t, partner.ReachableCount())
		assert.Equal(t, []string{"1", "2"}, netsOf(l.world.Resources.Recompute.Drain()))
		assert.NoError(t, l.sys.VerifyAll())
		assert.Contains(t, l.sys.DebugSummary(), "0 connections")
	})

	t.Run("idle sweep", func(t *testing.T) {
		l := newPairLayout(t, "atmos-A", "atmos-A")
		l.dockUp()
		partner := l.node(l.nodeB, "pipe")

		l.world.PurgeEntity(l.nodeA)
		l.sys.Sweep()
		assert.Zero(t, partner.ReachableCount())
		assert.Zero(t, testutil.ToFloat64(l.world.Resources.Status.LiveEdges))
		assert.Equal(t, 1.0, testutil.ToFloat64(l.world.Resources.Status.DockedPairs))
	})
}

func TestLateAnchorConnectsOnce(t *testing.T) {
	h := newHarness(t, config.Default())
	gA, gB := h.grid("alpha"), h.grid("beta")
	dA := h.dock(gA, 0.5, 0.5, core.DirEast)
	dB := h.dock(gB, 0.5, 0.5, core.DirWest)
	nB := h.entity(gB, 0.5, 0.5, pipe("pipe", "atmos-A", 0, 2))
	h.tick()
	require.True(t, h.world.DockPair(dA, dB))
	h.tick()
	require.Zero(t, h.sys.LiveEdges())

	nA := h.entity(gA, 0.5, 0.5, pipe("pipe", "atmos-A", 0, 1))
	h.tick()
	assert.Equal(t, 1, h.sys.LiveEdges())
	assert.True(t, h.sys.TestConnected(nA, nB))
	assert.Contains(t, h.sys.DebugNode(nA), "checked=true")

	// A spurious second anchor event must not rediscover a removed edge
	h.sys.Ledger().Disconnect(h.node(nA, "pipe"), h.node(nB, "pipe"))
	h.world.PushEvent(event.EventNodeAnchored, &event.EntityPayload{Entity: nA})
	h.tick()
	assert.Zero(t, h.sys.LiveEdges())

	h.sys.RefreshAll()
	assert.Equal(t, 1, h.sys.LiveEdges())
}

func TestVisualLayerFollowsGridRotation(t *testing.T) {
	h := newHarness(t, config.Default())
	g := h.grid("alpha")
	e := h.entity(g, 0.5, 0.5, pipe("pipe", "atmos-A", 2, 1))
	n := h.node(e, "pipe")

	for k := 0; k < 4; k++ {
		require.True(t, h.world.SetGridRotation(g, core.Degrees(90*float64(k))))
		assert.Equal(t, (2+k)%3, h.sys.VisualLayer(n), "k=%d", k)
	}

	require.True(t, h.world.SetGridRotation(g, core.Degrees(90)))
	assert.Equal(t, 0, h.sys.VisualLayer(n))
	assert.Contains(t, h.sys.DebugTile(g, core.Tile{X: 0, Y: 0}), "layer=2 visual=0")
}

func TestNonMutualDockFormsNothing(t *testing.T) {
	l := newPairLayout(t, "atmos-A", "atmos-A")
	l.world.PushEvent(event.EventDockFormed, &event.DockPayload{DockA: l.dockA, DockB: l.dockB})
	l.tick()

	assert.Zero(t, l.sys.LiveEdges())
	assert.Equal(t, 1.0, testutil.ToFloat64(l.world.Resources.Status.DocksRejected))
}

func TestTerminatingDockBreaksPair(t *testing.T) {
	l := newPairLayout(t, "atmos-A", "atmos-A")
	l.dockUp()

	l.world.DestroyEntity(l.dockA)
	assert.Zero(t, l.sys.LiveEdges())
	_, docked := l.world.DockPartner(l.dockB)
	assert.False(t, docked)
}

func TestTerminatingGridBreaksItsPairs(t *testing.T) {
	l := newPairLayout(t, "atmos-A", "atmos-A")
	l.dockUp()

	l.world.DestroyEntity(l.gridA)
	assert.Zero(t, l.sys.LiveEdges())
	assert.NoError(t, l.sys.VerifyAll())
	assert.Empty(t, l.sys.DockedPairs())
	assert.NotContains(t, l.sys.DebugSummary(), "<->")
}

func TestLateEdgeTileNodeSupersedesSameTile(t *testing.T) {
	l := newPairLayout(t, "atmos-A", "atmos-A")
	l.dockUp()
	require.True(t, l.sys.TestConnected(l.nodeA, l.nodeB))
	l.world.Resources.Recompute.Drain()

	edge := l.entity(l.gridA, 1.5, 0.5, pipe("pipe", "atmos-A", 0, 3))
	l.tick()

	assert.False(t, l.sys.TestConnected(l.nodeA, l.nodeB), "same tile edge replaced")
	assert.True(t, l.sys.TestConnected(edge, l.nodeB))
	assert.Equal(t, 1, l.sys.LiveEdges())
	assert.Equal(t, []string{"1", "2", "3"}, netsOf(l.world.Resources.Recompute.Drain()))
	assert.Equal(t, 1.0, testutil.ToFloat64(l.world.Resources.Status.EdgesRemoved.WithLabelValues("pipe", "supersede")))
	assert.NoError(t, l.sys.VerifyAll())

	before := edgeSnapshot(l.world)
	l.sys.RefreshAll()
	assert.Equal(t, before, edgeSnapshot(l.world), "refresh finds nothing to change")
}

func TestUnanchorAndReanchor(t *testing.T) {
	l := newPairLayout(t, "atmos-A", "atmos-A")
	l.dockUp()

	require.True(t, l.world.Unanchor(l.nodeA))
	l.tick()
	assert.Zero(t, l.sys.LiveEdges())
	assert.Equal(t, 1.0, testutil.ToFloat64(l.world.Resources.Status.EdgesRemoved.WithLabelValues("pipe", "unanchor")))

	require.True(t, l.world.Anchor(l.nodeA))
	l.tick()
	assert.Equal(t, 1, l.sys.LiveEdges())
}

func TestDisabledFormsNothingUntilRefresh(t *testing.T) {
	cfg := config.Default()
	cfg.Enabled = false
	h := newHarness(t, cfg)
	gA, gB := h.grid("alpha"), h.grid("beta")
	dA := h.dock(gA, 0.5, 0.5, core.DirEast)
	dB := h.dock(gB, 0.5, 0.5, core.DirWest)
	h.entity(gA, 0.5, 0.5, pipe("pipe", "atmos-A", 0, 1))
	h.entity(gB, 0.5, 0.5, pipe("pipe", "atmos-A", 0, 2))
	h.tick()
	require.True(t, h.world.DockPair(dA, dB))
	h.tick()
	assert.Zero(t, h.sys.LiveEdges())

	h.sys.SetEnabled(true)
	h.world.PushEvent(event.EventRefreshRequest, &event.RefreshPayload{Reason: "test"})
	h.tick()
	assert.Equal(t, 1, h.sys.LiveEdges())
	assert.Equal(t, 1.0, testutil.ToFloat64(h.world.Resources.Status.Refreshes))
}

func TestCableTierToggles(t *testing.T) {
	build := func(cfg config.Config) *harness {
		h := newHarness(t, cfg)
		gA, gB := h.grid("alpha"), h.grid("beta")
		dA := h.dock(gA, 0.5, 0.5, core.DirNorth)
		dB := h.dock(gB, 0.5, 0.5, core.DirSouth)
		h.entity(gA, 0.5, 0.5, cable("hv", network.CableTierHV, 1), cable("mv", network.CableTierMV, 1))
		h.entity(gB, 0.5, 0.5, cable("hv", network.CableTierHV, 2), cable("mv", network.CableTierMV, 2))
		h.tick()
		require.True(t, h.world.DockPair(dA, dB))
		h.tick()
		return h
	}

	assert.Equal(t, 1, build(config.Default()).sys.LiveEdges(), "only HV docks by default")

	cfg := config.Default()
	cfg.Kinds.Cables.MV = true
	assert.Equal(t, 2, build(cfg).sys.LiveEdges())
}

func TestLateAttachSweepRestoresNeighbourPair(t *testing.T) {
	h := newHarness(t, config.Default())
	gA, gB, gC := h.grid("alpha"), h.grid("beta"), h.grid("gamma")

	// Docks X and A on grid alpha share edge tile (1,0) where n sits
	dX := h.dock(gA, 0.5, 0.5, core.DirEast)
	dA := h.dock(gA, 1.5, 1.5, core.DirSouth)
	n := h.entity(gA, 1.5, 0.5, pipe("pipe", "atmos-A", 0, 1))

	dY := h.dock(gC, 0.5, 0.5, core.DirWest)
	y := h.entity(gC, -0.5, 0.5, pipe("pipe", "atmos-A", 0, 3))

	dB := h.dock(gB, 0.5, 0.5, core.DirNorth)
	b := h.entity(gB, 0.5, 1.5, pipe("pipe", "atmos-A", 0, 2))
	h.tick()

	require.True(t, h.world.DockPair(dX, dY))
	h.tick()
	require.True(t, h.sys.TestConnected(n, y))

	// Lose the X-Y edge, as if an event had been missed
	h.sys.Ledger().Disconnect(h.node(n, "pipe"), h.node(y, "pipe"))

	require.True(t, h.world.DockPair(dA, dB))
	h.tick()
	assert.True(t, h.sys.TestConnected(n, b))
	assert.True(t, h.sys.TestConnected(n, y), "sweep reattaches n across the neighbouring dock")
	assert.Equal(t, 1.0, testutil.ToFloat64(h.world.Resources.Status.EdgesAdded.WithLabelValues("pipe", "late_attach")))

	// Undocking A-B leaves the X-Y bridge intact
	require.True(t, h.world.UndockPair(dA))
	h.tick()
	assert.False(t, h.sys.TestConnected(n, b))
	assert.True(t, h.sys.TestConnected(n, y))
}

func TestRefreshAllIsIdempotent(t *testing.T) {
	l := newPairLayout(t, "atmos-A", "atmos-A")
	l.dockUp()

	l.sys.RefreshAll()
	first := edgeSnapshot(l.world)
	firstPass := l.sys.PassID()
	l.sys.RefreshAll()

	assert.Equal(t, first, edgeSnapshot(l.world))
	assert.NotEqual(t, firstPass, l.sys.PassID())
	assert.Equal(t, 1, l.sys.LiveEdges())
}

func TestDecisionsAreTraced(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	l := newPairLayout(t, "atmos-A", "atmos-A", WithTracerProvider(tp))
	l.dockUp()

	var formed sdktrace.ReadOnlySpan
	for _, sp := range rec.Ended() {
		if sp.Name() == "dockbridge.DockFormed" {
			formed = sp
		}
	}
	require.NotNil(t, formed)

	lastAdd, firstRecompute := -1, -1
	for i, ev := range formed.Events() {
		switch ev.Name {
		case decisionEdgeAdded:
			lastAdd = i
		case decisionRecompute:
			if firstRecompute < 0 {
				firstRecompute = i
			}
		}
	}
	require.GreaterOrEqual(t, lastAdd, 0)
	require.GreaterOrEqual(t, firstRecompute, 0)
	assert.Less(t, lastAdd, firstRecompute, "edges are added before any recompute request")
}

func TestDebugNodeListsPartners(t *testing.T) {
	l := newPairLayout(t, "atmos-A", "atmos-A")
	l.dockUp()

	out := l.sys.DebugNode(l.nodeA)
	assert.Contains(t, out, fmt.Sprintf("-> %d/pipe pipe group=atmos-A", l.nodeB))
	assert.Contains(t, l.sys.DebugNode(l.dockA), "no network nodes")
}
