package status

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Edge change reasons
const (
	ReasonDock       = "dock"
	ReasonLateAttach = "late_attach"
	ReasonAnchor     = "anchor"
	ReasonUndock     = "undock"
	ReasonTerminate  = "terminate"
	ReasonUnanchor   = "unanchor"
	ReasonPrune      = "prune"
	ReasonRefresh    = "refresh"
	ReasonSupersede  = "supersede"
)

// Registry is the central metrics facade, one per world
// Systems cache the collectors during init and write directly
type Registry struct {
	EdgesAdded        *prometheus.CounterVec
	EdgesRemoved      *prometheus.CounterVec
	MatchOutcomes     *prometheus.CounterVec
	RecomputeRequests prometheus.Counter
	DocksRejected     prometheus.Counter
	EventsDropped     prometheus.Counter
	LiveEdges         prometheus.Gauge
	DockedPairs       prometheus.Gauge
	Refreshes         prometheus.Counter

	registry *prometheus.Registry
}

// NewRegistry creates an initialized Registry backed by a private prometheus registry
func NewRegistry() *Registry {
	r := &Registry{registry: prometheus.NewRegistry()}
	r.initBridgeMetrics()
	r.initEngineMetrics()
	return r
}

func (r *Registry) initBridgeMetrics() {
	r.EdgesAdded = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "dockbridge_edges_added_total",
			Help: "Always-reachable edges added, by network kind and reason",
		},
		[]string{"kind", "reason"},
	)

	r.EdgesRemoved = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "dockbridge_edges_removed_total",
			Help: "Always-reachable edges removed, by network kind and reason",
		},
		[]string{"kind", "reason"},
	)

	r.MatchOutcomes = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "dockbridge_match_outcomes_total",
			Help: "Dock matching results by the tile that supplied the candidates",
		},
		[]string{"source"},
	)

	r.DocksRejected = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "dockbridge_docks_rejected_total",
			Help: "Dock events ignored because the pair was not mutually docked",
		},
	)

	r.LiveEdges = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "dockbridge_live_edges",
			Help: "Always-reachable edges present at the last sweep",
		},
	)

	r.DockedPairs = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "dockbridge_docked_pairs",
			Help: "Mutually docked pairs at the last sweep",
		},
	)

	r.Refreshes = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "dockbridge_refreshes_total",
			Help: "Full dock edge rebuilds",
		},
	)
}

func (r *Registry) initEngineMetrics() {
	r.RecomputeRequests = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "dockbridge_recompute_requests_total",
			Help: "Group recompute requests accepted by the recompute queue",
		},
	)

	r.EventsDropped = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "dockbridge_events_dropped_total",
			Help: "Lifecycle events rejected by a full event queue",
		},
	)
}

// Gatherer exposes the underlying registry for tests and exporters
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// Handler serves the registry in the prometheus text format
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
