package system

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/lixenwraith/dockbridge/network"
)

// Decision names shared by logs and span events
const (
	decisionMatch       = "match resolved"
	decisionRejected    = "match rejected"
	decisionEdgeAdded   = "edge added"
	decisionEdgeRemoved = "edge removed"
	decisionPruned      = "dangling edges pruned"
	decisionRecompute   = "recompute requested"
	decisionDockRefused = "dock rejected"
	decisionSkipped     = "anchor skipped"
)

// op is one handled lifecycle event, it collects the nets touched by its edge changes
type op struct {
	ctx  context.Context
	span trace.Span
	nets network.NetSet
}

func (s *DockBridgeSystem) begin(name string, attrs ...attribute.KeyValue) *op {
	attrs = append(attrs,
		attribute.String("pass_id", s.passID.String()),
		attribute.Int64("frame", s.world.FrameNumber()),
	)
	ctx, span := s.tracer.Start(context.Background(), "dockbridge."+name, trace.WithAttributes(attrs...))
	return &op{ctx: ctx, span: span, nets: make(network.NetSet)}
}

// end requests recomputation once per distinct touched net, after every edge change of the op
func (s *DockBridgeSystem) end(o *op) {
	for _, net := range o.nets.Sorted() {
		s.world.RequestGroupRecompute(net)
		s.trace(o, decisionRecompute, attribute.Int64("net", int64(net)))
	}
	o.span.SetAttributes(attribute.Int("nets", len(o.nets)))
	o.span.End()
}

// trace records a decision point as a debug log line and a span event
func (s *DockBridgeSystem) trace(o *op, decision string, attrs ...attribute.KeyValue) {
	if s.log.Enabled(o.ctx, slog.LevelDebug) {
		logAttrs := make([]slog.Attr, 0, len(attrs))
		for _, kv := range attrs {
			logAttrs = append(logAttrs, slog.Any(string(kv.Key), kv.Value.AsInterface()))
		}
		s.log.LogAttrs(o.ctx, slog.LevelDebug, decision, logAttrs...)
	}
	o.span.AddEvent(decision, trace.WithAttributes(attrs...))
}

func nodeAttrs(a, b *network.Node) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("a", a.Ref.String()),
		attribute.String("b", b.Ref.String()),
		attribute.String("kind", a.Kind.String()),
		attribute.String("group_a", string(a.Group)),
		attribute.String("group_b", string(b.Group)),
		attribute.Int("layer_a", a.Layer),
		attribute.Int("layer_b", b.Layer),
	}
}
