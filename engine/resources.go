package engine

import (
	"io"
	"log/slog"

	"github.com/lixenwraith/dockbridge/status"
)

// Resources holds the world-wide services systems share
type Resources struct {
	Logger    *slog.Logger
	Status    *status.Registry
	Recompute *RecomputeQueue
}

// NewResources wires a metrics registry and recompute queue around logger
// A nil logger discards output
func NewResources(logger *slog.Logger) *Resources {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	reg := status.NewRegistry()
	return &Resources{
		Logger:    logger,
		Status:    reg,
		Recompute: NewRecomputeQueue(reg.RecomputeRequests.Inc),
	}
}
