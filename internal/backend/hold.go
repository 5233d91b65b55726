package backend

import (
	"github.com/banshee-data/frametrack/internal/geom"
	"github.com/banshee-data/frametrack/internal/track"
)

// Hold is a backend that keeps the last seeded box in place and reports
// full confidence on every update. It is useful for detector-only
// pipelines where association and lifecycle matter but no visual model
// is available, and for exercising the engine in tests.
type Hold struct {
	box geom.Box
}

var _ track.Backend = (*Hold)(nil)

// HoldFactory returns a BackendFactory producing Hold backends.
func HoldFactory() track.BackendFactory {
	return func() track.Backend { return &Hold{} }
}

func (h *Hold) Initialize(_ track.Frame, initial geom.Box) error {
	h.box = initial
	return nil
}

func (h *Hold) Update(_ track.Frame) (geom.Box, float64) {
	return h.box, 1
}

func (h *Hold) Close() error { return nil }
