package track

import "github.com/banshee-data/frametrack/internal/geom"

// Frame is a decoded video frame: packed RGB pixels, row-major,
// 3 bytes per pixel (Width*Height*3 bytes total).
type Frame struct {
	Pixels []byte
	Width  int
	Height int
}

// Backend is the single-object visual tracking capability consumed by
// the store. Implementations are opaque: the lifecycle state machine
// never depends on the tracking algorithm itself.
//
// Initialize must be called exactly once, before any Update. Update
// returns the refined box estimate for the given frame together with a
// confidence score; low confidence is the backend's signal that the
// target is lost. Close releases any resources the backend holds.
type Backend interface {
	Initialize(frame Frame, initial geom.Box) error
	Update(frame Frame) (geom.Box, float64)
	Close() error
}

// BackendFactory constructs a fresh Backend for a newly spawned track.
// The store calls it once per spawn and owns the result.
type BackendFactory func() Backend
