// Package backend provides TrackerBackend implementations for the
// track store: an OpenCV MIL adapter for real visual tracking and a
// hold backend for pipelines and tests that run without OpenCV.
package backend

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/banshee-data/frametrack/internal/geom"
	"github.com/banshee-data/frametrack/internal/track"
)

// MIL adapts an OpenCV MIL single-object tracker to the Backend
// capability. The packed RGB frame buffer is wrapped as a Mat for each
// call, matching how the host supplies pixel data.
type MIL struct {
	tracker gocv.Tracker
	last    geom.Box
}

var _ track.Backend = (*MIL)(nil)

// NewMIL constructs an uninitialized MIL backend.
func NewMIL() *MIL {
	return &MIL{tracker: gocv.NewTrackerMIL()}
}

// MILFactory returns a BackendFactory producing MIL backends.
func MILFactory() track.BackendFactory {
	return func() track.Backend { return NewMIL() }
}

// Initialize seeds the tracker on the detection's region of the frame.
func (m *MIL) Initialize(frame track.Frame, initial geom.Box) error {
	mat, err := matFromFrame(frame)
	if err != nil {
		return err
	}
	defer mat.Close()

	r := image.Rect(int(initial.X1), int(initial.Y1), int(initial.X2), int(initial.Y2))
	if !m.tracker.Init(mat, r) {
		return fmt.Errorf("mil tracker init failed for region %v", r)
	}
	m.last = initial
	return nil
}

// Update advances the tracker against the frame. MIL reports no
// graded confidence, so a successful update scores 1 and a lost target
// scores 0; the lifecycle threshold then removes lost tracks.
func (m *MIL) Update(frame track.Frame) (geom.Box, float64) {
	mat, err := matFromFrame(frame)
	if err != nil {
		return m.last, 0
	}
	defer mat.Close()

	r, ok := m.tracker.Update(mat)
	if !ok {
		return m.last, 0
	}
	m.last = geom.Box{
		X1: float64(r.Min.X),
		Y1: float64(r.Min.Y),
		X2: float64(r.Max.X),
		Y2: float64(r.Max.Y),
	}
	return m.last, 1
}

// Close releases the underlying OpenCV tracker.
func (m *MIL) Close() error {
	return m.tracker.Close()
}

// matFromFrame wraps a packed RGB frame buffer as an OpenCV Mat. The
// buffer length is validated against the declared dimensions first so a
// short buffer surfaces as an error instead of unsafe Mat construction.
func matFromFrame(frame track.Frame) (gocv.Mat, error) {
	want := frame.Width * frame.Height * 3
	if len(frame.Pixels) != want {
		return gocv.Mat{}, fmt.Errorf("frame buffer length %d does not match %dx%dx3 (%d)", len(frame.Pixels), frame.Width, frame.Height, want)
	}
	return gocv.NewMatFromBytes(frame.Height, frame.Width, gocv.MatTypeCV8UC3, frame.Pixels)
}
