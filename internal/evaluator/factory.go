package evaluator

import (
	"fmt"

	"github.com/banshee-data/frametrack/internal/track"
)

// Capabilities describes what an evaluator factory can run.
type Capabilities struct {
	DeviceType DeviceType
	MaxDevices int
	WarmupSize int
}

// Factory constructs evaluators for the pipeline host. Device support
// is validated once here, so every evaluator the factory produces is
// constructible.
type Factory struct {
	deviceType  DeviceType
	warmupCount int
	storeCfg    track.Config
	backend     track.BackendFactory
	sink        Sink
}

// NewFactory creates an evaluator factory. Accelerator-class devices
// are rejected here, mirroring construction-time validation on the
// evaluators themselves.
func NewFactory(device DeviceType, warmupCount int, storeCfg track.Config, backend track.BackendFactory) (*Factory, error) {
	if device != DeviceCPU {
		return nil, fmt.Errorf("device %s: %w", device, ErrUnsupportedDevice)
	}
	if backend == nil {
		return nil, fmt.Errorf("backend factory is required")
	}
	return &Factory{
		deviceType:  device,
		warmupCount: warmupCount,
		storeCfg:    storeCfg,
		backend:     backend,
	}, nil
}

// SetSink attaches a persistence sink passed to every new evaluator.
func (f *Factory) SetSink(sink Sink) { f.sink = sink }

// Capabilities reports the factory's execution envelope.
func (f *Factory) Capabilities() Capabilities {
	return Capabilities{
		DeviceType: f.deviceType,
		MaxDevices: 1,
		WarmupSize: f.warmupCount,
	}
}

// OutputNames returns the evaluator's output channel names in order.
func (f *Factory) OutputNames() []string {
	return []string{"image", "before_bboxes", "after_bboxes"}
}

// NewEvaluator constructs a fresh evaluator with its own disjoint track
// store. Instances may run in parallel under an external scheduler;
// they share nothing.
func (f *Factory) NewEvaluator() (*TrackerEvaluator, error) {
	return New(Config{
		Device:      f.deviceType,
		WarmupCount: f.warmupCount,
		Store:       f.storeCfg,
		Backend:     f.backend,
		Sink:        f.sink,
	})
}
