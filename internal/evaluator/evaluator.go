// Package evaluator implements the frame cycle controller behind the
// host pipeline's configure/reset/evaluate contract. Per frame it runs
// the tracking sequence (associate, expire, advance, spawn) against the
// track store and emits the frame passthrough, the input detections and
// the tracked boxes.
package evaluator

import (
	"bytes"
	"errors"
	"fmt"
	"log"

	"github.com/banshee-data/frametrack/internal/geom"
	"github.com/banshee-data/frametrack/internal/track"
	"github.com/banshee-data/frametrack/internal/wire"
)

// DeviceType selects the execution device requested for an evaluator.
type DeviceType int

const (
	DeviceCPU DeviceType = iota
	DeviceGPU
)

// String returns the canonical spelling of the device type.
func (d DeviceType) String() string {
	switch d {
	case DeviceCPU:
		return "cpu"
	case DeviceGPU:
		return "gpu"
	default:
		return fmt.Sprintf("device(%d)", int(d))
	}
}

// ParseDeviceType resolves a configuration string to a device class.
// Accelerator spellings parse successfully; whether the class is
// supported is decided at construction.
func ParseDeviceType(s string) (DeviceType, error) {
	switch s {
	case "cpu", "":
		return DeviceCPU, nil
	case "gpu", "cuda":
		return DeviceGPU, nil
	default:
		return 0, fmt.Errorf("unknown device %q", s)
	}
}

// ErrUnsupportedDevice is returned at construction when a non-CPU
// device is requested. GPU execution is not implemented; the request
// fails fast rather than degrading silently.
var ErrUnsupportedDevice = errors.New("gpu tracker support not implemented")

// ErrNotConfigured is returned by Evaluate before Configure has
// supplied the video metadata.
var ErrNotConfigured = errors.New("evaluator not configured")

// VideoMetadata describes the incoming video stream.
type VideoMetadata struct {
	Width  int
	Height int
}

// Column holds one channel's buffers for a batch: Column[b] is the
// buffer for batch element b.
type Column [][]byte

// Input and output channel indices for Evaluate.
const (
	ChannelImage = 0
	ChannelBoxes = 1

	OutputImage        = 0
	OutputBeforeBoxes  = 1
	OutputAfterBoxes   = 2
	outputChannelCount = 3
)

// Sink receives the tracked boxes produced for each processed frame.
// Sink failures are logged and never interrupt tracking.
type Sink interface {
	RecordFrame(frameIndex int64, tracked []geom.Box) error
}

// Evaluator is the narrow contract the pipeline host drives. The core
// implements it without depending on the host's internals.
type Evaluator interface {
	Configure(meta VideoMetadata) error
	Reset()
	Evaluate(inputs []Column) ([]Column, error)
}

// Config holds construction parameters for a TrackerEvaluator.
type Config struct {
	Device      DeviceType
	WarmupCount int
	Store       track.Config
	Backend     track.BackendFactory
	Sink        Sink // optional
}

// TrackerEvaluator maintains tracking state across evaluate calls. It
// holds no per-frame state of its own beyond delegating to the store;
// frames within a batch are processed strictly in order because each
// frame's tracking state feeds the next.
type TrackerEvaluator struct {
	device      DeviceType
	warmupCount int
	store       *track.Store
	sink        Sink

	configured bool
	meta       VideoMetadata
	frameIndex int64
}

var _ Evaluator = (*TrackerEvaluator)(nil)

// New constructs a TrackerEvaluator. A request for an accelerator-class
// device fails here, before any instance exists.
func New(cfg Config) (*TrackerEvaluator, error) {
	if cfg.Device != DeviceCPU {
		return nil, fmt.Errorf("device %s: %w", cfg.Device, ErrUnsupportedDevice)
	}
	if cfg.Backend == nil {
		return nil, errors.New("backend factory is required")
	}
	return &TrackerEvaluator{
		device:      cfg.Device,
		warmupCount: cfg.WarmupCount,
		store:       track.NewStore(cfg.Store, cfg.Backend),
		sink:        cfg.Sink,
	}, nil
}

// Configure supplies the video metadata. Must be called before Evaluate.
func (e *TrackerEvaluator) Configure(meta VideoMetadata) error {
	if meta.Width <= 0 || meta.Height <= 0 {
		return fmt.Errorf("invalid video metadata %dx%d", meta.Width, meta.Height)
	}
	log.Printf("[Evaluator] configure %dx%d", meta.Width, meta.Height)
	e.meta = meta
	e.configured = true
	return nil
}

// Reset discards all track state. The next frame behaves exactly as on
// a fresh instance.
func (e *TrackerEvaluator) Reset() {
	log.Printf("[Evaluator] reset")
	e.store.Reset()
	e.frameIndex = 0
}

// Store exposes the track store for read-side consumers (monitor).
func (e *TrackerEvaluator) Store() *track.Store { return e.store }

// FramesProcessed returns the number of frames evaluated since
// construction or Reset.
func (e *TrackerEvaluator) FramesProcessed() int64 { return e.frameIndex }

// Evaluate processes one batch. inputs[0] carries frame pixel buffers,
// inputs[1] the framed detection buffers; the two channels must have
// equal batch length. Outputs are image passthrough, the input
// detections, and the tracked boxes after this frame.
func (e *TrackerEvaluator) Evaluate(inputs []Column) ([]Column, error) {
	if !e.configured {
		return nil, ErrNotConfigured
	}
	if len(inputs) < 2 {
		return nil, fmt.Errorf("need at least 2 input channels, got %d", len(inputs))
	}
	frames, detBufs := inputs[ChannelImage], inputs[ChannelBoxes]
	if len(frames) != len(detBufs) {
		return nil, fmt.Errorf("channel batch lengths differ: %d frames, %d detection buffers", len(frames), len(detBufs))
	}

	log.Printf("[Evaluator] evaluate on %d inputs", len(frames))

	outputs := make([]Column, outputChannelCount)
	for b := range frames {
		dets, err := wire.DecodeBoxes(detBufs[b])
		if err != nil {
			return nil, fmt.Errorf("decode detections for batch element %d: %w", b, err)
		}

		frame := track.Frame{
			Pixels: frames[b],
			Width:  e.meta.Width,
			Height: e.meta.Height,
		}

		// Associate detections with tracks in flight, drop tracks that
		// went undetected too long, then advance the survivors through
		// their backends before spawning tracks for what's left.
		unmatched := e.store.Associate(dets)
		e.store.ExpireStale()
		generated := e.store.Advance(frame)
		spawned, spawnErr := e.store.Spawn(frame, unmatched)
		if spawnErr != nil {
			log.Printf("[Evaluator] spawn: %v", spawnErr)
		}
		generated = append(generated, spawned...)

		outputs[OutputImage] = append(outputs[OutputImage], bytes.Clone(frames[b]))
		outputs[OutputBeforeBoxes] = append(outputs[OutputBeforeBoxes], wire.EncodeBoxes(dets))
		outputs[OutputAfterBoxes] = append(outputs[OutputAfterBoxes], wire.EncodeBoxes(generated))

		if e.sink != nil {
			if err := e.sink.RecordFrame(e.frameIndex, generated); err != nil {
				log.Printf("[Evaluator] sink record frame %d: %v", e.frameIndex, err)
			}
		}
		e.frameIndex++
	}
	return outputs, nil
}
