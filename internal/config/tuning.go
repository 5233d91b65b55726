// Package config loads tracker tuning parameters from JSON files.
// Fields are pointer-typed so partial configs are safe: anything
// omitted from the file falls back to the compiled-in default via the
// Get* accessors.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Defaults for the tracking engine. IOUThresholdDefault follows the
// design default for detection-to-track matching; the window and score
// thresholds are engine policy.
const (
	IOUThresholdDefault        = 0.5
	UndetectedWindowDefault    = 10
	TrackScoreThresholdDefault = 0.1
	DeviceDefault              = "cpu"
	WarmupCountDefault         = 0
)

// TuningConfig represents the root configuration for the tracking
// engine. The schema doubles as the runtime-update payload, so the same
// JSON can be used for both startup configuration and live tuning.
type TuningConfig struct {
	// Association params
	IOUThreshold *float64 `json:"iou_threshold,omitempty"`

	// Lifecycle params
	UndetectedWindow    *int     `json:"undetected_window,omitempty"`
	TrackScoreThreshold *float64 `json:"track_score_threshold,omitempty"`

	// Execution params
	Device      *string `json:"device,omitempty"`
	WarmupCount *int    `json:"warmup_count,omitempty"`

	// Host integration (optional)
	ListenAddr  *string `json:"listen_addr,omitempty"`
	ArchivePath *string `json:"archive_path,omitempty"`
}

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// All Get* accessors then return defaults.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// Load reads a TuningConfig from a JSON file. The file must have a
// .json extension and stay under the size limit. Fields omitted from
// the file retain their defaults, so partial configs are safe.
func Load(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all set fields carry usable values. Device
// strings are validated for spelling only; whether the device class is
// supported is decided at evaluator construction.
func (c *TuningConfig) Validate() error {
	if c.IOUThreshold != nil {
		if *c.IOUThreshold < 0 || *c.IOUThreshold > 1 {
			return fmt.Errorf("iou_threshold must be in [0, 1], got %f", *c.IOUThreshold)
		}
	}
	if c.UndetectedWindow != nil {
		if *c.UndetectedWindow < 0 {
			return fmt.Errorf("undetected_window must be non-negative, got %d", *c.UndetectedWindow)
		}
	}
	if c.WarmupCount != nil {
		if *c.WarmupCount < 0 {
			return fmt.Errorf("warmup_count must be non-negative, got %d", *c.WarmupCount)
		}
	}
	if c.Device != nil {
		switch *c.Device {
		case "cpu", "gpu", "cuda":
		default:
			return fmt.Errorf("unknown device %q (want cpu, gpu or cuda)", *c.Device)
		}
	}
	return nil
}

// GetIOUThreshold returns the iou_threshold value or the default.
func (c *TuningConfig) GetIOUThreshold() float64 {
	if c.IOUThreshold == nil {
		return IOUThresholdDefault
	}
	return *c.IOUThreshold
}

// GetUndetectedWindow returns the undetected_window value or the default.
func (c *TuningConfig) GetUndetectedWindow() int {
	if c.UndetectedWindow == nil {
		return UndetectedWindowDefault
	}
	return *c.UndetectedWindow
}

// GetTrackScoreThreshold returns the track_score_threshold value or the default.
func (c *TuningConfig) GetTrackScoreThreshold() float64 {
	if c.TrackScoreThreshold == nil {
		return TrackScoreThresholdDefault
	}
	return *c.TrackScoreThreshold
}

// GetDevice returns the device value or the default.
func (c *TuningConfig) GetDevice() string {
	if c.Device == nil || *c.Device == "" {
		return DeviceDefault
	}
	return *c.Device
}

// GetWarmupCount returns the warmup_count value or the default.
func (c *TuningConfig) GetWarmupCount() int {
	if c.WarmupCount == nil {
		return WarmupCountDefault
	}
	return *c.WarmupCount
}

// GetListenAddr returns the listen_addr value or the default.
func (c *TuningConfig) GetListenAddr() string {
	if c.ListenAddr == nil || *c.ListenAddr == "" {
		return ":8080"
	}
	return *c.ListenAddr
}

// GetArchivePath returns the archive_path value or the default (empty
// means archiving disabled).
func (c *TuningConfig) GetArchivePath() string {
	if c.ArchivePath == nil {
		return ""
	}
	return *c.ArchivePath
}
