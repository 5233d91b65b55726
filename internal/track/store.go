package track

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/banshee-data/frametrack/internal/config"
	"github.com/banshee-data/frametrack/internal/geom"
)

// Config holds the lifecycle parameters of the track store.
type Config struct {
	// IOUThreshold is the minimum overlap for a detection to extend an
	// existing track.
	IOUThreshold float64

	// UndetectedWindow is the number of consecutive frames a track may
	// survive without a matching detection before expiry.
	UndetectedWindow int

	// TrackScoreThreshold is the minimum backend confidence to retain a
	// track after advancement.
	TrackScoreThreshold float64
}

// DefaultConfig returns the compiled-in default store parameters.
func DefaultConfig() Config {
	return Config{
		IOUThreshold:        config.IOUThresholdDefault,
		UndetectedWindow:    config.UndetectedWindowDefault,
		TrackScoreThreshold: config.TrackScoreThresholdDefault,
	}
}

// ConfigFromTuning builds a store Config from a loaded TuningConfig.
func ConfigFromTuning(cfg *config.TuningConfig) Config {
	return Config{
		IOUThreshold:        cfg.GetIOUThreshold(),
		UndetectedWindow:    cfg.GetUndetectedWindow(),
		TrackScoreThreshold: cfg.GetTrackScoreThreshold(),
	}
}

// Store owns the set of live tracks and applies the creation, update
// and expiry rules. Tracks are kept in insertion order; association
// tie-breaks follow that order, which is a deterministic contract.
//
// Frame processing is single-threaded per store. The mutex exists so
// read-side snapshots (monitor endpoints) can run while the pipeline
// advances frames.
type Store struct {
	mu         sync.RWMutex
	cfg        Config
	newBackend BackendFactory
	tracks     []*Track
	nextID     int64

	// Lifecycle counters, monotonic since construction or Reset.
	tracksCreated int64
	tracksExpired int64
	tracksLost    int64
	spawnFailures int64
}

// NewStore creates an empty store. The factory is invoked once per
// spawned track; id assignment starts at 1 and is scoped to this store,
// so independent stores never collide or contend.
func NewStore(cfg Config, factory BackendFactory) *Store {
	return &Store{
		cfg:        cfg,
		newBackend: factory,
		nextID:     1,
	}
}

// Associate matches a frame's detections against the live tracks using
// greedy first-match: for each detection in input order, the first
// track in store order whose box overlaps above the IOU threshold takes
// it. A track accepts at most one detection per frame. Matched tracks
// adopt the detection box and reset their undetected counter; the
// remaining detections are returned as spawn candidates.
func (s *Store) Associate(dets []geom.Box) (unmatched []geom.Box) {
	s.mu.Lock()
	defer s.mu.Unlock()

	consumed := make([]bool, len(s.tracks))
	for _, det := range dets {
		matched := false
		for i, tr := range s.tracks {
			if consumed[i] {
				continue
			}
			if geom.IOU(det, tr.Box) > s.cfg.IOUThreshold {
				tr.Box = det
				tr.Score = det.Score
				tr.MissedFrames = 0
				consumed[i] = true
				matched = true
				break
			}
		}
		if !matched {
			unmatched = append(unmatched, det)
		}
	}
	return unmatched
}

// ExpireStale removes tracks whose undetected counter exceeds the
// configured window, closing their backends. Runs before Advance so an
// expired track never receives a wasted update call.
func (s *Store) ExpireStale() {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.tracks[:0]
	for _, tr := range s.tracks {
		if tr.MissedFrames > s.cfg.UndetectedWindow {
			s.closeBackend(tr.ID, tr.Backend)
			s.tracksExpired++
			continue
		}
		kept = append(kept, tr)
	}
	clear(s.tracks[len(kept):])
	s.tracks = kept
}

// Advance runs every surviving track's backend against the current
// frame. Tracks whose reported confidence falls below the score
// threshold are removed as lost and excluded from the output; the rest
// adopt the refined box, record the fresh confidence, increment their
// undetected counter and contribute a box stamped with their id.
func (s *Store) Advance(frame Frame) []geom.Box {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]geom.Box, 0, len(s.tracks))
	kept := s.tracks[:0]
	for _, tr := range s.tracks {
		box, score := tr.Backend.Update(frame)
		if score < s.cfg.TrackScoreThreshold {
			s.closeBackend(tr.ID, tr.Backend)
			s.tracksLost++
			continue
		}
		tr.Box = box
		tr.TrackScore = score
		tr.MissedFrames++
		kept = append(kept, tr)
		out = append(out, tr.output())
	}
	clear(s.tracks[len(kept):])
	s.tracks = kept
	return out
}

// Spawn creates one new track per unmatched detection: a fresh unique
// id, a newly initialized backend, and a zero undetected counter. The
// spawned detections are returned stamped with their new track ids.
//
// A backend that fails to initialize drops its detection (it is never
// kept as an uninitialized track) and the failure is surfaced in the
// joined error while remaining detections are still processed.
func (s *Store) Spawn(frame Frame, dets []geom.Box) ([]geom.Box, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	out := make([]geom.Box, 0, len(dets))
	for _, det := range dets {
		backend := s.newBackend()
		if err := backend.Initialize(frame, det); err != nil {
			s.closeBackend(0, backend)
			s.spawnFailures++
			errs = append(errs, fmt.Errorf("initialize backend for detection at (%.1f,%.1f): %w", det.X1, det.Y1, err))
			continue
		}

		tr := &Track{
			ID:      s.nextID,
			Box:     det,
			Backend: backend,
			Score:   det.Score,
		}
		s.nextID++
		s.tracks = append(s.tracks, tr)
		s.tracksCreated++
		out = append(out, tr.output())
	}
	return out, errors.Join(errs...)
}

// Reset atomically discards all live tracks and their backends, leaving
// the store empty. Subsequent frames behave exactly as on a freshly
// constructed store, including id assignment restarting at 1.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, tr := range s.tracks {
		s.closeBackend(tr.ID, tr.Backend)
	}
	s.tracks = nil
	s.nextID = 1
	s.tracksCreated = 0
	s.tracksExpired = 0
	s.tracksLost = 0
	s.spawnFailures = 0
}

// Len returns the number of live tracks.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tracks)
}

// Snapshot returns the current boxes of all live tracks, stamped with
// their ids and scores, in store order. Safe to call while the pipeline
// is advancing frames.
func (s *Store) Snapshot() []geom.Box {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]geom.Box, 0, len(s.tracks))
	for _, tr := range s.tracks {
		out = append(out, tr.output())
	}
	return out
}

// closeBackend closes a backend, logging rather than propagating close
// failures: the owning track is being removed either way.
func (s *Store) closeBackend(id int64, b Backend) {
	if b == nil {
		return
	}
	if err := b.Close(); err != nil {
		log.Printf("[Tracker] close backend for track %d: %v", id, err)
	}
}
