package track

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Metrics holds aggregate lifecycle and confidence statistics across
// the store. Used by the monitor endpoints and the batch runner's
// end-of-run summary.
type Metrics struct {
	// Number of live tracks right now
	ActiveTracks int `json:"active_tracks"`
	// Tracks spawned since construction or Reset
	TracksCreated int64 `json:"tracks_created"`
	// Tracks removed by the undetected-window expiry rule
	TracksExpired int64 `json:"tracks_expired"`
	// Tracks removed for backend confidence below threshold
	TracksLost int64 `json:"tracks_lost"`
	// Detections dropped because their backend failed to initialize
	SpawnFailures int64 `json:"spawn_failures"`

	// Backend confidence distribution over live tracks
	MeanTrackScore   float64 `json:"mean_track_score"`
	MedianTrackScore float64 `json:"median_track_score"`
	P90TrackScore    float64 `json:"p90_track_score"`
}

// Metrics computes the current aggregate statistics. Confidence
// summaries cover live tracks only; a store with no live tracks reports
// zeros.
func (s *Store) Metrics() Metrics {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m := Metrics{
		ActiveTracks:  len(s.tracks),
		TracksCreated: s.tracksCreated,
		TracksExpired: s.tracksExpired,
		TracksLost:    s.tracksLost,
		SpawnFailures: s.spawnFailures,
	}

	if len(s.tracks) == 0 {
		return m
	}

	scores := make([]float64, 0, len(s.tracks))
	for _, tr := range s.tracks {
		scores = append(scores, tr.TrackScore)
	}
	m.MeanTrackScore = stat.Mean(scores, nil)

	sort.Float64s(scores)
	m.MedianTrackScore = stat.Quantile(0.5, stat.Empirical, scores, nil)
	m.P90TrackScore = stat.Quantile(0.9, stat.Empirical, scores, nil)
	return m
}
