package track

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/frametrack/internal/geom"
)

func TestMetricsEmptyStore(t *testing.T) {
	t.Parallel()

	s := NewStore(DefaultConfig(), stubFactory(1.0, nil))
	m := s.Metrics()
	assert.Zero(t, m.ActiveTracks)
	assert.Zero(t, m.MeanTrackScore)
	assert.Zero(t, m.MedianTrackScore)
}

func TestMetricsCountsAndScores(t *testing.T) {
	t.Parallel()

	s := NewStore(DefaultConfig(), stubFactory(1.0, nil))
	_, err := s.Spawn(testFrame(), []geom.Box{
		det(0, 0, 10, 10, 0.9),
		det(20, 20, 30, 30, 0.8),
		det(40, 40, 50, 50, 0.7),
	})
	require.NoError(t, err)
	s.tracks[0].TrackScore = 0.2
	s.tracks[1].TrackScore = 0.4
	s.tracks[2].TrackScore = 0.9

	m := s.Metrics()
	assert.Equal(t, 3, m.ActiveTracks)
	assert.Equal(t, int64(3), m.TracksCreated)
	assert.InDelta(t, 0.5, m.MeanTrackScore, 1e-9)
	assert.InDelta(t, 0.4, m.MedianTrackScore, 1e-9)
}

func TestMetricsLifecycleCounters(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.UndetectedWindow = 1
	cfg.TrackScoreThreshold = 0.5

	scores := []float64{1.0, 0.1} // second spawned backend reports low confidence
	i := 0
	factory := func() Backend {
		b := &stubBackend{score: scores[i%len(scores)]}
		i++
		return b
	}

	s := NewStore(cfg, factory)
	_, err := s.Spawn(testFrame(), []geom.Box{
		det(0, 0, 10, 10, 0.9),
		det(20, 20, 30, 30, 0.8),
	})
	require.NoError(t, err)

	// Second track is lost on advance; first survives then expires.
	s.Advance(testFrame())
	s.tracks[0].MissedFrames = 2
	s.ExpireStale()

	m := s.Metrics()
	assert.Equal(t, int64(2), m.TracksCreated)
	assert.Equal(t, int64(1), m.TracksLost)
	assert.Equal(t, int64(1), m.TracksExpired)
	assert.Zero(t, m.ActiveTracks)
}
