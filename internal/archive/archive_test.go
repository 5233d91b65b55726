package archive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/frametrack/internal/geom"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestStartRunAssignsUniqueIDs(t *testing.T) {
	db := newTestDB(t)

	a, err := db.StartRun(640, 480)
	require.NoError(t, err)
	b, err := db.StartRun(640, 480)
	require.NoError(t, err)

	assert.NotEmpty(t, a.RunID())
	assert.NotEqual(t, a.RunID(), b.RunID())
}

func TestRecordFrameRoundtrip(t *testing.T) {
	db := newTestDB(t)

	run, err := db.StartRun(320, 240)
	require.NoError(t, err)

	require.NoError(t, run.RecordFrame(0, []geom.Box{
		{X1: 1, Y1: 2, X2: 3, Y2: 4, Score: 0.9, TrackID: 1, TrackScore: 0.8},
		{X1: 5, Y1: 6, X2: 7, Y2: 8, Score: 0.7, TrackID: 2, TrackScore: 0.6},
	}))
	require.NoError(t, run.RecordFrame(1, []geom.Box{
		{X1: 1.5, Y1: 2.5, X2: 3.5, Y2: 4.5, Score: 0.95, TrackID: 1, TrackScore: 0.85},
	}))

	obs, err := db.Observations(run.RunID())
	require.NoError(t, err)
	require.Len(t, obs, 3)

	assert.Equal(t, int64(0), obs[0].FrameIndex)
	assert.Equal(t, int64(1), obs[0].TrackID)
	assert.Equal(t, 0.9, obs[0].Box.Score)
	assert.Equal(t, int64(2), obs[1].TrackID)
	assert.Equal(t, int64(1), obs[2].FrameIndex)
	assert.Equal(t, 0.85, obs[2].Box.TrackScore)
}

func TestRecordFrameEmptyIsNoop(t *testing.T) {
	db := newTestDB(t)

	run, err := db.StartRun(320, 240)
	require.NoError(t, err)
	require.NoError(t, run.RecordFrame(7, nil))

	obs, err := db.Observations(run.RunID())
	require.NoError(t, err)
	assert.Empty(t, obs)
}

func TestObservationsIsolatedPerRun(t *testing.T) {
	db := newTestDB(t)

	a, err := db.StartRun(320, 240)
	require.NoError(t, err)
	b, err := db.StartRun(320, 240)
	require.NoError(t, err)

	require.NoError(t, a.RecordFrame(0, []geom.Box{{X1: 1, Y1: 1, X2: 2, Y2: 2, TrackID: 1}}))
	require.NoError(t, b.RecordFrame(0, []geom.Box{{X1: 3, Y1: 3, X2: 4, Y2: 4, TrackID: 1}}))

	obs, err := db.Observations(a.RunID())
	require.NoError(t, err)
	require.Len(t, obs, 1)
	assert.Equal(t, 1.0, obs[0].Box.X1)
}
