package track

import "github.com/banshee-data/frametrack/internal/geom"

// Track is a persistent identity following one object across frames.
// Tracks are owned exclusively by the Store; external callers only see
// box snapshots.
type Track struct {
	// ID is unique for the lifetime of the owning store, assigned at
	// spawn from a monotonic counter, never reused.
	ID int64

	// Box is the current estimate: the matched detection after
	// association, or the backend's refined box after advancement.
	Box geom.Box

	// Backend is the owned single-object tracker, initialized at spawn
	// and closed when the track is removed.
	Backend Backend

	// MissedFrames counts frames survived without a fresh detection.
	// Reset to 0 on association, incremented on every advance.
	MissedFrames int

	// Score is the confidence of the last associated detection.
	Score float64

	// TrackScore is the backend's confidence from the latest update.
	TrackScore float64
}

// output returns the track's box stamped with its identity and scores,
// as emitted in the generated-boxes channel.
func (tr *Track) output() geom.Box {
	box := tr.Box
	box.TrackID = tr.ID
	box.Score = tr.Score
	box.TrackScore = tr.TrackScore
	return box
}
