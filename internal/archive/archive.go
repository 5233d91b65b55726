// Package archive persists per-run track observations to sqlite so
// runs can be inspected and compared after the fact.
package archive

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/frametrack/internal/evaluator"
	"github.com/banshee-data/frametrack/internal/geom"
)

type DB struct {
	*sql.DB
}

func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			run_id            TEXT PRIMARY KEY,
			started_at        TIMESTAMP,
			width             BIGINT,
			height            BIGINT
		);
		CREATE TABLE IF NOT EXISTS track_observations (
			run_id            TEXT,
			frame_index       BIGINT,
			track_id          BIGINT,
			x1                DOUBLE,
			y1                DOUBLE,
			x2                DOUBLE,
			y2                DOUBLE,
			score             DOUBLE,
			track_score       DOUBLE,
			FOREIGN KEY(run_id) REFERENCES runs(run_id)
		);
		CREATE INDEX IF NOT EXISTS idx_track_observations_run_frame
			ON track_observations(run_id, frame_index);
	`)
	if err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

// Run records observations under a single run id.
type Run struct {
	db    *DB
	runID string
}

var _ evaluator.Sink = (*Run)(nil)

// StartRun registers a new run with the frame geometry and returns a
// Run that records into it.
func (db *DB) StartRun(width, height int) (*Run, error) {
	runID := uuid.NewString()
	_, err := db.Exec(
		`INSERT INTO runs (run_id, started_at, width, height) VALUES (?, ?, ?, ?)`,
		runID, time.Now().UTC(), width, height,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register run: %w", err)
	}
	return &Run{db: db, runID: runID}, nil
}

func (r *Run) RunID() string { return r.runID }

// RecordFrame stores the tracked boxes emitted for one frame. All rows
// for the frame land in a single transaction.
func (r *Run) RecordFrame(frameIndex int64, tracked []geom.Box) error {
	if len(tracked) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin observation tx: %w", err)
	}
	stmt, err := tx.Prepare(`
		INSERT INTO track_observations
			(run_id, frame_index, track_id, x1, y1, x2, y2, score, track_score)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare observation insert: %w", err)
	}
	defer stmt.Close()

	for _, box := range tracked {
		if _, err := stmt.Exec(
			r.runID, frameIndex, box.TrackID,
			box.X1, box.Y1, box.X2, box.Y2,
			box.Score, box.TrackScore,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert observation: %w", err)
		}
	}
	return tx.Commit()
}

// Observation is one archived track sighting.
type Observation struct {
	FrameIndex int64    `json:"frame_index"`
	TrackID    int64    `json:"track_id"`
	Box        geom.Box `json:"box"`
}

// Observations returns the archived sightings for a run in frame order.
func (db *DB) Observations(runID string) ([]Observation, error) {
	rows, err := db.Query(`
		SELECT frame_index, track_id, x1, y1, x2, y2, score, track_score
		FROM track_observations
		WHERE run_id = ?
		ORDER BY frame_index, track_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query observations: %w", err)
	}
	defer rows.Close()

	var out []Observation
	for rows.Next() {
		var obs Observation
		if err := rows.Scan(
			&obs.FrameIndex, &obs.TrackID,
			&obs.Box.X1, &obs.Box.Y1, &obs.Box.X2, &obs.Box.Y2,
			&obs.Box.Score, &obs.Box.TrackScore,
		); err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}
		obs.Box.TrackID = obs.TrackID
		out = append(out, obs)
	}
	return out, rows.Err()
}
