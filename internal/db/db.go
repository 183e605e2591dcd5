// Package db persists completed terrain analysis runs to sqlite so runs
// can be compared across parameter changes and revisited without
// recomputation.
package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/ridgeline-data/terrain.report/internal/terrain"
)

// DB wraps the sqlite handle for analysis run storage.
type DB struct {
	*sql.DB
}

// NewDB opens (or creates) the run database at path and ensures the
// schema exists.
func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS terrain_runs (
			run_id               TEXT PRIMARY KEY,
			lat                  DOUBLE NOT NULL,
			lon                  DOUBLE NOT NULL,
			spacing_meters       DOUBLE NOT NULL,
			feature_count        BIGINT NOT NULL,
			corridor_count       BIGINT NOT NULL,
			funnel_count         BIGINT NOT NULL,
			overall_suitability  DOUBLE NOT NULL,
			complexity           DOUBLE NOT NULL,
			result_json          TEXT NOT NULL,
			created              TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_terrain_runs_suitability
			ON terrain_runs(overall_suitability);
	`)
	if err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

// RunRecord is a stored analysis run summary.
type RunRecord struct {
	RunID              string    `json:"run_id"`
	Lat                float64   `json:"lat"`
	Lon                float64   `json:"lon"`
	SpacingMeters      float64   `json:"spacing_meters"`
	FeatureCount       int       `json:"feature_count"`
	CorridorCount      int       `json:"corridor_count"`
	FunnelCount        int       `json:"funnel_count"`
	OverallSuitability float64   `json:"overall_suitability"`
	Complexity         float64   `json:"complexity"`
	Created            time.Time `json:"created"`
}

// RecordAnalysis stores a completed analysis result and returns the run
// ID assigned to it.
func (db *DB) RecordAnalysis(result *terrain.AnalysisResult) (string, error) {
	payload, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("failed to marshal analysis result: %w", err)
	}

	runID := uuid.New().String()
	_, err = db.Exec(`
		INSERT INTO terrain_runs (
			run_id, lat, lon, spacing_meters,
			feature_count, corridor_count, funnel_count,
			overall_suitability, complexity, result_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID,
		result.Center.Lat,
		result.Center.Lon,
		result.SpacingMeters,
		len(result.Features),
		len(result.Corridors),
		len(result.Funnels),
		result.Suitability.OverallSuitability,
		result.Suitability.Terrain.Complexity,
		string(payload),
	)
	if err != nil {
		return "", fmt.Errorf("failed to record analysis run: %w", err)
	}
	return runID, nil
}

// GetAnalysis loads the full stored result for a run ID.
func (db *DB) GetAnalysis(runID string) (*terrain.AnalysisResult, error) {
	var payload string
	err := db.QueryRow(
		`SELECT result_json FROM terrain_runs WHERE run_id = ?`, runID,
	).Scan(&payload)
	if err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", runID, err)
	}

	var result terrain.AnalysisResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run %s: %w", runID, err)
	}
	return &result, nil
}

// RecentRuns returns run summaries ordered newest first.
func (db *DB) RecentRuns(limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.Query(`
		SELECT run_id, lat, lon, spacing_meters,
			feature_count, corridor_count, funnel_count,
			overall_suitability, complexity, created
		FROM terrain_runs
		ORDER BY created DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent runs: %w", err)
	}
	defer rows.Close()

	return scanRunRecords(rows)
}

// BestSites returns run summaries at or above the suitability floor,
// best first.
func (db *DB) BestSites(minSuitability float64, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.Query(`
		SELECT run_id, lat, lon, spacing_meters,
			feature_count, corridor_count, funnel_count,
			overall_suitability, complexity, created
		FROM terrain_runs
		WHERE overall_suitability >= ?
		ORDER BY overall_suitability DESC
		LIMIT ?`, minSuitability, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query best sites: %w", err)
	}
	defer rows.Close()

	return scanRunRecords(rows)
}

func scanRunRecords(rows *sql.Rows) ([]RunRecord, error) {
	records := []RunRecord{}
	for rows.Next() {
		var r RunRecord
		if err := rows.Scan(
			&r.RunID, &r.Lat, &r.Lon, &r.SpacingMeters,
			&r.FeatureCount, &r.CorridorCount, &r.FunnelCount,
			&r.OverallSuitability, &r.Complexity, &r.Created,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
