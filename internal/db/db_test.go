package db

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridgeline-data/terrain.report/internal/geo"
	"github.com/ridgeline-data/terrain.report/internal/terrain"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	store, err := NewDB(filepath.Join(t.TempDir(), "terrain_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleResult(lat, lon, suitability float64) *terrain.AnalysisResult {
	return &terrain.AnalysisResult{
		Center:        geo.Coordinate{Lat: lat, Lon: lon},
		SpacingMeters: 50,
		GeneratedAt:   time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
		Features: []terrain.TerrainFeature{
			{Type: terrain.FeatureSaddle, Confidence: 95, Suitability: 100},
		},
		Corridors: []terrain.Corridor{
			{Type: terrain.CorridorSaddle, Confidence: 85.5, Suitability: 100},
		},
		Suitability: terrain.SuitabilityAnalysis{
			OverallSuitability: suitability,
			Terrain:            terrain.TerrainMetrics{Complexity: 0.42},
		},
	}
}

func TestRecordAndGetAnalysis(t *testing.T) {
	store := testDB(t)

	result := sampleResult(44.4759, -73.2121, 72)
	runID, err := store.RecordAnalysis(result)
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	loaded, err := store.GetAnalysis(runID)
	require.NoError(t, err)
	assert.Equal(t, result.Center, loaded.Center)
	assert.Equal(t, result.SpacingMeters, loaded.SpacingMeters)
	assert.Len(t, loaded.Features, 1)
	assert.Equal(t, terrain.FeatureSaddle, loaded.Features[0].Type)
	assert.Equal(t, 72.0, loaded.Suitability.OverallSuitability)
}

func TestGetAnalysis_UnknownRun(t *testing.T) {
	store := testDB(t)
	_, err := store.GetAnalysis("no-such-run")
	assert.Error(t, err)
}

func TestRecentRuns(t *testing.T) {
	store := testDB(t)

	ids := []string{}
	for i := 0; i < 3; i++ {
		id, err := store.RecordAnalysis(sampleResult(44.4+float64(i)*0.01, -73.2, 50+float64(i)*10))
		require.NoError(t, err)
		ids = append(ids, id)
	}

	records, err := store.RecentRuns(10)
	require.NoError(t, err)
	require.Len(t, records, 3)
	for _, r := range records {
		assert.Contains(t, ids, r.RunID)
		assert.Equal(t, 1, r.FeatureCount)
		assert.Equal(t, 1, r.CorridorCount)
	}

	limited, err := store.RecentRuns(2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestBestSites(t *testing.T) {
	store := testDB(t)

	for _, suit := range []float64{35, 55, 82, 91} {
		_, err := store.RecordAnalysis(sampleResult(44.4759, -73.2121, suit))
		require.NoError(t, err)
	}

	records, err := store.BestSites(60, 10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 91.0, records[0].OverallSuitability)
	assert.Equal(t, 82.0, records[1].OverallSuitability)

	none, err := store.BestSites(99, 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}
