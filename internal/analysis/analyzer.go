// Package analysis wires the terrain pipeline together behind a single
// entry point: validate the coordinate, fetch the elevation grid from the
// injected provider, run detection, corridor, funnel, and scoring stages,
// and memoize the result in a TTL cache with per-key single-flight.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"math"

	"golang.org/x/sync/singleflight"

	"github.com/ridgeline-data/terrain.report/internal/config"
	"github.com/ridgeline-data/terrain.report/internal/geo"
	"github.com/ridgeline-data/terrain.report/internal/terrain"
)

// ErrInvalidCoordinate indicates a latitude/longitude outside WGS84
// bounds or a non-finite value. Fails fast, never retried.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// GridProvider supplies 5x5 elevation grids. Implemented by
// elevation.Provider in production and by test fakes. It is the only
// collaborator permitted to block on I/O.
type GridProvider interface {
	FetchGrid(ctx context.Context, lat, lon, spacingMeters float64) (*terrain.ElevationGrid, error)
}

// Analyzer runs the full terrain analysis pipeline. All stages are pure
// functions of the fetched grid, so results are deterministic for a
// given grid and configuration.
type Analyzer struct {
	provider GridProvider
	detector *terrain.FeatureDetector
	corridor *terrain.CorridorAnalyzer
	funnel   *terrain.FunnelIdentifier
	scorer   *terrain.SuitabilityScorer

	spacingMeters float64
	cache         *Cache
	flight        singleflight.Group
}

// NewAnalyzer creates an analyzer from the injected provider and tuning
// configuration. A nil config uses all defaults.
func NewAnalyzer(provider GridProvider, cfg *config.TuningConfig) *Analyzer {
	if cfg == nil {
		cfg = config.EmptyTuningConfig()
	}
	return &Analyzer{
		provider:      provider,
		detector:      terrain.NewFeatureDetector(cfg.DetectorParams()),
		corridor:      terrain.NewCorridorAnalyzer(),
		funnel:        terrain.NewFunnelIdentifier(cfg.ClusterParams()),
		scorer:        terrain.NewSuitabilityScorer(),
		spacingMeters: cfg.GetGridSpacingMeters(),
		cache:         NewCache(cfg.GetCacheTTL()),
	}
}

// AnalyzeTerrainFeatures runs the pipeline for the coordinate. With
// forceRefresh false, a cached result within the TTL is returned without
// touching the provider, and concurrent callers for the same key share
// one in-flight computation. With forceRefresh true the provider is
// always invoked and the fresh result replaces the cached one. A failed
// computation never populates the cache.
func (a *Analyzer) AnalyzeTerrainFeatures(ctx context.Context, lat, lon float64, forceRefresh bool) (*terrain.AnalysisResult, error) {
	if !(geo.Coordinate{Lat: lat, Lon: lon}).Valid() {
		return nil, fmt.Errorf("%w: lat=%f lon=%f", ErrInvalidCoordinate, lat, lon)
	}

	key := cacheKey{
		latE4:     int64(math.Round(lat * coordKeyPrecision)),
		lonE4:     int64(math.Round(lon * coordKeyPrecision)),
		spacingCm: int64(math.Round(a.spacingMeters * 100)),
	}

	if forceRefresh {
		// Forced refresh always hits the provider; no single-flight
		// sharing, so every forced call observes fresh data.
		result, err := a.analyze(ctx, lat, lon)
		if err != nil {
			return nil, err
		}
		a.cache.put(key, result)
		return result, nil
	}

	if result, ok := a.cache.get(key); ok {
		return result, nil
	}

	flightKey := fmt.Sprintf("%d:%d:%d", key.latE4, key.lonE4, key.spacingCm)
	v, err, _ := a.flight.Do(flightKey, func() (interface{}, error) {
		// A concurrent caller may have populated the cache while this
		// call waited its turn.
		if result, ok := a.cache.get(key); ok {
			return result, nil
		}
		result, err := a.analyze(ctx, lat, lon)
		if err != nil {
			return nil, err
		}
		a.cache.put(key, result)
		return result, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*terrain.AnalysisResult), nil
}

// analyze fetches the grid and runs the pure pipeline stages.
func (a *Analyzer) analyze(ctx context.Context, lat, lon float64) (*terrain.AnalysisResult, error) {
	grid, err := a.provider.FetchGrid(ctx, lat, lon, a.spacingMeters)
	if err != nil {
		return nil, err
	}

	features := a.detector.DetectFeatures(grid)
	corridors := a.corridor.AnalyzeCorridors(features)
	funnels := a.funnel.IdentifyFunnels(features, grid.Center)
	return a.scorer.BuildResult(grid, features, corridors, funnels), nil
}
