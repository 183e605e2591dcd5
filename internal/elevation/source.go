// Package elevation provides elevation data acquisition for the terrain
// pipeline: the Source lookup interface, a deterministic synthetic source
// for tests and dev mode, an Open Topo Data compatible HTTP client, and
// the 5x5 grid provider that feeds the analyzer.
//
// This is the only layer permitted to perform blocking I/O; everything
// downstream is a pure function of the returned grid.
package elevation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ridgeline-data/terrain.report/internal/geo"
	"github.com/ridgeline-data/terrain.report/internal/terrain"
)

// ErrUnavailable indicates the elevation source could not supply data.
// The analysis layer propagates it without any silent fallback; choosing
// a synthetic substitute is the caller's explicit decision.
var ErrUnavailable = errors.New("elevation data unavailable")

// Source supplies the elevation in meters at a single coordinate.
type Source interface {
	ElevationAt(ctx context.Context, lat, lon float64) (float64, error)
}

// Provider builds fixed 5x5 elevation grids around a center coordinate
// from point lookups against a Source.
type Provider struct {
	source Source
	now    func() time.Time
}

// NewProvider creates a grid provider backed by the given source.
func NewProvider(source Source) *Provider {
	return &Provider{source: source, now: time.Now}
}

// FetchGrid samples a 5x5 grid centered on (lat, lon) with the given
// point spacing in meters, converted to degrees using the local
// meters-per-degree scale. Row 0 is the northernmost row; column 0 the
// westernmost column. Any source failure surfaces as ErrUnavailable.
func (p *Provider) FetchGrid(ctx context.Context, lat, lon, spacingMeters float64) (*terrain.ElevationGrid, error) {
	if spacingMeters <= 0 {
		return nil, fmt.Errorf("grid spacing must be positive, got %f", spacingMeters)
	}

	center := geo.Coordinate{Lat: lat, Lon: lon}
	grid := &terrain.ElevationGrid{
		Center:        center,
		SpacingMeters: spacingMeters,
		GeneratedAt:   p.now(),
	}

	half := terrain.GridSize / 2
	for r := 0; r < terrain.GridSize; r++ {
		for c := 0; c < terrain.GridSize; c++ {
			coord := geo.Offset(center, float64(half-r)*spacingMeters, float64(c-half)*spacingMeters)
			elev, err := p.source.ElevationAt(ctx, coord.Lat, coord.Lon)
			if err != nil {
				return nil, fmt.Errorf("%w: sample (%d,%d): %v", ErrUnavailable, r, c, err)
			}
			grid.Coords[r][c] = coord
			grid.Elevations[r][c] = elev
		}
	}

	if err := grid.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return grid, nil
}
