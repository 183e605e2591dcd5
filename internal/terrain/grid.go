package terrain

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/ridgeline-data/terrain.report/internal/geo"
)

// GridSize is the fixed edge length of an elevation grid. The detection
// rules assume a 5x5 sample with a fully-windowed 3x3 interior.
const GridSize = 5

// ElevationGrid is an immutable 5x5 matrix of elevation samples (meters)
// with the coordinate of each sample, the center coordinate the grid was
// requested for, and the point spacing used to generate it.
type ElevationGrid struct {
	Center        geo.Coordinate                     `json:"center"`
	SpacingMeters float64                            `json:"spacing_meters"`
	Elevations    [GridSize][GridSize]float64        `json:"elevations"`
	Coords        [GridSize][GridSize]geo.Coordinate `json:"coords"`
	GeneratedAt   time.Time                          `json:"generated_at"`
}

// Validate checks the structural invariants of a grid: positive spacing
// and finite elevation samples.
func (g *ElevationGrid) Validate() error {
	if g.SpacingMeters <= 0 {
		return fmt.Errorf("grid spacing must be positive, got %f", g.SpacingMeters)
	}
	if !g.Center.Valid() {
		return fmt.Errorf("grid center %+v out of range", g.Center)
	}
	for r := 0; r < GridSize; r++ {
		for c := 0; c < GridSize; c++ {
			e := g.Elevations[r][c]
			if math.IsNaN(e) || math.IsInf(e, 0) {
				return fmt.Errorf("non-finite elevation at cell (%d,%d)", r, c)
			}
		}
	}
	return nil
}

// GridStats summarises the elevation distribution of a grid.
type GridStats struct {
	MinElevation  float64 `json:"min_elevation"`
	MaxElevation  float64 `json:"max_elevation"`
	MeanElevation float64 `json:"mean_elevation"`
	StdElevation  float64 `json:"std_elevation"`
	Relief        float64 `json:"relief"`
	ReliefRatio   float64 `json:"relief_ratio"`
}

// Stats computes elevation statistics across all 25 samples. ReliefRatio
// is the standard deviation divided by the mean elevation, a cheap
// complexity proxy; it is zero when the mean elevation is zero.
func (g *ElevationGrid) Stats() GridStats {
	flat := make([]float64, 0, GridSize*GridSize)
	minE, maxE := g.Elevations[0][0], g.Elevations[0][0]
	for r := 0; r < GridSize; r++ {
		for c := 0; c < GridSize; c++ {
			e := g.Elevations[r][c]
			flat = append(flat, e)
			if e < minE {
				minE = e
			}
			if e > maxE {
				maxE = e
			}
		}
	}

	mean := stat.Mean(flat, nil)
	std := math.Sqrt(stat.PopVariance(flat, nil))

	s := GridStats{
		MinElevation:  minE,
		MaxElevation:  maxE,
		MeanElevation: mean,
		StdElevation:  std,
		Relief:        maxE - minE,
	}
	if mean != 0 {
		s.ReliefRatio = std / math.Abs(mean)
	}
	return s
}

// SlopeGrid computes the local slope in degrees at every cell from the
// elevation gradient. Interior cells use central differences; edge cells
// fall back to one-sided differences so the grid stays fully populated.
func (g *ElevationGrid) SlopeGrid() [GridSize][GridSize]float64 {
	var slopes [GridSize][GridSize]float64
	for r := 0; r < GridSize; r++ {
		for c := 0; c < GridSize; c++ {
			slopes[r][c] = g.slopeAt(r, c)
		}
	}
	return slopes
}

// slopeAt returns the slope angle in degrees at cell (r, c).
func (g *ElevationGrid) slopeAt(r, c int) float64 {
	dzdx := g.diff(r, c, 0, 1)
	dzdy := g.diff(r, c, 1, 0)
	grad := math.Sqrt(dzdx*dzdx + dzdy*dzdy)
	return math.Atan(grad) * 180 / math.Pi
}

// diff computes the elevation gradient component along (dr, dc) per meter,
// using a central difference where both neighbours exist.
func (g *ElevationGrid) diff(r, c, dr, dc int) float64 {
	loR, loC := r-dr, c-dc
	hiR, hiC := r+dr, c+dc
	loOK := loR >= 0 && loR < GridSize && loC >= 0 && loC < GridSize
	hiOK := hiR >= 0 && hiR < GridSize && hiC >= 0 && hiC < GridSize

	switch {
	case loOK && hiOK:
		return (g.Elevations[hiR][hiC] - g.Elevations[loR][loC]) / (2 * g.SpacingMeters)
	case hiOK:
		return (g.Elevations[hiR][hiC] - g.Elevations[r][c]) / g.SpacingMeters
	case loOK:
		return (g.Elevations[r][c] - g.Elevations[loR][loC]) / g.SpacingMeters
	default:
		return 0
	}
}

// neighborOffsets enumerates the 8-connected neighbourhood in a fixed
// order (row-major, skipping the center) so every scan is deterministic.
var neighborOffsets = [8][2]int{
	{-1, -1}, {-1, 0}, {-1, 1},
	{0, -1}, {0, 1},
	{1, -1}, {1, 0}, {1, 1},
}

// orthogonalOffsets enumerates the 4-connected neighbourhood: N, W, E, S.
var orthogonalOffsets = [4][2]int{
	{-1, 0}, {0, -1}, {0, 1}, {1, 0},
}

func inGrid(r, c int) bool {
	return r >= 0 && r < GridSize && c >= 0 && c < GridSize
}
