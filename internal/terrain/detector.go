package terrain

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Detection thresholds and score constants. The additive bonus values are
// empirically calibrated against observed movement data; they are exposed
// through DetectorParams rather than re-derived.
const (
	// DefaultSaddleDepthThreshold is the minimum height (m) a neighbour
	// must stand above a cell to count toward a saddle.
	DefaultSaddleDepthThreshold = 5.0
	// SaddleMinHigherNeighbors is the minimum number of higher neighbours
	// for a saddle classification.
	SaddleMinHigherNeighbors = 4
	// DefaultSaddleWidthMin and DefaultSaddleWidthMax bound the preferred
	// saddle passage width (m).
	DefaultSaddleWidthMin = 30.0
	DefaultSaddleWidthMax = 100.0

	// DefaultRidgeProminenceThreshold is the minimum prominence (m) for a
	// ridge spine.
	DefaultRidgeProminenceThreshold = 8.0
	// RidgeConnectivityTolerance is the elevation band (m) within which a
	// neighbour counts as connected ridge line.
	RidgeConnectivityTolerance = 5.0
	// DefaultRidgeAccessibilityThreshold is the connectivity fraction above
	// which a ridge earns its accessibility bonus.
	DefaultRidgeAccessibilityThreshold = 0.6
	// DefaultEscapeRoutePriority weights the ridge escape-route bonus.
	DefaultEscapeRoutePriority = 0.8

	// DrainageMaxSteps caps steepest-descent tracing.
	DrainageMaxSteps = 10
	// DrainageMinPathCells is the minimum traced path length.
	DrainageMinPathCells = 3
	// DefaultDrainageMaxGradientPercent is the maximum usable drainage
	// gradient.
	DefaultDrainageMaxGradientPercent = 10.0
	// DefaultDrainageConcealmentMultiplier scales the drainage concealment
	// bonus.
	DefaultDrainageConcealmentMultiplier = 15.0
	// DefaultDrainageWaterAccessBonus is the fixed water-access bonus.
	DefaultDrainageWaterAccessBonus = 10.0
	// drainageConcealmentNormMeters normalises the path depression gap to
	// a [0,1] concealment value.
	drainageConcealmentNormMeters = 10.0
	// drainageChannelDepthMin is the minimum depression (m) of the origin
	// cell below its neighbourhood mean. Filters smooth constant-gradient
	// planes, which descend but carry no channel.
	drainageChannelDepthMin = 0.5

	// DefaultSlopeBreakVarianceThreshold is the minimum local slope
	// variance (deg^2) flagged as a transition.
	DefaultSlopeBreakVarianceThreshold = 15.0

	// DefaultBenchFlatnessThreshold is the maximum bench slope (deg).
	DefaultBenchFlatnessThreshold = 5.0
	// BenchNeighborSlopeDelta is how much steeper the surroundings must be
	// than the bench cell (deg).
	BenchNeighborSlopeDelta = 5.0
	// DefaultBenchPreferredElevationMin/Max bound the preferred mid-range
	// elevation band (m).
	DefaultBenchPreferredElevationMin = 300.0
	DefaultBenchPreferredElevationMax = 600.0
)

// DetectorParams contains the tunable thresholds for feature detection.
type DetectorParams struct {
	SaddleDepthThreshold          float64
	SaddleWidthMin                float64
	SaddleWidthMax                float64
	RidgeProminenceThreshold      float64
	RidgeAccessibilityThreshold   float64
	EscapeRoutePriority           float64
	DrainageMaxGradientPercent    float64
	DrainageConcealmentMultiplier float64
	DrainageWaterAccessBonus      float64
	SlopeBreakVarianceThreshold   float64
	BenchFlatnessThreshold        float64
	BenchPreferredElevationMin    float64
	BenchPreferredElevationMax    float64
}

// DefaultDetectorParams returns the production-default detection thresholds.
func DefaultDetectorParams() DetectorParams {
	return DetectorParams{
		SaddleDepthThreshold:          DefaultSaddleDepthThreshold,
		SaddleWidthMin:                DefaultSaddleWidthMin,
		SaddleWidthMax:                DefaultSaddleWidthMax,
		RidgeProminenceThreshold:      DefaultRidgeProminenceThreshold,
		RidgeAccessibilityThreshold:   DefaultRidgeAccessibilityThreshold,
		EscapeRoutePriority:           DefaultEscapeRoutePriority,
		DrainageMaxGradientPercent:    DefaultDrainageMaxGradientPercent,
		DrainageConcealmentMultiplier: DefaultDrainageConcealmentMultiplier,
		DrainageWaterAccessBonus:      DefaultDrainageWaterAccessBonus,
		SlopeBreakVarianceThreshold:   DefaultSlopeBreakVarianceThreshold,
		BenchFlatnessThreshold:        DefaultBenchFlatnessThreshold,
		BenchPreferredElevationMin:    DefaultBenchPreferredElevationMin,
		BenchPreferredElevationMax:    DefaultBenchPreferredElevationMax,
	}
}

// FeatureDetector classifies grid cells into terrain features using
// rule-based thresholds. A cell may carry zero or more feature types.
type FeatureDetector struct {
	params DetectorParams
}

// NewFeatureDetector creates a detector with the given parameters.
func NewFeatureDetector(params DetectorParams) *FeatureDetector {
	return &FeatureDetector{params: params}
}

// DetectFeatures scans the interior cells of the grid (rows and columns
// 1..3, where the full 8-neighbour window exists) and returns every
// detected feature. A perfectly flat or smooth grid yields an empty list.
func (d *FeatureDetector) DetectFeatures(grid *ElevationGrid) []TerrainFeature {
	slopes := grid.SlopeGrid()

	features := []TerrainFeature{}
	for r := 1; r < GridSize-1; r++ {
		for c := 1; c < GridSize-1; c++ {
			if f, ok := d.detectSaddle(grid, slopes, r, c); ok {
				features = append(features, f)
			}
			if f, ok := d.detectRidgeSpine(grid, slopes, r, c); ok {
				features = append(features, f)
			}
			if f, ok := d.detectDrainage(grid, r, c); ok {
				features = append(features, f)
			}
			if f, ok := d.detectSlopeBreak(slopes, grid, r, c); ok {
				features = append(features, f)
			}
			if f, ok := d.detectBench(slopes, grid, r, c); ok {
				features = append(features, f)
			}
		}
	}
	return features
}

// detectSaddle classifies a cell that sits below most of its neighbours.
func (d *FeatureDetector) detectSaddle(grid *ElevationGrid, slopes [GridSize][GridSize]float64, r, c int) (TerrainFeature, bool) {
	cell := grid.Elevations[r][c]

	higher := 0
	var higherSum float64
	for _, off := range neighborOffsets {
		nbr := grid.Elevations[r+off[0]][c+off[1]]
		if nbr-cell >= d.params.SaddleDepthThreshold {
			higher++
			higherSum += nbr
		}
	}
	if higher < SaddleMinHigherNeighbors {
		return TerrainFeature{}, false
	}

	depth := higherSum/float64(higher) - cell

	// Width estimate: each opposite higher pair (N/S, E/W) walls one axis
	// of the passage. Two walled axes leave a one-spacing gap, one leaves
	// two, none leaves three.
	walledAxes := 0
	if grid.Elevations[r-1][c]-cell >= d.params.SaddleDepthThreshold &&
		grid.Elevations[r+1][c]-cell >= d.params.SaddleDepthThreshold {
		walledAxes++
	}
	if grid.Elevations[r][c-1]-cell >= d.params.SaddleDepthThreshold &&
		grid.Elevations[r][c+1]-cell >= d.params.SaddleDepthThreshold {
		walledAxes++
	}
	width := grid.SpacingMeters * float64(3-walledAxes)

	concealment := clamp01(depth / 15)

	suitability := 40.0
	switch {
	case depth >= 10:
		suitability += 25
	case depth >= 5:
		suitability += 15
	}
	switch {
	case width >= d.params.SaddleWidthMin && width <= d.params.SaddleWidthMax:
		suitability += 20
	case width < d.params.SaddleWidthMin:
		suitability += 10
	}
	suitability += concealment * 15

	return TerrainFeature{
		Type:        FeatureSaddle,
		Location:    grid.Coords[r][c],
		Row:         r,
		Col:         c,
		Confidence:  math.Min(95, 50+depth*3),
		Suitability: clampScore(suitability),
		Saddle: &SaddleProps{
			DepthMeters:   depth,
			WidthMeters:   width,
			Accessibility: clamp01(1 - slopes[r][c]/30),
			Concealment:   concealment,
		},
	}, true
}

// detectRidgeSpine classifies a cell standing prominently above its
// neighbourhood mean.
func (d *FeatureDetector) detectRidgeSpine(grid *ElevationGrid, slopes [GridSize][GridSize]float64, r, c int) (TerrainFeature, bool) {
	cell := grid.Elevations[r][c]

	var nbrSum float64
	connected := 0
	for _, off := range neighborOffsets {
		nbr := grid.Elevations[r+off[0]][c+off[1]]
		nbrSum += nbr
		if math.Abs(nbr-cell) <= RidgeConnectivityTolerance {
			connected++
		}
	}

	prominence := cell - nbrSum/float64(len(neighborOffsets))
	if prominence < d.params.RidgeProminenceThreshold {
		return TerrainFeature{}, false
	}

	connectivity := float64(connected) / float64(len(neighborOffsets))
	steepness := slopes[r][c]

	suitability := 35.0
	if prominence >= 15 {
		suitability += 20
	} else {
		suitability += 15
	}
	if connectivity >= d.params.RidgeAccessibilityThreshold {
		suitability += 15
	}
	if steepness >= 5 && steepness <= 20 {
		suitability += 10
	}
	if connectivity >= 0.7 {
		// Connected spine in several directions means multiple escape
		// routes off the high line.
		suitability += 20 * d.params.EscapeRoutePriority
	}

	return TerrainFeature{
		Type:        FeatureRidgeSpine,
		Location:    grid.Coords[r][c],
		Row:         r,
		Col:         c,
		Confidence:  math.Min(90, 40+prominence*4),
		Suitability: clampScore(suitability),
		Ridge: &RidgeProps{
			ProminenceMeters: prominence,
			Connectivity:     connectivity,
			SteepnessDegrees: steepness,
		},
	}, true
}

// detectDrainage traces a steepest-descent path from the cell and
// classifies it when the path is long and gentle enough to travel.
func (d *FeatureDetector) detectDrainage(grid *ElevationGrid, r, c int) (TerrainFeature, bool) {
	if cellGap(grid, r, c) < drainageChannelDepthMin {
		return TerrainFeature{}, false
	}

	path := traceDescent(grid, r, c, DrainageMaxSteps)
	if len(path) < DrainageMinPathCells {
		return TerrainFeature{}, false
	}

	start := grid.Elevations[path[0][0]][path[0][1]]
	end := grid.Elevations[path[len(path)-1][0]][path[len(path)-1][1]]
	run := float64(len(path)-1) * grid.SpacingMeters
	gradient := (start - end) / run * 100
	if gradient > d.params.DrainageMaxGradientPercent {
		return TerrainFeature{}, false
	}

	concealment := pathConcealment(grid, path)

	suitability := 50.0
	if gradient <= 5 {
		suitability += 20
	} else {
		suitability += 10
	}
	suitability += d.params.DrainageConcealmentMultiplier * concealment
	suitability += d.params.DrainageWaterAccessBonus

	return TerrainFeature{
		Type:        FeatureDrainage,
		Location:    grid.Coords[r][c],
		Row:         r,
		Col:         c,
		Confidence:  math.Min(85, 30+concealment*40),
		Suitability: clampScore(suitability),
		Drainage: &DrainageProps{
			GradientPercent: gradient,
			Concealment:     concealment,
			PathCells:       len(path),
		},
	}, true
}

// traceDescent follows the lowest strictly-lower neighbour from (r, c)
// for at most maxSteps steps, returning the visited cells including the
// origin. Stops when no lower neighbour exists.
func traceDescent(grid *ElevationGrid, r, c, maxSteps int) [][2]int {
	path := [][2]int{{r, c}}
	curR, curC := r, c

	for step := 0; step < maxSteps; step++ {
		bestR, bestC := -1, -1
		bestElev := grid.Elevations[curR][curC]
		for _, off := range neighborOffsets {
			nr, nc := curR+off[0], curC+off[1]
			if !inGrid(nr, nc) {
				continue
			}
			if grid.Elevations[nr][nc] < bestElev {
				bestElev = grid.Elevations[nr][nc]
				bestR, bestC = nr, nc
			}
		}
		if bestR < 0 {
			break
		}
		path = append(path, [2]int{bestR, bestC})
		curR, curC = bestR, bestC
	}
	return path
}

// cellGap returns how far cell (r, c) sits below the mean of its
// in-grid neighbours. Positive values indicate a depression.
func cellGap(grid *ElevationGrid, r, c int) float64 {
	var nbrSum float64
	nbrCount := 0
	for _, off := range neighborOffsets {
		nr, nc := r+off[0], c+off[1]
		if !inGrid(nr, nc) {
			continue
		}
		nbrSum += grid.Elevations[nr][nc]
		nbrCount++
	}
	if nbrCount == 0 {
		return 0
	}
	return nbrSum/float64(nbrCount) - grid.Elevations[r][c]
}

// pathConcealment averages how far each path cell sits below the mean of
// its surrounding cells and normalises the result to [0, 1]. Deeper
// channels conceal movement better.
func pathConcealment(grid *ElevationGrid, path [][2]int) float64 {
	var gapSum float64
	for _, cell := range path {
		gapSum += cellGap(grid, cell[0], cell[1])
	}
	return clamp01(gapSum / float64(len(path)) / drainageConcealmentNormMeters)
}

// detectSlopeBreak flags cells where the local slope angle changes
// abruptly relative to the orthogonal neighbourhood.
func (d *FeatureDetector) detectSlopeBreak(slopes [GridSize][GridSize]float64, grid *ElevationGrid, r, c int) (TerrainFeature, bool) {
	samples := []float64{slopes[r][c]}
	for _, off := range orthogonalOffsets {
		samples = append(samples, slopes[r+off[0]][c+off[1]])
	}
	variance := stat.PopVariance(samples, nil)
	if variance < d.params.SlopeBreakVarianceThreshold {
		return TerrainFeature{}, false
	}

	accessibility := clamp01(1 - slopes[r][c]/30)

	suitability := 30.0
	suitability += 15 * math.Min(variance/(2*d.params.SlopeBreakVarianceThreshold), 1)
	suitability += 25 * accessibility

	return TerrainFeature{
		Type:        FeatureSlopeBreak,
		Location:    grid.Coords[r][c],
		Row:         r,
		Col:         c,
		Confidence:  math.Min(80, 25+variance*2),
		Suitability: clampScore(suitability),
		SlopeBreak: &SlopeBreakProps{
			TransitionStrength: variance,
			Accessibility:      accessibility,
		},
	}, true
}

// detectBench flags flat cells embedded in markedly steeper surroundings.
func (d *FeatureDetector) detectBench(slopes [GridSize][GridSize]float64, grid *ElevationGrid, r, c int) (TerrainFeature, bool) {
	cellSlope := slopes[r][c]
	if cellSlope > d.params.BenchFlatnessThreshold {
		return TerrainFeature{}, false
	}

	var orthSum float64
	for _, off := range orthogonalOffsets {
		orthSum += slopes[r+off[0]][c+off[1]]
	}
	orthMean := orthSum / float64(len(orthogonalOffsets))
	if orthMean-cellSlope <= BenchNeighborSlopeDelta {
		return TerrainFeature{}, false
	}

	flatness := d.params.BenchFlatnessThreshold - cellSlope

	// Size: contiguous flat cells in the 3x3 window, including the bench
	// cell itself, times the cell footprint.
	flatCells := 1
	for _, off := range neighborOffsets {
		if slopes[r+off[0]][c+off[1]] <= d.params.BenchFlatnessThreshold {
			flatCells++
		}
	}
	area := float64(flatCells) * grid.SpacingMeters * grid.SpacingMeters

	elevation := grid.Elevations[r][c]

	suitability := 45.0
	switch {
	case flatness >= 4:
		suitability += 20
	case flatness >= 2:
		suitability += 15
	}
	switch {
	case area >= 100:
		suitability += 15
	case area >= 50:
		suitability += 10
	}
	if elevation >= d.params.BenchPreferredElevationMin && elevation <= d.params.BenchPreferredElevationMax {
		suitability += 10
	}

	return TerrainFeature{
		Type:        FeatureBench,
		Location:    grid.Coords[r][c],
		Row:         r,
		Col:         c,
		Confidence:  math.Min(75, 40+flatness*3),
		Suitability: clampScore(suitability),
		Bench: &BenchProps{
			FlatnessDegrees: flatness,
			AreaSquareM:     area,
			ElevationMeters: elevation,
		},
	}, true
}
