package terrain

import "github.com/ridgeline-data/terrain.report/internal/geo"

// FeatureType identifies the kind of topographic structure a detection
// represents.
type FeatureType string

const (
	// FeatureSaddle is a local low point flanked by higher terrain on most
	// sides, forming a natural travel pinch.
	FeatureSaddle FeatureType = "saddle"
	// FeatureRidgeSpine is a locally elevated, connected high line suited
	// to long-distance travel.
	FeatureRidgeSpine FeatureType = "ridge_spine"
	// FeatureDrainage is a traced downhill flow path representing a
	// concealed travel route.
	FeatureDrainage FeatureType = "drainage"
	// FeatureSlopeBreak is a point of abrupt local slope-angle change.
	FeatureSlopeBreak FeatureType = "slope_break"
	// FeatureBench is a locally flat area embedded in steeper terrain.
	FeatureBench FeatureType = "bench"
)

// FeatureTypes lists all detectable feature types in a fixed order.
var FeatureTypes = []FeatureType{
	FeatureSaddle,
	FeatureRidgeSpine,
	FeatureDrainage,
	FeatureSlopeBreak,
	FeatureBench,
}

// SaddleProps carries the measurements behind a saddle detection.
type SaddleProps struct {
	DepthMeters   float64 `json:"depth_meters"`
	WidthMeters   float64 `json:"width_meters"`
	Accessibility float64 `json:"accessibility"`
	Concealment   float64 `json:"concealment"`
}

// RidgeProps carries the measurements behind a ridge spine detection.
type RidgeProps struct {
	ProminenceMeters float64 `json:"prominence_meters"`
	Connectivity     float64 `json:"connectivity"`
	SteepnessDegrees float64 `json:"steepness_degrees"`
}

// DrainageProps carries the measurements behind a drainage detection.
type DrainageProps struct {
	GradientPercent float64 `json:"gradient_percent"`
	Concealment     float64 `json:"concealment"`
	PathCells       int     `json:"path_cells"`
}

// SlopeBreakProps carries the measurements behind a slope break detection.
type SlopeBreakProps struct {
	TransitionStrength float64 `json:"transition_strength"`
	Accessibility      float64 `json:"accessibility"`
}

// BenchProps carries the measurements behind a bench detection.
type BenchProps struct {
	FlatnessDegrees float64 `json:"flatness_degrees"`
	AreaSquareM     float64 `json:"area_square_meters"`
	ElevationMeters float64 `json:"elevation_meters"`
}

// TerrainFeature is a single detected topographic structure. Exactly one
// of the typed property fields is non-nil, matching Type. Features are
// immutable once created and live only for the analysis that produced
// them (or its cached result).
type TerrainFeature struct {
	Type        FeatureType    `json:"type"`
	Location    geo.Coordinate `json:"location"`
	Row         int            `json:"row"`
	Col         int            `json:"col"`
	Confidence  float64        `json:"confidence"`  // [0, 100]
	Suitability float64        `json:"suitability"` // [0, 100]

	Saddle     *SaddleProps     `json:"saddle,omitempty"`
	Ridge      *RidgeProps      `json:"ridge,omitempty"`
	Drainage   *DrainageProps   `json:"drainage,omitempty"`
	SlopeBreak *SlopeBreakProps `json:"slope_break,omitempty"`
	Bench      *BenchProps      `json:"bench,omitempty"`
}

// clampScore clamps a score or confidence value to the canonical [0, 100]
// range. Clamping is expected behaviour, never an error.
func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// clamp01 clamps a normalised value to [0, 1].
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
