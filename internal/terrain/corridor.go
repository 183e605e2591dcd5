package terrain

import "sort"

// CorridorType identifies the kind of travel corridor a feature was
// promoted to.
type CorridorType string

const (
	// CorridorSaddle is a corridor through a saddle pinch point.
	CorridorSaddle CorridorType = "saddle_corridor"
	// CorridorRidge is a corridor along a ridge spine.
	CorridorRidge CorridorType = "ridge_corridor"
	// CorridorDrainage is a corridor following a drainage channel.
	CorridorDrainage CorridorType = "drainage_corridor"
)

// Promotion thresholds and confidence discounts. A corridor inherits its
// feature's suitability but discounts confidence because travel use is
// inferred, not observed.
const (
	SaddleCorridorMinSuitability   = 60.0
	SaddleCorridorConfidenceFactor = 0.9

	RidgeCorridorMinSuitability   = 55.0
	RidgeCorridorConfidenceFactor = 0.85

	DrainageCorridorMinSuitability   = 50.0
	DrainageCorridorConfidenceFactor = 0.8

	// MaxCorridors caps the ranked corridor list.
	MaxCorridors = 5
)

// Corridor is a detected feature promoted to a directional travel-route
// descriptor. Derived and read-only.
type Corridor struct {
	Type        CorridorType   `json:"type"`
	Feature     TerrainFeature `json:"feature"`
	Confidence  float64        `json:"confidence"`
	Suitability float64        `json:"suitability"`

	Difficulty    string `json:"difficulty"`
	Concealment   string `json:"concealment"`
	Seasonal      string `json:"seasonal"`
	NaturalFunnel bool   `json:"natural_funnel"`
	EscapeRoutes  bool   `json:"escape_routes"`
	WaterAccess   bool   `json:"water_access"`
}

// CorridorAnalyzer promotes detected features into ranked travel
// corridors.
type CorridorAnalyzer struct{}

// NewCorridorAnalyzer creates a corridor analyzer.
func NewCorridorAnalyzer() *CorridorAnalyzer {
	return &CorridorAnalyzer{}
}

// AnalyzeCorridors filters features by type-specific suitability
// thresholds, promotes the survivors, and returns at most MaxCorridors
// sorted by suitability descending.
func (a *CorridorAnalyzer) AnalyzeCorridors(features []TerrainFeature) []Corridor {
	corridors := []Corridor{}
	for _, f := range features {
		switch f.Type {
		case FeatureSaddle:
			if f.Suitability >= SaddleCorridorMinSuitability {
				corridors = append(corridors, Corridor{
					Type:          CorridorSaddle,
					Feature:       f,
					Confidence:    f.Confidence * SaddleCorridorConfidenceFactor,
					Suitability:   f.Suitability,
					Difficulty:    "low",
					Concealment:   "moderate",
					Seasonal:      "all_season",
					NaturalFunnel: true,
				})
			}
		case FeatureRidgeSpine:
			if f.Suitability >= RidgeCorridorMinSuitability {
				corridors = append(corridors, Corridor{
					Type:         CorridorRidge,
					Feature:      f,
					Confidence:   f.Confidence * RidgeCorridorConfidenceFactor,
					Suitability:  f.Suitability,
					Difficulty:   "moderate",
					Concealment:  "low",
					Seasonal:     "rut",
					EscapeRoutes: true,
				})
			}
		case FeatureDrainage:
			if f.Suitability >= DrainageCorridorMinSuitability {
				corridors = append(corridors, Corridor{
					Type:        CorridorDrainage,
					Feature:     f,
					Confidence:  f.Confidence * DrainageCorridorConfidenceFactor,
					Suitability: f.Suitability,
					Difficulty:  "low",
					Concealment: "excellent",
					Seasonal:    "all_season",
					WaterAccess: true,
				})
			}
		}
	}

	// Stable sort keeps detection order for equal scores, so identical
	// inputs always rank identically.
	sort.SliceStable(corridors, func(i, j int) bool {
		return corridors[i].Suitability > corridors[j].Suitability
	})
	if len(corridors) > MaxCorridors {
		corridors = corridors[:MaxCorridors]
	}
	return corridors
}
