package terrain

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/ridgeline-data/terrain.report/internal/geo"
)

// Scoring weights and normalisation constants.
const (
	featureWeight  = 0.4
	corridorWeight = 0.3
	funnelWeight   = 0.2
	terrainWeight  = 0.1

	// Complexity component normalisers.
	reliefNorm        = 100.0 // meters of relief for full score
	meanSlopeNorm     = 30.0  // degrees of mean slope for full score
	slopeVarianceNorm = 200.0 // deg^2 of slope variance for full score

	// reliefRatioCap bounds the relief-ratio contribution to the terrain
	// score.
	reliefRatioCap = 0.5
)

// Recommendation trigger keys. Wording is a presentation concern; only
// the trigger conditions are part of the scoring contract.
const (
	TriggerExcellentOverall = "excellent_overall_suitability"
	TriggerGoodOverall      = "good_overall_suitability"
	TriggerModerateOverall  = "moderate_overall_suitability"
	TriggerLimitedOverall   = "limited_overall_suitability"
	TriggerPrimeSaddle      = "prime_saddle_travel"
	TriggerPrimeCorridor    = "prime_travel_corridor"
	TriggerPrimeFunnel      = "prime_natural_funnel"
	TriggerHighValueCluster = "multiple_high_value_features"
	TriggerDrainageNetwork  = "drainage_network_travel"
)

// FeatureTypeSummary aggregates suitability for one detected feature type.
type FeatureTypeSummary struct {
	Count          int     `json:"count"`
	AvgSuitability float64 `json:"avg_suitability"`
	MaxSuitability float64 `json:"max_suitability"`
}

// CorridorSummary aggregates the promoted corridor list.
type CorridorSummary struct {
	Count          int          `json:"count"`
	AvgSuitability float64      `json:"avg_suitability"`
	BestType       CorridorType `json:"best_type,omitempty"`
	DistinctTypes  int          `json:"distinct_types"`
}

// FunnelSummary aggregates the identified funnel list.
type FunnelSummary struct {
	Count          int     `json:"count"`
	AvgSuitability float64 `json:"avg_suitability"`
	MaxStrength    float64 `json:"max_strength"`
}

// TerrainMetrics captures grid-wide complexity measures.
type TerrainMetrics struct {
	Complexity       float64 `json:"complexity"` // [0, 1]
	MeanSlopeDegrees float64 `json:"mean_slope_degrees"`
	SlopeVariance    float64 `json:"slope_variance"`
	TerrainScore     float64 `json:"terrain_score"`
}

// SuitabilityAnalysis is the aggregate scoring record consumed by the
// downstream movement-prediction logic.
type SuitabilityAnalysis struct {
	FeatureSummaries   map[FeatureType]FeatureTypeSummary `json:"feature_summaries"`
	Corridors          CorridorSummary                    `json:"corridors"`
	Funnels            FunnelSummary                      `json:"funnels"`
	Terrain            TerrainMetrics                     `json:"terrain"`
	OverallSuitability float64                            `json:"overall_suitability"` // [0, 100]
	Triggers           []string                           `json:"triggers"`
}

// SpatialSummary describes the spatial distribution of detections.
type SpatialSummary struct {
	FeatureDensityPerKm2 float64             `json:"feature_density_per_km2"`
	TypeHistogram        map[FeatureType]int `json:"type_histogram"`
}

// ConfidenceMetrics summarises detection confidence across all features.
// Histogram buckets are [0,25), [25,50), [50,75), [75,100].
type ConfidenceMetrics struct {
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
	Mean      float64 `json:"mean"`
	Histogram [4]int  `json:"histogram"`
}

// AnalysisResult is the complete output of one terrain analysis. Created
// per request, cached by the analysis layer, and read-only thereafter.
type AnalysisResult struct {
	Center        geo.Coordinate      `json:"center"`
	SpacingMeters float64             `json:"spacing_meters"`
	GeneratedAt   time.Time           `json:"generated_at"`
	GridStats     GridStats           `json:"grid_stats"`
	Features      []TerrainFeature    `json:"detected_features"`
	Corridors     []Corridor          `json:"travel_corridors"`
	Funnels       []Funnel            `json:"natural_funnels"`
	Suitability   SuitabilityAnalysis `json:"mature_buck_analysis"`
	Spatial       SpatialSummary      `json:"spatial_summary"`
	Confidence    ConfidenceMetrics   `json:"confidence_metrics"`
}

// SuitabilityScorer composes feature, corridor, funnel, and terrain
// metrics into the final analysis record.
type SuitabilityScorer struct{}

// NewSuitabilityScorer creates a scorer.
func NewSuitabilityScorer() *SuitabilityScorer {
	return &SuitabilityScorer{}
}

// BuildResult assembles the full AnalysisResult from the pipeline stages.
func (s *SuitabilityScorer) BuildResult(grid *ElevationGrid, features []TerrainFeature,
	corridors []Corridor, funnels []Funnel) *AnalysisResult {

	gridStats := grid.Stats()
	terrain := s.terrainMetrics(grid, gridStats)

	return &AnalysisResult{
		Center:        grid.Center,
		SpacingMeters: grid.SpacingMeters,
		GeneratedAt:   grid.GeneratedAt,
		GridStats:     gridStats,
		Features:      features,
		Corridors:     corridors,
		Funnels:       funnels,
		Suitability:   s.scoreSuitability(features, corridors, funnels, terrain),
		Spatial:       s.spatialSummary(grid, features),
		Confidence:    s.confidenceMetrics(features),
	}
}

// terrainMetrics computes topographic complexity from relief, mean slope,
// and slope variance, each normalised and capped at 1.
func (s *SuitabilityScorer) terrainMetrics(grid *ElevationGrid, gridStats GridStats) TerrainMetrics {
	slopes := grid.SlopeGrid()
	flat := make([]float64, 0, GridSize*GridSize)
	for r := 0; r < GridSize; r++ {
		for c := 0; c < GridSize; c++ {
			flat = append(flat, slopes[r][c])
		}
	}
	meanSlope := stat.Mean(flat, nil)
	slopeVar := stat.PopVariance(flat, nil)

	complexity := (math.Min(gridStats.Relief/reliefNorm, 1) +
		math.Min(meanSlope/meanSlopeNorm, 1) +
		math.Min(slopeVar/slopeVarianceNorm, 1)) / 3

	return TerrainMetrics{
		Complexity:       complexity,
		MeanSlopeDegrees: meanSlope,
		SlopeVariance:    slopeVar,
		TerrainScore:     complexity*50 + math.Min(gridStats.ReliefRatio, reliefRatioCap)*100,
	}
}

// scoreSuitability composes the weighted overall score and its trigger
// list. Empty source lists contribute zero to their term.
func (s *SuitabilityScorer) scoreSuitability(features []TerrainFeature,
	corridors []Corridor, funnels []Funnel, terrain TerrainMetrics) SuitabilityAnalysis {

	summaries := map[FeatureType]FeatureTypeSummary{}
	var featSum float64
	for _, f := range features {
		sum := summaries[f.Type]
		sum.Count++
		sum.AvgSuitability += f.Suitability
		if f.Suitability > sum.MaxSuitability {
			sum.MaxSuitability = f.Suitability
		}
		summaries[f.Type] = sum
		featSum += f.Suitability
	}
	for t, sum := range summaries {
		sum.AvgSuitability /= float64(sum.Count)
		summaries[t] = sum
	}

	var avgFeature float64
	if len(features) > 0 {
		avgFeature = featSum / float64(len(features))
	}

	corrSummary := CorridorSummary{Count: len(corridors)}
	var avgCorridor float64
	if len(corridors) > 0 {
		corrTypes := map[CorridorType]bool{}
		var corrSum float64
		for _, c := range corridors {
			corrSum += c.Suitability
			corrTypes[c.Type] = true
		}
		avgCorridor = corrSum / float64(len(corridors))
		corrSummary.AvgSuitability = avgCorridor
		corrSummary.BestType = corridors[0].Type // list is sorted by suitability
		corrSummary.DistinctTypes = len(corrTypes)
	}

	funSummary := FunnelSummary{Count: len(funnels)}
	var avgFunnel float64
	if len(funnels) > 0 {
		var funSum float64
		for _, f := range funnels {
			funSum += f.Suitability
			if f.Strength > funSummary.MaxStrength {
				funSummary.MaxStrength = f.Strength
			}
		}
		avgFunnel = funSum / float64(len(funnels))
		funSummary.AvgSuitability = avgFunnel
	}

	overall := clampScore(featureWeight*avgFeature +
		corridorWeight*avgCorridor +
		funnelWeight*avgFunnel +
		terrainWeight*terrain.TerrainScore)

	return SuitabilityAnalysis{
		FeatureSummaries:   summaries,
		Corridors:          corrSummary,
		Funnels:            funSummary,
		Terrain:            terrain,
		OverallSuitability: overall,
		Triggers:           s.triggers(overall, summaries, corridors, funnels, features),
	}
}

// triggers produces the ordered recommendation trigger list: the overall
// band first, then feature-specific conditions.
func (s *SuitabilityScorer) triggers(overall float64, summaries map[FeatureType]FeatureTypeSummary,
	corridors []Corridor, funnels []Funnel, features []TerrainFeature) []string {

	triggers := []string{}
	switch {
	case overall >= 80:
		triggers = append(triggers, TriggerExcellentOverall)
	case overall >= 60:
		triggers = append(triggers, TriggerGoodOverall)
	case overall >= 40:
		triggers = append(triggers, TriggerModerateOverall)
	default:
		triggers = append(triggers, TriggerLimitedOverall)
	}

	if sum, ok := summaries[FeatureSaddle]; ok && sum.MaxSuitability >= 70 {
		triggers = append(triggers, TriggerPrimeSaddle)
	}
	if len(corridors) > 0 && corridors[0].Suitability >= 70 {
		triggers = append(triggers, TriggerPrimeCorridor)
	}
	if len(funnels) > 0 && funnels[0].Suitability >= 75 {
		triggers = append(triggers, TriggerPrimeFunnel)
	}

	highValue := 0
	for _, f := range features {
		if f.Suitability >= 70 {
			highValue++
		}
	}
	if highValue >= 3 {
		triggers = append(triggers, TriggerHighValueCluster)
	}
	if sum, ok := summaries[FeatureDrainage]; ok && sum.Count >= 2 {
		triggers = append(triggers, TriggerDrainageNetwork)
	}
	return triggers
}

// spatialSummary computes feature density over the grid footprint and a
// per-type histogram.
func (s *SuitabilityScorer) spatialSummary(grid *ElevationGrid, features []TerrainFeature) SpatialSummary {
	histogram := map[FeatureType]int{}
	for _, f := range features {
		histogram[f.Type]++
	}

	edgeMeters := float64(GridSize-1) * grid.SpacingMeters
	areaKm2 := edgeMeters * edgeMeters / 1e6

	summary := SpatialSummary{TypeHistogram: histogram}
	if areaKm2 > 0 {
		summary.FeatureDensityPerKm2 = float64(len(features)) / areaKm2
	}
	return summary
}

// confidenceMetrics summarises detection confidence with min/max/mean and
// a four-bucket histogram.
func (s *SuitabilityScorer) confidenceMetrics(features []TerrainFeature) ConfidenceMetrics {
	if len(features) == 0 {
		return ConfidenceMetrics{}
	}

	m := ConfidenceMetrics{Min: features[0].Confidence, Max: features[0].Confidence}
	var sum float64
	for _, f := range features {
		c := f.Confidence
		sum += c
		if c < m.Min {
			m.Min = c
		}
		if c > m.Max {
			m.Max = c
		}
		bucket := int(c / 25)
		if bucket > 3 {
			bucket = 3
		}
		m.Histogram[bucket]++
	}
	m.Mean = sum / float64(len(features))
	return m
}
