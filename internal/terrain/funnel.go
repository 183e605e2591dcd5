package terrain

import (
	"math"
	"sort"

	"github.com/ridgeline-data/terrain.report/internal/geo"
)

// Funnel scoring constants.
const (
	// MaxFunnels caps the ranked funnel list.
	MaxFunnels = 3
	// funnelMemberNorm and funnelTypeNorm normalise the member and
	// distinct-type counts when computing cluster strength.
	funnelMemberNorm = 5.0
	funnelTypeNorm   = 5.0
	// funnelHighSuitability marks a member as a strong contributor.
	funnelHighSuitability = 60.0
	// funnelPremiumSuitability marks a member worth an extra bonus.
	funnelPremiumSuitability = 70.0
	// funnelTypeBonusCap caps the distinct-type bonus multiplier.
	funnelTypeBonusCap = 7
)

// Funnel is a convergence zone where several terrain features cluster
// spatially, reinforcing its value as an ambush point.
type Funnel struct {
	Center          geo.Coordinate   `json:"center"`
	Features        []TerrainFeature `json:"features"`
	Strength        float64          `json:"strength"`   // [0, 1]
	Confidence      float64          `json:"confidence"` // [0, 100]
	Suitability     float64          `json:"suitability"`
	FeatureCount    int              `json:"feature_count"`
	ApproachAngles  []float64        `json:"approach_angles"`
	AmbushPotential bool             `json:"ambush_potential"`
}

// FunnelIdentifier clusters detected features by spatial proximity to
// find natural funnels.
type FunnelIdentifier struct {
	params DBSCANParams
}

// NewFunnelIdentifier creates a funnel identifier with the given
// clustering parameters.
func NewFunnelIdentifier(params DBSCANParams) *FunnelIdentifier {
	return &FunnelIdentifier{params: params}
}

// IdentifyFunnels clusters feature positions with DBSCAN and derives a
// funnel from every cluster of at least two members. Fewer than two
// features, or all-noise clustering, yields no funnels; that is a valid
// result, not an error. Returns at most MaxFunnels sorted by suitability
// descending.
func (fi *FunnelIdentifier) IdentifyFunnels(features []TerrainFeature, origin geo.Coordinate) []Funnel {
	if len(features) < fi.params.MinPts {
		return nil
	}

	points := make([]featurePoint, len(features))
	for i, f := range features {
		x, y := geo.LocalXY(origin, f.Location)
		points[i] = featurePoint{X: x, Y: y, Index: i}
	}

	clusters := dbscan(points, fi.params)

	funnels := []Funnel{}
	for _, members := range clusters {
		if len(members) < fi.params.MinPts {
			continue
		}
		funnels = append(funnels, fi.buildFunnel(features, members))
	}

	sort.SliceStable(funnels, func(i, j int) bool {
		return funnels[i].Suitability > funnels[j].Suitability
	})
	if len(funnels) > MaxFunnels {
		funnels = funnels[:MaxFunnels]
	}
	return funnels
}

// buildFunnel derives funnel metrics from a cluster's member features.
func (fi *FunnelIdentifier) buildFunnel(features []TerrainFeature, members []int) Funnel {
	var latSum, lonSum float64
	typeSet := map[FeatureType]bool{}
	highCount := 0
	premiumCount := 0
	clusterFeatures := make([]TerrainFeature, 0, len(members))

	for _, idx := range members {
		f := features[idx]
		clusterFeatures = append(clusterFeatures, f)
		latSum += f.Location.Lat
		lonSum += f.Location.Lon
		typeSet[f.Type] = true
		if f.Suitability >= funnelHighSuitability {
			highCount++
		}
		if f.Suitability >= funnelPremiumSuitability {
			premiumCount++
		}
	}

	n := float64(len(members))
	center := geo.Coordinate{Lat: latSum / n, Lon: lonSum / n}

	distinctTypes := len(typeSet)

	// Strength is the unweighted mean of three normalised components:
	// member count, type diversity, and the strong-member fraction.
	strength := (math.Min(n/funnelMemberNorm, 1) +
		math.Min(float64(distinctTypes)/funnelTypeNorm, 1) +
		float64(highCount)/n) / 3

	suitability := 30.0
	suitability += 10 * float64(minInt(distinctTypes, funnelTypeBonusCap))
	switch {
	case strength >= 0.8:
		suitability += 25
	case strength >= 0.6:
		suitability += 15
	}
	suitability += 8 * float64(premiumCount)
	suitability = clampScore(suitability)

	return Funnel{
		Center:          center,
		Features:        clusterFeatures,
		Strength:        strength,
		Confidence:      math.Min(85, 40+strength*30),
		Suitability:     suitability,
		FeatureCount:    len(members),
		ApproachAngles:  approachAngles(clusterFeatures),
		AmbushPotential: suitability >= funnelHighSuitability && len(members) >= 3,
	}
}

// approachAngles returns the bearing between every unordered pair of
// member features, approximating the directions from which travel
// converges on the funnel.
func approachAngles(members []TerrainFeature) []float64 {
	angles := []float64{}
	for i := 0; i < len(members); i++ {
		for j := i + 1; j < len(members); j++ {
			angles = append(angles, geo.BearingDegrees(members[i].Location, members[j].Location))
		}
	}
	return angles
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
