package terrain

import (
	"math"
	"testing"

	"github.com/ridgeline-data/terrain.report/internal/geo"
)

func mkFeature(featureType FeatureType, confidence, suitability float64) TerrainFeature {
	return TerrainFeature{
		Type:        featureType,
		Location:    geo.Coordinate{Lat: 44.5, Lon: -73.2},
		Confidence:  confidence,
		Suitability: suitability,
	}
}

func TestAnalyzeCorridors_SaddlePromotion(t *testing.T) {
	analyzer := NewCorridorAnalyzer()

	corridors := analyzer.AnalyzeCorridors([]TerrainFeature{
		mkFeature(FeatureSaddle, 95, 100),
	})
	if len(corridors) != 1 {
		t.Fatalf("expected 1 corridor, got %d", len(corridors))
	}
	c := corridors[0]
	if c.Type != CorridorSaddle {
		t.Errorf("expected type %s, got %s", CorridorSaddle, c.Type)
	}
	// Confidence is discounted by the saddle factor: 95 * 0.9.
	if math.Abs(c.Confidence-85.5) > 1e-9 {
		t.Errorf("expected confidence 85.5, got %f", c.Confidence)
	}
	if c.Suitability != 100 {
		t.Errorf("corridor must inherit feature suitability, got %f", c.Suitability)
	}
	if !c.NaturalFunnel {
		t.Error("saddle corridors are natural funnels")
	}
}

func TestAnalyzeCorridors_Thresholds(t *testing.T) {
	analyzer := NewCorridorAnalyzer()

	tests := []struct {
		name    string
		feature TerrainFeature
		want    int
	}{
		{"saddle at threshold", mkFeature(FeatureSaddle, 80, 60), 1},
		{"saddle below threshold", mkFeature(FeatureSaddle, 80, 59.9), 0},
		{"ridge at threshold", mkFeature(FeatureRidgeSpine, 80, 55), 1},
		{"ridge below threshold", mkFeature(FeatureRidgeSpine, 80, 54.9), 0},
		{"drainage at threshold", mkFeature(FeatureDrainage, 80, 50), 1},
		{"drainage below threshold", mkFeature(FeatureDrainage, 80, 49.9), 0},
		{"slope break never promotes", mkFeature(FeatureSlopeBreak, 80, 100), 0},
		{"bench never promotes", mkFeature(FeatureBench, 80, 100), 0},
	}
	for _, tt := range tests {
		got := analyzer.AnalyzeCorridors([]TerrainFeature{tt.feature})
		if len(got) != tt.want {
			t.Errorf("%s: expected %d corridors, got %d", tt.name, tt.want, len(got))
		}
	}
}

func TestAnalyzeCorridors_AttributesPerType(t *testing.T) {
	analyzer := NewCorridorAnalyzer()

	corridors := analyzer.AnalyzeCorridors([]TerrainFeature{
		mkFeature(FeatureRidgeSpine, 90, 70),
		mkFeature(FeatureDrainage, 85, 80),
	})
	if len(corridors) != 2 {
		t.Fatalf("expected 2 corridors, got %d", len(corridors))
	}

	// Sorted by suitability: drainage (80) first.
	if corridors[0].Type != CorridorDrainage {
		t.Fatalf("expected drainage corridor first, got %s", corridors[0].Type)
	}
	if !corridors[0].WaterAccess {
		t.Error("drainage corridors have water access")
	}
	if corridors[0].Concealment != "excellent" {
		t.Errorf("expected excellent concealment for drainage, got %q", corridors[0].Concealment)
	}
	if !corridors[1].EscapeRoutes {
		t.Error("ridge corridors have escape routes")
	}
	if corridors[1].Seasonal != "rut" {
		t.Errorf("expected rut seasonality for ridge, got %q", corridors[1].Seasonal)
	}
}

func TestAnalyzeCorridors_CapAndOrder(t *testing.T) {
	analyzer := NewCorridorAnalyzer()

	features := []TerrainFeature{}
	for i := 0; i < 8; i++ {
		features = append(features, mkFeature(FeatureSaddle, 80, 60+float64(i)*5))
	}
	corridors := analyzer.AnalyzeCorridors(features)
	if len(corridors) != MaxCorridors {
		t.Fatalf("expected cap at %d corridors, got %d", MaxCorridors, len(corridors))
	}
	for i := 1; i < len(corridors); i++ {
		if corridors[i].Suitability > corridors[i-1].Suitability {
			t.Errorf("corridors out of order at %d: %f > %f",
				i, corridors[i].Suitability, corridors[i-1].Suitability)
		}
	}
	// Highest scoring saddle (60 + 7*5 = 95) must rank first.
	if corridors[0].Suitability != 95 {
		t.Errorf("expected best corridor suitability 95, got %f", corridors[0].Suitability)
	}
}

func TestAnalyzeCorridors_RingedDepression(t *testing.T) {
	// Center at 300 with its 8 neighbours raised to 325 and everything
	// else back at 300: the center is a deep saddle and promotes to a
	// saddle corridor at a discounted confidence.
	grid := uniformGrid(300, 50)
	for _, off := range neighborOffsets {
		grid.Elevations[2+off[0]][2+off[1]] = 325
	}

	detector := NewFeatureDetector(DefaultDetectorParams())
	features := detector.DetectFeatures(grid)

	saddles := featuresOfType(features, FeatureSaddle)
	if len(saddles) != 1 {
		t.Fatalf("expected exactly 1 saddle, got %d", len(saddles))
	}
	if saddles[0].Row != 2 || saddles[0].Col != 2 {
		t.Fatalf("expected the saddle at the center, got (%d,%d)", saddles[0].Row, saddles[0].Col)
	}
	if math.Abs(saddles[0].Saddle.DepthMeters-25) > 1e-9 {
		t.Errorf("expected depth 25, got %f", saddles[0].Saddle.DepthMeters)
	}
	if math.Abs(saddles[0].Confidence-95) > 1e-9 {
		t.Errorf("expected confidence 95, got %f", saddles[0].Confidence)
	}

	corridors := NewCorridorAnalyzer().AnalyzeCorridors(features)
	var saddleCorridor *Corridor
	for i := range corridors {
		if corridors[i].Type == CorridorSaddle {
			saddleCorridor = &corridors[i]
			break
		}
	}
	if saddleCorridor == nil {
		t.Fatalf("expected a saddle corridor, got %+v", corridors)
	}
	if math.Abs(saddleCorridor.Confidence-85.5) > 1e-9 {
		t.Errorf("expected corridor confidence 85.5, got %f", saddleCorridor.Confidence)
	}
}

func TestAnalyzeCorridors_Empty(t *testing.T) {
	analyzer := NewCorridorAnalyzer()
	if got := analyzer.AnalyzeCorridors(nil); len(got) != 0 {
		t.Errorf("expected no corridors for no features, got %d", len(got))
	}
}
