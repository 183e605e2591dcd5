package elevation

import (
	"context"
	"math"
)

// Synthetic terrain defaults.
const (
	// DefaultSyntheticBase is the base elevation (m) of generated terrain.
	DefaultSyntheticBase = 400.0
	// DefaultSyntheticRelief is the dominant relief amplitude (m).
	DefaultSyntheticRelief = 60.0
)

// SyntheticSource generates deterministic terrain from coordinate alone:
// the same (lat, lon) always yields the same elevation, with no process
// state and no randomness. Intended for tests and dev mode; production
// code injects a real source instead.
type SyntheticSource struct {
	Base   float64 // base elevation in meters
	Relief float64 // amplitude of the dominant undulation in meters
}

// NewSyntheticSource creates a generator with the default base elevation
// and relief.
func NewSyntheticSource() *SyntheticSource {
	return &SyntheticSource{Base: DefaultSyntheticBase, Relief: DefaultSyntheticRelief}
}

// ElevationAt returns a smooth composite of sinusoids over the
// coordinate. Wavelengths are chosen so a 50 m spaced grid sees saddles,
// ridges, and drainages at realistic scales. Never fails.
func (s *SyntheticSource) ElevationAt(_ context.Context, lat, lon float64) (float64, error) {
	// Scale degrees to radians per ~250 m and ~900 m wavelengths.
	const (
		fineScale   = 2600.0
		coarseScale = 700.0
	)

	fine := math.Sin(lat*fineScale) * math.Cos(lon*fineScale)
	coarse := math.Sin(lat*coarseScale+lon*coarseScale/2) * math.Cos(lon*coarseScale/3)
	cross := math.Sin((lat + lon) * fineScale / 2)

	elev := s.Base +
		s.Relief*coarse +
		s.Relief/2*fine +
		s.Relief/4*cross
	return elev, nil
}
