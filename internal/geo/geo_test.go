package geo

import (
	"math"
	"testing"
)

func TestCoordinateValid(t *testing.T) {
	tests := []struct {
		name string
		c    Coordinate
		want bool
	}{
		{"origin", Coordinate{0, 0}, true},
		{"typical", Coordinate{44.4759, -73.2121}, true},
		{"lat max", Coordinate{90, 0}, true},
		{"lat over", Coordinate{90.001, 0}, false},
		{"lat under", Coordinate{-90.001, 0}, false},
		{"lon max", Coordinate{0, 180}, true},
		{"lon over", Coordinate{0, 180.001}, false},
		{"lon under", Coordinate{0, -180.001}, false},
		{"nan lat", Coordinate{math.NaN(), 0}, false},
		{"nan lon", Coordinate{0, math.NaN()}, false},
	}
	for _, tt := range tests {
		if got := tt.c.Valid(); got != tt.want {
			t.Errorf("%s: Valid() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestMetersPerDegree(t *testing.T) {
	// At the equator a longitude degree is about 111.3 km; at 60N it
	// shrinks to roughly half.
	_, lonEq := MetersPerDegree(0)
	if math.Abs(lonEq-111320) > 500 {
		t.Errorf("equator lon meters = %f, want ~111320", lonEq)
	}
	_, lon60 := MetersPerDegree(60)
	if math.Abs(lon60-lonEq/2) > 800 {
		t.Errorf("60N lon meters = %f, want ~%f", lon60, lonEq/2)
	}

	latEq, _ := MetersPerDegree(0)
	latPole, _ := MetersPerDegree(89)
	if latPole <= latEq {
		t.Errorf("latitude degree should lengthen toward the poles: %f <= %f", latPole, latEq)
	}
}

func TestOffsetRoundTrip(t *testing.T) {
	origin := Coordinate{Lat: 44.4759, Lon: -73.2121}

	moved := Offset(origin, 100, 50)
	if moved.Lat <= origin.Lat {
		t.Error("north offset must increase latitude")
	}
	if moved.Lon <= origin.Lon {
		t.Error("east offset must increase longitude")
	}

	// The haversine distance back should match the straight-line offset
	// closely at this scale.
	want := math.Hypot(100, 50)
	got := DistanceMeters(origin, moved)
	if math.Abs(got-want) > 1 {
		t.Errorf("distance after offset = %f, want ~%f", got, want)
	}
}

func TestDistanceMeters(t *testing.T) {
	a := Coordinate{Lat: 44.4759, Lon: -73.2121}
	if d := DistanceMeters(a, a); d != 0 {
		t.Errorf("distance to self = %f, want 0", d)
	}
	if d1, d2 := DistanceMeters(a, Coordinate{Lat: 44.5, Lon: -73.2}), DistanceMeters(Coordinate{Lat: 44.5, Lon: -73.2}, a); math.Abs(d1-d2) > 1e-9 {
		t.Errorf("distance not symmetric: %f vs %f", d1, d2)
	}

	// One latitude degree is about 111.1 km.
	d := DistanceMeters(Coordinate{Lat: 44, Lon: -73}, Coordinate{Lat: 45, Lon: -73})
	if math.Abs(d-111195) > 300 {
		t.Errorf("one degree latitude = %f m, want ~111195", d)
	}
}

func TestBearingDegrees(t *testing.T) {
	origin := Coordinate{Lat: 44.4759, Lon: -73.2121}

	tests := []struct {
		name   string
		northM float64
		eastM  float64
		want   float64
	}{
		{"north", 1000, 0, 0},
		{"east", 0, 1000, 90},
		{"south", -1000, 0, 180},
		{"west", 0, -1000, 270},
	}
	for _, tt := range tests {
		got := BearingDegrees(origin, Offset(origin, tt.northM, tt.eastM))
		diff := math.Abs(got - tt.want)
		if diff > 180 {
			diff = 360 - diff
		}
		if diff > 0.5 {
			t.Errorf("%s: bearing = %f, want %f", tt.name, got, tt.want)
		}
	}
}

func TestLocalXY(t *testing.T) {
	origin := Coordinate{Lat: 44.4759, Lon: -73.2121}

	x, y := LocalXY(origin, origin)
	if x != 0 || y != 0 {
		t.Errorf("origin projection = (%f,%f), want (0,0)", x, y)
	}

	moved := Offset(origin, 200, -75)
	x, y = LocalXY(origin, moved)
	if math.Abs(x-(-75)) > 0.5 || math.Abs(y-200) > 0.5 {
		t.Errorf("projection = (%f,%f), want (-75,200)", x, y)
	}
}
