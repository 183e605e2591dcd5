// Package geo provides the small set of geodesic helpers the terrain
// pipeline needs: local meters-per-degree scaling, haversine distances,
// bearings, and metric offsets from a reference coordinate.
//
// All math uses a local flat-earth approximation around the coordinate of
// interest, which is accurate to well under a metre at the 200 m scale of
// a single analysis grid.
package geo

import "math"

// EarthRadiusMeters is the mean earth radius used for haversine distances.
const EarthRadiusMeters = 6371000.0

// Coordinate is a WGS84 latitude/longitude pair in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether the coordinate is finite and within WGS84 bounds.
func (c Coordinate) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsInf(c.Lat, 0) || math.IsNaN(c.Lon) || math.IsInf(c.Lon, 0) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// MetersPerDegree returns the local meters-per-degree scale factors for
// latitude and longitude at the given latitude. The latitude factor uses
// the standard series expansion; the longitude factor shrinks with the
// cosine of latitude.
func MetersPerDegree(lat float64) (latMeters, lonMeters float64) {
	latRad := lat * math.Pi / 180
	latMeters = 111132.92 - 559.82*math.Cos(2*latRad) + 1.175*math.Cos(4*latRad)
	lonMeters = 111412.84*math.Cos(latRad) - 93.5*math.Cos(3*latRad)
	return latMeters, lonMeters
}

// Offset returns the coordinate displaced north and east by the given
// distances in meters.
func Offset(origin Coordinate, northMeters, eastMeters float64) Coordinate {
	latM, lonM := MetersPerDegree(origin.Lat)
	return Coordinate{
		Lat: origin.Lat + northMeters/latM,
		Lon: origin.Lon + eastMeters/lonM,
	}
}

// DistanceMeters returns the haversine great-circle distance between two
// coordinates in meters.
func DistanceMeters(a, b Coordinate) float64 {
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(a.Lat*math.Pi/180)*math.Cos(b.Lat*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusMeters * c
}

// BearingDegrees returns the initial bearing from a to b in compass
// degrees [0, 360).
func BearingDegrees(a, b Coordinate) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)
	deg := math.Atan2(y, x) * 180 / math.Pi
	return math.Mod(deg+360, 360)
}

// LocalXY projects a coordinate to east/north meters relative to an origin
// using the origin's meters-per-degree scale. Used when clustering features
// that all sit within a single analysis grid.
func LocalXY(origin, c Coordinate) (x, y float64) {
	latM, lonM := MetersPerDegree(origin.Lat)
	return (c.Lon - origin.Lon) * lonM, (c.Lat - origin.Lat) * latM
}
