package terrain

import "math"

// Clustering configuration defaults.
const (
	// DefaultClusterEpsilonMeters is the default neighbourhood radius for
	// grouping features into funnels.
	DefaultClusterEpsilonMeters = 75.0
	// DefaultClusterMinMembers is the minimum cluster size; anything
	// smaller is noise.
	DefaultClusterMinMembers = 2
	// estimatedPointsPerCell sizes the spatial index buckets.
	estimatedPointsPerCell = 2
)

// featurePoint is a detected feature projected to local east/north meters
// for clustering. Index refers back to the source feature slice.
type featurePoint struct {
	X, Y  float64
	Index int
}

// SpatialIndex provides neighbour queries over feature points using a
// regular grid. Cell size should approximately match the DBSCAN eps
// parameter.
type SpatialIndex struct {
	CellSize float64
	Grid     map[int64][]int // cell ID -> point indices
}

// NewSpatialIndex creates a spatial index with the specified cell size.
func NewSpatialIndex(cellSize float64) *SpatialIndex {
	return &SpatialIndex{
		CellSize: cellSize,
		Grid:     make(map[int64][]int),
	}
}

// Build populates the spatial index from a set of points.
func (si *SpatialIndex) Build(points []featurePoint) {
	si.Grid = make(map[int64][]int, len(points)/estimatedPointsPerCell+1)
	for i, p := range points {
		id := si.cellID(int64(math.Floor(p.X/si.CellSize)), int64(math.Floor(p.Y/si.CellSize)))
		si.Grid[id] = append(si.Grid[id], i)
	}
}

// cellID computes a unique cell identifier using Szudzik's pairing
// function over zigzag-encoded cell coordinates, so negative coordinates
// pair correctly.
func (si *SpatialIndex) cellID(cellX, cellY int64) int64 {
	var a, b int64
	if cellX >= 0 {
		a = 2 * cellX
	} else {
		a = -2*cellX - 1
	}
	if cellY >= 0 {
		b = 2 * cellY
	} else {
		b = -2*cellY - 1
	}
	if a >= b {
		return a*a + a + b
	}
	return a + b*b
}

// RegionQuery returns indices of all points within eps of points[idx],
// searching the 3x3 cell neighbourhood around the query point.
func (si *SpatialIndex) RegionQuery(points []featurePoint, idx int, eps float64) []int {
	p := points[idx]
	eps2 := eps * eps
	cellX := int64(math.Floor(p.X / si.CellSize))
	cellY := int64(math.Floor(p.Y / si.CellSize))

	neighbors := []int{}
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for _, cand := range si.Grid[si.cellID(cellX+dx, cellY+dy)] {
				ddx := points[cand].X - p.X
				ddy := points[cand].Y - p.Y
				if ddx*ddx+ddy*ddy <= eps2 {
					neighbors = append(neighbors, cand)
				}
			}
		}
	}
	return neighbors
}

// DBSCANParams contains parameters for the DBSCAN clustering pass.
type DBSCANParams struct {
	Eps    float64 // neighbourhood radius in meters
	MinPts int     // minimum points to form a cluster
}

// DefaultDBSCANParams returns the production-default clustering parameters.
func DefaultDBSCANParams() DBSCANParams {
	return DBSCANParams{
		Eps:    DefaultClusterEpsilonMeters,
		MinPts: DefaultClusterMinMembers,
	}
}

// dbscan performs density-based clustering on the points and returns one
// slice of point indices per cluster, in deterministic order. Points that
// belong to no cluster are noise and are excluded.
func dbscan(points []featurePoint, params DBSCANParams) [][]int {
	if len(points) == 0 {
		return nil
	}

	n := len(points)
	labels := make([]int, n) // 0=unvisited, -1=noise, >0=clusterID
	clusterID := 0

	si := NewSpatialIndex(params.Eps)
	si.Build(points)

	for i := 0; i < n; i++ {
		if labels[i] != 0 {
			continue
		}
		neighbors := si.RegionQuery(points, i, params.Eps)
		if len(neighbors) < params.MinPts {
			labels[i] = -1
			continue
		}
		clusterID++
		expandCluster(points, si, labels, i, neighbors, clusterID, params)
	}

	clusters := make([][]int, clusterID)
	for i, label := range labels {
		if label > 0 {
			clusters[label-1] = append(clusters[label-1], i)
		}
	}
	return clusters
}

// expandCluster grows a cluster outward from a core point using a
// queue-based expansion.
func expandCluster(points []featurePoint, si *SpatialIndex, labels []int,
	seedIdx int, neighbors []int, clusterID int, params DBSCANParams) {

	labels[seedIdx] = clusterID

	for j := 0; j < len(neighbors); j++ {
		idx := neighbors[j]

		if labels[idx] == -1 {
			labels[idx] = clusterID // noise becomes border point
		}
		if labels[idx] != 0 {
			continue
		}

		labels[idx] = clusterID
		newNeighbors := si.RegionQuery(points, idx, params.Eps)
		if len(newNeighbors) >= params.MinPts {
			neighbors = append(neighbors, newNeighbors...)
		}
	}
}
