package domain

import (
	"math"
	"sort"
)

const (
	earthRadiusKm = 6371.0

	// Meridian arc length of one degree of latitude (2*pi*R/360).
	kmPerDegreeLat = 111.195

	// Rows whose latitude is close enough to a pole that longitude cells
	// degenerate are scanned whole instead of by column span.
	polarCosineFloor = 0.05
)

// ClusterParams controls the spatial grouping.
type ClusterParams struct {
	MaxDistanceKm float64
	MinMembers    int
}

// HaversineKm returns the great-circle distance in kilometers between two
// points on a sphere of radius earthRadiusKm.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	const degToRad = math.Pi / 180
	dLat := (lat2 - lat1) * degToRad
	dLon := (lon2 - lon1) * degToRad
	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	a := sinLat*sinLat + math.Cos(lat1*degToRad)*math.Cos(lat2*degToRad)*sinLon*sinLon
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(a)))
}

// FindClusters groups events into connected components where adjacency means
// haversine distance <= MaxDistanceKm, then drops components smaller than
// MinMembers. Events with malformed coordinates are excluded from distance
// computation. Candidate pairs come from a degree grid sized to the distance
// threshold, so only same-cell and adjacent-cell events are ever compared.
//
// Within a cluster events are ordered by (time, id) and clusters by their
// earliest event; the ordering carries no meaning beyond determinism.
func FindClusters(events []QuakeEvent, p ClusterParams) []Cluster {
	if len(events) == 0 || p.MaxDistanceKm <= 0 {
		return nil
	}
	minMembers := p.MinMembers
	if minMembers < 1 {
		minMembers = 1
	}

	usable := make([]int, 0, len(events))
	for i := range events {
		if ValidCoordinates(events[i].Lat, events[i].Lon) {
			usable = append(usable, i)
		}
	}

	grid := newSpatialGrid(p.MaxDistanceKm)
	for _, i := range usable {
		grid.insert(events[i].Lat, events[i].Lon, i)
	}

	visited := make([]bool, len(events))
	var clusters []Cluster
	var queue []int
	var cand []int

	for _, start := range usable {
		if visited[start] {
			continue
		}
		visited[start] = true
		queue = append(queue[:0], start)
		var members Cluster

		for len(queue) > 0 {
			i := queue[len(queue)-1]
			queue = queue[:len(queue)-1]
			e := events[i]
			members = append(members, e)

			cand = grid.candidates(e.Lat, e.Lon, cand[:0])
			for _, j := range cand {
				if visited[j] {
					continue
				}
				o := events[j]
				if HaversineKm(e.Lat, e.Lon, o.Lat, o.Lon) <= p.MaxDistanceKm {
					visited[j] = true
					queue = append(queue, j)
				}
			}
		}

		if len(members) < minMembers {
			continue
		}
		sort.Slice(members, func(a, b int) bool {
			if members[a].TimeMs != members[b].TimeMs {
				return members[a].TimeMs < members[b].TimeMs
			}
			return members[a].ID < members[b].ID
		})
		clusters = append(clusters, members)
	}

	sort.Slice(clusters, func(a, b int) bool {
		if clusters[a][0].TimeMs != clusters[b][0].TimeMs {
			return clusters[a][0].TimeMs < clusters[b][0].TimeMs
		}
		return clusters[a][0].ID < clusters[b][0].ID
	})
	return clusters
}

// spatialGrid buckets events into lat/lon degree cells whose latitude height
// equals the distance threshold, so any neighbor within the threshold sits in
// the same or an adjacent row. Column width shrinks in ground distance toward
// the poles, so neighbor scans widen their column span with latitude.
type spatialGrid struct {
	cellDeg float64
	numCols int
	cells   map[gridCell][]int
}

type gridCell struct {
	row, col int
}

func newSpatialGrid(maxDistanceKm float64) *spatialGrid {
	cellDeg := maxDistanceKm / kmPerDegreeLat
	if cellDeg > 180 {
		cellDeg = 180
	}
	return &spatialGrid{
		cellDeg: cellDeg,
		numCols: int(math.Ceil(360 / cellDeg)),
		cells:   make(map[gridCell][]int),
	}
}

func (g *spatialGrid) cellFor(lat, lon float64) gridCell {
	row := int(math.Floor((lat + 90) / g.cellDeg))
	col := int(math.Floor((lon + 180) / g.cellDeg))
	col = ((col % g.numCols) + g.numCols) % g.numCols
	return gridCell{row: row, col: col}
}

func (g *spatialGrid) insert(lat, lon float64, idx int) {
	c := g.cellFor(lat, lon)
	g.cells[c] = append(g.cells[c], idx)
}

// candidates appends the indices of every event in cells reachable within one
// distance threshold of the given position.
func (g *spatialGrid) candidates(lat, lon float64, out []int) []int {
	c := g.cellFor(lat, lon)
	for dr := -1; dr <= 1; dr++ {
		row := c.row + dr
		span := g.colSpan(row)
		if span < 0 || 2*span+1 >= g.numCols {
			for col := 0; col < g.numCols; col++ {
				out = append(out, g.cells[gridCell{row: row, col: col}]...)
			}
			continue
		}
		for dc := -span; dc <= span; dc++ {
			col := ((c.col+dc)%g.numCols + g.numCols) % g.numCols
			out = append(out, g.cells[gridCell{row: row, col: col}]...)
		}
	}
	return out
}

// colSpan returns how many columns on each side can contain a point within
// one threshold of the scanned row, or -1 when the row hugs a pole and the
// whole row must be scanned. The span uses the row edge nearest a pole, where
// degree columns are narrowest in kilometers.
func (g *spatialGrid) colSpan(row int) int {
	lo := float64(row)*g.cellDeg - 90
	hi := lo + g.cellDeg
	lat := math.Max(math.Abs(lo), math.Abs(hi))
	if lat > 90 {
		lat = 90
	}
	cosLat := math.Cos(lat * math.Pi / 180)
	if cosLat < polarCosineFloor {
		return -1
	}
	return int(math.Ceil(1 / cosLat))
}
