// Package mapcluster aggregates school positions into S2 cells for the map
// view, so the browser receives one marker per cell instead of every school.
package mapcluster

import (
	"sort"

	"github.com/golang/geo/r1"
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"

	"github.com/couchcryptid/school-report-service/internal/domain"
)

// Cell levels accepted by Cluster. Level 6 cells span roughly a regency,
// level 16 cells a single block.
const (
	MinLevel     = 6
	MaxLevel     = 16
	DefaultLevel = 10
)

// Bounds of the map view, in degrees.
const (
	areaLatMin = -7.25
	areaLatMax = -6.70
	areaLonMin = 107.30
	areaLonMax = 108.35
)

var serviceArea = rectFromDegrees(areaLatMin, areaLonMin, areaLatMax, areaLonMax)

func rectFromDegrees(latMin, lonMin, latMax, lonMax float64) s2.Rect {
	lo := s2.LatLngFromDegrees(latMin, lonMin)
	hi := s2.LatLngFromDegrees(latMax, lonMax)
	return s2.Rect{
		Lat: r1.Interval{Lo: lo.Lat.Radians(), Hi: hi.Lat.Radians()},
		Lng: s1.Interval{Lo: lo.Lng.Radians(), Hi: hi.Lng.Radians()},
	}
}

// InServiceArea reports whether a position falls inside the map bounds.
func InServiceArea(lat, lon float64) bool {
	return serviceArea.ContainsLatLng(s2.LatLngFromDegrees(lat, lon))
}

// Point is a named position to cluster.
type Point struct {
	Lat  float64
	Lon  float64
	Name string
}

// Marker is one clustered map marker. Name is set only for single-school
// cells, whose marker sits on the school itself.
type Marker struct {
	Lat   float64 `json:"latitude"`
	Lon   float64 `json:"longitude"`
	Count int     `json:"count"`
	Name  string  `json:"nama_sekolah,omitempty"`
}

// ClampLevel bounds level to [MinLevel, MaxLevel].
func ClampLevel(level int) int {
	return min(max(level, MinLevel), MaxLevel)
}

// PointsFromSchools converts schools with coordinates into points.
func PointsFromSchools(schools []domain.School) []Point {
	out := make([]Point, 0, len(schools))
	for _, s := range schools {
		if !s.HasCoordinates() {
			continue
		}
		out = append(out, Point{Lat: s.Lat, Lon: s.Lon, Name: s.Name})
	}
	return out
}

type cellUnit struct {
	count int
	first Point
}

// Cluster groups the in-area points into cells at the given level (clamped).
// Markers are ordered by cell ID so output is stable across calls.
func Cluster(points []Point, level int) []Marker {
	level = ClampLevel(level)
	cells := make(map[s2.CellID]*cellUnit)

	for _, p := range points {
		if !InServiceArea(p.Lat, p.Lon) {
			continue
		}
		parent := s2.CellIDFromLatLng(s2.LatLngFromDegrees(p.Lat, p.Lon)).Parent(level)
		u, ok := cells[parent]
		if !ok {
			u = &cellUnit{first: p}
			cells[parent] = u
		}
		u.count++
	}

	ids := make([]s2.CellID, 0, len(cells))
	for id := range cells {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]Marker, 0, len(ids))
	for _, id := range ids {
		u := cells[id]
		if u.count == 1 {
			out = append(out, Marker{Lat: u.first.Lat, Lon: u.first.Lon, Count: 1, Name: u.first.Name})
			continue
		}
		ll := id.LatLng()
		out = append(out, Marker{Lat: ll.Lat.Degrees(), Lon: ll.Lng.Degrees(), Count: u.count})
	}
	return out
}
