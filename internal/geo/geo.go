// Package geo provides the small set of geodesic primitives the engine
// needs: great-circle distance, centroid and bounding box of point sets,
// and the encoded-polyline wire format for route geometry.
package geo

import "math"

const earthRadiusM = 6371000.0

// Point is a WGS84 coordinate. JSON order follows the API convention
// of lon/lat pairs.
type Point struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// HaversineMeters returns the great-circle distance between a and b in meters.
func HaversineMeters(a, b Point) float64 {
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(a.Lat*math.Pi/180)*math.Cos(b.Lat*math.Pi/180)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusM * c
}

// Centroid returns the arithmetic mean of the points' coordinates.
// Acceptable approximation at city scale; callers must not pass an
// empty slice.
func Centroid(pts []Point) Point {
	var lon, lat float64
	for _, p := range pts {
		lon += p.Lon
		lat += p.Lat
	}
	n := float64(len(pts))
	return Point{Lon: lon / n, Lat: lat / n}
}

// BoundingBox returns the min and max corners of the points' bounding box.
func BoundingBox(pts []Point) (min, max Point) {
	min = Point{Lon: math.Inf(1), Lat: math.Inf(1)}
	max = Point{Lon: math.Inf(-1), Lat: math.Inf(-1)}
	for _, p := range pts {
		min.Lon = math.Min(min.Lon, p.Lon)
		min.Lat = math.Min(min.Lat, p.Lat)
		max.Lon = math.Max(max.Lon, p.Lon)
		max.Lat = math.Max(max.Lat, p.Lat)
	}
	return min, max
}

// PathMeters returns the total haversine length of the path through pts.
func PathMeters(pts []Point) float64 {
	total := 0.0
	for i := 0; i+1 < len(pts); i++ {
		total += HaversineMeters(pts[i], pts[i+1])
	}
	return total
}
