package geometry

import "math"

// Point is a latitude/longitude sample. Distances are computed on a planar
// approximation in degree units, which is adequate at the geographic
// extents of a single day's movement.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// perpendicularDistance returns the distance from p to the segment a-b,
// clamped to the segment ends. Identical anchors fall back to the plain
// point distance.
func perpendicularDistance(p, a, b Point) float64 {
	if a == b {
		return math.Hypot(p.Lat-a.Lat, p.Lon-a.Lon)
	}
	dLat := b.Lat - a.Lat
	dLon := b.Lon - a.Lon
	t := ((p.Lat-a.Lat)*dLat + (p.Lon-a.Lon)*dLon) / (dLat*dLat + dLon*dLon)
	t = math.Max(0, math.Min(1, t))
	projLat := a.Lat + t*dLat
	projLon := a.Lon + t*dLon
	return math.Hypot(p.Lat-projLat, p.Lon-projLon)
}
