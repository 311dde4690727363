package domain

import "math"

const (
	EarthRadiusKm = 6371.0

	// NearbyRadiusKm is the geofence for new-listing notifications and the
	// default radius of listing searches.
	NearbyRadiusKm = 10.0
)

// Point is a latitude/longitude pair in degrees.
type Point struct {
	Lat float64
	Lon float64
}

// HaversineKm returns the great-circle distance between a and b.
func HaversineKm(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	if h > 1 {
		h = 1
	}
	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(h))
}

// Within reports whether b lies at most radiusKm from a. The boundary is inclusive.
func Within(a, b Point, radiusKm float64) bool {
	return HaversineKm(a, b) <= radiusKm
}

// LatitudeBand returns a latitude range guaranteed to contain every point
// within radiusKm of center. It is used as a cheap SQL pre-filter before the
// exact haversine check.
func LatitudeBand(center Point, radiusKm float64) (minLat, maxLat float64) {
	delta := radiusKm/EarthRadiusKm*180/math.Pi + 0.01
	minLat = math.Max(center.Lat-delta, -90)
	maxLat = math.Min(center.Lat+delta, 90)
	return minLat, maxLat
}
