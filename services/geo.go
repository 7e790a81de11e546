package services

import "math"

// earthRadiusMeters is the mean Earth radius
const earthRadiusMeters = 6371008.8

// metersPerDegreeLat is the length of one degree of latitude
const metersPerDegreeLat = 111320.0

// HaversineMeters returns the great-circle distance between two points
func HaversineMeters(lat1, lng1, lat2, lng2 float64) float64 {
	toRad := func(d float64) float64 { return d * math.Pi / 180 }

	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMeters * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// boundingBox is a lat/lng rectangle enclosing a search circle
type boundingBox struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
	// WrapsLng is set when the box crosses a pole or the antimeridian
	// and longitude cannot be used as a prefilter
	WrapsLng bool
}

func boundingBoxAround(lat, lng, radiusMeters float64) boundingBox {
	dLat := radiusMeters / metersPerDegreeLat
	box := boundingBox{
		MinLat: math.Max(lat-dLat, -90),
		MaxLat: math.Min(lat+dLat, 90),
	}

	cosLat := math.Cos(lat * math.Pi / 180)
	if cosLat < 1e-6 || box.MinLat == -90 || box.MaxLat == 90 {
		box.WrapsLng = true
		return box
	}
	dLng := radiusMeters / (metersPerDegreeLat * cosLat)
	box.MinLng, box.MaxLng = lng-dLng, lng+dLng
	if box.MinLng < -180 || box.MaxLng > 180 {
		box.WrapsLng = true
	}
	return box
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
