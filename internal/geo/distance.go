package geo

import "math"

// Haversine returns the great-circle distance in meters between two points.
func Haversine(a, b Coordinate) float64 {
	const R = 6371000 // Earth radius in meters
	rad := math.Pi / 180.0

	lat1 := a.Lat * rad
	lat2 := b.Lat * rad
	dlat := (b.Lat - a.Lat) * rad
	dlon := (b.Lon - a.Lon) * rad

	h := math.Pow(math.Sin(dlat/2), 2) + math.Cos(lat1)*math.Cos(lat2)*math.Pow(math.Sin(dlon/2), 2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return R * c
}

// HaversineKm returns the great-circle distance in kilometers.
func HaversineKm(a, b Coordinate) float64 {
	return Haversine(a, b) / 1000.0
}

// Average city travel speeds in km/h per mode, used when no routing service
// priced a leg.
const (
	WalkingSpeedKmh = 5.0
	TransitSpeedKmh = 20.0
	DrivingSpeedKmh = 30.0
)

func speedFor(mode string) float64 {
	switch mode {
	case "walking":
		return WalkingSpeedKmh
	case "transit":
		return TransitSpeedKmh
	default:
		return DrivingSpeedKmh
	}
}

// EstimateLeg returns a straight-line distance (km) and travel duration
// (minutes) between two points for the given mode.
func EstimateLeg(from, to Coordinate, mode string) (km float64, minutes float64) {
	km = HaversineKm(from, to)
	minutes = km / speedFor(mode) * 60
	return km, minutes
}
