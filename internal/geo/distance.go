package geo

import "math"

const earthRadiusKm = 6371

// DistanceKm returns the haversine great-circle distance in kilometres
// between two points given in degrees, rounded to 2 decimal places.
// NaN inputs propagate; validation is the caller's job.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	lat1 = toRadians(lat1)
	lon1 = toRadians(lon1)
	lat2 = toRadians(lat2)
	lon2 = toRadians(lon2)

	dlat := lat2 - lat1
	dlon := lon2 - lon1

	a := math.Pow(math.Sin(dlat/2), 2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Pow(math.Sin(dlon/2), 2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return round2(earthRadiusKm * c)
}

func toRadians(deg float64) float64 { return deg * (math.Pi / 180) }

func round2(v float64) float64 { return math.Round(v*100) / 100 }
