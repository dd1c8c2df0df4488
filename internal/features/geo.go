package features

import "math"

const earthRadiusMiles = 3958.8

// haversineMiles returns the great-circle distance between two coordinates.
func haversineMiles(lat1, lon1, lat2, lon2 float64) float64 {
	toRad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMiles * math.Asin(math.Min(1, math.Sqrt(a)))
}

// travelBucket maps a distance onto threshold buckets: 0 below the first
// threshold, then 1, 2, ... for each threshold crossed.
func travelBucket(miles float64, thresholds []float64) int {
	bucket := 0
	for _, t := range thresholds {
		if miles >= t {
			bucket++
		}
	}
	return bucket
}
