package calculator

import (
	"math"

	"account-explorer/internal/models"
)

// meanEarthRadius is in meters.
const meanEarthRadius = 6371000.0

const degree = math.Pi / 180

// Haversine is the great-circle distance between a and b, in meters.
func Haversine(a, b models.GeoPoint) float64 {
	phi1, phi2 := a.Lat*degree, b.Lat*degree
	dPhi := phi2 - phi1
	dLambda := (b.Lon - a.Lon) * degree

	sinPhi, sinLambda := math.Sin(dPhi/2), math.Sin(dLambda/2)
	h := sinPhi*sinPhi + math.Cos(phi1)*math.Cos(phi2)*sinLambda*sinLambda
	return 2 * meanEarthRadius * math.Asin(math.Sqrt(math.Min(1, h)))
}

// Kilometers is Haversine in kilometers.
func Kilometers(a, b models.GeoPoint) float64 {
	return Haversine(a, b) / 1000
}
