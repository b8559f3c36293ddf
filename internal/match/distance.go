package match

import (
	"fmt"
	"math"
	"strings"
)

// Metric returns the distance between two coordinates given in degrees.
type Metric func(lat1, lon1, lat2, lon2 float64) float64

// Euclidean is the flat distance in degree space. It is not a physical
// distance; one degree of longitude shrinks with latitude.
func Euclidean(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := lat1 - lat2
	dLon := lon1 - lon2
	return math.Sqrt(dLat*dLat + dLon*dLon)
}

const earthRadiusKm = 6371.0088

// Haversine is the great-circle distance in kilometres on a spherical Earth.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) + math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(a)))
}

// MetricByName resolves "euclidean" or "haversine".
func MetricByName(name string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "euclidean":
		return Euclidean, nil
	case "haversine":
		return Haversine, nil
	default:
		return nil, fmt.Errorf("unknown distance metric %q", name)
	}
}
