// Package geo provides pure great-circle distance math over GPS fixes.
//
// Everything here is stateless. Totals are always recomputed over the full
// point sequence instead of accumulated fix-by-fix, because incremental
// accumulation compounds floating-point drift over long sessions.
package geo

import (
	"math"

	"github.com/okian/stride/internal/domain/model"
)

// EarthRadiusMeters is the fixed mean Earth radius used for all distances.
const EarthRadiusMeters = 6371000.0

// Distance returns the haversine distance between two fixes in meters.
// It is symmetric, zero for coincident points, and never negative.
func Distance(a, b model.GeoPoint) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return EarthRadiusMeters * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// TotalDistance sums Distance over consecutive pairs. It is 0 for fewer than
// two points.
func TotalDistance(points []model.GeoPoint) float64 {
	var total float64
	for i := 1; i < len(points); i++ {
		total += Distance(points[i-1], points[i])
	}
	return total
}

// MilesToMeters converts a distance in statute miles to meters.
func MilesToMeters(mi float64) float64 { return mi * 1609.34 }

// FeetToMeters converts an elevation in feet to meters.
func FeetToMeters(ft float64) float64 { return ft * 0.3048 }
