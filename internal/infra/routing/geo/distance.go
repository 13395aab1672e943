// Package geo provides the distance functions consumed by heuristics, the
// contractor and the search engine, plus polyline helpers for edge geometry.
package geo

import (
	"math"
	"strings"

	"streetsearch/internal/domain/entity"
	"streetsearch/internal/errors"

	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
)

// EarthRadiusMeters is the mean earth radius used by Fast and Spherical
const EarthRadiusMeters = 6371010.0

// DistanceFunc returns the distance in meters between two coordinates. It
// must be pure, deterministic and symmetric.
type DistanceFunc func(lat1, lng1, lat2, lng2 float64) float64

// Haversine is the great-circle distance on orb's spherical earth
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	return orbgeo.DistanceHaversine(orb.Point{lng1, lat1}, orb.Point{lng2, lat2})
}

// Spherical is the s2 angular distance scaled to meters
func Spherical(lat1, lng1, lat2, lng2 float64) float64 {
	angle := s2.LatLngFromDegrees(lat1, lng1).Distance(s2.LatLngFromDegrees(lat2, lng2))

	return angle.Radians() * EarthRadiusMeters
}

// Fast is an equirectangular approximation, accurate for the short hops a
// search evaluates millions of times
func Fast(lat1, lng1, lat2, lng2 float64) float64 {
	const degToRad = math.Pi / 180

	meanLat := (lat1 + lat2) / 2 * degToRad
	dLat := (lat2 - lat1) * degToRad
	dLng := (lng2 - lng1) * degToRad * math.Cos(meanLat)

	return EarthRadiusMeters * math.Sqrt(dLat*dLat+dLng*dLng)
}

// ByName resolves a configured distance function name
func ByName(name string) (DistanceFunc, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "haversine":
		return Haversine, nil
	case "spherical", "s2":
		return Spherical, nil
	case "fast", "equirectangular":
		return Fast, nil
	default:
		return nil, errors.Errorf("unknown distance function: %s", name)
	}
}

// Between measures the distance between two locations
func Between(fn DistanceFunc, a, b entity.GenericLocation) float64 {
	return fn(a.Lat, a.Lng, b.Lat, b.Lng)
}

// ChainDistance sums the leg distances along an ordered list of locations.
// Lists shorter than two points have zero length.
func ChainDistance(fn DistanceFunc, points []entity.GenericLocation) float64 {
	distance := 0.0
	for idx := 1; idx < len(points); idx++ {
		distance += Between(fn, points[idx-1], points[idx])
	}

	return distance
}

// LineLength measures a lon/lat line string
func LineLength(fn DistanceFunc, line orb.LineString) float64 {
	length := 0.0
	for idx := 1; idx < len(line); idx++ {
		prev, next := line[idx-1], line[idx]
		length += fn(prev.Lat(), prev.Lon(), next.Lat(), next.Lon())
	}

	return length
}
