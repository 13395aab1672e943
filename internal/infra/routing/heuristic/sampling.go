package heuristic

import (
	"encoding/binary"
	"hash/fnv"
	"math"
	"slices"

	"streetsearch/internal/domain/entity"

	"golang.org/x/exp/rand"
)

// SampleWaypoints keeps floor(fraction*n) waypoints, at least one, in their
// original order. The selection is seeded from the coordinates, so the same
// list always yields the same sample. A fraction outside (0, 1) returns the
// input unchanged.
func SampleWaypoints(waypoints []entity.GenericLocation, fraction float64) []entity.GenericLocation {
	if fraction <= 0 || fraction >= 1 || len(waypoints) == 0 {
		return waypoints
	}

	keep := max(int(math.Floor(fraction*float64(len(waypoints)))), 1)

	rng := rand.New(rand.NewSource(waypointSeed(waypoints)))
	indices := rng.Perm(len(waypoints))[:keep]
	slices.Sort(indices)

	sampled := make([]entity.GenericLocation, 0, keep)
	for _, idx := range indices {
		sampled = append(sampled, waypoints[idx])
	}

	return sampled
}

func waypointSeed(waypoints []entity.GenericLocation) uint64 {
	hash := fnv.New64a()
	var buf [16]byte
	for _, point := range waypoints {
		binary.LittleEndian.PutUint64(buf[:8], math.Float64bits(point.Lat))
		binary.LittleEndian.PutUint64(buf[8:], math.Float64bits(point.Lng))
		_, _ = hash.Write(buf[:])
	}

	return hash.Sum64()
}
