package heuristic

import (
	"slices"

	"streetsearch/internal/domain/entity"
	"streetsearch/internal/errors"
	"streetsearch/internal/infra/routing/geo"
)

// WaypointOptions tunes the waypoint heuristic
type WaypointOptions struct {
	// AlphaDistanceM is how close the search must get to the next waypoint
	// before it counts as visited
	AlphaDistanceM float64

	// ImportanceMultiplier scales the estimate. Values above 1 trade
	// optimality for speed; zero or negative means 1.
	ImportanceMultiplier float64

	// SampleFraction keeps only part of the waypoints, see SampleWaypoints.
	// Zero or one keeps them all.
	SampleFraction float64
}

// DefaultWaypointOptions returns the options used when nothing is configured
func DefaultWaypointOptions() WaypointOptions {
	return WaypointOptions{
		AlphaDistanceM:       50,
		ImportanceMultiplier: 1,
	}
}

// Waypoint estimates the cost of visiting the remaining waypoints in order
// and then reaching the destination. Waypoints are consumed one at a time as
// the search passes within AlphaDistanceM of the next one; the remaining list
// never grows and the destination is never consumed.
type Waypoint struct {
	distance     geo.DistanceFunc
	opts         WaypointOptions
	remaining    []entity.GenericLocation
	costPerMeter float64
}

// NewWaypointHeuristic creates a waypoint heuristic using distance
func NewWaypointHeuristic(distance geo.DistanceFunc, opts WaypointOptions) *Waypoint {
	if distance == nil {
		distance = geo.Haversine
	}
	if opts.ImportanceMultiplier <= 0 {
		opts.ImportanceMultiplier = 1
	}
	if opts.AlphaDistanceM < 0 {
		opts.AlphaDistanceM = 0
	}

	return &Waypoint{distance: distance, opts: opts}
}

// Initialize implements RemainingWeightHeuristic
func (h *Waypoint) Initialize(req *entity.RoutingRequest) error {
	factor, err := costPerMeter(req)
	if err != nil {
		return err
	}

	sampled := SampleWaypoints(req.Waypoints, h.opts.SampleFraction)
	remaining := make([]entity.GenericLocation, 0, len(sampled)+1)
	remaining = append(remaining, sampled...)
	remaining = append(remaining, req.To)

	h.remaining = remaining
	h.costPerMeter = factor * h.opts.ImportanceMultiplier

	return nil
}

// Estimate implements RemainingWeightHeuristic. It may consume the next
// waypoint, so the search must call it in the order vertices are reached.
func (h *Waypoint) Estimate(state State) (float64, error) {
	if len(h.remaining) == 0 {
		return 0, errors.WithStack(ErrNotInitialized)
	}
	v, err := stateVertex(state)
	if err != nil {
		return 0, err
	}

	lat, lng := v.Lat(), v.Lng()
	if len(h.remaining) > 1 {
		next := h.remaining[0]
		if h.distance(lat, lng, next.Lat, next.Lng) <= h.opts.AlphaDistanceM {
			h.remaining = h.remaining[1:]
		}
	}

	total := 0.0
	for _, point := range h.remaining {
		total += h.distance(lat, lng, point.Lat, point.Lng)
		lat, lng = point.Lat, point.Lng
	}

	return total * h.costPerMeter, nil
}

// Remaining returns a copy of the waypoints still ahead, destination last
func (h *Waypoint) Remaining() []entity.GenericLocation {
	return slices.Clone(h.remaining)
}
