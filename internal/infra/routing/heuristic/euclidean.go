package heuristic

import (
	"streetsearch/internal/domain/entity"
	"streetsearch/internal/errors"
	"streetsearch/internal/infra/routing/geo"
)

// Euclidean estimates the straight-line cost to the destination
type Euclidean struct {
	distance     geo.DistanceFunc
	target       entity.GenericLocation
	costPerMeter float64
	initialized  bool
}

// NewEuclidean creates a single-target heuristic using distance
func NewEuclidean(distance geo.DistanceFunc) *Euclidean {
	if distance == nil {
		distance = geo.Haversine
	}

	return &Euclidean{distance: distance}
}

// Initialize implements RemainingWeightHeuristic
func (h *Euclidean) Initialize(req *entity.RoutingRequest) error {
	factor, err := costPerMeter(req)
	if err != nil {
		return err
	}

	h.target = req.To
	h.costPerMeter = factor
	h.initialized = true

	return nil
}

// Estimate implements RemainingWeightHeuristic
func (h *Euclidean) Estimate(state State) (float64, error) {
	if !h.initialized {
		return 0, errors.WithStack(ErrNotInitialized)
	}
	v, err := stateVertex(state)
	if err != nil {
		return 0, err
	}

	return h.distance(v.Lat(), v.Lng(), h.target.Lat, h.target.Lng) * h.costPerMeter, nil
}
