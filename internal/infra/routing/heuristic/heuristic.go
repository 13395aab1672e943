// Package heuristic holds remaining-weight estimates that steer the A*
// search. Every implementation is admissible for the engine's cost model as
// long as the importance multiplier stays at 1.
package heuristic

import (
	"streetsearch/internal/domain/entity"
	"streetsearch/internal/domain/graph"
	"streetsearch/internal/errors"
)

var (
	// ErrNotInitialized is returned by Estimate before Initialize succeeded
	ErrNotInitialized = errors.New("heuristic not initialized")

	// ErrInvalidRequest is returned by Initialize for requests the estimate
	// cannot be derived from
	ErrInvalidRequest = errors.New("invalid routing request for heuristic")
)

// State is the part of a search label a heuristic looks at
type State interface {
	Vertex() *graph.Vertex
}

// RemainingWeightHeuristic estimates the cost still needed to finish a search.
// An instance belongs to a single search and is not safe for concurrent use.
type RemainingWeightHeuristic interface {
	// Initialize captures what the estimate needs from the request
	Initialize(req *entity.RoutingRequest) error

	// Estimate returns a lower bound of the remaining cost from state
	Estimate(state State) (float64, error)
}

// costPerMeter converts distance into search cost for the fastest possible travel
func costPerMeter(req *entity.RoutingRequest) (float64, error) {
	if req == nil {
		return 0, errors.Wrap(ErrInvalidRequest, "nil request")
	}
	if req.MaxStreetSpeed <= 0 {
		return 0, errors.Wrapf(ErrInvalidRequest, "max street speed %.2f", req.MaxStreetSpeed)
	}
	if req.WalkReluctance <= 0 {
		return 0, errors.Wrapf(ErrInvalidRequest, "walk reluctance %.2f", req.WalkReluctance)
	}

	return req.WalkReluctance / req.MaxStreetSpeed, nil
}

func stateVertex(state State) (*graph.Vertex, error) {
	if state == nil || state.Vertex() == nil {
		return nil, errors.New("search state has no vertex")
	}

	return state.Vertex(), nil
}

// Zero never estimates any remaining cost, turning A* into Dijkstra.
// One-to-many searches use it since no single target exists.
type Zero struct{}

// Initialize implements RemainingWeightHeuristic
func (Zero) Initialize(*entity.RoutingRequest) error { return nil }

// Estimate implements RemainingWeightHeuristic
func (Zero) Estimate(State) (float64, error) { return 0, nil }
