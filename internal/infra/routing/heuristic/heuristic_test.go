package heuristic

import (
	"testing"

	"streetsearch/internal/domain/entity"
	"streetsearch/internal/domain/graph"
	"streetsearch/internal/errors"
	"streetsearch/internal/infra/routing/geo"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testState struct {
	vertex *graph.Vertex
}

func (s testState) Vertex() *graph.Vertex {
	return s.vertex
}

func stateAt(lat, lng float64) State {
	return testState{vertex: graph.NewVertex("", orb.Point{lng, lat}, "", graph.KindStreet)}
}

func walkRequest(to entity.GenericLocation, waypoints ...entity.GenericLocation) *entity.RoutingRequest {
	req := entity.NewRoutingRequest(entity.NewLocation(25.0, 121.0), to, waypoints...)
	req.WalkReluctance = 2.0
	req.MaxStreetSpeed = 1.0

	return req
}

func TestEuclidean_Estimate(t *testing.T) {
	to := entity.NewLocation(25.01, 121.0)
	h := NewEuclidean(geo.Haversine)
	require.NoError(t, h.Initialize(walkRequest(to)))

	got, err := h.Estimate(stateAt(25.0, 121.0))
	require.NoError(t, err)

	expected := geo.Haversine(25.0, 121.0, 25.01, 121.0) * 2.0 / 1.0
	assert.InDelta(t, expected, got, 1e-6)

	atTarget, err := h.Estimate(stateAt(25.01, 121.0))
	require.NoError(t, err)
	assert.Zero(t, atTarget)
}

func TestHeuristics_NotInitialized(t *testing.T) {
	heuristics := map[string]RemainingWeightHeuristic{
		"euclidean": NewEuclidean(nil),
		"waypoint":  NewWaypointHeuristic(nil, DefaultWaypointOptions()),
	}

	for name, h := range heuristics {
		t.Run(name, func(t *testing.T) {
			_, err := h.Estimate(stateAt(25.0, 121.0))
			assert.True(t, errors.Is(err, ErrNotInitialized))
		})
	}
}

func TestHeuristics_InvalidRequest(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(req *entity.RoutingRequest)
	}{
		{name: "zero speed", mutate: func(req *entity.RoutingRequest) { req.MaxStreetSpeed = 0 }},
		{name: "negative reluctance", mutate: func(req *entity.RoutingRequest) { req.WalkReluctance = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := walkRequest(entity.NewLocation(25.01, 121.0))
			tt.mutate(req)

			assert.ErrorIs(t, NewEuclidean(nil).Initialize(req), ErrInvalidRequest)
			assert.ErrorIs(t, NewWaypointHeuristic(nil, WaypointOptions{}).Initialize(req), ErrInvalidRequest)
		})
	}

	assert.ErrorIs(t, NewEuclidean(nil).Initialize(nil), ErrInvalidRequest)
}

func TestWaypoint_ChainCost(t *testing.T) {
	w1 := entity.NewLocation(25.00, 121.01)
	w2 := entity.NewLocation(25.01, 121.01)
	to := entity.NewLocation(25.01, 121.00)

	h := NewWaypointHeuristic(geo.Haversine, WaypointOptions{AlphaDistanceM: 10})
	require.NoError(t, h.Initialize(walkRequest(to, w1, w2)))
	assert.Equal(t, []entity.GenericLocation{w1, w2, to}, h.Remaining())

	got, err := h.Estimate(stateAt(25.0, 121.0))
	require.NoError(t, err)

	chain := geo.Haversine(25.0, 121.0, w1.Lat, w1.Lng) +
		geo.Haversine(w1.Lat, w1.Lng, w2.Lat, w2.Lng) +
		geo.Haversine(w2.Lat, w2.Lng, to.Lat, to.Lng)
	assert.InDelta(t, chain*2.0, got, 1e-6)

	// Never below the direct estimate
	direct := NewEuclidean(geo.Haversine)
	require.NoError(t, direct.Initialize(walkRequest(to, w1, w2)))
	directCost, err := direct.Estimate(stateAt(25.0, 121.0))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, got, directCost)
}

func TestWaypoint_Monotonicity(t *testing.T) {
	w1 := entity.NewLocation(25.000, 121.001)
	w2 := entity.NewLocation(25.000, 121.002)
	to := entity.NewLocation(25.000, 121.003)

	h := NewWaypointHeuristic(geo.Haversine, WaypointOptions{AlphaDistanceM: 5})
	require.NoError(t, h.Initialize(walkRequest(to, w1, w2)))

	// A walk along the line, including a visit of w2 before w1
	path := []entity.GenericLocation{
		entity.NewLocation(25.000, 121.0000),
		entity.NewLocation(25.000, 121.0005),
		w2,
		w1,
		entity.NewLocation(25.000, 121.0015),
		w2,
		w2,
		to,
		to,
	}

	previous := len(h.Remaining())
	for _, point := range path {
		next := h.Remaining()[0]
		withinAlpha := geo.Haversine(point.Lat, point.Lng, next.Lat, next.Lng) <= 5

		_, err := h.Estimate(stateAt(point.Lat, point.Lng))
		require.NoError(t, err)

		current := len(h.Remaining())
		assert.LessOrEqual(t, current, previous, "remaining waypoints never grow")
		if current < previous {
			assert.Equal(t, previous-1, current, "at most one waypoint per call")
			assert.True(t, withinAlpha, "waypoints are only consumed within alpha")
		}
		previous = current
	}

	// The destination is never consumed
	assert.Equal(t, []entity.GenericLocation{to}, h.Remaining())
}

func TestWaypoint_OutOfOrderVisitKeepsWaypoint(t *testing.T) {
	w1 := entity.NewLocation(25.000, 121.001)
	w2 := entity.NewLocation(25.000, 121.002)
	to := entity.NewLocation(25.000, 121.003)

	h := NewWaypointHeuristic(geo.Haversine, WaypointOptions{AlphaDistanceM: 5})
	require.NoError(t, h.Initialize(walkRequest(to, w1, w2)))

	_, err := h.Estimate(stateAt(w2.Lat, w2.Lng))
	require.NoError(t, err)
	assert.Len(t, h.Remaining(), 3, "only the head of the list can be consumed")
}

func TestWaypoint_ImportanceMultiplier(t *testing.T) {
	to := entity.NewLocation(25.01, 121.0)
	req := walkRequest(to, entity.NewLocation(25.005, 121.0))

	plain := NewWaypointHeuristic(geo.Haversine, WaypointOptions{})
	require.NoError(t, plain.Initialize(req))
	base, err := plain.Estimate(stateAt(25.0, 121.0))
	require.NoError(t, err)

	weighted := NewWaypointHeuristic(geo.Haversine, WaypointOptions{ImportanceMultiplier: 3})
	require.NoError(t, weighted.Initialize(req))
	scaled, err := weighted.Estimate(stateAt(25.0, 121.0))
	require.NoError(t, err)

	assert.InDelta(t, base*3, scaled, 1e-6)
}

func TestWaypoint_NoWaypointsActsLikeEuclidean(t *testing.T) {
	to := entity.NewLocation(25.01, 121.0)
	req := walkRequest(to)

	waypoint := NewWaypointHeuristic(geo.Haversine, WaypointOptions{AlphaDistanceM: 1e9})
	require.NoError(t, waypoint.Initialize(req))
	euclidean := NewEuclidean(geo.Haversine)
	require.NoError(t, euclidean.Initialize(req))

	for _, point := range []entity.GenericLocation{{Lat: 25.0, Lng: 121.0}, {Lat: 25.009, Lng: 121.0}} {
		got, err := waypoint.Estimate(stateAt(point.Lat, point.Lng))
		require.NoError(t, err)
		want, err := euclidean.Estimate(stateAt(point.Lat, point.Lng))
		require.NoError(t, err)
		assert.InDelta(t, want, got, 1e-9)
	}
	assert.Len(t, waypoint.Remaining(), 1)
}

func TestZero(t *testing.T) {
	var h RemainingWeightHeuristic = Zero{}
	require.NoError(t, h.Initialize(nil))

	got, err := h.Estimate(stateAt(25.0, 121.0))
	require.NoError(t, err)
	assert.Zero(t, got)
}
